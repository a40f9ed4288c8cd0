package supervisor

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"matuwall/internal/logging"
	"matuwall/internal/pidfile"
)

func newTestSupervisor(t *testing.T, script string, termTimeout time.Duration) (*Supervisor, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Options{
		Executable:  "/bin/sh",
		Args:        []string{"-c", script},
		Markers:     []string{"sleep"},
		PIDPath:     filepath.Join(dir, "ui.pid"),
		RuntimeDir:  dir,
		LogPath:     filepath.Join(dir, "ui.log"),
		TermTimeout: termTimeout,
		Environ:     func() []string { return []string{"PATH=" + os.Getenv("PATH")} },
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _, _ = s.Terminate() })
	return s, dir
}

// waitRunning polls until the child has exec'd into its final command line.
func waitRunning(t *testing.T, s *Supervisor) int {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		raw, err := pidfile.New(s.opts.PIDPath).Read()
		if err == nil {
			data, _ := os.ReadFile(filepath.Join("/proc", strconv.Itoa(raw), "cmdline"))
			if strings.Contains(string(data), "sleep") {
				if pid, ok := s.Running(); ok {
					return pid
				}
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("ui did not start")
	return 0
}

func TestSpawnWritesPIDAndLogSeparator(t *testing.T) {
	s, dir := newTestSupervisor(t, `echo "ui=$MATUWALL_UI keep=$MATUWALL_KEEP_ALIVE"; exec sleep 30`, time.Second)

	pid, err := s.Spawn(SpawnSpec{KeepAlive: true})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "ui.pid"))
	if err != nil {
		t.Fatalf("pid file missing right after spawn: %v", err)
	}
	if strings.TrimSpace(string(raw)) != strconv.Itoa(pid) {
		t.Fatalf("pid file = %q, want %d", raw, pid)
	}
	waitRunning(t, s)

	var logText string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(filepath.Join(dir, "ui.log"))
		logText = string(data)
		if strings.Contains(logText, "ui=1 keep=1") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.HasPrefix(logText, logSeparator) {
		t.Fatalf("log should start with separator, got %q", logText)
	}
	if !strings.Contains(logText, "ui=1 keep=1") {
		t.Fatalf("child env markers missing from log: %q", logText)
	}
}

func TestTerminateGraceful(t *testing.T) {
	s, dir := newTestSupervisor(t, "exec sleep 30", time.Second)
	if _, err := s.Spawn(SpawnSpec{}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	pid := waitRunning(t, s)

	forced, err := s.Terminate()
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if forced {
		t.Fatal("sleep should exit on SIGTERM without escalation")
	}
	if _, ok := s.Running(); ok {
		t.Fatal("ui still reported running")
	}
	if _, err := os.Stat(filepath.Join(dir, "ui.pid")); !os.IsNotExist(err) {
		t.Fatalf("ui.pid should be removed, stat err=%v", err)
	}
	if pidfile.Alive(pid) {
		t.Fatalf("process %d still alive", pid)
	}
}

func TestTerminateEscalatesToKill(t *testing.T) {
	s, _ := newTestSupervisor(t, `trap "" TERM; exec sleep 30`, 200*time.Millisecond)
	if _, err := s.Spawn(SpawnSpec{}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	waitRunning(t, s)

	start := time.Now()
	forced, err := s.Terminate()
	if err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if !forced {
		t.Fatal("expected SIGKILL escalation for a TERM-ignoring child")
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Fatalf("escalated before the grace period: %v", elapsed)
	}
	if _, ok := s.Running(); ok {
		t.Fatal("ui still reported running")
	}
}

func TestSignalDeliversToRunningUI(t *testing.T) {
	s, dir := newTestSupervisor(t, `trap 'echo got-usr1' USR1; while :; do sleep 0.05; done`, time.Second)
	s.opts.Markers = []string{"/bin/sh"}
	if _, err := s.Spawn(SpawnSpec{}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.Running(); ok {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if !s.Signal(syscall.SIGUSR1) {
		t.Fatal("Signal reported no running ui")
	}

	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(filepath.Join(dir, "ui.log"))
		if strings.Contains(string(data), "got-usr1") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("trap output not observed")
}

func TestRunningClearsStalePID(t *testing.T) {
	s, dir := newTestSupervisor(t, "exit 0", time.Second)
	if err := pidfile.New(filepath.Join(dir, "ui.pid")).Write(os.Getpid()); err != nil {
		t.Fatal(err)
	}
	// The test binary is alive but its command line lacks the marker.
	if _, ok := s.Running(); ok {
		t.Fatal("foreign pid must not count as the ui")
	}
	if _, err := os.Stat(filepath.Join(dir, "ui.pid")); !os.IsNotExist(err) {
		t.Fatal("mismatched pid record should be cleared")
	}
	if s.Signal(syscall.SIGUSR1) {
		t.Fatal("Signal must report false without a ui")
	}
	if forced, err := s.Terminate(); forced || err != nil {
		t.Fatalf("Terminate without ui = %v, %v", forced, err)
	}
}

func TestPrepareEnv(t *testing.T) {
	runtime := t.TempDir()
	for _, name := range []string{"wayland-1", "wayland-0.lock", "wayland-0", "bus"} {
		if err := os.WriteFile(filepath.Join(runtime, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	lib := filepath.Join(t.TempDir(), "libgtk4-layer-shell.so")
	if err := os.WriteFile(lib, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(t.TempDir(), "absent.so")

	tests := []struct {
		name  string
		base  []string
		panel bool
		want  map[string]string
	}{
		{
			name: "discovers display and bus",
			base: []string{"HOME=/home/u"},
			want: map[string]string{
				"XDG_RUNTIME_DIR":          runtime,
				"WAYLAND_DISPLAY":          "wayland-0",
				"XDG_SESSION_TYPE":         "wayland",
				"GDK_BACKEND":              "wayland",
				"DBUS_SESSION_BUS_ADDRESS": "unix:path=" + filepath.Join(runtime, "bus"),
				"LD_PRELOAD":               "",
			},
		},
		{
			name: "existing values win",
			base: []string{"XDG_RUNTIME_DIR=" + runtime, "WAYLAND_DISPLAY=wayland-9", "XDG_SESSION_TYPE=x11", "GDK_BACKEND=x11", "DBUS_SESSION_BUS_ADDRESS=unix:path=/elsewhere"},
			want: map[string]string{
				"WAYLAND_DISPLAY":          "wayland-9",
				"XDG_SESSION_TYPE":         "x11",
				"GDK_BACKEND":              "wayland,x11",
				"DBUS_SESSION_BUS_ADDRESS": "unix:path=/elsewhere",
			},
		},
		{
			name: "backend already lists wayland",
			base: []string{"GDK_BACKEND=x11, wayland"},
			want: map[string]string{"GDK_BACKEND": "x11, wayland"},
		},
		{
			name:  "panel appends preload",
			base:  []string{"LD_PRELOAD=/opt/other.so"},
			panel: true,
			want:  map[string]string{"LD_PRELOAD": "/opt/other.so:" + lib},
		},
		{
			name:  "panel preload is idempotent",
			base:  []string{"LD_PRELOAD=" + lib},
			panel: true,
			want:  map[string]string{"LD_PRELOAD": lib},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PrepareEnv(tt.base, EnvOptions{
				RuntimeDir:        runtime,
				Panel:             tt.panel,
				PreloadCandidates: []string{missing, lib},
			})
			got := map[string]string{}
			for _, kv := range result.Env {
				k, v, _ := strings.Cut(kv, "=")
				got[k] = v
			}
			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("%s = %q, want %q", key, got[key], want)
				}
			}
		})
	}
}

func TestPrepareEnvWithoutPanelNeverPreloads(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libgtk4-layer-shell.so")
	if err := os.WriteFile(lib, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := PrepareEnv(nil, EnvOptions{RuntimeDir: t.TempDir(), PreloadCandidates: []string{lib}})
	for _, kv := range result.Env {
		if strings.HasPrefix(kv, "LD_PRELOAD=") {
			t.Fatalf("unexpected preload in non-panel env: %s", kv)
		}
	}
	if result.WaylandDisplay != "" {
		t.Fatalf("no wayland socket exists, got %q", result.WaylandDisplay)
	}
}
