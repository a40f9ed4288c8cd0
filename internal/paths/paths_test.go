package paths

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestResolveUsesXDGRuntimeDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", base)

	p := Resolve()
	want := filepath.Join(base, "matuwall")
	if p.RuntimeDir != want {
		t.Fatalf("RuntimeDir = %q, want %q", p.RuntimeDir, want)
	}
	if p.BaseRuntimeDir != base {
		t.Fatalf("BaseRuntimeDir = %q, want %q", p.BaseRuntimeDir, base)
	}
	checks := map[string]string{
		p.SocketPath:    "ipc.sock",
		p.DaemonPIDPath: "daemon.pid",
		p.UIPIDPath:     "ui.pid",
		p.UILogPath:     "ui.log",
		p.LockPath:      "daemon.lock",
	}
	for got, name := range checks {
		if got != filepath.Join(want, name) {
			t.Errorf("expected %s under runtime dir, got %q", name, got)
		}
	}
}

func TestResolveFallsBackToRunUser(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	p := Resolve()
	want := filepath.Join("/run/user", strconv.Itoa(os.Getuid()), "matuwall")
	if p.RuntimeDir != want {
		t.Fatalf("RuntimeDir = %q, want %q", p.RuntimeDir, want)
	}
}

func TestEnsureRuntimeDirCreatesPrivateDirectory(t *testing.T) {
	p := ResolveFrom(t.TempDir())
	if err := p.EnsureRuntimeDir(); err != nil {
		t.Fatalf("EnsureRuntimeDir: %v", err)
	}
	info, err := os.Stat(p.RuntimeDir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() || info.Mode().Perm() != 0o700 {
		t.Fatalf("unexpected runtime dir mode %v", info.Mode())
	}
}
