// Package supervisor owns the lifecycle of the UI child process: spawning it
// with a prepared environment, signalling it in keep-alive mode, and
// terminating it with escalation from SIGTERM to SIGKILL.
package supervisor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"matuwall/internal/logging"
	"matuwall/internal/pidfile"
)

const (
	defaultTermTimeout  = time.Second
	defaultPollInterval = 50 * time.Millisecond

	logSeparator = "\n--- matuwall ui start ---\n"

	// EnvUIMarker is set to "1" in every supervised UI process.
	EnvUIMarker = "MATUWALL_UI"
	// EnvKeepAlive tells the UI whether hide should keep the process alive.
	EnvKeepAlive = "MATUWALL_KEEP_ALIVE"
	// EnvSession carries a per-spawn identifier for log correlation.
	EnvSession = "MATUWALL_UI_SESSION"
)

// Options configures a Supervisor.
type Options struct {
	// Executable and Args form the UI command line.
	Executable string
	Args       []string
	// Markers must all appear in /proc/<pid>/cmdline for a recorded pid to
	// count as the UI.
	Markers []string
	PIDPath string
	// RuntimeDir is the session runtime directory (not the app subdirectory).
	RuntimeDir        string
	LogPath           string
	TermTimeout       time.Duration
	PollInterval      time.Duration
	Environ           func() []string
	PreloadCandidates []string
	Logger            *slog.Logger
}

// SpawnSpec carries per-launch settings taken from the current config.
type SpawnSpec struct {
	Panel     bool
	KeepAlive bool
	// ExtraEnv is appended after preparation (KEY=VALUE).
	ExtraEnv []string
}

// Supervisor tracks at most one UI process through its pid file.
type Supervisor struct {
	opts   Options
	pid    *pidfile.File
	logger *slog.Logger

	mu       sync.Mutex
	children map[int]chan struct{}
}

// New validates options and returns a Supervisor.
func New(opts Options) (*Supervisor, error) {
	if opts.Executable == "" {
		return nil, errors.New("supervisor: executable is required")
	}
	if opts.PIDPath == "" {
		return nil, errors.New("supervisor: pid path is required")
	}
	if opts.TermTimeout <= 0 {
		opts.TermTimeout = defaultTermTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Environ == nil {
		opts.Environ = os.Environ
	}
	return &Supervisor{
		opts:     opts,
		pid:      pidfile.New(opts.PIDPath),
		logger:   logging.NewComponentLogger(opts.Logger, "supervisor"),
		children: make(map[int]chan struct{}),
	}, nil
}

// Running returns the UI pid when the recorded process is alive and is the
// UI. A stale record is cleared.
func (s *Supervisor) Running() (int, bool) {
	pid, err := s.pid.LiveMatching(s.opts.Markers...)
	if err != nil {
		return 0, false
	}
	if s.reaped(pid) {
		_ = s.pid.Remove()
		return 0, false
	}
	return pid, true
}

// Spawn starts a new UI process and records its pid before returning.
func (s *Supervisor) Spawn(spec SpawnSpec) (int, error) {
	prepared := PrepareEnv(s.opts.Environ(), EnvOptions{
		RuntimeDir:        s.opts.RuntimeDir,
		Panel:             spec.Panel,
		PreloadCandidates: s.opts.PreloadCandidates,
	})
	if prepared.WaylandDisplay == "" {
		logging.WarnWithContext(s.logger, "no wayland display found", "ui_wayland_missing",
			logging.String(logging.FieldImpact, "panel mode may run without layer-shell"),
			logging.String(logging.FieldErrorHint, "export WAYLAND_DISPLAY in the daemon environment"))
	}
	if spec.Panel && prepared.Preload == "" {
		logging.WarnWithContext(s.logger, "layer-shell library not found", "ui_layer_shell_missing",
			logging.String(logging.FieldImpact, "panel mode falls back to a regular window"),
			logging.String(logging.FieldErrorHint, "install gtk4-layer-shell"))
	}

	session := uuid.NewString()
	env := append(prepared.Env,
		EnvUIMarker+"=1",
		EnvKeepAlive+"="+boolEnv(spec.KeepAlive),
		EnvSession+"="+session,
	)
	env = append(env, spec.ExtraEnv...)

	cmd := exec.Command(s.opts.Executable, s.opts.Args...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	logFile := s.openLog()
	if logFile != nil {
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			_ = logFile.Close()
		}
		return 0, fmt.Errorf("start ui: %w", err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}

	pid := cmd.Process.Pid
	done := make(chan struct{})
	s.mu.Lock()
	s.children[pid] = done
	s.mu.Unlock()
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	if err := s.pid.Write(pid); err != nil {
		logging.WarnWithContext(s.logger, "failed to record ui pid", "ui_pid_write_failed",
			logging.Error(err),
			logging.Int(logging.FieldPID, pid),
			logging.String(logging.FieldImpact, "later hide/toggle may not find the UI"),
			logging.String(logging.FieldErrorHint, "check runtime directory permissions"))
	}

	s.logger.Info("ui spawned",
		logging.String(logging.FieldEventType, "ui_spawned"),
		logging.Int(logging.FieldPID, pid),
		logging.String("session", session),
		logging.Bool("panel", spec.Panel),
		logging.Bool("keep_alive", spec.KeepAlive))
	return pid, nil
}

// openLog appends the start separator to the UI log. A nil result sends the
// child's output to the null device.
func (s *Supervisor) openLog() *os.File {
	if s.opts.LogPath == "" {
		return nil
	}
	f, err := os.OpenFile(s.opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Debug("ui log unavailable", logging.String(logging.FieldPath, s.opts.LogPath), logging.Error(err))
		return nil
	}
	if _, err := io.WriteString(f, logSeparator); err != nil {
		_ = f.Close()
		return nil
	}
	return f
}

// Signal delivers sig to the running UI. It reports false when no UI is
// running or delivery failed, clearing the pid record in the latter case.
func (s *Supervisor) Signal(sig syscall.Signal) bool {
	pid, ok := s.Running()
	if !ok {
		return false
	}
	if err := unix.Kill(pid, sig); err != nil {
		_ = s.pid.Remove()
		return false
	}
	s.logger.Debug("ui signalled", logging.Int(logging.FieldPID, pid), logging.String("signal", sig.String()))
	return true
}

// Terminate stops the UI: SIGTERM, poll for exit up to TermTimeout, then
// SIGKILL. The pid record is cleared in every case. forced reports whether
// SIGKILL was needed.
func (s *Supervisor) Terminate() (forced bool, err error) {
	pid, ok := s.Running()
	if !ok {
		return false, nil
	}
	defer func() { _ = s.pid.Remove() }()

	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return false, nil
		}
		return false, fmt.Errorf("terminate ui %d: %w", pid, err)
	}

	if s.waitExit(pid, s.opts.TermTimeout) {
		s.logger.Info("ui terminated",
			logging.String(logging.FieldEventType, "ui_terminated"),
			logging.Int(logging.FieldPID, pid))
		return false, nil
	}

	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return true, fmt.Errorf("kill ui %d: %w", pid, err)
	}
	s.waitExit(pid, s.opts.TermTimeout)
	logging.WarnWithContext(s.logger, "ui ignored SIGTERM; killed", "ui_force_killed",
		logging.Int(logging.FieldPID, pid),
		logging.Duration("grace", s.opts.TermTimeout),
		logging.String(logging.FieldImpact, "ui state was not saved"),
		logging.String(logging.FieldErrorHint, "check ui.log for a hung shutdown"))
	return true, nil
}

func (s *Supervisor) waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !pidfile.Alive(pid) || s.reaped(pid) {
			s.forget(pid)
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(s.opts.PollInterval)
	}
}

// reaped reports whether pid is a child of this supervisor that has already
// exited, which covers the window before the kernel entry disappears.
func (s *Supervisor) reaped(pid int) bool {
	s.mu.Lock()
	done, ok := s.children[pid]
	s.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func (s *Supervisor) forget(pid int) {
	s.mu.Lock()
	delete(s.children, pid)
	s.mu.Unlock()
}

func boolEnv(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
