// Package paths resolves the per-user runtime directory and the well-known
// files the daemon, the UI and the CLI rendezvous on.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const appName = "matuwall"

const (
	socketName    = "ipc.sock"
	daemonPIDName = "daemon.pid"
	uiPIDName     = "ui.pid"
	uiLogName     = "ui.log"
	lockName      = "daemon.lock"
)

// Paths names every file under the runtime directory.
type Paths struct {
	// BaseRuntimeDir is the session runtime directory shared with the
	// compositor and D-Bus (XDG_RUNTIME_DIR).
	BaseRuntimeDir string
	// RuntimeDir is the application subdirectory of BaseRuntimeDir.
	RuntimeDir    string
	SocketPath    string
	DaemonPIDPath string
	UIPIDPath     string
	UILogPath     string
	LockPath      string
}

// Resolve derives paths from XDG_RUNTIME_DIR, falling back to
// /run/user/<uid> when the variable is unset or empty.
func Resolve() Paths {
	return ResolveFrom(BaseRuntimeDir())
}

// ResolveFrom derives paths under an explicit base runtime directory.
func ResolveFrom(base string) Paths {
	runtime := filepath.Join(base, appName)
	return Paths{
		BaseRuntimeDir: base,
		RuntimeDir:     runtime,
		SocketPath:     filepath.Join(runtime, socketName),
		DaemonPIDPath:  filepath.Join(runtime, daemonPIDName),
		UIPIDPath:      filepath.Join(runtime, uiPIDName),
		UILogPath:      filepath.Join(runtime, uiLogName),
		LockPath:       filepath.Join(runtime, lockName),
	}
}

// BaseRuntimeDir returns the session runtime directory without the
// application suffix.
func BaseRuntimeDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); dir != "" {
		return dir
	}
	return filepath.Join("/run/user", strconv.Itoa(os.Getuid()))
}

// EnsureRuntimeDir creates the application runtime directory and confirms it
// is writable.
func (p Paths) EnsureRuntimeDir() error {
	if err := os.MkdirAll(p.RuntimeDir, 0o700); err != nil {
		return fmt.Errorf("create runtime directory %q: %w", p.RuntimeDir, err)
	}
	if err := unix.Access(p.RuntimeDir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("runtime directory %q not writable: %w", p.RuntimeDir, err)
	}
	return nil
}
