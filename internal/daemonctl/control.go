package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"matuwall/internal/ipc"
	"matuwall/internal/paths"
	"matuwall/internal/pidfile"
)

// ErrDaemonNotRunning indicates neither the socket nor a signal reached a daemon.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Route names the channel that carried a command.
type Route string

const (
	RouteSocket Route = "socket"
	RouteSignal Route = "signal"
)

// Sender delivers commands to a running daemon.
type Sender struct {
	Paths       paths.Paths
	DialTimeout time.Duration
}

// NewSender returns a sender for the daemon rooted at p.
func NewSender(p paths.Paths) *Sender {
	return &Sender{Paths: p, DialTimeout: ipc.DefaultDialTimeout}
}

// Send tries the control socket first and falls back to signalling the
// recorded daemon pid when the socket file is missing or refuses the
// connection. It never spawns anything.
func (s *Sender) Send(cmd ipc.Command) (Route, error) {
	if _, err := os.Stat(s.Paths.SocketPath); err == nil {
		if err := ipc.Send(s.Paths.SocketPath, cmd, s.DialTimeout); err == nil {
			return RouteSocket, nil
		}
	}

	sig, ok := cmd.Signal()
	if !ok {
		return "", fmt.Errorf("%s has no signal form: %w", cmd, ErrDaemonNotRunning)
	}
	pid, err := pidfile.New(s.Paths.DaemonPIDPath).Read()
	if err != nil {
		return "", ErrDaemonNotRunning
	}
	if err := unix.Kill(pid, sig); err != nil {
		if isDaemonUnavailable(err) {
			return "", ErrDaemonNotRunning
		}
		return "", fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	return RouteSignal, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ESRCH)
}

// SocketState summarizes what is behind the socket path.
type SocketState string

const (
	SocketReady   SocketState = "ready"
	SocketPresent SocketState = "present"
	SocketStale   SocketState = "stale"
	SocketMissing SocketState = "missing"
)

// Status is the client-side snapshot printed by --status.
type Status struct {
	RuntimeDir    string
	SocketPath    string
	SocketState   SocketState
	DaemonRunning bool
	DaemonPID     int
	UIRunning     bool
	UIPID         int
}

// BuildStatus inspects the runtime directory without modifying it.
func BuildStatus(p paths.Paths) Status {
	status := Status{RuntimeDir: p.RuntimeDir, SocketPath: p.SocketPath}

	if pid, err := pidfile.New(p.DaemonPIDPath).Read(); err == nil && pidfile.Alive(pid) {
		status.DaemonRunning = true
		status.DaemonPID = pid
	}
	if pid, err := pidfile.New(p.UIPIDPath).Read(); err == nil && pidfile.Alive(pid) {
		status.UIRunning = true
		status.UIPID = pid
	}

	_, statErr := os.Stat(p.SocketPath)
	exists := statErr == nil
	switch {
	case exists && ipc.Probe(p.SocketPath):
		status.SocketState = SocketReady
	case exists && status.DaemonRunning:
		status.SocketState = SocketPresent
	case exists:
		status.SocketState = SocketStale
	default:
		status.SocketState = SocketMissing
	}
	return status
}
