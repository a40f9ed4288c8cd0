package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"matuwall/internal/config"
	"matuwall/internal/ipc"
	"matuwall/internal/logging"
	"matuwall/internal/paths"
	"matuwall/internal/pidfile"
	"matuwall/internal/supervisor"
)

// ErrAlreadyRunning reports that another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another matuwall daemon instance is already running")

const defaultPollInterval = 500 * time.Millisecond

// UI is the subset of the supervisor the daemon drives.
type UI interface {
	Running() (int, bool)
	Spawn(spec supervisor.SpawnSpec) (int, error)
	Signal(sig syscall.Signal) bool
	Terminate() (forced bool, err error)
}

// ConfigLoader reads the current configuration from disk.
type ConfigLoader func() (*config.Config, error)

// Options configures a Daemon.
type Options struct {
	Paths      paths.Paths
	ConfigPath string
	// Config is the configuration in effect at startup; LoadConfig replaces
	// it on reload or when the file fingerprint changes.
	Config     *config.Config
	LoadConfig ConfigLoader
	UI         UI
	Logger     *slog.Logger
	// Signals overrides process signal subscription, mainly for tests.
	Signals      <-chan os.Signal
	PollInterval time.Duration
}

// State is the daemon lifecycle phase.
type State int32

const (
	StateStarting State = iota
	StateListening
	StateHandling
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateHandling:
		return "handling"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Daemon serializes control commands from the socket and from signals onto
// a single loop that owns the UI process.
type Daemon struct {
	opts   Options
	logger *slog.Logger
	lock   *flock.Flock
	cfg    *config.Config
	stamp  config.FileStamp

	state    atomic.Int32
	stopping bool
}

// New constructs a daemon. Config, LoadConfig and UI are required.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.LoadConfig == nil || opts.UI == nil {
		return nil, errors.New("daemon requires config, config loader, and ui supervisor")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Daemon{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "daemon"),
		lock:   flock.New(opts.Paths.LockPath),
		cfg:    opts.Config,
	}, nil
}

// State returns the current lifecycle phase.
func (d *Daemon) State() State {
	return State(d.state.Load())
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	return d.cfg
}

// Run binds the control socket and processes commands until quit, a
// terminating signal, or ctx cancellation. A second instance fails with
// ErrAlreadyRunning before touching any runtime file.
func (d *Daemon) Run(ctx context.Context) error {
	d.state.Store(int32(StateStarting))
	defer d.state.Store(int32(StateStopped))

	if err := d.opts.Paths.EnsureRuntimeDir(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Debug("failed to release daemon lock", logging.Error(err))
		}
	}()

	srv, err := ipc.NewServer(ctx, d.opts.Paths.SocketPath, d.logger)
	if err != nil {
		return fmt.Errorf("bind control socket %s: %w", d.opts.Paths.SocketPath, err)
	}
	srv.Serve()

	daemonPID := pidfile.New(d.opts.Paths.DaemonPIDPath)
	if err := daemonPID.Write(os.Getpid()); err != nil {
		logging.WarnWithContext(d.logger, "failed to write daemon pid", "daemon_pid_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "signal fallback from the CLI will not reach this daemon"),
			logging.String(logging.FieldErrorHint, "check runtime directory permissions"))
	}
	defer d.cleanup(srv, daemonPID)

	signals := d.opts.Signals
	if signals == nil {
		ch := make(chan os.Signal, 8)
		for _, sig := range ipc.Signals() {
			signal.Notify(ch, sig)
		}
		defer signal.Stop(ch)
		signals = ch
	}

	if stamp, err := config.Stamp(d.opts.ConfigPath); err == nil {
		d.stamp = stamp
	}

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	d.state.Store(int32(StateListening))
	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("socket", d.opts.Paths.SocketPath),
		logging.Int(logging.FieldPID, os.Getpid()))

	for !d.stopping {
		select {
		case cmd := <-srv.Commands():
			d.dispatch(cmd, "socket")
		case sig := <-signals:
			sysSig, ok := sig.(syscall.Signal)
			if !ok {
				continue
			}
			if cmd, ok := ipc.CommandForSignal(sysSig); ok {
				d.dispatch(cmd, "signal")
			}
		case <-ticker.C:
			d.reloadConfig(false)
		case <-ctx.Done():
			d.stopping = true
		}
	}

	d.state.Store(int32(StateStopping))
	d.logger.Info("daemon stopping", logging.String(logging.FieldEventType, "daemon_stopping"))
	return nil
}

func (d *Daemon) dispatch(cmd ipc.Command, source string) {
	d.state.Store(int32(StateHandling))
	d.logger.Debug("command received",
		logging.String(logging.FieldCommand, cmd.String()),
		logging.String(logging.FieldSource, source))
	d.Handle(cmd)
	if !d.stopping {
		d.state.Store(int32(StateListening))
	}
}

// Handle applies one command. It must only be called from the goroutine
// running Run, or before Run starts.
func (d *Daemon) Handle(cmd ipc.Command) {
	switch cmd {
	case ipc.CommandShow:
		d.show()
	case ipc.CommandHide:
		d.hide(d.cfg.UI.KeepAlive)
	case ipc.CommandToggle:
		_, running := d.opts.UI.Running()
		switch {
		case running && d.cfg.UI.KeepAlive:
			d.opts.UI.Signal(syscall.SIGHUP)
		case running:
			d.hide(false)
		default:
			d.show()
		}
	case ipc.CommandQuit:
		d.hide(d.cfg.UI.KeepAlive)
		d.stopping = true
	case ipc.CommandReload:
		d.reload()
	case ipc.CommandStatus:
		// Computed by the client from runtime files.
	}
}

// Stopping reports whether a quit has been handled.
func (d *Daemon) Stopping() bool {
	return d.stopping
}

func (d *Daemon) show() {
	if _, running := d.opts.UI.Running(); running {
		if d.cfg.UI.KeepAlive {
			d.opts.UI.Signal(syscall.SIGUSR1)
		}
		return
	}
	_, err := d.opts.UI.Spawn(supervisor.SpawnSpec{
		Panel:     d.cfg.UI.PanelMode,
		KeepAlive: d.cfg.UI.KeepAlive,
	})
	if err != nil {
		logging.WarnWithContext(d.logger, "failed to spawn ui", "ui_spawn_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "wallpaper picker not shown"),
			logging.String(logging.FieldErrorHint, "check ui.log in the runtime directory"))
	}
}

func (d *Daemon) hide(keepAlive bool) {
	if _, running := d.opts.UI.Running(); !running {
		return
	}
	if keepAlive {
		d.opts.UI.Signal(syscall.SIGUSR2)
		return
	}
	if _, err := d.opts.UI.Terminate(); err != nil {
		logging.WarnWithContext(d.logger, "failed to terminate ui", "ui_terminate_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "ui process may still be running"),
			logging.String(logging.FieldErrorHint, "kill the process recorded in ui.pid"))
	}
}

// reload re-reads the config and, when the UI was up, restarts it once
// regardless of keep-alive so new settings take effect.
func (d *Daemon) reload() {
	_, wasRunning := d.opts.UI.Running()
	d.reloadConfig(true)
	if !wasRunning {
		d.logger.Info("reloaded daemon config", logging.String(logging.FieldEventType, "config_reloaded"))
		return
	}
	d.hide(false)
	d.show()
	d.logger.Info("reloaded daemon config and restarted ui",
		logging.String(logging.FieldEventType, "config_reloaded"),
		logging.Bool("ui_restarted", true))
}

func (d *Daemon) reloadConfig(force bool) {
	stamp, err := config.Stamp(d.opts.ConfigPath)
	if err != nil {
		d.logger.Debug("config stat failed", logging.Error(err))
	}
	if !force && stamp == d.stamp {
		return
	}
	d.stamp = stamp

	cfg, err := d.opts.LoadConfig()
	if err != nil {
		logging.WarnWithContext(d.logger, "config reload failed; keeping previous settings", "config_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldPath, d.opts.ConfigPath),
			logging.String(logging.FieldImpact, "edits are ignored until the file parses"),
			logging.String(logging.FieldErrorHint, "fix the config file; it is re-read automatically"))
		return
	}
	d.cfg = cfg
	d.logger.Debug("config applied",
		logging.Bool("keep_alive", cfg.UI.KeepAlive),
		logging.Bool("panel_mode", cfg.UI.PanelMode))
}

func (d *Daemon) cleanup(srv *ipc.Server, daemonPID *pidfile.File) {
	srv.Close()
	if err := daemonPID.Remove(); err != nil {
		d.logger.Debug("failed to remove daemon pid", logging.Error(err))
	}
	if err := pidfile.New(d.opts.Paths.UIPIDPath).Remove(); err != nil {
		d.logger.Debug("failed to remove ui pid", logging.Error(err))
	}
	d.logger.Info("daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}
