// Package uihost runs the picker process started with --ui.
//
// The host owns the UI loop. Signals, and in standalone mode the control
// socket, are turned into loop tasks so that every window change happens on
// one goroutine. Cards are populated from the wallpaper directory in batches
// through the thumbnail cache and pipeline.
package uihost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"matuwall/internal/config"
	"matuwall/internal/ipc"
	"matuwall/internal/logging"
	"matuwall/internal/paths"
	"matuwall/internal/pidfile"
	"matuwall/internal/supervisor"
	"matuwall/internal/thumbnail"
	"matuwall/internal/uiloop"
	"matuwall/internal/wallpapers"
)

// Options configures a Host.
type Options struct {
	Config *config.Config
	// LoadConfig is used by reload in standalone mode; nil keeps Config.
	LoadConfig func() (*config.Config, error)
	Paths      paths.Paths
	Window     Window
	Logger     *slog.Logger
	// Supervised is true when the daemon spawned this process.
	Supervised bool
	// KeepAlive makes hide keep the process resident. It only applies to
	// supervised processes.
	KeepAlive bool
	// Standalone binds the control socket and records the daemon pid so
	// that CLI commands reach this process when no daemon runs.
	Standalone bool
	Signals    <-chan os.Signal
	// Render overrides thumbnail rendering, mainly for tests.
	Render thumbnail.RenderFunc
}

// Host is a running picker process.
type Host struct {
	opts     Options
	cfg      *config.Config
	logger   *slog.Logger
	loop     *uiloop.Loop
	cache    *thumbnail.Cache
	pipeline *thumbnail.Pipeline

	generation int
	populated  bool
}

// New validates options and returns a Host.
func New(opts Options) (*Host, error) {
	if opts.Config == nil {
		return nil, errors.New("uihost requires a config")
	}
	if opts.Window == nil {
		opts.Window = NewHeadlessWindow(opts.Logger)
	}
	return &Host{
		opts:   opts,
		cfg:    opts.Config,
		logger: logging.NewComponentLogger(opts.Logger, "ui"),
		loop:   uiloop.New(),
		cache:  thumbnail.NewCache(opts.Config.Paths.CacheDir),
	}, nil
}

// Run shows the window and processes loop tasks until quit or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	h.pipeline = thumbnail.NewPipeline(h.cache, h.loop, thumbnail.PipelineOptions{
		Workers: h.cfg.Thumbnails.Workers,
		Render:  h.opts.Render,
		Logger:  h.opts.Logger,
	})
	defer func() {
		if err := h.pipeline.Close(); err != nil {
			h.logger.Debug("thumbnail pipeline close", logging.Error(err))
		}
	}()

	if h.opts.Standalone {
		cleanup, err := h.bindControl(ctx)
		switch {
		case errors.Is(err, ipc.ErrSocketInUse):
			// A daemon owns the control plane; run as a plain window.
			h.logger.Debug("control socket owned by another process",
				logging.String(logging.FieldPath, h.opts.Paths.SocketPath))
		case err != nil:
			return err
		default:
			defer cleanup()
		}
	}

	signals := h.opts.Signals
	if signals == nil {
		ch := make(chan os.Signal, 8)
		for _, sig := range ipc.Signals() {
			signal.Notify(ch, sig)
		}
		defer signal.Stop(ch)
		signals = ch
	}
	go h.forwardSignals(signals)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go h.watchWallpapers(watchCtx, h.cfg.Paths.WallpaperDir)

	h.logger.Info("ui started",
		logging.String(logging.FieldEventType, "ui_started"),
		logging.Int(logging.FieldPID, os.Getpid()),
		logging.Bool("supervised", h.opts.Supervised),
		logging.Bool("keep_alive", h.keepAlive()),
		logging.Bool("standalone", h.opts.Standalone),
		logging.String("session", os.Getenv(supervisor.EnvSession)))

	h.loop.Post(h.show)
	err := h.loop.Run(ctx)
	h.opts.Window.Close()
	h.logger.Info("ui exiting", logging.String(logging.FieldEventType, "ui_exiting"))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bindControl makes this process reachable like a daemon.
func (h *Host) bindControl(ctx context.Context) (func(), error) {
	if err := h.opts.Paths.EnsureRuntimeDir(); err != nil {
		return nil, err
	}
	srv, err := ipc.NewServer(ctx, h.opts.Paths.SocketPath, h.logger)
	if err != nil {
		return nil, fmt.Errorf("bind control socket: %w", err)
	}
	srv.Serve()

	pid := pidfile.New(h.opts.Paths.DaemonPIDPath)
	if err := pid.Write(os.Getpid()); err != nil {
		logging.WarnWithContext(h.logger, "failed to write pid", "ui_pid_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "signal fallback will not reach this window"),
			logging.String(logging.FieldErrorHint, "check runtime directory permissions"))
	}

	go func() {
		for {
			select {
			case cmd := <-srv.Commands():
				if !h.loop.Post(func() { h.Handle(cmd) }) {
					return
				}
			case <-h.loop.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		srv.Close()
		_ = pid.Remove()
	}, nil
}

func (h *Host) forwardSignals(signals <-chan os.Signal) {
	for {
		select {
		case sig := <-signals:
			sysSig, ok := sig.(syscall.Signal)
			if !ok {
				continue
			}
			cmd, ok := ipc.CommandForSignal(sysSig)
			if !ok {
				continue
			}
			if !h.loop.Post(func() { h.Handle(cmd) }) {
				return
			}
		case <-h.loop.Done():
			return
		}
	}
}

// watchWallpapers repopulates the cards when images are added to or removed
// from dir. The watch stays on the directory configured at startup.
func (h *Host) watchWallpapers(ctx context.Context, dir string) {
	err := wallpapers.Watch(ctx, dir, 0, func() {
		h.loop.Post(h.refresh)
	})
	if err != nil && ctx.Err() == nil {
		h.logger.Debug("wallpaper directory not watched",
			logging.String(logging.FieldPath, dir),
			logging.Error(err))
	}
}

// Handle applies a command to the window. UI loop only.
func (h *Host) Handle(cmd ipc.Command) {
	h.logger.Debug("ui command", logging.String(logging.FieldCommand, cmd.String()))
	switch cmd {
	case ipc.CommandShow:
		h.show()
	case ipc.CommandHide:
		h.hide()
	case ipc.CommandToggle:
		if h.opts.Window.Visible() {
			h.hide()
		} else {
			h.show()
		}
	case ipc.CommandQuit:
		h.quit()
	case ipc.CommandReload:
		h.reload()
	case ipc.CommandStatus:
	}
}

func (h *Host) keepAlive() bool {
	return h.opts.Supervised && h.opts.KeepAlive
}

func (h *Host) show() {
	if !h.populated {
		h.populate()
	}
	h.opts.Window.Show()
}

func (h *Host) hide() {
	if h.keepAlive() {
		h.opts.Window.Hide()
		return
	}
	h.quit()
}

func (h *Host) quit() {
	h.opts.Window.Hide()
	h.loop.Stop()
}

func (h *Host) refresh() {
	if h.populated {
		h.populate()
	}
}

func (h *Host) reload() {
	if h.opts.LoadConfig != nil {
		cfg, err := h.opts.LoadConfig()
		if err != nil {
			logging.WarnWithContext(h.logger, "config reload failed; keeping previous settings", "config_reload_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "edits are ignored until the file parses"),
				logging.String(logging.FieldErrorHint, "fix the config file and reload again"))
		} else {
			// The cache directory stays fixed for the life of the process.
			h.cfg = cfg
		}
	}
	h.populate()
}

// populate lists wallpapers and requests their thumbnails one batch per
// loop task so that input stays responsive between batches.
func (h *Host) populate() {
	h.generation++
	h.populated = true
	gen := h.generation

	list, err := wallpapers.List(h.cfg.Paths.WallpaperDir)
	if err != nil {
		logging.WarnWithContext(h.logger, "failed to list wallpapers", "wallpaper_list_failed",
			logging.Error(err),
			logging.String(logging.FieldPath, h.cfg.Paths.WallpaperDir),
			logging.String(logging.FieldImpact, "picker shows no wallpapers"),
			logging.String(logging.FieldErrorHint, "check paths.wallpaper_dir"))
	}
	h.opts.Window.SetCards(list)

	width, height := h.cfg.ThumbnailDimensions()
	for _, batch := range wallpapers.Batches(list, h.cfg.Thumbnails.BatchSize) {
		batch := batch
		h.loop.Post(func() {
			if gen == h.generation {
				h.requestBatch(gen, batch, width, height)
			}
		})
	}
}

func (h *Host) requestBatch(gen int, batch []string, width, height int) {
	for _, path := range batch {
		path := path
		key := thumbnail.NewKey(path, width, height)
		if thumb, hit := h.pipeline.Request(key, func(r thumbnail.Result) {
			if gen == h.generation {
				h.opts.Window.SetThumbnail(path, r.Path)
			}
		}); hit {
			h.opts.Window.SetThumbnail(path, thumb)
		}
	}
}
