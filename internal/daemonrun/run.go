package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"matuwall/internal/config"
	"matuwall/internal/daemon"
	"matuwall/internal/deps"
	"matuwall/internal/logging"
	"matuwall/internal/paths"
	"matuwall/internal/supervisor"
)

// CurrentLogName is the link in the log directory that points at the
// active daemon run's log file.
const CurrentLogName = "daemon.log"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Executable overrides the binary spawned for the UI.
	Executable string
}

// Run starts the matuwall daemon and blocks until it stops. configPath is
// the resolved config file; it is polled for changes and passed to the UI.
func Run(ctx context.Context, cfg *config.Config, configPath string, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("daemon-%s.log", runID))
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Outputs:     []string{"stderr", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update daemon.log link: %v\n", err)
	}
	logging.PruneOld(logger, cfg.Paths.LogDir, "daemon-*.log",
		time.Duration(cfg.Logging.RetentionDays)*24*time.Hour, logPath)

	executable := opts.Executable
	if executable == "" {
		executable, err = os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
	}

	rt := paths.Resolve()
	logEnvironmentSnapshot(logger, rt)

	uiArgs := []string{"--ui"}
	if configPath != "" {
		uiArgs = append(uiArgs, "--config", configPath)
	}
	sup, err := supervisor.New(supervisor.Options{
		Executable: executable,
		Args:       uiArgs,
		Markers:    []string{filepath.Base(executable), "--ui"},
		PIDPath:    rt.UIPIDPath,
		RuntimeDir: rt.BaseRuntimeDir,
		LogPath:    rt.UILogPath,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}

	d, err := daemon.New(daemon.Options{
		Paths:      rt,
		ConfigPath: configPath,
		Config:     cfg,
		LoadConfig: func() (*config.Config, error) {
			reloaded, _, _, err := config.Load(configPath)
			return reloaded, err
		},
		UI:     sup,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			logger.Info("daemon already running",
				logging.String(logging.FieldEventType, "daemon_already_running"),
				logging.String("socket", rt.SocketPath))
		}
		return err
	}
	logger.Info("matuwall daemon shut down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, CurrentLogName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logEnvironmentSnapshot(logger *slog.Logger, rt paths.Paths) {
	if logger == nil {
		return
	}
	attrs := []any{
		logging.String(logging.FieldEventType, "environment_snapshot"),
		logging.String("runtime_dir", rt.RuntimeDir),
		logging.Bool("wayland_display_set", os.Getenv("WAYLAND_DISPLAY") != ""),
	}
	statuses := deps.Check(deps.Defaults(supervisor.DefaultPreloadCandidates))
	for _, st := range statuses {
		key := strings.ReplaceAll(st.Name, "-", "_")
		attrs = append(attrs, logging.Bool(key+"_available", st.Available))
		if st.Location != "" {
			attrs = append(attrs, logging.String(key+"_location", st.Location))
		}
	}
	logger.Info("environment snapshot", attrs...)
	if missing := deps.Missing(statuses); len(missing) > 0 {
		logging.WarnWithContext(logger, "missing runtime dependencies", "dependency_missing",
			logging.String("dependencies", strings.Join(missing, ", ")),
			logging.String(logging.FieldImpact, "selecting a wallpaper cannot apply a theme"),
			logging.String(logging.FieldErrorHint, "install matugen and make sure it is on PATH"))
	}
}
