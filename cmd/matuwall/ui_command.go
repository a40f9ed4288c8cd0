package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matuwall/internal/logging"
	"matuwall/internal/supervisor"
	"matuwall/internal/uihost"
)

type uiMode int

const (
	// uiModeSupervised is --ui: normally spawned by the daemon.
	uiModeSupervised uiMode = iota
	// uiModeForeground runs the picker directly and makes it reachable
	// through the control socket in place of a daemon.
	uiModeForeground
)

func runUI(cmd *cobra.Command, ctx *commandContext, mode uiMode) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	supervised := os.Getenv(supervisor.EnvUIMarker) == "1"
	keepAlive := cfg.UI.KeepAlive
	if supervised {
		keepAlive = os.Getenv(supervisor.EnvKeepAlive) == "1"
	}

	host, err := uihost.New(uihost.Options{
		Config:     cfg,
		LoadConfig: ctx.loadConfig,
		Paths:      ctx.runtimePaths(),
		Logger:     logger,
		Supervised: supervised,
		KeepAlive:  keepAlive,
		Standalone: mode == uiModeForeground || !supervised,
	})
	if err != nil {
		return err
	}
	return host.Run(cmd.Context())
}
