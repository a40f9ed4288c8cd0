package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"matuwall/internal/daemonrun"
	"matuwall/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var ui bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon or picker logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := logFilePath(ctx, ui)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, max(lines, 0))
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(tail) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(runCtx, path, offset, logs.DefaultPollInterval, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&ui, "ui", false, "Show the picker log instead of the daemon log")
	return cmd
}

func logFilePath(ctx *commandContext, ui bool) (string, error) {
	if ui {
		return ctx.runtimePaths().UILogPath, nil
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Paths.LogDir, daemonrun.CurrentLogName), nil
}
