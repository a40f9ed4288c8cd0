package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"matuwall/internal/daemon"
	"matuwall/internal/daemonctl"
	"matuwall/internal/daemonrun"
	"matuwall/internal/deps"
	"matuwall/internal/ipc"
	"matuwall/internal/supervisor"
)

var (
	errNotRunning     = &exitError{code: 1, msg: "matuwall daemon is not running"}
	errAlreadyRunning = &exitError{code: 1, msg: "matuwall daemon is already running"}
)

// runControl delivers one command. Show and toggle fall back to a
// foreground picker when nothing is listening.
func runControl(cmd *cobra.Command, ctx *commandContext, command ipc.Command) error {
	rt := ctx.runtimePaths()
	if command == ipc.CommandStatus {
		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)
		lines := statusLines(daemonctl.BuildStatus(rt), colorize)
		lines = append(lines, "")
		lines = append(lines, dependencyLines(deps.Check(deps.Defaults(supervisor.DefaultPreloadCandidates)), colorize)...)
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
		return nil
	}

	_, err := daemonctl.NewSender(rt).Send(command)
	if err == nil {
		return nil
	}
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		return fmt.Errorf("send %s: %w", command, err)
	}

	switch command {
	case ipc.CommandHide, ipc.CommandQuit, ipc.CommandReload:
		return errNotRunning
	default:
		return runUI(cmd, ctx, uiModeForeground)
	}
}

func runDaemon(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	err = daemonrun.Run(cmd.Context(), cfg, ctx.configPath, daemonrun.Options{})
	if errors.Is(err, daemon.ErrAlreadyRunning) {
		return errAlreadyRunning
	}
	return err
}
