package main

import (
	"github.com/spf13/cobra"

	"matuwall/internal/ipc"
)

type modeFlags struct {
	daemon bool
	ui     bool
	show   bool
	hide   bool
	toggle bool
	quit   bool
	reload bool
	status bool
}

// command picks the control command in fixed precedence. Daemon and UI
// modes carry no command.
func (f modeFlags) command() (ipc.Command, bool) {
	switch {
	case f.daemon || f.ui:
		return "", false
	case f.show:
		return ipc.CommandShow, true
	case f.hide:
		return ipc.CommandHide, true
	case f.toggle:
		return ipc.CommandToggle, true
	case f.quit:
		return ipc.CommandQuit, true
	case f.reload:
		return ipc.CommandReload, true
	case f.status:
		return ipc.CommandStatus, true
	default:
		return "", false
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var flags modeFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "matuwall",
		Short:         "Wallpaper picker with a background control daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case flags.daemon:
				return runDaemon(cmd, ctx)
			case flags.ui:
				return runUI(cmd, ctx, uiModeSupervised)
			}
			command, ok := flags.command()
			if !ok {
				return runUI(cmd, ctx, uiModeForeground)
			}
			return runControl(cmd, ctx, command)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVar(&flags.daemon, "daemon", false, "Run the background control daemon")
	rootCmd.Flags().BoolVar(&flags.ui, "ui", false, "Run the picker process")
	rootCmd.Flags().BoolVar(&flags.show, "show", false, "Show the picker")
	rootCmd.Flags().BoolVar(&flags.hide, "hide", false, "Hide the picker")
	rootCmd.Flags().BoolVar(&flags.toggle, "toggle", false, "Toggle the picker")
	rootCmd.Flags().BoolVar(&flags.quit, "quit", false, "Stop the daemon and the picker")
	rootCmd.Flags().BoolVar(&flags.reload, "reload", false, "Reload configuration and restart the picker")
	rootCmd.Flags().BoolVar(&flags.status, "status", false, "Print runtime status")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}
