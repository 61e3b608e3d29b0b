// Package cli wires the attendd commands: the long-lived live monitor, the
// one-shot batch sync, and the read-only API server.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the attendd root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "attendd",
		Short: "attendd - biometric terminal attendance ingestion",
		Long: "attendd ingests scan events from a biometric access-control terminal\n" +
			"and maintains check-in/check-out attendance records.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file (env vars override)")

	cmd.AddCommand(NewMonitorCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}
