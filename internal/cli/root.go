// Package cli wires the covtrace commands.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "covtrace",
	Short:   "Extract code coverage from recorded execution traces",
	Version: version,
	Long: `Covtrace replays a recorded execution trace segment-by-segment across
worker threads and aggregates every observed memory access into a single
sorted, coalesced set of covered address ranges.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, print help
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(queryCmd)
}
