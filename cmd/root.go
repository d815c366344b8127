package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "dockhand",
	Short: "dockhand - control panel for docker compose services",
	Long: `Dockhand serves a small control panel that starts and stops groups of
containerized services, one docker compose file per service group, and
reports their live status, optionally cross-referenced with Uptime Kuma.`,
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
