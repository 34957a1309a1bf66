package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "pulse - in-process observability engine for the first-issue matching service",
	Long: `pulse is the observability core of the contribution matching service:
a self-contained engine that aggregates per-request metrics into rolling
endpoint statistics, consolidates classified errors, evaluates alert rules
with cooldown suppression, and runs per-endpoint health checks.

The CLI replays recorded traffic through the engine and inspects the
resulting metrics, errors, alerts, and health state.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulse %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
