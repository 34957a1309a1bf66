package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	alertsTraffic  string
	alertsLookback time.Duration
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate alert rules and show the alert history",
	Long: `Evaluate all registered alert rules against the current metrics report
and display any alerts that fire, followed by the recent alert history.

Rules come from the config thresholds plus any alerts.yaml in the base path.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(alertsTraffic); err != nil {
			return err
		}

		fired := Monitor.CheckAlerts()
		if len(fired) == 0 {
			fmt.Println("No alerts fired.")
		} else {
			fmt.Printf("%d alert(s) fired:\n\n", len(fired))
			for _, a := range fired {
				fmt.Printf("  [%s] %s\n", strings.ToUpper(string(a.Severity)), a.Message)
				fmt.Printf("         rule %s, error rate %.1f%%, avg response %.0fms\n\n",
					a.RuleName, a.ErrorRate*100, a.AverageResponseTime)
			}
		}

		history := Monitor.GetAlertHistory(alertsLookback)
		if len(history) > 0 {
			fmt.Printf("History (last %s):\n\n", alertsLookback)
			for _, a := range history {
				fmt.Printf("  %s  [%s] %s\n",
					a.Timestamp.Format("2006-01-02 15:04 UTC"),
					strings.ToUpper(string(a.Severity)),
					a.Message)
			}
		}

		return nil
	},
}

func init() {
	alertsCmd.Flags().StringVar(&alertsTraffic, "traffic", "", "JSONL traffic file to replay before evaluating")
	alertsCmd.Flags().DurationVar(&alertsLookback, "lookback", 24*time.Hour, "History lookback window")
	rootCmd.AddCommand(alertsCmd)
}
