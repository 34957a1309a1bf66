package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statusJSON    bool
	statusTraffic string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the composed engine snapshot",
	Long: `Show the point-in-time snapshot combining metrics, the error summary,
health state, and recent alerts - the same composed read a health or
metrics endpoint would serve.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(statusTraffic); err != nil {
			return err
		}

		snap := Monitor.GetSnapshot()

		if statusJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting snapshot as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		ov := snap.Metrics.Overview
		fmt.Printf("Snapshot at %s\n\n", snap.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
		fmt.Printf("  %-24s %d\n", "Total requests:", ov.TotalRequests)
		fmt.Printf("  %-24s %.1f%%\n", "Error rate:", ov.ErrorRate*100)
		fmt.Printf("  %-24s %.1fms\n", "Avg response time:", ov.AverageResponseTime)
		fmt.Printf("  %-24s %d\n", "Endpoints:", len(snap.Metrics.Endpoints))
		fmt.Printf("  %-24s %d\n", "Errors recorded:", snap.Errors.TotalErrors)
		fmt.Printf("  %-24s %d\n", "Health checks:", len(snap.Health))
		fmt.Printf("  %-24s %d\n", "Alerts (24h):", len(snap.Alerts))

		for _, h := range snap.Health {
			fmt.Printf("\n  %-28s %s (%.1f%% uptime)", h.Endpoint, h.Status, h.Uptime)
		}
		if len(snap.Health) > 0 {
			fmt.Println()
		}

		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output snapshot as JSON")
	statusCmd.Flags().StringVar(&statusTraffic, "traffic", "", "JSONL traffic file to replay before reporting")
	rootCmd.AddCommand(statusCmd)
}
