package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON    bool
	metricsWindow  time.Duration
	metricsTraffic string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display endpoint metrics",
	Long: `Display per-endpoint aggregates computed from retained observations:
request counts, error rates, average and p95/p99 response times, and
throughput. Paths are normalized into endpoint keys at aggregation time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(metricsTraffic); err != nil {
			return err
		}

		report := Monitor.GetMetrics(metricsWindow)

		if metricsJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Overview\n\n")
		fmt.Printf("  %-24s %d\n", "Total requests:", report.Overview.TotalRequests)
		fmt.Printf("  %-24s %d\n", "Total errors:", report.Overview.TotalErrors)
		fmt.Printf("  %-24s %.1f%%\n", "Error rate:", report.Overview.ErrorRate*100)
		fmt.Printf("  %-24s %.1fms\n", "Avg response time:", report.Overview.AverageResponseTime)
		fmt.Printf("  %-24s %.1f req/min\n", "Throughput:", report.Overview.Throughput)

		if len(report.Endpoints) > 0 {
			fmt.Printf("\nEndpoints\n\n")
			fmt.Printf("  %-7s %-36s %8s %8s %9s %9s %9s\n",
				"METHOD", "ENDPOINT", "REQS", "ERR%", "AVG", "P95", "P99")
			for _, e := range report.Endpoints {
				fmt.Printf("  %-7s %-36s %8d %7.1f%% %7.1fms %7.1fms %7.1fms\n",
					e.Method, e.Endpoint, e.TotalRequests, e.ErrorRate*100,
					e.AverageResponseTime, e.P95ResponseTime, e.P99ResponseTime)
			}
		}

		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().DurationVar(&metricsWindow, "window", 0, "Aggregation window (e.g. 30s, 5m); 0 means full retention")
	metricsCmd.Flags().StringVar(&metricsTraffic, "traffic", "", "JSONL traffic file to replay before reporting")
	rootCmd.AddCommand(metricsCmd)
}
