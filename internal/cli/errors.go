package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	errorsJSON    bool
	errorsTraffic string
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Display the error ledger summary",
	Long: `Display consolidated errors: totals split into client (4xx) and server
(5xx) classes, the most frequent messages, and the derived health score.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(errorsTraffic); err != nil {
			return err
		}

		summary := Monitor.GetErrorSummary()
		metrics := Monitor.GetErrorMetrics()

		if errorsJSON {
			out := struct {
				Summary interface{} `json:"summary"`
				Metrics interface{} `json:"metrics"`
			}{summary, metrics}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting errors as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Errors\n\n")
		fmt.Printf("  %-24s %d\n", "Total errors:", summary.TotalErrors)
		fmt.Printf("  %-24s %d\n", "Client (4xx):", summary.ErrorsByType.Client)
		fmt.Printf("  %-24s %d\n", "Server (5xx):", summary.ErrorsByType.Server)
		fmt.Printf("  %-24s %d/100\n", "Health score:", metrics.HealthScore)

		if len(metrics.TopErrors) > 0 {
			fmt.Println("\n  Top errors:")
			for _, e := range metrics.TopErrors {
				fmt.Printf("    %5dx [%s/%s] %s\n", e.Count, e.Category, e.Severity, e.Message)
			}
		}

		return nil
	},
}

func init() {
	errorsCmd.Flags().BoolVar(&errorsJSON, "json", false, "Output errors as JSON")
	errorsCmd.Flags().StringVar(&errorsTraffic, "traffic", "", "JSONL traffic file to replay before reporting")
	rootCmd.AddCommand(errorsCmd)
}
