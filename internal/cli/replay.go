package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firstissue/pulse/internal/ingest"
	"github.com/firstissue/pulse/pkg/models"
)

// replayTraffic feeds a recorded JSONL traffic file through the monitor's
// ingestion path and returns the number of observations tracked.
func replayTraffic(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	obs, err := ingest.ReadObservations(path, ingest.ObservationFilter{})
	if err != nil {
		return 0, fmt.Errorf("reading traffic file: %w", err)
	}
	for _, o := range obs {
		Monitor.TrackRequest(o.Path, o.Method, o.StatusCode, o.DurationMs, &models.TrackOptions{
			UserID:       o.UserID,
			ErrorMessage: o.ErrorMessage,
			CacheHit:     o.CacheHit,
			RetryCount:   o.RetryCount,
			UserAgent:    o.UserAgent,
		})
	}
	return len(obs), nil
}

var replayCmd = &cobra.Command{
	Use:   "replay <traffic.jsonl>",
	Short: "Replay a recorded traffic file through the engine",
	Long: `Replay feeds each observation from a JSONL traffic file through the
engine's ingestion path and prints the resulting overview, making the
engine inspectable without the web layer that normally drives it.

Malformed lines in the traffic file are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}

		n, err := replayTraffic(args[0])
		if err != nil {
			return err
		}

		report := Monitor.GetMetrics(0)
		fmt.Printf("Replayed %d observation(s)\n\n", n)
		fmt.Printf("  %-24s %d\n", "Total requests:", report.Overview.TotalRequests)
		fmt.Printf("  %-24s %d\n", "Total errors:", report.Overview.TotalErrors)
		fmt.Printf("  %-24s %.1f%%\n", "Error rate:", report.Overview.ErrorRate*100)
		fmt.Printf("  %-24s %.1fms\n", "Avg response time:", report.Overview.AverageResponseTime)
		fmt.Printf("  %-24s %.1f req/min\n", "Throughput:", report.Overview.Throughput)
		fmt.Printf("  %-24s %d\n", "Endpoints seen:", len(report.Endpoints))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
