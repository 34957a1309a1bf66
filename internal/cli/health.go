package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var healthURLs []string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run health checks and show per-endpoint state",
	Long: `Run every registered health probe once, concurrently, and display the
derived status, consecutive failure count, and rolling uptime per endpoint.

Probes can be supplied as name=url pairs; each becomes an HTTP GET probe
that succeeds on any 2xx or 3xx response.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}

		for _, pair := range healthURLs {
			name, url, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid --probe %q, expected name=url", pair)
			}
			Monitor.RegisterHealthCheck(name, httpProbe(url))
		}

		states := Monitor.CheckHealth(cmd.Context())
		if len(states) == 0 {
			fmt.Println("No health checks registered.")
			return nil
		}

		fmt.Printf("  %-28s %-10s %9s %8s\n", "ENDPOINT", "STATUS", "FAILURES", "UPTIME")
		for _, s := range states {
			fmt.Printf("  %-28s %-10s %9d %7.1f%%\n",
				s.Endpoint, s.Status, s.ConsecutiveFailures, s.Uptime)
			if s.LastError != "" {
				fmt.Printf("      last error: %s\n", s.LastError)
			}
		}

		return nil
	},
}

// httpProbe builds a probe that GETs url and succeeds below status 400.
func httpProbe(url string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("building probe request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("probing %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("probe %s returned status %d", url, resp.StatusCode)
		}
		return nil
	}
}

func init() {
	healthCmd.Flags().StringArrayVar(&healthURLs, "probe", nil, "Health probe as name=url (repeatable)")
	rootCmd.AddCommand(healthCmd)
}
