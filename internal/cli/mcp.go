package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	pulsemcp "github.com/firstissue/pulse/internal/mcp"
)

var mcpTraffic string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the pulse MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pulse MCP server on stdio",
	Long: `Start the pulse MCP server on stdio transport.

The server exposes the monitoring read surfaces as MCP tools that AI coding
assistants can call: get_metrics, get_error_summary, get_health_status,
get_alert_history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(mcpTraffic); err != nil {
			return err
		}

		srv := pulsemcp.NewServer(Monitor, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpTraffic, "traffic", "", "JSONL traffic file to replay before serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
