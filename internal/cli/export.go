package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firstissue/pulse/internal/observability"
)

var (
	exportFormat  string
	exportOut     string
	exportTraffic string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the health/error dataset",
	Long: `Export the engine's health and error dataset as a structured JSON
document or a flat CSV table (timestamp, category, severity, message,
count). Any other format is rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Monitor == nil {
			return fmt.Errorf("monitor not initialized")
		}
		if _, err := replayTraffic(exportTraffic); err != nil {
			return err
		}

		data, err := Monitor.Export(observability.ExportFormat(exportFormat))
		if err != nil {
			return fmt.Errorf("exporting report: %w", err)
		}

		if exportOut == "" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("writing export file: %w", err)
		}
		fmt.Printf("Wrote %s report to %s\n", exportFormat, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportTraffic, "traffic", "", "JSONL traffic file to replay before exporting")
	rootCmd.AddCommand(exportCmd)
}
