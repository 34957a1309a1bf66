package observability

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ExportFormat selects the serialization of the health/error dataset.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ErrUnsupportedFormat is returned when Export is asked for a format it
// does not produce. This is the engine's one hard failure: callers must see
// an explicit rejection rather than a silent default.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// exportDocument is the JSON shape of an exported report.
type exportDocument struct {
	GeneratedAt time.Time `json:"generated_at"`
	HealthScore int       `json:"health_score"`
	TotalErrors int       `json:"total_errors"`
	Snapshot    Snapshot  `json:"snapshot"`
}

// Export serializes the current health/error dataset. JSON yields the full
// structured snapshot; CSV yields the flat error table with columns
// timestamp, category, severity, message, count.
func (m *Monitor) Export(format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		doc := exportDocument{
			GeneratedAt: time.Now().UTC(),
			HealthScore: m.GetErrorMetrics().HealthScore,
			TotalErrors: m.GetErrorSummary().TotalErrors,
			Snapshot:    m.GetSnapshot(),
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding export document: %w", err)
		}
		return data, nil

	case FormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"timestamp", "category", "severity", "message", "count"}); err != nil {
			return nil, fmt.Errorf("writing csv header: %w", err)
		}
		metrics := m.GetErrorMetrics()
		for _, e := range metrics.TopErrors {
			row := []string{
				e.LastSeen.UTC().Format(time.RFC3339),
				string(e.Category),
				string(e.Severity),
				e.Message,
				strconv.Itoa(e.Count),
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("writing csv row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flushing csv: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
