package observability

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/firstissue/pulse/pkg/models"
)

// =============================================================================
// Property: Total errors equal the number of logged occurrences
// =============================================================================

// For any sequence of Log calls inside the consolidation window, the sum of
// entry counts equals the number of calls regardless of how they deduplicate.
func TestPropertyLedgerCountsEveryOccurrence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		l := testLedger(models.DefaultMonitorConfig(), &now)

		messages := []string{"Rate limit exceeded", "Database unavailable", "Bad request", "Upstream timeout"}
		categories := []models.ErrorCategory{models.CategoryClient, models.CategoryServer, models.CategoryTransient, models.CategoryTimeout}
		severities := []models.ErrorSeverity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow}

		numLogs := rapid.IntRange(1, 60).Draw(rt, "numLogs")
		for i := 0; i < numLogs; i++ {
			l.Log(nil, models.ErrorClassification{
				Category:    rapid.SampledFrom(categories).Draw(rt, fmt.Sprintf("cat_%d", i)),
				Severity:    rapid.SampledFrom(severities).Draw(rt, fmt.Sprintf("sev_%d", i)),
				UserMessage: rapid.SampledFrom(messages).Draw(rt, fmt.Sprintf("msg_%d", i)),
			}, "")
		}

		m := l.Metrics(0)
		if m.TotalErrors != numLogs {
			rt.Errorf("TotalErrors = %d, want %d", m.TotalErrors, numLogs)
		}
		if l.Len() > len(messages) {
			rt.Errorf("ledger holds %d entries for %d distinct messages", l.Len(), len(messages))
		}

		byCat, bySev := 0, 0
		for _, c := range m.ErrorsByCategory {
			byCat += c
		}
		for _, c := range m.ErrorsBySeverity {
			bySev += c
		}
		if byCat != numLogs || bySev != numLogs {
			rt.Errorf("category sum %d / severity sum %d, want both %d", byCat, bySev, numLogs)
		}
	})
}

// =============================================================================
// Property: Health score stays within [0, 100] and repeats never raise it
// =============================================================================

// For any sequence of logged errors, the derived health score is bounded and
// never increases as more errors arrive.
func TestPropertyHealthScoreBoundedAndMonotone(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		l := testLedger(models.DefaultMonitorConfig(), &now)

		categories := []models.ErrorCategory{models.CategoryClient, models.CategoryServer, models.CategoryTransient, models.CategoryTimeout}
		severities := []models.ErrorSeverity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow}

		prev := l.Metrics(0).HealthScore
		if prev != 100 {
			rt.Fatalf("pristine score = %d, want 100", prev)
		}

		numLogs := rapid.IntRange(1, 40).Draw(rt, "numLogs")
		for i := 0; i < numLogs; i++ {
			l.Log(nil, models.ErrorClassification{
				Category:    rapid.SampledFrom(categories).Draw(rt, fmt.Sprintf("cat_%d", i)),
				Severity:    rapid.SampledFrom(severities).Draw(rt, fmt.Sprintf("sev_%d", i)),
				UserMessage: fmt.Sprintf("error %d", rapid.IntRange(0, 9).Draw(rt, fmt.Sprintf("msg_%d", i))),
			}, "")

			score := l.Metrics(0).HealthScore
			if score < 0 || score > 100 {
				rt.Fatalf("score %d outside [0, 100]", score)
			}
			if score > prev {
				rt.Errorf("score rose from %d to %d while errors accumulated", prev, score)
			}
			prev = score
		}
	})
}
