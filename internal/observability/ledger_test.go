package observability

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/firstissue/pulse/pkg/models"
)

func testLedger(cfg models.MonitorConfig, now *time.Time) *ErrorLedger {
	l := NewErrorLedger(cfg, nil)
	l.now = func() time.Time { return *now }
	return l
}

func TestErrorLedger_ConsolidatesRepeats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(models.DefaultMonitorConfig(), &now)

	class := models.ErrorClassification{
		Category:    models.CategoryClient,
		Severity:    models.SeverityLow,
		UserMessage: "Rate limit exceeded",
	}
	for i := 0; i < 5; i++ {
		l.Log(errors.New("429 from upstream"), class, fmt.Sprintf("user-%d", i%2))
		now = now.Add(time.Second)
	}

	if l.Len() != 1 {
		t.Fatalf("expected 1 consolidated entry, got %d", l.Len())
	}

	m := l.Metrics(100)
	if m.TotalErrors != 5 {
		t.Errorf("expected count 5, got %d", m.TotalErrors)
	}
	if len(m.TopErrors) != 1 {
		t.Fatalf("expected 1 top error, got %d", len(m.TopErrors))
	}
	top := m.TopErrors[0]
	if top.Count != 5 {
		t.Errorf("expected entry count 5, got %d", top.Count)
	}
	if len(top.AffectedUsers) != 2 {
		t.Errorf("expected 2 distinct affected users, got %v", top.AffectedUsers)
	}
	if top.LastSeen.Before(top.FirstSeen) {
		t.Error("LastSeen must not precede FirstSeen")
	}
}

func TestErrorLedger_WindowExpiryStartsNewEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(models.DefaultMonitorConfig(), &now)

	class := models.ErrorClassification{
		Category:    models.CategoryServer,
		Severity:    models.SeverityHigh,
		UserMessage: "Database unavailable",
	}

	l.Log(nil, class, "")
	now = now.Add(2 * time.Minute) // past the 60s consolidation window
	l.Log(nil, class, "")

	if l.Len() != 2 {
		t.Fatalf("expected 2 entries after window expiry, got %d", l.Len())
	}

	// Further repeats consolidate into the newest entry only.
	now = now.Add(time.Second)
	l.Log(nil, class, "")
	if l.Len() != 2 {
		t.Fatalf("expected repeat to merge into newest entry, got %d entries", l.Len())
	}
	m := l.Metrics(0)
	if m.TotalErrors != 3 {
		t.Errorf("expected total count 3 across both entries, got %d", m.TotalErrors)
	}
}

func TestErrorLedger_CapacityEvictsOldestFirst(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := models.DefaultMonitorConfig()
	cfg.ErrorLedgerCapacity = 3
	cfg.TopErrorCount = 10
	l := testLedger(cfg, &now)

	for i := 0; i < 5; i++ {
		l.Log(nil, models.ErrorClassification{
			Category:    models.CategoryClient,
			Severity:    models.SeverityLow,
			UserMessage: fmt.Sprintf("error %d", i),
		}, "")
		now = now.Add(time.Second)
	}

	if l.Len() != 3 {
		t.Fatalf("expected capacity-bounded ledger of 3, got %d", l.Len())
	}

	seen := make(map[string]bool)
	for _, e := range l.Metrics(0).TopErrors {
		seen[e.Message] = true
	}
	for _, evicted := range []string{"error 0", "error 1"} {
		if seen[evicted] {
			t.Errorf("expected %q evicted, still present", evicted)
		}
	}
	for _, kept := range []string{"error 2", "error 3", "error 4"} {
		if !seen[kept] {
			t.Errorf("expected %q retained", kept)
		}
	}
}

func TestErrorLedger_HealthScorePenalizesWorstPerCategory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(models.DefaultMonitorConfig(), &now)

	if got := l.Metrics(0).HealthScore; got != 100 {
		t.Fatalf("expected pristine score 100, got %d", got)
	}

	// Two server errors of different severity: only the worst (high, 20) counts.
	l.Log(nil, models.ErrorClassification{Category: models.CategoryServer, Severity: models.SeverityHigh, UserMessage: "a"}, "")
	l.Log(nil, models.ErrorClassification{Category: models.CategoryServer, Severity: models.SeverityLow, UserMessage: "b"}, "")
	if got := l.Metrics(0).HealthScore; got != 80 {
		t.Errorf("expected score 80 after server/high, got %d", got)
	}

	// A second category adds its own penalty (timeout/critical, 30).
	l.Log(nil, models.ErrorClassification{Category: models.CategoryTimeout, Severity: models.SeverityCritical, UserMessage: "c"}, "")
	if got := l.Metrics(0).HealthScore; got != 50 {
		t.Errorf("expected score 50 after adding timeout/critical, got %d", got)
	}
}

func TestErrorLedger_ErrorRate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(models.DefaultMonitorConfig(), &now)

	l.Log(nil, models.ErrorClassification{Category: models.CategoryServer, Severity: models.SeverityHigh, UserMessage: "boom"}, "")
	l.Log(nil, models.ErrorClassification{Category: models.CategoryServer, Severity: models.SeverityHigh, UserMessage: "boom"}, "")

	if rate := l.Metrics(10).ErrorRate; rate != 0.2 {
		t.Errorf("expected error rate 0.2, got %v", rate)
	}
	if rate := l.Metrics(0).ErrorRate; rate != 0 {
		t.Errorf("expected error rate 0 with no requests, got %v", rate)
	}
}

func TestErrorLedger_TopErrorsSortedByCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := models.DefaultMonitorConfig()
	cfg.TopErrorCount = 2
	l := testLedger(cfg, &now)

	for i, count := range []int{1, 4, 2} {
		class := models.ErrorClassification{
			Category:    models.CategoryClient,
			Severity:    models.SeverityLow,
			UserMessage: fmt.Sprintf("msg %d", i),
		}
		for j := 0; j < count; j++ {
			l.Log(nil, class, "")
		}
	}

	top := l.Metrics(0).TopErrors
	if len(top) != 2 {
		t.Fatalf("expected top list capped at 2, got %d", len(top))
	}
	if top[0].Message != "msg 1" || top[0].Count != 4 {
		t.Errorf("expected msg 1 (count 4) first, got %s (%d)", top[0].Message, top[0].Count)
	}
	if top[1].Message != "msg 2" || top[1].Count != 2 {
		t.Errorf("expected msg 2 (count 2) second, got %s (%d)", top[1].Message, top[1].Count)
	}
}

func TestErrorLedger_SummarySplitsClientServer(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := testLedger(models.DefaultMonitorConfig(), &now)

	l.Log(nil, models.ErrorClassification{Category: models.CategoryClient, Severity: models.SeverityLow, UserMessage: "not found"}, "")
	l.Log(nil, models.ErrorClassification{Category: models.CategoryClient, Severity: models.SeverityLow, UserMessage: "not found"}, "")
	l.Log(nil, models.ErrorClassification{Category: models.CategoryServer, Severity: models.SeverityHigh, UserMessage: "boom"}, "")
	l.Log(nil, models.ErrorClassification{Category: models.CategoryTimeout, Severity: models.SeverityMedium, UserMessage: "slow"}, "")

	s := l.Summary()
	if s.TotalErrors != 4 {
		t.Errorf("expected 4 total errors, got %d", s.TotalErrors)
	}
	if s.ErrorsByType.Client != 2 {
		t.Errorf("expected 2 client errors, got %d", s.ErrorsByType.Client)
	}
	if s.ErrorsByType.Server != 1 {
		t.Errorf("expected 1 server error, got %d", s.ErrorsByType.Server)
	}
	if len(s.RecentErrors) != 3 {
		t.Errorf("expected 3 distinct recent entries, got %d", len(s.RecentErrors))
	}
}
