package observability

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/firstissue/pulse/pkg/models"
)

// =============================================================================
// Property: Cooldown admits at most one fire per window
// =============================================================================

// For any sequence of evaluation times with the condition always true, the
// number of fires never exceeds what the cooldown permits, and consecutive
// fires are always at least a full cooldown apart.
func TestPropertyCooldownSpacing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		am := testAlertManager(&now)

		cooldownMin := rapid.IntRange(1, 10).Draw(rt, "cooldownMin")
		cooldown := time.Duration(cooldownMin) * time.Minute
		if err := am.RegisterRule(errorRateRule(0.05, cooldown)); err != nil {
			t.Fatalf("registering rule: %v", err)
		}

		numChecks := rapid.IntRange(1, 30).Draw(rt, "numChecks")
		report := reportWithErrorRate(0.50)
		for i := 0; i < numChecks; i++ {
			am.CheckAlerts(report)
			gapSec := rapid.IntRange(0, 600).Draw(rt, fmt.Sprintf("gap_%d", i))
			now = now.Add(time.Duration(gapSec) * time.Second)
		}

		history := am.History(24 * time.Hour)
		if len(history) == 0 {
			rt.Fatal("condition always true: expected at least one fire")
		}
		// History is most recent first.
		for i := 1; i < len(history); i++ {
			gap := history[i-1].Timestamp.Sub(history[i].Timestamp)
			if gap < cooldown {
				rt.Errorf("fires %v apart, cooldown is %v", gap, cooldown)
			}
		}
	})
}

// =============================================================================
// Property: Fired records always reach the history
// =============================================================================

// For any evaluation pass, every returned record appears in the history with
// the same ID, and the rule ends the pass in the firing state.
func TestPropertyFiredRecordsEnterHistory(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		am := testAlertManager(&now)

		numRules := rapid.IntRange(1, 5).Draw(rt, "numRules")
		for i := 0; i < numRules; i++ {
			threshold := float64(rapid.IntRange(0, 99).Draw(rt, fmt.Sprintf("threshold_%d", i))) / 100
			rule := AlertRule{
				Name:        fmt.Sprintf("rule-%d", i),
				Description: fmt.Sprintf("error rate over %.2f", threshold),
				Condition: func(r models.MetricsReport) bool {
					return r.Overview.ErrorRate > threshold
				},
				Severity: models.AlertMedium,
			}
			if err := am.RegisterRule(rule); err != nil {
				t.Fatalf("registering rule: %v", err)
			}
		}

		rate := float64(rapid.IntRange(0, 100).Draw(rt, "rate")) / 100
		fired := am.CheckAlerts(reportWithErrorRate(rate))

		history := am.History(24 * time.Hour)
		byID := make(map[string]bool, len(history))
		for _, r := range history {
			byID[r.ID] = true
		}
		for _, r := range fired {
			if !byID[r.ID] {
				rt.Errorf("fired record %s missing from history", r.ID)
			}
			if am.State(r.RuleName) != RuleFiring {
				rt.Errorf("rule %s not in firing state after firing", r.RuleName)
			}
		}
		if len(history) != len(fired) {
			rt.Errorf("history has %d records, %d fired", len(history), len(fired))
		}
	})
}
