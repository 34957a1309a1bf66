package observability

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// AlertRule is a named predicate over a metrics report. When the condition
// holds and the rule is not inside its cooldown, a record is appended and
// every resolvable, enabled channel receives the alert.
type AlertRule struct {
	Name        string
	Description string
	Condition   func(models.MetricsReport) bool
	Severity    models.AlertSeverity
	Channels    []string
	Cooldown    time.Duration // zero means no suppression
}

// RuleState is the lifecycle position of a rule after an evaluation pass.
type RuleState string

const (
	RuleIdle       RuleState = "idle"
	RuleFiring     RuleState = "firing"
	RuleSuppressed RuleState = "suppressed"
)

// AlertManager evaluates registered rules against metrics reports and
// dispatches to channels. The whole check-and-record path runs under one
// mutex so concurrent evaluations can not double-fire a rule within its
// cooldown.
type AlertManager struct {
	mu         sync.Mutex
	rules      []*AlertRule
	channels   map[string]AlertChannel
	history    []models.AlertRecord
	lastByRule map[string]time.Time
	states     map[string]RuleState
	enabled    bool
	logger     *zap.Logger
	now        func() time.Time
}

// NewAlertManager creates a manager. When cfg.RealTimeAlerts is false,
// CheckAlerts is a no-op regardless of registered rules.
func NewAlertManager(cfg models.MonitorConfig, logger *zap.Logger) *AlertManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertManager{
		channels:   make(map[string]AlertChannel),
		lastByRule: make(map[string]time.Time),
		states:     make(map[string]RuleState),
		enabled:    cfg.RealTimeAlerts,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterRule adds a rule. Rules evaluate independently; several may fire
// for the same report.
func (am *AlertManager) RegisterRule(rule AlertRule) error {
	if rule.Name == "" {
		return fmt.Errorf("alert rule needs a name")
	}
	if rule.Condition == nil {
		return fmt.Errorf("alert rule %q needs a condition", rule.Name)
	}
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, r := range am.rules {
		if r.Name == rule.Name {
			return fmt.Errorf("alert rule %q already registered", rule.Name)
		}
	}
	am.rules = append(am.rules, &rule)
	am.states[rule.Name] = RuleIdle
	return nil
}

// RegisterChannel adds a delivery channel resolvable by name from rules.
func (am *AlertManager) RegisterChannel(ch AlertChannel) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.channels[ch.Name()] = ch
}

// CheckAlerts evaluates every rule against the report. A channel send
// failure is isolated: it is logged and counted but never prevents delivery
// to other channels or evaluation of other rules. The returned records are
// the alerts that fired during this pass.
func (am *AlertManager) CheckAlerts(report models.MetricsReport) []models.AlertRecord {
	am.mu.Lock()
	defer am.mu.Unlock()

	if !am.enabled {
		return nil
	}

	now := am.now().UTC()
	var fired []models.AlertRecord

	for _, rule := range am.rules {
		if !rule.Condition(report) {
			am.states[rule.Name] = RuleIdle
			continue
		}

		if last, ok := am.lastByRule[rule.Name]; ok && rule.Cooldown > 0 && now.Sub(last) < rule.Cooldown {
			am.states[rule.Name] = RuleSuppressed
			continue
		}

		record := models.AlertRecord{
			ID:                  uuid.NewString(),
			RuleName:            rule.Name,
			Severity:            rule.Severity,
			Message:             rule.Description,
			Timestamp:           now,
			ErrorRate:           report.Overview.ErrorRate,
			AverageResponseTime: report.Overview.AverageResponseTime,
			TotalRequests:       report.Overview.TotalRequests,
		}
		if record.Message == "" {
			record.Message = fmt.Sprintf("alert rule %s triggered", rule.Name)
		}

		am.states[rule.Name] = RuleFiring
		am.lastByRule[rule.Name] = now
		am.history = append(am.history, record)
		fired = append(fired, record)

		for _, name := range rule.Channels {
			ch, ok := am.channels[name]
			if !ok || !ch.Enabled() {
				continue
			}
			if err := am.send(ch, record); err != nil {
				am.logger.Warn("alert channel send failed",
					zap.String("rule", rule.Name),
					zap.String("channel", name),
					zap.Error(err))
			}
		}
	}

	return fired
}

// send invokes a channel, converting a panic inside the channel
// implementation into an error.
func (am *AlertManager) send(ch AlertChannel, record models.AlertRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel %s panicked: %v", ch.Name(), r)
		}
	}()
	return ch.Send(record)
}

// History returns the append-only alert records newer than the lookback,
// most recent first.
func (am *AlertManager) History(lookback time.Duration) []models.AlertRecord {
	am.mu.Lock()
	defer am.mu.Unlock()

	cutoff := am.now().UTC().Add(-lookback)
	out := make([]models.AlertRecord, 0, len(am.history))
	for _, r := range am.history {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// State reports the lifecycle position of a rule after the latest pass.
func (am *AlertManager) State(ruleName string) RuleState {
	am.mu.Lock()
	defer am.mu.Unlock()
	if s, ok := am.states[ruleName]; ok {
		return s
	}
	return RuleIdle
}
