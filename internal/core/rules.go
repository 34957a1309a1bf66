package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/firstissue/pulse/internal/observability"
	"github.com/firstissue/pulse/pkg/models"
)

// rulesFile is the top-level shape of an alerts.yaml file.
type rulesFile struct {
	Rules []models.RuleSpec `yaml:"rules"`
}

// LoadRuleSpecs reads declarative alert rule specs from a YAML file. A
// missing file is not an error; it just means no extra rules.
func LoadRuleSpecs(path string) ([]models.RuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return f.Rules, nil
}

// metricValue extracts the spec'd metric from a report. p95 uses the busiest
// endpoint's value since the overview carries no percentile of its own.
func metricValue(metric string, r models.MetricsReport) (float64, bool) {
	switch metric {
	case "error_rate":
		return r.Overview.ErrorRate, true
	case "avg_response_time":
		return r.Overview.AverageResponseTime, true
	case "throughput":
		return r.Overview.Throughput, true
	case "p95_response_time":
		if len(r.Endpoints) == 0 {
			return 0, false
		}
		worst := r.Endpoints[0].P95ResponseTime
		for _, e := range r.Endpoints[1:] {
			if e.P95ResponseTime > worst {
				worst = e.P95ResponseTime
			}
		}
		return worst, true
	default:
		return 0, false
	}
}

// CompileRule turns a declarative spec into an executable alert rule.
func CompileRule(spec models.RuleSpec) (observability.AlertRule, error) {
	if spec.Name == "" {
		return observability.AlertRule{}, fmt.Errorf("rule spec needs a name")
	}
	switch spec.Metric {
	case "error_rate", "avg_response_time", "p95_response_time", "throughput":
	default:
		return observability.AlertRule{}, fmt.Errorf("rule %q: unknown metric %q", spec.Name, spec.Metric)
	}
	if spec.Op != "gt" && spec.Op != "lt" {
		return observability.AlertRule{}, fmt.Errorf("rule %q: op must be gt or lt, got %q", spec.Name, spec.Op)
	}

	metric := spec.Metric
	op := spec.Op
	threshold := spec.Threshold

	severity := spec.Severity
	if severity == "" {
		severity = models.AlertMedium
	}
	channels := spec.Channels
	if len(channels) == 0 {
		channels = []string{"log"}
	}
	description := spec.Description
	if description == "" {
		description = fmt.Sprintf("%s %s %g", metric, op, threshold)
	}

	return observability.AlertRule{
		Name:        spec.Name,
		Description: description,
		Condition: func(r models.MetricsReport) bool {
			if r.Overview.TotalRequests == 0 {
				return false
			}
			value, ok := metricValue(metric, r)
			if !ok {
				return false
			}
			if op == "gt" {
				return value > threshold
			}
			return value < threshold
		},
		Severity: severity,
		Channels: channels,
		Cooldown: time.Duration(spec.CooldownMinutes) * time.Minute,
	}, nil
}

// CompileRules compiles every spec, collecting per-rule failures so one bad
// spec does not discard the rest.
func CompileRules(specs []models.RuleSpec) ([]observability.AlertRule, []error) {
	rules := make([]observability.AlertRule, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		rule, err := CompileRule(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, errs
}
