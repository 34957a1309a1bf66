package models

import "time"

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "critical"
	AlertHigh     AlertSeverity = "high"
	AlertMedium   AlertSeverity = "medium"
	AlertLow      AlertSeverity = "low"
)

// AlertRecord is an immutable history entry written every time a rule fires.
// Cooldown suppression consults only the most recent record per rule.
type AlertRecord struct {
	ID        string        `json:"id"`
	RuleName  string        `json:"rule_name"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`

	// Snapshot excerpt captured at firing time.
	ErrorRate           float64 `json:"error_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
	TotalRequests       int     `json:"total_requests"`
}

// RuleSpec is a declarative alert rule as read from the alerts.yaml file.
// Specs are compiled into predicate-backed rules by the core package.
type RuleSpec struct {
	Name            string        `yaml:"name"`
	Description     string        `yaml:"description,omitempty"`
	Metric          string        `yaml:"metric"`    // error_rate, avg_response_time, p95_response_time, throughput
	Op              string        `yaml:"op"`        // gt or lt
	Threshold       float64       `yaml:"threshold"`
	Severity        AlertSeverity `yaml:"severity"`
	Channels        []string      `yaml:"channels,omitempty"`
	CooldownMinutes int           `yaml:"cooldown_minutes,omitempty"`
}
