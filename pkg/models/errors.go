package models

import "time"

// ErrorCategory classifies an error by its origin.
type ErrorCategory string

const (
	CategoryClient    ErrorCategory = "client"
	CategoryServer    ErrorCategory = "server"
	CategoryTransient ErrorCategory = "transient"
	CategoryTimeout   ErrorCategory = "timeout"
)

// ErrorSeverity grades how bad an error is for the service.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
)

// ErrorClassification is the output of the external error classifier.
// The ledger consumes it as an opaque input and never re-derives it.
type ErrorClassification struct {
	Category    ErrorCategory `json:"category"`
	Severity    ErrorSeverity `json:"severity"`
	UserMessage string        `json:"user_message"`
}

// ErrorEntry is one deduplicated error signature in the ledger. Raw errors
// with the same user-facing message inside the consolidation window merge
// into a single entry by incrementing Count.
type ErrorEntry struct {
	Message       string        `json:"message"`
	Count         int           `json:"count"`
	FirstSeen     time.Time     `json:"first_seen"`
	LastSeen      time.Time     `json:"last_seen"`
	AffectedUsers []string      `json:"affected_users,omitempty"`
	Category      ErrorCategory `json:"category"`
	Severity      ErrorSeverity `json:"severity"`
}

// ErrorMetrics is the ledger's aggregate read model.
type ErrorMetrics struct {
	TotalErrors      int                   `json:"total_errors"`
	ErrorsByCategory map[ErrorCategory]int `json:"errors_by_category"`
	ErrorsBySeverity map[ErrorSeverity]int `json:"errors_by_severity"`
	ErrorRate        float64               `json:"error_rate"`
	TopErrors        []ErrorEntry          `json:"top_errors"`
	HealthScore      int                   `json:"health_score"`
}

// ErrorTypeBreakdown splits errors into the client/server taxonomy used by
// the summary surface.
type ErrorTypeBreakdown struct {
	Client int `json:"client"`
	Server int `json:"server"`
}

// ErrorSummary is the compact error read model for health endpoints.
type ErrorSummary struct {
	TotalErrors  int                `json:"total_errors"`
	ErrorsByType ErrorTypeBreakdown `json:"errors_by_type"`
	RecentErrors []ErrorEntry       `json:"recent_errors"`
}
