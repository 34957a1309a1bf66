package models

import "time"

// HealthStatus is the derived condition of one checked endpoint.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckState is the per-endpoint view returned by the health checker.
// Uptime is the success percentage over the rolling result ring and moves
// independently of ConsecutiveFailures, so one recent failure after a long
// healthy streak degrades Status but barely moves Uptime.
type HealthCheckState struct {
	Endpoint            string       `json:"endpoint"`
	Status              HealthStatus `json:"status"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	Uptime              float64      `json:"uptime"`
	LastChecked         time.Time    `json:"last_checked"`
	LastError           string       `json:"last_error,omitempty"`
}
