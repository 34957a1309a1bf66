package models

import "time"

// RequestObservation is one completed request as reported by the web layer.
// The path is stored raw; endpoint normalization happens at aggregation time
// so the original value stays available for debugging. Observations are
// immutable once created and owned by the metrics store buffer until evicted.
type RequestObservation struct {
	Path         string    `json:"path"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"status_code"`
	DurationMs   float64   `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
	UserID       string    `json:"user_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CacheHit     bool      `json:"cache_hit,omitempty"`
	RetryCount   int       `json:"retry_count,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
}

// TrackOptions carries the optional fields of a request observation.
type TrackOptions struct {
	UserID         string
	ErrorMessage   string
	CacheHit       bool
	RetryCount     int
	UserAgent      string
	Classification *ErrorClassification
}

// EndpointMetrics aggregates all observations for one normalized endpoint
// within a window. It is always recomputed from raw observations, never
// stored, so eviction can not leave it stale.
type EndpointMetrics struct {
	Endpoint            string  `json:"endpoint"`
	Method              string  `json:"method"`
	TotalRequests       int     `json:"total_requests"`
	SuccessfulRequests  int     `json:"successful_requests"`
	ErrorRequests       int     `json:"error_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
	P95ResponseTime     float64 `json:"p95_response_time"`
	P99ResponseTime     float64 `json:"p99_response_time"`
	Throughput          float64 `json:"throughput"` // requests per minute
}

// OverviewMetrics summarizes all traffic within a window.
type OverviewMetrics struct {
	TotalRequests       int     `json:"total_requests"`
	TotalErrors         int     `json:"total_errors"`
	ErrorRate           float64 `json:"error_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
	Throughput          float64 `json:"throughput"`
}

// TimeBucket is one fixed-width slice of the trends series used for charting.
type TimeBucket struct {
	Start               time.Time `json:"start"`
	RequestCount        int       `json:"request_count"`
	ErrorCount          int       `json:"error_count"`
	AverageResponseTime float64   `json:"average_response_time"`
}

// MetricsReport is the composed read model returned by the monitor's
// GetMetrics call and consumed by dashboards and alert rule predicates.
type MetricsReport struct {
	Overview  OverviewMetrics   `json:"overview"`
	Endpoints []EndpointMetrics `json:"endpoints"`
	Errors    []ErrorEntry      `json:"errors"`
	Trends    []TimeBucket      `json:"trends"`
}
