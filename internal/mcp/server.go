// Package mcp provides an MCP (Model Context Protocol) server that exposes
// pulse monitoring data as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/firstissue/pulse/internal/observability"
	"github.com/firstissue/pulse/pkg/models"
)

// Server wraps the monitor and exposes its read surfaces as MCP tools.
type Server struct {
	server  *gomcp.Server
	monitor *observability.Monitor
}

// NewServer creates a new MCP server backed by the given monitor.
func NewServer(monitor *observability.Monitor, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{monitor: monitor}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "pulse", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getMetricsInput struct {
	Window string `json:"window,omitempty" jsonschema:"time window for metrics (e.g. 30s, 5m, 1h). Defaults to the full retention period."`
}

type endpointOutput struct {
	Endpoint            string  `json:"endpoint"`
	Method              string  `json:"method"`
	TotalRequests       int     `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
	P95ResponseTime     float64 `json:"p95_response_time"`
	P99ResponseTime     float64 `json:"p99_response_time"`
	Throughput          float64 `json:"throughput"`
}

type metricsOutput struct {
	TotalRequests       int              `json:"total_requests"`
	TotalErrors         int              `json:"total_errors"`
	ErrorRate           float64          `json:"error_rate"`
	AverageResponseTime float64          `json:"average_response_time"`
	Throughput          float64          `json:"throughput"`
	Endpoints           []endpointOutput `json:"endpoints"`
}

type getErrorSummaryInput struct{}

type errorEntryOutput struct {
	Message  string `json:"message"`
	Count    int    `json:"count"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	LastSeen string `json:"last_seen"`
}

type errorSummaryOutput struct {
	TotalErrors  int                `json:"total_errors"`
	ClientErrors int                `json:"client_errors"`
	ServerErrors int                `json:"server_errors"`
	HealthScore  int                `json:"health_score"`
	TopErrors    []errorEntryOutput `json:"top_errors"`
}

type getHealthStatusInput struct{}

type healthStateOutput struct {
	Endpoint            string  `json:"endpoint"`
	Status              string  `json:"status"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	Uptime              float64 `json:"uptime"`
	LastChecked         string  `json:"last_checked,omitempty"`
	LastError           string  `json:"last_error,omitempty"`
}

type healthStatusOutput struct {
	Checks []healthStateOutput `json:"checks"`
	Count  int                 `json:"count"`
}

type getAlertHistoryInput struct {
	Lookback string `json:"lookback,omitempty" jsonschema:"history window (e.g. 1h, 24h, 7d). Defaults to 24h."`
}

type alertOutput struct {
	ID        string `json:"id"`
	RuleName  string `json:"rule_name"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type alertHistoryOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get the aggregated request metrics: overview totals plus per-endpoint breakdowns with error rates and percentile response times.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_error_summary",
		Description: "Get consolidated errors: totals split into client and server classes, the most frequent messages, and the derived health score.",
	}, s.handleGetErrorSummary)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_health_status",
		Description: "Get the per-endpoint health check state: derived status, consecutive failures, and rolling uptime.",
	}, s.handleGetHealthStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alert_history",
		Description: "Get fired alerts within a lookback window, most recent first.",
	}, s.handleGetAlertHistory)
}

// --- Tool handlers ---

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	var window time.Duration
	if input.Window != "" {
		parsed, err := parseWindow(input.Window)
		if err != nil {
			return errorResult(fmt.Sprintf("parsing window: %s", err)), metricsOutput{}, nil
		}
		window = parsed
	}

	report := s.monitor.GetMetrics(window)

	out := metricsOutput{
		TotalRequests:       report.Overview.TotalRequests,
		TotalErrors:         report.Overview.TotalErrors,
		ErrorRate:           report.Overview.ErrorRate,
		AverageResponseTime: report.Overview.AverageResponseTime,
		Throughput:          report.Overview.Throughput,
		Endpoints:           make([]endpointOutput, len(report.Endpoints)),
	}
	for i, ep := range report.Endpoints {
		out.Endpoints[i] = endpointOutput{
			Endpoint:            ep.Endpoint,
			Method:              ep.Method,
			TotalRequests:       ep.TotalRequests,
			ErrorRate:           ep.ErrorRate,
			AverageResponseTime: ep.AverageResponseTime,
			P95ResponseTime:     ep.P95ResponseTime,
			P99ResponseTime:     ep.P99ResponseTime,
			Throughput:          ep.Throughput,
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetErrorSummary(_ context.Context, _ *gomcp.CallToolRequest, _ getErrorSummaryInput) (*gomcp.CallToolResult, errorSummaryOutput, error) {
	summary := s.monitor.GetErrorSummary()
	metrics := s.monitor.GetErrorMetrics()

	out := errorSummaryOutput{
		TotalErrors:  summary.TotalErrors,
		ClientErrors: summary.ErrorsByType.Client,
		ServerErrors: summary.ErrorsByType.Server,
		HealthScore:  metrics.HealthScore,
		TopErrors:    make([]errorEntryOutput, len(metrics.TopErrors)),
	}
	for i, e := range metrics.TopErrors {
		out.TopErrors[i] = errorEntryOutput{
			Message:  e.Message,
			Count:    e.Count,
			Category: string(e.Category),
			Severity: string(e.Severity),
			LastSeen: e.LastSeen.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetHealthStatus(_ context.Context, _ *gomcp.CallToolRequest, _ getHealthStatusInput) (*gomcp.CallToolResult, healthStatusOutput, error) {
	states := s.monitor.GetHealthStatus()

	out := healthStatusOutput{
		Checks: make([]healthStateOutput, len(states)),
		Count:  len(states),
	}
	for i, st := range states {
		out.Checks[i] = stateToOutput(st)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlertHistory(_ context.Context, _ *gomcp.CallToolRequest, input getAlertHistoryInput) (*gomcp.CallToolResult, alertHistoryOutput, error) {
	lookbackStr := input.Lookback
	if lookbackStr == "" {
		lookbackStr = "24h"
	}

	lookback, err := parseWindow(lookbackStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing lookback: %s", err)), alertHistoryOutput{}, nil
	}

	alerts := s.monitor.GetAlertHistory(lookback)

	out := alertHistoryOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:        a.ID,
			RuleName:  a.RuleName,
			Severity:  string(a.Severity),
			Message:   a.Message,
			Timestamp: a.Timestamp.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func stateToOutput(st models.HealthCheckState) healthStateOutput {
	out := healthStateOutput{
		Endpoint:            st.Endpoint,
		Status:              string(st.Status),
		ConsecutiveFailures: st.ConsecutiveFailures,
		Uptime:              st.Uptime,
		LastError:           st.LastError,
	}
	if !st.LastChecked.IsZero() {
		out.LastChecked = st.LastChecked.Format(time.RFC3339)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseWindow parses a human-friendly duration string like "30s", "5m",
// "24h", or "7d".
func parseWindow(s string) (time.Duration, error) {
	if len(s) >= 2 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &days); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
