package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// Monitor composes the metrics store, error ledger, alert manager, and
// health checker behind a single ingestion call and a single snapshot call.
// One monitor per process; the application owner constructs it, starts its
// background loops, and closes it on shutdown.
type Monitor struct {
	cfg     models.MonitorConfig
	store   *MetricsStore
	ledger  *ErrorLedger
	alerts  *AlertManager
	health  *HealthChecker
	logger  *zap.Logger
	stopped chan struct{}
	once    sync.Once
}

// Snapshot is the point-in-time composed read of the whole engine, shaped
// for an external health or metrics endpoint.
type Snapshot struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Metrics     models.MetricsReport      `json:"metrics"`
	Errors      models.ErrorSummary       `json:"errors"`
	Health      []models.HealthCheckState `json:"health"`
	Alerts      []models.AlertRecord      `json:"alerts"`
}

// NewMonitor wires a monitor from cfg. Zero-valued config fields fall back
// to defaults; logger may be nil.
func NewMonitor(cfg models.MonitorConfig, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		cfg:     cfg,
		store:   NewMetricsStore(cfg, logger),
		ledger:  NewErrorLedger(cfg, logger),
		alerts:  NewAlertManager(cfg, logger),
		health:  NewHealthChecker(cfg, logger),
		logger:  logger,
		stopped: make(chan struct{}),
	}
	m.registerDefaultRules()
	return m
}

// registerDefaultRules installs the error-rate and response-time rules
// driven by the config thresholds. Extra rules come from the rules file via
// RegisterRule.
func (m *Monitor) registerDefaultRules() {
	defaults := models.DefaultMonitorConfig()
	errThreshold := m.cfg.ErrorThreshold
	if errThreshold <= 0 {
		errThreshold = defaults.ErrorThreshold
	}
	rtThreshold := m.cfg.ResponseTimeThreshold
	if rtThreshold <= 0 {
		rtThreshold = defaults.ResponseTimeThreshold
	}
	cooldown := m.cfg.AlertCooldown
	if cooldown <= 0 {
		cooldown = defaults.AlertCooldown
	}

	_ = m.alerts.RegisterRule(AlertRule{
		Name:        "high-error-rate",
		Description: fmt.Sprintf("error rate above %.0f%%", errThreshold*100),
		Condition: func(r models.MetricsReport) bool {
			return r.Overview.TotalRequests > 0 && r.Overview.ErrorRate > errThreshold
		},
		Severity: models.AlertHigh,
		Channels: []string{"log", "slack"},
		Cooldown: cooldown,
	})
	_ = m.alerts.RegisterRule(AlertRule{
		Name:        "slow-responses",
		Description: fmt.Sprintf("average response time above %.0fms", rtThreshold),
		Condition: func(r models.MetricsReport) bool {
			return r.Overview.TotalRequests > 0 && r.Overview.AverageResponseTime > rtThreshold
		},
		Severity: models.AlertMedium,
		Channels: []string{"log", "slack"},
		Cooldown: cooldown,
	})
}

// TrackRequest is the single ingestion entry point called for every
// completed request. It never fails: malformed input is stored best-effort.
// Requests with an error status are also logged to the ledger, using the
// caller's classification when provided and a status-derived one otherwise.
func (m *Monitor) TrackRequest(path, method string, statusCode int, durationMs float64, opts *models.TrackOptions) {
	obs := models.RequestObservation{
		Path:       path,
		Method:     method,
		StatusCode: statusCode,
		DurationMs: durationMs,
		Timestamp:  time.Now().UTC(),
	}
	var class *models.ErrorClassification
	if opts != nil {
		obs.UserID = opts.UserID
		obs.ErrorMessage = opts.ErrorMessage
		obs.CacheHit = opts.CacheHit
		obs.RetryCount = opts.RetryCount
		obs.UserAgent = opts.UserAgent
		class = opts.Classification
	}
	m.store.Record(obs)

	if statusCode < 400 && class == nil {
		return
	}
	if class == nil {
		c := classifyStatus(statusCode, obs.ErrorMessage)
		class = &c
	}
	var raw error
	if obs.ErrorMessage != "" {
		raw = fmt.Errorf("%s", obs.ErrorMessage)
	}
	m.ledger.Log(raw, *class, obs.UserID)
}

// classifyStatus derives a fallback classification from the status code when
// the caller supplied none. Supplied classifications are treated as opaque.
func classifyStatus(statusCode int, message string) models.ErrorClassification {
	class := models.ErrorClassification{UserMessage: message}
	switch {
	case statusCode >= 500:
		class.Category = models.CategoryServer
		class.Severity = models.SeverityHigh
		if class.UserMessage == "" {
			class.UserMessage = fmt.Sprintf("Server error (%d)", statusCode)
		}
	default:
		class.Category = models.CategoryClient
		class.Severity = models.SeverityLow
		if class.UserMessage == "" {
			class.UserMessage = fmt.Sprintf("Request failed (%d)", statusCode)
		}
	}
	return class
}

// GetMetrics builds the composed metrics report over the window. A zero
// window means the full retention period.
func (m *Monitor) GetMetrics(window time.Duration) models.MetricsReport {
	overview := m.store.Overview(window)
	errMetrics := m.ledger.Metrics(overview.TotalRequests)
	return models.MetricsReport{
		Overview:  overview,
		Endpoints: m.store.Aggregate(window),
		Errors:    errMetrics.TopErrors,
		Trends:    m.store.Trends(m.cfg.TrendBucket, m.cfg.TrendLookback),
	}
}

// GetEndpointMetrics returns the per-endpoint aggregates for all known
// endpoints over the full retention window.
func (m *Monitor) GetEndpointMetrics() []models.EndpointMetrics {
	return m.store.Aggregate(0)
}

// GetErrorMetrics returns the ledger's aggregate view including the derived
// health score.
func (m *Monitor) GetErrorMetrics() models.ErrorMetrics {
	return m.ledger.Metrics(m.store.Overview(0).TotalRequests)
}

// GetErrorSummary returns the compact client/server error breakdown.
func (m *Monitor) GetErrorSummary() models.ErrorSummary {
	return m.ledger.Summary()
}

// GetHealthStatus returns the health checker's current per-endpoint states.
func (m *Monitor) GetHealthStatus() []models.HealthCheckState {
	return m.health.States()
}

// GetAlertHistory returns fired alerts within the lookback window.
func (m *Monitor) GetAlertHistory(lookback time.Duration) []models.AlertRecord {
	return m.alerts.History(lookback)
}

// GetSnapshot composes metrics, errors, health, and the last day of alerts
// into a single read for external reporting surfaces.
func (m *Monitor) GetSnapshot() Snapshot {
	return Snapshot{
		GeneratedAt: time.Now().UTC(),
		Metrics:     m.GetMetrics(0),
		Errors:      m.GetErrorSummary(),
		Health:      m.GetHealthStatus(),
		Alerts:      m.GetAlertHistory(24 * time.Hour),
	}
}

// RegisterRule adds an alert rule beyond the config-driven defaults.
func (m *Monitor) RegisterRule(rule AlertRule) error {
	return m.alerts.RegisterRule(rule)
}

// RegisterChannel adds an alert delivery channel.
func (m *Monitor) RegisterChannel(ch AlertChannel) {
	m.alerts.RegisterChannel(ch)
}

// RegisterHealthCheck adds an endpoint probe run by the periodic loop.
func (m *Monitor) RegisterHealthCheck(endpoint string, probe ProbeFunc) {
	m.health.Register(endpoint, probe)
}

// CheckAlerts evaluates all rules against the current metrics report.
// Useful for synchronous evaluation; the Start loop calls it on a timer.
func (m *Monitor) CheckAlerts() []models.AlertRecord {
	return m.alerts.CheckAlerts(m.GetMetrics(0))
}

// CheckHealth runs every registered probe once, concurrently.
func (m *Monitor) CheckHealth(ctx context.Context) []models.HealthCheckState {
	return m.health.CheckAll(ctx)
}

// Start launches the background loops: the eviction sweep, the periodic
// health checks, and the alert evaluation ticker. It blocks until ctx is
// cancelled or Close is called.
func (m *Monitor) Start(ctx context.Context) {
	defaults := models.DefaultMonitorConfig()
	sweepEvery := m.cfg.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = defaults.SweepInterval
	}
	healthEvery := m.cfg.HealthCheckInterval
	if healthEvery <= 0 {
		healthEvery = defaults.HealthCheckInterval
	}
	alertEvery := m.cfg.AlertInterval
	if alertEvery <= 0 {
		alertEvery = defaults.AlertInterval
	}

	sweep := time.NewTicker(sweepEvery)
	health := time.NewTicker(healthEvery)
	alerts := time.NewTicker(alertEvery)
	defer sweep.Stop()
	defer health.Stop()
	defer alerts.Stop()

	m.logger.Info("monitor started",
		zap.Duration("sweep_interval", sweepEvery),
		zap.Duration("health_interval", healthEvery),
		zap.Duration("alert_interval", alertEvery))

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopped:
			return
		case <-sweep.C:
			m.store.Sweep()
		case <-health.C:
			m.health.CheckAll(ctx)
		case <-alerts.C:
			m.CheckAlerts()
		}
	}
}

// Close stops the Start loop. Safe to call more than once.
func (m *Monitor) Close() {
	m.once.Do(func() { close(m.stopped) })
}
