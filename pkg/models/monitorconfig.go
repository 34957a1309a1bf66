package models

import "time"

// MonitorConfig holds all tunables of the observability engine. Values read
// from .pulseconfig via Viper overlay the defaults; zero values fall back.
type MonitorConfig struct {
	// Metrics store.
	MetricsRetention time.Duration `yaml:"metrics_retention" mapstructure:"metrics_retention"`
	SweepInterval    time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	TrendBucket      time.Duration `yaml:"trend_bucket" mapstructure:"trend_bucket"`
	TrendLookback    int           `yaml:"trend_lookback" mapstructure:"trend_lookback"`

	// Error ledger.
	ErrorWindow         time.Duration         `yaml:"error_window" mapstructure:"error_window"`
	ErrorLedgerCapacity int                   `yaml:"error_ledger_capacity" mapstructure:"error_ledger_capacity"`
	TopErrorCount       int                   `yaml:"top_error_count" mapstructure:"top_error_count"`
	SeverityWeights     map[ErrorSeverity]int `yaml:"severity_weights,omitempty" mapstructure:"severity_weights"`

	// Default alert rules.
	ErrorThreshold        float64       `yaml:"error_threshold" mapstructure:"error_threshold"` // error-rate fraction
	ResponseTimeThreshold float64       `yaml:"response_time_threshold" mapstructure:"response_time_threshold"`
	AlertCooldown         time.Duration `yaml:"alert_cooldown" mapstructure:"alert_cooldown"`
	RealTimeAlerts        bool          `yaml:"real_time_alerts" mapstructure:"real_time_alerts"`
	AlertInterval         time.Duration `yaml:"alert_interval" mapstructure:"alert_interval"`

	// Health checker.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval"`
	HealthCheckTimeout  time.Duration `yaml:"health_check_timeout" mapstructure:"health_check_timeout"`
	HealthRingSize      int           `yaml:"health_ring_size" mapstructure:"health_ring_size"`
	UnhealthyThreshold  int           `yaml:"unhealthy_threshold" mapstructure:"unhealthy_threshold"`
}

// DefaultMonitorConfig returns the engine defaults. The severity weights and
// failure thresholds are policy knobs, not contracts; callers may override
// them as long as the weighting stays monotonic.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		MetricsRetention: time.Minute,
		SweepInterval:    10 * time.Second,
		TrendBucket:      time.Hour,
		TrendLookback:    24,

		ErrorWindow:         time.Minute,
		ErrorLedgerCapacity: 1000,
		TopErrorCount:       10,
		SeverityWeights: map[ErrorSeverity]int{
			SeverityCritical: 30,
			SeverityHigh:     20,
			SeverityMedium:   10,
			SeverityLow:      5,
		},

		ErrorThreshold:        0.05,
		ResponseTimeThreshold: 2000,
		AlertCooldown:         5 * time.Minute,
		RealTimeAlerts:        true,
		AlertInterval:         30 * time.Second,

		HealthCheckInterval: 30 * time.Second,
		HealthCheckTimeout:  5 * time.Second,
		HealthRingSize:      20,
		UnhealthyThreshold:  3,
	}
}

// NotificationConfig wires outbound alert channels from the config file.
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Slack   struct {
		WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	} `yaml:"slack" mapstructure:"slack"`
}
