// Package core contains the configuration surface of the pulse engine:
// loading and validating .pulseconfig files and compiling declarative alert
// rule specs into executable rules.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/firstissue/pulse/pkg/models"
)

// ConfigurationManager loads and validates engine configuration from the
// .pulseconfig file at a base path.
type ConfigurationManager interface {
	LoadConfig() (*models.MonitorConfig, error)
	LoadNotificationConfig() (*models.NotificationConfig, error)
	ValidateConfig(cfg *models.MonitorConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// LoadConfig reads .pulseconfig from the base path. If the file does not
// exist, the engine defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.MonitorConfig, error) {
	cfg := models.DefaultMonitorConfig()

	v := viper.New()
	v.SetConfigName(".pulseconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Viper defaults so missing keys fall back gracefully.
	v.SetDefault("retention.metrics_ms", cfg.MetricsRetention.Milliseconds())
	v.SetDefault("retention.sweep_interval_ms", cfg.SweepInterval.Milliseconds())
	v.SetDefault("retention.error_window_ms", cfg.ErrorWindow.Milliseconds())
	v.SetDefault("errors.ledger_capacity", cfg.ErrorLedgerCapacity)
	v.SetDefault("errors.top_count", cfg.TopErrorCount)
	v.SetDefault("alerts.error_threshold", cfg.ErrorThreshold)
	v.SetDefault("alerts.response_time_threshold_ms", cfg.ResponseTimeThreshold)
	v.SetDefault("alerts.cooldown_ms", cfg.AlertCooldown.Milliseconds())
	v.SetDefault("alerts.realtime", cfg.RealTimeAlerts)
	v.SetDefault("alerts.interval_ms", cfg.AlertInterval.Milliseconds())
	v.SetDefault("health.interval_ms", cfg.HealthCheckInterval.Milliseconds())
	v.SetDefault("health.timeout_ms", cfg.HealthCheckTimeout.Milliseconds())
	v.SetDefault("health.ring_size", cfg.HealthRingSize)
	v.SetDefault("health.unhealthy_threshold", cfg.UnhealthyThreshold)
	v.SetDefault("trends.bucket_ms", cfg.TrendBucket.Milliseconds())
	v.SetDefault("trends.lookback", cfg.TrendLookback)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading .pulseconfig: %w", err)
	}

	cfg.MetricsRetention = time.Duration(v.GetInt64("retention.metrics_ms")) * time.Millisecond
	cfg.SweepInterval = time.Duration(v.GetInt64("retention.sweep_interval_ms")) * time.Millisecond
	cfg.ErrorWindow = time.Duration(v.GetInt64("retention.error_window_ms")) * time.Millisecond
	cfg.ErrorLedgerCapacity = v.GetInt("errors.ledger_capacity")
	cfg.TopErrorCount = v.GetInt("errors.top_count")
	cfg.ErrorThreshold = v.GetFloat64("alerts.error_threshold")
	cfg.ResponseTimeThreshold = v.GetFloat64("alerts.response_time_threshold_ms")
	cfg.AlertCooldown = time.Duration(v.GetInt64("alerts.cooldown_ms")) * time.Millisecond
	cfg.RealTimeAlerts = v.GetBool("alerts.realtime")
	cfg.AlertInterval = time.Duration(v.GetInt64("alerts.interval_ms")) * time.Millisecond
	cfg.HealthCheckInterval = time.Duration(v.GetInt64("health.interval_ms")) * time.Millisecond
	cfg.HealthCheckTimeout = time.Duration(v.GetInt64("health.timeout_ms")) * time.Millisecond
	cfg.HealthRingSize = v.GetInt("health.ring_size")
	cfg.UnhealthyThreshold = v.GetInt("health.unhealthy_threshold")
	cfg.TrendBucket = time.Duration(v.GetInt64("trends.bucket_ms")) * time.Millisecond
	cfg.TrendLookback = v.GetInt("trends.lookback")

	// Parse severity_weights section if present.
	weightsRaw := v.GetStringMap("errors.severity_weights")
	if len(weightsRaw) > 0 {
		weights := make(map[models.ErrorSeverity]int, len(weightsRaw))
		for k := range weightsRaw {
			weights[models.ErrorSeverity(k)] = v.GetInt("errors.severity_weights." + k)
		}
		cfg.SeverityWeights = weights
	}

	return &cfg, nil
}

// LoadNotificationConfig reads the notifications section of .pulseconfig.
// A missing file or section yields a disabled config.
func (cm *viperConfigManager) LoadNotificationConfig() (*models.NotificationConfig, error) {
	v := viper.New()
	v.SetConfigName(".pulseconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	nc := &models.NotificationConfig{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nc, nil
		}
		return nil, fmt.Errorf("reading .pulseconfig: %w", err)
	}

	nc.Enabled = v.GetBool("notifications.enabled")
	nc.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	return nc, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error naming every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.MonitorConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.MetricsRetention < 0 {
		errs = append(errs, fmt.Sprintf("retention.metrics_ms must be non-negative, got %s", cfg.MetricsRetention))
	}
	if cfg.ErrorWindow < 0 {
		errs = append(errs, fmt.Sprintf("retention.error_window_ms must be non-negative, got %s", cfg.ErrorWindow))
	}
	if cfg.ErrorLedgerCapacity < 0 {
		errs = append(errs, fmt.Sprintf("errors.ledger_capacity must be non-negative, got %d", cfg.ErrorLedgerCapacity))
	}
	if cfg.ErrorThreshold < 0 || cfg.ErrorThreshold > 1 {
		errs = append(errs, fmt.Sprintf("alerts.error_threshold must be a fraction in [0,1], got %g", cfg.ErrorThreshold))
	}
	if cfg.ResponseTimeThreshold < 0 {
		errs = append(errs, fmt.Sprintf("alerts.response_time_threshold_ms must be non-negative, got %g", cfg.ResponseTimeThreshold))
	}
	if cfg.HealthRingSize < 0 {
		errs = append(errs, fmt.Sprintf("health.ring_size must be non-negative, got %d", cfg.HealthRingSize))
	}
	if cfg.UnhealthyThreshold < 0 {
		errs = append(errs, fmt.Sprintf("health.unhealthy_threshold must be non-negative, got %d", cfg.UnhealthyThreshold))
	}
	if cfg.TrendLookback < 0 {
		errs = append(errs, fmt.Sprintf("trends.lookback must be non-negative, got %d", cfg.TrendLookback))
	}

	// Severity weights must be monotonic: worse severities never weigh less.
	w := cfg.SeverityWeights
	if len(w) > 0 {
		if w[models.SeverityCritical] < w[models.SeverityHigh] ||
			w[models.SeverityHigh] < w[models.SeverityMedium] ||
			w[models.SeverityMedium] < w[models.SeverityLow] {
			errs = append(errs, "errors.severity_weights must be non-increasing from critical to low")
		}
		for sev, weight := range w {
			if weight < 0 {
				errs = append(errs, fmt.Sprintf("errors.severity_weights.%s must be non-negative, got %d", sev, weight))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("pulse config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
