// Package internal provides the App struct that wires the pulse
// observability engine together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/internal/cli"
	"github.com/firstissue/pulse/internal/core"
	"github.com/firstissue/pulse/internal/observability"
	"github.com/firstissue/pulse/pkg/models"
)

// App holds all service dependencies for the pulse engine. One App (and so
// one Monitor) exists per process; the caller owns its lifecycle.
type App struct {
	BasePath string

	ConfigMgr core.ConfigurationManager
	Config    *models.MonitorConfig
	Logger    *zap.Logger
	Monitor   *observability.Monitor
}

// NewApp creates and wires all components. basePath is the directory
// holding .pulseconfig and alerts.yaml (typically the working directory).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	app.Logger = logger

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		// Use defaults if the config file is unreadable.
		defaults := models.DefaultMonitorConfig()
		cfg = &defaults
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Engine ---
	app.Monitor = observability.NewMonitor(*cfg, logger)
	app.Monitor.RegisterChannel(observability.NewLogChannel("log", logger))

	notifications, err := app.ConfigMgr.LoadNotificationConfig()
	if err == nil && notifications.Enabled && notifications.Slack.WebhookURL != "" {
		app.Monitor.RegisterChannel(observability.NewSlackChannel("slack", notifications.Slack.WebhookURL))
	}

	// --- Extra alert rules from alerts.yaml ---
	specs, err := core.LoadRuleSpecs(filepath.Join(basePath, "alerts.yaml"))
	if err != nil {
		logger.Warn("skipping alert rules file", zap.Error(err))
	}
	rules, compileErrs := core.CompileRules(specs)
	for _, cerr := range compileErrs {
		logger.Warn("skipping invalid alert rule", zap.Error(cerr))
	}
	for _, rule := range rules {
		if err := app.Monitor.RegisterRule(rule); err != nil {
			logger.Warn("skipping duplicate alert rule", zap.Error(err))
		}
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Monitor = app.Monitor
	cli.Config = app.Config
	cli.Logger = logger

	return app, nil
}

// Close releases resources held by the App and stops background loops.
func (a *App) Close() error {
	if a.Monitor != nil {
		a.Monitor.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return nil
}

// ResolveBasePath determines the directory for config files. It honors the
// PULSE_HOME env var and otherwise uses the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("PULSE_HOME"); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
