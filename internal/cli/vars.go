package cli

import (
	"go.uber.org/zap"

	"github.com/firstissue/pulse/internal/observability"
	"github.com/firstissue/pulse/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Monitor  *observability.Monitor
	Config   *models.MonitorConfig
	Logger   *zap.Logger
)
