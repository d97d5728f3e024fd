package cli

import (
	"github.com/charmbracelet/log"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	Store   core.TaskStore
	Gateway storage.TaskGateway
	Logger  *log.Logger
	Events  core.EventLogger

	// BasePath is the directory holding .todoconfig and the default export location.
	BasePath string
)

// Observability service instances. MetricsCalc is nil when the event log
// could not be opened.
var (
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
)
