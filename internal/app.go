// Package internal provides the App struct that wires all components of the
// todo system together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/afero"
	"github.com/valter-silva-au/todo/internal/cli"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/logging"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/internal/storage"
	"github.com/valter-silva-au/todo/pkg/models"
)

// HomeEnv overrides base path discovery.
const HomeEnv = "TODO_HOME"

// App holds all service dependencies for the todo system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	Logger    *log.Logger

	// Storage layer
	FS      afero.Fs
	KV      storage.KeyValueStore
	Gateway storage.TaskGateway

	// Core services
	Store       core.TaskStore
	ProjectInit core.ProjectInitializer

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components of the todo system.
// basePath is the directory containing .todoconfig (typically found by
// ResolveBasePath).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath, FS: afero.NewOsFs()}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, cfgErr := app.ConfigMgr.LoadGlobalConfig()
	if cfg == nil {
		cfg = core.DefaultGlobalConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Logger = logging.FromConfig(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if cfgErr != nil {
		app.Logger.Warn("ignoring unreadable config file, using defaults and TODO_* overrides", "err", cfgErr)
	}

	// --- Storage layer ---
	dataDir := cfg.Storage.Path
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(basePath, dataDir)
	}
	kv, err := openKVStore(cfg.Storage.Backend, app.FS, dataDir)
	if err != nil {
		return nil, err
	}
	app.KV = kv
	app.Gateway = storage.NewTaskGateway(kv, app.FS, app.Logger, cfg.Export.Filename)
	app.Logger.Debug("storage ready", "backend", cfg.Storage.Backend, "dir", dataDir)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, observability.EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(app.FS, eventLogPath)
	if err != nil {
		// Non-fatal: metrics are unavailable without the event log.
		app.Logger.Warn("event log disabled", "path", eventLogPath, "err", err)
		app.EventLog = nil
	}
	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Core services ---
	app.Store = core.NewTaskStore(app.Gateway, evtAdapter)
	app.ProjectInit = core.NewProjectInitializer(app.FS)

	app.AlertEngine = observability.NewAlertEngine(app.EventLog, &taskSourceAdapter{store: app.Store}, alertThresholds(cfg.Alerts))

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Store = app.Store
	cli.Gateway = app.Gateway
	cli.Logger = app.Logger
	cli.Events = evtAdapter
	cli.ProjectInit = app.ProjectInit

	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

func openKVStore(backend models.StorageBackend, fs afero.Fs, dir string) (storage.KeyValueStore, error) {
	switch backend {
	case models.BackendFile, "":
		return storage.NewFileKVStore(fs, dir), nil
	case models.BackendSQLite:
		return storage.NewSQLiteKVStore(dir)
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

func alertThresholds(cfg models.AlertConfig) observability.AlertThresholds {
	thresholds := observability.DefaultAlertThresholds()
	if cfg.DueSoonDays > 0 {
		thresholds.DueSoonDays = cfg.DueSoonDays
	}
	if cfg.StaleDays > 0 {
		thresholds.StaleDays = cfg.StaleDays
	}
	if cfg.MaxActiveTasks > 0 {
		thresholds.MaxActiveTasks = cfg.MaxActiveTasks
	}
	return thresholds
}

// Close releases resources held by the App: the key-value store and the
// event log file handle. It is safe to call Close on an App whose EventLog
// is nil.
func (a *App) Close() error {
	var errs []error
	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the directory holding the task list.
// It checks the TODO_HOME env var, then walks up from the current directory
// looking for .todoconfig, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	event := observability.Event{Time: time.Now().UTC(), Type: eventType}
	for k, v := range data {
		if id, ok := v.(string); ok && k == "task_id" {
			event.TaskID = id
			continue
		}
		if event.Data == nil {
			event.Data = make(map[string]any, len(data))
		}
		event.Data[k] = v
	}
	return a.log.Write(event)
}

// taskSourceAdapter exposes the store's tasks to the alert engine.
type taskSourceAdapter struct {
	store core.TaskStore
}

func (a *taskSourceAdapter) AllTasks() []models.Task {
	return a.store.State().Tasks
}
