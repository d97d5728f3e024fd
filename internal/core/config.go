// Package core contains the business logic of the to-do list: the task
// store with its validation rules and derived views, and configuration
// loading.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/todo/internal/logging"
	"github.com/valter-silva-au/todo/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file.
const ConfigFileName = ".todoconfig"

// ConfigurationManager loads and validates configuration from .todoconfig
// and TODO_* environment variables.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .todoconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{
			Backend: models.BackendFile,
			Path:    ".todo",
		},
		Export: models.ExportConfig{Filename: "todo-tasks-backup.json"},
		Log: models.LogConfig{
			Level:  "info",
			Format: "text",
		},
		Alerts: models.AlertConfig{
			DueSoonDays:    3,
			StaleDays:      7,
			MaxActiveTasks: 20,
		},
	}
}

// LoadGlobalConfig reads .todoconfig from the base path. A missing file is
// not an error: defaults apply, still overridable from the environment.
// When the file exists but cannot be read, the error is returned together
// with the defaults and TODO_* overrides so callers can fall back.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	v := newConfigViper()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return configFrom(newConfigViper()), fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}
	return configFrom(v), nil
}

// newConfigViper returns a viper instance holding the defaults and bound to
// TODO_* environment variables.
func newConfigViper() *viper.Viper {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.backend", string(cfg.Storage.Backend))
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("export.filename", cfg.Export.Filename)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("alerts.due_soon_days", cfg.Alerts.DueSoonDays)
	v.SetDefault("alerts.stale_days", cfg.Alerts.StaleDays)
	v.SetDefault("alerts.max_active_tasks", cfg.Alerts.MaxActiveTasks)
	return v
}

func configFrom(v *viper.Viper) *models.GlobalConfig {
	cfg := DefaultGlobalConfig()
	cfg.Storage.Backend = models.StorageBackend(strings.ToLower(v.GetString("storage.backend")))
	cfg.Storage.Path = v.GetString("storage.path")
	cfg.Export.Filename = v.GetString("export.filename")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Alerts.DueSoonDays = v.GetInt("alerts.due_soon_days")
	cfg.Alerts.StaleDays = v.GetInt("alerts.stale_days")
	cfg.Alerts.MaxActiveTasks = v.GetInt("alerts.max_active_tasks")
	return cfg
}

// ValidateConfig checks cfg for invalid values and reports all of them at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	switch cfg.Storage.Backend {
	case models.BackendFile, models.BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, sqlite",
			cfg.Storage.Backend,
		))
	}

	if strings.TrimSpace(cfg.Storage.Path) == "" {
		errs = append(errs, "storage.path must not be empty")
	}

	if name := cfg.Export.Filename; name == "" || strings.ContainsAny(name, `/\`) {
		errs = append(errs, fmt.Sprintf("export.filename %q must be a plain file name", name))
	}

	if !logging.ValidLevel(cfg.Log.Level) {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.Log.Level))
	}
	if !logging.ValidFormat(cfg.Log.Format) {
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be one of: text, json, logfmt", cfg.Log.Format))
	}

	if cfg.Alerts.DueSoonDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.due_soon_days must be non-negative, got %d", cfg.Alerts.DueSoonDays))
	}
	if cfg.Alerts.StaleDays < 1 {
		errs = append(errs, fmt.Sprintf("alerts.stale_days must be at least 1, got %d", cfg.Alerts.StaleDays))
	}
	if cfg.Alerts.MaxActiveTasks < 1 {
		errs = append(errs, fmt.Sprintf("alerts.max_active_tasks must be at least 1, got %d", cfg.Alerts.MaxActiveTasks))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
