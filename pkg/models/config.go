package models

// StorageBackend names a key-value backend for the task blob.
type StorageBackend string

const (
	BackendFile   StorageBackend = "file"
	BackendSQLite StorageBackend = "sqlite"
)

// StorageConfig selects where tasks are persisted.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend" mapstructure:"backend"`
	Path    string         `yaml:"path" mapstructure:"path"`
}

// ExportConfig controls backup files.
type ExportConfig struct {
	Filename string `yaml:"filename" mapstructure:"filename"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AlertConfig holds thresholds for alert evaluation.
type AlertConfig struct {
	DueSoonDays    int `yaml:"due_soon_days" mapstructure:"due_soon_days"`
	StaleDays      int `yaml:"stale_days" mapstructure:"stale_days"`
	MaxActiveTasks int `yaml:"max_active_tasks" mapstructure:"max_active_tasks"`
}

// GlobalConfig holds settings read from .todoconfig via Viper.
type GlobalConfig struct {
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Alerts  AlertConfig   `yaml:"alerts" mapstructure:"alerts"`
}
