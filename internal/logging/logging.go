// Package logging builds the leveled diagnostic logger shared by the
// storage gateway and the command line.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds configuration for the diagnostic logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
	Output          io.Writer
}

// DefaultOptions returns options for a text logger on stderr at info level.
func DefaultOptions() Options {
	return Options{
		Level:     log.InfoLevel,
		Formatter: log.TextFormatter,
		Prefix:    "todo",
		Output:    os.Stderr,
	}
}

// New creates a logger with the given options.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// FromConfig creates a logger from string configuration values.
func FromConfig(level, format string, w io.Writer) *log.Logger {
	opts := DefaultOptions()
	opts.Level = ParseLevel(level)
	opts.Formatter = ParseFormatter(format)
	opts.ReportTimestamp = opts.Formatter != log.TextFormatter
	if w != nil {
		opts.Output = w
	}
	return New(opts)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a level name to a charmbracelet/log Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps a formatter name to a charmbracelet/log Formatter.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// ValidLevel reports whether level is a recognised level name.
func ValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// ValidFormat reports whether format is a recognised formatter name.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "text", "json", "logfmt":
		return true
	}
	return false
}
