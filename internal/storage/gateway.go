package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/valter-silva-au/todo/pkg/models"
)

// TasksKey is the key-value entry holding the serialized task collection.
const TasksKey = "todo_tasks"

// DefaultExportFilename is used when no export filename is configured.
const DefaultExportFilename = "todo-tasks-backup.json"

const (
	msgInvalidFormat = "Invalid file format. Expected an array of tasks."
	msgInvalidJSON   = "Invalid JSON file"
)

// ErrInvalidFormat is matched by every ImportFormatError.
var ErrInvalidFormat = errors.New("invalid import format")

// ImportFormatError reports an import file that could not be accepted.
// Message is shown to the user as is.
type ImportFormatError struct {
	Message string
}

func (e *ImportFormatError) Error() string { return e.Message }

func invalidJSON(detail string) error {
	return &ImportFormatError{Message: msgInvalidJSON + ": " + detail}
}

func invalidFormat(detail string) error {
	if detail == "" {
		return &ImportFormatError{Message: msgInvalidFormat}
	}
	return &ImportFormatError{Message: msgInvalidFormat + " (" + detail + ")"}
}

func (e *ImportFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// TaskGateway loads, saves, exports and imports the task collection.
// Load and Save never fail: problems are logged and an empty collection
// (or a skipped write) results.
type TaskGateway interface {
	Load() []models.Task
	Save(tasks []models.Task)
	Export(tasks []models.Task, w io.Writer) error
	ExportToFile(tasks []models.Task, dir string) (string, error)
	Import(r io.Reader) ([]models.Task, error)
	ImportFromFile(path string) ([]models.Task, error)
}

type taskGateway struct {
	kv         KeyValueStore
	fs         afero.Fs
	logger     *log.Logger
	exportName string
}

// NewTaskGateway creates a TaskGateway over the given key-value store.
// Export and import files are accessed through fs.
func NewTaskGateway(kv KeyValueStore, fs afero.Fs, logger *log.Logger, exportName string) TaskGateway {
	if exportName == "" {
		exportName = DefaultExportFilename
	}
	return &taskGateway{kv: kv, fs: fs, logger: logger, exportName: exportName}
}

func (g *taskGateway) Load() []models.Task {
	raw, found, err := g.kv.Get(TasksKey)
	if err != nil {
		g.logger.Error("loading tasks", "err", err)
		return []models.Task{}
	}
	if !found {
		return []models.Task{}
	}

	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		g.logger.Error("loading tasks: stored data is corrupt", "err", err)
		return []models.Task{}
	}
	if tasks == nil {
		return []models.Task{}
	}
	defaultPriorities(tasks)

	kept := tasks[:0]
	check := newTaskListChecker(len(tasks))
	for _, t := range tasks {
		if reason := check.admit(t); reason != "" {
			g.logger.Warn("loading tasks: dropping stored task", "reason", reason, "name", t.Name)
			continue
		}
		kept = append(kept, t)
	}
	return kept
}

func (g *taskGateway) Save(tasks []models.Task) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		g.logger.Error("saving tasks: encoding", "err", err)
		return
	}
	if err := g.kv.Set(TasksKey, string(data)); err != nil {
		g.logger.Error("saving tasks", "err", err)
	}
}

func (g *taskGateway) Export(tasks []models.Task, w io.Writer) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("exporting tasks: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("exporting tasks: %w", err)
	}
	return nil
}

func (g *taskGateway) ExportToFile(tasks []models.Task, dir string) (string, error) {
	var buf bytes.Buffer
	if err := g.Export(tasks, &buf); err != nil {
		return "", err
	}
	if dir != "" {
		if err := g.fs.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("exporting tasks: creating directory: %w", err)
		}
	}
	path := filepath.Join(dir, g.exportName)
	if err := afero.WriteFile(g.fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("exporting tasks: writing file: %w", err)
	}
	g.logger.Info("exported tasks", "count", len(tasks), "path", path)
	return path, nil
}

func (g *taskGateway) Import(r io.Reader) ([]models.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importing tasks: reading: %w", err)
	}
	tasks, err := parseTaskList(data)
	if err != nil {
		return nil, err
	}
	g.Save(tasks)
	g.logger.Info("imported tasks", "count", len(tasks))
	return tasks, nil
}

func (g *taskGateway) ImportFromFile(path string) ([]models.Task, error) {
	f, err := g.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importing tasks: opening file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return g.Import(f)
}

// parseTaskList turns import file contents into tasks, rejecting anything
// that is not a well-formed array of tasks with unique IDs and names.
func parseTaskList(data []byte) ([]models.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, invalidJSON(err.Error())
	}
	if dec.More() {
		return nil, invalidJSON("unexpected data after top-level value")
	}
	if _, ok := doc.([]any); !ok {
		return nil, invalidFormat("")
	}
	if err := validateTaskList(doc); err != nil {
		return nil, invalidFormat(err.Error())
	}

	tasks := []models.Task{}
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, invalidFormat(err.Error())
	}
	defaultPriorities(tasks)

	check := newTaskListChecker(len(tasks))
	for _, t := range tasks {
		if reason := check.admit(t); reason != "" {
			return nil, invalidFormat(reason)
		}
	}
	return tasks, nil
}

// taskListChecker enforces positive IDs below math.MaxInt64 and unique IDs
// and normalized names across a collection.
type taskListChecker struct {
	ids   map[models.TaskID]bool
	names map[string]bool
}

func newTaskListChecker(n int) *taskListChecker {
	return &taskListChecker{
		ids:   make(map[models.TaskID]bool, n),
		names: make(map[string]bool, n),
	}
}

// admit records t and returns an empty string, or the reason t cannot be
// part of the collection seen so far.
func (c *taskListChecker) admit(t models.Task) string {
	if t.ID <= 0 || t.ID == math.MaxInt64 {
		return fmt.Sprintf("task id %s out of range", t.ID)
	}
	if c.ids[t.ID] {
		return fmt.Sprintf("duplicate task id %s", t.ID)
	}
	n := models.NormalizeName(t.Name)
	if c.names[n] {
		return fmt.Sprintf("duplicate task name %q", t.Name)
	}
	c.ids[t.ID] = true
	c.names[n] = true
	return ""
}

func defaultPriorities(tasks []models.Task) {
	for i := range tasks {
		if tasks[i].Priority == "" {
			tasks[i].Priority = models.PriorityMedium
		}
	}
}
