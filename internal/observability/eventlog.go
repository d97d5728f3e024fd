package observability

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// EventLogFileName is the event log created in the base directory.
const EventLogFileName = ".todo_events.jsonl"

// maxEventLine bounds a single JSONL record when reading the log back.
const maxEventLine = 1 << 20

// Event is one task lifecycle record, e.g. "task.created" or "tasks.cleared".
// TaskID is empty for events that touch the whole collection.
type Event struct {
	Time   time.Time      `json:"time"`
	Type   string         `json:"type"`
	TaskID string         `json:"task_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// EventFilter selects events on Read. Zero fields match everything; Types
// matches any of the listed event types.
type EventFilter struct {
	Since  *time.Time
	Until  *time.Time
	Types  []string
	TaskID string
}

func (f EventFilter) match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, e.Type):
		return false
	case f.TaskID != "" && e.TaskID != f.TaskID:
		return false
	}
	return true
}

// EventLog appends events and reads them back in write order.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
	out  afero.File
}

// NewJSONLEventLog opens (creating if needed) an append-only JSONL log at
// path on fs.
func NewJSONLEventLog(fs afero.Fs, path string) (EventLog, error) {
	out, err := fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	return &jsonlEventLog{fs: fs, path: path, out: out}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending %s event: %w", event.Type, err)
	}
	return nil
}

// Read returns the matching events. Lines that do not decode are skipped so
// one torn write does not hide the rest of the history.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	in, err := l.fs.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", l.path, err)
	}
	defer func() { _ = in.Close() }()

	var events []Event
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), maxEventLine)
	for sc.Scan() {
		var e Event
		if json.Unmarshal(sc.Bytes(), &e) != nil {
			continue
		}
		if filter.match(e) {
			events = append(events, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading event log %s: %w", l.path, err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.out.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// LastActivity maps each task ID to the time of its most recent event.
func LastActivity(events []Event) map[string]time.Time {
	last := make(map[string]time.Time)
	for _, e := range events {
		if e.TaskID == "" {
			continue
		}
		if e.Time.After(last[e.TaskID]) {
			last[e.TaskID] = e.Time
		}
	}
	return last
}
