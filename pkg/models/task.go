package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// TaskID identifies a task. New IDs are derived from the creation time in
// Unix milliseconds.
type TaskID int64

// String returns the decimal form of the ID.
func (id TaskID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseTaskID parses a decimal task ID as typed on the command line.
func ParseTaskID(s string) (TaskID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return TaskID(n), nil
}

// UnmarshalJSON accepts both a JSON number and a numeric string, since
// older exports carried string IDs.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTaskID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid task id %s", data)
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("invalid task id %s", data)
	}
	*id = TaskID(v)
	return nil
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities for sorting: high=1, medium=2, low=3. Unknown
// values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority maps user input to a Priority. Empty input yields medium.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q: must be high, medium or low", s)
	}
	return p, nil
}

// Task is a single to-do item.
type Task struct {
	ID          TaskID    `json:"id"`
	Name        string    `json:"name" validate:"notblank"`
	Description string    `json:"description" validate:"notblank"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate     *Date     `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a copy of the task that shares no pointers with t.
func (t Task) Clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

// TaskInput carries the fields a user supplies when creating a task.
type TaskInput struct {
	Name        string   `json:"name" validate:"notblank"`
	Description string   `json:"description" validate:"notblank"`
	Priority    Priority `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	DueDate     *Date    `json:"dueDate,omitempty"`
}

// NormalizeName lower-cases a task name, trims it and collapses internal
// whitespace runs to a single space. Two tasks whose normalized names are
// equal are duplicates.
func NormalizeName(name string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), " ")
}

// CloneTasks deep-copies a task slice. A nil input yields an empty slice.
func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
