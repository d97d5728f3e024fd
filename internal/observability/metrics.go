package observability

import (
	"fmt"
	"time"
)

// Metrics holds activity counts derived from the event log.
type Metrics struct {
	TasksCreated      int            `json:"tasks_created"`
	TasksUpdated      int            `json:"tasks_updated"`
	TasksCompleted    int            `json:"tasks_completed"`
	TasksReopened     int            `json:"tasks_reopened"`
	TasksDeleted      int            `json:"tasks_deleted"`
	TasksCleared      int            `json:"tasks_cleared"`
	TasksImported     int            `json:"tasks_imported"`
	CreatedByPriority map[string]int `json:"created_by_priority"`
	Sorts             map[string]int `json:"sorts"`
	EventCount        int            `json:"event_count"`
	OldestEvent       *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		CreatedByPriority: make(map[string]int),
		Sorts:             make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
			if p, ok := event.Data["priority"].(string); ok {
				m.CreatedByPriority[p]++
			}
		case "task.updated":
			m.TasksUpdated++
		case "task.completed":
			m.TasksCompleted++
		case "task.reopened":
			m.TasksReopened++
		case "task.deleted":
			m.TasksDeleted++
		case "tasks.cleared":
			m.TasksCleared += intData(event.Data, "count")
		case "tasks.imported":
			m.TasksImported += intData(event.Data, "count")
		case "tasks.sorted":
			if by, ok := event.Data["by"].(string); ok {
				m.Sorts[by]++
			}
		}
	}

	return m, nil
}

// intData reads a numeric field that went through a JSON round trip.
func intData(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
