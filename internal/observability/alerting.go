package observability

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

func (s AlertSeverity) rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	}
	return 2
}

// AtLeast reports whether s is as severe as floor or more.
func (s AlertSeverity) AtLeast(floor AlertSeverity) bool {
	return s.rank() <= floor.rank()
}

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	DueSoonDays    int `yaml:"due_soon_days" json:"due_soon_days"`
	StaleDays      int `yaml:"stale_days" json:"stale_days"`
	MaxActiveTasks int `yaml:"max_active_tasks" json:"max_active_tasks"`
}

// DefaultAlertThresholds returns the default alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		DueSoonDays:    3,
		StaleDays:      7,
		MaxActiveTasks: 20,
	}
}

// TaskSource supplies the current task collection.
type TaskSource interface {
	AllTasks() []models.Task
}

// AlertEngine evaluates alert conditions against the tasks and the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	tasks      TaskSource
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine. eventLog may be nil, in which
// case activity-based alerts are skipped.
func NewAlertEngine(eventLog EventLog, tasks TaskSource, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		tasks:      tasks,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate checks all alert conditions and returns the triggered alerts,
// most severe first.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	tasks := ae.tasks.AllTasks()

	alerts := ae.checkDueDates(tasks, now)

	staleAlerts, err := ae.checkStaleTasks(tasks, now)
	if err != nil {
		return nil, fmt.Errorf("checking stale tasks: %w", err)
	}
	alerts = append(alerts, staleAlerts...)
	alerts = append(alerts, ae.checkActiveCount(tasks, now)...)

	slices.SortStableFunc(alerts, func(a, b Alert) int {
		if c := cmp.Compare(a.Severity.rank(), b.Severity.rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return alerts, nil
}

// checkDueDates flags incomplete tasks that are overdue or due within the
// configured horizon.
func (ae *alertEngine) checkDueDates(tasks []models.Task, now time.Time) []Alert {
	today := models.DateOf(now)
	var alerts []Alert
	for _, t := range tasks {
		if t.Completed || t.DueDate == nil {
			continue
		}
		days := today.DaysUntil(*t.DueDate)
		switch {
		case days < 0:
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("overdue-%s", t.ID),
				Condition:   "task_overdue",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("task %q was due on %s", t.Name, t.DueDate),
				TriggeredAt: now,
			})
		case days <= ae.thresholds.DueSoonDays:
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("due-soon-%s", t.ID),
				Condition:   "task_due_soon",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("task %q is due on %s", t.Name, t.DueDate),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

// checkStaleTasks looks for incomplete tasks with no logged activity within
// the threshold. A task with no events at all falls back to its creation time.
func (ae *alertEngine) checkStaleTasks(tasks []models.Task, now time.Time) ([]Alert, error) {
	var lastActivity map[string]time.Time
	if ae.eventLog != nil {
		events, err := ae.eventLog.Read(EventFilter{})
		if err != nil {
			return nil, err
		}
		lastActivity = LastActivity(events)
	}

	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	var alerts []Alert
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		last := t.CreatedAt
		if at, ok := lastActivity[t.ID.String()]; ok && at.After(last) {
			last = at
		}
		if now.Sub(last) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("stale-%s", t.ID),
				Condition:   "task_stale",
				Severity:    SeverityLow,
				Message:     fmt.Sprintf("task %q has had no activity for more than %d days", t.Name, ae.thresholds.StaleDays),
				TriggeredAt: now,
			})
		}
	}
	return alerts, nil
}

// checkActiveCount alerts when the number of incomplete tasks exceeds the threshold.
func (ae *alertEngine) checkActiveCount(tasks []models.Task, now time.Time) []Alert {
	active := 0
	for _, t := range tasks {
		if !t.Completed {
			active++
		}
	}
	if active <= ae.thresholds.MaxActiveTasks {
		return nil
	}
	return []Alert{{
		ID:          "too-many-active",
		Condition:   "too_many_active",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d active tasks exceeds threshold of %d", active, ae.thresholds.MaxActiveTasks),
		TriggeredAt: now,
	}}
}
