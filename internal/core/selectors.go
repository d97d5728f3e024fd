package core

import (
	"slices"

	"github.com/valter-silva-au/todo/pkg/models"
)

// DueSoonDays is the horizon within which an upcoming due date is "soon".
const DueSoonDays = 3

// FilteredTasks returns the tasks matching s.Filter in stored order.
func FilteredTasks(s State) []models.Task {
	out := make([]models.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		switch s.Filter {
		case models.FilterActive:
			if t.Completed {
				continue
			}
		case models.FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t.Clone())
	}
	return out
}

// SortedTasks returns the filtered tasks in display order: incomplete before
// completed, then by priority. Ties keep stored order.
func SortedTasks(s State) []models.Task {
	out := FilteredTasks(s)
	slices.SortStableFunc(out, func(a, b models.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return out
}

// TaskStats counts the whole collection regardless of filter.
func TaskStats(s State) models.Stats {
	st := models.Stats{Total: len(s.Tasks)}
	for _, t := range s.Tasks {
		if t.Completed {
			st.Completed++
		} else {
			st.Active++
		}
	}
	return st
}

// DueStatusOf classifies a task's due date relative to today.
func DueStatusOf(t models.Task, today models.Date) models.DueStatus {
	if t.DueDate == nil {
		return models.DueNone
	}
	days := today.DaysUntil(*t.DueDate)
	switch {
	case days < 0:
		return models.DueOverdue
	case days == 0:
		return models.DueToday
	case days <= DueSoonDays:
		return models.DueSoon
	default:
		return models.DueLater
	}
}

// FindTask returns a copy of the task with the given ID.
func FindTask(s State, id models.TaskID) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return models.Task{}, false
}
