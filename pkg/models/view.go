package models

import "fmt"

// Filter selects which tasks a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// AllFilters lists the filters in cycling order.
var AllFilters = []Filter{FilterAll, FilterActive, FilterCompleted}

// ParseFilter validates a filter name. Empty input yields FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("invalid filter %q: must be all, active or completed", s)
}

// Next returns the filter that follows f in AllFilters.
func (f Filter) Next() Filter {
	for i, v := range AllFilters {
		if v == f {
			return AllFilters[(i+1)%len(AllFilters)]
		}
	}
	return FilterAll
}

// RequestStatus tracks the outcome of the last add or update.
type RequestStatus string

const (
	StatusIdle      RequestStatus = "idle"
	StatusLoading   RequestStatus = "loading"
	StatusSucceeded RequestStatus = "succeeded"
	StatusFailed    RequestStatus = "failed"
)

// Stats summarises the whole task collection regardless of filter.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// DueStatus classifies a task's due date relative to today.
type DueStatus string

const (
	DueNone    DueStatus = "none"
	DueOverdue DueStatus = "overdue"
	DueToday   DueStatus = "today"
	DueSoon    DueStatus = "soon"
	DueLater   DueStatus = "later"
)
