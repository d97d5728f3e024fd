package core

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
)

// TaskPersister is the subset of storage.TaskGateway the store needs.
// Defining it here keeps core independent of the storage package.
type TaskPersister interface {
	Load() []models.Task
	Save(tasks []models.Task)
}

// State is a snapshot of the store.
type State struct {
	Tasks       []models.Task
	EditingTask *models.Task
	Filter      models.Filter
	Status      models.RequestStatus
	Error       string
}

func (s State) clone() State {
	s.Tasks = models.CloneTasks(s.Tasks)
	if s.EditingTask != nil {
		t := s.EditingTask.Clone()
		s.EditingTask = &t
	}
	return s
}

// TaskStore owns the task collection and the view state around it. Every
// mutation of the collection is persisted immediately.
//
// A TaskStore is not safe for concurrent use.
type TaskStore interface {
	AddTask(input models.TaskInput) (*models.Task, error)
	UpdateTask(task models.Task) (*models.Task, error)
	DeleteTask(id models.TaskID)
	ToggleTaskCompletion(id models.TaskID) (*models.Task, error)
	SetEditingTask(task *models.Task)
	ClearEditingTask()
	SetFilter(filter models.Filter) error
	ClearCompletedTasks() int
	SortByPriority()
	SortByDueDate()
	Reload()
	State() State
	Subscribe(fn func(State)) (unsubscribe func())
}

type taskStore struct {
	state     State
	persister TaskPersister
	events    EventLogger
	now       func() time.Time
	listeners map[int]func(State)
	nextSub   int
}

// NewTaskStore creates a TaskStore initialised from persister.Load().
// events may be nil if event logging is not needed.
func NewTaskStore(persister TaskPersister, events EventLogger) TaskStore {
	s := &taskStore{
		persister: persister,
		events:    events,
		now:       time.Now,
		listeners: make(map[int]func(State)),
	}
	s.state = State{
		Tasks:  loadTasks(persister),
		Filter: models.FilterAll,
		Status: models.StatusIdle,
	}
	return s
}

func loadTasks(p TaskPersister) []models.Task {
	tasks := p.Load()
	if tasks == nil {
		return []models.Task{}
	}
	return tasks
}

func (s *taskStore) State() State {
	return s.state.clone()
}

func (s *taskStore) Subscribe(fn func(State)) func() {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *taskStore) notify() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.state.clone()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *taskStore) persist() {
	s.persister.Save(models.CloneTasks(s.state.Tasks))
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data)
}

func (s *taskStore) today() models.Date {
	return models.DateOf(s.now())
}

func (s *taskStore) indexOf(id models.TaskID) int {
	return slices.IndexFunc(s.state.Tasks, func(t models.Task) bool { return t.ID == id })
}

// nextID returns the creation time in milliseconds, or one past the
// largest existing ID when that is later.
func (s *taskStore) nextID(now time.Time) (models.TaskID, error) {
	id := models.TaskID(now.UnixMilli())
	if len(s.state.Tasks) == 0 {
		return id, nil
	}
	maxID := slices.MaxFunc(s.state.Tasks, func(a, b models.Task) int {
		return cmp.Compare(a.ID, b.ID)
	}).ID
	if maxID == math.MaxInt64 {
		return 0, ErrIDsExhausted
	}
	return max(id, maxID+1), nil
}

func (s *taskStore) beginRequest() {
	s.state.Status = models.StatusLoading
	s.state.Error = ""
	s.notify()
}

func (s *taskStore) failRequest(err error) error {
	s.state.Status = models.StatusFailed
	s.state.Error = stateMessage(err)
	s.notify()
	return err
}

// stateMessage is the text stored in State.Error for err. Missing tasks
// read MsgTaskNotFound whichever ID was asked for.
func stateMessage(err error) string {
	if errors.Is(err, ErrNotFound) {
		return MsgTaskNotFound
	}
	return err.Error()
}

func (s *taskStore) AddTask(input models.TaskInput) (*models.Task, error) {
	s.beginRequest()

	if verr := checkFields(input); verr != nil {
		return nil, s.failRequest(verr)
	}
	if verr := checkDueDate(input.DueDate, s.today()); verr != nil {
		return nil, s.failRequest(verr)
	}
	if verr := checkUniqueName(s.state.Tasks, input.Name, 0, false); verr != nil {
		return nil, s.failRequest(verr)
	}

	now := s.now()
	id, err := s.nextID(now)
	if err != nil {
		return nil, s.failRequest(err)
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	task := models.Task{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Priority:    priority,
		CreatedAt:   now.UTC().Truncate(time.Millisecond),
	}
	if input.DueDate != nil {
		d := *input.DueDate
		task.DueDate = &d
	}

	s.state.Tasks = append(s.state.Tasks, task)
	s.persist()
	s.state.Status = models.StatusSucceeded
	s.notify()

	s.logEvent("task.created", map[string]any{
		"task_id":  task.ID.String(),
		"priority": string(task.Priority),
	})
	out := task.Clone()
	return &out, nil
}

func (s *taskStore) UpdateTask(task models.Task) (*models.Task, error) {
	s.beginRequest()

	idx := s.indexOf(task.ID)
	if idx < 0 {
		return nil, s.failRequest(&NotFoundError{ID: task.ID})
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if verr := checkFields(task); verr != nil {
		return nil, s.failRequest(verr)
	}
	stored := s.state.Tasks[idx]
	if !models.EqualDates(stored.DueDate, task.DueDate) {
		if verr := checkDueDate(task.DueDate, s.today()); verr != nil {
			return nil, s.failRequest(verr)
		}
	}
	if verr := checkUniqueName(s.state.Tasks, task.Name, task.ID, true); verr != nil {
		return nil, s.failRequest(verr)
	}

	updated := task.Clone()
	updated.CreatedAt = stored.CreatedAt
	s.state.Tasks[idx] = updated
	s.state.EditingTask = nil
	s.persist()
	s.state.Status = models.StatusSucceeded
	s.notify()

	s.logEvent("task.updated", map[string]any{
		"task_id":  updated.ID.String(),
		"priority": string(updated.Priority),
	})
	out := updated.Clone()
	return &out, nil
}

func (s *taskStore) DeleteTask(id models.TaskID) {
	idx := s.indexOf(id)
	if idx >= 0 {
		s.state.Tasks = slices.Delete(s.state.Tasks, idx, idx+1)
	}
	s.persist()
	s.notify()
	if idx >= 0 {
		s.logEvent("task.deleted", map[string]any{"task_id": id.String()})
	}
}

func (s *taskStore) ToggleTaskCompletion(id models.TaskID) (*models.Task, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		s.state.Error = stateMessage(&NotFoundError{ID: id})
		s.notify()
		return nil, &NotFoundError{ID: id}
	}

	t := &s.state.Tasks[idx]
	t.Completed = !t.Completed
	s.persist()
	s.notify()

	eventType := "task.reopened"
	if t.Completed {
		eventType = "task.completed"
	}
	s.logEvent(eventType, map[string]any{"task_id": id.String()})
	out := t.Clone()
	return &out, nil
}

func (s *taskStore) SetEditingTask(task *models.Task) {
	if task == nil {
		s.state.EditingTask = nil
	} else {
		t := task.Clone()
		s.state.EditingTask = &t
	}
	s.notify()
}

func (s *taskStore) ClearEditingTask() {
	s.state.EditingTask = nil
	s.notify()
}

func (s *taskStore) SetFilter(filter models.Filter) error {
	switch filter {
	case models.FilterAll, models.FilterActive, models.FilterCompleted:
	default:
		return &ValidationError{Field: "filter", Message: MsgInvalidFilter}
	}
	s.state.Filter = filter
	s.notify()
	return nil
}

func (s *taskStore) ClearCompletedTasks() int {
	before := len(s.state.Tasks)
	s.state.Tasks = slices.DeleteFunc(s.state.Tasks, func(t models.Task) bool { return t.Completed })
	removed := before - len(s.state.Tasks)
	s.persist()
	s.notify()
	s.logEvent("tasks.cleared", map[string]any{"count": removed})
	return removed
}

func (s *taskStore) SortByPriority() {
	slices.SortStableFunc(s.state.Tasks, func(a, b models.Task) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	s.persist()
	s.notify()
	s.logEvent("tasks.sorted", map[string]any{"by": "priority"})
}

func (s *taskStore) SortByDueDate() {
	slices.SortStableFunc(s.state.Tasks, compareDueDates)
	s.persist()
	s.notify()
	s.logEvent("tasks.sorted", map[string]any{"by": "due_date"})
}

// compareDueDates orders tasks by ascending due date with undated tasks last.
func compareDueDates(a, b models.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Compare(*b.DueDate)
}

func (s *taskStore) Reload() {
	s.state.Tasks = loadTasks(s.persister)
	s.state.EditingTask = nil
	s.state.Status = models.StatusIdle
	s.state.Error = ""
	s.notify()
}
