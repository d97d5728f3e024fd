// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task store as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

// Server wraps the task store and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine

	// mu serialises store access; tool calls may arrive concurrently.
	mu  sync.Mutex
	now func() time.Time
}

// NewServer creates a new MCP server over store.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(store core.TaskStore, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		now:         time.Now,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "todo", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
	DueStatus   string `json:"due_status"`
	CreatedAt   string `json:"created_at"`
}

type listTasksInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"which tasks to include: all, active or completed. Defaults to the current store filter."`
	View   string `json:"view,omitempty" jsonschema:"display (incomplete first then by priority, the default) or stored (persisted order)"`
}

type listTasksOutput struct {
	Tasks  []taskOutput `json:"tasks"`
	Count  int          `json:"count"`
	Filter string       `json:"filter"`
}

type addTaskInput struct {
	Name        string `json:"name" jsonschema:"required,task name; must be unique ignoring case and extra whitespace"`
	Description string `json:"description" jsonschema:"required,task description"`
	Priority    string `json:"priority,omitempty" jsonschema:"high, medium or low. Defaults to medium."`
	DueDate     string `json:"due_date,omitempty" jsonschema:"due date as YYYY-MM-DD; must not be in the past"`
}

type updateTaskInput struct {
	ID          int64   `json:"id" jsonschema:"required,the task id"`
	Name        *string `json:"name,omitempty" jsonschema:"new name"`
	Description *string `json:"description,omitempty" jsonschema:"new description"`
	Priority    *string `json:"priority,omitempty" jsonschema:"new priority: high, medium or low"`
	DueDate     *string `json:"due_date,omitempty" jsonschema:"new due date as YYYY-MM-DD, or empty string to clear it"`
}

type taskIDInput struct {
	ID int64 `json:"id" jsonschema:"required,the task id"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type sortTasksInput struct {
	By string `json:"by" jsonschema:"required,priority or due_date"`
}

type setFilterInput struct {
	Filter string `json:"filter" jsonschema:"required,all, active or completed"`
}

type emptyInput struct{}

type statsOutput struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

type clearCompletedOutput struct {
	Removed int `json:"removed"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksCreated      int            `json:"tasks_created"`
	TasksUpdated      int            `json:"tasks_updated"`
	TasksCompleted    int            `json:"tasks_completed"`
	TasksReopened     int            `json:"tasks_reopened"`
	TasksDeleted      int            `json:"tasks_deleted"`
	TasksCleared      int            `json:"tasks_cleared"`
	TasksImported     int            `json:"tasks_imported"`
	CreatedByPriority map[string]int `json:"created_by_priority"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks. The display view shows incomplete tasks first, then by priority; the stored view keeps persisted order.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task with a name, description, optional priority and optional due date.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task",
		Description: "Edit an existing task. Omitted fields keep their current value.",
	}, s.handleUpdateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task by id. Deleting an unknown id is not an error.",
	}, s.handleDeleteTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between completed and active.",
	}, s.handleToggleTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_completed",
		Description: "Remove every completed task.",
	}, s.handleClearCompleted)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "sort_tasks",
		Description: "Permanently reorder stored tasks by priority or by due date (undated last).",
	}, s.handleSortTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_filter",
		Description: "Set the store's current filter (all, active, completed).",
	}, s.handleSetFilter)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Count total, active and completed tasks.",
	}, s.handleGetStats)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get activity metrics from the event log for a time window.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate alerts: overdue, due soon, stale tasks and an oversized active list.",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.store.State()
	if input.Filter != "" {
		f, err := models.ParseFilter(input.Filter)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		state.Filter = f
	}

	var tasks []models.Task
	switch input.View {
	case "", "display":
		tasks = core.SortedTasks(state)
	case "stored":
		tasks = core.FilteredTasks(state)
	default:
		return errorResult(fmt.Sprintf("invalid view %q: must be display or stored", input.View)), listTasksOutput{}, nil
	}

	today := models.DateOf(s.now())
	out := listTasksOutput{
		Tasks:  make([]taskOutput, len(tasks)),
		Count:  len(tasks),
		Filter: string(state.Filter),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t, today)
	}
	return nil, out, nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	priority, err := models.ParsePriority(input.Priority)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	due, err := parseOptionalDate(input.DueDate)
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.store.AddTask(models.TaskInput{
		Name:        input.Name,
		Description: input.Description,
		Priority:    priority,
		DueDate:     due,
	})
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task, models.DateOf(s.now())), nil
}

func (s *Server) handleUpdateTask(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := models.TaskID(input.ID)
	task, ok := core.FindTask(s.store.State(), id)
	if !ok {
		return errorResult(core.MsgTaskNotFound), taskOutput{}, nil
	}

	if input.Name != nil {
		task.Name = *input.Name
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		p, err := models.ParsePriority(*input.Priority)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		task.Priority = p
	}
	if input.DueDate != nil {
		due, err := parseOptionalDate(*input.DueDate)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		task.DueDate = due
	}

	s.store.SetEditingTask(&task)
	updated, err := s.store.UpdateTask(task)
	if err != nil {
		s.store.ClearEditingTask()
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*updated, models.DateOf(s.now())), nil
}

func (s *Server) handleDeleteTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, messageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.DeleteTask(models.TaskID(input.ID))
	return nil, messageOutput{Message: fmt.Sprintf("task %d deleted", input.ID)}, nil
}

func (s *Server) handleToggleTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.store.ToggleTaskCompletion(models.TaskID(input.ID))
	if err != nil {
		return errorResult(err.Error()), taskOutput{}, nil
	}
	return nil, taskToOutput(*task, models.DateOf(s.now())), nil
}

func (s *Server) handleClearCompleted(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, clearCompletedOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return nil, clearCompletedOutput{Removed: s.store.ClearCompletedTasks()}, nil
}

func (s *Server) handleSortTasks(_ context.Context, _ *gomcp.CallToolRequest, input sortTasksInput) (*gomcp.CallToolResult, messageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch input.By {
	case "priority":
		s.store.SortByPriority()
	case "due_date", "due":
		s.store.SortByDueDate()
	default:
		return errorResult(fmt.Sprintf("invalid sort key %q: must be priority or due_date", input.By)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: "tasks sorted by " + input.By}, nil
}

func (s *Server) handleSetFilter(_ context.Context, _ *gomcp.CallToolRequest, input setFilterInput) (*gomcp.CallToolResult, messageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetFilter(models.Filter(input.Filter)); err != nil {
		return errorResult(fmt.Sprintf("%s %q: must be all, active or completed", err, input.Filter)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: "filter set to " + input.Filter}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statsOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := core.TaskStats(s.store.State())
	return nil, statsOutput{Total: st.Total, Active: st.Active, Completed: st.Completed}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := observability.ParseSince(sinceStr, s.now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:      metrics.TasksCreated,
		TasksUpdated:      metrics.TasksUpdated,
		TasksCompleted:    metrics.TasksCompleted,
		TasksReopened:     metrics.TasksReopened,
		TasksDeleted:      metrics.TasksDeleted,
		TasksCleared:      metrics.TasksCleared,
		TasksImported:     metrics.TasksImported,
		CreatedByPriority: metrics.CreatedByPriority,
		EventCount:        metrics.EventCount,
	}
	if out.CreatedByPriority == nil {
		out.CreatedByPriority = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	s.mu.Lock()
	alerts, err := s.alertEngine.Evaluate()
	s.mu.Unlock()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task, today models.Date) taskOutput {
	out := taskOutput{
		ID:          int64(t.ID),
		Name:        t.Name,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		DueStatus:   string(core.DueStatusOf(t, today)),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.String()
	}
	return out
}

func parseOptionalDate(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{CreatedByPriority: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
