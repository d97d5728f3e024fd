package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

func TestTaskCommands_NilStore(t *testing.T) {
	orig := Store
	defer func() { Store = orig }()
	Store = nil

	cmds := map[string]func() error{
		"add":             func() error { return addCmd.RunE(addCmd, []string{"x"}) },
		"edit":            func() error { return editCmd.RunE(editCmd, []string{"1"}) },
		"delete":          func() error { return deleteCmd.RunE(deleteCmd, []string{"1"}) },
		"toggle":          func() error { return toggleCmd.RunE(toggleCmd, []string{"1"}) },
		"clear-completed": func() error { return clearCompletedCmd.RunE(clearCompletedCmd, nil) },
		"sort":            func() error { return sortCmd.RunE(sortCmd, []string{"priority"}) },
		"list":            func() error { return listCmd.RunE(listCmd, nil) },
		"stats":           func() error { return statsCmd.RunE(statsCmd, nil) },
	}
	for name, run := range cmds {
		t.Run(name, func(t *testing.T) {
			err := run()
			if err == nil || !strings.Contains(err.Error(), "not initialized") {
				t.Errorf("expected not initialized error, got %v", err)
			}
		})
	}
}

func TestAddCmd_Success(t *testing.T) {
	resetFlags(t, addCmd)
	store, p := withStore(t)

	_ = addCmd.Flags().Set("priority", "high")
	_ = addCmd.Flags().Set("description", "quarterly numbers")
	_ = addCmd.Flags().Set("due", "2099-01-31")

	out := captureStdout(t, func() {
		if err := addCmd.RunE(addCmd, []string{"Write", "report"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tasks := store.State().Tasks
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Name != "Write report" || got.Priority != models.PriorityHigh || got.Description != "quarterly numbers" {
		t.Errorf("unexpected task: %+v", got)
	}
	if got.DueDate == nil || got.DueDate.String() != "2099-01-31" {
		t.Errorf("DueDate = %v, want 2099-01-31", got.DueDate)
	}
	if p.saves != 1 {
		t.Errorf("saves = %d, want 1", p.saves)
	}
	if !strings.Contains(out, "Added task") {
		t.Errorf("output missing confirmation: %q", out)
	}
}

func TestAddCmd_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		flags  map[string]string
		errMsg string
	}{
		{"blank name", []string{"   "}, nil, core.MsgNameRequired},
		{"missing description", []string{"new"}, map[string]string{"description": ""}, core.MsgDescriptionRequired},
		{"duplicate", []string{"buy  MILK"}, nil, core.MsgDuplicateName},
		{"bad priority", []string{"new"}, map[string]string{"priority": "urgent"}, "invalid priority"},
		{"bad date", []string{"new"}, map[string]string{"due": "31/01/2099"}, "invalid date"},
		{"past date", []string{"new"}, map[string]string{"due": "2000-01-01"}, core.MsgDueDateInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t, addCmd)
			store, _ := withStore(t, seedTask(1, "Buy milk", models.PriorityLow, false))
			_ = addCmd.Flags().Set("description", "details")
			for k, v := range tt.flags {
				_ = addCmd.Flags().Set(k, v)
			}

			err := addCmd.RunE(addCmd, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should contain %q", err.Error(), tt.errMsg)
			}
			if n := len(store.State().Tasks); n != 1 {
				t.Errorf("task count = %d, want 1", n)
			}
		})
	}
}

func TestEditCmd_ChangesOnlyGivenFields(t *testing.T) {
	resetFlags(t, editCmd)
	seed := seedTask(1, "Buy milk", models.PriorityLow, true)
	seed.Description = "2 litres"
	store, _ := withStore(t, seed)

	_ = editCmd.Flags().Set("priority", "high")
	captureStdout(t, func() {
		if err := editCmd.RunE(editCmd, []string{"1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	got, _ := core.FindTask(store.State(), 1)
	if got.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
	if got.Name != "Buy milk" || got.Description != "2 litres" || !got.Completed {
		t.Errorf("unchanged fields were modified: %+v", got)
	}
	if !got.CreatedAt.Equal(seed.CreatedAt) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
	if store.State().EditingTask != nil {
		t.Error("editing task should be cleared after a successful edit")
	}
}

func TestEditCmd_ClearDue(t *testing.T) {
	resetFlags(t, editCmd)
	seed := seedTask(1, "Buy milk", models.PriorityLow, false)
	due := models.Date{Year: 2000, Month: 1, Day: 1}
	seed.DueDate = &due
	store, _ := withStore(t, seed)

	_ = editCmd.Flags().Set("clear-due", "true")
	captureStdout(t, func() {
		if err := editCmd.RunE(editCmd, []string{"1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	got, _ := core.FindTask(store.State(), 1)
	if got.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", got.DueDate)
	}
}

func TestEditCmd_KeepsPastDueDateWhenUnchanged(t *testing.T) {
	resetFlags(t, editCmd)
	seed := seedTask(1, "Buy milk", models.PriorityLow, false)
	due := models.Date{Year: 2000, Month: 1, Day: 1}
	seed.DueDate = &due
	withStore(t, seed)

	_ = editCmd.Flags().Set("name", "Buy oat milk")
	captureStdout(t, func() {
		if err := editCmd.RunE(editCmd, []string{"1"}); err != nil {
			t.Fatalf("renaming a task with a past due date should succeed: %v", err)
		}
	})
}

func TestEditCmd_Errors(t *testing.T) {
	resetFlags(t, editCmd)
	store, _ := withStore(t,
		seedTask(1, "Buy milk", models.PriorityLow, false),
		seedTask(2, "Walk dog", models.PriorityLow, false),
	)

	err := editCmd.RunE(editCmd, []string{"99"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err = editCmd.RunE(editCmd, []string{"abc"})
	if err == nil {
		t.Error("expected error for non-numeric id")
	}

	_ = editCmd.Flags().Set("name", "walk DOG")
	err = editCmd.RunE(editCmd, []string{"1"})
	if !errors.Is(err, core.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	state := store.State()
	if state.Status != models.StatusFailed || state.Error != core.MsgDuplicateName {
		t.Errorf("status = %q error = %q", state.Status, state.Error)
	}
	if state.EditingTask != nil {
		t.Error("editing task should be cleared after a failed edit")
	}
}

func TestDeleteCmd(t *testing.T) {
	store, p := withStore(t, seedTask(1, "Buy milk", models.PriorityLow, false))

	out := captureStdout(t, func() {
		if err := deleteCmd.RunE(deleteCmd, []string{"1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if len(store.State().Tasks) != 0 {
		t.Error("task was not deleted")
	}
	if !strings.Contains(out, "Deleted task 1") {
		t.Errorf("unexpected output: %q", out)
	}

	out = captureStdout(t, func() {
		if err := deleteCmd.RunE(deleteCmd, []string{"1"}); err != nil {
			t.Fatalf("deleting a missing task should not fail: %v", err)
		}
	})
	if !strings.Contains(out, "No task with id 1") {
		t.Errorf("unexpected output: %q", out)
	}
	if p.saves != 2 {
		t.Errorf("saves = %d, want 2", p.saves)
	}
}

func TestToggleCmd(t *testing.T) {
	store, _ := withStore(t, seedTask(1, "Buy milk", models.PriorityLow, false))

	out := captureStdout(t, func() {
		if err := toggleCmd.RunE(toggleCmd, []string{"1"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "now completed") {
		t.Errorf("unexpected output: %q", out)
	}
	if got, _ := core.FindTask(store.State(), 1); !got.Completed {
		t.Error("task should be completed")
	}

	err := toggleCmd.RunE(toggleCmd, []string{"42"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if store.State().Error != core.MsgTaskNotFound {
		t.Errorf("Error = %q, want %q", store.State().Error, core.MsgTaskNotFound)
	}
}

func TestClearCompletedCmd(t *testing.T) {
	store, _ := withStore(t,
		seedTask(1, "a", models.PriorityLow, true),
		seedTask(2, "b", models.PriorityLow, false),
		seedTask(3, "c", models.PriorityLow, true),
	)

	out := captureStdout(t, func() {
		if err := clearCompletedCmd.RunE(clearCompletedCmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Removed 2") {
		t.Errorf("unexpected output: %q", out)
	}
	if tasks := store.State().Tasks; len(tasks) != 1 || tasks[0].ID != 2 {
		t.Errorf("unexpected remaining tasks: %+v", tasks)
	}
}

func TestSortCmd(t *testing.T) {
	store, _ := withStore(t,
		seedTask(1, "a", models.PriorityLow, false),
		seedTask(2, "b", models.PriorityHigh, false),
		seedTask(3, "c", models.PriorityMedium, false),
	)

	captureStdout(t, func() {
		if err := sortCmd.RunE(sortCmd, []string{"priority"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	var ids []models.TaskID
	for _, task := range store.State().Tasks {
		ids = append(ids, task.ID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Errorf("stored order = %v, want [2 3 1]", ids)
	}

	if err := sortCmd.RunE(sortCmd, []string{"name"}); err == nil {
		t.Error("expected error for unknown sort key")
	}
}

func TestTaskCommands_Registration(t *testing.T) {
	want := map[string]bool{
		"add": false, "edit": false, "delete": false, "toggle": false,
		"list": false, "stats": false, "clear-completed": false, "sort": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("%s command not registered on root", name)
		}
	}
}
