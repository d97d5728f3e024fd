package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/todo/internal/cli"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

func TestResolveBasePath_HomeSet(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(HomeEnv, tmpDir)

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestResolveBasePath_FindsConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, core.ConfigFileName), []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Chdir(subDir)
	t.Setenv(HomeEnv, "")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should find %s in parent)", got, tmpDir, core.ConfigFileName)
	}
}

func TestResolveBasePath_FallbackToCwd(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv(HomeEnv, "")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should fall back to cwd)", got, tmpDir)
	}
}

func newTestApp(t *testing.T, config string) *App {
	t.Helper()
	tmpDir := t.TempDir()
	if config != "" {
		if err := os.WriteFile(filepath.Join(tmpDir, core.ConfigFileName), []byte(config), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewApp_Success(t *testing.T) {
	app := newTestApp(t, "")

	if app.Store == nil || app.Gateway == nil || app.KV == nil {
		t.Fatal("storage and store must be wired")
	}
	if app.EventLog == nil || app.MetricsCalc == nil || app.AlertEngine == nil {
		t.Error("observability services must be wired")
	}
	if cli.Store != app.Store || cli.Gateway != app.Gateway || cli.BasePath != app.BasePath {
		t.Error("cli package variables not wired")
	}
	if app.Config.Storage.Backend != models.BackendFile {
		t.Errorf("default backend = %q, want file", app.Config.Storage.Backend)
	}
}

func TestNewApp_TasksSurviveRestart(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			tmpDir := t.TempDir()
			cfg := "storage:\n  backend: " + backend + "\n  path: data\n"
			if err := os.WriteFile(filepath.Join(tmpDir, core.ConfigFileName), []byte(cfg), 0o644); err != nil {
				t.Fatal(err)
			}

			app, err := NewApp(tmpDir)
			if err != nil {
				t.Fatalf("NewApp() error = %v", err)
			}
			if _, err := app.Store.AddTask(models.TaskInput{Name: "Buy milk", Description: "2 litres"}); err != nil {
				t.Fatalf("AddTask: %v", err)
			}
			if err := app.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reopened, err := NewApp(tmpDir)
			if err != nil {
				t.Fatalf("reopening: %v", err)
			}
			defer reopened.Close()

			tasks := reopened.Store.State().Tasks
			if len(tasks) != 1 || tasks[0].Name != "Buy milk" {
				t.Errorf("tasks after restart = %+v", tasks)
			}
		})
	}
}

func TestNewApp_RecordsEvents(t *testing.T) {
	app := newTestApp(t, "")

	task, err := app.Store.AddTask(models.TaskInput{Name: "Buy milk", Description: "2 litres", Priority: models.PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := app.Store.ToggleTaskCompletion(task.ID); err != nil {
		t.Fatal(err)
	}

	m, err := app.MetricsCalc.Calculate(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if m.TasksCreated != 1 || m.TasksCompleted != 1 || m.CreatedByPriority["high"] != 1 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestNewApp_AlertThresholdsFromConfig(t *testing.T) {
	app := newTestApp(t, "alerts:\n  max_active_tasks: 1\n")

	for _, name := range []string{"a", "b"} {
		if _, err := app.Store.AddTask(models.TaskInput{Name: name, Description: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	alerts, err := app.AlertEngine.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, a := range alerts {
		if a.ID == "too-many-active" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected too-many-active alert, got %+v", alerts)
	}
}

func TestNewApp_MalformedConfigFallsBackToDefaults(t *testing.T) {
	app := newTestApp(t, "storage: [unclosed\n")

	if app.Config.Export.Filename != "todo-tasks-backup.json" {
		t.Errorf("expected default export filename, got %q", app.Config.Export.Filename)
	}
}

func TestNewApp_MalformedConfigKeepsEnvOverrides(t *testing.T) {
	t.Setenv("TODO_EXPORT_FILENAME", "mine.json")
	app := newTestApp(t, "storage: [unclosed\n")

	if app.Config.Export.Filename != "mine.json" {
		t.Errorf("expected export filename from env, got %q", app.Config.Export.Filename)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, core.ConfigFileName), []byte("storage:\n  backend: redis\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewApp(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAlertThresholds(t *testing.T) {
	got := alertThresholds(models.AlertConfig{StaleDays: 14})
	want := observability.DefaultAlertThresholds()
	want.StaleDays = 14
	if got != want {
		t.Errorf("alertThresholds = %+v, want %+v", got, want)
	}
}

func TestTaskSourceAdapter(t *testing.T) {
	app := newTestApp(t, "")
	if _, err := app.Store.AddTask(models.TaskInput{Name: "a", Description: "x"}); err != nil {
		t.Fatal(err)
	}

	src := &taskSourceAdapter{store: app.Store}
	if n := len(src.AllTasks()); n != 1 {
		t.Errorf("AllTasks() returned %d tasks, want 1", n)
	}
}
