package cli

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

// memPersister is an in-memory core.TaskPersister.
type memPersister struct {
	tasks []models.Task
	saves int
}

func (p *memPersister) Load() []models.Task { return models.CloneTasks(p.tasks) }

func (p *memPersister) Save(tasks []models.Task) {
	p.tasks = models.CloneTasks(tasks)
	p.saves++
}

// withStore swaps the package Store for one seeded with tasks and restores
// the original when the test ends.
func withStore(t *testing.T, tasks ...models.Task) (core.TaskStore, *memPersister) {
	t.Helper()
	orig := Store
	t.Cleanup(func() { Store = orig })

	p := &memPersister{tasks: tasks}
	Store = core.NewTaskStore(p, nil)
	return Store, p
}

func seedTask(id int64, name string, priority models.Priority, completed bool) models.Task {
	return models.Task{
		ID:          models.TaskID(id),
		Name:        name,
		Description: "details",
		Priority:    priority,
		Completed:   completed,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// resetFlags restores every flag on cmd to its default now and again when
// the test ends, since commands are package-level and shared across tests.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset()
	t.Cleanup(reset)
}
