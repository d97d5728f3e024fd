package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new task",
	Long: `Add a new task to the list.

A description is required. The name must be unique (case and spacing are
ignored when comparing). Priority defaults to medium. A due date, when given, must not be in the past.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		description, _ := cmd.Flags().GetString("description")
		priorityFlag, _ := cmd.Flags().GetString("priority")
		dueFlag, _ := cmd.Flags().GetString("due")

		priority, err := models.ParsePriority(priorityFlag)
		if err != nil {
			return err
		}
		due, err := parseDueFlag(dueFlag)
		if err != nil {
			return err
		}

		task, err := Store.AddTask(models.TaskInput{
			Name:        strings.Join(args, " "),
			Description: description,
			Priority:    priority,
			DueDate:     due,
		})
		if err != nil {
			return fmt.Errorf("adding task: %w", err)
		}

		fmt.Printf("Added task %s\n", task.ID)
		printTaskDetail(*task)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an existing task",
	Long: `Edit the name, description, priority or due date of a task.

Only the flags you pass are changed. Use --clear-due to remove the due date.
The creation time and completion state are preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		id, err := models.ParseTaskID(args[0])
		if err != nil {
			return err
		}
		task, ok := core.FindTask(Store.State(), id)
		if !ok {
			return fmt.Errorf("editing task %s: %w", id, &core.NotFoundError{ID: id})
		}

		Store.SetEditingTask(&task)
		flags := cmd.Flags()
		if flags.Changed("name") {
			task.Name, _ = flags.GetString("name")
		}
		if flags.Changed("description") {
			task.Description, _ = flags.GetString("description")
		}
		if flags.Changed("priority") {
			p, _ := flags.GetString("priority")
			if task.Priority, err = models.ParsePriority(p); err != nil {
				Store.ClearEditingTask()
				return err
			}
		}
		if flags.Changed("due") {
			d, _ := flags.GetString("due")
			if task.DueDate, err = parseDueFlag(d); err != nil {
				Store.ClearEditingTask()
				return err
			}
		}
		if clearDue, _ := flags.GetBool("clear-due"); clearDue {
			task.DueDate = nil
		}

		updated, err := Store.UpdateTask(task)
		if err != nil {
			Store.ClearEditingTask()
			return fmt.Errorf("updating task %s: %w", id, err)
		}

		fmt.Printf("Updated task %s\n", updated.ID)
		printTaskDetail(*updated)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		id, err := models.ParseTaskID(args[0])
		if err != nil {
			return err
		}
		_, existed := core.FindTask(Store.State(), id)
		Store.DeleteTask(id)

		if !existed {
			fmt.Printf("No task with id %s.\n", id)
			return nil
		}
		fmt.Printf("Deleted task %s\n", id)
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:     "toggle <id>",
	Aliases: []string{"done"},
	Short:   "Mark a task completed, or active again",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		id, err := models.ParseTaskID(args[0])
		if err != nil {
			return err
		}
		task, err := Store.ToggleTaskCompletion(id)
		if err != nil {
			return fmt.Errorf("toggling task %s: %w", id, err)
		}

		state := "active"
		if task.Completed {
			state = "completed"
		}
		fmt.Printf("Task %s is now %s\n", task.ID, state)
		return nil
	},
}

var clearCompletedCmd = &cobra.Command{
	Use:   "clear-completed",
	Short: "Remove every completed task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		n := Store.ClearCompletedTasks()
		fmt.Printf("Removed %d completed task(s).\n", n)
		return nil
	},
}

var sortCmd = &cobra.Command{
	Use:       "sort <priority|due>",
	Short:     "Reorder the stored task list",
	Long:      `Reorder the stored list by priority (high first) or by due date (earliest first, undated last).`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"priority", "due"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		switch args[0] {
		case "priority":
			Store.SortByPriority()
		case "due", "due-date", "due_date":
			Store.SortByDueDate()
		default:
			return fmt.Errorf("invalid sort key %q: must be priority or due", args[0])
		}
		fmt.Printf("Sorted %d task(s) by %s.\n", len(Store.State().Tasks), args[0])
		return nil
	},
}

func parseDueFlag(s string) (*models.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func init() {
	addCmd.Flags().StringP("description", "d", "", "Task description")
	addCmd.Flags().StringP("priority", "p", "medium", "Priority (high, medium, low)")
	addCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")

	editCmd.Flags().StringP("name", "n", "", "New task name")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().StringP("priority", "p", "", "New priority (high, medium, low)")
	editCmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")
	editCmd.Flags().Bool("clear-due", false, "Remove the due date")
	editCmd.MarkFlagsMutuallyExclusive("due", "clear-due")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(clearCompletedCmd)
	rootCmd.AddCommand(sortCmd)
}
