package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

var (
	listFilter string
	listStored bool
	listJSON   bool
	statsJSON  bool
)

// listedTask is the JSON shape printed by "list --json".
type listedTask struct {
	models.Task
	DueStatus models.DueStatus `json:"dueStatus"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks matching a filter (all, active or completed).

By default tasks are shown in display order: active tasks first, then by
priority. Use --stored to show the order tasks are saved in, which is what
"todo sort" changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		filter, err := models.ParseFilter(listFilter)
		if err != nil {
			return err
		}
		if err := Store.SetFilter(filter); err != nil {
			return err
		}

		state := Store.State()
		tasks := core.SortedTasks(state)
		if listStored {
			tasks = core.FilteredTasks(state)
		}
		today := models.DateOf(time.Now())

		if listJSON {
			out := make([]listedTask, 0, len(tasks))
			for _, t := range tasks {
				out = append(out, listedTask{Task: t, DueStatus: core.DueStatusOf(t, today)})
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if len(tasks) == 0 {
			fmt.Printf("No %s tasks.\n", filter)
			return nil
		}
		for _, t := range tasks {
			fmt.Println(formatTaskLine(t, today))
		}
		st := core.TaskStats(state)
		fmt.Printf("\n%d total, %d active, %d completed\n", st.Total, st.Active, st.Completed)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}

		st := core.TaskStats(Store.State())
		if statsJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling stats: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("%-12s %d\n", "Total:", st.Total)
		fmt.Printf("%-12s %d\n", "Active:", st.Active)
		fmt.Printf("%-12s %d\n", "Completed:", st.Completed)
		return nil
	},
}

// formatTaskLine renders one task as a single styled line.
func formatTaskLine(t models.Task, today models.Date) string {
	check := "[ ]"
	if t.Completed {
		check = statusDone.Render("[x]")
	}
	line := fmt.Sprintf("%s %-14s %s %s", check, t.ID, styleForPriority(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority)), t.Name)
	if t.DueDate != nil {
		status := core.DueStatusOf(t, today)
		line += " " + styleForDue(status).Render(fmt.Sprintf("(due %s)", t.DueDate))
	}
	return line
}

func printTaskDetail(t models.Task) {
	fmt.Printf("  Name:        %s\n", t.Name)
	if t.Description != "" {
		fmt.Printf("  Description: %s\n", t.Description)
	}
	fmt.Printf("  Priority:    %s\n", t.Priority)
	if t.DueDate != nil {
		fmt.Printf("  Due:         %s\n", t.DueDate)
	}
	fmt.Printf("  Created:     %s\n", t.CreatedAt.Format(time.RFC3339))
}

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "all", "Filter: all, active or completed")
	listCmd.Flags().BoolVar(&listStored, "stored", false, "Show tasks in stored order")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}
