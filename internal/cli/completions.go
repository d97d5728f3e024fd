package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/pkg/models"
)

// completeTaskIDs returns a completion function that lists task IDs with
// their names. When onlyActive is set, completed tasks are left out.
func completeTaskIDs(onlyActive bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Store == nil || len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string
		for _, task := range Store.State().Tasks {
			if onlyActive && task.Completed {
				continue
			}
			id := task.ID.String()
			if toComplete == "" || strings.HasPrefix(id, toComplete) {
				ids = append(ids, id+"\t"+task.Name)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.PriorityHigh) + "\tDo first",
		string(models.PriorityMedium) + "\tDefault",
		string(models.PriorityLow) + "\tWhen there is time",
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeFilters(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, 0, len(models.AllFilters))
	for _, f := range models.AllFilters {
		out = append(out, string(f))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	editCmd.ValidArgsFunction = completeTaskIDs(false)
	deleteCmd.ValidArgsFunction = completeTaskIDs(false)
	toggleCmd.ValidArgsFunction = completeTaskIDs(false)

	_ = addCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = editCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = listCmd.RegisterFlagCompletionFunc("filter", completeFilters)
}
