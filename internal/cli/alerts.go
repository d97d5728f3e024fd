package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/observability"
)

var (
	alertsJSON        bool
	alertsMinSeverity string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show overdue, due-soon and stale tasks",
	Long: `Check the task list and its recent activity for conditions that need
attention: overdue tasks, tasks due soon, active tasks nobody has touched
for a while, and an active list that has grown too long.

Thresholds live under "alerts" in .todoconfig. --min-severity hides alerts
below the given level.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event log unavailable)")
		}
		floor, err := parseSeverity(alertsMinSeverity)
		if err != nil {
			return err
		}

		all, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}
		alerts := []observability.Alert{}
		for _, a := range all {
			if a.Severity.AtLeast(floor) {
				alerts = append(alerts, a)
			}
		}

		out := cmd.OutOrStdout()
		if alertsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(alerts)
		}

		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}
		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, a := range alerts {
			tag := styleForSeverity(a.Severity).Render(strings.ToUpper(string(a.Severity)))
			fmt.Fprintf(out, "  [%s] %s\n", tag, a.Message)
			fmt.Fprintf(out, "         %s, %s\n\n", a.Condition, a.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}
		return nil
	},
}

func parseSeverity(s string) (observability.AlertSeverity, error) {
	switch sev := observability.AlertSeverity(strings.ToLower(strings.TrimSpace(s))); sev {
	case "":
		return observability.SeverityLow, nil
	case observability.SeverityHigh, observability.SeverityMedium, observability.SeverityLow:
		return sev, nil
	}
	return "", fmt.Errorf("invalid severity %q: must be high, medium or low", s)
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "Print alerts as JSON")
	alertsCmd.Flags().StringVar(&alertsMinSeverity, "min-severity", "low", "Lowest severity to show (high, medium, low)")
	_ = alertsCmd.RegisterFlagCompletionFunc("min-severity", cobra.FixedCompletions(
		[]string{"high", "medium", "low"}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(alertsCmd)
}
