package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show task activity over a time window",
	Long: `Count the task events recorded since --since: creations, updates,
completions, reopenings, deletions, clears and imports, plus creations per
priority and how often the list was sorted by each key.

--since takes a Go duration (36h) or a number of days (30d).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log unavailable)")
		}

		window := strings.TrimSpace(metricsSince)
		if window == "" {
			window = "7d"
		}
		since, err := observability.ParseSince(window, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		m, err := MetricsCalc.Calculate(since)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		writeMetrics(out, since, m)
		return nil
	},
}

type metricRow struct {
	label string
	value int
}

func metricRows(m *observability.Metrics) []metricRow {
	return []metricRow{
		{"Events recorded", m.EventCount},
		{"Tasks created", m.TasksCreated},
		{"Tasks updated", m.TasksUpdated},
		{"Tasks completed", m.TasksCompleted},
		{"Tasks reopened", m.TasksReopened},
		{"Tasks deleted", m.TasksDeleted},
		{"Tasks cleared", m.TasksCleared},
		{"Tasks imported", m.TasksImported},
	}
}

func writeMetrics(w io.Writer, since time.Time, m *observability.Metrics) {
	fmt.Fprintln(w, headerStyle.UnsetMarginBottom().Render("Activity since "+since.Format("2006-01-02")))
	fmt.Fprintln(w)
	for _, row := range metricRows(m) {
		fmt.Fprintf(w, "  %-20s %d\n", row.label+":", row.value)
	}

	writeCounts(w, "Created by priority", m.CreatedByPriority)
	writeCounts(w, "Sorted by", m.Sorts)

	if m.OldestEvent != nil && m.NewestEvent != nil {
		fmt.Fprintf(w, "\n  First event %s, last event %s\n",
			m.OldestEvent.Format(time.RFC3339), m.NewestEvent.Format(time.RFC3339))
	}
}

func writeCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s:\n", title)
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(w, "    %-18s %d\n", k, counts[k])
	}
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Print metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Window to count (e.g. 24h, 7d, 30d)")
	rootCmd.AddCommand(metricsCmd)
}
