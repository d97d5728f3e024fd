package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

type dashboardPanel int

const (
	panelTasks dashboardPanel = iota
	panelActivity
	panelAlerts
	panelCount
)

// activityWindow is how far back the activity panel counts events.
const activityWindow = 7 * 24 * time.Hour

type dashboardKeys struct {
	Next    key.Binding
	Prev    key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Filter  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func newDashboardKeys() dashboardKeys {
	return dashboardKeys{
		Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next panel")),
		Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev panel")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k dashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Down, k.Up, k.Toggle, k.Filter, k.Refresh, k.Quit}
}

func (k dashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Up, k.Down, k.Toggle}, {k.Filter, k.Refresh, k.Quit}}
}

// dashboardSnapshot is everything one render needs, read from the services
// in a single pass.
type dashboardSnapshot struct {
	filter  models.Filter
	tasks   []models.Task
	stats   models.Stats
	metrics *observability.Metrics
	alerts  []observability.Alert
	today   models.Date
}

type snapshotMsg struct {
	snap dashboardSnapshot
	err  error
}

type dashboardModel struct {
	keys    dashboardKeys
	help    help.Model
	spinner spinner.Model

	panel  dashboardPanel
	width  int
	cursor int
	snap   dashboardSnapshot

	// The store is only touched while loading is false, or by loadSnapshot
	// while it is true.
	loading bool
	err     error
	notice  string
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		keys:    newDashboardKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		panel:   panelTasks,
		snap:    dashboardSnapshot{filter: models.FilterAll},
		loading: true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadSnapshot)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.snap = msg.snap
		m.cursor = min(m.cursor, max(len(m.snap.tasks)-1, 0))
		return m, nil
	}
	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.panel = (m.panel + 1) % panelCount
	case key.Matches(msg, m.keys.Prev):
		m.panel = (m.panel + panelCount - 1) % panelCount
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = max(min(m.cursor+1, len(m.snap.tasks)-1), 0)
	case key.Matches(msg, m.keys.Refresh):
		return m.reload()
	case key.Matches(msg, m.keys.Filter):
		if m.loading || Store == nil {
			return m, nil
		}
		if err := Store.SetFilter(m.snap.filter.Next()); err != nil {
			m.err = err
			return m, nil
		}
		return m.reload()
	case key.Matches(msg, m.keys.Toggle):
		if m.loading || Store == nil || m.panel != panelTasks || len(m.snap.tasks) == 0 {
			return m, nil
		}
		if _, err := Store.ToggleTaskCompletion(m.snap.tasks[m.cursor].ID); err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.notice = ""
		return m.reload()
	}
	return m, nil
}

func (m dashboardModel) reload() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, loadSnapshot)
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	switch {
	case m.loading:
		body = "  " + m.spinner.View() + " Loading..."
	case m.err != nil:
		body = "  Error: " + m.err.Error()
	default:
		body = m.panelsView()
	}

	out := titleStyle.Render(" todo ") + "\n\n" + body + "\n\n" + m.help.View(m.keys)
	if m.notice != "" {
		out += "\n" + m.notice
	}
	return out
}

// panelsView lays the panels out side by side on wide terminals and stacked
// otherwise.
func (m dashboardModel) panelsView() string {
	contents := [panelCount]string{
		panelTasks:    m.tasksView(),
		panelActivity: m.activityView(),
		panelAlerts:   m.alertsView(),
	}

	avail := m.width - 2
	wide := avail > 120
	width := max(avail-4, 20)
	if wide {
		width = avail/int(panelCount) - 4
	}

	rendered := make([]string, 0, panelCount)
	for p, content := range contents {
		style := frameStyle(dashboardPanel(p) == m.panel).Width(width)
		rendered = append(rendered, style.Render(content))
	}
	if wide {
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m dashboardModel) tasksView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Tasks (%s)", m.snap.filter)) + "\n")

	if len(m.snap.tasks) == 0 {
		b.WriteString(mutedStyle.Render("  No tasks found.") + "\n")
	}
	for i, t := range m.snap.tasks {
		marker := "  "
		if i == m.cursor && m.panel == panelTasks {
			marker = cursorStyle.Render("> ")
		}
		b.WriteString(marker + formatTaskLine(t, m.snap.today) + "\n")
	}

	st := m.snap.stats
	fmt.Fprintf(&b, "\n  %d total, %d active, %d completed", st.Total, st.Active, st.Completed)
	return b.String()
}

func (m dashboardModel) activityView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Activity (7d)") + "\n")

	mt := m.snap.metrics
	if mt == nil {
		b.WriteString(mutedStyle.Render("  No activity recorded."))
		return b.String()
	}
	for _, row := range []struct {
		label string
		n     int
	}{
		{"Events", mt.EventCount},
		{"Created", mt.TasksCreated},
		{"Completed", mt.TasksCompleted},
		{"Reopened", mt.TasksReopened},
		{"Deleted", mt.TasksDeleted},
		{"Cleared", mt.TasksCleared},
		{"Imported", mt.TasksImported},
	} {
		fmt.Fprintf(&b, "  %-10s %d\n", row.label, row.n)
	}
	return b.String()
}

func (m dashboardModel) alertsView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts") + "\n")

	if len(m.snap.alerts) == 0 {
		b.WriteString(mutedStyle.Render("  No active alerts."))
		return b.String()
	}
	for _, a := range m.snap.alerts {
		tag := styleForSeverity(a.Severity).Render("[" + strings.ToUpper(string(a.Severity)) + "]")
		fmt.Fprintf(&b, "  %s %s\n", tag, a.Message)
	}
	return b.String()
}

// loadSnapshot reads the store, the activity metrics and the alerts.
func loadSnapshot() tea.Msg {
	now := time.Now()
	snap := dashboardSnapshot{filter: models.FilterAll, today: models.DateOf(now)}

	if Store != nil {
		state := Store.State()
		snap.filter = state.Filter
		snap.tasks = core.SortedTasks(state)
		snap.stats = core.TaskStats(state)
	}

	if MetricsCalc != nil {
		mt, err := MetricsCalc.Calculate(now.UTC().Add(-activityWindow))
		if err != nil {
			return snapshotMsg{err: fmt.Errorf("loading metrics: %w", err)}
		}
		snap.metrics = mt
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return snapshotMsg{err: fmt.Errorf("loading alerts: %w", err)}
		}
		snap.alerts = alerts
	}

	return snapshotMsg{snap: snap}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI for tasks, activity and alerts",
	Long: `Open a terminal dashboard with the task list, the last week of
activity and the current alerts.

Tab moves between panels. In the task panel, j/k select a task, space
toggles it and f cycles the filter. r reloads and q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("task store not initialized")
		}
		_, err := tea.NewProgram(newDashboardModel(), tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
