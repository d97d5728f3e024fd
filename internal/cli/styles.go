package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

const (
	colorAccent = lipgloss.Color("62")
	colorMuted  = lipgloss.Color("241")
	colorRed    = lipgloss.Color("196")
	colorOrange = lipgloss.Color("208")
	colorYellow = lipgloss.Color("226")
	colorGrey   = lipgloss.Color("245")
	colorBlue   = lipgloss.Color("69")
	colorGreen  = lipgloss.Color("46")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(colorAccent).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	statusDone  = lipgloss.NewStyle().Foreground(colorGreen)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

var priorityColors = map[models.Priority]lipgloss.Color{
	models.PriorityHigh:   colorRed,
	models.PriorityMedium: colorYellow,
	models.PriorityLow:    colorGrey,
}

var dueColors = map[models.DueStatus]lipgloss.Color{
	models.DueOverdue: colorRed,
	models.DueToday:   colorOrange,
	models.DueSoon:    colorYellow,
	models.DueLater:   colorGrey,
}

var severityColors = map[observability.AlertSeverity]lipgloss.Color{
	observability.SeverityHigh:   colorRed,
	observability.SeverityMedium: colorYellow,
	observability.SeverityLow:    colorBlue,
}

// frameStyle is the border drawn around a dashboard panel.
func frameStyle(active bool) lipgloss.Style {
	border := lipgloss.Color("240")
	if active {
		border = colorAccent
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
}

func styleForPriority(p models.Priority) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c, ok := priorityColors[p]; ok {
		s = s.Foreground(c)
	}
	return s.Bold(p == models.PriorityHigh)
}

func styleForDue(status models.DueStatus) lipgloss.Style {
	if c, ok := dueColors[status]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle()
}

func styleForSeverity(sev observability.AlertSeverity) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c, ok := severityColors[sev]; ok {
		s = s.Foreground(c)
	}
	return s.Bold(sev == observability.SeverityHigh)
}
