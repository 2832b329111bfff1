package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/vetta/internal/core/domain"
)

// theme is the colour palette for terminal output.
type theme struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

func defaultTheme() theme {
	return theme{
		Primary: lipgloss.Color("#7C3AED"), // Purple
		Muted:   lipgloss.Color("#6C7086"), // Medium gray
		Success: lipgloss.Color("#A6E3A1"), // Green
		Warning: lipgloss.Color("#F9E2AF"), // Yellow
		Error:   lipgloss.Color("#F38BA8"), // Red
	}
}

// styles contains pre-configured lipgloss styles for summaries and listings.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(t theme) styles {
	return styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Foreground(t.Error),
	}
}

var style = newStyles(defaultTheme())

// stateStyle returns the style for an outcome state.
func stateStyle(s domain.OutcomeState) lipgloss.Style {
	switch s {
	case domain.OutcomeSuccess:
		return style.Success
	case domain.OutcomeSkipped:
		return style.Warning
	case domain.OutcomeError:
		return style.Error
	default:
		return style.Muted
	}
}

// stateLabel is the fixed-width label for an outcome state.
func stateLabel(s domain.OutcomeState) string {
	switch s {
	case domain.OutcomeSuccess:
		return "ok     "
	case domain.OutcomeSkipped:
		return "skipped"
	case domain.OutcomeError:
		return "failed "
	default:
		return "pending"
	}
}
