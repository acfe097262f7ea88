package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)

	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2).
			Width(44)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Secondary).MarginBottom(1)
}

func activeParamStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func modeStyle(mode string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch mode {
	case "rotate":
		return s.Foreground(CurrentTheme.Warning)
	case "translate":
		return s.Foreground(CurrentTheme.Success)
	case "arrived":
		return s.Foreground(CurrentTheme.Accent)
	}
	return s.Foreground(CurrentTheme.Muted)
}

// ProgressBar renders how much of the initial distance has been covered.
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := lipgloss.NewStyle()
	switch {
	case percent > 0.8:
		style = style.Foreground(CurrentTheme.Success)
	case percent > 0.4:
		style = style.Foreground(CurrentTheme.Warning)
	default:
		style = style.Foreground(CurrentTheme.Error)
	}
	return style.Render(bar)
}
