package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	doneColor    = lipgloss.Color("#50FA7B")
	subTextColor = lipgloss.Color("#6272A4")
	errorColor   = lipgloss.Color("#FF5555")
	warnColor    = lipgloss.Color("#F1FA8C")

	appStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(subTextColor).
			Width(10)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor)
	helpStyle  = lipgloss.NewStyle().Foreground(subTextColor).MarginTop(1)
	doneStyle  = lipgloss.NewStyle().Foreground(doneColor)
	dimStyle   = lipgloss.NewStyle().Foreground(subTextColor)
	cellStyle  = lipgloss.NewStyle().PaddingRight(2)

	priorityStyles = map[string]lipgloss.Style{
		"Low":    lipgloss.NewStyle().Foreground(subTextColor),
		"Medium": lipgloss.NewStyle().Foreground(warnColor),
		"High":   lipgloss.NewStyle().Foreground(errorColor).Bold(true),
	}
)
