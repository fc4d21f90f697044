package ui

import "github.com/charmbracelet/lipgloss"

var styles = struct {
	title   lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1DB954")),
	label:   lipgloss.NewStyle().Bold(true).Width(14),
	success: lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")),
	warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")),
	error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E22134")),
	muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7F7F7F")),
	box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#535353")).Padding(0, 1),
}
