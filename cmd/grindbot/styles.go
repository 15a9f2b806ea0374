package main

import "github.com/charmbracelet/lipgloss"

// Terminal styles for human-facing command output.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// statusLine renders a "label: value" line with a bold label.
func statusLine(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}
