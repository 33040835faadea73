// Package views holds the bubbletea screens of the terminal front-end.
package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")).MarginBottom(1)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	rowStyle      = lipgloss.NewStyle().PaddingLeft(2)
	cursorStyle   = rowStyle.Foreground(lipgloss.Color("205")).Bold(true)
	detailStyle   = mutedStyle.PaddingLeft(4)
	subCursor     = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("205"))
	deployedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	busyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle   = mutedStyle.MarginTop(1)
)

// cycle moves i by delta within [0, n), wrapping at both ends
func cycle(i, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

// line renders one list row, marking the cursor
func line(selected bool, text string) string {
	if selected {
		return cursorStyle.Render("▸ "+text) + "\n"
	}
	return rowStyle.Render("  "+text) + "\n"
}

// send wraps a message in a command
func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
