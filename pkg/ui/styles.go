package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Shared adaptive colors for render helpers that live outside the Theme.
// Light mode colors tuned for WCAG AA compliance (contrast ratio >= 4.5:1).
var (
	ColorDanger = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Status colors
	ColorStatusOpen    = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorStatusDone    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}
	ColorStatusBlocked = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// RenderStatusBadge returns a styled status tag for task-like rows. Nodes
// without a status render as an empty string so the row layout can skip the
// column entirely.
func RenderStatusBadge(status string) string {
	var fg lipgloss.AdaptiveColor
	var label string

	switch status {
	case "open":
		fg, label = ColorStatusOpen, "open"
	case "done":
		fg, label = ColorStatusDone, "done"
	case "blocked":
		fg, label = ColorStatusBlocked, "blocked"
	default:
		return ""
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render("[" + label + "]")
}
