package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Node status
	Open    lipgloss.AdaptiveColor
	Done    lipgloss.AdaptiveColor
	Blocked lipgloss.AdaptiveColor

	// Node kinds
	Section lipgloss.AdaptiveColor
	Task    lipgloss.AdaptiveColor
	Note    lipgloss.AdaptiveColor
	Link    lipgloss.AdaptiveColor

	// Search decoration
	MatchBg      lipgloss.AdaptiveColor // rectangle behind the matched span
	MatchFg      lipgloss.AdaptiveColor
	CurrentMatch lipgloss.AdaptiveColor // row holding the navigation cursor
	Badge        lipgloss.AdaptiveColor // descendant match count

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed row styles, created once instead of per-frame
	MutedText     lipgloss.Style // tree prefixes, footers
	SecondaryText lipgloss.Style // refs, counts
	PrimaryBold   lipgloss.Style // titles, selection indicator
	MatchSpan     lipgloss.Style // matched label span
	CountBadge    lipgloss.Style // per-row descendant count
	DimmedText    lipgloss.Style // context ancestors under an active filter
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		// Dracula / Light Mode equivalent; light colors tuned for WCAG AA
		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Open:    lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green
		Done:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Blocked: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red

		Section: lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Task:    lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"}, // Blue
		Note:    lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Link:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan

		MatchBg:      lipgloss.AdaptiveColor{Light: "#FFF3CD", Dark: "#3D3D1A"},
		MatchFg:      lipgloss.AdaptiveColor{Light: "#7A5600", Dark: "#F1FA8C"},
		CurrentMatch: lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},
		Badge:        lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.MatchSpan = r.NewStyle().Background(t.MatchBg).Foreground(t.MatchFg).Bold(true)
	t.CountBadge = r.NewStyle().Foreground(t.Badge)
	t.DimmedText = r.NewStyle().Foreground(t.Muted).Faint(true)

	return t
}

// GetStatusColor maps a node status onto its theme color.
func (t Theme) GetStatusColor(s string) lipgloss.AdaptiveColor {
	switch s {
	case "open":
		return t.Open
	case "done":
		return t.Done
	case "blocked":
		return t.Blocked
	default:
		return t.Subtext
	}
}

// GetKindColor maps a node kind onto its theme color.
func (t Theme) GetKindColor(kind string) lipgloss.AdaptiveColor {
	switch kind {
	case "section":
		return t.Section
	case "task":
		return t.Task
	case "link":
		return t.Link
	default:
		return t.Note
	}
}

// TestTheme returns a theme suitable for use in tests (uses stdout renderer).
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
