package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// helpMarkdown is the keybinding reference shown by the help overlay,
// rendered through glamour so it picks up the terminal's light/dark style.
const helpMarkdown = `# Canopy

Terminal outline viewer with live search.

## Navigation

| Key | Action |
|-----|--------|
| j / ↓ | move down |
| k / ↑ | move up |
| g / G | first / last row |
| p | jump to parent |
| h / l | collapse / expand |
| o | toggle fold |
| O / C | expand / collapse all |
| PgUp / PgDn | page up / down |

## Search

| Key | Action |
|-----|--------|
| / | open the search bar |
| Tab | toggle highlight / filter mode |
| Enter | jump to next match |
| n / N | next / first match |
| Esc | close search and revert |

Queries match words independently: ` + "`net tim`" + ` finds "Network timing".
Highlight mode marks matches and shows per-branch counts; filter mode also
hides branches with no match.

## Editing and output

| Key | Action |
|-----|--------|
| e | rename the selected row |
| y | copy the selected row's path |
| E | export the outline as an image |
| ? | toggle this help |
| q | quit |
`

// renderHelp renders the help markdown at the given width. Glamour failures
// fall back to the raw markdown, which is still readable.
func renderHelp(width int) string {
	wrap := width - 4
	if wrap < 40 {
		wrap = 40
	}
	if wrap > 100 {
		wrap = 100
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}

// scrollLines returns a window of n lines starting at offset, clamped to
// the text. Used by the help overlay to scroll without a viewport model.
func scrollLines(text string, offset, n int) string {
	lines := strings.Split(text, "\n")
	if offset < 0 {
		offset = 0
	}
	if offset >= len(lines) {
		offset = len(lines) - 1
		if offset < 0 {
			offset = 0
		}
	}
	end := offset + n
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[offset:end], "\n")
}
