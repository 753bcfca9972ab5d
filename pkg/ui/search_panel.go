package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// SearchPanel is the one-line search bar. It implements treesearch.Panel, so
// the search controller reads query, mode and visibility straight from it;
// the panel itself never talks to the engine.
//
// Pointer type: the controller and the app model share one instance, and a
// value copy would let the two drift apart.
type SearchPanel struct {
	input textinput.Model
	theme Theme

	visible bool
	mode    treesearch.Mode

	// Match position for display, pushed in by the app after each pass.
	current int
	total   int
}

// NewSearchPanel returns a hidden panel in highlight mode.
func NewSearchPanel(theme Theme) *SearchPanel {
	ti := textinput.New()
	ti.Placeholder = "type to search"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.PromptStyle = theme.PrimaryBold
	ti.Cursor.Style = theme.PrimaryBold

	return &SearchPanel{
		input: ti,
		theme: theme,
		mode:  treesearch.ModeHighlight,
	}
}

// ── treesearch.Panel ──

// Query returns the current search text.
func (p *SearchPanel) Query() string { return p.input.Value() }

// Mode returns the current search mode.
func (p *SearchPanel) Mode() treesearch.Mode { return p.mode }

// Visible reports whether the bar is shown.
func (p *SearchPanel) Visible() bool { return p.visible }

// ── Focus ──

// Focused reports whether the input has keyboard focus. A visible but
// blurred bar keeps the search active while keys go back to the outline.
func (p *SearchPanel) Focused() bool { return p.input.Focused() }

// Blur drops input focus without deactivating the search.
func (p *SearchPanel) Blur() { p.input.Blur() }

// ── Panel control ──

// Open shows the bar and focuses the input. The previous query is kept so
// reopening resumes the last search.
func (p *SearchPanel) Open() {
	p.visible = true
	p.input.Focus()
}

// Close hides the bar and clears the query. The next engine pass sees an
// invisible panel and reverts every decoration.
func (p *SearchPanel) Close() {
	p.visible = false
	p.input.Blur()
	p.input.SetValue("")
	p.current, p.total = 0, 0
}

// ToggleMode flips between highlight and filter mode.
func (p *SearchPanel) ToggleMode() {
	if p.mode == treesearch.ModeHighlight {
		p.mode = treesearch.ModeFilter
	} else {
		p.mode = treesearch.ModeHighlight
	}
}

// SetMode sets the mode directly (used when applying config defaults).
func (p *SearchPanel) SetMode(m treesearch.Mode) {
	p.mode = m
}

// SetMatchStatus updates the "n/total" position indicator.
func (p *SearchPanel) SetMatchStatus(current, total int) {
	p.current = current
	p.total = total
}

// Update forwards a message to the text input.
func (p *SearchPanel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// View renders the bar: input on the left, mode and match position on the
// right.
func (p *SearchPanel) View(width int) string {
	if !p.visible {
		return ""
	}

	modeTag := "[" + p.mode.String() + "]"
	var position string
	switch {
	case p.Query() == "":
		position = ""
	case p.total == 0:
		position = "no matches"
	case p.current > 0:
		position = fmt.Sprintf("%d/%d", p.current, p.total)
	default:
		position = fmt.Sprintf("%d matches", p.total)
	}

	right := p.theme.SecondaryText.Render(modeTag)
	if position != "" {
		right = p.theme.SecondaryText.Render(position) + " " + right
	}

	left := p.input.View()
	pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if pad < 1 {
		pad = 1
	}

	bar := left + strings.Repeat(" ", pad) + right
	return p.theme.Renderer.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.theme.Border).
		Width(width).
		Render(bar)
}
