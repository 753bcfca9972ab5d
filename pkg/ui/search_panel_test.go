package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// The controller reads query, mode and visibility through this interface.
var _ treesearch.Panel = (*SearchPanel)(nil)

func TestSearchPanelOpenClose(t *testing.T) {
	p := NewSearchPanel(TestTheme())

	if p.Visible() || p.Focused() {
		t.Fatal("new panel should start hidden and blurred")
	}
	if p.Mode() != treesearch.ModeHighlight {
		t.Fatalf("new panel mode = %v, want highlight", p.Mode())
	}

	p.Open()
	if !p.Visible() || !p.Focused() {
		t.Fatal("Open should show and focus the panel")
	}

	p.input.SetValue("net tim")
	p.Blur()
	if !p.Visible() {
		t.Error("Blur should keep the panel visible")
	}
	if p.Focused() {
		t.Error("Blur should drop input focus")
	}
	if got := p.Query(); got != "net tim" {
		t.Errorf("Blur changed the query to %q", got)
	}

	p.Close()
	if p.Visible() {
		t.Error("Close should hide the panel")
	}
	if got := p.Query(); got != "" {
		t.Errorf("Close kept the query %q", got)
	}
}

func TestSearchPanelReopenKeepsQuery(t *testing.T) {
	p := NewSearchPanel(TestTheme())
	p.Open()
	p.input.SetValue("latency")
	p.Blur()

	p.Open()
	if !p.Focused() {
		t.Error("reopening should focus the input again")
	}
	if got := p.Query(); got != "latency" {
		t.Errorf("reopening lost the query, got %q", got)
	}
}

func TestSearchPanelToggleMode(t *testing.T) {
	p := NewSearchPanel(TestTheme())

	p.ToggleMode()
	if p.Mode() != treesearch.ModeFilter {
		t.Fatalf("mode after toggle = %v, want filter", p.Mode())
	}
	p.ToggleMode()
	if p.Mode() != treesearch.ModeHighlight {
		t.Fatalf("mode after second toggle = %v, want highlight", p.Mode())
	}

	p.SetMode(treesearch.ModeFilter)
	if p.Mode() != treesearch.ModeFilter {
		t.Fatalf("SetMode did not stick, mode = %v", p.Mode())
	}
}

func TestSearchPanelViewHidden(t *testing.T) {
	p := NewSearchPanel(TestTheme())
	if got := p.View(80); got != "" {
		t.Errorf("hidden panel rendered %q", got)
	}
}

func TestSearchPanelViewContents(t *testing.T) {
	p := NewSearchPanel(TestTheme())
	p.Open()
	p.input.SetValue("net")
	p.SetMatchStatus(3, 7)

	view := stripANSI(p.View(80))
	if !strings.Contains(view, "net") {
		t.Errorf("view missing the query:\n%s", view)
	}
	if !strings.Contains(view, "3/7") {
		t.Errorf("view missing the match position:\n%s", view)
	}
	if !strings.Contains(view, "[highlight]") {
		t.Errorf("view missing the mode tag:\n%s", view)
	}

	p.ToggleMode()
	view = stripANSI(p.View(80))
	if !strings.Contains(view, "[filter]") {
		t.Errorf("view missing the filter mode tag:\n%s", view)
	}

	p.SetMatchStatus(0, 0)
	view = stripANSI(p.View(80))
	if !strings.Contains(view, "no matches") {
		t.Errorf("view missing the no-match notice:\n%s", view)
	}

	// A match total without a position reads as a plain count.
	p.SetMatchStatus(0, 5)
	view = stripANSI(p.View(80))
	if !strings.Contains(view, "5 matches") {
		t.Errorf("view missing the match count:\n%s", view)
	}

	// No position indicator while the query is empty.
	p.input.SetValue("")
	view = stripANSI(p.View(80))
	if strings.Contains(view, "matches") {
		t.Errorf("empty query should not show a match count:\n%s", view)
	}
}

func TestSearchPanelUpdateTypes(t *testing.T) {
	p := NewSearchPanel(TestTheme())
	p.Open()

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	if got := p.Query(); got != "ab" {
		t.Fatalf("query after typing = %q, want ab", got)
	}

	p.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := p.Query(); got != "a" {
		t.Fatalf("query after backspace = %q, want a", got)
	}
}
