package ui

import (
	"regexp"
	"strings"
	"testing"

	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// stripANSI removes ANSI escape sequences for plain-text comparison.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string { return ansiRe.ReplaceAllString(s, "") }

// outlineFixture builds the widget test outline:
//
//	Project
//	├── Alpha section
//	│   ├── Alpha one
//	│   └── Alpha two
//	├── Beta section
//	│   └── Beta one
//	└── Gamma note
func outlineFixture(t *testing.T) *model.Outline {
	t.Helper()
	recs := []model.Record{
		{Ref: "root", Label: "Project", Kind: "section"},
		{Ref: "a", Parent: "root", Label: "Alpha section", Kind: "section"},
		{Ref: "a1", Parent: "a", Label: "Alpha one", Kind: "task", Status: "open"},
		{Ref: "a2", Parent: "a", Label: "Alpha two", Kind: "task", Status: "done"},
		{Ref: "b", Parent: "root", Label: "Beta section", Kind: "section"},
		{Ref: "b1", Parent: "b", Label: "Beta one", Kind: "task", Status: "open"},
		{Ref: "c", Parent: "root", Label: "Gamma note", Kind: "note"},
	}
	o, err := model.BuildOutline(recs, "Project")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	return o
}

func newFixtureView(t *testing.T) (*model.Outline, *OutlineView) {
	t.Helper()
	o := outlineFixture(t)
	v := NewOutlineView(o, TestTheme())
	return o, &v
}

func cursorLabel(t *testing.T, o *model.Outline, v *OutlineView) string {
	t.Helper()
	n := o.Node(v.CursorID())
	if n == nil {
		t.Fatalf("cursor on unknown node %d", v.CursorID())
	}
	return n.Label
}

func TestOutlineViewFlattenOrder(t *testing.T) {
	o, v := newFixtureView(t)

	if got := v.RowCount(); got != 7 {
		t.Fatalf("RowCount = %d, want 7", got)
	}
	if v.CursorID() != o.Root() {
		t.Fatalf("cursor starts on %d, want root %d", v.CursorID(), o.Root())
	}

	want := []string{
		"Project",
		"Alpha section",
		"Alpha one",
		"Alpha two",
		"Beta section",
		"Beta one",
		"Gamma note",
	}
	for i, label := range want {
		if got := cursorLabel(t, o, v); got != label {
			t.Fatalf("row %d: cursor on %q, want %q", i, got, label)
		}
		if o.Selected() != v.CursorID() {
			t.Fatalf("row %d: selection %d does not follow cursor %d", i, o.Selected(), v.CursorID())
		}
		v.MoveDown()
	}
}

func TestOutlineViewCursorClamps(t *testing.T) {
	o, v := newFixtureView(t)

	v.MoveUp()
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Errorf("MoveUp at top landed on %q, want Project", got)
	}

	v.JumpToBottom()
	if got := cursorLabel(t, o, v); got != "Gamma note" {
		t.Fatalf("JumpToBottom landed on %q, want Gamma note", got)
	}

	v.MoveDown()
	if got := cursorLabel(t, o, v); got != "Gamma note" {
		t.Errorf("MoveDown at bottom landed on %q, want Gamma note", got)
	}

	v.JumpToTop()
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Errorf("JumpToTop landed on %q, want Project", got)
	}
}

func TestOutlineViewCollapse(t *testing.T) {
	o, v := newFixtureView(t)
	a := mustRef(t, o, "a")

	v.MoveCursorTo(a)
	v.Collapse()
	if got := v.RowCount(); got != 5 {
		t.Fatalf("RowCount after collapsing Alpha = %d, want 5", got)
	}
	if !o.Node(a).Collapsed() {
		t.Error("Alpha section not marked collapsed")
	}
	if v.CursorID() != a {
		t.Errorf("cursor left the collapsed row, now on %q", cursorLabel(t, o, v))
	}

	// A second press on an already folded row walks to the parent.
	v.Collapse()
	if v.CursorID() != o.Root() {
		t.Errorf("second Collapse landed on %q, want Project", cursorLabel(t, o, v))
	}

	// On a leaf it walks up as well.
	v.MoveCursorTo(mustRef(t, o, "b1"))
	v.Collapse()
	if got := cursorLabel(t, o, v); got != "Beta section" {
		t.Errorf("Collapse on leaf landed on %q, want Beta section", got)
	}
}

func TestOutlineViewExpand(t *testing.T) {
	o, v := newFixtureView(t)
	a := mustRef(t, o, "a")

	v.MoveCursorTo(a)
	v.Collapse()
	v.Expand()
	if got := v.RowCount(); got != 7 {
		t.Fatalf("RowCount after expanding Alpha = %d, want 7", got)
	}
	if v.CursorID() != a {
		t.Fatalf("Expand moved the cursor to %q", cursorLabel(t, o, v))
	}

	// Expanding an open branch steps into its first child.
	v.Expand()
	if got := cursorLabel(t, o, v); got != "Alpha one" {
		t.Fatalf("Expand on open branch landed on %q, want Alpha one", got)
	}

	// A leaf has nothing to unfold.
	v.Expand()
	if got := cursorLabel(t, o, v); got != "Alpha one" {
		t.Errorf("Expand on leaf moved to %q", got)
	}
}

func TestOutlineViewToggleExpand(t *testing.T) {
	o, v := newFixtureView(t)

	v.MoveCursorTo(mustRef(t, o, "a"))
	v.ToggleExpand()
	if got := v.RowCount(); got != 5 {
		t.Fatalf("RowCount after fold = %d, want 5", got)
	}
	v.ToggleExpand()
	if got := v.RowCount(); got != 7 {
		t.Fatalf("RowCount after unfold = %d, want 7", got)
	}

	v.MoveCursorTo(mustRef(t, o, "c"))
	v.ToggleExpand()
	if got := v.RowCount(); got != 7 {
		t.Errorf("ToggleExpand on leaf changed RowCount to %d", got)
	}
}

func TestOutlineViewJumpToParent(t *testing.T) {
	o, v := newFixtureView(t)

	v.MoveCursorTo(mustRef(t, o, "a2"))
	v.JumpToParent()
	if got := cursorLabel(t, o, v); got != "Alpha section" {
		t.Fatalf("JumpToParent landed on %q, want Alpha section", got)
	}
	v.JumpToParent()
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Fatalf("JumpToParent landed on %q, want Project", got)
	}
	v.JumpToParent()
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Errorf("JumpToParent at root moved to %q", got)
	}
}

func TestOutlineViewCollapseAllKeepsRootOpen(t *testing.T) {
	o, v := newFixtureView(t)

	v.MoveCursorTo(mustRef(t, o, "a1"))
	v.CollapseAll()

	if got := v.RowCount(); got != 4 {
		t.Fatalf("RowCount after CollapseAll = %d, want 4", got)
	}
	if o.Node(o.Root()).Collapsed() {
		t.Error("CollapseAll folded the root row")
	}
	// The old cursor row is hidden now; the cursor falls back to the top.
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Errorf("cursor after CollapseAll on %q, want Project", got)
	}

	v.MoveCursorTo(mustRef(t, o, "b"))
	v.ExpandAll()
	if got := v.RowCount(); got != 7 {
		t.Fatalf("RowCount after ExpandAll = %d, want 7", got)
	}
	if got := cursorLabel(t, o, v); got != "Beta section" {
		t.Errorf("ExpandAll moved the cursor to %q", got)
	}

	// When the cursor row survives the fold it keeps the cursor.
	v.CollapseAll()
	if got := cursorLabel(t, o, v); got != "Beta section" {
		t.Errorf("cursor after CollapseAll on %q, want Beta section", got)
	}
}

func TestOutlineViewWindowing(t *testing.T) {
	o, v := newFixtureView(t)
	v.SetSize(80, 5)

	// Seven rows in a five line viewport: one line goes to the position
	// indicator, four remain for rows.
	if got := v.ViewportOffset(); got != 0 {
		t.Fatalf("initial ViewportOffset = %d, want 0", got)
	}

	v.JumpToBottom()
	if got := v.ViewportOffset(); got != 3 {
		t.Fatalf("ViewportOffset after JumpToBottom = %d, want 3", got)
	}
	view := stripANSI(v.View())
	if !strings.Contains(view, "Gamma note") {
		t.Error("bottom window does not show the last row")
	}
	if strings.Contains(view, "Alpha section") {
		t.Error("bottom window still shows a scrolled-out row")
	}
	if !strings.Contains(view, "(4-7 of 7)") {
		t.Errorf("position indicator missing, view:\n%s", view)
	}

	v.JumpToTop()
	if got := v.ViewportOffset(); got != 0 {
		t.Fatalf("ViewportOffset after JumpToTop = %d, want 0", got)
	}
	view = stripANSI(v.View())
	if !strings.Contains(view, "Project") || strings.Contains(view, "Gamma note") {
		t.Errorf("top window shows wrong rows:\n%s", view)
	}

	// Walking past the bottom edge scrolls one row at a time.
	for i := 0; i < 4; i++ {
		v.MoveDown()
	}
	if got := v.ViewportOffset(); got != 1 {
		t.Errorf("ViewportOffset after walking past the edge = %d, want 1", got)
	}

	v.PageBackward()
	if got := cursorLabel(t, o, v); got != "Project" {
		t.Errorf("PageBackward landed on %q, want Project", got)
	}
	if got := v.ViewportOffset(); got != 0 {
		t.Errorf("ViewportOffset after PageBackward = %d, want 0", got)
	}
	v.PageForward()
	if got := cursorLabel(t, o, v); got != "Beta section" {
		t.Errorf("PageForward landed on %q, want Beta section", got)
	}
}

func TestOutlineViewRendersRows(t *testing.T) {
	_, v := newFixtureView(t)

	view := stripANSI(v.View())
	for _, label := range []string{
		"Project", "Alpha section", "Alpha one", "Alpha two",
		"Beta section", "Beta one", "Gamma note",
	} {
		if !strings.Contains(view, label) {
			t.Errorf("view missing row %q:\n%s", label, view)
		}
	}
	if !strings.Contains(view, "├── ") || !strings.Contains(view, "└── ") {
		t.Error("view missing tree branch glyphs")
	}
	// All rows fit in the default 24 line viewport.
	if strings.Contains(view, " Page ") {
		t.Error("position indicator shown although nothing is scrolled")
	}
}

func TestOutlineViewEmptyStates(t *testing.T) {
	empty := NewOutlineView(model.NewOutline(), TestTheme())
	view := stripANSI(empty.View())
	if !strings.Contains(view, "No outline loaded.") {
		t.Errorf("idle empty state missing, view:\n%s", view)
	}

	// With an active filter the empty state points at the search instead.
	o := outlineFixture(t)
	c := runSearchPass(t, o, "alpha", treesearch.ModeFilter)
	empty.SetSearch(c)
	view = stripANSI(empty.View())
	if !strings.Contains(view, "No rows match the filter.") {
		t.Errorf("filter empty state missing, view:\n%s", view)
	}
	if !strings.Contains(view, "Esc") {
		t.Error("filter empty state does not mention how to clear the search")
	}
}

func TestOutlineViewFilterHidesBranches(t *testing.T) {
	o, v := newFixtureView(t)
	c := runSearchPass(t, o, "beta section", treesearch.ModeFilter)
	v.SetSearch(c)
	v.Refresh()

	if got := v.RowCount(); got != 3 {
		t.Fatalf("RowCount under filter = %d, want 3", got)
	}
	view := stripANSI(v.View())
	for _, label := range []string{"Project", "Beta section", "Beta one"} {
		if !strings.Contains(view, label) {
			t.Errorf("filtered view missing %q:\n%s", label, view)
		}
	}
	if strings.Contains(view, "Alpha") || strings.Contains(view, "Gamma") {
		t.Errorf("filtered view still shows hidden branches:\n%s", view)
	}
}

func TestOutlineViewRefreshFollowsMatchSelection(t *testing.T) {
	o, v := newFixtureView(t)
	c := runSearchPass(t, o, "gamma", treesearch.ModeHighlight)
	v.SetSearch(c)

	c.SelectNextMatch()
	v.Refresh()

	if got := cursorLabel(t, o, v); got != "Gamma note" {
		t.Fatalf("cursor after Refresh on %q, want Gamma note", got)
	}
	if o.Selected() != v.CursorID() {
		t.Error("selection and cursor diverged after Refresh")
	}
}

func TestOutlineViewSetOutlineResets(t *testing.T) {
	_, v := newFixtureView(t)
	v.SetSize(80, 5)
	v.JumpToBottom()
	if v.ViewportOffset() == 0 {
		t.Fatal("precondition: viewport should be scrolled")
	}

	replacement := outlineFixture(t)
	v.SetOutline(replacement)
	if v.CursorID() != replacement.Root() {
		t.Errorf("cursor after SetOutline on %d, want new root %d", v.CursorID(), replacement.Root())
	}
	if got := v.ViewportOffset(); got != 0 {
		t.Errorf("ViewportOffset after SetOutline = %d, want 0", got)
	}
}
