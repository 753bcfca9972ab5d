package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// OutlineView renders one outline as an indented tree with windowed
// rendering: only the rows inside the viewport are built per frame, so
// frame cost tracks terminal height rather than document size.
//
// The widget owns cursor and viewport state. Structure, visibility and
// decorations live on the Outline itself; the search engine writes them
// through the treesearch.Tree interface and the widget reads them back at
// render time.
type OutlineView struct {
	outline *model.Outline
	theme   Theme

	// search is consulted for dimming and match counts at render time.
	// May be nil when no search is wired up.
	search *treesearch.Controller

	flatList       []treesearch.NodeID
	cursor         int
	viewportOffset int

	width  int
	height int
}

// NewOutlineView creates a view over the given outline.
func NewOutlineView(o *model.Outline, theme Theme) OutlineView {
	v := OutlineView{
		outline: o,
		theme:   theme,
		width:   80,
		height:  24,
	}
	v.Rebuild()
	return v
}

// SetSearch wires the search controller in so rendering can dim filtered
// context rows and emphasize the current match.
func (v *OutlineView) SetSearch(c *treesearch.Controller) {
	v.search = c
}

// SetOutline swaps the underlying outline, as happens on a structural
// reload. Cursor and viewport reset; the caller restores selection by ref
// where it can.
func (v *OutlineView) SetOutline(o *model.Outline) {
	v.outline = o
	v.cursor = 0
	v.viewportOffset = 0
	v.Rebuild()
}

// SetSize updates the viewport dimensions.
func (v *OutlineView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.ensureCursorVisible()
}

// Rebuild reflattens the visible rows. Rows hidden by the filter or folded
// under a collapsed ancestor are skipped along with their subtrees; a
// hidden row can never shelter a visible descendant because filtering hides
// whole matchless branches.
func (v *OutlineView) Rebuild() {
	v.flatList = v.flatList[:0]
	if v.outline != nil {
		v.appendVisible(v.outline.Root())
	}
	if v.cursor >= len(v.flatList) {
		v.cursor = len(v.flatList) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *OutlineView) appendVisible(id treesearch.NodeID) {
	n := v.outline.Node(id)
	if n == nil || !n.Visible() {
		return
	}
	v.flatList = append(v.flatList, id)
	if n.Collapsed() {
		return
	}
	for _, c := range v.outline.Children(id) {
		v.appendVisible(c)
	}
}

// Refresh resyncs the widget after a search pass or an edit: the flat list
// is rebuilt against current visibility, a pending scroll request moves the
// cursor, and the cursor follows the outline's selection.
func (v *OutlineView) Refresh() {
	v.Rebuild()

	if target := v.outline.ConsumeScrollTarget(); target != treesearch.NoNode {
		v.MoveCursorTo(target)
	} else if sel := v.outline.Selected(); sel != treesearch.NoNode {
		v.moveCursorSilently(sel)
	}
	v.ensureCursorVisible()

	// Drain the redraw flag; the host repaints after every update anyway.
	v.outline.ConsumeRedraw()
}

// ── Cursor movement ──

// RowCount returns the number of currently visible rows.
func (v *OutlineView) RowCount() int {
	return len(v.flatList)
}

// CursorID returns the handle under the cursor, or NoNode.
func (v *OutlineView) CursorID() treesearch.NodeID {
	if v.cursor < 0 || v.cursor >= len(v.flatList) {
		return treesearch.NoNode
	}
	return v.flatList[v.cursor]
}

// MoveCursorTo places the cursor on the given row and selects it. Returns
// false when the row is not currently visible.
func (v *OutlineView) MoveCursorTo(id treesearch.NodeID) bool {
	if !v.moveCursorSilently(id) {
		return false
	}
	v.outline.Select(id)
	v.ensureCursorVisible()
	return true
}

func (v *OutlineView) moveCursorSilently(id treesearch.NodeID) bool {
	for i, n := range v.flatList {
		if n == id {
			v.cursor = i
			return true
		}
	}
	return false
}

func (v *OutlineView) setCursor(i int) {
	if len(v.flatList) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(v.flatList) {
		i = len(v.flatList) - 1
	}
	v.cursor = i
	v.outline.Select(v.flatList[i])
	v.ensureCursorVisible()
}

// MoveDown moves the cursor one row down.
func (v *OutlineView) MoveDown() { v.setCursor(v.cursor + 1) }

// MoveUp moves the cursor one row up.
func (v *OutlineView) MoveUp() { v.setCursor(v.cursor - 1) }

// JumpToTop moves the cursor to the first row.
func (v *OutlineView) JumpToTop() { v.setCursor(0) }

// JumpToBottom moves the cursor to the last row.
func (v *OutlineView) JumpToBottom() { v.setCursor(len(v.flatList) - 1) }

// PageForward moves the cursor a full page down.
func (v *OutlineView) PageForward() { v.setCursor(v.cursor + v.effectiveVisibleCount()) }

// PageBackward moves the cursor a full page up.
func (v *OutlineView) PageBackward() { v.setCursor(v.cursor - v.effectiveVisibleCount()) }

// JumpToParent moves the cursor to the current row's parent.
func (v *OutlineView) JumpToParent() {
	cur := v.CursorID()
	if cur == treesearch.NoNode {
		return
	}
	parent := v.outline.Parent(cur)
	if parent == treesearch.NoNode {
		return
	}
	v.MoveCursorTo(parent)
}

// ── Fold control ──

// ToggleExpand folds or unfolds the row under the cursor. Leaf rows are
// untouched.
func (v *OutlineView) ToggleExpand() {
	cur := v.CursorID()
	n := v.outline.Node(cur)
	if n == nil || !n.HasChildren() {
		return
	}
	v.outline.SetCollapsed(cur, !n.Collapsed())
	v.Rebuild()
	v.moveCursorSilently(cur)
	v.ensureCursorVisible()
}

// Collapse folds the row under the cursor; on a leaf or an already folded
// row it moves to the parent instead, so repeated presses walk up the tree.
func (v *OutlineView) Collapse() {
	cur := v.CursorID()
	n := v.outline.Node(cur)
	if n == nil {
		return
	}
	if n.HasChildren() && !n.Collapsed() {
		v.outline.SetCollapsed(cur, true)
		v.Rebuild()
		v.moveCursorSilently(cur)
		v.ensureCursorVisible()
		return
	}
	v.JumpToParent()
}

// Expand unfolds the row under the cursor; if already unfolded it moves to
// the first child.
func (v *OutlineView) Expand() {
	cur := v.CursorID()
	n := v.outline.Node(cur)
	if n == nil || !n.HasChildren() {
		return
	}
	if n.Collapsed() {
		v.outline.SetCollapsed(cur, false)
		v.Rebuild()
		v.moveCursorSilently(cur)
		v.ensureCursorVisible()
		return
	}
	children := v.outline.Children(cur)
	if len(children) > 0 {
		v.MoveCursorTo(children[0])
	}
}

// ExpandAll unfolds every row.
func (v *OutlineView) ExpandAll() {
	v.outline.Walk(func(n *model.Node, depth int) bool {
		if n.HasChildren() {
			v.outline.SetCollapsed(n.ID, false)
		}
		return true
	})
	cur := v.CursorID()
	v.Rebuild()
	v.moveCursorSilently(cur)
	v.ensureCursorVisible()
}

// CollapseAll folds everything below the root, keeping the root row itself
// open so the document does not shrink to a single line.
func (v *OutlineView) CollapseAll() {
	cur := v.CursorID()
	root := v.outline.Root()
	v.outline.Walk(func(n *model.Node, depth int) bool {
		if n.HasChildren() && n.ID != root {
			v.outline.SetCollapsed(n.ID, true)
		}
		return true
	})
	v.Rebuild()
	if !v.moveCursorSilently(cur) {
		v.setCursor(0)
	}
	v.ensureCursorVisible()
}

// ── Windowed rendering ──

// effectiveVisibleCount returns how many rows fit in the viewport, reserving
// a line for the position indicator when scrolling is needed.
func (v *OutlineView) effectiveVisibleCount() int {
	visibleCount := v.height
	if visibleCount <= 0 {
		visibleCount = 20
	}
	if len(v.flatList) > visibleCount {
		visibleCount--
	}
	if visibleCount < 1 {
		visibleCount = 1
	}
	return visibleCount
}

func (v *OutlineView) visibleRange() (start, end int) {
	if len(v.flatList) == 0 {
		return 0, 0
	}

	visibleCount := v.effectiveVisibleCount()

	start = v.viewportOffset
	if start < 0 {
		start = 0
	}

	end = start + visibleCount
	if end > len(v.flatList) {
		end = len(v.flatList)
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}

	return start, end
}

// ensureCursorVisible scrolls the viewport just enough to keep the cursor
// on screen (cursor-at-edge scrolling).
func (v *OutlineView) ensureCursorVisible() {
	if len(v.flatList) == 0 {
		return
	}

	visibleCount := v.effectiveVisibleCount()

	if v.cursor < v.viewportOffset {
		v.viewportOffset = v.cursor
	}
	if v.cursor >= v.viewportOffset+visibleCount {
		v.viewportOffset = v.cursor - visibleCount + 1
	}

	maxOffset := len(v.flatList) - visibleCount
	if maxOffset < 0 {
		maxOffset = 0
	}
	if v.viewportOffset > maxOffset {
		v.viewportOffset = maxOffset
	}
	if v.viewportOffset < 0 {
		v.viewportOffset = 0
	}
}

// ViewportOffset returns the current scroll offset (for tests).
func (v *OutlineView) ViewportOffset() int {
	return v.viewportOffset
}

// View renders the visible window of rows.
func (v *OutlineView) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if v.outline == nil || len(v.flatList) == 0 {
		return v.renderEmptyState()
	}

	var sb strings.Builder
	start, end := v.visibleRange()

	for i := start; i < end; i++ {
		sb.WriteString(v.renderRow(v.flatList[i], i == v.cursor))
		sb.WriteString("\n")
	}

	if len(v.flatList) > v.effectiveVisibleCount() {
		sb.WriteString(v.renderPositionIndicator(start, end))
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func (v *OutlineView) renderEmptyState() string {
	r := v.theme.Renderer

	titleStyle := r.NewStyle().
		Foreground(v.theme.Primary).
		Bold(true)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Canopy"))
	sb.WriteString("\n\n")
	if v.searchState() == treesearch.StateFiltering {
		sb.WriteString(v.theme.MutedText.Render("No rows match the filter."))
		sb.WriteString("\n")
		sb.WriteString(v.theme.MutedText.Render("Press Esc to clear the search, or Tab to switch to highlight mode."))
	} else {
		sb.WriteString(v.theme.MutedText.Render("No outline loaded."))
		sb.WriteString("\n")
		sb.WriteString(v.theme.MutedText.Render("Put an outline.jsonl in .canopy/ and canopy will pick it up."))
	}
	return sb.String()
}

// renderPositionIndicator renders the scroll position as a page indicator,
// 1-indexed for display.
func (v *OutlineView) renderPositionIndicator(start, end int) string {
	total := len(v.flatList)
	pageSize := v.effectiveVisibleCount()
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	currentPage := (v.viewportOffset / pageSize) + 1
	if currentPage > totalPages {
		currentPage = totalPages
	}

	indicator := fmt.Sprintf(" Page %d/%d (%d-%d of %d)", currentPage, totalPages, start+1, end, total)
	return v.theme.MutedText.Render(indicator)
}

func (v *OutlineView) searchState() treesearch.State {
	if v.search == nil {
		return treesearch.StateIdle
	}
	return v.search.State()
}

// renderRow renders one row: tree prefix, fold indicator, kind icon, label
// with any match decoration, then status and count badges right-aligned.
func (v *OutlineView) renderRow(id treesearch.NodeID, isSelected bool) string {
	n := v.outline.Node(id)
	if n == nil {
		return ""
	}

	r := v.theme.Renderer
	width := v.width
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width--

	var leftSide strings.Builder

	prefix := v.buildTreePrefix(id)
	leftSide.WriteString(v.theme.MutedText.Render(prefix))
	prefixWidth := lipgloss.Width(prefix)

	indicator := v.getExpandIndicator(n)
	leftSide.WriteString(v.theme.SecondaryText.Render(indicator))
	leftSide.WriteString(" ")

	icon := n.Kind.Icon()
	iconWidth := lipgloss.Width(icon)
	leftSide.WriteString(r.NewStyle().Foreground(v.theme.GetKindColor(string(n.Kind))).Render(icon))
	leftSide.WriteString(" ")

	// ── Right side: status and descendant match count ──
	deco := rowDecoration{}
	dimmed := false
	if n.CustomPaint() {
		deco = decorationFor(v.outline, id, width)
	}
	if v.searchState() == treesearch.StateFiltering && v.search.Index().Count(id) == 0 {
		// Context rows kept under a matching ancestor.
		dimmed = true
	}

	var rightParts []string
	if badge := RenderStatusBadge(string(n.Status)); badge != "" && width > 50 {
		rightParts = append(rightParts, badge)
	}
	if deco.badge != "" {
		rightParts = append(rightParts, v.theme.CountBadge.Render(deco.badge))
	}
	rightSide := strings.Join(rightParts, " ")
	rightWidth := lipgloss.Width(rightSide)

	// ── Label fills the remaining space ──
	fixedWidth := prefixWidth + 1 + 1 + iconWidth + 1
	labelWidth := width - fixedWidth - rightWidth - 2
	if labelWidth < 5 {
		labelWidth = 5
	}
	label := truncateRunesHelper(n.Label, labelWidth, "…")

	labelStyle := v.theme.Base
	if isSelected {
		labelStyle = r.NewStyle().Foreground(v.theme.Primary).Bold(true)
	} else if dimmed {
		labelStyle = v.theme.DimmedText
	}

	if deco.hasSpan && !isSelected {
		before, inside, after := splitLabelSpan(label, deco.spanStart, deco.spanWidth)
		leftSide.WriteString(labelStyle.Render(before))
		leftSide.WriteString(v.theme.MatchSpan.Render(inside))
		leftSide.WriteString(labelStyle.Render(after))
	} else {
		leftSide.WriteString(labelStyle.Render(label))
	}

	leftLen := lipgloss.Width(leftSide.String())
	padding := width - leftLen - rightWidth
	if padding < 0 {
		padding = 0
	}

	row := leftSide.String() + strings.Repeat(" ", padding) + rightSide

	if isSelected {
		row = v.theme.Selected.Render(row)
	}
	return row
}

// buildTreePrefix builds the indentation and branch characters for a row.
func (v *OutlineView) buildTreePrefix(id treesearch.NodeID) string {
	parent := v.outline.Parent(id)
	if parent == treesearch.NoNode {
		return ""
	}

	// Walk from the parent up, marking levels that still have siblings
	// below so their vertical guide continues.
	var guides []bool
	for anc := parent; ; {
		ancParent := v.outline.Parent(anc)
		if ancParent == treesearch.NoNode {
			break
		}
		guides = append(guides, v.hasVisibleSiblingBelow(anc))
		anc = ancParent
	}

	var sb strings.Builder
	for i := len(guides) - 1; i >= 0; i-- {
		if guides[i] {
			sb.WriteString("│   ")
		} else {
			sb.WriteString("    ")
		}
	}

	if v.hasVisibleSiblingBelow(id) {
		sb.WriteString("├── ")
	} else {
		sb.WriteString("└── ")
	}
	return sb.String()
}

// hasVisibleSiblingBelow reports whether any later sibling of id survives
// the current filter, which decides between the ├ and └ branch glyphs.
func (v *OutlineView) hasVisibleSiblingBelow(id treesearch.NodeID) bool {
	parent := v.outline.Parent(id)
	if parent == treesearch.NoNode {
		return false
	}
	siblings := v.outline.Children(parent)
	seen := false
	for _, s := range siblings {
		if s == id {
			seen = true
			continue
		}
		if !seen {
			continue
		}
		if n := v.outline.Node(s); n != nil && n.Visible() {
			return true
		}
	}
	return false
}

func (v *OutlineView) getExpandIndicator(n *model.Node) string {
	if !n.HasChildren() {
		return "•"
	}
	if n.Collapsed() {
		return "▸"
	}
	return "▾"
}
