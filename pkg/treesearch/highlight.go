package treesearch

import (
	"strconv"

	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// highlightHook is the paint decoration the engine installs on counted rows.
// It keeps no per-pass state: the match span is recomputed from the live
// label at paint time and the count is read from the index, so one installed
// hook stays correct while the query and counts change underneath it. prev
// is the hook the row carried before decoration; it is always invoked first
// so unrelated decorations keep rendering.
type highlightHook struct {
	tree Tree
	ix   *Index
	prev PaintHook
}

func (h *highlightHook) Paint(p Painter, n NodeID, row Row) {
	if h.prev != nil {
		h.prev.Paint(p, n, row)
	}

	m := p.Metrics()
	if m == nil {
		// Surface without measurements; skip this row's decoration
		// rather than aborting the pass.
		debug.Log("highlight: painter has no metrics, skipping node %d", n)
		return
	}

	count := h.ix.Count(n)
	if count == 0 {
		return
	}

	if h.ix.IsMatch(n) {
		h.paintSpan(p, m, n, row)
	}

	num := strconv.Itoa(count)
	size := row.FontSize * 0.75
	numW := m.StringWidth(num, size)
	x := row.X + row.Width - numW - m.HSeparation()
	y := row.Y + row.Height/2 + m.Descent(size)
	p.Text(x, y, num, StyleCountBadge, size)
}

// paintSpan draws the rectangle behind the matched part of the label. The
// horizontal offset accounts for the icon column and the theme separation;
// the vertical placement centers the font's ascent+descent box in the row.
func (h *highlightHook) paintSpan(p Painter, m Metrics, n NodeID, row Row) {
	label := h.tree.Label(n)
	sp := Bounds(label, h.ix.Query())
	if !sp.Hit() {
		// The label changed since the index was computed; nothing to
		// mark on this row anymore.
		return
	}

	rs := []rune(label)
	before := string(rs[:sp.Lower])
	inside := string(rs[sp.Lower:sp.Upper])

	beforeW := m.StringWidth(before, row.FontSize)
	insideW := m.StringWidth(inside, row.FontSize)
	fontH := m.Ascent(row.FontSize) + m.Descent(row.FontSize)
	padX, padY := m.RectPad()

	r := Rect{
		X: row.X + row.IconWidth + m.HSeparation() + beforeW - padX/2,
		Y: row.Y + (row.Height-fontH)/2 - padY/2,
		W: insideW + padX,
		H: fontH + padY,
	}
	p.FillRect(r, StyleHighlightRect)
}

// ApplyHighlight installs the highlight hook on every node with a non-zero
// count, wrapping whatever hook the row already carries. If the row already
// carries this engine's cached hook, the install is skipped; this is what
// makes repeated passes with unchanged inputs churn-free. Returns the number
// of hooks newly installed.
func ApplyHighlight(t Tree, snap *Snapshot, ix *Index, cache *Cache) int {
	defer metrics.Timer(metrics.HighlightApply)()

	installed := 0
	for _, n := range snap.RenderOrder() {
		if ix.Count(n) == 0 {
			continue
		}

		cur := t.PaintHook(n)
		if cached, ok := cache.hooks[n]; ok && cached == cur {
			metrics.DecorationCacheMetric.Hit()
			continue
		}

		hook := &highlightHook{tree: t, ix: ix, prev: cur}
		t.SetPaintHook(n, hook)
		cache.hooks[n] = hook
		metrics.DecorationCacheMetric.Miss()
		installed++
	}
	return installed
}
