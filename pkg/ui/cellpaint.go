package ui

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// CellMetrics measures strings in terminal cells. The size argument the
// engine passes is a font size on pixel surfaces; cells cannot scale, so
// every size renders at cell width and a full-size row is one cell tall.
type CellMetrics struct{}

func (CellMetrics) StringWidth(s string, size float64) float64 {
	return float64(runewidth.StringWidth(s))
}

func (CellMetrics) Ascent(size float64) float64 { return 1 }

func (CellMetrics) Descent(size float64) float64 { return 0 }

// HSeparation is the single space between the icon column and the label.
func (CellMetrics) HSeparation() float64 { return 1 }

// RectPad is zero: a cell-aligned rectangle cannot bleed half-cells of
// padding around the text it marks.
func (CellMetrics) RectPad() (x, y float64) { return 0, 0 }

// rowDecoration is what one paint hook drew for one row, translated back
// into cell terms the renderer can apply: a styled span of the label and a
// right-aligned count badge.
type rowDecoration struct {
	hasSpan   bool
	spanStart int // cells from the start of the label text
	spanWidth int
	badge     string
}

// cellPainter implements treesearch.Painter for a single outline row. It
// does not draw; it records the paint calls so the string renderer can
// replay them as lipgloss styles.
type cellPainter struct {
	metrics CellMetrics
	row     treesearch.Row
	deco    rowDecoration
}

func (p *cellPainter) Metrics() treesearch.Metrics { return p.metrics }

func (p *cellPainter) FillRect(r treesearch.Rect, role treesearch.StyleRole) {
	if role != treesearch.StyleHighlightRect {
		return
	}
	labelOrigin := p.row.X + p.row.IconWidth + p.metrics.HSeparation()
	p.deco.hasSpan = true
	p.deco.spanStart = int(math.Round(r.X - labelOrigin))
	p.deco.spanWidth = int(math.Round(r.W))
}

func (p *cellPainter) Text(x, y float64, s string, role treesearch.StyleRole, size float64) {
	if role != treesearch.StyleCountBadge {
		return
	}
	p.deco.badge = s
}

// decorationFor replays a row's installed paint hook against the cell
// surface. Rows without a hook return the zero decoration.
func decorationFor(t treesearch.Tree, n treesearch.NodeID, rowWidth int) rowDecoration {
	hook := t.PaintHook(n)
	if hook == nil {
		return rowDecoration{}
	}
	p := &cellPainter{
		row: treesearch.Row{
			X:         0,
			Y:         0,
			Width:     float64(rowWidth),
			Height:    1,
			FontSize:  1,
			IconWidth: t.IconWidth(n),
		},
	}
	hook.Paint(p, n, p.row)
	return p.deco
}

// splitLabelSpan cuts label at the given cell offsets, returning the text
// before, inside and after the span. Span bounds are clamped to the label;
// a span that starts past the end of the text (after truncation, say)
// returns the whole label as before.
func splitLabelSpan(label string, startCell, widthCells int) (before, inside, after string) {
	if widthCells <= 0 || startCell < 0 {
		return label, "", ""
	}

	rs := []rune(label)
	cells := 0
	lo, hi := len(rs), len(rs)
	for i, r := range rs {
		if cells >= startCell && lo == len(rs) {
			lo = i
		}
		if cells >= startCell+widthCells {
			hi = i
			break
		}
		cells += runewidth.RuneWidth(r)
	}
	if lo >= len(rs) {
		return label, "", ""
	}
	if hi < lo {
		hi = lo
	}
	return string(rs[:lo]), string(rs[lo:hi]), string(rs[hi:])
}
