// Package export renders outline snapshots to static images. The renderer
// measures in pixels but reuses the exact paint-hook pipeline the terminal
// uses: each decorated row's hook is replayed against a pixel Painter, so
// match spans and count badges land where the engine put them, not where a
// second implementation guesses.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// SnapshotOptions controls outline snapshot export.
type SnapshotOptions struct {
	Format  string // "svg" or "png" (case-insensitive); inferred from OutPath when empty
	Dir     string // output directory for generated names; default "."
	OutPath string // explicit output path; overrides Dir
	Title   string // title in the summary block; defaults to the root label
}

// WriteTreeSnapshot renders the outline's visible rows, with whatever search
// decorations are currently installed, to a PNG or SVG file. It returns the
// path written. The index supplies the summary counts; pass the live index
// from the controller so the header and the painted badges agree.
func WriteTreeSnapshot(o *model.Outline, ix *treesearch.Index, opts SnapshotOptions) (string, error) {
	defer metrics.Timer(metrics.ImageExport)()

	if o == nil || o.Root() == treesearch.NoNode {
		return "", fmt.Errorf("no outline to export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.OutPath)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "png"
		}
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}

	outPath := opts.OutPath
	if outPath == "" {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		name := fmt.Sprintf("canopy-%s.%s", time.Now().Format("20060102-150405"), format)
		outPath = filepath.Join(dir, name)
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create parent dir: %w", err)
		}
	}

	scene := buildScene(o, ix, opts.Title)

	switch format {
	case "svg":
		if err := renderTreeSVG(outPath, scene); err != nil {
			return "", err
		}
	case "png":
		if err := renderTreePNG(outPath, scene); err != nil {
			return "", err
		}
	}
	return outPath, nil
}

// --- pixel measurement and paint replay ------------------------------------

// Face7x13 geometry. The face is a single-size bitmap font, so the size
// argument of the Metrics interface cannot change the rendered glyphs; it is
// honored in SVG font-size attributes and ignored for PNG rasterization.
const (
	glyphAdvance = 7.0
	glyphAscent  = 11.0
	glyphDescent = 2.0
	baseFontPx   = 13.0
)

// pixelMetrics measures rendered text for the image surface.
type pixelMetrics struct{}

func (pixelMetrics) StringWidth(s string, size float64) float64 {
	return float64(len([]rune(s))) * glyphAdvance
}

func (pixelMetrics) Ascent(size float64) float64  { return glyphAscent }
func (pixelMetrics) Descent(size float64) float64 { return glyphDescent }
func (pixelMetrics) HSeparation() float64         { return 6 }
func (pixelMetrics) RectPad() (x, y float64)      { return 6, 4 }

type pixelText struct {
	X, Y float64
	S    string
	Size float64
}

// pixelPainter records the primitives a paint hook emits for one row. The
// renderer then draws them in its own order: rects under the label, badge
// text over it.
type pixelPainter struct {
	m     pixelMetrics
	rects []treesearch.Rect
	texts []pixelText
}

func (p *pixelPainter) Metrics() treesearch.Metrics { return p.m }

func (p *pixelPainter) FillRect(r treesearch.Rect, role treesearch.StyleRole) {
	if role == treesearch.StyleHighlightRect {
		p.rects = append(p.rects, r)
	}
}

func (p *pixelPainter) Text(x, y float64, s string, role treesearch.StyleRole, size float64) {
	if role == treesearch.StyleCountBadge {
		p.texts = append(p.texts, pixelText{X: x, Y: y, S: s, Size: size})
	}
}

// --- scene construction ----------------------------------------------------

// Layout constants, in pixels.
const (
	leftMargin   = 28.0
	rightMargin  = 28.0
	indentStep   = 18.0
	rowHeight    = 22.0
	iconBox      = 10.0
	headerHeight = 84.0
	bottomPad    = 24.0
	badgeRoom    = 48.0
	legendWidth  = 150
	legendHeight = 92
)

type sceneRow struct {
	ID       treesearch.NodeID
	Depth    int
	Label    string
	Status   model.Status
	Kind     model.Kind
	Selected bool
	Row      treesearch.Row
	Rects    []treesearch.Rect
	Badges   []pixelText
}

type sceneSummary struct {
	Title   string
	Rows    int
	Matches int
	Query   string
}

type scene struct {
	Rows    []sceneRow
	Width   int
	Height  int
	Summary sceneSummary
}

// buildScene flattens the outline's visible rows, assigns pixel geometry and
// replays each decorated row's paint hook to capture its primitives.
func buildScene(o *model.Outline, ix *treesearch.Index, title string) scene {
	type flatRow struct {
		id    treesearch.NodeID
		depth int
	}
	var flat []flatRow
	var walk func(id treesearch.NodeID, depth int)
	walk = func(id treesearch.NodeID, depth int) {
		n := o.Node(id)
		if n == nil || !n.Visible() {
			return
		}
		flat = append(flat, flatRow{id: id, depth: depth})
		if n.Collapsed() {
			return
		}
		for _, c := range o.Children(id) {
			walk(c, depth+1)
		}
	}
	walk(o.Root(), 0)

	m := pixelMetrics{}

	// Width fits the longest row plus badge room.
	contentW := 640.0
	for _, fr := range flat {
		n := o.Node(fr.id)
		x := leftMargin + float64(fr.depth)*indentStep
		w := x + iconBox + m.HSeparation() + m.StringWidth(n.Label, baseFontPx)
		if tag := statusTag(n.Status); tag != "" {
			w += m.HSeparation() + m.StringWidth(tag, baseFontPx)
		}
		w += badgeRoom + rightMargin
		if w > contentW {
			contentW = w
		}
	}
	width := int(contentW)
	height := int(headerHeight + float64(len(flat))*rowHeight + bottomPad)
	if height < 320 {
		height = 320
	}

	selected := o.Selected()
	rows := make([]sceneRow, 0, len(flat))
	for i, fr := range flat {
		n := o.Node(fr.id)
		x := leftMargin + float64(fr.depth)*indentStep
		row := treesearch.Row{
			X:         x,
			Y:         headerHeight + float64(i)*rowHeight,
			Width:     float64(width) - rightMargin - x,
			Height:    rowHeight,
			FontSize:  baseFontPx,
			IconWidth: iconBox,
		}

		sr := sceneRow{
			ID:       fr.id,
			Depth:    fr.depth,
			Label:    n.Label,
			Status:   n.Status,
			Kind:     n.Kind,
			Selected: fr.id == selected,
			Row:      row,
		}

		if n.CustomPaint() {
			if hook := n.Hook(); hook != nil {
				p := &pixelPainter{}
				hook.Paint(p, fr.id, row)
				sr.Rects = p.rects
				sr.Badges = p.texts
			}
		}
		rows = append(rows, sr)
	}

	if strings.TrimSpace(title) == "" {
		title = o.Label(o.Root())
	}
	summary := sceneSummary{Title: title, Rows: len(rows)}
	if ix != nil {
		summary.Matches = ix.Total()
		summary.Query = ix.Query()
	}

	return scene{Rows: rows, Width: width, Height: height, Summary: summary}
}

func statusTag(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return "[open]"
	case model.StatusDone:
		return "[done]"
	case model.StatusBlocked:
		return "[blocked]"
	default:
		return ""
	}
}

// --- palette ---------------------------------------------------------------

var (
	snapBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	snapHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	snapLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
	snapStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	snapText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	snapSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	snapGuide    = color.RGBA{0xc5, 0xcc, 0xd6, 0xff}
	snapMatchBG  = color.RGBA{0xff, 0xe9, 0xa8, 0xff}
	snapBadge    = color.RGBA{0x0e, 0x74, 0x90, 0xff}
	snapSelected = color.RGBA{0x8d, 0x9d, 0xf5, 0xff}

	snapSection = color.RGBA{0x5b, 0x5b, 0xd6, 0xff}
	snapTask    = color.RGBA{0x2f, 0x9e, 0x44, 0xff}
	snapNote    = color.RGBA{0x86, 0x8e, 0x96, 0xff}
	snapLink    = color.RGBA{0x10, 0x98, 0xad, 0xff}
)

func kindFill(k model.Kind) color.RGBA {
	switch k {
	case model.KindSection:
		return snapSection
	case model.KindTask:
		return snapTask
	case model.KindLink:
		return snapLink
	default:
		return snapNote
	}
}

func cssColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// --- PNG rendering ---------------------------------------------------------

func renderTreePNG(path string, sc scene) error {
	dc := gg.NewContext(sc.Width, sc.Height)
	dc.SetColor(snapBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	// header
	dc.SetColor(snapHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(sc.Width)-32, headerHeight-24, 10)
	dc.Fill()
	drawSnapSummary(dc, sc.Summary)
	drawSnapLegend(dc, sc.Width)

	for _, r := range sc.Rows {
		drawSnapRowPNG(dc, r)
	}

	return dc.SavePNG(path)
}

func drawSnapSummary(dc *gg.Context, s sceneSummary) {
	dc.SetColor(snapText)
	dc.DrawString(truncate(s.Title, 60), 32, 40)
	dc.SetColor(snapSubtle)
	line := fmt.Sprintf("rows: %d", s.Rows)
	if s.Query != "" {
		line += fmt.Sprintf("  matches: %d  query: %q", s.Matches, truncate(s.Query, 40))
	}
	dc.DrawString(line, 32, 60)
}

func drawSnapLegend(dc *gg.Context, width int) {
	x := float64(width - legendWidth - 20)
	y := 22.0
	dc.SetColor(snapLegendBG)
	dc.DrawRoundedRectangle(x, y, legendWidth, legendHeight, 8)
	dc.Fill()
	dc.SetColor(snapStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, legendWidth, legendHeight, 8)
	dc.Stroke()

	rows := []struct {
		c     color.RGBA
		label string
	}{
		{snapSection, "section"},
		{snapTask, "task"},
		{snapNote, "note"},
		{snapLink, "link"},
	}
	for i, r := range rows {
		ry := y + 16 + float64(i)*18
		dc.SetColor(r.c)
		dc.DrawRoundedRectangle(x+12, ry-8, 10, 10, 2)
		dc.Fill()
		dc.SetColor(snapSubtle)
		dc.DrawString(r.label, x+30, ry+2)
	}
}

func drawSnapRowPNG(dc *gg.Context, r sceneRow) {
	cy := r.Row.Y + r.Row.Height/2
	baseline := cy + glyphDescent

	// indent guide
	if r.Depth > 0 {
		dc.SetColor(snapGuide)
		dc.SetLineWidth(1)
		dc.DrawLine(r.Row.X-indentStep+6, cy, r.Row.X-4, cy)
		dc.Stroke()
	}

	// selection frame
	if r.Selected {
		dc.SetColor(snapSelected)
		dc.SetLineWidth(1.5)
		dc.DrawRoundedRectangle(r.Row.X-4, r.Row.Y+1, r.Row.Width+8, r.Row.Height-2, 4)
		dc.Stroke()
	}

	// hook rects go under the label
	for _, rect := range r.Rects {
		dc.SetColor(snapMatchBG)
		dc.DrawRoundedRectangle(rect.X, rect.Y, rect.W, rect.H, 3)
		dc.Fill()
	}

	drawKindIconPNG(dc, r.Kind, r.Row.X, cy)

	labelX := r.Row.X + r.Row.IconWidth + pixelMetrics{}.HSeparation()
	dc.SetColor(snapText)
	dc.DrawString(r.Label, labelX, baseline)

	if tag := statusTag(r.Status); tag != "" {
		tagX := labelX + pixelMetrics{}.StringWidth(r.Label, baseFontPx) + pixelMetrics{}.HSeparation()
		dc.SetColor(snapSubtle)
		dc.DrawString(tag, tagX, baseline)
	}

	// badge text over everything
	for _, t := range r.Badges {
		dc.SetColor(snapBadge)
		dc.DrawString(t.S, t.X, t.Y)
	}
}

// drawKindIconPNG draws the kind marker as a shape. Face7x13 has no glyphs
// for the terminal icons, so shapes stand in for them.
func drawKindIconPNG(dc *gg.Context, k model.Kind, x, cy float64) {
	c := kindFill(k)
	dc.SetColor(c)
	switch k {
	case model.KindSection:
		dc.DrawRoundedRectangle(x, cy-iconBox/2, iconBox, iconBox, 2)
		dc.Fill()
	case model.KindTask:
		dc.DrawCircle(x+iconBox/2, cy, iconBox/2)
		dc.Fill()
	case model.KindLink:
		dc.NewSubPath()
		dc.MoveTo(x, cy+iconBox/2)
		dc.LineTo(x+iconBox, cy-iconBox/2)
		dc.LineTo(x+iconBox, cy+iconBox/2)
		dc.ClosePath()
		dc.Fill()
	default:
		dc.DrawCircle(x+iconBox/2, cy, 2.5)
		dc.Fill()
	}
}

// --- SVG rendering ---------------------------------------------------------

func renderTreeSVG(path string, sc scene) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeTreeSVG(file, sc)
}

func writeTreeSVG(w io.Writer, sc scene) error {
	canvas := svg.New(w)
	canvas.Start(sc.Width, sc.Height)
	canvas.Rect(0, 0, sc.Width, sc.Height, "fill:"+cssColor(snapBackdrop))
	canvas.Roundrect(16, 16, sc.Width-32, int(headerHeight-24), 10, 10, "fill:"+cssColor(snapHeaderBG))

	canvas.Text(32, 40, truncate(sc.Summary.Title, 60),
		fmt.Sprintf("fill:%s;font-size:15px;font-family:monospace;font-weight:bold", cssColor(snapText)))
	line := fmt.Sprintf("rows: %d", sc.Summary.Rows)
	if sc.Summary.Query != "" {
		line += fmt.Sprintf("  matches: %d  query: %q", sc.Summary.Matches, truncate(sc.Summary.Query, 40))
	}
	canvas.Text(32, 60, line,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", cssColor(snapSubtle)))

	drawSnapLegendSVG(canvas, sc.Width)

	for _, r := range sc.Rows {
		drawSnapRowSVG(canvas, r)
	}

	canvas.End()
	return nil
}

func drawSnapLegendSVG(canvas *svg.SVG, width int) {
	x := width - legendWidth - 20
	y := 22
	canvas.Roundrect(x, y, legendWidth, legendHeight, 8, 8,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", cssColor(snapLegendBG), cssColor(snapStroke)))
	rows := []struct {
		c     color.RGBA
		label string
	}{
		{snapSection, "section"},
		{snapTask, "task"},
		{snapNote, "note"},
		{snapLink, "link"},
	}
	for i, r := range rows {
		ry := y + 16 + i*18
		canvas.Roundrect(x+12, ry-8, 10, 10, 2, 2, "fill:"+cssColor(r.c))
		canvas.Text(x+30, ry+2, r.label,
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", cssColor(snapSubtle)))
	}
}

func drawSnapRowSVG(canvas *svg.SVG, r sceneRow) {
	cy := int(r.Row.Y + r.Row.Height/2)
	baseline := cy + int(glyphDescent)

	if r.Depth > 0 {
		canvas.Line(int(r.Row.X-indentStep+6), cy, int(r.Row.X-4), cy,
			fmt.Sprintf("stroke:%s;stroke-width:1", cssColor(snapGuide)))
	}

	if r.Selected {
		canvas.Roundrect(int(r.Row.X-4), int(r.Row.Y+1), int(r.Row.Width+8), int(r.Row.Height-2), 4, 4,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", cssColor(snapSelected)))
	}

	for _, rect := range r.Rects {
		canvas.Roundrect(int(rect.X), int(rect.Y), int(rect.W), int(rect.H), 3, 3,
			"fill:"+cssColor(snapMatchBG))
	}

	drawKindIconSVG(canvas, r.Kind, int(r.Row.X), cy)

	labelX := int(r.Row.X + r.Row.IconWidth + pixelMetrics{}.HSeparation())
	canvas.Text(labelX, baseline, r.Label,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", cssColor(snapText)))

	if tag := statusTag(r.Status); tag != "" {
		tagX := labelX + int(pixelMetrics{}.StringWidth(r.Label, baseFontPx)+pixelMetrics{}.HSeparation())
		canvas.Text(tagX, baseline, tag,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", cssColor(snapSubtle)))
	}

	for _, t := range r.Badges {
		size := int(t.Size)
		if size < 8 {
			size = 8
		}
		canvas.Text(int(t.X), int(t.Y), t.S,
			fmt.Sprintf("fill:%s;font-size:%dpx;font-family:monospace;font-weight:bold", cssColor(snapBadge), size))
	}
}

func drawKindIconSVG(canvas *svg.SVG, k model.Kind, x, cy int) {
	fill := "fill:" + cssColor(kindFill(k))
	half := int(iconBox / 2)
	switch k {
	case model.KindSection:
		canvas.Roundrect(x, cy-half, int(iconBox), int(iconBox), 2, 2, fill)
	case model.KindTask:
		canvas.Circle(x+half, cy, half, fill)
	case model.KindLink:
		canvas.Polygon(
			[]int{x, x + int(iconBox), x + int(iconBox)},
			[]int{cy + half, cy - half, cy + half},
			fill)
	default:
		canvas.Circle(x+half, cy, 2, fill)
	}
}
