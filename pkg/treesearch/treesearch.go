// Package treesearch implements incremental search over a mutable,
// externally-owned tree of labeled nodes.
//
// The engine computes which nodes match a fuzzy multi-word query, propagates
// match counts up the ancestor chain, and exposes two consumable views: a
// highlight view (paint decorations marking the matched span and a per-row
// descendant count) and a filter view (hiding branches with no match in their
// subtree). The pass is designed to run on every keystroke and every
// structural edit, so it is cache-aware rather than a naive rebuild:
// snapshots are reused until the host declares a structural change, and paint
// hooks already installed are never reinstalled.
//
// The host owns the tree. The engine reaches it only through the Tree
// interface using stable NodeID handles, never Go pointers, and tolerates
// nodes disappearing between calls. Everything here is single-threaded and
// synchronous: Update runs to completion on the caller's goroutine, which is
// expected to be the host's event loop.
package treesearch

// NodeID is a stable opaque handle to one node of the host tree. Handles
// survive structural edits; a handle whose node was destroyed simply stops
// resolving (the host returns zero values for it).
type NodeID int64

// NoNode is the null handle.
const NoNode NodeID = -1

// Mode selects what the search pass does with its results.
type Mode int

const (
	// ModeHighlight decorates matching rows and shows descendant counts
	// without hiding anything.
	ModeHighlight Mode = iota
	// ModeFilter additionally hides branches with no matching node in
	// their subtree.
	ModeFilter
)

func (m Mode) String() string {
	switch m {
	case ModeHighlight:
		return "highlight"
	case ModeFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// State is the controller's current phase.
type State int

const (
	// StateIdle means the panel is hidden or the query is empty; no
	// decorations and no filtering are in effect.
	StateIdle State = iota
	// StateHighlighting means a query is active in highlight mode.
	StateHighlighting
	// StateFiltering means a query is active in filter mode.
	StateFiltering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHighlighting:
		return "highlighting"
	case StateFiltering:
		return "filtering"
	default:
		return "unknown"
	}
}

// Tree is the engine's view of the host's tree widget. All mutation of the
// underlying nodes stays on the host side; the engine only reads structure
// and labels and writes visibility, collapse, selection and paint hooks.
//
// Implementations must tolerate handles to destroyed nodes: reads return
// zero values, writes are no-ops. SetPaintHook(n, nil) restores plain-text
// rendering for the row; a non-nil hook switches the row to custom painting.
type Tree interface {
	// Root returns the root handle, or NoNode for an empty tree.
	Root() NodeID
	// Parent returns the parent handle, or NoNode for the root.
	Parent(n NodeID) NodeID
	// Children returns the ordered child handles.
	Children(n NodeID) []NodeID
	// Label returns the node's display text.
	Label(n NodeID) string
	// IconWidth returns the rendered width of the node's icon column in
	// the host's display units.
	IconWidth(n NodeID) float64

	// PaintHook returns the currently-installed paint hook, or nil when
	// the row renders as plain text.
	PaintHook(n NodeID) PaintHook
	// SetPaintHook installs or clears the row's paint hook.
	SetPaintHook(n NodeID, h PaintHook)

	SetVisible(n NodeID, visible bool)
	SetCollapsed(n NodeID, collapsed bool)
	// Select makes n the single selected node, clearing any prior
	// selection.
	Select(n NodeID)
	// Selected returns the selected node, or NoNode.
	Selected() NodeID
	// ScrollTo asks the host to bring n into view on the next render.
	ScrollTo(n NodeID)
	// RequestRedraw asks the host to repaint.
	RequestRedraw()
}

// Panel is the engine's view of the search input widget. The engine does not
// own or construct the input; it only reads the current query and mode.
type Panel interface {
	// Query returns the current search text.
	Query() string
	// Mode returns the current search mode.
	Mode() Mode
	// Visible reports whether the panel is shown. A hidden panel
	// deactivates the search entirely.
	Visible() bool
}

// Metrics answers font and theme measurement queries for one rendering
// surface. The terminal host measures in cells; the image exporter measures
// in pixels. Paint hooks are written against this interface only, so the
// same geometry drives both surfaces.
type Metrics interface {
	// StringWidth returns the rendered width of s at the given font size.
	StringWidth(s string, size float64) float64
	// Ascent returns the font ascent at the given size.
	Ascent(size float64) float64
	// Descent returns the font descent at the given size.
	Descent(size float64) float64
	// HSeparation returns the theme's horizontal cell separation.
	HSeparation() float64
	// RectPad returns the total horizontal and vertical padding added
	// around a highlight rectangle (half on each side).
	RectPad() (x, y float64)
}

// Rect is an axis-aligned rectangle in the painter's units.
type Rect struct {
	X, Y, W, H float64
}

// StyleRole names a themed drawing style. The painter maps roles to its own
// theme; the engine never sees concrete colors.
type StyleRole int

const (
	// StyleHighlightRect is the rectangle drawn behind a matched span.
	StyleHighlightRect StyleRole = iota
	// StyleCountBadge is the per-row descendant match count.
	StyleCountBadge
)

// Row describes the row a paint hook is drawing into, in painter units.
// X/Y is the row origin, Width/Height its extent, FontSize the label's font
// size and IconWidth the rendered icon column width for this row.
type Row struct {
	X, Y      float64
	Width     float64
	Height    float64
	FontSize  float64
	IconWidth float64
}

// Painter is the drawing surface handed to paint hooks. Text y coordinates
// are baselines.
type Painter interface {
	Metrics() Metrics
	FillRect(r Rect, role StyleRole)
	Text(x, y float64, s string, role StyleRole, size float64)
}

// PaintHook draws one row's custom decoration. Hooks are compared with ==
// to detect whether a cached hook is still installed, so implementations
// must be pointer types.
type PaintHook interface {
	Paint(p Painter, n NodeID, row Row)
}
