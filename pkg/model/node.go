// Package model holds the outline data the rest of canopy operates on: an
// arena of nodes addressed by stable handles, with parent/child edges kept
// as handle relations rather than pointers. The arena implements
// treesearch.Tree, so the search engine can borrow it without owning it.
package model

import "github.com/vanderheijden86/canopy/pkg/treesearch"

// Kind classifies a node for icon and style selection.
type Kind string

const (
	KindSection Kind = "section"
	KindTask    Kind = "task"
	KindNote    Kind = "note"
	KindLink    Kind = "link"
)

// ParseKind maps a source-file kind string onto a known Kind. Unknown or
// empty strings come back as KindNote with ok=false so loaders can decide
// whether to warn.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindSection, KindTask, KindNote, KindLink:
		return Kind(s), true
	default:
		return KindNote, false
	}
}

// Icon returns the single-cell glyph terminal hosts render for the kind.
func (k Kind) Icon() string {
	switch k {
	case KindSection:
		return "▣"
	case KindTask:
		return "◉"
	case KindLink:
		return "↗"
	default:
		return "•"
	}
}

// Status tracks progress on task-like nodes.
type Status string

const (
	StatusNone    Status = ""
	StatusOpen    Status = "open"
	StatusDone    Status = "done"
	StatusBlocked Status = "blocked"
)

// ParseStatus maps a source-file status string onto a known Status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNone, StatusOpen, StatusDone, StatusBlocked:
		return Status(s), true
	default:
		return StatusNone, false
	}
}

// Node is one outline entry. Data fields are exported; the structural links
// and render flags are owned by the Outline arena and reached through its
// methods, which keeps parent/child edges and the selection model
// consistent.
type Node struct {
	ID     treesearch.NodeID
	Ref    string // stable identifier from the source file, "" for synthesized roots
	Label  string
	Kind   Kind
	Status Status
	Tags   []string

	parent   treesearch.NodeID
	children []treesearch.NodeID

	visible   bool
	collapsed bool
	custom    bool // custom-paint cell mode, as opposed to plain text
	hook      treesearch.PaintHook
}

// Visible reports whether the node survived the last filter pass.
func (n *Node) Visible() bool {
	return n.visible
}

// Collapsed reports whether the node hides its children.
func (n *Node) Collapsed() bool {
	return n.collapsed
}

// CustomPaint reports whether the row renders through a paint hook instead
// of plain text.
func (n *Node) CustomPaint() bool {
	return n.custom
}

// Hook returns the installed paint hook, or nil.
func (n *Node) Hook() treesearch.PaintHook {
	return n.hook
}

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}
