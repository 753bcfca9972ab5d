package model

import (
	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// Outline is the arena owning every node of one loaded document. Handles
// stay valid across structural edits; methods called with a handle whose
// node was removed read as zero values and write as no-ops, which is what
// lets the search engine hold handles across reloads without lifetime
// hazards.
//
// Outline implements treesearch.Tree. It is not safe for concurrent use;
// the TUI mutates it from its update loop only.
type Outline struct {
	nodes  map[treesearch.NodeID]*Node
	byRef  map[string]treesearch.NodeID
	root   treesearch.NodeID
	nextID treesearch.NodeID

	selected treesearch.NodeID

	scrollTarget treesearch.NodeID
	redrawWanted bool
}

// NewOutline returns an empty outline.
func NewOutline() *Outline {
	return &Outline{
		nodes:        make(map[treesearch.NodeID]*Node),
		byRef:        make(map[string]treesearch.NodeID),
		root:         treesearch.NoNode,
		selected:     treesearch.NoNode,
		scrollTarget: treesearch.NoNode,
	}
}

// Len returns the number of nodes in the arena.
func (o *Outline) Len() int {
	return len(o.nodes)
}

// Node returns the node for a handle, or nil.
func (o *Outline) Node(id treesearch.NodeID) *Node {
	return o.nodes[id]
}

// ByRef resolves a source-file ref to a handle.
func (o *Outline) ByRef(ref string) (treesearch.NodeID, bool) {
	id, ok := o.byRef[ref]
	return id, ok
}

// ── Construction and mutation ──

func (o *Outline) alloc(ref, label string, kind Kind) *Node {
	id := o.nextID
	o.nextID++
	n := &Node{
		ID:      id,
		Ref:     ref,
		Label:   label,
		Kind:    kind,
		parent:  treesearch.NoNode,
		visible: true,
	}
	o.nodes[id] = n
	if ref != "" {
		o.byRef[ref] = id
	}
	return n
}

// AddRoot creates the root node. Returns NoNode if a root already exists.
func (o *Outline) AddRoot(ref, label string, kind Kind) treesearch.NodeID {
	if o.root != treesearch.NoNode {
		debug.Log("outline: AddRoot on outline that already has a root")
		return treesearch.NoNode
	}
	n := o.alloc(ref, label, kind)
	o.root = n.ID
	return n.ID
}

// AddChild appends a new node under parent. Returns NoNode for an unknown
// parent.
func (o *Outline) AddChild(parent treesearch.NodeID, ref, label string, kind Kind) treesearch.NodeID {
	p := o.nodes[parent]
	if p == nil {
		debug.Log("outline: AddChild under unknown parent %d", parent)
		return treesearch.NoNode
	}
	n := o.alloc(ref, label, kind)
	n.parent = parent
	p.children = append(p.children, n.ID)
	return n.ID
}

// InsertChild creates a new node under parent at position at, clamped to
// the child list bounds. Returns NoNode for an unknown parent.
func (o *Outline) InsertChild(parent treesearch.NodeID, at int, ref, label string, kind Kind) treesearch.NodeID {
	p := o.nodes[parent]
	if p == nil {
		return treesearch.NoNode
	}
	if at < 0 {
		at = 0
	}
	if at > len(p.children) {
		at = len(p.children)
	}
	n := o.alloc(ref, label, kind)
	n.parent = parent
	p.children = append(p.children, treesearch.NoNode)
	copy(p.children[at+1:], p.children[at:])
	p.children[at] = n.ID
	return n.ID
}

// Remove deletes the subtree rooted at id. Removing the root empties the
// outline. Selection and scroll target are cleared if they pointed inside
// the removed subtree.
func (o *Outline) Remove(id treesearch.NodeID) {
	n := o.nodes[id]
	if n == nil {
		return
	}

	if p := o.nodes[n.parent]; p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	if o.root == id {
		o.root = treesearch.NoNode
	}

	o.removeSubtree(id)
}

func (o *Outline) removeSubtree(id treesearch.NodeID) {
	n := o.nodes[id]
	if n == nil {
		return
	}
	for _, c := range n.children {
		o.removeSubtree(c)
	}
	if o.selected == id {
		o.selected = treesearch.NoNode
	}
	if o.scrollTarget == id {
		o.scrollTarget = treesearch.NoNode
	}
	if n.Ref != "" {
		delete(o.byRef, n.Ref)
	}
	delete(o.nodes, id)
}

// Relabel rewrites a node's text. Rewriting a row resets it to plain-text
// rendering, mirroring how tree widgets drop custom draw state on edit; the
// search controller's NotifyItemEdited re-installs its decoration
// afterwards.
func (o *Outline) Relabel(id treesearch.NodeID, label string) {
	n := o.nodes[id]
	if n == nil {
		return
	}
	n.Label = label
	n.hook = nil
	n.custom = false
}

// SetStatus updates the node's status.
func (o *Outline) SetStatus(id treesearch.NodeID, s Status) {
	if n := o.nodes[id]; n != nil {
		n.Status = s
	}
}

// Reparent moves the subtree at id under newParent, appended last. Moves
// that would create a cycle (newParent inside id's subtree) or touch the
// root are rejected.
func (o *Outline) Reparent(id, newParent treesearch.NodeID) bool {
	n := o.nodes[id]
	np := o.nodes[newParent]
	if n == nil || np == nil || id == o.root {
		return false
	}
	for a := newParent; a != treesearch.NoNode; a = o.nodes[a].parent {
		if a == id {
			return false
		}
	}

	if p := o.nodes[n.parent]; p != nil {
		for i, c := range p.children {
			if c == id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	n.parent = newParent
	np.children = append(np.children, id)
	return true
}

// Walk visits the outline pre-order, children in order. Returning false
// from fn skips the node's subtree.
func (o *Outline) Walk(fn func(n *Node, depth int) bool) {
	if o.root == treesearch.NoNode {
		return
	}
	o.walk(o.root, 0, fn)
}

func (o *Outline) walk(id treesearch.NodeID, depth int, fn func(n *Node, depth int) bool) {
	n := o.nodes[id]
	if n == nil {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range n.children {
		o.walk(c, depth+1, fn)
	}
}

// Path returns the labels from the root down to id, inclusive.
func (o *Outline) Path(id treesearch.NodeID) []string {
	var rev []string
	for cur := id; cur != treesearch.NoNode; {
		n := o.nodes[cur]
		if n == nil {
			break
		}
		rev = append(rev, n.Label)
		cur = n.parent
	}
	path := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// ConsumeScrollTarget returns and clears the pending scroll request.
func (o *Outline) ConsumeScrollTarget() treesearch.NodeID {
	t := o.scrollTarget
	o.scrollTarget = treesearch.NoNode
	return t
}

// ConsumeRedraw returns and clears the pending redraw request.
func (o *Outline) ConsumeRedraw() bool {
	r := o.redrawWanted
	o.redrawWanted = false
	return r
}

// ── treesearch.Tree implementation ──

// Root returns the root handle, or NoNode for an empty outline.
func (o *Outline) Root() treesearch.NodeID {
	return o.root
}

// Parent returns the parent handle, or NoNode.
func (o *Outline) Parent(id treesearch.NodeID) treesearch.NodeID {
	if n := o.nodes[id]; n != nil {
		return n.parent
	}
	return treesearch.NoNode
}

// Children returns the ordered child handles. Callers must not mutate the
// returned slice.
func (o *Outline) Children(id treesearch.NodeID) []treesearch.NodeID {
	if n := o.nodes[id]; n != nil {
		return n.children
	}
	return nil
}

// Label returns the node's text, "" for unknown handles.
func (o *Outline) Label(id treesearch.NodeID) string {
	if n := o.nodes[id]; n != nil {
		return n.Label
	}
	return ""
}

// IconWidth returns the icon column width in cells. Terminal hosts render
// single-cell kind glyphs; the image exporter supplies its own pixel
// geometry instead of asking the outline.
func (o *Outline) IconWidth(id treesearch.NodeID) float64 {
	if o.nodes[id] == nil {
		return 0
	}
	return 1
}

// PaintHook returns the row's installed hook, or nil.
func (o *Outline) PaintHook(id treesearch.NodeID) treesearch.PaintHook {
	if n := o.nodes[id]; n != nil {
		return n.hook
	}
	return nil
}

// SetPaintHook installs or clears the row's hook. A non-nil hook switches
// the row to custom painting; nil restores plain text.
func (o *Outline) SetPaintHook(id treesearch.NodeID, h treesearch.PaintHook) {
	if n := o.nodes[id]; n != nil {
		n.hook = h
		n.custom = h != nil
	}
}

// SetVisible flips the row's filter visibility.
func (o *Outline) SetVisible(id treesearch.NodeID, visible bool) {
	if n := o.nodes[id]; n != nil {
		n.visible = visible
	}
}

// SetCollapsed folds or unfolds the node's children.
func (o *Outline) SetCollapsed(id treesearch.NodeID, collapsed bool) {
	if n := o.nodes[id]; n != nil {
		n.collapsed = collapsed
	}
}

// Select makes id the single selected node; unknown handles clear the
// selection.
func (o *Outline) Select(id treesearch.NodeID) {
	if o.nodes[id] == nil {
		o.selected = treesearch.NoNode
		return
	}
	o.selected = id
}

// Selected returns the selected handle, or NoNode.
func (o *Outline) Selected() treesearch.NodeID {
	return o.selected
}

// ScrollTo records a scroll request for the widget to consume on its next
// render.
func (o *Outline) ScrollTo(id treesearch.NodeID) {
	if o.nodes[id] != nil {
		o.scrollTarget = id
	}
}

// RequestRedraw records a repaint request.
func (o *Outline) RequestRedraw() {
	o.redrawWanted = true
}
