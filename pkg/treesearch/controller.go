package treesearch

import (
	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// Controller orchestrates one search pass per keystroke, edit or tick.
// Within one Update the stages always run in the same order: snapshot
// rebuild, match computation, decoration/filtering, cache pruning. Running
// them out of order decorates against counts from a different tree shape,
// so the ordering is part of the contract, not an implementation detail.
//
// The controller is not safe for concurrent use; call it from the host's
// event loop only.
type Controller struct {
	panel Panel
	tree  Tree

	snapshot Snapshot
	index    Index
	cache    *Cache

	state           State
	structuralDirty bool
}

// NewController returns a controller reading query and mode from panel.
// The tree is handed to each Update call instead, since hosts may swap the
// widget out underneath a long-lived search.
func NewController(panel Panel) *Controller {
	return &Controller{
		panel:           panel,
		cache:           NewCache(),
		structuralDirty: true,
	}
}

// State returns the controller's current phase.
func (c *Controller) State() State {
	return c.state
}

// Index returns the live match index. The UI reads match totals and
// membership from here; the contents change on every Update.
func (c *Controller) Index() *Index {
	return &c.index
}

// Snapshot returns the live tree snapshot.
func (c *Controller) Snapshot() *Snapshot {
	return &c.snapshot
}

// Cache returns the decoration cache.
func (c *Controller) Cache() *Cache {
	return c.cache
}

// NotifyStructuralChange marks the snapshot stale. The next Update rebuilds
// it before anything else. Hosts must call this after adding, removing or
// reparenting nodes; label-only edits don't need it.
func (c *Controller) NotifyStructuralChange() {
	c.structuralDirty = true
}

// NotifyItemEdited re-installs the cached hook on one node after the host's
// editor rewrote the row and reset its custom painting. Without this, a
// relabeled row loses its decoration until the next full pass.
func (c *Controller) NotifyItemEdited(n NodeID) {
	if c.tree == nil {
		return
	}
	cached := c.cache.Get(n)
	if cached == nil || c.tree.PaintHook(n) == cached {
		return
	}
	c.tree.SetPaintHook(n, cached)
}

// OnQuerySubmitted advances to the next match; panels call this when the
// user presses enter in the search field.
func (c *Controller) OnQuerySubmitted() {
	c.SelectNextMatch()
}

// Update runs one full search pass against t using the panel's current
// query and mode. A nil tree or panel is a programmer error: it asserts
// under CANOPY_DEBUG and does nothing otherwise. Calling Update twice with
// identical inputs is safe and installs zero new hooks the second time.
func (c *Controller) Update(t Tree) {
	defer metrics.Timer(metrics.SearchUpdate)()

	debug.Assert(t != nil, "treesearch: Update with nil tree")
	debug.Assert(c.panel != nil, "treesearch: Update with nil panel")
	if t == nil || c.panel == nil {
		debug.Log("treesearch: update precondition failed (tree=%t panel=%t)", t != nil, c.panel != nil)
		return
	}

	if c.tree != t {
		c.tree = t
		c.structuralDirty = true
	}

	query := c.panel.Query()
	if !c.panel.Visible() || query == "" {
		c.enterIdle(t)
		return
	}

	next := StateHighlighting
	if c.panel.Mode() == ModeFilter {
		next = StateFiltering
	}

	// Leaving filter mode un-hides everything before any other state's
	// logic runs.
	if c.state == StateFiltering && next != StateFiltering {
		ClearFilter(t)
	}

	if c.structuralDirty || c.snapshot.Len() == 0 {
		c.snapshot.Rebuild(t)
		c.structuralDirty = false
	}

	c.index.Compute(t, &c.snapshot, query)

	ApplyHighlight(t, &c.snapshot, &c.index, c.cache)

	if next == StateFiltering {
		// Reset first so rows hidden under the previous, narrower
		// query can come back.
		ClearFilter(t)
		ApplyFilter(t, &c.snapshot, &c.index)
	}

	c.cache.Prune(&c.snapshot)

	c.state = next
	t.RequestRedraw()
}

// enterIdle reverts every visual side effect: visibility if the engine was
// filtering, and all installed decorations. Repeated idle updates are
// no-ops.
func (c *Controller) enterIdle(t Tree) {
	changed := false

	if c.state == StateFiltering {
		ClearFilter(t)
		changed = true
	}
	if c.cache.Len() > 0 {
		c.cache.RemoveAll(t)
		changed = true
	}

	// Empty the match data so navigation and match counters go quiet.
	c.index.Compute(t, &c.snapshot, "")

	c.state = StateIdle
	if changed {
		t.RequestRedraw()
	}
}
