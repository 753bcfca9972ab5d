package treesearch

import (
	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// Cache remembers which paint hook this engine installed on which node, so
// hooks can be re-applied idempotently and torn down without double-wrapping
// the delegation chain. It persists across passes; entries are pruned, not
// rebuilt, each cycle.
//
// Invariant: every key exists in the current snapshot. Entries for nodes no
// longer present must be evicted before going stale, otherwise dangling
// handles accumulate silently.
type Cache struct {
	hooks map[NodeID]PaintHook
}

// NewCache returns an empty decoration cache.
func NewCache() *Cache {
	return &Cache{hooks: make(map[NodeID]PaintHook)}
}

// Get returns the hook this engine installed on n, or nil.
func (c *Cache) Get(n NodeID) PaintHook {
	return c.hooks[n]
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.hooks)
}

// Prune evicts every entry whose node is absent from the snapshot and
// returns the number removed. The nodes are gone from the tree, so there is
// nothing to uninstall.
func (c *Cache) Prune(snap *Snapshot) int {
	defer metrics.Timer(metrics.CachePrune)()

	pruned := 0
	for n := range c.hooks {
		if !snap.Contains(n) {
			delete(c.hooks, n)
			pruned++
		}
	}
	return pruned
}

// RemoveAll uninstalls every cached hook from nodes that still carry it,
// restoring whatever hook the row had before decoration, then clears the
// cache. Returns the number of entries dropped. Used when the search goes
// idle so no decoration lingers.
func (c *Cache) RemoveAll(t Tree) int {
	removed := 0
	for n, h := range c.hooks {
		if hh, ok := h.(*highlightHook); ok && t.PaintHook(n) == h {
			t.SetPaintHook(n, hh.prev)
		}
		delete(c.hooks, n)
		removed++
	}
	return removed
}
