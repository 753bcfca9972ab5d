package treesearch

import (
	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// ApplyFilter hides every branch with no match in its subtree. A node stays
// visible if it is itself counted, or if its nearest counted ancestor is a
// direct match (a matched container keeps its whole contents visible). A
// counted-but-unmatched ancestor only justifies the chain down to the match,
// not the siblings around it. The root is the always-visible anchor and is
// never hidden.
//
// With an empty match set the pass leaves visibility untouched: a query
// that matches nothing filters nothing.
func ApplyFilter(t Tree, snap *Snapshot, ix *Index) {
	defer metrics.Timer(metrics.FilterApply)()

	if ix.Total() == 0 {
		return
	}

	root := t.Root()
	for _, n := range snap.RenderOrder() {
		if n == root {
			continue
		}
		if ix.Count(n) > 0 {
			continue
		}

		anc := t.Parent(n)
		for anc != NoNode && ix.Count(anc) == 0 {
			anc = t.Parent(anc)
		}
		if anc == NoNode || anc == root || !ix.IsMatch(anc) {
			t.SetVisible(n, false)
		}
	}
}

// ClearFilter resets every node to visible with a fresh top-down walk of the
// live tree. The walk deliberately ignores any snapshot: structural edits
// may have happened since the nodes were hidden, and a stale sequence would
// leave orphaned rows invisible forever.
func ClearFilter(t Tree) {
	root := t.Root()
	if root == NoNode {
		return
	}
	clearVisibility(t, root)
}

func clearVisibility(t Tree, n NodeID) {
	t.SetVisible(n, true)
	for _, child := range t.Children(n) {
		clearVisibility(t, child)
	}
}
