package treesearch

import (
	"slices"

	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// Snapshot is a flattened view of the host tree, rebuilt whenever the
// structure changes. It keeps two derived orderings of one pre-order
// traversal: the render order (root first, each node immediately followed by
// its subtree) and an identity-sorted copy for O(log n) membership tests.
// The two must never be conflated; display walks use RenderOrder, membership
// checks use the sorted copy.
type Snapshot struct {
	render []NodeID
	sorted []NodeID
}

// Rebuild flattens the tree from its current root, discarding any previous
// sequence first so repeated rebuilds never accumulate duplicates. The walk
// only starts at a true root (a node with no parent); anything else is a
// programmer error and leaves the snapshot empty.
func (s *Snapshot) Rebuild(t Tree) {
	defer metrics.Timer(metrics.SnapshotRebuild)()

	s.render = s.render[:0]
	s.sorted = s.sorted[:0]

	root := t.Root()
	if root == NoNode {
		return
	}
	if t.Parent(root) != NoNode {
		return
	}

	s.walk(t, root)

	s.sorted = append(s.sorted, s.render...)
	slices.Sort(s.sorted)
}

func (s *Snapshot) walk(t Tree, n NodeID) {
	s.render = append(s.render, n)
	for _, child := range t.Children(n) {
		s.walk(t, child)
	}
}

// RenderOrder returns the pre-order sequence. Callers must not retain the
// slice across a Rebuild.
func (s *Snapshot) RenderOrder() []NodeID {
	return s.render
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.render)
}

// Contains reports membership via binary search over the identity-sorted
// copy.
func (s *Snapshot) Contains(n NodeID) bool {
	_, ok := slices.BinarySearch(s.sorted, n)
	return ok
}

// IndexOf returns n's position in render order, or -1. Linear: only match
// navigation uses it, once per keypress.
func (s *Snapshot) IndexOf(n NodeID) int {
	for i, id := range s.render {
		if id == n {
			return i
		}
	}
	return -1
}
