package treesearch

import (
	"github.com/vanderheijden86/canopy/pkg/metrics"
)

// Index holds the per-query match results: the set of directly-matching
// nodes and, for every node with at least one matching descendant-or-self,
// its match count. Both are replaced wholesale on every Compute; counts are
// stored sparsely (no explicit zeros), bounding memory to
// O(matches × depth).
type Index struct {
	query    string
	matches  []NodeID // render order
	matchSet map[NodeID]struct{}
	counts   map[NodeID]int
}

// Compute walks the snapshot in render order, matching every label against
// query, then propagates counts upward: each match increments itself and
// every ancestor. An empty query yields an empty index, which turns both
// highlight and filter into no-ops.
func (ix *Index) Compute(t Tree, snap *Snapshot, query string) {
	defer metrics.Timer(metrics.MatchCompute)()

	ix.query = query
	ix.matches = ix.matches[:0]
	ix.matchSet = make(map[NodeID]struct{})
	ix.counts = make(map[NodeID]int)

	if query == "" {
		return
	}

	for _, n := range snap.RenderOrder() {
		if Bounds(t.Label(n), query).Hit() {
			ix.matches = append(ix.matches, n)
			ix.matchSet[n] = struct{}{}
		}
	}

	for _, m := range ix.matches {
		for n := m; n != NoNode; n = t.Parent(n) {
			ix.counts[n]++
		}
	}
}

// Query returns the query this index was computed for.
func (ix *Index) Query() string {
	return ix.query
}

// IsMatch reports whether n's own label matched.
func (ix *Index) IsMatch(n NodeID) bool {
	_, ok := ix.matchSet[n]
	return ok
}

// Count returns the number of matches at or below n; 0 when n is absent.
func (ix *Index) Count(n NodeID) int {
	return ix.counts[n]
}

// Matches returns the direct matches in render order. Callers must not
// retain the slice across a Compute.
func (ix *Index) Matches() []NodeID {
	return ix.matches
}

// Total returns the number of direct matches. For any well-formed tree this
// equals the root's count.
func (ix *Index) Total() int {
	return len(ix.matches)
}
