package treesearch

import (
	"slices"
	"testing"
)

func TestSnapshotRenderOrderIsPreOrder(t *testing.T) {
	f, ids := fixtureTree()

	var snap Snapshot
	snap.Rebuild(f)

	want := []NodeID{
		ids["root"], ids["backlog"], ids["drift"], ids["timelimit"],
		ids["sequence"], ids["retries"], ids["docs"], ids["tracking"],
		ids["archive"],
	}
	if !slices.Equal(snap.RenderOrder(), want) {
		t.Errorf("RenderOrder() = %v, want %v", snap.RenderOrder(), want)
	}
}

func TestSnapshotRebuildDoesNotAccumulate(t *testing.T) {
	f, _ := fixtureTree()

	var snap Snapshot
	snap.Rebuild(f)
	first := snap.Len()

	snap.Rebuild(f)
	snap.Rebuild(f)
	if snap.Len() != first {
		t.Errorf("Len after repeated rebuilds = %d, want %d", snap.Len(), first)
	}
}

func TestSnapshotMembership(t *testing.T) {
	f, ids := fixtureTree()

	var snap Snapshot
	snap.Rebuild(f)

	for name, id := range ids {
		if !snap.Contains(id) {
			t.Errorf("Contains(%s) = false, want true", name)
		}
	}
	if snap.Contains(NodeID(9999)) {
		t.Error("Contains(unknown) = true, want false")
	}

	f.remove(ids["sequence"])
	snap.Rebuild(f)
	if snap.Contains(ids["sequence"]) {
		t.Error("removed subtree root still in snapshot")
	}
	if snap.Contains(ids["retries"]) {
		t.Error("removed subtree child still in snapshot")
	}
	if !snap.Contains(ids["timelimit"]) {
		t.Error("sibling of removed subtree missing from snapshot")
	}
}

func TestSnapshotIndexOf(t *testing.T) {
	f, ids := fixtureTree()

	var snap Snapshot
	snap.Rebuild(f)

	if got := snap.IndexOf(ids["root"]); got != 0 {
		t.Errorf("IndexOf(root) = %d, want 0", got)
	}
	if got := snap.IndexOf(ids["drift"]); got != 2 {
		t.Errorf("IndexOf(drift) = %d, want 2", got)
	}
	if got := snap.IndexOf(NodeID(9999)); got != -1 {
		t.Errorf("IndexOf(unknown) = %d, want -1", got)
	}
}

func TestSnapshotEmptyTree(t *testing.T) {
	f := newFakeTree()

	var snap Snapshot
	snap.Rebuild(f)
	if snap.Len() != 0 {
		t.Errorf("Len = %d, want 0", snap.Len())
	}
	if snap.Contains(0) {
		t.Error("empty snapshot should contain nothing")
	}
}

func TestSnapshotOrderingsStayDistinct(t *testing.T) {
	// Insertion order of handles is deliberately scrambled relative to
	// render order: children get allocated after later siblings.
	f := newFakeTree()
	root := f.addRoot("root")
	b := f.add(root, "b")
	a := f.add(root, "a")
	// Reorder children so render order is a then b, while handle order
	// stays b then a.
	f.nodes[root].children = []NodeID{a, b}

	var snap Snapshot
	snap.Rebuild(f)

	wantRender := []NodeID{root, a, b}
	if !slices.Equal(snap.RenderOrder(), wantRender) {
		t.Errorf("RenderOrder() = %v, want %v", snap.RenderOrder(), wantRender)
	}
	for _, id := range wantRender {
		if !snap.Contains(id) {
			t.Errorf("Contains(%d) = false after reorder", id)
		}
	}
}
