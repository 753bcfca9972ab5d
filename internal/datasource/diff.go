package datasource

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/canopy/pkg/metrics"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// OutlineDiff classifies what changed between two loads of the same
// outline. The reload path uses it to decide between a full rebuild (node
// handles change, the search engine must drop its snapshot) and in-place
// edits (handles survive, the engine only re-decorates edited rows).
type OutlineDiff struct {
	// Added contains refs present in the new load only
	Added []string
	// Removed contains refs present in the old load only
	Removed []string
	// Moved contains refs whose parent changed
	Moved []string
	// OrderChanged reports whether surviving refs appear in a different
	// relative order
	OrderChanged bool
	// Relabeled contains label edits for refs present in both loads
	Relabeled []LabelChange
	// Restatused contains status edits for refs present in both loads
	Restatused []StatusChange
	// CountOld is the number of records in the old load
	CountOld int
	// CountNew is the number of records in the new load
	CountNew int
}

// LabelChange records a label edit for a single ref
type LabelChange struct {
	Ref string `json:"ref"`
	Old string `json:"old"`
	New string `json:"new"`
}

// StatusChange records a status edit for a single ref
type StatusChange struct {
	Ref string `json:"ref"`
	Old string `json:"old"`
	New string `json:"new"`
}

// Structural returns true when the tree shape changed: rows were added,
// removed, reparented, or reordered. Label and status edits alone are not
// structural.
func (d OutlineDiff) Structural() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Moved) > 0 || d.OrderChanged
}

// Empty returns true when the two loads are identical.
func (d OutlineDiff) Empty() bool {
	return !d.Structural() && len(d.Relabeled) == 0 && len(d.Restatused) == 0
}

// Summary returns a human-readable description of the differences
func (d OutlineDiff) Summary() string {
	if d.Empty() {
		return fmt.Sprintf("outline unchanged (%d records)", d.CountNew)
	}

	summary := "outline changed:\n"
	if d.CountOld != d.CountNew {
		summary += fmt.Sprintf("  - count: %d -> %d\n", d.CountOld, d.CountNew)
	}
	if len(d.Added) > 0 {
		summary += fmt.Sprintf("  - %d added\n", len(d.Added))
		if len(d.Added) <= 5 {
			for _, ref := range d.Added {
				summary += fmt.Sprintf("    + %s\n", ref)
			}
		}
	}
	if len(d.Removed) > 0 {
		summary += fmt.Sprintf("  - %d removed\n", len(d.Removed))
		if len(d.Removed) <= 5 {
			for _, ref := range d.Removed {
				summary += fmt.Sprintf("    - %s\n", ref)
			}
		}
	}
	if len(d.Moved) > 0 {
		summary += fmt.Sprintf("  - %d reparented\n", len(d.Moved))
	}
	if d.OrderChanged {
		summary += "  - sibling order changed\n"
	}
	if len(d.Relabeled) > 0 {
		summary += fmt.Sprintf("  - %d relabeled\n", len(d.Relabeled))
		if len(d.Relabeled) <= 5 {
			for _, c := range d.Relabeled {
				summary += fmt.Sprintf("    ~ %s: %q -> %q\n", c.Ref, c.Old, c.New)
			}
		}
	}
	if len(d.Restatused) > 0 {
		summary += fmt.Sprintf("  - %d status changes\n", len(d.Restatused))
	}
	return summary
}

// DiffRecords compares two loads of an outline by ref.
func DiffRecords(old, new []model.Record) OutlineDiff {
	defer metrics.Timer(metrics.ReloadDiff)()

	diff := OutlineDiff{
		CountOld: len(old),
		CountNew: len(new),
	}

	oldByRef := make(map[string]*model.Record, len(old))
	for i := range old {
		oldByRef[old[i].Ref] = &old[i]
	}
	newByRef := make(map[string]*model.Record, len(new))
	for i := range new {
		newByRef[new[i].Ref] = &new[i]
	}

	for ref := range oldByRef {
		if _, ok := newByRef[ref]; !ok {
			diff.Removed = append(diff.Removed, ref)
		}
	}
	for _, rec := range new {
		prev, ok := oldByRef[rec.Ref]
		if !ok {
			diff.Added = append(diff.Added, rec.Ref)
			continue
		}
		if prev.Parent != rec.Parent {
			diff.Moved = append(diff.Moved, rec.Ref)
		}
		if prev.Label != rec.Label {
			diff.Relabeled = append(diff.Relabeled, LabelChange{Ref: rec.Ref, Old: prev.Label, New: rec.Label})
		}
		if prev.Status != rec.Status {
			diff.Restatused = append(diff.Restatused, StatusChange{Ref: rec.Ref, Old: prev.Status, New: rec.Status})
		}
	}

	// Surviving refs must keep their relative order, otherwise the render
	// order changed even though no ref came or went.
	var oldSeq, newSeq []string
	for _, r := range old {
		if _, ok := newByRef[r.Ref]; ok {
			oldSeq = append(oldSeq, r.Ref)
		}
	}
	for _, r := range new {
		if _, ok := oldByRef[r.Ref]; ok {
			newSeq = append(newSeq, r.Ref)
		}
	}
	for i := range oldSeq {
		if oldSeq[i] != newSeq[i] {
			diff.OrderChanged = true
			break
		}
	}

	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Moved)

	return diff
}

// ApplyInPlace applies a non-structural diff to a live outline and returns
// the handles of the edited rows, so the caller can send each through the
// search controller's edit notification. Returns false without touching the
// outline when the diff is structural.
func ApplyInPlace(o *model.Outline, d OutlineDiff) ([]treesearch.NodeID, bool) {
	if d.Structural() {
		return nil, false
	}

	var edited []treesearch.NodeID
	for _, c := range d.Relabeled {
		id, ok := o.ByRef(c.Ref)
		if !ok {
			continue
		}
		o.Relabel(id, c.New)
		edited = append(edited, id)
	}
	for _, c := range d.Restatused {
		id, ok := o.ByRef(c.Ref)
		if !ok {
			continue
		}
		status, _ := model.ParseStatus(c.New)
		o.SetStatus(id, status)
	}
	return edited, true
}
