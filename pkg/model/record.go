package model

import (
	"fmt"

	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// Record is one flat outline entry as it appears in a source file: JSONL
// lines and SQLite rows both decode into this shape before the arena is
// built. Sibling order is the order records appear in the source.
type Record struct {
	Ref    string   `json:"id"`
	Parent string   `json:"parent,omitempty"`
	Label  string   `json:"label"`
	Kind   string   `json:"kind,omitempty"`
	Status string   `json:"status,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// BuildOutline assembles an arena from flat records. Records with an empty
// or unknown parent ref are top level; when more than one top-level record
// exists, a synthetic section root labeled rootLabel is added so the tree
// always has a single anchor. Duplicate refs and parent cycles are errors,
// not data to silently repair.
func BuildOutline(records []Record, rootLabel string) (*Outline, error) {
	o := NewOutline()
	if len(records) == 0 {
		return o, nil
	}

	known := make(map[string]int, len(records))
	for i, r := range records {
		if r.Ref == "" {
			return nil, fmt.Errorf("record %d: empty id", i)
		}
		if prev, dup := known[r.Ref]; dup {
			return nil, fmt.Errorf("duplicate id %q (records %d and %d)", r.Ref, prev, i)
		}
		known[r.Ref] = i
	}

	childOrder := make(map[string][]int)
	var topLevel []int
	for i, r := range records {
		if r.Parent == "" {
			topLevel = append(topLevel, i)
			continue
		}
		if _, ok := known[r.Parent]; !ok {
			debug.Log("outline: %q references unknown parent %q, treating as top level", r.Ref, r.Parent)
			topLevel = append(topLevel, i)
			continue
		}
		childOrder[r.Parent] = append(childOrder[r.Parent], i)
	}
	if len(topLevel) == 0 {
		return nil, fmt.Errorf("no top-level record: parent references form a cycle")
	}

	var attach func(parent treesearch.NodeID, idx int)
	attach = func(parent treesearch.NodeID, idx int) {
		r := records[idx]
		kind, _ := ParseKind(r.Kind)
		status, _ := ParseStatus(r.Status)

		var id treesearch.NodeID
		if parent == treesearch.NoNode {
			id = o.AddRoot(r.Ref, r.Label, kind)
		} else {
			id = o.AddChild(parent, r.Ref, r.Label, kind)
		}
		n := o.Node(id)
		n.Status = status
		if len(r.Tags) > 0 {
			n.Tags = append([]string(nil), r.Tags...)
		}

		for _, ci := range childOrder[r.Ref] {
			attach(id, ci)
		}
	}

	if len(topLevel) == 1 {
		attach(treesearch.NoNode, topLevel[0])
	} else {
		root := o.AddRoot("", rootLabel, KindSection)
		for _, idx := range topLevel {
			r := records[idx]
			kind, _ := ParseKind(r.Kind)
			status, _ := ParseStatus(r.Status)
			id := o.AddChild(root, r.Ref, r.Label, kind)
			n := o.Node(id)
			n.Status = status
			if len(r.Tags) > 0 {
				n.Tags = append([]string(nil), r.Tags...)
			}
			for _, ci := range childOrder[r.Ref] {
				attach(id, ci)
			}
		}
	}

	if o.Len() != len(records)+syntheticCount(o) {
		return nil, fmt.Errorf("outline has %d of %d records: parent references form a cycle", o.Len()-syntheticCount(o), len(records))
	}
	return o, nil
}

func syntheticCount(o *Outline) int {
	if r := o.Node(o.Root()); r != nil && r.Ref == "" {
		return 1
	}
	return 0
}

// Flatten writes the outline back into records in render order. Synthetic
// roots (empty Ref) are skipped; their children become top level.
func Flatten(o *Outline) []Record {
	var out []Record
	o.Walk(func(n *Node, depth int) bool {
		if n.Ref == "" {
			return true
		}
		rec := Record{
			Ref:    n.Ref,
			Label:  n.Label,
			Kind:   string(n.Kind),
			Status: string(n.Status),
		}
		if len(n.Tags) > 0 {
			rec.Tags = append([]string(nil), n.Tags...)
		}
		if p := o.Node(o.Parent(n.ID)); p != nil && p.Ref != "" {
			rec.Parent = p.Ref
		}
		out = append(out, rec)
		return true
	})
	return out
}
