package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vanderheijden86/canopy/pkg/model"
)

func TestChain(t *testing.T) {
	gen := NewDefault()

	tests := []struct {
		name      string
		depth     int
		wantCount int
	}{
		{"chain_0", 0, 1},
		{"chain_1", 1, 2},
		{"chain_5", 5, 6},
		{"chain_10", 10, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := gen.Chain(tt.depth)

			AssertRecordCount(t, records, tt.wantCount)
			AssertNoDuplicateRefs(t, records)
			AssertParentsResolve(t, records)
			AssertNoCycles(t, records)

			// Each record hangs off the previous one.
			for i := 1; i < len(records); i++ {
				if records[i].Parent != records[i-1].Ref {
					t.Errorf("record %d parent = %q, want %q", i, records[i].Parent, records[i-1].Ref)
				}
			}

			o, err := model.BuildOutline(records, "")
			if err != nil {
				t.Fatalf("BuildOutline: %v", err)
			}
			if o.Len() != tt.wantCount {
				t.Errorf("outline has %d nodes, want %d", o.Len(), tt.wantCount)
			}
		})
	}
}

func TestWide(t *testing.T) {
	gen := NewDefault()
	records := gen.Wide(8)

	AssertRecordCount(t, records, 9)
	root := records[0].Ref
	for i := 1; i < len(records); i++ {
		if records[i].Parent != root {
			t.Errorf("record %d parent = %q, want root", i, records[i].Parent)
		}
	}
}

func TestTree(t *testing.T) {
	tests := []struct {
		name      string
		depth     int
		breadth   int
		wantCount int
	}{
		{"tree_1x2", 1, 2, 3},
		{"tree_2x2", 2, 2, 7},
		{"tree_2x3", 2, 3, 13},
		{"tree_3x2", 3, 2, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := NewDefault().Tree(tt.depth, tt.breadth)

			AssertRecordCount(t, records, tt.wantCount)
			AssertNoDuplicateRefs(t, records)
			AssertParentsResolve(t, records)

			o, err := model.BuildOutline(records, "")
			if err != nil {
				t.Fatalf("BuildOutline: %v", err)
			}
			// The root is the single top-level record, no synthesis.
			if r := o.Node(o.Root()); r == nil || r.Ref != records[0].Ref {
				t.Errorf("root = %+v, want %s", r, records[0].Ref)
			}
		})
	}
}

func TestSections(t *testing.T) {
	records := NewDefault().Sections(3, 4)

	AssertRecordCount(t, records, 1+3+3*4)
	AssertKindCounts(t, records, 4, 12, 0, 0)

	o, err := model.BuildOutline(records, "")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	kids := o.Children(o.Root())
	if len(kids) != 3 {
		t.Fatalf("root has %d sections, want 3", len(kids))
	}
	for _, sec := range kids {
		if got := len(o.Children(sec)); got != 4 {
			t.Errorf("section %q has %d items, want 4", o.Label(sec), got)
		}
	}
}

func TestForestNeedsSyntheticRoot(t *testing.T) {
	records := NewDefault().Forest(3, 2)

	AssertRecordCount(t, records, 9)

	o, err := model.BuildOutline(records, "All")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	root := o.Node(o.Root())
	if root.Ref != "" || root.Label != "All" {
		t.Errorf("root = %+v, want synthetic with label All", root)
	}
	if len(o.Children(o.Root())) != 3 {
		t.Errorf("root has %d tops, want 3", len(o.Children(o.Root())))
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	a := New(GeneratorConfig{Seed: 7}).Sections(2, 3)
	b := New(GeneratorConfig{Seed: 7}).Sections(2, 3)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Label != b[i].Label || a[i].Ref != b[i].Ref {
			t.Errorf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPlantNeedle(t *testing.T) {
	records := NewDefault().Wide(6)
	planted := PlantNeedle(records, "golden thread", 2)

	if len(planted) != 3 {
		t.Fatalf("planted %d records, want 3", len(planted))
	}
	for _, ref := range planted {
		r := FindRecord(records, ref)
		if r == nil || !strings.Contains(r.Label, "golden thread") {
			t.Errorf("record %s missing needle: %+v", ref, r)
		}
	}
	if strings.Contains(records[0].Label, "golden thread") {
		t.Error("needle planted into the root")
	}
}

func TestToJSONLShape(t *testing.T) {
	records := NewDefault().Chain(2)
	out := ToJSONL(records)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("JSONL has %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		var r model.Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("line %d does not parse: %v", i, err)
		}
		if r.Ref != records[i].Ref {
			t.Errorf("line %d ref = %q, want %q", i, r.Ref, records[i].Ref)
		}
	}
}

func TestTagsRespectConfig(t *testing.T) {
	records := New(GeneratorConfig{Seed: 3, IncludeTags: true}).Sections(1, 5)

	tagged := 0
	for _, r := range records {
		if len(r.Tags) > 0 {
			tagged++
			if len(r.Tags) > 3 {
				t.Errorf("record %s has %d tags, want at most 3", r.Ref, len(r.Tags))
			}
		}
	}
	if tagged == 0 {
		t.Error("IncludeTags produced no tags")
	}

	plain := New(GeneratorConfig{Seed: 3}).Sections(1, 5)
	for _, r := range plain {
		if len(r.Tags) != 0 {
			t.Errorf("record %s has tags without IncludeTags", r.Ref)
		}
	}
}
