// Package testutil provides deterministic outline fixtures for tests. All
// generators produce flat record slices in source order, the same shape the
// datasource loaders hand to model.BuildOutline.
package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed        int64          // Random seed for determinism (0 = use current time)
	RefPrefix   string         // Prefix for record refs (default: "test")
	KindMix     []model.Kind   // Kind distribution for non-section rows (nil = all task)
	StatusMix   []model.Status // Status distribution (nil = all none)
	IncludeTags bool           // Attach 1-3 tags per record
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42, // Deterministic
		RefPrefix: "test",
		KindMix:   []model.Kind{model.KindTask},
		StatusMix: []model.Status{model.StatusNone},
	}
}

// Generator creates outline fixtures with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.RefPrefix == "" {
		cfg.RefPrefix = "test"
	}
	if len(cfg.KindMix) == 0 {
		cfg.KindMix = []model.Kind{model.KindTask}
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = []model.Status{model.StatusNone}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Outline Shape Generators
// ============================================================================

// Chain creates a maximally deep outline: a root with a single child, which
// has a single child, and so on for depth levels below the root.
func (g *Generator) Chain(depth int) []model.Record {
	if depth < 0 {
		depth = 0
	}
	records := make([]model.Record, 0, depth+1)
	records = append(records, g.section(0, "", "Chain root"))
	for i := 1; i <= depth; i++ {
		records = append(records, g.item(i, g.ref(i-1)))
	}
	return records
}

// Wide creates a maximally flat outline: a root with n direct children.
func (g *Generator) Wide(children int) []model.Record {
	records := make([]model.Record, 0, children+1)
	records = append(records, g.section(0, "", "Wide root"))
	for i := 1; i <= children; i++ {
		records = append(records, g.item(i, g.ref(0)))
	}
	return records
}

// Tree creates a balanced outline where every node above the last level has
// breadth children. Records appear in BFS order, so sibling order is stable.
func (g *Generator) Tree(depth, breadth int) []model.Record {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	records := []model.Record{g.section(0, "", "Tree root")}
	next := 1
	level := []int{0}
	for d := 0; d < depth; d++ {
		var below []int
		for _, parent := range level {
			for b := 0; b < breadth; b++ {
				records = append(records, g.item(next, g.ref(parent)))
				below = append(below, next)
				next++
			}
		}
		level = below
	}
	return records
}

// Sections creates the shape real outlines tend to have: a root, a handful
// of section headers, and leaf items under each.
func (g *Generator) Sections(sections, itemsPer int) []model.Record {
	records := []model.Record{g.section(0, "", "Workspace")}
	next := 1
	for s := 0; s < sections; s++ {
		sec := next
		records = append(records, g.section(sec, g.ref(0), sectionLabels[s%len(sectionLabels)]))
		next++
		for i := 0; i < itemsPer; i++ {
			records = append(records, g.item(next, g.ref(sec)))
			next++
		}
	}
	return records
}

// Forest creates several independent top-level chains, the input shape that
// forces BuildOutline to synthesize a root.
func (g *Generator) Forest(tops, depth int) []model.Record {
	var records []model.Record
	next := 0
	for c := 0; c < tops; c++ {
		top := next
		records = append(records, g.section(top, "", fmt.Sprintf("Top %d", c)))
		next++
		for i := 0; i < depth; i++ {
			records = append(records, g.item(next, g.ref(next-1)))
			next++
		}
	}
	return records
}

// ============================================================================
// Labels and Search Seeds
// ============================================================================

var (
	sectionLabels = []string{"Backlog", "In Progress", "Review", "Docs", "Archive", "Ideas"}
	labelVerbs    = []string{"Fix", "Review", "Draft", "Ship", "Measure", "Refactor", "Document"}
	labelNouns    = []string{"timer drift", "parser notes", "cache layout", "search panel", "export path", "reload loop", "row painter"}
	sampleTags    = []string{"urgent", "backend", "ui", "perf", "docs", "later"}
)

func (g *Generator) label() string {
	return labelVerbs[g.rng.Intn(len(labelVerbs))] + " " + labelNouns[g.rng.Intn(len(labelNouns))]
}

// PlantNeedle rewrites every step-th record's label to contain needle,
// starting at the first record after the root. Returns the refs of the
// planted records so tests know exactly which rows should match.
func PlantNeedle(records []model.Record, needle string, step int) []string {
	if step < 1 {
		step = 1
	}
	var planted []string
	for i := 1; i < len(records); i += step {
		records[i].Label = records[i].Label + " " + needle
		planted = append(planted, records[i].Ref)
	}
	return planted
}

// ToJSONL converts records to JSONL format, one object per line.
func ToJSONL(records []model.Record) string {
	var sb strings.Builder
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Helper methods

func (g *Generator) ref(i int) string {
	return fmt.Sprintf("%s-%d", g.cfg.RefPrefix, i)
}

func (g *Generator) section(i int, parent, label string) model.Record {
	return model.Record{
		Ref:    g.ref(i),
		Parent: parent,
		Label:  label,
		Kind:   string(model.KindSection),
	}
}

func (g *Generator) item(i int, parent string) model.Record {
	r := model.Record{
		Ref:    g.ref(i),
		Parent: parent,
		Label:  g.label(),
		Kind:   string(g.cfg.KindMix[g.rng.Intn(len(g.cfg.KindMix))]),
		Status: string(g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))]),
	}
	if g.cfg.IncludeTags {
		r.Tags = g.pickTags()
	}
	return r
}

func (g *Generator) pickTags() []string {
	count := g.rng.Intn(3) + 1
	tags := make([]string, 0, count)
	used := make(map[int]bool)
	for len(tags) < count {
		idx := g.rng.Intn(len(sampleTags))
		if !used[idx] {
			used[idx] = true
			tags = append(tags, sampleTags[idx])
		}
	}
	return tags
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickChain creates a chain fixture with default settings.
func QuickChain(depth int) []model.Record {
	return NewDefault().Chain(depth)
}

// QuickTree creates a balanced tree fixture with default settings.
func QuickTree(depth, breadth int) []model.Record {
	return NewDefault().Tree(depth, breadth)
}

// QuickSections creates a section-and-items fixture with default settings.
func QuickSections(sections, itemsPer int) []model.Record {
	return NewDefault().Sections(sections, itemsPer)
}

// Empty returns an empty record slice for edge case testing.
func Empty() []model.Record {
	return []model.Record{}
}

// Single returns one root-only record.
func Single() []model.Record {
	gen := NewDefault()
	return []model.Record{{
		Ref:   gen.ref(0),
		Label: "Single entry",
		Kind:  string(model.KindNote),
	}}
}
