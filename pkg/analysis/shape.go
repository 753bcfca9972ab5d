// Package analysis computes shape statistics over outlines: how deep and
// how bushy the tree is, and where matches land when a search is active.
// The robot report and the TUI stats footer both render from here.
package analysis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// ShapeStats summarizes the structure of an outline.
type ShapeStats struct {
	Nodes         int     `json:"nodes"`
	Leaves        int     `json:"leaves"`
	MaxDepth      int     `json:"max_depth"`
	MeanDepth     float64 `json:"mean_depth"`
	MedianDepth   float64 `json:"median_depth"`
	DepthStdDev   float64 `json:"depth_std_dev"`
	MeanBranching float64 `json:"mean_branching"`
	MaxBranching  int     `json:"max_branching"`
	// DepthCounts[d] is the number of nodes at depth d, root at 0.
	DepthCounts []int `json:"depth_counts"`
}

// AnalyzeShape walks the tree from its root and derives shape statistics.
// An empty tree yields the zero value.
func AnalyzeShape(t treesearch.Tree) ShapeStats {
	var s ShapeStats
	root := t.Root()
	if root == treesearch.NoNode {
		return s
	}

	var depths []float64
	var branching []float64

	type frame struct {
		id    treesearch.NodeID
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s.Nodes++
		if f.depth > s.MaxDepth {
			s.MaxDepth = f.depth
		}
		for len(s.DepthCounts) <= f.depth {
			s.DepthCounts = append(s.DepthCounts, 0)
		}
		s.DepthCounts[f.depth]++
		depths = append(depths, float64(f.depth))

		children := t.Children(f.id)
		if len(children) == 0 {
			s.Leaves++
			continue
		}
		branching = append(branching, float64(len(children)))
		if len(children) > s.MaxBranching {
			s.MaxBranching = len(children)
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}

	s.MeanDepth = stat.Mean(depths, nil)
	// StdDev of a single sample is NaN, which JSON cannot carry.
	if len(depths) > 1 {
		s.DepthStdDev = stat.StdDev(depths, nil)
	}
	sort.Float64s(depths)
	s.MedianDepth = stat.Quantile(0.5, stat.Empirical, depths, nil)
	if len(branching) > 0 {
		s.MeanBranching = stat.Mean(branching, nil)
	}
	return s
}

// Summary renders a compact one-line description for the stats footer.
func (s ShapeStats) Summary() string {
	if s.Nodes == 0 {
		return "empty outline"
	}
	return fmt.Sprintf("%d nodes, %d leaves, depth max %d avg %.1f, branch avg %.1f max %d",
		s.Nodes, s.Leaves, s.MaxDepth, s.MeanDepth, s.MeanBranching, s.MaxBranching)
}

// DepthDensity is the match concentration at one depth level.
type DepthDensity struct {
	Depth   int     `json:"depth"`
	Nodes   int     `json:"nodes"`
	Matches int     `json:"matches"`
	Density float64 `json:"density"`
}

// MatchDensity reports how the current matches distribute across depth
// levels. Every level that holds at least one node appears, so the slice
// is indexed by depth.
func MatchDensity(t treesearch.Tree, idx *treesearch.Index) []DepthDensity {
	root := t.Root()
	if root == treesearch.NoNode {
		return nil
	}

	var levels []DepthDensity

	type frame struct {
		id    treesearch.NodeID
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for len(levels) <= f.depth {
			levels = append(levels, DepthDensity{Depth: len(levels)})
		}
		levels[f.depth].Nodes++
		if idx != nil && idx.IsMatch(f.id) {
			levels[f.depth].Matches++
		}

		children := t.Children(f.id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}

	for i := range levels {
		if levels[i].Nodes > 0 {
			levels[i].Density = float64(levels[i].Matches) / float64(levels[i].Nodes)
		}
	}
	return levels
}
