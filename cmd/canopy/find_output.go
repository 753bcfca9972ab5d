package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/canopy/internal/datasource"
	"github.com/vanderheijden86/canopy/pkg/analysis"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// robotPanel feeds a fixed query to the engine for headless passes. The
// controller reads it exactly like the interactive search bar.
type robotPanel struct {
	query string
	mode  treesearch.Mode
}

func (p *robotPanel) Query() string         { return p.query }
func (p *robotPanel) Mode() treesearch.Mode { return p.mode }
func (p *robotPanel) Visible() bool         { return true }

// parseSearchMode maps the --mode flag to an engine mode. Empty selects
// highlight.
func parseSearchMode(s string) (treesearch.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "highlight":
		return treesearch.ModeHighlight, nil
	case "filter":
		return treesearch.ModeFilter, nil
	default:
		return treesearch.ModeHighlight, fmt.Errorf("invalid --mode: %q (expected highlight|filter)", s)
	}
}

// decorateOutline runs one engine pass so robot reports and headless
// exports carry the same spans and counts the TUI would paint.
func decorateOutline(o *model.Outline, query string, mode treesearch.Mode) *treesearch.Controller {
	c := treesearch.NewController(&robotPanel{query: query, mode: mode})
	c.Update(o)
	return c
}

type robotSpan struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

type robotMatch struct {
	Ref    string    `json:"ref"`
	Label  string    `json:"label"`
	Path   string    `json:"path,omitempty"`
	Kind   string    `json:"kind,omitempty"`
	Status string    `json:"status,omitempty"`
	Span   robotSpan `json:"span"`
	Count  int       `json:"count"`
}

type robotFindOutput struct {
	GeneratedAt string              `json:"generated_at"`
	Source      string              `json:"source,omitempty"`
	SourceType  string              `json:"source_type,omitempty"`
	Query       string              `json:"query"`
	Mode        string              `json:"mode"`
	State       string              `json:"state"`
	Rows        int                 `json:"rows"`
	VisibleRows int                 `json:"visible_rows"`
	Total       int                 `json:"total"`
	Matches     []robotMatch        `json:"matches"`
	Shape       analysis.ShapeStats `json:"shape"`
	UsageHints  []string            `json:"usage_hints,omitempty"`
}

func writeRobotFindOutput(w io.Writer, out robotFindOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runRobotFind executes one headless search pass over the outline and
// writes the match report as JSON. Matches come out in render order with
// the same spans and subtree counts the TUI decorations use.
func runRobotFind(w io.Writer, o *model.Outline, source datasource.DataSource, query, modeFlag string) error {
	mode, err := parseSearchMode(modeFlag)
	if err != nil {
		return err
	}

	c := decorateOutline(o, query, mode)
	ix := c.Index()

	out := robotFindOutput{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Source:      source.Path,
		SourceType:  string(source.Type),
		Query:       query,
		Mode:        mode.String(),
		State:       c.State().String(),
		Rows:        c.Snapshot().Len(),
		VisibleRows: countVisible(o, o.Root()),
		Total:       ix.Total(),
		Matches:     make([]robotMatch, 0, ix.Total()),
		Shape:       analysis.AnalyzeShape(o),
	}

	for _, id := range ix.Matches() {
		n := o.Node(id)
		if n == nil {
			continue
		}
		span := treesearch.Bounds(n.Label, query)
		out.Matches = append(out.Matches, robotMatch{
			Ref:    n.Ref,
			Label:  n.Label,
			Path:   strings.Join(o.Path(id), " / "),
			Kind:   string(n.Kind),
			Status: string(n.Status),
			Span:   robotSpan{Lower: span.Lower, Upper: span.Upper},
			Count:  ix.Count(id),
		})
	}

	if out.Total == 0 && query != "" {
		out.UsageHints = []string{
			"no rows matched; query words must appear in label order",
			"an entirely lowercase query matches case-insensitively",
		}
	}

	return writeRobotFindOutput(w, out)
}

// countVisible counts rows that survive the filter, the number a TUI
// client would render.
func countVisible(o *model.Outline, id treesearch.NodeID) int {
	n := o.Node(id)
	if n == nil || !n.Visible() {
		return 0
	}
	total := 1
	for _, c := range o.Children(id) {
		total += countVisible(o, c)
	}
	return total
}
