package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/canopy/pkg/model"
)

// AssertRecordCount verifies the expected number of records.
func AssertRecordCount(t *testing.T, records []model.Record, expected int) {
	t.Helper()
	if len(records) != expected {
		t.Errorf("expected %d records, got %d", expected, len(records))
	}
}

// AssertNoDuplicateRefs verifies all record refs are unique.
func AssertNoDuplicateRefs(t *testing.T, records []model.Record) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.Ref] {
			t.Errorf("duplicate record ref: %s", r.Ref)
		}
		seen[r.Ref] = true
	}
}

// AssertParentsResolve verifies every non-empty parent ref points at a
// record in the same slice.
func AssertParentsResolve(t *testing.T, records []model.Record) {
	t.Helper()
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.Ref] = true
	}
	for _, r := range records {
		if r.Parent != "" && !known[r.Parent] {
			t.Errorf("record %s references unknown parent %s", r.Ref, r.Parent)
		}
	}
}

// AssertNoCycles verifies the parent references form a forest. Suitable for
// the small record sets tests work with.
func AssertNoCycles(t *testing.T, records []model.Record) {
	t.Helper()

	parent := make(map[string]string)
	for _, r := range records {
		parent[r.Ref] = r.Parent
	}

	visited := make(map[string]bool)
	inPath := make(map[string]bool)

	var hasCycle func(ref string) bool
	hasCycle = func(ref string) bool {
		if inPath[ref] {
			return true
		}
		if visited[ref] {
			return false
		}
		visited[ref] = true
		inPath[ref] = true
		if p := parent[ref]; p != "" {
			if hasCycle(p) {
				return true
			}
		}
		inPath[ref] = false
		return false
	}

	for _, r := range records {
		if hasCycle(r.Ref) {
			t.Errorf("cycle detected involving record %s", r.Ref)
			return
		}
	}
}

// AssertVisibleLabels walks the outline and compares the labels of the rows
// that survived the last filter pass, in render order.
func AssertVisibleLabels(t *testing.T, o *model.Outline, want []string) {
	t.Helper()
	var got []string
	o.Walk(func(n *model.Node, depth int) bool {
		if n.Visible() {
			got = append(got, n.Label)
		}
		return true
	})
	if len(got) != len(want) {
		t.Errorf("visible rows = %v, want %v", got, want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visible row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// AssertKindCounts verifies the number of records of each kind.
func AssertKindCounts(t *testing.T, records []model.Record, sections, tasks, notes, links int) {
	t.Helper()
	counts := CountByKind(records)
	if counts[model.KindSection] != sections {
		t.Errorf("expected %d sections, got %d", sections, counts[model.KindSection])
	}
	if counts[model.KindTask] != tasks {
		t.Errorf("expected %d tasks, got %d", tasks, counts[model.KindTask])
	}
	if counts[model.KindNote] != notes {
		t.Errorf("expected %d notes, got %d", notes, counts[model.KindNote])
	}
	if counts[model.KindLink] != links {
		t.Errorf("expected %d links, got %d", links, counts[model.KindLink])
	}
}

// AssertJSONEqual compares two values after JSON round-tripping. Useful for
// comparing structs that may have different Go representations but
// equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper. If CANOPY_GOLDEN is set,
// golden files are rewritten instead of compared.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("CANOPY_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file. If CANOPY_GOLDEN
// is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with CANOPY_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s",
					i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// TempDir helpers

// TempWorkspace creates a temporary directory with a .canopy subdirectory
// and returns the path. The directory is cleaned up after the test.
func TempWorkspace(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	canopyDir := filepath.Join(dir, ".canopy")
	if err := os.MkdirAll(canopyDir, 0755); err != nil {
		t.Fatalf("failed to create .canopy dir: %v", err)
	}
	return dir
}

// WriteOutlineFile writes records to .canopy/outline.jsonl in the given
// workspace directory.
func WriteOutlineFile(t *testing.T, dir string, records []model.Record) string {
	t.Helper()

	path := filepath.Join(dir, ".canopy", "outline.jsonl")
	content := ToJSONL(records)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write outline file: %v", err)
	}
	return path
}

// WriteRecordsFile writes records to a custom path.
func WriteRecordsFile(t *testing.T, path string, records []model.Record) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	content := ToJSONL(records)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write records file: %v", err)
	}
}

// Record helpers

// BuildRecordMap creates a map from ref to record for quick lookups.
func BuildRecordMap(records []model.Record) map[string]*model.Record {
	m := make(map[string]*model.Record, len(records))
	for i := range records {
		m[records[i].Ref] = &records[i]
	}
	return m
}

// FindRecord returns the record with the given ref, or nil if not found.
func FindRecord(records []model.Record, ref string) *model.Record {
	for i := range records {
		if records[i].Ref == ref {
			return &records[i]
		}
	}
	return nil
}

// CountByKind returns a map of kind -> count.
func CountByKind(records []model.Record) map[model.Kind]int {
	counts := make(map[model.Kind]int)
	for _, r := range records {
		k, _ := model.ParseKind(r.Kind)
		counts[k]++
	}
	return counts
}

// Refs returns a slice of all record refs.
func Refs(records []model.Record) []string {
	refs := make([]string, len(records))
	for i, r := range records {
		refs[i] = r.Ref
	}
	return refs
}

// Ref generates a standard test ref with the given index. Format: "test-N"
// for consistency across tests.
func Ref(index int) string {
	return fmt.Sprintf("test-%d", index)
}
