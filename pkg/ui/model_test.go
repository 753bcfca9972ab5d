package ui_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/canopy/internal/datasource"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/testutil"
	"github.com/vanderheijden86/canopy/pkg/ui"
)

// modelFixtureRecords returns the outline used across the model tests:
//
//	Infra planning
//	├── Network timing
//	│   └── Latency budget
//	└── Design notes
//	    └── RFC link
func modelFixtureRecords() []model.Record {
	return []model.Record{
		{Ref: "root", Label: "Infra planning", Kind: "section"},
		{Ref: "net", Parent: "root", Label: "Network timing", Kind: "task", Status: "open"},
		{Ref: "lat", Parent: "net", Label: "Latency budget", Kind: "task", Status: "done"},
		{Ref: "notes", Parent: "root", Label: "Design notes", Kind: "note"},
		{Ref: "rfc", Parent: "notes", Label: "RFC link", Kind: "link"},
	}
}

func newTestModel(t *testing.T) ui.Model {
	t.Helper()
	recs := modelFixtureRecords()
	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	return ui.NewModel(o, recs, datasource.DataSource{})
}

// sendKey sends a rune key message through Update.
func sendKey(t *testing.T, m ui.Model, key string) ui.Model {
	t.Helper()
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return newM.(ui.Model)
}

// sendSpecialKey sends a special key (enter, esc, tab, ...) through Update.
func sendSpecialKey(t *testing.T, m ui.Model, keyType tea.KeyType) ui.Model {
	t.Helper()
	newM, _ := m.Update(tea.KeyMsg{Type: keyType})
	return newM.(ui.Model)
}

// flushSearch delivers the debounce tick for the latest keystroke so the
// pending search pass runs.
func flushSearch(t *testing.T, m ui.Model) ui.Model {
	t.Helper()
	newM, _ := m.Update(ui.SearchTickMsg{Seq: m.SearchSeq()})
	return newM.(ui.Model)
}

// typeQuery opens the search bar, types the query and flushes the debounce.
func typeQuery(t *testing.T, m ui.Model, query string) ui.Model {
	t.Helper()
	if !m.PanelVisible() {
		m = sendKey(t, m, "/")
	}
	for _, r := range query {
		m = sendKey(t, m, string(r))
	}
	return flushSearch(t, m)
}

func TestModelSearchLifecycle(t *testing.T) {
	m := newTestModel(t)

	if m.PanelVisible() {
		t.Fatal("panel should start hidden")
	}
	if got := m.SearchStateName(); got != "idle" {
		t.Fatalf("initial state = %q, want idle", got)
	}

	m = sendKey(t, m, "/")
	if !m.PanelVisible() || !m.PanelFocused() {
		t.Fatal("/ should open and focus the search bar")
	}

	for _, r := range "net" {
		m = sendKey(t, m, string(r))
	}
	if got := m.PanelQuery(); got != "net" {
		t.Fatalf("query = %q, want net", got)
	}
	// The pass is debounced: typing alone must not run it.
	if got := m.SearchStateName(); got != "idle" {
		t.Fatalf("state before the tick = %q, want idle", got)
	}

	m = flushSearch(t, m)
	if got := m.SearchStateName(); got != "highlighting" {
		t.Fatalf("state after the tick = %q, want highlighting", got)
	}
	if got := m.MatchTotal(); got != 1 {
		t.Fatalf("MatchTotal = %d, want 1", got)
	}
}

func TestModelSearchDropsStaleTick(t *testing.T) {
	m := newTestModel(t)
	m = sendKey(t, m, "/")

	m = sendKey(t, m, "n")
	stale := m.SearchSeq()
	m = sendKey(t, m, "e")

	// The tick armed by the first keystroke arrives after the second one
	// already re-armed the debounce. It must not run a pass.
	newM, _ := m.Update(ui.SearchTickMsg{Seq: stale})
	m = newM.(ui.Model)
	if got := m.SearchStateName(); got != "idle" {
		t.Fatalf("stale tick ran a pass, state = %q", got)
	}

	m = flushSearch(t, m)
	if got := m.SearchStateName(); got != "highlighting" {
		t.Fatalf("current tick did not run a pass, state = %q", got)
	}
}

func TestModelFilterModeToggle(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "design")

	if got := m.SearchStateName(); got != "highlighting" {
		t.Fatalf("state = %q, want highlighting", got)
	}
	if got := m.VisibleRowCount(); got != 5 {
		t.Fatalf("highlight mode hid rows, VisibleRowCount = %d", got)
	}

	m = sendSpecialKey(t, m, tea.KeyTab)
	if got := m.SearchStateName(); got != "filtering" {
		t.Fatalf("state after tab = %q, want filtering", got)
	}
	if got := m.PanelModeName(); got != "filter" {
		t.Fatalf("mode after tab = %q, want filter", got)
	}
	// Matched container keeps its contents; the other branch drops out.
	if got := m.VisibleRowCount(); got != 3 {
		t.Fatalf("VisibleRowCount under filter = %d, want 3", got)
	}

	m = sendSpecialKey(t, m, tea.KeyTab)
	if got := m.SearchStateName(); got != "highlighting" {
		t.Fatalf("state after second tab = %q, want highlighting", got)
	}
	if got := m.VisibleRowCount(); got != 5 {
		t.Fatalf("rows did not come back, VisibleRowCount = %d", got)
	}
}

func TestModelSubmitBlursAndSelectsFirstMatch(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "t")
	if got := m.MatchTotal(); got != 3 {
		t.Fatalf("MatchTotal = %d, want 3", got)
	}

	m = sendSpecialKey(t, m, tea.KeyEnter)
	if !m.PanelVisible() {
		t.Fatal("enter must keep the bar visible, the search stays active")
	}
	if m.PanelFocused() {
		t.Fatal("enter should blur the input so navigation keys work")
	}
	if got := m.SelectedRef(); got != "net" {
		t.Fatalf("selection after submit = %q, want net", got)
	}
}

func TestModelMatchNavigationWraps(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "t")
	m = sendSpecialKey(t, m, tea.KeyEnter)

	wantOrder := []string{"lat", "notes", "net", "lat"}
	for i, want := range wantOrder {
		m = sendKey(t, m, "n")
		if got := m.SelectedRef(); got != want {
			t.Fatalf("press %d: selection = %q, want %q", i+1, got, want)
		}
	}

	m = sendKey(t, m, "N")
	if got := m.SelectedRef(); got != "net" {
		t.Fatalf("N landed on %q, want first match net", got)
	}
}

func TestModelEscReverts(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "t")
	if got := m.MatchTotal(); got != 3 {
		t.Fatalf("MatchTotal = %d, want 3", got)
	}

	// Esc while the input is focused closes and reverts in one step.
	m = sendSpecialKey(t, m, tea.KeyEsc)
	if m.PanelVisible() {
		t.Error("esc should close the bar")
	}
	if got := m.SearchStateName(); got != "idle" {
		t.Errorf("state after esc = %q, want idle", got)
	}
	if got := m.MatchTotal(); got != 0 {
		t.Errorf("MatchTotal after esc = %d, want 0", got)
	}
	if got := m.PanelQuery(); got != "" {
		t.Errorf("query after esc = %q, want empty", got)
	}
}

func TestModelEscFromBrowseClosesSearch(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "t")
	m = sendSpecialKey(t, m, tea.KeyEnter) // blur, keys go to the outline

	m = sendKey(t, m, "j") // navigation works while blurred
	m = sendSpecialKey(t, m, tea.KeyEsc)
	if m.PanelVisible() {
		t.Error("esc from browse mode should close the visible bar")
	}
	if got := m.SearchStateName(); got != "idle" {
		t.Errorf("state after esc = %q, want idle", got)
	}
}

func TestModelSlashRefocusesBlurredBar(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "net")
	m = sendSpecialKey(t, m, tea.KeyEnter)
	if m.PanelFocused() {
		t.Fatal("precondition: bar should be blurred after submit")
	}

	m = sendKey(t, m, "/")
	if !m.PanelFocused() {
		t.Fatal("/ should refocus the bar")
	}
	if got := m.PanelQuery(); got != "net" {
		t.Fatalf("refocusing lost the query, got %q", got)
	}
}

func TestModelRenameFlow(t *testing.T) {
	m := newTestModel(t)
	m = sendKey(t, m, "j") // row 1: Network timing
	if got := m.SelectedRef(); got != "net" {
		t.Fatalf("precondition: selection = %q, want net", got)
	}

	m = sendKey(t, m, "e")
	if !m.RenameVisible() {
		t.Fatal("e should open the rename modal")
	}

	for _, r := range " v2" {
		m = sendKey(t, m, string(r))
	}
	m = sendSpecialKey(t, m, tea.KeyEnter)
	if m.RenameVisible() {
		t.Fatal("enter should close the modal")
	}
	if got := m.SelectedLabel(); got != "Network timing v2" {
		t.Fatalf("label after rename = %q", got)
	}
	if !strings.Contains(m.StatusMessage(), "Renamed to") {
		t.Errorf("status after rename = %q", m.StatusMessage())
	}
}

func TestModelRenameCancelKeepsLabel(t *testing.T) {
	m := newTestModel(t)
	m = sendKey(t, m, "j")
	m = sendKey(t, m, "e")
	for _, r := range "zzz" {
		m = sendKey(t, m, string(r))
	}
	m = sendSpecialKey(t, m, tea.KeyEsc)

	if m.RenameVisible() {
		t.Fatal("esc should close the modal")
	}
	if got := m.SelectedLabel(); got != "Network timing" {
		t.Fatalf("cancel changed the label to %q", got)
	}
}

func TestModelRenameKeepsDecoration(t *testing.T) {
	m := newTestModel(t)
	m = typeQuery(t, m, "tim")
	m = sendSpecialKey(t, m, tea.KeyEnter)
	if got := m.SelectedRef(); got != "net" {
		t.Fatalf("precondition: selection = %q, want net", got)
	}

	m = sendKey(t, m, "e")
	for _, r := range " redo" {
		m = sendKey(t, m, string(r))
	}
	m = sendSpecialKey(t, m, tea.KeyEnter)

	// The relabeled row still matches "tim", so the pass after the rename
	// keeps it in the index.
	if got := m.MatchTotal(); got != 1 {
		t.Fatalf("MatchTotal after rename = %d, want 1", got)
	}
	if got := m.SelectedLabel(); got != "Network timing redo" {
		t.Fatalf("label after rename = %q", got)
	}
}

func TestModelReloadUnchanged(t *testing.T) {
	ws := testutil.TempWorkspace(t)
	recs := modelFixtureRecords()
	path := testutil.WriteOutlineFile(t, ws, recs)

	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	m := ui.NewModel(o, recs, datasource.DataSource{Type: datasource.SourceTypeJSONL, Path: path})
	defer func() { m.Stop() }()

	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)
	if !strings.Contains(m.StatusMessage(), "Outline unchanged") {
		t.Fatalf("status = %q, want unchanged notice", m.StatusMessage())
	}
	if got := m.VisibleRowCount(); got != 5 {
		t.Fatalf("VisibleRowCount = %d, want 5", got)
	}
}

func TestModelReloadInPlace(t *testing.T) {
	ws := testutil.TempWorkspace(t)
	recs := modelFixtureRecords()
	path := testutil.WriteOutlineFile(t, ws, recs)

	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	m := ui.NewModel(o, recs, datasource.DataSource{Type: datasource.SourceTypeJSONL, Path: path})
	defer func() { m.Stop() }()

	edited := modelFixtureRecords()
	edited[1].Label = "Network timing v2" // relabel
	edited[2].Status = "open"             // restatus
	testutil.WriteOutlineFile(t, ws, edited)

	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)
	if !strings.Contains(m.StatusMessage(), "Reloaded in place: 2") {
		t.Fatalf("status = %q, want in-place notice", m.StatusMessage())
	}

	// Same node handles, new label.
	m = sendKey(t, m, "j")
	if got := m.SelectedLabel(); got != "Network timing v2" {
		t.Fatalf("label after in-place reload = %q", got)
	}
}

func TestModelReloadStructuralKeepsSelectionByRef(t *testing.T) {
	ws := testutil.TempWorkspace(t)
	recs := modelFixtureRecords()
	path := testutil.WriteOutlineFile(t, ws, recs)

	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	m := ui.NewModel(o, recs, datasource.DataSource{Type: datasource.SourceTypeJSONL, Path: path})
	defer func() { m.Stop() }()

	m = sendKey(t, m, "G")
	if got := m.SelectedRef(); got != "rfc" {
		t.Fatalf("precondition: selection = %q, want rfc", got)
	}

	grown := append(modelFixtureRecords(), model.Record{
		Ref: "tp", Parent: "net", Label: "Throughput target", Kind: "task", Status: "open",
	})
	testutil.WriteOutlineFile(t, ws, grown)

	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)
	if !strings.Contains(m.StatusMessage(), "Reloaded:") {
		t.Fatalf("status = %q, want structural reload notice", m.StatusMessage())
	}
	if got := m.VisibleRowCount(); got != 6 {
		t.Fatalf("VisibleRowCount after growth = %d, want 6", got)
	}
	if got := m.SelectedRef(); got != "rfc" {
		t.Fatalf("selection after rebuild = %q, want rfc restored by ref", got)
	}
}

func TestModelReloadDroppedSelectionFallsBackToRoot(t *testing.T) {
	ws := testutil.TempWorkspace(t)
	recs := modelFixtureRecords()
	path := testutil.WriteOutlineFile(t, ws, recs)

	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	m := ui.NewModel(o, recs, datasource.DataSource{Type: datasource.SourceTypeJSONL, Path: path})
	defer func() { m.Stop() }()

	m = sendKey(t, m, "G") // rfc

	shrunk := modelFixtureRecords()[:4] // rfc removed
	testutil.WriteOutlineFile(t, ws, shrunk)

	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)
	if got := m.SelectedRef(); got != "root" {
		t.Fatalf("selection after losing its row = %q, want root", got)
	}
	if got := m.VisibleRowCount(); got != 4 {
		t.Fatalf("VisibleRowCount = %d, want 4", got)
	}
}

func TestModelReloadKeepsSearchDecorations(t *testing.T) {
	ws := testutil.TempWorkspace(t)
	recs := modelFixtureRecords()
	path := testutil.WriteOutlineFile(t, ws, recs)

	o, err := model.BuildOutline(recs, "Infra planning")
	if err != nil {
		t.Fatalf("BuildOutline: %v", err)
	}
	m := ui.NewModel(o, recs, datasource.DataSource{Type: datasource.SourceTypeJSONL, Path: path})
	defer func() { m.Stop() }()

	m = typeQuery(t, m, "t")
	if got := m.MatchTotal(); got != 3 {
		t.Fatalf("precondition: MatchTotal = %d, want 3", got)
	}

	grown := append(modelFixtureRecords(), model.Record{
		Ref: "tp", Parent: "net", Label: "Throughput target", Kind: "task", Status: "open",
	})
	testutil.WriteOutlineFile(t, ws, grown)

	newM, _ := m.Update(ui.FileChangedMsg{})
	m = newM.(ui.Model)
	// The new row matches "t" as well; the rebuilt snapshot picks it up.
	if got := m.MatchTotal(); got != 4 {
		t.Fatalf("MatchTotal after reload = %d, want 4", got)
	}
	if got := m.SearchStateName(); got != "highlighting" {
		t.Fatalf("state after reload = %q, want highlighting", got)
	}
}

func TestModelWindowSize(t *testing.T) {
	m := newTestModel(t)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = newM.(ui.Model)

	view := m.View()
	if view == "" {
		t.Fatal("view should render after a window size message")
	}
	if !strings.Contains(view, "Infra planning") {
		t.Errorf("view missing the root row")
	}
}

func TestModelHelpOverlay(t *testing.T) {
	m := newTestModel(t)

	m = sendKey(t, m, "?")
	if !m.HelpVisible() {
		t.Fatal("? should open the help overlay")
	}
	if !strings.Contains(m.View(), "outline viewer") {
		t.Error("help overlay missing its intro text")
	}

	// Keys scroll the overlay instead of moving the outline cursor.
	before := m.SelectedRef()
	m = sendKey(t, m, "j")
	if got := m.SelectedRef(); got != before {
		t.Error("j while help is open moved the outline selection")
	}

	m = sendKey(t, m, "?")
	if m.HelpVisible() {
		t.Fatal("? should close the help overlay again")
	}
}

func TestModelCopyPathSetsStatus(t *testing.T) {
	m := newTestModel(t)
	m = sendKey(t, m, "G") // rfc, a nested row

	m = sendKey(t, m, "y")
	// Headless environments have no clipboard; either way the action
	// reports what happened.
	if m.StatusMessage() == "" {
		t.Fatal("y should always set a status message")
	}
}

func TestModelExportImage(t *testing.T) {
	m := newTestModel(t)

	dir := t.TempDir()
	cfg := m.Config()
	cfg.Export.Format = "svg"
	cfg.Export.OutputDir = dir
	m = m.WithConfig(cfg)

	m = sendKey(t, m, "E")
	if !strings.Contains(m.StatusMessage(), "Exported") {
		t.Fatalf("status after export = %q", m.StatusMessage())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("export wrote %d files, want 1", len(entries))
	}
	if got := filepath.Ext(entries[0].Name()); got != ".svg" {
		t.Errorf("export extension = %q, want .svg", got)
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q's command is not tea.Quit")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("ctrl+c's command is not tea.Quit")
	}
}

func TestModelFolderKeysChangeRowCount(t *testing.T) {
	m := newTestModel(t)
	if got := m.VisibleRowCount(); got != 5 {
		t.Fatalf("VisibleRowCount = %d, want 5", got)
	}

	m = sendKey(t, m, "C")
	if got := m.VisibleRowCount(); got != 3 {
		t.Fatalf("VisibleRowCount after C = %d, want 3", got)
	}

	m = sendKey(t, m, "O")
	if got := m.VisibleRowCount(); got != 5 {
		t.Fatalf("VisibleRowCount after O = %d, want 5", got)
	}
}
