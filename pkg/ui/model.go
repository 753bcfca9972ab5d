// Package ui is the terminal front end: a Bubble Tea app wrapping the
// outline widget, the search bar and the modals, wired to the search
// engine and the reload pipeline.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/canopy/internal/datasource"
	"github.com/vanderheijden86/canopy/pkg/analysis"
	"github.com/vanderheijden86/canopy/pkg/config"
	"github.com/vanderheijden86/canopy/pkg/debug"
	"github.com/vanderheijden86/canopy/pkg/export"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/treesearch"
	"github.com/vanderheijden86/canopy/pkg/watcher"
)

// FileChangedMsg is sent when the outline source file changes on disk.
type FileChangedMsg struct{}

// SearchTickMsg fires after the search debounce delay. Seq identifies the
// keystroke burst it belongs to; stale ticks are dropped.
type SearchTickMsg struct {
	Seq int
}

// WatchFileCmd returns a command that waits for file changes and sends
// FileChangedMsg.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func searchTickCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return SearchTickMsg{Seq: seq}
	})
}

// Model is the main Bubble Tea model for canopy.
type Model struct {
	// Data
	outline   *model.Outline
	records   []model.Record // last successful load, baseline for reload diffs
	source    datasource.DataSource
	rootLabel string
	watcher   *watcher.Watcher

	// Search engine
	panel      *SearchPanel
	controller *treesearch.Controller

	// UI components
	view  OutlineView
	theme Theme

	// Rename modal
	showRename  bool
	renameModal RenameModal

	// Help overlay
	showHelp   bool
	helpView   string
	helpScroll int

	// Config
	appConfig config.Config

	// Window state
	ready  bool
	width  int
	height int

	// Status line
	statusMsg     string
	statusIsError bool
	lastReload    time.Time
	shapeSummary  string

	// Search debounce
	searchSeq int
}

// NewModel builds the app model around a loaded outline. The source is
// where the outline came from; when it has a path a file watcher starts so
// external edits reload live.
func NewModel(outline *model.Outline, records []model.Record, source datasource.DataSource) Model {
	theme := DefaultTheme(lipgloss.NewRenderer(os.Stdout))

	panel := NewSearchPanel(theme)
	controller := treesearch.NewController(panel)

	view := NewOutlineView(outline, theme)
	view.SetSearch(controller)

	if root := outline.Root(); root != treesearch.NoNode {
		outline.Select(root)
	}
	view.Refresh()

	// File watcher for live reload
	var fileWatcher *watcher.Watcher
	var watcherErr error
	if source.Path != "" {
		w, err := watcher.NewWatcher(source.Path,
			watcher.WithDebounceDuration(watcher.DefaultDebounceDuration),
		)
		if err != nil {
			watcherErr = err
		} else if err := w.Start(); err != nil {
			watcherErr = err
		} else {
			fileWatcher = w
		}
	}

	var initialStatus string
	var initialStatusErr bool
	if watcherErr != nil {
		initialStatus = fmt.Sprintf("Live reload unavailable: %v", watcherErr)
		initialStatusErr = true
	}

	// Default dimensions so the UI is usable before the first
	// WindowSizeMsg arrives (slow to come in tmux and over SSH).
	const defaultWidth = 120
	const defaultHeight = 40
	view.SetSize(defaultWidth, defaultHeight-1)

	return Model{
		outline:       outline,
		records:       records,
		source:        source,
		rootLabel:     outline.Label(outline.Root()),
		watcher:       fileWatcher,
		panel:         panel,
		controller:    controller,
		view:          view,
		theme:         theme,
		appConfig:     config.DefaultConfig(),
		ready:         true,
		width:         defaultWidth,
		height:        defaultHeight,
		statusMsg:     initialStatus,
		statusIsError: initialStatusErr,
		shapeSummary:  analysis.AnalyzeShape(outline).Summary(),
	}
}

// WithConfig applies the loaded app configuration: default search mode,
// watcher enablement and debounce. Call after NewModel.
func (m Model) WithConfig(cfg config.Config) Model {
	m.appConfig = cfg

	if cfg.Search.Mode() == "filter" {
		m.panel.SetMode(treesearch.ModeFilter)
	} else {
		m.panel.SetMode(treesearch.ModeHighlight)
	}

	if m.watcher != nil {
		if !cfg.Watcher.IsEnabled() {
			m.watcher.Stop()
			m.watcher = nil
		} else if d := cfg.Watcher.Debounce(); d != watcher.DefaultDebounceDuration {
			m.watcher.Stop()
			m.watcher = nil
			w, err := watcher.NewWatcher(m.source.Path, watcher.WithDebounceDuration(d))
			if err == nil {
				err = w.Start()
			}
			if err != nil {
				m.statusMsg = fmt.Sprintf("Live reload unavailable: %v", err)
				m.statusIsError = true
			} else {
				m.watcher = w
			}
		}
	}

	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchFileCmd(m.watcher)
	}
	return nil
}

// Stop shuts down background machinery. Call after the program exits.
func (m *Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
}

// Config returns the app configuration, including queries remembered during
// the session; callers persist it on shutdown.
func (m Model) Config() config.Config {
	return m.appConfig
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.view.SetSize(msg.Width, m.bodyHeight())
		m.renameModal.SetSize(msg.Width, msg.Height)
		if m.showHelp {
			m.helpView = renderHelp(msg.Width)
		}
		return m, nil

	case SearchTickMsg:
		// Only the tick from the latest keystroke burst runs a pass.
		if msg.Seq == m.searchSeq {
			m.runSearch()
		}
		return m, nil

	case FileChangedMsg:
		return m.handleFileChanged()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showRename {
		return m.handleRenameKeys(msg)
	}
	if m.showHelp {
		return m.handleHelpKeys(msg)
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// A visible but blurred bar keeps the search active while navigation
	// keys go to the outline.
	if m.panel.Visible() && m.panel.Focused() {
		return m.handleSearchKeys(msg)
	}
	return m.handleBrowseKeys(msg)
}

// handleSearchKeys routes keys while the search bar is open. Printable keys
// go to the input; navigation stays available on the arrow keys.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Full revert: decorations drop, hidden rows come back.
		m.panel.Close()
		m.runSearch()
		m.statusMsg = ""
		m.statusIsError = false
		return m, nil

	case "enter":
		if q := strings.TrimSpace(m.panel.Query()); q != "" {
			m.appConfig.RememberQuery(q)
		}
		m.panel.Blur()
		m.controller.OnQuerySubmitted()
		m.view.Refresh()
		m.panel.SetMatchStatus(m.matchPosition())
		return m, nil

	case "tab":
		m.panel.ToggleMode()
		m.runSearch()
		return m, nil

	case "up":
		m.view.MoveUp()
		m.panel.SetMatchStatus(m.matchPosition())
		return m, nil

	case "down":
		m.view.MoveDown()
		m.panel.SetMatchStatus(m.matchPosition())
		return m, nil
	}

	cmd := m.panel.Update(msg)
	m.searchSeq++
	return m, tea.Batch(cmd, searchTickCmd(m.searchSeq, m.appConfig.Search.Debounce()))
}

func (m Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "/":
		m.panel.Open()
		return m, nil

	case "esc":
		if m.panel.Visible() {
			m.panel.Close()
			m.runSearch()
			m.statusMsg = ""
			m.statusIsError = false
		}
		return m, nil

	case "j", "down":
		m.view.MoveDown()
	case "k", "up":
		m.view.MoveUp()
	case "g", "home":
		m.view.JumpToTop()
	case "G", "end":
		m.view.JumpToBottom()
	case "pgdown":
		m.view.PageForward()
	case "pgup":
		m.view.PageBackward()
	case "p":
		m.view.JumpToParent()
	case "h", "left":
		m.view.Collapse()
	case "l", "right":
		m.view.Expand()
	case "o", " ":
		m.view.ToggleExpand()
	case "O":
		m.view.ExpandAll()
	case "C":
		m.view.CollapseAll()

	case "n":
		m.controller.SelectNextMatch()
		m.view.Refresh()
		m.panel.SetMatchStatus(m.matchPosition())
	case "N":
		m.controller.SelectFirstMatch()
		m.view.Refresh()
		m.panel.SetMatchStatus(m.matchPosition())

	case "e":
		m.openRenameModal()
	case "y":
		m.copyPathToClipboard()
	case "E":
		m.exportImage()
	case "?":
		m.showHelp = true
		m.helpScroll = 0
		m.helpView = renderHelp(m.width)
	}

	return m, nil
}

func (m Model) handleRenameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.renameModal, cmd = m.renameModal.Update(msg)

	if m.renameModal.IsCancelRequested() {
		m.showRename = false
		return m, cmd
	}
	if !m.renameModal.IsSaveRequested() {
		return m, cmd
	}

	m.showRename = false
	if !m.renameModal.Dirty() {
		return m, cmd
	}

	id := m.renameModal.Target()
	label := strings.TrimSpace(m.renameModal.Value())
	if label == "" {
		m.statusMsg = "❌ Label cannot be empty"
		m.statusIsError = true
		return m, cmd
	}

	// Relabeling resets the row to plain text; the edit notification
	// restores its cached decoration before the next pass re-verifies it.
	m.outline.Relabel(id, label)
	m.controller.NotifyItemEdited(id)
	m.runSearch()
	m.statusMsg = fmt.Sprintf("Renamed to %q", truncate(label, 40))
	m.statusIsError = false
	return m, cmd
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "?":
		m.showHelp = false
	case "j", "down":
		m.helpScroll++
	case "k", "up":
		if m.helpScroll > 0 {
			m.helpScroll--
		}
	case "g":
		m.helpScroll = 0
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// runSearch executes one engine pass and resyncs the widgets.
func (m *Model) runSearch() {
	m.controller.Update(m.outline)
	m.view.Refresh()
	m.panel.SetMatchStatus(m.matchPosition())
}

// matchPosition returns the selected row's position among the matches in
// render order, and the match total. Position 0 means the selection is not
// on a match.
func (m *Model) matchPosition() (int, int) {
	ix := m.controller.Index()
	total := ix.Total()
	if total == 0 {
		return 0, 0
	}
	sel := m.outline.Selected()
	if sel == treesearch.NoNode || !ix.IsMatch(sel) {
		return 0, total
	}
	pos := 0
	for _, n := range m.controller.Snapshot().RenderOrder() {
		if !ix.IsMatch(n) {
			continue
		}
		pos++
		if n == sel {
			return pos, total
		}
	}
	return 0, total
}

func (m *Model) selectedID() treesearch.NodeID {
	if sel := m.outline.Selected(); sel != treesearch.NoNode {
		return sel
	}
	return m.view.CursorID()
}

func (m *Model) openRenameModal() {
	id := m.selectedID()
	n := m.outline.Node(id)
	if n == nil {
		m.statusMsg = "❌ No row selected"
		m.statusIsError = true
		return
	}
	m.renameModal = NewRenameModal(id, n.Label, m.theme)
	m.renameModal.SetSize(m.width, m.height)
	m.showRename = true
}

func (m *Model) copyPathToClipboard() {
	id := m.selectedID()
	if m.outline.Node(id) == nil {
		m.statusMsg = "❌ No row selected"
		m.statusIsError = true
		return
	}

	path := joinPath(m.outline.Path(id))
	if err := clipboard.WriteAll(path); err != nil {
		m.statusMsg = fmt.Sprintf("❌ Clipboard error: %v", err)
		m.statusIsError = true
		return
	}
	m.statusMsg = fmt.Sprintf("📋 Copied %s", truncate(path, 60))
	m.statusIsError = false
}

func (m *Model) exportImage() {
	opts := export.SnapshotOptions{
		Format: m.appConfig.Export.Format,
		Dir:    m.appConfig.Export.OutputDir,
		Title:  m.rootLabel,
	}
	path, err := export.WriteTreeSnapshot(m.outline, m.controller.Index(), opts)
	if err != nil {
		m.statusMsg = fmt.Sprintf("❌ Export failed: %v", err)
		m.statusIsError = true
		return
	}
	m.statusMsg = fmt.Sprintf("🖼  Exported %s", path)
	m.statusIsError = false
}

// handleFileChanged reloads the outline after an external edit. Label and
// status edits apply in place so node handles and the search snapshot
// survive; anything structural rebuilds the outline and tells the engine
// its snapshot is stale.
func (m Model) handleFileChanged() (tea.Model, tea.Cmd) {
	rearm := func() tea.Cmd {
		if m.watcher != nil {
			return WatchFileCmd(m.watcher)
		}
		return nil
	}

	if m.source.Path == "" {
		return m, rearm()
	}

	start := time.Now()
	newRecords, err := datasource.LoadFromSource(m.source)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Reload error: %v", err)
		m.statusIsError = true
		return m, rearm()
	}

	diff := datasource.DiffRecords(m.records, newRecords)
	debug.Log("reload: %s", diff.Summary())

	switch {
	case diff.Empty():
		m.statusMsg = fmt.Sprintf("Outline unchanged (%d rows)", diff.CountNew)
		m.statusIsError = false

	case !diff.Structural():
		edited, _ := datasource.ApplyInPlace(m.outline, diff)
		for _, id := range edited {
			m.controller.NotifyItemEdited(id)
		}
		m.runSearch()
		m.statusMsg = fmt.Sprintf("Reloaded in place: %d edits in %s",
			len(diff.Relabeled)+len(diff.Restatused), formatReloadDuration(time.Since(start)))
		m.statusIsError = false

	default:
		// Preserve the selection by ref across the rebuild.
		var selRef string
		if n := m.outline.Node(m.outline.Selected()); n != nil {
			selRef = n.Ref
		}

		newOutline, err := model.BuildOutline(newRecords, m.rootLabel)
		if err != nil {
			m.statusMsg = fmt.Sprintf("Reload error: %v", err)
			m.statusIsError = true
			return m, rearm()
		}

		if selRef != "" {
			if id, ok := newOutline.ByRef(selRef); ok {
				newOutline.Select(id)
			}
		}
		if newOutline.Selected() == treesearch.NoNode {
			newOutline.Select(newOutline.Root())
		}

		m.outline = newOutline
		m.rootLabel = newOutline.Label(newOutline.Root())
		m.view.SetOutline(newOutline)
		m.controller.NotifyStructuralChange()
		m.runSearch()
		m.shapeSummary = analysis.AnalyzeShape(newOutline).Summary()
		m.statusMsg = fmt.Sprintf("Reloaded: %d → %d rows in %s",
			diff.CountOld, diff.CountNew, formatReloadDuration(time.Since(start)))
		m.statusIsError = false
	}

	m.records = newRecords
	m.lastReload = time.Now()
	return m, rearm()
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch {
	case m.showRename:
		body = m.renameModal.View()
	case m.showHelp:
		body = m.renderHelpOverlay()
	default:
		m.view.SetSize(m.width, m.bodyHeight())
		rows := m.view.View()
		if m.panel.Visible() {
			body = lipgloss.JoinVertical(lipgloss.Left, m.panel.View(m.width), rows)
		} else {
			body = rows
		}
	}

	footer := m.renderFooter()

	// Clamp to the terminal height so the top line never scrolls away.
	finalStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height)

	return finalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, footer))
}

func (m Model) renderHelpOverlay() string {
	visible := m.height - 2
	if visible < 5 {
		visible = 5
	}
	body := scrollLines(m.helpView, m.helpScroll, visible)
	hint := m.theme.MutedText.Render(" j/k scroll · esc close")
	return lipgloss.JoinVertical(lipgloss.Left, body, hint)
}

// bodyHeight returns the rows available to the outline widget after the
// footer and, when open, the search bar.
func (m Model) bodyHeight() int {
	h := m.height - 1
	if m.panel.Visible() {
		h -= 2
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) renderFooter() string {
	t := m.theme

	var left string
	if m.statusMsg != "" {
		style := t.MutedText
		if m.statusIsError {
			style = t.Renderer.NewStyle().Foreground(ColorDanger)
		}
		left = style.Render(m.statusMsg)
	} else {
		left = t.MutedText.Render("/ search · e rename · y copy path · E export · ? help · q quit")
	}

	var parts []string
	if m.controller.State() != treesearch.StateIdle {
		parts = append(parts, fmt.Sprintf("%d matches (%s)", m.controller.Index().Total(), m.panel.Mode()))
	}
	if m.shapeSummary != "" {
		parts = append(parts, m.shapeSummary)
	}
	if m.source.Type != "" {
		parts = append(parts, string(m.source.Type))
	}
	if !m.lastReload.IsZero() {
		parts = append(parts, "reloaded "+FormatTimeRel(m.lastReload))
	}
	right := t.SecondaryText.Render(strings.Join(parts, " · "))

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

func formatReloadDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

// ── Test accessors ──

// SearchStateName returns the controller state as a string.
func (m Model) SearchStateName() string { return m.controller.State().String() }

// MatchTotal returns the number of direct matches in the live index.
func (m Model) MatchTotal() int { return m.controller.Index().Total() }

// PanelVisible reports whether the search bar is open.
func (m Model) PanelVisible() bool { return m.panel.Visible() }

// PanelFocused reports whether the search input has keyboard focus.
func (m Model) PanelFocused() bool { return m.panel.Focused() }

// PanelQuery returns the current search text.
func (m Model) PanelQuery() string { return m.panel.Query() }

// PanelModeName returns the current search mode as a string.
func (m Model) PanelModeName() string { return m.panel.Mode().String() }

// SelectedRef returns the selected node's source ref, or "".
func (m Model) SelectedRef() string {
	if n := m.outline.Node(m.outline.Selected()); n != nil {
		return n.Ref
	}
	return ""
}

// SelectedLabel returns the selected node's label, or "".
func (m Model) SelectedLabel() string {
	return m.outline.Label(m.outline.Selected())
}

// VisibleRowCount returns the number of rows the outline widget shows.
func (m Model) VisibleRowCount() int { return m.view.RowCount() }

// SearchSeq returns the current debounce sequence number.
func (m Model) SearchSeq() int { return m.searchSeq }

// HelpVisible reports whether the help overlay is open.
func (m Model) HelpVisible() bool { return m.showHelp }

// RenameVisible reports whether the rename modal is open.
func (m Model) RenameVisible() bool { return m.showRename }

// StatusMessage returns the current footer status text.
func (m Model) StatusMessage() string { return m.statusMsg }
