package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/canopy/pkg/treesearch"
)

// RenameModal edits a single node label in place. Accepting the edit goes
// through the app model, which relabels the node and tells the search
// controller the row was rewritten so its decoration survives.
type RenameModal struct {
	input    textinput.Model
	theme    Theme
	target   treesearch.NodeID
	original string
	width    int
	height   int

	saveRequested   bool
	cancelRequested bool
}

// NewRenameModal creates a modal pre-filled with the node's current label.
func NewRenameModal(target treesearch.NodeID, label string, theme Theme) RenameModal {
	ti := textinput.New()
	ti.SetValue(label)
	ti.CharLimit = 500
	ti.Width = 50
	ti.Focus()
	ti.CursorEnd()

	return RenameModal{
		input:    ti,
		theme:    theme,
		target:   target,
		original: label,
	}
}

// Update handles input for the modal.
func (m RenameModal) Update(msg tea.Msg) (RenameModal, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.saveRequested = true
			return m, nil
		case "esc":
			m.cancelRequested = true
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Target returns the node being renamed.
func (m RenameModal) Target() treesearch.NodeID { return m.target }

// Value returns the edited label.
func (m RenameModal) Value() string { return m.input.Value() }

// Dirty reports whether the label changed from the original.
func (m RenameModal) Dirty() bool { return m.input.Value() != m.original }

// IsSaveRequested returns true when enter was pressed.
func (m RenameModal) IsSaveRequested() bool { return m.saveRequested }

// IsCancelRequested returns true when esc was pressed.
func (m RenameModal) IsCancelRequested() bool { return m.cancelRequested }

// SetSize sets the modal dimensions.
func (m *RenameModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the modal centered in the window.
func (m RenameModal) View() string {
	r := m.theme.Renderer

	boxWidth := m.width - 10
	if boxWidth < 40 {
		boxWidth = 40
	}
	if boxWidth > 70 {
		boxWidth = 70
	}

	headerStyle := r.NewStyle().
		Bold(true).
		Foreground(m.theme.Primary)

	subtextStyle := r.NewStyle().
		Foreground(m.theme.Subtext).
		Italic(true)

	var content strings.Builder
	content.WriteString(headerStyle.Render("Rename"))
	content.WriteString("\n\n")
	content.WriteString(m.input.View())
	content.WriteString("\n\n")
	content.WriteString(subtextStyle.Render("[Enter] Save   [Esc] Cancel"))

	boxStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.Primary).
		Padding(1, 2).
		Width(boxWidth)

	box := boxStyle.Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
