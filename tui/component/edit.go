package component

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EditorSubmitMsg is sent when the user presses enter on a non-blank input.
type EditorSubmitMsg struct {
	Value string
}

// EditModel is the chat input box.
type EditModel struct {
	textarea textarea.Model
	width    int
	disabled bool
}

// NewEditModel creates a focused single-line input.
func NewEditModel() EditModel {
	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.Focus()

	ta.Prompt = "> "
	ta.CharLimit = 2000

	ta.SetWidth(30)
	ta.SetHeight(1)

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.ShowLineNumbers = false

	// enter submits
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return EditModel{
		textarea: ta,
		width:    30,
	}
}

func (m EditModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m EditModel) Update(msg tea.Msg) (EditModel, tea.Cmd) {
	if m.disabled {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEnter {
		value := m.textarea.Value()
		if strings.TrimSpace(value) == "" {
			return m, nil
		}
		m.textarea.Reset()
		return m, func() tea.Msg {
			return EditorSubmitMsg{Value: value}
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m EditModel) View() string {
	return m.textarea.View()
}

func (m *EditModel) SetWidth(width int) {
	m.width = width
	m.textarea.SetWidth(width)
}

// SetDisabled blurs the input and ignores keys until re-enabled.
func (m *EditModel) SetDisabled(disabled bool) tea.Cmd {
	m.disabled = disabled
	if disabled {
		m.textarea.Blur()
		m.textarea.Placeholder = "Waiting for the answer..."
		return nil
	}
	m.textarea.Placeholder = "Ask a question about your documents..."
	return m.textarea.Focus()
}

func (m EditModel) Disabled() bool {
	return m.disabled
}

func (m EditModel) Focused() bool {
	return m.textarea.Focused()
}

func (m EditModel) Value() string {
	return m.textarea.Value()
}

func (m *EditModel) Reset() {
	m.textarea.Reset()
}

func (m EditModel) Height() int {
	return m.textarea.Height()
}
