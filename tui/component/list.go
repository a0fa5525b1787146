package component

import (
	"knowledge-center/pubsub"
	"knowledge-center/session"
	"knowledge-center/tui/component/renderer"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ListModel shows the conversation in a scrollable viewport. Rendering is
// delegated to a MessageRenderer.
type ListModel struct {
	viewport viewport.Model
	messages []session.ChatMessage
	width    int
	height   int

	renderer *renderer.MessageRenderer
}

// NewListModel starts with the given history, usually the greeting.
func NewListModel(r *renderer.MessageRenderer, history []session.ChatMessage) ListModel {
	vp := viewport.New(30, 5)
	m := ListModel{
		viewport: vp,
		messages: append([]session.ChatMessage(nil), history...),
		renderer: r,
		width:    30,
		height:   5,
	}
	m.updateViewportContent()
	return m
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (ListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.LineUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.LineDown(3)
		}
		return m, nil
	case pubsub.Event[session.ChatMessage]:
		if msg.Type == pubsub.CreatedEvent {
			m.messages = append(m.messages, msg.Payload)
			m.updateViewportContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ListModel) View() string {
	return m.viewport.View()
}

// SetMessages replaces the history, used after a reset.
func (m *ListModel) SetMessages(msgs []session.ChatMessage) {
	m.messages = append(m.messages[:0], msgs...)
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

func (m ListModel) Messages() []session.ChatMessage {
	return m.messages
}

func (m *ListModel) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height

	m.renderer.SetViewportWidth(width)
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

// Refresh re-renders, after a theme change for instance.
func (m *ListModel) Refresh() {
	m.updateViewportContent()
}

func (m *ListModel) updateViewportContent() {
	m.viewport.SetContent(m.renderer.RenderMessages(m.messages))
}
