// Package chat is the conversation view: message history, a spinner while the
// backend answers, and the input line.
package chat

import (
	"context"

	"knowledge-center/pubsub"
	"knowledge-center/session"
	"knowledge-center/tui/component"
	"knowledge-center/tui/component/renderer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ThinkingText is shown next to the spinner while an answer is pending.
const ThinkingText = "Thinking..."

// sendDoneMsg reports the end of a Send call.
type sendDoneMsg struct {
	err error
}

// Model is the chat view.
type Model struct {
	list   component.ListModel
	edit   component.EditModel
	status component.StatusModel

	conv     *session.Conversation
	renderer *renderer.MessageRenderer
	sub      <-chan pubsub.Event[session.ChatMessage]
	ctx      context.Context
	pending  bool

	width  int
	height int
}

// New subscribes to conv for the lifetime of ctx.
func New(ctx context.Context, conv *session.Conversation, styles *renderer.Styles, markdownStyle string) Model {
	r := renderer.NewMessageRenderer(renderer.Options{Styles: styles, MarkdownStyle: markdownStyle})
	return Model{
		list:     component.NewListModel(r, conv.Messages()),
		edit:     component.NewEditModel(),
		status:   component.NewStatusModel(styles, "Ready"),
		conv:     conv,
		renderer: r,
		sub:      conv.Broker().Subscribe(ctx),
		ctx:      ctx,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.edit.Init(),
		m.status.Init(),
		m.waitForMessage(),
	)
}

func (m Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

func (m Model) send(text string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.conv.Send(m.ctx, text)
		return sendDoneMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case component.EditorSubmitMsg:
		if m.pending {
			return m, nil
		}
		m.pending = true
		m.edit.SetDisabled(true)
		var cmd tea.Cmd
		m.status, cmd = m.status.Start(ThinkingText)
		return m, tea.Batch(cmd, m.send(msg.Value))

	case sendDoneMsg:
		m.pending = false
		m.status = m.status.Stop()
		return m, m.edit.SetDisabled(false)

	case pubsub.Event[session.ChatMessage]:
		cmds = append(cmds, m.waitForMessage())
		if msg.Type == pubsub.DeletedEvent {
			m.list.SetMessages(m.conv.Messages())
			return m, tea.Batch(cmds...)
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+l" && !m.pending {
			if err := m.conv.Reset(); err == nil {
				m.list.SetMessages(m.conv.Messages())
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.edit, cmd = m.edit.Update(msg)
	cmds = append(cmds, cmd)

	m.status, cmd = m.status.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.list.View(),
		m.status.View(),
		m.edit.View(),
	)
}

// SetSize lays out the view inside width x height.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	statusHeight := lipgloss.Height(m.status.View())
	listHeight := height - statusHeight - m.edit.Height()

	m.list.SetSize(width, listHeight)
	m.edit.SetWidth(width)
	m.status.SetWidth(width)
}

// SetTheme re-renders the history with new styles.
func (m *Model) SetTheme(styles *renderer.Styles, markdownStyle string) {
	m.renderer.SetTheme(styles, markdownStyle)
	m.status.SetStyles(styles)
	m.list.Refresh()
}

// Pending reports whether an answer is outstanding.
func (m Model) Pending() bool {
	return m.pending
}

// Focus gives keyboard focus to the input unless a request is pending.
func (m *Model) Focus() tea.Cmd {
	if m.pending {
		return nil
	}
	return m.edit.SetDisabled(false)
}
