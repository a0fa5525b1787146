package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"knowledge-center/api"
	"knowledge-center/pubsub"
	"knowledge-center/session"
	"knowledge-center/tui/component"
	"knowledge-center/tui/component/renderer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatBackend struct {
	session.Backend
	resp *api.ChatResponse
	err  error
}

func (b chatBackend) Chat(context.Context, string) (*api.ChatResponse, error) {
	return b.resp, b.err
}

func newModel(t *testing.T, backend session.Backend) (Model, *session.Conversation) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	conv := session.NewConversation(backend, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(conv.Close)
	m := New(ctx, conv, renderer.NewStyles(true), "")
	m.SetSize(80, 24)
	return m, conv
}

func TestSubmitDisablesInputUntilDone(t *testing.T) {
	m, conv := newModel(t, chatBackend{resp: &api.ChatResponse{Response: "Revenue grew.",
		Sources: []api.Source{{Filename: "q1.pdf", Page: 4}}}})

	m, cmd := m.Update(component.EditorSubmitMsg{Value: "How did Q1 go?"})
	require.NotNil(t, cmd)
	assert.True(t, m.Pending())
	assert.True(t, m.status.IsRunning())
	assert.Equal(t, ThinkingText, m.status.Text())
	assert.Contains(t, m.View(), ThinkingText)

	// a second submit while pending is dropped
	_, again := m.Update(component.EditorSubmitMsg{Value: "again"})
	assert.Nil(t, again)

	done := m.send("How did Q1 go?")()
	require.IsType(t, sendDoneMsg{}, done)

	for i := 0; i < 3; i++ {
		ev := m.waitForMessage()()
		m, _ = m.Update(ev)
	}
	m, _ = m.Update(done)

	assert.False(t, m.Pending())
	assert.False(t, m.status.IsRunning())
	assert.False(t, m.edit.Disabled())

	msgs := m.list.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, conv.Messages()[2].ID, msgs[2].ID)
	assert.Contains(t, m.View(), "q1.pdf (p. 4)")
}

func TestFailedAnswerShowsFallback(t *testing.T) {
	m, _ := newModel(t, chatBackend{err: &api.Error{Kind: api.KindConnection, Cause: errors.New("refused")}})

	m, _ = m.Update(component.EditorSubmitMsg{Value: "hi"})
	done := m.send("hi")()
	assert.Error(t, done.(sendDoneMsg).err)

	for i := 0; i < 3; i++ {
		m, _ = m.Update(m.waitForMessage()())
	}
	m, _ = m.Update(done)

	msgs := m.list.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, session.ChatFallback, msgs[2].Content)
	assert.True(t, msgs[2].Failed)
}

func TestCtrlLResetsConversation(t *testing.T) {
	m, conv := newModel(t, chatBackend{resp: &api.ChatResponse{Response: "ok"}})
	_, err := conv.Send(context.Background(), "hi")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		m, _ = m.Update(m.waitForMessage()())
	}
	require.Len(t, m.list.Messages(), 3)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Len(t, m.list.Messages(), 1)

	ev := m.waitForMessage()()
	assert.Equal(t, pubsub.DeletedEvent, ev.(pubsub.Event[session.ChatMessage]).Type)
}
