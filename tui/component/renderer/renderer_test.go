package renderer

import (
	"testing"
	"time"

	"knowledge-center/api"
	"knowledge-center/session"

	"github.com/stretchr/testify/assert"
)

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "q1.pdf (p. 3)", SourceLabel(api.Source{Filename: "q1.pdf", Page: 3}))
	assert.Equal(t, "deck.pptx", SourceLabel(api.Source{Filename: "deck.pptx", Page: 0}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "报告…", Truncate("报告总结", 3))
	assert.Equal(t, "", Truncate("hello", 0))
}

func TestShortenURL(t *testing.T) {
	assert.Equal(t, "localhost:8080/api", ShortenURL("http://localhost:8080/api/"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.NotEqual(t, "-", FormatDate(time.Now()))
}

func TestRenderUserMessage(t *testing.T) {
	r := NewMessageRenderer(Options{Styles: NewStyles(false)})
	out := r.RenderMessage(session.ChatMessage{Role: session.RoleUser, Content: "what is **bold**?"})
	assert.Contains(t, out, "You:")
	assert.Contains(t, out, "what is **bold**?", "user text is not markdown rendered")
}

func TestRenderBotMessageWithSources(t *testing.T) {
	r := NewMessageRenderer(Options{})
	out := r.RenderMessage(session.ChatMessage{
		Role:    session.RoleBot,
		Content: "Revenue grew.",
		Sources: []api.Source{{Filename: "q1.pdf", Page: 2}, {Filename: "deck.pptx"}},
	})
	assert.Contains(t, out, "Assistant:")
	assert.Contains(t, out, "Revenue")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "q1.pdf (p. 2)")
	assert.Contains(t, out, "deck.pptx")
	assert.NotContains(t, out, "(p. 0)")
}

func TestRenderBotMessageWithoutSources(t *testing.T) {
	r := NewMessageRenderer(Options{})
	out := r.RenderMessage(session.ChatMessage{Role: session.RoleBot, Content: "Nothing found.", Sources: []api.Source{}})
	assert.NotContains(t, out, "Sources:")
}

func TestRenderFailedMessage(t *testing.T) {
	r := NewMessageRenderer(Options{})
	out := r.RenderMessage(session.ChatMessage{Role: session.RoleBot, Content: session.ChatFallback, Failed: true})
	assert.Contains(t, out, session.ChatFallback)
}

func TestRenderMessagesCacheResetsOnShrink(t *testing.T) {
	r := NewMessageRenderer(Options{})
	msgs := []session.ChatMessage{
		{ID: "1", Role: session.RoleBot, Content: "first"},
		{ID: "2", Role: session.RoleUser, Content: "second"},
	}
	out := r.RenderMessages(msgs)
	assert.Contains(t, out, "second")
	assert.Len(t, r.renderedCache, 2)

	out = r.RenderMessages(msgs[:1])
	assert.NotContains(t, out, "second")
	assert.Len(t, r.renderedCache, 1)
}

func TestSetThemeClearsCache(t *testing.T) {
	r := NewMessageRenderer(Options{Styles: NewStyles(true)})
	r.RenderMessages([]session.ChatMessage{{Role: session.RoleUser, Content: "hi"}})
	r.SetTheme(NewStyles(false), "")
	assert.Empty(t, r.renderedCache)
	assert.Equal(t, "light", r.markdownStyle)
}
