package renderer

import (
	"strings"

	"knowledge-center/session"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Options configures a MessageRenderer.
type Options struct {
	Styles *Styles
	// MarkdownStyle is a glamour standard style name ("dark", "light",
	// "dracula", ...) or a path to a JSON style file.
	MarkdownStyle string
}

// MessageRenderer turns chat messages into terminal text. Bot answers go
// through glamour; user messages are shown as typed.
type MessageRenderer struct {
	markdownRenderer *glamour.TermRenderer
	markdownStyle    string
	styles           *Styles
	renderedCache    []string
	viewportWidth    int
}

// NewMessageRenderer creates a renderer. Zero options give the dark theme.
func NewMessageRenderer(opts Options) *MessageRenderer {
	if opts.Styles == nil {
		opts.Styles = NewStyles(true)
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = defaultMarkdownStyle(opts.Styles.Dark)
	}
	r := &MessageRenderer{
		styles:        opts.Styles,
		markdownStyle: opts.MarkdownStyle,
	}
	r.rebuild()
	return r
}

func defaultMarkdownStyle(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

// SetTheme switches styles and markdown style and drops the cache.
func (r *MessageRenderer) SetTheme(styles *Styles, markdownStyle string) {
	if markdownStyle == "" {
		markdownStyle = defaultMarkdownStyle(styles.Dark)
	}
	r.styles = styles
	r.markdownStyle = markdownStyle
	r.rebuild()
}

// SetViewportWidth sets the wrap width. Changing it re-renders everything.
func (r *MessageRenderer) SetViewportWidth(width int) {
	if width == r.viewportWidth {
		return
	}
	r.viewportWidth = width
	r.rebuild()
}

func (r *MessageRenderer) rebuild() {
	wrap := r.viewportWidth - 4
	if wrap < 20 {
		wrap = 0
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.markdownStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		md = nil
	}
	r.markdownRenderer = md
	r.renderedCache = r.renderedCache[:0]
}

// RenderMessages renders the whole conversation. Messages never change once
// appended, so earlier renders are reused.
func (r *MessageRenderer) RenderMessages(messages []session.ChatMessage) string {
	if len(messages) < len(r.renderedCache) {
		r.renderedCache = r.renderedCache[:0]
	}
	for i := len(r.renderedCache); i < len(messages); i++ {
		r.renderedCache = append(r.renderedCache, r.RenderMessage(messages[i]))
	}

	var sb strings.Builder
	for i, cached := range r.renderedCache {
		if cached == "" {
			continue
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(cached)
	}

	content := sb.String()
	if r.viewportWidth > 0 {
		return lipgloss.NewStyle().Width(r.viewportWidth).Render(content)
	}
	return content
}

// RenderMessage renders a single message.
func (r *MessageRenderer) RenderMessage(msg session.ChatMessage) string {
	switch msg.Role {
	case session.RoleUser:
		return r.renderUserMessage(msg)
	case session.RoleBot:
		return r.renderBotMessage(msg)
	}
	return ""
}

func (r *MessageRenderer) renderMarkdown(content string) string {
	if r.markdownRenderer == nil {
		return content
	}
	rendered, err := r.markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	// glamour pads output with blank lines
	return strings.Trim(rendered, "\n")
}

func (r *MessageRenderer) renderUserMessage(msg session.ChatMessage) string {
	if msg.Content == "" {
		return ""
	}
	return r.styles.User.Render("You:") + " " + msg.Content
}

func (r *MessageRenderer) renderBotMessage(msg session.ChatMessage) string {
	header := r.styles.Bot.Render("Assistant:")
	if msg.Failed {
		return header + "\n" + r.styles.Indent.Render(r.styles.Failed.Render(msg.Content))
	}

	parts := []string{header, r.renderMarkdown(msg.Content)}
	if sources := r.RenderSources(msg); sources != "" {
		parts = append(parts, sources)
	}
	return strings.Join(parts, "\n")
}

// RenderSources renders the "Sources:" line, or "" when there are none.
func (r *MessageRenderer) RenderSources(msg session.ChatMessage) string {
	if len(msg.Sources) == 0 {
		return ""
	}
	labels := make([]string, 0, len(msg.Sources))
	for _, s := range msg.Sources {
		labels = append(labels, r.styles.Source.Render(IconSource+" "+SourceLabel(s)))
	}
	return r.styles.Indent.Render(r.styles.Muted.Render("Sources: ") + strings.Join(labels, "  "))
}
