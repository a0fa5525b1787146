// Package tui is the full-screen front-end: a tabbed app with the chat,
// documents and upload views.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledge-center/prefs"
	"knowledge-center/session"
	"knowledge-center/tui/chat"
	"knowledge-center/tui/component/renderer"
	"knowledge-center/tui/documents"
	"knowledge-center/tui/upload"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab identifies a view.
type Tab int

const (
	TabChat Tab = iota
	TabDocuments
	TabUpload
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabChat:
		return "Chat"
	case TabDocuments:
		return "Documents"
	case TabUpload:
		return "Upload"
	}
	return fmt.Sprintf("Tab(%d)", int(t))
}

const pingInterval = 30 * time.Second

type pingMsg struct{ err error }

type pingTickMsg struct{}

type themeSavedMsg struct {
	theme prefs.Theme
	err   error
}

// Options wires the app to its flows.
type Options struct {
	Conversation *session.Conversation
	Library      *session.Library
	Uploader     *session.Uploader

	Theme prefs.Theme
	// Store persists theme changes; nil keeps them for this run only.
	Store prefs.Store

	MarkdownStyleDark  string
	MarkdownStyleLight string

	BaseURL string
	// Ping checks the backend for the header indicator; nil hides it.
	Ping func(context.Context) error

	Logger *slog.Logger
}

// App is the root model.
type App struct {
	chat   chat.Model
	docs   documents.Model
	upload upload.Model

	active Tab
	theme  prefs.Theme
	styles *renderer.Styles
	opts   Options
	keys   KeyMap
	help   help.Model

	online  bool
	checked bool

	ctx    context.Context
	log    *slog.Logger
	width  int
	height int
}

// New builds the app. Subscriptions end when ctx is cancelled.
func New(ctx context.Context, opts Options) App {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Theme == "" {
		opts.Theme = prefs.ThemeDark
	}
	styles := renderer.NewStyles(opts.Theme.IsDark())

	a := App{
		active: TabChat,
		theme:  opts.Theme,
		styles: styles,
		opts:   opts,
		keys:   DefaultKeyMap(),
		help:   newHelp(styles),
		ctx:    ctx,
		log:    opts.Logger.With("component", "tui"),
	}
	a.chat = chat.New(ctx, opts.Conversation, styles, a.markdownStyle())
	a.docs = documents.New(ctx, opts.Library, styles)
	a.upload = upload.New(ctx, opts.Uploader, styles)
	return a
}

func (a App) markdownStyle() string {
	if a.theme.IsDark() {
		return a.opts.MarkdownStyleDark
	}
	return a.opts.MarkdownStyleLight
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("Knowledge Center"),
		a.chat.Init(),
		a.docs.Init(),
		a.upload.Init(),
		a.ping(),
	)
}

func (a App) ping() tea.Cmd {
	if a.opts.Ping == nil {
		return nil
	}
	ping, ctx := a.opts.Ping, a.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pingMsg{err: ping(ctx)}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.layout()
		return a, nil

	case pingMsg:
		a.checked = true
		a.online = msg.err == nil
		if msg.err != nil {
			a.log.Warn("backend unreachable", "error", msg.err)
		}
		return a, tea.Tick(pingInterval, func(time.Time) tea.Msg { return pingTickMsg{} })

	case pingTickMsg:
		return a, a.ping()

	case themeSavedMsg:
		if msg.err != nil {
			a.log.Error("save theme failed", "theme", msg.theme, "error", msg.err)
		}
		return a, nil

	case upload.CompletedMsg:
		a.online = true
		a.checked = true
		return a, a.docs.Refresh()

	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}
		return a.updateActive(msg)
	}

	return a.broadcast(msg)
}

func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, a.keys.ToggleTheme):
		return a.toggleTheme(), true
	case key.Matches(msg, a.keys.Chat):
		return a.switchTo(TabChat), true
	case key.Matches(msg, a.keys.Documents):
		return a.switchTo(TabDocuments), true
	case key.Matches(msg, a.keys.Upload):
		return a.switchTo(TabUpload), true
	case key.Matches(msg, a.keys.NextTab, a.keys.PrevTab):
		if a.active == TabDocuments && a.docs.Capturing() {
			return nil, false
		}
		if a.active == TabUpload && a.upload.Picking() {
			return nil, false
		}
		step := Tab(1)
		if key.Matches(msg, a.keys.PrevTab) {
			step = tabCount - 1
		}
		return a.switchTo((a.active + step) % tabCount), true
	}
	return nil, false
}

func (a *App) switchTo(t Tab) tea.Cmd {
	if t == a.active {
		return nil
	}
	a.active = t
	switch t {
	case TabChat:
		return a.chat.Focus()
	case TabDocuments:
		return a.docs.Refresh()
	}
	return nil
}

func (a *App) toggleTheme() tea.Cmd {
	a.theme = a.theme.Toggle()
	a.styles = renderer.NewStyles(a.theme.IsDark())
	a.chat.SetTheme(a.styles, a.markdownStyle())
	a.docs.SetStyles(a.styles)
	a.upload.SetStyles(a.styles)
	a.help = newHelp(a.styles)
	a.help.Width = a.width
	a.log.Info("theme changed", "theme", a.theme)

	if a.opts.Store == nil {
		return nil
	}
	store, ctx, theme := a.opts.Store, a.ctx, a.theme
	return func() tea.Msg {
		return themeSavedMsg{theme: theme, err: store.SetTheme(ctx, theme)}
	}
}

func (a App) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.active {
	case TabChat:
		a.chat, cmd = a.chat.Update(msg)
	case TabDocuments:
		a.docs, cmd = a.docs.Update(msg)
	case TabUpload:
		a.upload, cmd = a.upload.Update(msg)
	}
	return a, cmd
}

// broadcast hands non-key messages to every view; each ignores what is not
// addressed to it.
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.docs, cmd = a.docs.Update(msg)
	cmds = append(cmds, cmd)
	a.upload, cmd = a.upload.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) layout() {
	body := a.height - lipgloss.Height(a.headerView()) - lipgloss.Height(a.footerView())
	if body < 3 {
		body = 3
	}
	a.chat.SetSize(a.width, body)
	a.docs.SetSize(a.width, body)
	a.upload.SetSize(a.width, body)
}

func (a App) View() string {
	var body string
	switch a.active {
	case TabChat:
		body = a.chat.View()
	case TabDocuments:
		body = a.docs.View()
	case TabUpload:
		body = a.upload.View()
	}

	bodyHeight := a.height - lipgloss.Height(a.headerView()) - lipgloss.Height(a.footerView())
	if bodyHeight > 0 {
		body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.headerView(), body, a.footerView())
}

func (a App) headerView() string {
	title := a.styles.Title.Render("Knowledge Center")

	var status string
	switch {
	case a.opts.Ping == nil:
	case !a.checked:
		status = a.styles.Muted.Render(renderer.IconOnline + " connecting")
	case a.online:
		status = lipgloss.NewStyle().Foreground(a.styles.Palette.Success).Render(renderer.IconOnline) +
			a.styles.Muted.Render(" online")
	default:
		status = lipgloss.NewStyle().Foreground(a.styles.Palette.Danger).Render(renderer.IconOnline) +
			a.styles.Muted.Render(" offline")
	}
	top := title
	if a.opts.BaseURL != "" {
		top += "  " + a.styles.Muted.Render(renderer.ShortenURL(a.opts.BaseURL))
	}
	if status != "" {
		top += "  " + status
	}

	tabs := make([]string, 0, tabCount)
	for t := TabChat; t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == a.active {
			tabs = append(tabs, a.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(label))
		}
	}
	return top + "\n" + strings.Join(tabs, "") + "\n"
}

func (a App) footerView() string {
	var local string
	switch a.active {
	case TabChat:
		local = "enter send · ctrl+l new chat"
	case TabDocuments:
		local = a.docs.HelpText()
	case TabUpload:
		local = a.upload.HelpText()
	}
	keys := a.keys
	keys.ToggleTheme.SetHelp("ctrl+t", a.theme.Toggle().String()+" theme")
	return a.styles.Help.Render(local+" · ") + a.help.ShortHelpView(keys.ShortHelp())
}

// Active returns the visible tab.
func (a App) Active() Tab {
	return a.active
}

// Theme returns the current theme.
func (a App) Theme() prefs.Theme {
	return a.theme
}
