// Package upload is the view for adding a .pdf or .pptx file to the knowledge
// base.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"knowledge-center/api"
	"knowledge-center/pubsub"
	"knowledge-center/session"
	"knowledge-center/tui/component"
	"knowledge-center/tui/component/renderer"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Headings for each upload state.
const (
	HeadingIdle      = "Upload Knowledge Source"
	HeadingUploading = "Processing Document..."
	HeadingFailed    = "Upload Failed"
	HeadingDone      = "Upload Complete!"
)

// CompletedMsg is emitted after a successful upload so other views can
// refresh.
type CompletedMsg struct {
	Result *api.UploadResult
}

type uploadDoneMsg struct {
	res *api.UploadResult
	err error
}

// Model is the upload view.
type Model struct {
	up     *session.Uploader
	sub    <-chan pubsub.Event[session.UploadState]
	ctx    context.Context
	styles *renderer.Styles

	state   session.UploadState
	path    textinput.Model
	name    textinput.Model
	picker  filepicker.Model
	picking bool
	spinner spinner.Model
	alert   component.Alert

	width  int
	height int
}

// New subscribes to up for the lifetime of ctx.
func New(ctx context.Context, up *session.Uploader, styles *renderer.Styles) Model {
	path := textinput.New()
	path.Prompt = "> "
	path.Placeholder = "Type or drop a .pdf / .pptx file path"
	path.CharLimit = 4096
	path.Focus()

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Display name"
	name.CharLimit = 256

	fp := filepicker.New()
	fp.AllowedTypes = append([]string(nil), session.AcceptedExtensions...)
	fp.ShowHidden = false
	fp.ShowPermissions = false

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)

	return Model{
		up:      up,
		sub:     up.Broker().Subscribe(ctx),
		ctx:     ctx,
		styles:  styles,
		state:   up.State(),
		path:    path,
		name:    name,
		picker:  fp,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

func (m Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[session.UploadState]:
		m.state = msg.Payload
		return m, m.waitForState()

	case uploadDoneMsg:
		m.state = m.up.State()
		if msg.err != nil {
			return m, nil
		}
		res := msg.res
		return m, func() tea.Msg { return CompletedMsg{Result: res} }

	case spinner.TickMsg:
		if m.state.Status != session.StatusUploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}

	// directory listings and other picker internals
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	st := m.state

	switch st.Status {
	case session.StatusUploading:
		return m, nil
	case session.StatusSuccess:
		switch msg.String() {
		case "enter", "n":
			_ = m.up.Reset()
			m.state = m.up.State()
			m.name.Blur()
			m.path.SetValue("")
			return m, m.path.Focus()
		}
		return m, nil
	}

	if msg.String() == "ctrl+o" {
		return m.openPicker()
	}

	if st.File == nil {
		return m.updatePath(msg)
	}

	switch msg.String() {
	case "esc":
		_ = m.up.Clear()
		m.state = m.up.State()
		m.name.Blur()
		m.alert = component.Alert{}
		return m, m.path.Focus()
	case "enter":
		m.up.SetDisplayName(m.name.Value())
		return m.startUpload()
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) updatePath(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "enter" {
		return m.selectFile(m.path.Value())
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)

	// a dropped file arrives as a bracketed paste of its path
	if msg.Paste && session.IsSupported(session.NormalizePath(m.path.Value())) {
		return m.selectFile(m.path.Value())
	}
	return m, cmd
}

func (m Model) selectFile(path string) (Model, tea.Cmd) {
	if err := m.up.Select(path); err != nil {
		m.alert = component.ErrorAlert(selectError(err))
		return m, nil
	}
	m.alert = component.Alert{}
	m.state = m.up.State()
	m.path.Blur()
	m.name.SetValue(m.state.DisplayName)
	m.name.CursorEnd()
	return m, m.name.Focus()
}

func selectError(err error) string {
	switch {
	case errors.Is(err, session.ErrUnsupportedFile):
		return "Only .pdf and .pptx files are supported"
	case errors.Is(err, session.ErrNoFile):
		return "Enter a file path"
	case errors.Is(err, os.ErrNotExist):
		return "File not found"
	}
	return err.Error()
}

func (m Model) startUpload() (Model, tea.Cmd) {
	m.alert = component.Alert{}
	m.name.Blur()
	m.state.Status = session.StatusUploading
	up, ctx := m.up, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := up.Upload(ctx)
		return uploadDoneMsg{res: res, err: err}
	})
}

func (m Model) openPicker() (Model, tea.Cmd) {
	dir := ""
	if typed := session.NormalizePath(m.path.Value()); typed != "" {
		if info, err := os.Stat(typed); err == nil && info.IsDir() {
			dir = typed
		} else {
			dir = filepath.Dir(typed)
		}
	}
	if dir == "" || dir == "." {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	m.picker.CurrentDirectory = dir
	m.picking = true
	m.path.Blur()
	m.name.Blur()
	return m, m.picker.Init()
}

func (m Model) updatePicker(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+o", "q":
		m.picking = false
		if m.state.File == nil {
			return m, m.path.Focus()
		}
		return m, m.name.Focus()
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.path.SetValue(path)
		return m.selectFile(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.alert = component.ErrorAlert(filepath.Base(path) + " is not a .pdf or .pptx file")
	}
	return m, cmd
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.path.Width = max(width-8, 10)
	m.name.Width = max(width-20, 10)
	m.picker.SetHeight(max(height-8, 3))
}

func (m *Model) SetStyles(styles *renderer.Styles) {
	m.styles = styles
	m.spinner.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)
}

// State is the last uploader snapshot the view has seen.
func (m Model) State() session.UploadState {
	return m.state
}

func (m Model) Heading() string {
	switch m.state.Status {
	case session.StatusUploading:
		return HeadingUploading
	case session.StatusError:
		return HeadingFailed
	case session.StatusSuccess:
		return HeadingDone
	}
	return HeadingIdle
}

func (m Model) View() string {
	if m.picking {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render("Choose a file"),
			m.styles.Muted.Render(m.picker.CurrentDirectory),
			"",
			m.picker.View(),
			m.alert.View(m.styles),
		)
	}

	heading := m.Heading()
	var lines []string
	switch m.state.Status {
	case session.StatusUploading:
		lines = append(lines, m.spinner.View()+" "+m.styles.Title.Render(heading))
	case session.StatusError:
		lines = append(lines, m.styles.Alert.Render(renderer.IconError+" "+heading))
	case session.StatusSuccess:
		lines = append(lines, m.styles.Success.Render(renderer.IconSuccess+" "+heading))
	default:
		lines = append(lines, m.styles.Title.Render(heading))
	}

	switch m.state.Status {
	case session.StatusSuccess:
		lines = append(lines,
			m.styles.Muted.Render("Your document has been processed and added to the knowledge base."),
		)
		if r := m.state.Result; r != nil && r.Count > 0 {
			lines = append(lines, m.styles.Muted.Render(pluralChunks(r.Count)))
		}
		lines = append(lines, "", m.styles.Help.Render("enter upload another document"))
		return strings.Join(lines, "\n")
	case session.StatusError:
		lines = append(lines, m.styles.Alert.Render(m.state.ErrorMessage))
	default:
		lines = append(lines, m.styles.Muted.Render("Add a PDF or PowerPoint file to the knowledge base."))
	}
	lines = append(lines, "")

	if f := m.state.File; f != nil {
		card := lipgloss.JoinVertical(lipgloss.Left,
			renderer.IconDocument+" "+renderer.Truncate(f.Name, max(m.width-12, 20)),
			m.styles.Muted.Render(f.SizeMB()),
		)
		lines = append(lines, m.styles.Card.Render(card), "")
		if m.state.Status != session.StatusUploading {
			lines = append(lines, m.styles.Muted.Render("Display name ")+m.name.View())
		}
	} else {
		lines = append(lines, m.path.View())
	}

	if a := m.alert.View(m.styles); a != "" {
		lines = append(lines, "", a)
	}
	return strings.Join(lines, "\n")
}

func pluralChunks(n int) string {
	if n == 1 {
		return "1 chunk indexed"
	}
	return fmt.Sprintf("%d chunks indexed", n)
}

// HelpText is the footer line for the current state.
func (m Model) HelpText() string {
	switch {
	case m.picking:
		return "↑/↓ move · enter select · ←/→ folders · q close"
	case m.state.Status == session.StatusUploading:
		return "uploading..."
	case m.state.Status == session.StatusSuccess:
		return "enter upload another"
	case m.state.File != nil && m.state.Status == session.StatusError:
		return "enter try again · esc cancel"
	case m.state.File != nil:
		return "enter ingest · esc cancel · ctrl+o browse"
	}
	return "enter select · ctrl+o browse"
}

// Picking reports whether the file picker is open.
func (m Model) Picking() bool {
	return m.picking
}
