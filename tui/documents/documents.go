// Package documents is the knowledge base view: the document list with edit,
// re-upload and delete actions.
package documents

import (
	"context"
	"fmt"
	"strings"

	"knowledge-center/api"
	"knowledge-center/pubsub"
	"knowledge-center/session"
	"knowledge-center/tui/component"
	"knowledge-center/tui/component/renderer"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type mode int

const (
	modeList mode = iota
	modeEdit
	modeConfirm
	modeReupload
)

// edit form fields
const (
	fieldName = iota
	fieldCategory
	fieldDescription
	fieldCount
)

type refreshDoneMsg struct{ err error }

type saveDoneMsg struct{ err error }

type deleteDoneMsg struct {
	id  string
	err error
}

type reuploadDoneMsg struct {
	res *api.UploadResult
	err error
}

// Model is the documents view.
type Model struct {
	lib    *session.Library
	sub    <-chan pubsub.Event[[]api.Document]
	ctx    context.Context
	styles *renderer.Styles

	docs    []api.Document
	cursor  int
	offset  int
	loading bool
	busy    bool
	spinner spinner.Model

	mode     mode
	targetID string
	form     session.EditForm
	inputs   [fieldCount]textinput.Model
	focusIdx int
	path     textinput.Model
	alert    component.Alert

	width  int
	height int
}

// New subscribes to lib for the lifetime of ctx.
func New(ctx context.Context, lib *session.Library, styles *renderer.Styles) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)

	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		inputs[i] = in
	}
	inputs[fieldName].Placeholder = "Display name"
	inputs[fieldCategory].Placeholder = "e.g. Finance, HR, Engineering"
	inputs[fieldDescription].Placeholder = "Short description"
	inputs[fieldDescription].CharLimit = 1000

	path := textinput.New()
	path.Placeholder = "/path/to/new-version.pdf"
	path.Prompt = "> "

	return Model{
		lib:     lib,
		sub:     lib.Broker().Subscribe(ctx),
		ctx:     ctx,
		styles:  styles,
		docs:    lib.Documents(),
		spinner: s,
		inputs:  inputs,
		path:    path,
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForDocuments()
}

func (m Model) waitForDocuments() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.sub
		if !ok {
			return nil
		}
		return event
	}
}

// Refresh reloads the list from the backend.
func (m *Model) Refresh() tea.Cmd {
	if m.loading {
		return nil
	}
	m.loading = true
	lib, ctx := m.lib, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return refreshDoneMsg{err: lib.Refresh(ctx)}
	})
}

// Capturing reports whether a dialog or input holds the keyboard.
func (m Model) Capturing() bool {
	return m.mode != modeList
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pubsub.Event[[]api.Document]:
		m.setDocuments(msg.Payload)
		return m, m.waitForDocuments()

	case refreshDoneMsg:
		m.loading = false
		return m, nil

	case saveDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.alert = component.ErrorAlert(session.DisplayMessage(msg.err))
			if m.mode == modeEdit {
				return m, m.focusField(m.focusIdx)
			}
			return m, nil
		}
		m.mode = modeList
		m.alert = component.SuccessAlert("Changes saved")
		return m, nil

	case deleteDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.alert = component.ErrorAlert(session.DisplayMessage(msg.err))
			return m, nil
		}
		m.alert = component.SuccessAlert("Document deleted")
		return m, nil

	case reuploadDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.alert = component.ErrorAlert(session.DisplayMessage(msg.err))
			return m, nil
		}
		m.alert = component.SuccessAlert(fmt.Sprintf("Updated to version %d", msg.res.Version))
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeReupload:
			return m.updateReupload(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.docs)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(len(m.docs)-1, 0)
	case "r":
		m.alert = component.Alert{}
		return m, m.Refresh()
	case "e":
		doc, ok := m.selected()
		if !ok {
			return m, nil
		}
		form, err := m.lib.BeginEdit(doc.ID)
		if err != nil {
			m.alert = component.ErrorAlert(session.DisplayMessage(err))
			return m, nil
		}
		m.form = form
		m.inputs[fieldName].SetValue(form.DisplayName)
		m.inputs[fieldCategory].SetValue(form.Category)
		m.inputs[fieldDescription].SetValue(form.Description)
		m.mode = modeEdit
		m.alert = component.Alert{}
		return m, m.focusField(fieldName)
	case "d":
		doc, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.targetID = doc.ID
		m.mode = modeConfirm
		m.alert = component.Alert{}
	case "u":
		doc, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.targetID = doc.ID
		m.path.SetValue("")
		m.mode = modeReupload
		m.alert = component.Alert{}
		return m, m.path.Focus()
	}
	m.clampOffset()
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.blurInputs()
		return m, nil
	case "tab", "down":
		return m, m.focusField((m.focusIdx + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.focusField((m.focusIdx + fieldCount - 1) % fieldCount)
	case "enter":
		if m.focusIdx < fieldCount-1 {
			return m, m.focusField(m.focusIdx + 1)
		}
		return m.save()
	case "ctrl+s":
		return m.save()
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m Model) save() (Model, tea.Cmd) {
	form := m.form
	form.DisplayName = strings.TrimSpace(m.inputs[fieldName].Value())
	form.Category = strings.TrimSpace(m.inputs[fieldCategory].Value())
	form.Description = strings.TrimSpace(m.inputs[fieldDescription].Value())

	doc, ok := m.lib.Find(form.ID)
	if !ok {
		m.mode = modeList
		m.alert = component.ErrorAlert(session.UpdateFailed)
		return m, nil
	}
	if session.Changes(doc, form).Empty() {
		m.mode = modeList
		m.blurInputs()
		return m, nil
	}

	m.busy = true
	m.blurInputs()
	lib, ctx := m.lib, m.ctx
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return saveDoneMsg{err: lib.SaveEdit(ctx, form)}
	})
}

func (m Model) updateConfirm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.targetID
		m.mode = modeList
		m.busy = true
		lib, ctx := m.lib, m.ctx
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return deleteDoneMsg{id: id, err: lib.Delete(ctx, id)}
		})
	case "n", "N", "esc":
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateReupload(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.path.Blur()
		return m, nil
	case "enter":
		path := m.path.Value()
		if !session.IsSupported(session.NormalizePath(path)) {
			m.alert = component.ErrorAlert("Choose a .pdf or .pptx file")
			return m, nil
		}
		id := m.targetID
		m.mode = modeList
		m.path.Blur()
		m.busy = true
		lib, ctx := m.lib, m.ctx
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			res, err := lib.Reupload(ctx, id, path)
			return reuploadDoneMsg{res: res, err: err}
		})
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.blurInputs()
	m.focusIdx = i
	return m.inputs[i].Focus()
}

func (m *Model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *Model) setDocuments(docs []api.Document) {
	m.docs = docs
	if m.cursor >= len(docs) {
		m.cursor = max(len(docs)-1, 0)
	}
	m.clampOffset()
}

func (m Model) selected() (api.Document, bool) {
	if m.busy || m.cursor < 0 || m.cursor >= len(m.docs) {
		return api.Document{}, false
	}
	return m.docs[m.cursor], true
}

// rows that fit; each document takes three lines
func (m Model) visibleRows() int {
	rows := (m.height - 4) / 3
	if rows < 1 {
		return 1
	}
	return rows
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	for i := range m.inputs {
		m.inputs[i].Width = max(width-20, 10)
	}
	m.path.Width = max(width-10, 10)
	m.clampOffset()
}

func (m *Model) SetStyles(styles *renderer.Styles) {
	m.styles = styles
	m.spinner.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)
}

// Documents returns what the view currently shows.
func (m Model) Documents() []api.Document {
	return m.docs
}

func (m Model) Alert() component.Alert {
	return m.alert
}

func (m Model) View() string {
	var body string
	switch m.mode {
	case modeEdit:
		body = m.editView()
	case modeConfirm:
		body = m.confirmView()
	case modeReupload:
		body = m.reuploadView()
	default:
		body = m.listView()
	}

	parts := []string{m.headerView(), body}
	if a := m.alert.View(m.styles); a != "" {
		parts = append(parts, a)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) headerView() string {
	title := m.styles.Title.Render("Knowledge Base")
	count := m.styles.Muted.Render(fmt.Sprintf("%d documents", len(m.docs)))
	line := title + "  " + count
	if m.loading || m.busy {
		line += "  " + m.spinner.View()
	}
	return line + "\n"
}

func (m Model) listView() string {
	if m.loading && !m.lib.Loaded() {
		return m.styles.Muted.Render("Loading documents...")
	}
	if len(m.docs) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render(renderer.IconDocument+" No documents yet"),
			m.styles.Muted.Render("Upload files to get started"),
		)
	}

	rows := m.visibleRows()
	end := min(m.offset+rows, len(m.docs))
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.rowView(m.docs[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) rowView(doc api.Document, selected bool) string {
	width := max(m.width-4, 20)

	title := renderer.Truncate(doc.Title(), width-12)
	if doc.Version > 0 {
		title += " " + m.styles.Badge.Render(fmt.Sprintf("v%d", doc.Version))
	}
	details := fmt.Sprintf("%s · %s · %d chunks",
		doc.CategoryLabel(), renderer.FormatDate(doc.UploadedAt), doc.ElementCount)
	second := m.styles.Muted.Render(renderer.Truncate(details, width))
	if doc.Description != "" {
		second += "\n" + m.styles.Muted.Render(renderer.Truncate(doc.Description, width))
	}

	cursor := "  "
	if selected {
		cursor = m.styles.Title.Render(renderer.IconCursor) + " "
		title = m.styles.Selected.Render(title)
	}
	return cursor + title + "\n" + lipgloss.NewStyle().PaddingLeft(2).Render(second) + "\n"
}

func (m Model) editView() string {
	labels := [fieldCount]string{"Display name", "Category", "Description"}
	lines := []string{m.styles.Title.Render("Edit Document"), ""}
	for i, in := range m.inputs {
		label := m.styles.Muted.Render(fmt.Sprintf("%-13s", labels[i]))
		lines = append(lines, label+" "+in.View())
	}
	lines = append(lines, "", m.styles.Help.Render("ctrl+s save · tab next field · esc cancel"))
	return m.styles.Dialog.Render(strings.Join(lines, "\n"))
}

func (m Model) confirmView() string {
	name := m.targetID
	if doc, ok := m.lib.Find(m.targetID); ok {
		name = doc.Title()
	}
	return m.styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Alert.Render("Are you sure?"),
		"",
		fmt.Sprintf("Delete %q from the knowledge base.", name),
		"This cannot be undone.",
		"",
		m.styles.Help.Render("y delete · n cancel"),
	))
}

func (m Model) reuploadView() string {
	name := m.targetID
	if doc, ok := m.lib.Find(m.targetID); ok {
		name = doc.Title()
	}
	return m.styles.Dialog.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("Update File"),
		m.styles.Muted.Render("Replace the file behind "+name+" (.pdf or .pptx)"),
		"",
		m.path.View(),
		"",
		m.styles.Help.Render("enter upload · esc cancel"),
	))
}

// HelpText is the footer line for the current mode.
func (m Model) HelpText() string {
	switch m.mode {
	case modeEdit:
		return "ctrl+s save · esc cancel"
	case modeConfirm:
		return "y confirm · n cancel"
	case modeReupload:
		return "enter upload · esc cancel"
	}
	return "↑/↓ move · e edit · u update file · d delete · r refresh"
}
