package component

import (
	"fmt"
	"time"

	"knowledge-center/tui/component/renderer"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StatusModel is a spinner with a label, shown while a request is in flight.
type StatusModel struct {
	spinner spinner.Model
	running bool
	text    string
	idle    string
	started time.Time
	width   int
	styles  *renderer.Styles
}

// NewStatusModel creates a stopped status line showing idle.
func NewStatusModel(styles *renderer.Styles, idle string) StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)

	return StatusModel{
		spinner: s,
		text:    idle,
		idle:    idle,
		styles:  styles,
	}
}

func (m StatusModel) Init() tea.Cmd {
	return nil
}

func (m StatusModel) Update(msg tea.Msg) (StatusModel, tea.Cmd) {
	if !m.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m StatusModel) View() string {
	style := lipgloss.NewStyle().Padding(0, 1).Width(m.width)
	if !m.running {
		return style.Render(m.styles.Muted.Render(m.text))
	}
	elapsed := renderer.FormatDuration(time.Since(m.started).Truncate(100 * time.Millisecond))
	return style.Render(fmt.Sprintf("%s %s %s", m.spinner.View(), m.text, m.styles.Muted.Render(elapsed)))
}

// Start shows the spinner with text.
func (m StatusModel) Start(text string) (StatusModel, tea.Cmd) {
	m.running = true
	m.text = text
	m.started = time.Now()
	return m, m.spinner.Tick
}

// Stop hides the spinner and shows the idle text again.
func (m StatusModel) Stop() StatusModel {
	m.running = false
	m.text = m.idle
	return m
}

func (m *StatusModel) SetWidth(width int) {
	m.width = width
}

func (m *StatusModel) SetStyles(styles *renderer.Styles) {
	m.styles = styles
	m.spinner.Style = lipgloss.NewStyle().Foreground(styles.Palette.Accent)
}

func (m StatusModel) IsRunning() bool {
	return m.running
}

func (m StatusModel) Text() string {
	return m.text
}
