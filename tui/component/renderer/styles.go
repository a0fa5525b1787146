package renderer

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles is the full set of lipgloss styles for one theme.
type Styles struct {
	Dark    bool
	Palette Palette

	User   lipgloss.Style
	Bot    lipgloss.Style
	System lipgloss.Style
	Source lipgloss.Style
	Failed lipgloss.Style

	Title     lipgloss.Style
	Muted     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Badge     lipgloss.Style
	Selected  lipgloss.Style
	Card      lipgloss.Style
	Dialog    lipgloss.Style
	Success   lipgloss.Style
	Alert     lipgloss.Style
	Help      lipgloss.Style
	Indent    lipgloss.Style
}

// NewStyles builds the styles for the dark or light theme.
func NewStyles(dark bool) *Styles {
	p := LightPalette()
	if dark {
		p = DarkPalette()
	}
	return &Styles{
		Dark:    dark,
		Palette: p,

		User:   lipgloss.NewStyle().Foreground(p.User).Bold(true),
		Bot:    lipgloss.NewStyle().Foreground(p.Bot).Bold(true),
		System: lipgloss.NewStyle().Foreground(p.Muted).Italic(true),
		Source: lipgloss.NewStyle().Foreground(p.Source),
		Failed: lipgloss.NewStyle().Foreground(p.Danger),

		Title:     lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(p.Muted),
		Tab:       lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 2),
		ActiveTab: lipgloss.NewStyle().Foreground(p.Accent).Bold(true).Underline(true).Padding(0, 2),
		Badge:     lipgloss.NewStyle().Foreground(p.Accent).Background(p.Highlight).Padding(0, 1),
		Selected:  lipgloss.NewStyle().Background(p.Highlight).Bold(true),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(1, 2),
		Success: lipgloss.NewStyle().Foreground(p.Success).Bold(true),
		Alert:   lipgloss.NewStyle().Foreground(p.Danger).Bold(true),
		Help:    lipgloss.NewStyle().Foreground(p.Muted).Faint(true),
		Indent:  lipgloss.NewStyle().PaddingLeft(2),
	}
}
