package renderer

import "github.com/charmbracelet/lipgloss"

// Palette holds the colors of one theme.
type Palette struct {
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	User      lipgloss.Color
	Bot       lipgloss.Color
	Source    lipgloss.Color
	Success   lipgloss.Color
	Danger    lipgloss.Color
	Border    lipgloss.Color
	Highlight lipgloss.Color
}

// DarkPalette is used on dark terminals.
func DarkPalette() Palette {
	return Palette{
		Text:      lipgloss.Color("#c0caf5"),
		Muted:     lipgloss.Color("#565f89"),
		Accent:    lipgloss.Color("#7aa2f7"),
		User:      lipgloss.Color("#7dcfff"),
		Bot:       lipgloss.Color("#bb9af7"),
		Source:    lipgloss.Color("#e0af68"),
		Success:   lipgloss.Color("#9ece6a"),
		Danger:    lipgloss.Color("#f7768e"),
		Border:    lipgloss.Color("#3b4261"),
		Highlight: lipgloss.Color("#292e42"),
	}
}

// LightPalette is used on light terminals.
func LightPalette() Palette {
	return Palette{
		Text:      lipgloss.Color("#343b58"),
		Muted:     lipgloss.Color("#8990b3"),
		Accent:    lipgloss.Color("#2e7de9"),
		User:      lipgloss.Color("#007197"),
		Bot:       lipgloss.Color("#7847bd"),
		Source:    lipgloss.Color("#8c6c3e"),
		Success:   lipgloss.Color("#587539"),
		Danger:    lipgloss.Color("#c64343"),
		Border:    lipgloss.Color("#a8aecb"),
		Highlight: lipgloss.Color("#dfe3f5"),
	}
}

// Icons used across the views.
const (
	IconDocument = "▤"
	IconSource   = "↳"
	IconOnline   = "●"
	IconSuccess  = "✓"
	IconError    = "✗"
	IconCursor   = "›"
)
