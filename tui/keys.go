package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"

	"knowledge-center/tui/component/renderer"
)

// KeyMap holds the bindings the app handles before the active view.
type KeyMap struct {
	Quit        key.Binding
	ToggleTheme key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	Chat        key.Binding
	Documents   key.Binding
	Upload      key.Binding
}

// DefaultKeyMap returns the global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "theme"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		Chat: key.NewBinding(
			key.WithKeys("alt+1"),
		),
		Documents: key.NewBinding(
			key.WithKeys("alt+2"),
		),
		Upload: key.NewBinding(
			key.WithKeys("alt+3"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.ToggleTheme, k.Quit}
}

// FullHelp is ShortHelp plus the direct tab jumps.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Chat, k.Documents, k.Upload}}
}

func newHelp(styles *renderer.Styles) help.Model {
	h := help.New()
	h.ShortSeparator = " · "
	h.Styles.ShortKey = styles.Help
	h.Styles.ShortDesc = styles.Help
	h.Styles.ShortSeparator = styles.Help
	return h
}
