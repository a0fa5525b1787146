package component

import (
	"knowledge-center/tui/component/renderer"
)

// AlertKind selects the alert color.
type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertError
	AlertSuccess
)

// Alert is a one-line inline message shown above the footer of a view.
type Alert struct {
	Kind AlertKind
	Text string
}

func ErrorAlert(text string) Alert   { return Alert{Kind: AlertError, Text: text} }
func SuccessAlert(text string) Alert { return Alert{Kind: AlertSuccess, Text: text} }

func (a Alert) Active() bool {
	return a.Kind != AlertNone && a.Text != ""
}

// View renders the alert, or "" when there is none.
func (a Alert) View(styles *renderer.Styles) string {
	switch {
	case !a.Active():
		return ""
	case a.Kind == AlertError:
		return styles.Alert.Render(renderer.IconError + " " + a.Text)
	default:
		return styles.Success.Render(renderer.IconSuccess + " " + a.Text)
	}
}
