// Package prefs persists the user's display preferences: the light/dark theme
// choice, kept in a local file or, for shared terminals, in Redis.
package prefs

import (
	"context"
	"fmt"
	"strings"
)

// Theme is the display mode.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q: want light or dark", s)
	}
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool {
	return t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

func (t Theme) String() string {
	return string(t)
}

// Resolve picks the theme to start with: a saved choice wins, otherwise the
// terminal background decides.
func Resolve(saved Theme, hasSaved, systemDark bool) Theme {
	if hasSaved && (saved == ThemeLight || saved == ThemeDark) {
		return saved
	}
	if systemDark {
		return ThemeDark
	}
	return ThemeLight
}

// Store keeps the theme choice between runs.
type Store interface {
	// Theme returns the saved theme; ok is false when nothing was saved.
	Theme(ctx context.Context) (theme Theme, ok bool, err error)
	SetTheme(ctx context.Context, theme Theme) error
}
