package renderer

import (
	"fmt"
	"strings"
	"time"

	"knowledge-center/api"
)

// Truncate shortens s to maxLen runes, ending with an ellipsis.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}

// ShortenURL drops the scheme so the header stays compact.
func ShortenURL(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimSuffix(url, "/")
	if len(url) > 40 {
		return Truncate(url, 40)
	}
	return url
}

// FormatDuration formats an elapsed time for the status line.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// SourceLabel is "file (p. N)", or just the file when no page is known.
func SourceLabel(s api.Source) string {
	if s.HasPage() {
		return fmt.Sprintf("%s (p. %d)", s.Filename, s.Page)
	}
	return s.Filename
}

// FormatDate renders a document timestamp; the zero time renders as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006")
}
