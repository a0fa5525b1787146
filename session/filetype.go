package session

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileType is a document format the backend can ingest.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypePPTX    FileType = "pptx"
	FileTypeUnknown FileType = "unknown"
)

// AcceptedExtensions lists the extensions offered by file pickers.
var AcceptedExtensions = []string{".pdf", ".pptx"}

// FileTypeFromPath maps a path to its FileType by extension, ignoring case.
func FileTypeFromPath(path string) FileType {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "pdf":
		return FileTypePDF
	case "pptx":
		return FileTypePPTX
	default:
		return FileTypeUnknown
	}
}

// IsSupported reports whether path has an accepted extension.
func IsSupported(path string) bool {
	return FileTypeFromPath(path) != FileTypeUnknown
}

// DefaultDisplayName is the file's base name without its extension.
func DefaultDisplayName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// NormalizePath cleans up a path typed into a prompt or pasted by a terminal
// when a file is dropped on it: surrounding whitespace and quotes, file://
// URLs and backslash-escaped spaces.
func NormalizePath(raw string) string {
	p := strings.TrimSpace(raw)
	if len(p) >= 2 {
		if (p[0] == '\'' && p[len(p)-1] == '\'') || (p[0] == '"' && p[len(p)-1] == '"') {
			p = p[1 : len(p)-1]
		}
	}
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil {
			p = u.Path
		}
	}
	p = strings.ReplaceAll(p, `\ `, " ")
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
