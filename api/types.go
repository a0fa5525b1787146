package api

import "time"

// Source is a citation returned with a chat answer.
type Source struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
}

// HasPage reports whether the citation points at a specific page.
func (s Source) HasPage() bool {
	return s.Page > 0
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the answer to a chat request.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources,omitempty"`
}

// Document is the client-side projection of a knowledge base record.
type Document struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	DisplayName  string     `json:"display_name,omitempty"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	ElementCount int        `json:"element_count"`
	Version      int        `json:"version,omitempty"`
	Category     string     `json:"category,omitempty"`
	Description  string     `json:"description,omitempty"`
	FileURL      string     `json:"file_url,omitempty"`
	ContentType  string     `json:"content_type,omitempty"`
}

// Title is the name shown for the document.
func (d Document) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Filename
}

// CategoryLabel is the category shown for the document.
func (d Document) CategoryLabel() string {
	if d.Category != "" {
		return d.Category
	}
	return "Uncategorized"
}

// DocumentUpdate is a partial update. Nil fields are left untouched by the backend.
type DocumentUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the update carries no field.
func (u DocumentUpdate) Empty() bool {
	return u.DisplayName == nil && u.Category == nil && u.Description == nil
}

// UploadResult is the backend's answer to an upload.
type UploadResult struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	URL     string `json:"url,omitempty"`
	Count   int    `json:"count"`
	Version int    `json:"version"`
}
