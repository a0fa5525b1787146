// Package session holds the client-side state of the three user flows (chat,
// document library, upload) independent of how they are rendered. Each flow
// publishes its changes on a pubsub.Broker so views can follow along.
package session

import (
	"context"
	"errors"

	"knowledge-center/api"
)

var (
	// ErrBusy is returned when the flow already has a request in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNoFile is returned when uploading without a selected file.
	ErrNoFile = errors.New("no file selected")
	// ErrUnsupportedFile is returned for anything but PDF or PowerPoint files.
	ErrUnsupportedFile = errors.New("unsupported file type: only .pdf and .pptx are accepted")
	// ErrNoChanges is returned when an edit form equals the cached document.
	ErrNoChanges = errors.New("nothing changed")
	// ErrNotFound is returned for an id missing from the cached list.
	ErrNotFound = errors.New("document not found")
)

// Backend is the subset of api.Client the flows need.
type Backend interface {
	Chat(ctx context.Context, message string) (*api.ChatResponse, error)
	ListDocuments(ctx context.Context) ([]api.Document, error)
	Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResult, error)
	UpdateDocument(ctx context.Context, id string, upd api.DocumentUpdate) (*api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

var _ Backend = (*api.Client)(nil)
