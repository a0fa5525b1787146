package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"knowledge-center/api"
	"knowledge-center/pubsub"
)

// Messages shown when a library mutation fails.
const (
	DeleteFailed   = "Delete failed"
	UpdateFailed   = "Update failed"
	ReuploadFailed = "Re-upload failed"
)

// EditForm holds the editable metadata of one document.
type EditForm struct {
	ID          string
	DisplayName string
	Category    string
	Description string
}

// Library is the cached document list plus the mutations on it. The cache is
// replaced, never merged, after every successful refresh.
type Library struct {
	backend Backend
	broker  *pubsub.Broker[[]api.Document]
	log     *slog.Logger

	mu     sync.RWMutex
	docs   []api.Document
	loaded bool
	busy   bool
}

// NewLibrary returns an empty, not yet loaded library.
func NewLibrary(backend Backend, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		backend: backend,
		broker:  pubsub.NewBroker[[]api.Document](),
		log:     logger.With("flow", "documents"),
		docs:    []api.Document{},
	}
}

// Broker publishes the full list after each change: UpdatedEvent on refresh,
// DeletedEvent after a delete.
func (l *Library) Broker() *pubsub.Broker[[]api.Document] {
	return l.broker
}

// Refresh reloads the list. On failure the error is logged and the list is
// emptied so the empty state is shown.
func (l *Library) Refresh(ctx context.Context) error {
	docs, err := l.backend.ListDocuments(ctx)
	if err != nil {
		l.log.Error("fetch documents failed", "error", err)
		docs = []api.Document{}
	}

	l.mu.Lock()
	l.docs = docs
	l.loaded = true
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.broker.Publish(pubsub.UpdatedEvent, snapshot)
	return err
}

// Loaded reports whether the first refresh has finished.
func (l *Library) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Busy reports whether a mutation is in flight.
func (l *Library) Busy() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.busy
}

// Documents returns a copy of the cached list.
func (l *Library) Documents() []api.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Find looks a document up in the cached list.
func (l *Library) Find(id string) (api.Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, d := range l.docs {
		if d.ID == id {
			return d, true
		}
	}
	return api.Document{}, false
}

// BeginEdit returns a form pre-filled from the cached document.
func (l *Library) BeginEdit(id string) (EditForm, error) {
	doc, ok := l.Find(id)
	if !ok {
		return EditForm{}, ErrNotFound
	}
	return EditForm{
		ID:          doc.ID,
		DisplayName: doc.Title(),
		Category:    doc.Category,
		Description: doc.Description,
	}, nil
}

// Changes returns the fields of form that differ from doc.
func Changes(doc api.Document, form EditForm) api.DocumentUpdate {
	var upd api.DocumentUpdate
	if form.DisplayName != doc.Title() {
		name := form.DisplayName
		upd.DisplayName = &name
	}
	if form.Category != doc.Category {
		category := form.Category
		upd.Category = &category
	}
	if form.Description != doc.Description {
		description := form.Description
		upd.Description = &description
	}
	return upd
}

// SaveEdit sends the changed fields of form and refreshes the list. Once the
// backend accepts the update, a failed refresh is logged but not returned.
func (l *Library) SaveEdit(ctx context.Context, form EditForm) error {
	doc, ok := l.Find(form.ID)
	if !ok {
		return ErrNotFound
	}
	upd := Changes(doc, form)
	if upd.Empty() {
		return ErrNoChanges
	}

	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	if _, err := l.backend.UpdateDocument(ctx, form.ID, upd); err != nil {
		l.log.Error("update document failed", "id", form.ID, "error", err)
		return &FlowError{Message: UpdateFailed, Err: err}
	}
	l.log.Info("document updated", "id", form.ID)
	_ = l.Refresh(ctx)
	return nil
}

// Delete removes a document. The cached list only changes when the backend
// confirms the delete.
func (l *Library) Delete(ctx context.Context, id string) error {
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()

	if err := l.backend.DeleteDocument(ctx, id); err != nil {
		l.log.Error("delete document failed", "id", id, "error", err)
		return &FlowError{Message: DeleteFailed, Err: err}
	}

	l.mu.Lock()
	kept := make([]api.Document, 0, len(l.docs))
	for _, d := range l.docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	l.docs = kept
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.log.Info("document deleted", "id", id)
	l.broker.Publish(pubsub.DeletedEvent, snapshot)
	return nil
}

// Reupload replaces the file behind an existing document, keeping its id and
// display name, then refreshes the list.
func (l *Library) Reupload(ctx context.Context, id, path string) (*api.UploadResult, error) {
	doc, ok := l.Find(id)
	if !ok {
		return nil, ErrNotFound
	}
	path = NormalizePath(path)
	if !IsSupported(path) {
		return nil, ErrUnsupportedFile
	}

	if err := l.acquire(); err != nil {
		return nil, err
	}
	defer l.release()

	res, err := l.backend.Upload(ctx, api.UploadRequest{
		Path:        path,
		DisplayName: doc.Title(),
		DocumentID:  doc.ID,
	})
	if err != nil {
		l.log.Error("re-upload failed", "id", id, "path", path, "error", err)
		return nil, &FlowError{Message: ReuploadFailed, Err: err}
	}
	if res == nil {
		res = &api.UploadResult{ID: doc.ID}
	}
	l.log.Info("document re-uploaded", "id", id, "version", res.Version)
	_ = l.Refresh(ctx)
	return res, nil
}

// Close stops event delivery.
func (l *Library) Close() {
	l.broker.Shutdown()
}

func (l *Library) acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrBusy
	}
	l.busy = true
	return nil
}

func (l *Library) release() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}

func (l *Library) snapshotLocked() []api.Document {
	out := make([]api.Document, len(l.docs))
	copy(out, l.docs)
	return out
}

// FlowError pairs the static message shown to the user with the cause.
type FlowError struct {
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// DisplayMessage returns the user-facing text for err.
func DisplayMessage(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
