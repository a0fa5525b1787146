package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"knowledge-center/api"
)

var errBackend = &api.Error{Kind: api.KindConnection, Op: "test", Cause: errors.New("connection refused")}

// fakeBackend records calls and answers from its fields.
type fakeBackend struct {
	mu sync.Mutex

	chatResp *api.ChatResponse
	chatErr  error
	// chatGate, when set, blocks Chat until it is closed.
	chatGate chan struct{}

	docs    []api.Document
	listErr error

	updates   map[string]api.DocumentUpdate
	updateErr error

	deleted    []string
	deleteErr  error
	deleteGate chan struct{}

	uploads    []api.UploadRequest
	uploadRes  *api.UploadResult
	uploadErr  error
	uploadGate chan struct{}

	listCalls int
}

// wait blocks on gate, when set, until it is closed or ctx ends.
func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) Chat(ctx context.Context, message string) (*api.ChatResponse, error) {
	if err := wait(ctx, f.chatGate); err != nil {
		return nil, err
	}
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chatResp, nil
}

func (f *fakeBackend) ListDocuments(context.Context) ([]api.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]api.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeBackend) Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResult, error) {
	if err := wait(ctx, f.uploadGate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, req)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadRes, nil
}

func (f *fakeBackend) UpdateDocument(_ context.Context, id string, upd api.DocumentUpdate) (*api.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updates == nil {
		f.updates = map[string]api.DocumentUpdate{}
	}
	f.updates[id] = upd
	for i := range f.docs {
		if f.docs[i].ID != id {
			continue
		}
		if upd.DisplayName != nil {
			f.docs[i].DisplayName = *upd.DisplayName
		}
		if upd.Category != nil {
			f.docs[i].Category = *upd.Category
		}
		if upd.Description != nil {
			f.docs[i].Description = *upd.Description
		}
	}
	return nil, nil
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, id string) error {
	if err := wait(ctx, f.deleteGate); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
