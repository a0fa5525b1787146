package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"knowledge-center/api"
	"knowledge-center/pubsub"
)

// UploadFallback is shown when an upload fails without a server message.
const UploadFallback = "Connection failed. Is the backend running?"

// UploadStatus is the state of the upload flow.
type UploadStatus string

const (
	StatusIdle      UploadStatus = "idle"
	StatusUploading UploadStatus = "uploading"
	StatusSuccess   UploadStatus = "success"
	StatusError     UploadStatus = "error"
)

// SelectedFile is the file chosen for upload.
type SelectedFile struct {
	Path string
	Name string
	Size int64
}

// SizeMB formats the size the way the upload card shows it.
func (f SelectedFile) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(f.Size)/1024/1024)
}

// UploadState is a snapshot of the uploader.
type UploadState struct {
	Status       UploadStatus
	File         *SelectedFile
	DisplayName  string
	ErrorMessage string
	Result       *api.UploadResult
}

// Uploader drives a single file upload:
// idle -> uploading -> success | error.
type Uploader struct {
	backend Backend
	broker  *pubsub.Broker[UploadState]
	log     *slog.Logger

	mu    sync.RWMutex
	state UploadState
}

// NewUploader returns an idle uploader with no file selected.
func NewUploader(backend Backend, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		backend: backend,
		broker:  pubsub.NewBroker[UploadState](),
		log:     logger.With("flow", "upload"),
		state:   UploadState{Status: StatusIdle},
	}
}

// Broker publishes an UpdatedEvent with a snapshot on every state change.
func (u *Uploader) Broker() *pubsub.Broker[UploadState] {
	return u.broker
}

// State returns the current snapshot.
func (u *Uploader) State() UploadState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.snapshotLocked()
}

// Select picks the file to upload. The display name is filled with the file
// name without extension, and any previous status is cleared.
func (u *Uploader) Select(path string) error {
	path = NormalizePath(path)
	if path == "" {
		return ErrNoFile
	}
	if !IsSupported(path) {
		return ErrUnsupportedFile
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("select %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("select %s: is a directory", path)
	}

	return u.update(func(s *UploadState) error {
		if s.Status == StatusUploading {
			return ErrBusy
		}
		s.File = &SelectedFile{Path: path, Name: filepath.Base(path), Size: info.Size()}
		s.DisplayName = DefaultDisplayName(path)
		s.Status = StatusIdle
		s.ErrorMessage = ""
		s.Result = nil
		return nil
	})
}

// SetDisplayName edits the name the document will be stored under.
func (u *Uploader) SetDisplayName(name string) {
	_ = u.update(func(s *UploadState) error {
		s.DisplayName = name
		return nil
	})
}

// Clear drops the selected file (the cancel button).
func (u *Uploader) Clear() error {
	return u.update(func(s *UploadState) error {
		if s.Status == StatusUploading {
			return ErrBusy
		}
		s.File = nil
		s.DisplayName = ""
		return nil
	})
}

// Reset returns to a fresh idle state (the "upload another document" action).
func (u *Uploader) Reset() error {
	return u.update(func(s *UploadState) error {
		if s.Status == StatusUploading {
			return ErrBusy
		}
		*s = UploadState{Status: StatusIdle}
		return nil
	})
}

// Upload sends the selected file. On failure the state carries a non-empty
// error message: the server's, or UploadFallback.
func (u *Uploader) Upload(ctx context.Context) (*api.UploadResult, error) {
	var req api.UploadRequest
	err := u.update(func(s *UploadState) error {
		if s.Status == StatusUploading {
			return ErrBusy
		}
		if s.File == nil {
			return ErrNoFile
		}
		name := strings.TrimSpace(s.DisplayName)
		if name == "" {
			name = s.File.Name
		}
		req = api.UploadRequest{Path: s.File.Path, DisplayName: name}
		s.Status = StatusUploading
		s.ErrorMessage = ""
		s.Result = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err := u.backend.Upload(ctx, req)
	if err != nil {
		u.log.Error("upload failed", "path", req.Path, "error", err)
		msg := api.UserMessage(err, UploadFallback)
		_ = u.update(func(s *UploadState) error {
			s.Status = StatusError
			s.ErrorMessage = msg
			return nil
		})
		return nil, err
	}

	if res == nil {
		res = &api.UploadResult{}
	}
	u.log.Info("upload complete", "path", req.Path, "id", res.ID, "chunks", res.Count)
	_ = u.update(func(s *UploadState) error {
		s.Status = StatusSuccess
		s.Result = res
		return nil
	})
	return res, nil
}

// Close stops event delivery.
func (u *Uploader) Close() {
	u.broker.Shutdown()
}

// update applies fn under the lock and publishes the new snapshot when fn
// succeeds.
func (u *Uploader) update(fn func(*UploadState) error) error {
	u.mu.Lock()
	if err := fn(&u.state); err != nil {
		u.mu.Unlock()
		return err
	}
	snapshot := u.snapshotLocked()
	u.mu.Unlock()

	u.broker.Publish(pubsub.UpdatedEvent, snapshot)
	return nil
}

func (u *Uploader) snapshotLocked() UploadState {
	s := u.state
	if s.File != nil {
		f := *s.File
		s.File = &f
	}
	return s
}
