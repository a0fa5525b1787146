package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"knowledge-center/api"
	"knowledge-center/session"

	"github.com/fsnotify/fsnotify"
)

// Uploader is the part of the API client the watcher needs.
type Uploader interface {
	Upload(ctx context.Context, req api.UploadRequest) (*api.UploadResult, error)
}

// Watcher uploads .pdf and .pptx files as they appear under a directory. A
// file that changes again later is re-uploaded as a new version of the same
// document.
type Watcher struct {
	client   Uploader
	dir      string
	debounce time.Duration
	out      io.Writer
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	ids     map[string]string
}

// NewWatcher checks that dir is a directory.
func NewWatcher(client Uploader, dir string, out io.Writer, logger *slog.Logger) (*Watcher, error) {
	dir = session.NormalizePath(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}
	return &Watcher{
		client:   client,
		dir:      dir,
		debounce: 750 * time.Millisecond,
		out:      out,
		log:      logger.With("component", "watcher", "dir", dir),
		pending:  make(map[string]time.Time),
		ids:      make(map[string]string),
	}, nil
}

// SetDebounce sets how long a file must stay unchanged before it is sent.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.dir); err != nil {
		return err
	}
	fmt.Fprintf(w.out, "Watching %s for .pdf and .pptx files (ctrl+c to stop)\n", w.dir)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(fw, event.Name); err != nil {
				w.log.Warn("watch new directory failed", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !session.IsSupported(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush uploads files that have been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()
	var ready []string

	w.mu.Lock()
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.upload(ctx, path)
	}
}

func (w *Watcher) upload(ctx context.Context, path string) {
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return
	}

	w.mu.Lock()
	id := w.ids[path]
	w.mu.Unlock()

	res, err := w.client.Upload(ctx, api.UploadRequest{
		Path:        path,
		DisplayName: session.DefaultDisplayName(path),
		DocumentID:  id,
	})
	if err != nil {
		w.log.Error("upload failed", "path", path, "error", err)
		fmt.Fprintf(w.out, "%s: %s\n", path, api.UserMessage(err, session.UploadFallback))
		return
	}

	w.mu.Lock()
	w.ids[path] = res.ID
	w.mu.Unlock()

	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		rel = path
	}
	fmt.Fprintf(w.out, "Uploaded %s as %s (%d chunks, v%d)\n", rel, res.ID, res.Count, res.Version)
}
