package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"knowledge-center/api"
	"knowledge-center/prefs"
	"knowledge-center/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadCall struct {
	Filename    string
	DisplayName string
	DocumentID  string
}

// fakeServer is an in-memory backend.
type fakeServer struct {
	mu      sync.Mutex
	docs    []api.Document
	chatErr bool

	// listStatus, when set, is returned by GET /documents.
	listStatus int
	updates    map[string]map[string]any
	renames    map[string]string
	deleted    []string
	uploads    []uploadCall
	uploaded   chan uploadCall
}

func (s *fakeServer) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
			if s.chatErr {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":"Failed to generate answer"}`)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"response": "Revenue grew **12%**.",
				"sources":  []map[string]any{{"filename": "q1.pdf", "page": 2}, {"filename": "deck.pptx", "page": 0}},
			})
		})
		r.Get("/documents", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.listStatus != 0 {
				w.WriteHeader(s.listStatus)
				_, _ = io.WriteString(w, `{"error":"database unavailable"}`)
				return
			}
			_ = json.NewEncoder(w).Encode(s.docs)
		})
		r.Put("/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.mu.Lock()
			s.updates[chi.URLParam(r, "id")] = body
			s.mu.Unlock()
			_, _ = io.WriteString(w, `{"message":"updated"}`)
		})
		r.Patch("/documents/{id}/name", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.mu.Lock()
			s.renames[chi.URLParam(r, "id")] = body["display_name"]
			s.mu.Unlock()
			_, _ = io.WriteString(w, `{"message":"renamed"}`)
		})
		r.Delete("/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.deleted = append(s.deleted, chi.URLParam(r, "id"))
			s.mu.Unlock()
			_, _ = io.WriteString(w, `{"message":"deleted"}`)
		})
		r.Post("/documents/upload", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				http.Error(w, `{"error":"bad form"}`, http.StatusBadRequest)
				return
			}
			_, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, `{"error":"No file uploaded"}`, http.StatusBadRequest)
				return
			}
			call := uploadCall{
				Filename:    hdr.Filename,
				DisplayName: r.FormValue("display_name"),
				DocumentID:  r.FormValue("document_id"),
			}
			s.mu.Lock()
			s.uploads = append(s.uploads, call)
			n := len(s.uploads)
			s.mu.Unlock()
			if s.uploaded != nil {
				s.uploaded <- call
			}
			id := call.DocumentID
			version := 2
			if id == "" {
				id = fmt.Sprintf("doc::%d", n)
				version = 1
			}
			_ = json.NewEncoder(w).Encode(api.UploadResult{Message: "ok", ID: id, Count: 4, Version: version})
		})
	})
	return r
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type testEnv struct {
	*Env
	srv    *fakeServer
	stdout *syncBuffer
	stderr *syncBuffer
}

func newEnv(t *testing.T, srv *fakeServer) testEnv {
	t.Helper()
	if srv == nil {
		srv = &fakeServer{}
	}
	srv.updates = map[string]map[string]any{}
	srv.renames = map[string]string{}

	hs := httptest.NewServer(srv.router())
	t.Cleanup(hs.Close)

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := &Env{
		Client: api.NewClient(api.Config{BaseURL: hs.URL + "/api"}),
		Store:  prefs.NewFileStore(filepath.Join(t.TempDir(), "prefs.json")),
		Stdin:  strings.NewReader(""),
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return testEnv{Env: env, srv: srv, stdout: stdout, stderr: stderr}
}

func run(t *testing.T, te testEnv, args ...string) error {
	t.Helper()
	return Run(context.Background(), te.Env, args)
}

func sampleDocs() []api.Document {
	return []api.Document{
		{ID: "doc::1", Filename: "q1.pdf", DisplayName: "Q1 Report", Category: "Finance", ElementCount: 12, Version: 3,
			UploadedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{ID: "doc::2", Filename: "deck.pptx", ElementCount: 5},
	}
}

func TestParseGlobal(t *testing.T) {
	g, rest, err := ParseGlobal([]string{"--api", "http://kb:9000/api", "--log-level=debug", "docs", "list", "--json"})
	require.NoError(t, err)
	assert.Equal(t, "http://kb:9000/api", g.APIURL)
	assert.Equal(t, "debug", g.LogLevel)
	assert.Equal(t, []string{"docs", "list", "--json"}, rest)

	_, rest, err = ParseGlobal(nil)
	require.NoError(t, err)
	assert.Empty(t, rest)

	_, _, err = ParseGlobal([]string{"--bogus"})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestParseFlagsInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	name := fs.String("name", "", "")
	pos, err := parseFlags(fs, []string{"doc::1", "--name", "New", "extra", "--", "--literal"})
	require.NoError(t, err)
	assert.Equal(t, "New", *name)
	assert.Equal(t, []string{"doc::1", "extra", "--literal"}, pos)
}

func TestUnknownCommand(t *testing.T) {
	te := newEnv(t, nil)
	assert.ErrorIs(t, run(t, te, "frobnicate"), ErrUsage)
	require.NoError(t, run(t, te, "help"))
	assert.Contains(t, te.stdout.String(), "kb docs list")
}

func TestChatRaw(t *testing.T) {
	te := newEnv(t, nil)
	require.NoError(t, run(t, te, "chat", "--raw", "how", "did", "Q1", "go?"))

	out := te.stdout.String()
	assert.Contains(t, out, "Revenue grew **12%**.")
	assert.Contains(t, out, "Sources: q1.pdf (p. 2), deck.pptx")
}

func TestChatFailurePrintsFallback(t *testing.T) {
	te := newEnv(t, &fakeServer{chatErr: true})
	err := run(t, te, "chat", "hello")
	require.Error(t, err)
	assert.Contains(t, te.stdout.String(), session.ChatFallback)
}

func TestChatNeedsMessage(t *testing.T) {
	te := newEnv(t, nil)
	assert.ErrorIs(t, run(t, te, "chat"), ErrUsage)
}

func TestDocsList(t *testing.T) {
	te := newEnv(t, &fakeServer{docs: sampleDocs()})
	require.NoError(t, run(t, te, "docs", "list"))

	out := te.stdout.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Q1 Report")
	assert.Contains(t, out, "Finance")
	assert.Contains(t, out, "v3")
	assert.Contains(t, out, "Uncategorized")
}

func TestDocsListJSON(t *testing.T) {
	te := newEnv(t, &fakeServer{docs: sampleDocs()})
	require.NoError(t, run(t, te, "docs", "list", "--json"))

	var docs []api.Document
	require.NoError(t, json.Unmarshal(te.stdout.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "doc::1", docs[0].ID)
}

func TestDocsListEmpty(t *testing.T) {
	te := newEnv(t, nil)
	require.NoError(t, run(t, te, "docs", "list"))
	assert.Contains(t, te.stdout.String(), "No documents yet")
}

func TestDocsEditSendsOnlyGivenFlags(t *testing.T) {
	te := newEnv(t, nil)
	require.NoError(t, run(t, te, "docs", "edit", "doc::1", "--category", "Sales", "--description="))

	body := te.srv.updates["doc::1"]
	assert.Equal(t, map[string]any{"category": "Sales", "description": ""}, body)
	assert.Contains(t, te.stdout.String(), "Updated doc::1")

	assert.ErrorIs(t, run(t, te, "docs", "edit", "doc::1"), ErrUsage)
}

func TestDocsRename(t *testing.T) {
	te := newEnv(t, nil)
	require.NoError(t, run(t, te, "docs", "rename", "doc::1", "Q1", "Final"))
	assert.Equal(t, "Q1 Final", te.srv.renames["doc::1"])
}

func TestDocsRemoveAsks(t *testing.T) {
	te := newEnv(t, nil)

	te.Stdin = strings.NewReader("n\n")
	require.NoError(t, run(t, te, "docs", "rm", "doc::1"))
	assert.Contains(t, te.stdout.String(), "Are you sure?")
	assert.Empty(t, te.srv.deleted)

	te.Stdin = strings.NewReader("y\n")
	require.NoError(t, run(t, te, "docs", "rm", "doc::1"))
	assert.Equal(t, []string{"doc::1"}, te.srv.deleted)

	te.Stdin = strings.NewReader("")
	require.NoError(t, run(t, te, "docs", "rm", "--yes", "doc::2"))
	assert.Equal(t, []string{"doc::1", "doc::2"}, te.srv.deleted)
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	}
	return root
}

func TestExpandPaths(t *testing.T) {
	root := writeTree(t, "docs/a/q1.pdf", "docs/b/deck.PPTX", "docs/notes.txt", "top.pdf")

	files, skipped, err := ExpandPaths([]string{
		filepath.Join(root, "docs", "**", "*"),
		filepath.Join(root, "top.pdf"),
		filepath.Join(root, "top.pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "docs", "a", "q1.pdf"),
		filepath.Join(root, "docs", "b", "deck.PPTX"),
		filepath.Join(root, "top.pdf"),
	}, files)
	assert.Equal(t, []string{filepath.Join(root, "docs", "notes.txt")}, skipped)

	_, _, err = ExpandPaths([]string{filepath.Join(root, "missing", "*.pdf")})
	assert.Error(t, err)
}

func TestUploadGlob(t *testing.T) {
	root := writeTree(t, "docs/a/q1-report.pdf", "docs/b/deck.pptx", "docs/readme.md")
	te := newEnv(t, nil)

	require.NoError(t, run(t, te, "upload", filepath.Join(root, "docs", "**", "*")))

	require.Len(t, te.srv.uploads, 2)
	assert.Equal(t, uploadCall{Filename: "q1-report.pdf", DisplayName: "q1-report"}, te.srv.uploads[0])
	assert.Equal(t, uploadCall{Filename: "deck.pptx", DisplayName: "deck"}, te.srv.uploads[1])
	assert.Contains(t, te.stderr.String(), "skipping")
	assert.Contains(t, te.stdout.String(), "Uploaded")
}

func TestUploadReplaceWithID(t *testing.T) {
	root := writeTree(t, "q1-v2.pdf")
	te := newEnv(t, nil)

	require.NoError(t, run(t, te, "upload", "--id", "doc::1", "--name", "Q1 Report", filepath.Join(root, "q1-v2.pdf")))
	require.Len(t, te.srv.uploads, 1)
	assert.Equal(t, "doc::1", te.srv.uploads[0].DocumentID)
	assert.Equal(t, "Q1 Report", te.srv.uploads[0].DisplayName)
	assert.Contains(t, te.stdout.String(), "v2")
}

func TestUploadNameNeedsSingleFile(t *testing.T) {
	root := writeTree(t, "a.pdf", "b.pdf")
	te := newEnv(t, nil)
	err := run(t, te, "upload", "--name", "X", filepath.Join(root, "*.pdf"))
	assert.ErrorIs(t, err, ErrUsage)
	assert.Empty(t, te.srv.uploads)
}

func TestWatcherUploadsAndReplaces(t *testing.T) {
	srv := &fakeServer{uploaded: make(chan uploadCall, 4)}
	te := newEnv(t, srv)
	dir := t.TempDir()

	w, err := NewWatcher(te.Client, dir, te.stdout, te.Logger)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(te.stdout.String(), "Watching")
	}, 2*time.Second, 10*time.Millisecond)

	path := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case call := <-srv.uploaded:
		assert.Equal(t, "handbook.pdf", call.Filename)
		assert.Equal(t, "handbook", call.DisplayName)
		assert.Empty(t, call.DocumentID)
	case <-time.After(3 * time.Second):
		t.Fatal("new file was not uploaded")
	}

	require.NoError(t, os.WriteFile(path, []byte("%PDF-2"), 0o644))
	select {
	case call := <-srv.uploaded:
		assert.Equal(t, "doc::1", call.DocumentID, "a changed file replaces its document")
	case <-time.After(3 * time.Second):
		t.Fatal("changed file was not re-uploaded")
	}
}

func TestNewWatcherRejectsFile(t *testing.T) {
	root := writeTree(t, "a.pdf")
	_, err := NewWatcher(nil, filepath.Join(root, "a.pdf"), io.Discard, slog.Default())
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	te := newEnv(t, &fakeServer{docs: sampleDocs()})
	require.NoError(t, run(t, te, "status"))
	out := te.stdout.String()
	assert.Contains(t, out, "online")
	assert.Contains(t, out, "Documents: 2")
}

func TestStatusUnreachable(t *testing.T) {
	te := newEnv(t, nil)
	te.Client = api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1/api"})
	err := run(t, te, "status")
	require.Error(t, err)
	assert.True(t, api.IsConnection(err))
	assert.Contains(t, te.stdout.String(), "unreachable")
}

func TestStatusServerError(t *testing.T) {
	te := newEnv(t, &fakeServer{listStatus: http.StatusServiceUnavailable})
	err := run(t, te, "status")
	require.Error(t, err)
	assert.False(t, api.IsConnection(err))
	assert.Contains(t, te.stdout.String(), "error (HTTP 503)")
}

func TestTheme(t *testing.T) {
	te := newEnv(t, nil)
	te.SystemDark = true

	require.NoError(t, run(t, te, "theme"))
	assert.Contains(t, te.stdout.String(), "dark (terminal default)")

	require.NoError(t, run(t, te, "theme", "light"))
	te.stdout.Reset()
	require.NoError(t, run(t, te, "theme"))
	assert.Contains(t, te.stdout.String(), "light (saved)")

	assert.ErrorIs(t, run(t, te, "theme", "sepia"), ErrUsage)
	assert.True(t, errors.Is(run(t, te, "theme", "a", "b"), ErrUsage))
}
