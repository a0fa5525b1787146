// Package api is the HTTP client for the knowledge base backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where the backend listens in a local setup.
	DefaultBaseURL = "http://localhost:8080/api"

	defaultUserAgent = "knowledge-center"
	maxErrorBody     = 64 << 10
)

// Config holds client options. Zero values fall back to defaults.
type Config struct {
	BaseURL string
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultConfig returns the local development configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: defaultUserAgent,
	}
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: hc,
		log:        logger.With("component", "api"),
	}
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one user message and returns the answer.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.doJSON(ctx, "chat", http.MethodPost, "/chat", ChatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments returns every document in the knowledge base. The result is
// never nil.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.doJSON(ctx, "list documents", http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

// UpdateDocument applies a partial metadata update. The returned document is
// nil when the backend does not echo one.
func (c *Client) UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (*Document, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "update document", http.MethodPut, documentPath(id), upd, &raw); err != nil {
		return nil, err
	}
	var doc Document
	if len(raw) == 0 || json.Unmarshal(raw, &doc) != nil || doc.ID == "" {
		return nil, nil
	}
	return &doc, nil
}

// RenameDocument changes only the display name.
func (c *Client) RenameDocument(ctx context.Context, id, name string) error {
	body := map[string]string{"display_name": name}
	return c.doJSON(ctx, "rename document", http.MethodPatch, documentPath(id)+"/name", body, nil)
}

// DeleteDocument removes a document and its chunks.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete document", http.MethodDelete, documentPath(id), nil, nil)
}

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/documents", nil)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: "ping", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindConnection, Op: "ping", Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return &Error{Kind: KindStatus, Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

// UploadRequest describes one file upload.
type UploadRequest struct {
	// Path is read from disk when Body is nil.
	Path string
	// Body and Filename upload from memory instead of Path.
	Body     io.Reader
	Filename string
	// DisplayName defaults to the filename on the backend.
	DisplayName string
	// DocumentID replaces an existing document instead of creating one.
	DocumentID string
}

// Upload sends a file as multipart/form-data.
func (c *Client) Upload(ctx context.Context, ur UploadRequest) (*UploadResult, error) {
	const op = "upload document"

	body := ur.Body
	filename := ur.Filename
	if body == nil {
		f, err := os.Open(ur.Path)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Op: op, Cause: err}
		}
		defer f.Close()
		body = f
		if filename == "" {
			filename = filepath.Base(ur.Path)
		}
	}
	if filename == "" {
		return nil, &Error{Kind: KindUnknown, Op: op, Message: "filename is required"}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, body, filename, ur))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/documents/upload", pr)
	if err != nil {
		pr.Close()
		return nil, &Error{Kind: KindUnknown, Op: op, Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	if err := c.do(req, op, &out); err != nil {
		pr.Close()
		return nil, err
	}
	return &out, nil
}

func writeUploadForm(mw *multipart.Writer, body io.Reader, filename string, ur UploadRequest) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, body); err != nil {
		return err
	}
	displayName := ur.DisplayName
	if displayName == "" {
		displayName = filename
	}
	if err := mw.WriteField("display_name", displayName); err != nil {
		return err
	}
	if ur.DocumentID != "" {
		if err := mw.WriteField("document_id", ur.DocumentID); err != nil {
			return err
		}
	}
	return mw.Close()
}

func documentPath(id string) string {
	return "/documents/" + url.PathEscape(id)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindUnknown, Op: op, Cause: err}
		}
		body = bytes.NewReader(buf)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "method", req.Method, "path", req.URL.Path, "error", err)
		return &Error{Kind: KindConnection, Op: op, Cause: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request done", "op", op, "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(op, resp)
		c.log.Warn("backend rejected request", "op", op, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Kind: KindConnection, Op: op, Status: resp.StatusCode, Cause: err}
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Message: "invalid response body", Cause: err}
	}
	return nil
}

// statusError reads the backend's {"error": "...", "details": "..."} body.
func statusError(op string, resp *http.Response) *Error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	msg := ""
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
		if body.Details != "" {
			msg = fmt.Sprintf("%s: %s", body.Error, body.Details)
		}
	}
	return &Error{Kind: KindStatus, Op: op, Status: resp.StatusCode, Message: msg}
}
