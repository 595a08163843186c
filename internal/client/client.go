// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client is the typed HTTP client the TUI uses to talk to the
// studypal backend. Every call returns either a decoded payload or an
// error; transport failures surface as ErrUnreachable so the UI can show
// its fallback message instead of a raw network error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/morganforge/studypal/internal/model"
)

// Configuration constants for the backend client.
const (
	// DefaultServerURL is where a locally launched backend listens.
	DefaultServerURL = "http://localhost:3000"

	// DefaultTimeout bounds standard JSON requests.
	DefaultTimeout = 90 * time.Second

	// MaxResponseSize caps response bodies read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

// FallbackMessage is shown when the backend cannot be reached or returns
// something unusable.
const FallbackMessage = "Oops! Something went wrong."

// Error variables for common backend failures.
var (
	// ErrUnreachable indicates the backend did not answer at all.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrUnauthorized indicates the unlock code was rejected.
	ErrUnauthorized = errors.New("incorrect code")
)

// ServerError carries a structured error payload from the backend.
type ServerError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// Client talks to one studypal backend on behalf of one session.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// New creates a client for the given base URL. An empty URL falls back
// to DefaultServerURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithSession keys subsequent requests to the given session ID.
func (c *Client) WithSession(id string) *Client {
	c.sessionID = id
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the backend address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ============================================================================
// OPERATIONS
// ============================================================================

type verifyCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyCode checks an unlock code against the backend gate.
func (c *Client) VerifyCode(ctx context.Context, code string) error {
	var resp verifyCodeResponse
	status, err := c.postJSON(ctx, "/verify-code", map[string]string{"code": code}, &resp)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || !resp.Success {
		return ErrUnauthorized
	}
	return nil
}

type chatResponse struct {
	Response []model.Segment `json:"response"`
}

// Chat sends a message and returns the segmented reply. The optional
// fileContext rides along so the model can ground its answer in the
// user's last analyzed file.
func (c *Client) Chat(ctx context.Context, message, fileContext string) ([]model.Segment, error) {
	body := map[string]string{"message": message}
	if fileContext != "" {
		body["fileContext"] = fileContext
	}

	var resp chatResponse
	if _, err := c.postJSON(ctx, "/chat", body, &resp); err != nil {
		return nil, err
	}
	return model.FilterKnown(resp.Response), nil
}

// Quote fetches one motivational study quote.
func (c *Client) Quote(ctx context.Context) (string, error) {
	var resp struct {
		Quote string `json:"quote"`
	}
	if err := c.getJSON(ctx, "/generate-quote", &resp); err != nil {
		return "", err
	}
	return resp.Quote, nil
}

// History returns the session's chat turns in order.
func (c *Client) History(ctx context.Context) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	if err := c.getJSON(ctx, "/history", &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// ClearHistory wipes the session's chat history.
func (c *Client) ClearHistory(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/clear-history", nil, "")
	if err != nil {
		return err
	}
	var resp struct {
		Success bool `json:"success"`
	}
	_, err = c.do(req, &resp)
	return err
}

type uploadResponse struct {
	Success bool                       `json:"success"`
	Results []model.FileAnalysisResult `json:"results"`
}

// Upload sends a batch of files for analysis. Results come back in the
// same order as the inputs, one per file, failures included.
func (c *Client) Upload(ctx context.Context, files []UploadFile) ([]model.FileAnalysisResult, error) {
	body, contentType, err := encodeMultipart("files", files)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", body, contentType)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if _, err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

type analyzeFileResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Analysis string `json:"analysis"`
}

// AnalysisOutcome is the client-side view of a single-file analysis.
type AnalysisOutcome struct {
	FileName string
	FileType string
	Analysis string
}

// AnalyzeFile sends one file for analysis.
func (c *Client) AnalyzeFile(ctx context.Context, file UploadFile) (*AnalysisOutcome, error) {
	body, contentType, err := encodeMultipart("file", []UploadFile{file})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/analyze-file", body, contentType)
	if err != nil {
		return nil, err
	}

	var resp analyzeFileResponse
	if _, err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &AnalysisOutcome{
		FileName: resp.FileName,
		FileType: resp.FileType,
		Analysis: resp.Analysis,
	}, nil
}

// ============================================================================
// TRANSPORT
// ============================================================================

// UploadFile is one file headed for the backend.
type UploadFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

func encodeMultipart(field string, files []UploadFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		if f.MIMEType != "" {
			hdr.Set("Content-Type", f.MIMEType)
		}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode upload: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("failed to encode upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to encode upload: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dst any) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
	if err != nil {
		return 0, err
	}
	return c.do(req, dst)
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	_, err = c.do(req, dst)
	return err
}

// do executes the request and decodes the body into dst. A 401 is
// decoded into dst and reported via the status code so callers can
// distinguish a rejected code from a broken backend.
func (c *Client) do(req *http.Request, dst any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return resp.StatusCode, decodeServerError(resp.StatusCode, body)
	}

	if dst != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func decodeServerError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	return &ServerError{Message: msg, Status: status}
}
