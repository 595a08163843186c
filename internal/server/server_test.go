// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morganforge/studypal/internal/analyze"
	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/history"
	"github.com/morganforge/studypal/internal/model"
)

// ============================================================================
// FIXTURES
// ============================================================================

type stubAssistant struct {
	reply    string
	quote    string
	analysis string
	err      error
}

func (s *stubAssistant) Chat(_ context.Context, _, _ string) (string, error) {
	return s.reply, s.err
}

func (s *stubAssistant) Quote(_ context.Context) (string, error) {
	return s.quote, s.err
}

func (s *stubAssistant) AnalyzeImage(_ context.Context, _ []byte, _ string) (string, error) {
	return s.analysis, s.err
}

func newTestServer(t *testing.T, ai *stubAssistant) *Server {
	t.Helper()
	cfg := config.Default()
	spool, err := analyze.NewSpool(t.TempDir())
	require.NoError(t, err)
	return New(cfg, ai, history.NewManager(time.Hour), spool)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// ============================================================================
// VERIFY CODE
// ============================================================================

func TestVerifyCode_CorrectPIN(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})
	rec := postJSON(t, srv.Handler(), "/verify-code", map[string]string{"code": "1234"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, true, resp["success"])
}

func TestVerifyCode_WrongPIN(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})
	rec := postJSON(t, srv.Handler(), "/verify-code", map[string]string{"code": "0000"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Incorrect code", resp["message"])
}

// ============================================================================
// CHAT
// ============================================================================

func TestChat_SegmentsReply(t *testing.T) {
	ai := &stubAssistant{reply: "Here:\n\n```go\nx := 1\n```\n\nDone."}
	srv := newTestServer(t, ai)

	rec := postJSON(t, srv.Handler(), "/chat", map[string]string{"message": "show me"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Response []model.Segment `json:"response"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Response, 2)
	assert.Equal(t, model.SegmentCode, resp.Response[0].Kind)
	assert.Equal(t, "x := 1", resp.Response[0].Content)
	assert.Equal(t, model.SegmentText, resp.Response[1].Kind)
	assert.Equal(t, "Here:\n\nDone.", resp.Response[1].Content)
}

func TestChat_EmptyMessageRejected(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{reply: "hi"})
	rec := postJSON(t, srv.Handler(), "/chat", map[string]string{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_UpstreamFailureIsOpaque(t *testing.T) {
	ai := &stubAssistant{err: errors.New("quota exhausted: key sk-123")}
	srv := newTestServer(t, ai)

	rec := postJSON(t, srv.Handler(), "/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sk-123")

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, msgChatFailed, resp["error"])
}

func TestChat_AppendsToSessionHistory(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{reply: "sure thing"})
	h := srv.Handler()

	data, _ := json.Marshal(map[string]string{"message": "first"})
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(data))
	req.Header.Set("X-Session-ID", "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same session sees the turn.
	req = httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("X-Session-ID", "alice")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var turns []model.ChatTurn
	decodeBody(t, rec, &turns)
	require.Len(t, turns, 1)
	assert.Equal(t, "first", turns[0].User)

	// A different session does not.
	req = httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("X-Session-ID", "bob")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	turns = nil
	decodeBody(t, rec, &turns)
	assert.Empty(t, turns)
}

// ============================================================================
// QUOTE AND HISTORY
// ============================================================================

func TestQuote(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{quote: "Keep going."})
	req := httptest.NewRequest(http.MethodGet, "/generate-quote", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Keep going.", resp["quote"])
}

func TestClearHistory(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{reply: "ok"})
	h := srv.Handler()

	postJSON(t, h, "/chat", map[string]string{"message": "hello"})

	req := httptest.NewRequest(http.MethodDelete, "/clear-history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Chat history cleared successfully", resp["message"])

	req = httptest.NewRequest(http.MethodGet, "/history", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var turns []model.ChatTurn
	decodeBody(t, rec, &turns)
	assert.Empty(t, turns)
}

func TestHistory_EmptyIsArrayNotNull(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// ============================================================================
// FILE INGESTION
// ============================================================================

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

// pngHeader makes the payload sniff as image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n00000000")

func TestUpload_PartialFailure(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{analysis: "a diagram"})

	body, contentType := multipartBody(t, "files", map[string][]byte{
		"notes.png": pngHeader,
		"data.bin":  []byte("not an image or pdf"),
	})
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp uploadResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	require.Len(t, resp.Results, 2)

	byName := map[string]model.FileAnalysisResult{}
	for _, res := range resp.Results {
		byName[res.Name] = res
	}
	assert.Equal(t, model.FileImage, byName["notes.png"].Kind)
	assert.Equal(t, "a diagram", byName["notes.png"].Analysis)
	assert.Equal(t, model.FileError, byName["data.bin"].Kind)
	assert.NotEmpty(t, byName["data.bin"].Error)
}

func TestUpload_NoFiles(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})

	body, contentType := multipartBody(t, "files", nil)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeFile_Image(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{analysis: "a study schedule"})

	body, contentType := multipartBody(t, "file", map[string][]byte{
		"plan.png": pngHeader,
	})
	req := httptest.NewRequest(http.MethodPost, "/analyze-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analyzeFileResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "plan.png", resp.FileName)
	assert.Equal(t, "image", resp.FileType)
	assert.Contains(t, resp.Analysis, "a study schedule")
}

func TestAnalyzeFile_Missing(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})

	body, contentType := multipartBody(t, "file", nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-file", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, msgNoFile, resp["error"])
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(t, &stubAssistant{})
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Session-ID")
}

func TestTOTPVerifier(t *testing.T) {
	v := NewVerifier(config.SecurityConfig{PIN: "9999"})
	assert.True(t, v.Verify("9999"))
	assert.False(t, v.Verify("9998"))
	assert.False(t, v.Verify(""))
}
