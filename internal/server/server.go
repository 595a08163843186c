// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the studypal HTTP backend.
//
// Endpoints:
//   - POST   /verify-code    - Check the unlock code
//   - POST   /chat           - Send a message, receive segmented reply
//   - GET    /generate-quote - One motivational study quote
//   - DELETE /clear-history  - Wipe the session's chat history
//   - GET    /history        - The session's chat turns
//   - POST   /upload         - Batch file analysis (multipart "files")
//   - POST   /analyze-file   - Single file analysis (multipart "file")
//
// Sessions are keyed by the X-Session-ID header; clients that send none
// share the default session. Model and file errors are converted to
// structured JSON payloads at this boundary and never crash the process.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/morganforge/studypal/internal/analyze"
	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/history"
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/segment"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// maxJSONBody caps JSON request bodies.
	maxJSONBody = 1 << 20 // 1MB

	// mb is one megabyte, the unit the upload caps are configured in.
	mb = int64(1) << 20
)

// User-facing error messages. Upstream detail stays in the log.
const (
	msgChatFailed    = "Failed to get a response from the model"
	msgQuoteFailed   = "Failed to generate a motivational quote"
	msgIncorrectCode = "Incorrect code"
	msgNoFile        = "No file uploaded"
)

// ============================================================================
// ASSISTANT BOUNDARY
// ============================================================================

// Assistant is the model capability the server depends on.
type Assistant interface {
	Chat(ctx context.Context, message, fileContext string) (string, error)
	Quote(ctx context.Context) (string, error)
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server wires the HTTP boundary to the assistant, the segmenter, the
// history manager, and the file analysis pipeline.
type Server struct {
	cfg      *config.Config
	hist     *history.Manager
	spool    *analyze.Spool
	verifier *Verifier

	// The assistant can be swapped at runtime when the config file
	// changes, so access goes through the accessor methods.
	mu    sync.RWMutex
	ai    Assistant
	batch *analyze.Batch
}

// New creates a server. The analyzer and batch coordinator are built on
// the given spool so tests can point them at a scratch directory.
func New(cfg *config.Config, ai Assistant, hist *history.Manager, spool *analyze.Spool) *Server {
	s := &Server{
		cfg:      cfg,
		hist:     hist,
		spool:    spool,
		verifier: NewVerifier(cfg.Security),
	}
	s.SwapAssistant(ai)
	return s
}

// SwapAssistant replaces the assistant and rebuilds the analysis
// pipeline on top of it. In-flight requests finish on the old one.
func (s *Server) SwapAssistant(ai Assistant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ai = ai
	s.batch = analyze.NewBatch(analyze.NewAnalyzer(ai), s.spool)
}

func (s *Server) assistant() Assistant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ai
}

func (s *Server) uploadBatch() *analyze.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch
}

// Handler returns the full routing table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /verify-code", s.handleVerifyCode)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /generate-quote", s.handleQuote)
	mux.HandleFunc("DELETE /clear-history", s.handleClearHistory)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /analyze-file", s.handleAnalyzeFile)

	return chain(mux,
		withRecovery,
		withLogging,
		withCORS,
		withRateLimit(s.cfg.Server.RequestsPerMinute),
	)
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("SERVER: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// sessionID extracts the session key for a request.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Session-ID")); id != "" {
		return id
	}
	return history.DefaultSession
}

// ============================================================================
// JSON HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("SERVER: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// ============================================================================
// HANDLERS: GATE AND CHAT
// ============================================================================

type verifyCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !s.verifier.Verify(req.Code) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"message": msgIncorrectCode,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type chatRequest struct {
	Message     string `json:"message"`
	FileContext string `json:"fileContext,omitempty"`
}

type chatResponse struct {
	Response []model.Segment `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := s.assistant().Chat(r.Context(), req.Message, req.FileContext)
	if err != nil {
		log.Printf("SERVER: chat: %v", err)
		writeError(w, http.StatusInternalServerError, msgChatFailed)
		return
	}

	segments := segment.Split(reply)
	s.hist.Append(sessionID(r), model.ChatTurn{User: req.Message, Bot: segments})

	writeJSON(w, http.StatusOK, chatResponse{Response: segments})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.assistant().Quote(r.Context())
	if err != nil {
		log.Printf("SERVER: quote: %v", err)
		writeError(w, http.StatusInternalServerError, msgQuoteFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"quote": quote})
}

// ============================================================================
// HANDLERS: HISTORY
// ============================================================================

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.hist.Clear(sessionID(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat history cleared successfully",
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns := s.hist.Turns(sessionID(r))
	if turns == nil {
		turns = []model.ChatTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// ============================================================================
// HANDLERS: FILE INGESTION
// ============================================================================

type uploadResponse struct {
	Success bool                       `json:"success"`
	Results []model.FileAnalysisResult `json:"results"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxPerFile := s.cfg.Upload.MaxBatchFileMB * mb
	if err := r.ParseMultipartForm(maxPerFile); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	// The size cap is a transport concern: oversize files become error
	// results here and never reach the coordinator.
	uploads := make([]analyze.Upload, 0, len(files))
	oversize := make(map[int]string)
	for i, fh := range files {
		if fh.Size > maxPerFile {
			oversize[i] = fh.Filename
			uploads = append(uploads, analyze.Upload{}) // placeholder slot
			continue
		}
		up, err := readUpload(fh)
		if err != nil {
			log.Printf("SERVER: read upload %q: %v", fh.Filename, err)
			writeError(w, http.StatusInternalServerError, "Failed to process uploaded files")
			return
		}
		uploads = append(uploads, up)
	}

	results := make([]model.FileAnalysisResult, len(files))
	for i := range files {
		if name, ok := oversize[i]; ok {
			results[i] = model.FileAnalysisResult{
				Kind:  model.FileError,
				Name:  name,
				Error: fmt.Sprintf("File exceeds the %dMB limit.", s.cfg.Upload.MaxBatchFileMB),
			}
		}
	}

	// Analyze the in-budget files in order, slotting results back in.
	pending := make([]analyze.Upload, 0, len(uploads))
	slots := make([]int, 0, len(uploads))
	for i, up := range uploads {
		if _, skip := oversize[i]; !skip {
			pending = append(pending, up)
			slots = append(slots, i)
		}
	}
	for j, res := range s.uploadBatch().ProcessAll(r.Context(), pending) {
		results[slots[j]] = res
	}

	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Results: results})
}

type analyzeFileResponse struct {
	Success  bool   `json:"success"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Analysis string `json:"analysis"`
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileMB * mb
	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	fh := files[0]
	if fh.Size > maxSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("File exceeds the %dMB limit", s.cfg.Upload.MaxFileMB))
		return
	}

	up, err := readUpload(fh)
	if err != nil {
		log.Printf("SERVER: read upload %q: %v", fh.Filename, err)
		writeError(w, http.StatusInternalServerError, "Failed to process uploaded file")
		return
	}

	results := s.uploadBatch().ProcessAll(r.Context(), []analyze.Upload{up})
	res := results[0]
	if res.Kind == model.FileError {
		writeError(w, http.StatusInternalServerError, res.Error)
		return
	}

	writeJSON(w, http.StatusOK, analyzeFileResponse{
		Success:  true,
		FileName: res.Name,
		FileType: string(res.Kind),
		Analysis: res.ContextText(),
	})
}

// readUpload loads one multipart file into memory, resolving its media
// type from the part header with a content sniff as fallback.
func readUpload(fh *multipart.FileHeader) (analyze.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return analyze.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return analyze.Upload{}, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return analyze.Upload{
		Name:     fh.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
