// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant wraps the Gemini API for the three model capabilities
// studypal needs: chat replies, motivational quotes, and image analysis.
//
// The wrapper stays thin: prompt assembly and the API call itself live
// here, while rate limiting is applied uniformly in front of every call.
// Upstream failures are wrapped in ErrUpstream so callers can surface a
// generic message without leaking provider internals.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	genai "google.golang.org/genai"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUpstream wraps any failure of the underlying model call.
	ErrUpstream = errors.New("model call failed")

	// ErrEmptyReply is returned when the model produced no usable text.
	ErrEmptyReply = errors.New("model returned an empty reply")
)

// =============================================================================
// CONFIG
// =============================================================================

// Config holds the assistant's model settings.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the text model used for chat and quotes.
	Model string

	// VisionModel is the model used for image analysis. Defaults to Model.
	VisionModel string

	// SystemPrompt frames the chat assistant's persona.
	SystemPrompt string

	// MaxChatTokens caps chat replies; MaxQuoteTokens caps quotes.
	MaxChatTokens  int32
	MaxQuoteTokens int32

	// RequestsPerMinute rate-limits outbound calls. <=0 disables limiting.
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults for the free Gemini tier.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		Model:             "gemini-2.0-flash",
		SystemPrompt:      "You are a helpful study assistant for competitive exam preparation.",
		MaxChatTokens:     1000,
		MaxQuoteTokens:    100,
		RequestsPerMinute: 15,
	}
}

const (
	quotePrompt = "You are a motivational assistant. Generate an inspiring quote related to studying and perseverance."

	imagePrompt = "Analyze this study material for exam-prep relevance: summarize the key " +
		"concepts it covers, point out definitions and formulas worth memorizing, and " +
		"note anything likely to appear in an exam question."
)

// =============================================================================
// CLIENT
// =============================================================================

// Client calls the Gemini API.
type Client struct {
	cli     *genai.Client
	cfg     Config
	limiter *rate.Limiter
}

// New creates an assistant client. It fails fast when the API key is
// missing so a misconfigured server never starts accepting requests.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("assistant: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultConfig("").Model
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultConfig("").SystemPrompt
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: create client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{cli: cli, cfg: cfg, limiter: limiter}, nil
}

// Chat produces a reply to a user message. When fileContext is non-empty
// it is injected as additional system-level context from the most recent
// uploaded file.
func (c *Client) Chat(ctx context.Context, message, fileContext string) (string, error) {
	system := c.cfg.SystemPrompt
	if fileContext != "" {
		system += "\n\nThe student recently uploaded study material. Use this analysis of it as context:\n" + fileContext
	}

	return c.generate(ctx, c.cfg.Model, system, message, c.cfg.MaxChatTokens)
}

// Quote produces one motivational study quote.
func (c *Client) Quote(ctx context.Context) (string, error) {
	text, err := c.generate(ctx, c.cfg.Model, quotePrompt, "Give me one quote.", c.cfg.MaxQuoteTokens)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"`), nil
}

// AnalyzeImage sends image bytes to the vision model with the fixed
// exam-prep instruction and returns its free-text analysis.
func (c *Client) AnalyzeImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: imagePrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	resp, err := c.cli.Models.GenerateContent(ctx, c.cfg.VisionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return replyText(resp)
}

// generate runs one text-only completion.
func (c *Client) generate(ctx context.Context, model, system, user string, maxTokens int32) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = maxTokens
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: user}},
	}}

	resp, err := c.cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return replyText(resp)
}

// replyText extracts the first candidate's text from a response.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
