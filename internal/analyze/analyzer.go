// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analyze turns uploaded study material into analysis text: images
// go to the vision model, PDFs get their text extracted locally, and
// anything else is rejected per file. The batch coordinator isolates
// per-file failures and guarantees temporary storage is released on every
// exit path.
package analyze

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrCorruptPDF      = errors.New("could not extract text from PDF")
)

// User-facing messages for error results. Raw upstream errors are logged
// by callers, never surfaced.
const (
	msgImageFailed = "Could not analyze this image. Please try again."
	msgPDFFailed   = "Could not read this PDF. The file may be corrupt."
	msgUnsupported = "Unsupported file type. Upload an image or a PDF."
)

// =============================================================================
// ANALYZER
// =============================================================================

// VisionModel is the single capability the analyzer needs from the model
// layer: describe an image.
type VisionModel interface {
	AnalyzeImage(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Analyzer produces a FileAnalysisResult for one file's bytes.
// It never touches the file's backing temporary storage; releasing that is
// the batch coordinator's job.
type Analyzer struct {
	vision VisionModel
}

// NewAnalyzer creates an analyzer backed by the given vision model.
func NewAnalyzer(vision VisionModel) *Analyzer {
	return &Analyzer{vision: vision}
}

// Analyze inspects the declared media kind and produces exactly one
// result. Failures surface as an error-kind result, never as a Go error:
// a bad file must not abort the batch it arrived in.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, mimeType, name string) model.FileAnalysisResult {
	switch {
	case isImageMIME(mimeType):
		analysis, err := a.vision.AnalyzeImage(ctx, data, mimeType)
		if err != nil {
			return errorResult(name, msgImageFailed)
		}
		return model.FileAnalysisResult{Kind: model.FileImage, Name: name, Analysis: analysis}

	case mimeType == "application/pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return errorResult(name, msgPDFFailed)
		}
		return model.FileAnalysisResult{Kind: model.FilePdf, Name: name, Content: text}

	default:
		return errorResult(name, msgUnsupported)
	}
}

func errorResult(name, msg string) model.FileAnalysisResult {
	return model.FileAnalysisResult{Kind: model.FileError, Name: name, Error: msg}
}

func isImageMIME(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// =============================================================================
// PDF EXTRACTION
// =============================================================================

// extractPDFText pulls the plain text out of a PDF without any model call.
// The pdf package panics on some malformed documents, so the recover here
// converts those into ErrCorruptPDF like any other parse failure.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrCorruptPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}

	raw, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptPDF, err)
	}

	out := strings.TrimSpace(string(raw))
	if out == "" {
		return "", fmt.Errorf("%w: document contains no extractable text", ErrCorruptPDF)
	}
	return out, nil
}
