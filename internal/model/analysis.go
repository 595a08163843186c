// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// FILE ANALYSIS RESULTS
// =============================================================================

// FileKind identifies the outcome type of analyzing one uploaded file.
type FileKind string

const (
	FileImage FileKind = "image"
	FilePdf   FileKind = "pdf"
	FileError FileKind = "error"
)

// FileAnalysisResult is the per-file outcome of the ingestion pipeline.
// Exactly one of Analysis, Content, or Error is populated:
//   - image: Analysis holds the vision model's free-text analysis
//   - pdf:   Content holds the extracted document text
//   - error: Error holds a user-facing message (never the raw upstream error)
type FileAnalysisResult struct {
	Kind     FileKind `json:"kind"`
	Name     string   `json:"name"`
	Analysis string   `json:"analysis,omitempty"`
	Content  string   `json:"content,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ContextText returns the text a successful result contributes to the
// conversation context, or "" for an error result.
func (r FileAnalysisResult) ContextText() string {
	switch r.Kind {
	case FileImage:
		return r.Analysis
	case FilePdf:
		return r.Content
	default:
		return ""
	}
}
