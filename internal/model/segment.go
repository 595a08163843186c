// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared between the studypal
// backend and the TUI client: reply segments, presentation nodes, file
// analysis results, and chat history turns.
package model

import "encoding/json"

// =============================================================================
// SEGMENT TYPE
// =============================================================================

// SegmentKind identifies the renderable type of one piece of a model reply.
type SegmentKind string

const (
	SegmentCode  SegmentKind = "code"
	SegmentTable SegmentKind = "table"
	SegmentText  SegmentKind = "text"
)

// Known reports whether the kind is one this build understands.
// Consumers must ignore segments with unknown kinds rather than fail.
func (k SegmentKind) Known() bool {
	switch k {
	case SegmentCode, SegmentTable, SegmentText:
		return true
	default:
		return false
	}
}

// Segment is one typed unit extracted from a model reply.
//
// Content semantics per kind:
//   - code:  the de-fenced source, whitespace-trimmed
//   - table: the raw pipe-delimited row lines joined by newline
//   - text:  leftover prose after code/table extraction, trimmed
type Segment struct {
	Kind    SegmentKind `json:"type"`
	Content string      `json:"content"`
}

// FilterKnown returns the segments whose kind this build understands.
// The wire format carries no version field, so a newer backend may emit
// kinds an older client has never seen; those are dropped, not errors.
func FilterKnown(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Kind.Known() {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// CHAT HISTORY
// =============================================================================

// ChatTurn is one user message and the segmented bot reply to it.
type ChatTurn struct {
	User string    `json:"user"`
	Bot  []Segment `json:"bot"`
}

// MarshalBot encodes the bot segments for durable storage.
func (t ChatTurn) MarshalBot() ([]byte, error) {
	return json.Marshal(t.Bot)
}
