// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits a raw model reply into typed, independently
// renderable segments: fenced code blocks, pipe-delimited tables, and
// leftover prose.
//
// Splitting is performed in two full-text passes (all code first, then all
// tables), so the output order is always: every code segment in document
// order, then every table segment in document order, then at most one text
// segment holding whatever prose survived. The original interleaving of
// blocks and prose is NOT preserved. Downstream consumers (history storage,
// the wire format, the TUI playback queue) all depend on this order, so it
// is a compatibility contract, not an accident.
package segment

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// PATTERNS
// =============================================================================

var (
	// fencePattern matches a complete fenced code region, non-greedy,
	// spanning newlines. An unterminated fence never matches and the
	// stray marker stays in the prose.
	fencePattern = regexp.MustCompile("(?s)```(.*?)```")

	// blankRunPattern collapses the holes left behind by extracted blocks.
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// =============================================================================
// SPLITTER
// =============================================================================

// Split decomposes a reply into segments. It always succeeds: malformed
// markup degrades to plain text rather than producing an error.
func Split(reply string) []model.Segment {
	reply = norm.NFC.String(reply)

	var segments []model.Segment

	// Pass 1: extract every fenced code region in document order.
	working := fencePattern.ReplaceAllStringFunc(reply, func(match string) string {
		body := strings.TrimPrefix(match, "```")
		body = strings.TrimSuffix(body, "```")
		segments = append(segments, model.Segment{
			Kind:    model.SegmentCode,
			Content: strings.TrimSpace(stripInfoLine(body)),
		})
		return ""
	})

	// Pass 2: extract every table region from what remains.
	working, tables := extractTables(working)
	segments = append(segments, tables...)

	// Whatever prose survived both passes collapses into one text segment.
	working = blankRunPattern.ReplaceAllString(working, "\n\n")
	if text := strings.TrimSpace(working); text != "" {
		segments = append(segments, model.Segment{
			Kind:    model.SegmentText,
			Content: text,
		})
	}

	return segments
}

// stripInfoLine drops the info string from a fenced body ("js", "python",
// or nothing) so the segment carries only the code itself. A single-line
// fence has no info string.
func stripInfoLine(body string) string {
	idx := strings.Index(body, "\n")
	if idx < 0 {
		return body
	}
	first := strings.TrimSpace(body[:idx])
	if first == "" || !strings.ContainsAny(first, " \t") {
		return body[idx+1:]
	}
	return body
}

// extractTables removes table regions from text and returns the remaining
// prose plus one segment per region.
//
// A region opens at a line containing at least one pipe and runs until a
// blank line or the end of text. Detection is heuristic: prose containing
// a stray pipe will open a region and absorb following non-blank lines.
func extractTables(text string) (string, []model.Segment) {
	lines := strings.Split(text, "\n")

	var (
		kept   []string
		run    []string
		tables []model.Segment
	)

	flush := func() {
		if len(run) == 0 {
			return
		}
		rows := make([]string, 0, len(run))
		for _, r := range run {
			if r = strings.TrimSpace(r); r != "" {
				rows = append(rows, r)
			}
		}
		if len(rows) > 0 {
			tables = append(tables, model.Segment{
				Kind:    model.SegmentTable,
				Content: strings.Join(rows, "\n"),
			})
		}
		run = run[:0]
	}

	inRun := false
	for _, line := range lines {
		blank := strings.TrimSpace(line) == ""
		switch {
		case inRun && blank:
			flush()
			inRun = false
			kept = append(kept, line)
		case inRun:
			run = append(run, line)
		case !blank && strings.Contains(line, "|"):
			inRun = true
			run = append(run, line)
		default:
			kept = append(kept, line)
		}
	}
	flush()

	return strings.Join(kept, "\n"), tables
}
