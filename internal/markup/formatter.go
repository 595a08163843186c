// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markup expands the assistant's inline annotation dialect into a
// tree of presentation nodes.
//
// The dialect mixes markdown-like structure (paragraphs, bullet and
// numbered lists, #-headings, **emphasis**, > quotes) with custom bracket
// tags ([key:...], [def:...], [imp:...], [ex:...]) and $$...$$ math spans.
//
// Formatting is a single pass: a line classifier assigns block kinds, then
// an inline tokenizer decomposes paragraph and list-item text. Produced
// nodes are never re-scanned, so running Format over text that happens to
// look like its own output cannot double-wrap anything.
package markup

import (
	"strings"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// BLOCK FORMATTER
// =============================================================================

// Format converts a text segment's content into presentation nodes.
// It is pure and deterministic; unrecognized text stays as plain inline
// content inside its enclosing paragraph.
func Format(text string) []model.Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		nodes     []model.Node
		paragraph []string
		items     []model.Node
	)

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		raw := strings.Join(paragraph, "\n")
		paragraph = paragraph[:0]
		if strings.TrimSpace(raw) == "" {
			return
		}
		nodes = append(nodes, paragraphNode(raw))
	}

	flushList := func() {
		if len(items) == 0 {
			return
		}
		nodes = append(nodes, model.Node{Kind: model.NodeList, Children: items})
		items = nil
	}

	flushAll := func() {
		flushParagraph()
		flushList()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushAll()

		case isListItem(trimmed):
			flushParagraph()
			items = append(items, listItemNode(stripListMarker(trimmed)))

		case headingLevel(trimmed) > 0:
			flushAll()
			level := headingLevel(trimmed)
			nodes = append(nodes, model.Node{
				Kind:  model.NodeHeading,
				Level: level,
				Text:  strings.TrimSpace(trimmed[level:]),
			})

		case strings.HasPrefix(trimmed, ">"):
			flushAll()
			nodes = append(nodes, model.Node{
				Kind: model.NodeQuote,
				Text: strings.TrimSpace(strings.TrimPrefix(trimmed, ">")),
			})

		case wholeLineTag(trimmed) != nil:
			flushAll()
			nodes = append(nodes, *wholeLineTag(trimmed))

		default:
			flushList()
			paragraph = append(paragraph, line)
		}
	}
	flushAll()

	return nodes
}

// paragraphNode builds a paragraph, decomposing inline markup into child
// nodes when any is present.
func paragraphNode(raw string) model.Node {
	children := tokenizeInline(raw)
	if len(children) == 1 && children[0].Kind == model.NodeSpan {
		return model.Node{Kind: model.NodeParagraph, Text: raw}
	}
	return model.Node{Kind: model.NodeParagraph, Children: children}
}

func listItemNode(raw string) model.Node {
	children := tokenizeInline(raw)
	if len(children) == 1 && children[0].Kind == model.NodeSpan {
		return model.Node{Kind: model.NodeListItem, Text: raw}
	}
	return model.Node{Kind: model.NodeListItem, Children: children}
}

// =============================================================================
// LINE CLASSIFICATION
// =============================================================================

// bulletGlyphs are the markers accepted at the start of a list line.
var bulletGlyphs = []string{"• ", "● ", "∙ ", "- "}

func isListItem(line string) bool {
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(line, g) {
			return true
		}
	}
	return numberedPrefixLen(line) > 0
}

func stripListMarker(line string) string {
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(line, g) {
			return strings.TrimSpace(line[len(g):])
		}
	}
	if n := numberedPrefixLen(line); n > 0 {
		return strings.TrimSpace(line[n:])
	}
	return line
}

// numberedPrefixLen returns the length of a "N." or "N)" prefix followed
// by whitespace, or 0 if the line is not a numbered item.
func numberedPrefixLen(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return 0
	}
	if line[i] != '.' && line[i] != ')' {
		return 0
	}
	if i+1 >= len(line) || (line[i+1] != ' ' && line[i+1] != '\t') {
		return 0
	}
	return i + 1
}

// headingLevel returns 1-3 for a #-heading line, 0 otherwise.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level < 1 || level > 3 {
		return 0
	}
	if level < len(line) && line[level] != ' ' && line[level] != '\t' {
		return 0
	}
	return level
}

// =============================================================================
// BRACKET TAGS
// =============================================================================

var tagKinds = map[string]model.NodeKind{
	"key": model.NodeKeyPoint,
	"def": model.NodeDef,
	"imp": model.NodeImportant,
	"ex":  model.NodeExample,
}

// parseTag reads a bracket tag at the start of s. It returns the node and
// the number of bytes consumed, or (nil, 0) when s does not start a tag.
// Tag bodies are taken verbatim; they are not recursively reformatted.
func parseTag(s string) (*model.Node, int) {
	if !strings.HasPrefix(s, "[") {
		return nil, 0
	}
	colon := strings.Index(s, ":")
	if colon < 0 {
		return nil, 0
	}
	kind, ok := tagKinds[s[1:colon]]
	if !ok {
		return nil, 0
	}
	end := strings.Index(s[colon:], "]")
	if end < 0 {
		return nil, 0
	}
	end += colon
	return &model.Node{Kind: kind, Text: s[colon+1 : end]}, end + 1
}

// wholeLineTag returns a block-level node when the entire line is a single
// bracket tag, nil otherwise.
func wholeLineTag(line string) *model.Node {
	node, n := parseTag(line)
	if node == nil || n != len(line) {
		return nil
	}
	return node
}
