// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markup

import (
	"strings"

	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// INLINE TOKENIZER
// =============================================================================

// tokenizeInline decomposes a text run into inline nodes: plain spans,
// **bold** / __bold__ emphasis, $$...$$ math, and bracket tags embedded in
// surrounding prose. The scan is left to right and each span of input is
// claimed exactly once.
func tokenizeInline(s string) []model.Node {
	var (
		nodes []model.Node
		plain strings.Builder
	)

	flushPlain := func() {
		if plain.Len() == 0 {
			return
		}
		nodes = append(nodes, model.Node{Kind: model.NodeSpan, Text: plain.String()})
		plain.Reset()
	}

	i := 0
	for i < len(s) {
		if node, n := matchDelimited(s[i:], "**", model.NodeEmphasis); node != nil {
			flushPlain()
			nodes = append(nodes, *node)
			i += n
			continue
		}
		if node, n := matchDelimited(s[i:], "__", model.NodeEmphasis); node != nil {
			flushPlain()
			nodes = append(nodes, *node)
			i += n
			continue
		}
		if node, n := matchDelimited(s[i:], "$$", model.NodeMath); node != nil {
			flushPlain()
			nodes = append(nodes, *node)
			i += n
			continue
		}
		if node, n := parseTag(s[i:]); node != nil {
			flushPlain()
			nodes = append(nodes, *node)
			i += n
			continue
		}
		plain.WriteByte(s[i])
		i++
	}
	flushPlain()

	if len(nodes) == 0 {
		nodes = append(nodes, model.Node{Kind: model.NodeSpan, Text: ""})
	}
	return nodes
}

// matchDelimited matches marker...marker at the start of s. An unpaired
// marker does not match and stays plain text.
func matchDelimited(s, marker string, kind model.NodeKind) (*model.Node, int) {
	if !strings.HasPrefix(s, marker) {
		return nil, 0
	}
	rest := s[len(marker):]
	end := strings.Index(rest, marker)
	if end < 0 {
		return nil, 0
	}
	return &model.Node{Kind: kind, Text: rest[:end]}, len(marker) + end + len(marker)
}
