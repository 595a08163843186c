// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// PRESENTATION NODES
// =============================================================================

// NodeKind identifies a presentation node produced from a text segment.
type NodeKind string

const (
	// Block-level nodes.
	NodeParagraph NodeKind = "paragraph"
	NodeList      NodeKind = "list"
	NodeListItem  NodeKind = "list_item"
	NodeHeading   NodeKind = "heading"
	NodeKeyPoint  NodeKind = "key_point"
	NodeDef       NodeKind = "definition"
	NodeImportant NodeKind = "important"
	NodeExample   NodeKind = "example"
	NodeQuote     NodeKind = "quote"

	// Inline nodes, only ever found inside a block node's children.
	NodeSpan     NodeKind = "span"
	NodeEmphasis NodeKind = "emphasis"
	NodeMath     NodeKind = "math"
)

// Node is one element of the presentation tree built from a text segment.
//
// Block nodes with inline markup carry their pieces in Children (spans,
// emphasis, math). A block whose content is plain text carries it directly
// in Text and has no Children. Level is meaningful only for headings (1-3).
type Node struct {
	Kind     NodeKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Level    int      `json:"level,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Inline reports whether the node is an inline node.
func (n Node) Inline() bool {
	switch n.Kind {
	case NodeSpan, NodeEmphasis, NodeMath:
		return true
	default:
		return false
	}
}

// PlainText returns the node's visible text with all structure flattened.
func (n Node) PlainText() string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var out string
	for _, c := range n.Children {
		out += c.PlainText()
	}
	return out
}
