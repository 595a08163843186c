// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/ui/styles"
	"github.com/morganforge/studypal/internal/util"
)

// =============================================================================
// STUDY NODE RENDERER
// =============================================================================

// Node labels shown on the callout boxes.
const (
	labelKeyPoint   = "KEY POINT"
	labelDefinition = "DEFINITION"
	labelImportant  = "IMPORTANT"
	labelExample    = "EXAMPLE"
)

// RenderNodes renders a formatted node tree into terminal lines.
func RenderNodes(nodes []model.Node, theme *styles.Theme, width int) string {
	var out []string
	for _, n := range nodes {
		if s := renderNode(n, theme, width); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n")
}

func renderNode(n model.Node, theme *styles.Theme, width int) string {
	switch n.Kind {
	case model.NodeParagraph:
		return wrapInline(n, theme, width)

	case model.NodeHeading:
		prefix := strings.Repeat("#", n.Level) + " "
		return theme.Heading.Render(prefix + inlineText(n, theme))

	case model.NodeList:
		var items []string
		for _, item := range n.Children {
			bullet := theme.ListBullet.Render("  • ")
			items = append(items, bullet+wrapInlineIndent(item, theme, width-4, 4))
		}
		return strings.Join(items, "\n")

	case model.NodeKeyPoint:
		return callout(theme.KeyPointBox, labelKeyPoint, n, theme, width)
	case model.NodeDef:
		return callout(theme.DefinitionBox, labelDefinition, n, theme, width)
	case model.NodeImportant:
		return callout(theme.ImportantBox, labelImportant, n, theme, width)
	case model.NodeExample:
		return callout(theme.ExampleBox, labelExample, n, theme, width)

	case model.NodeQuote:
		return theme.QuoteLine.Render(inlineText(n, theme))

	default:
		return wrapInline(n, theme, width)
	}
}

// callout renders one labeled study box.
func callout(box lipgloss.Style, label string, n model.Node, theme *styles.Theme, width int) string {
	body := inlineText(n, theme)
	return box.Render(theme.Heading.Render(label) + "\n" + body)
}

// inlineText flattens a node's inline content with styles applied.
func inlineText(n model.Node, theme *styles.Theme) string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var b strings.Builder
	for _, child := range n.Children {
		switch child.Kind {
		case model.NodeEmphasis:
			b.WriteString(theme.EmphasisInline.Render(child.Text))
		case model.NodeMath:
			b.WriteString(theme.MathInline.Render(child.Text))
		case model.NodeKeyPoint, model.NodeDef, model.NodeImportant, model.NodeExample:
			// Embedded tags render as emphasized text inline.
			b.WriteString(theme.EmphasisInline.Render(child.Text))
		default:
			b.WriteString(child.Text)
		}
	}
	return b.String()
}

func wrapInline(n model.Node, theme *styles.Theme, width int) string {
	// Wrap on the plain text, then restyle. Styled spans are not
	// re-wrapped so heavily styled lines may run slightly long.
	if len(n.Children) > 0 {
		return inlineText(n, theme)
	}
	return strings.Join(util.WrapWidth(n.Text, width), "\n")
}

func wrapInlineIndent(n model.Node, theme *styles.Theme, width, indent int) string {
	lines := strings.Split(wrapInline(n, theme, width), "\n")
	pad := strings.Repeat(" ", indent)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}
