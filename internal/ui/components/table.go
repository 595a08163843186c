// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/morganforge/studypal/internal/ui/styles"
)

// =============================================================================
// TABLE RENDERER
// =============================================================================

// Table renders one table segment. The content is the raw pipe-delimited
// rows; glamour does the column layout since the rows are already valid
// markdown.
type Table struct {
	Content  string
	MaxWidth int
}

// NewTable creates a new table block.
func NewTable(content string) Table {
	return Table{
		Content:  content,
		MaxWidth: 80,
	}
}

// Render renders the table. If glamour cannot process the rows the raw
// content is shown inside the table border instead.
func (t Table) Render(theme *styles.Theme) string {
	width := t.MaxWidth - 4
	if width < 20 {
		width = 20
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return theme.TableBlock.Render(t.Content)
	}

	out, err := renderer.Render(t.Content)
	if err != nil {
		return theme.TableBlock.Render(t.Content)
	}
	return theme.TableBlock.Render(strings.TrimSpace(out))
}
