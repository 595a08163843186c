// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/studypal/internal/markup"
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/ui/components"
	"github.com/morganforge/studypal/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the current screen.
func (m Model) View() string {
	if m.phase == PhaseLocked {
		return m.viewLocked()
	}
	return m.viewChat()
}

// viewLocked renders the code entry screen.
func (m Model) viewLocked() string {
	var b strings.Builder
	b.WriteString(m.theme.LockTitle.Render("StudyPal"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.LockHint.Render("Enter your access code to start studying"))
	b.WriteString("\n\n")
	b.WriteString(m.codeInput.View())
	if m.lockError != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.LockError.Render(m.lockError))
	}

	box := m.theme.LockBox.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// viewChat renders the unlocked chat screen.
func (m Model) viewChat() string {
	var sections []string

	sections = append(sections, m.viewHeader())
	sections = append(sections, m.viewport.View())

	if m.composing.Active() {
		sections = append(sections, m.composing.View(m.theme))
	}

	sections = append(sections, m.viewInput())
	sections = append(sections, m.viewStatusBar())

	return strings.Join(sections, "\n")
}

func (m Model) viewHeader() string {
	title := m.theme.HeaderTitle.Render("StudyPal")
	if m.quote == "" {
		return title
	}
	quote := util.TruncateWidth(m.quote, m.contentWidth()-12)
	return title + "  " + m.theme.HeaderQuote.Render("\""+quote+"\"")
}

func (m Model) viewInput() string {
	prompt := m.theme.InputPrompt.Render("> ")
	return m.theme.InputContainer.Render(prompt + m.input.View())
}

func (m Model) viewStatusBar() string {
	var left string
	if m.status != "" {
		if m.statusIsErr {
			left = m.theme.StatusError.Render(m.status)
		} else {
			left = m.status
		}
	} else if name, _, ok := m.fileCtx.Get(); ok {
		left = m.theme.FileContext.Render("context: " + name)
	}

	help := m.theme.ShortcutKey.Render("/help") +
		m.theme.ShortcutDesc.Render(" commands  ") +
		m.theme.ShortcutKey.Render("ctrl+c") +
		m.theme.ShortcutDesc.Render(" quit")

	gap := m.width - util.StringWidth(left) - util.StringWidth(help) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + help)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// contentWidth is the usable width for message content.
func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 76
	}
	w := m.width - 8
	if w < 20 {
		w = 20
	}
	return w
}

// refreshViewport rebuilds the scrollback from the transcript plus any
// in-flight playback, then pins the view to the bottom.
func (m *Model) refreshViewport() {
	var parts []string
	for _, e := range m.entries {
		parts = append(parts, m.renderEntry(e))
	}

	if p := m.playback; p != nil {
		var live []string
		live = append(live, p.blocks...)
		if partial := m.renderPartial(); partial != "" {
			live = append(live, partial)
		}
		if len(live) > 0 {
			parts = append(parts, m.theme.AssistantBubble.Render(strings.Join(live, "\n")))
		}
	}

	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderEntry(e entry) string {
	switch e.role {
	case roleUser:
		return m.theme.UserBubble.Render(util.TruncateRunes(e.content, 4000))
	case roleAssistant:
		return m.theme.AssistantBubble.Render(e.content)
	default:
		return m.theme.ComposingText.Render(e.content)
	}
}

// renderPartial renders the nodes of the text segment still being
// revealed, including the one under construction on the stack.
func (m Model) renderPartial() string {
	p := m.playback
	nodes := append([]model.Node{}, p.doneNodes...)

	// Fold the open stack into a single partial tree, innermost last.
	if len(p.stack) > 0 {
		partial := p.stack[len(p.stack)-1]
		for i := len(p.stack) - 2; i >= 0; i-- {
			parent := p.stack[i]
			parent.Children = append(append([]model.Node{}, parent.Children...), partial)
			partial = parent
		}
		nodes = append(nodes, partial)
	}

	if len(nodes) == 0 {
		return ""
	}
	return components.RenderNodes(nodes, m.theme, m.contentWidth())
}

// renderBlock renders a code or table segment.
func (m Model) renderBlock(seg model.Segment) string {
	switch seg.Kind {
	case model.SegmentCode:
		cb := components.NewCodeBlock(seg.Content)
		cb.MaxWidth = m.contentWidth()
		return cb.Render(m.theme)
	case model.SegmentTable:
		tb := components.NewTable(seg.Content)
		tb.MaxWidth = m.contentWidth()
		return tb.Render(m.theme)
	default:
		return seg.Content
	}
}

// renderSegment renders any stored segment without playback.
func (m Model) renderSegment(seg model.Segment) string {
	if seg.Kind == model.SegmentText {
		return components.RenderNodes(markup.Format(seg.Content), m.theme, m.contentWidth())
	}
	return m.renderBlock(seg)
}
