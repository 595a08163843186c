// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the studypal TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderQuote lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// COMPOSING INDICATOR STYLES
	// ==========================================================================

	Spinner       lipgloss.Style
	ComposingText lipgloss.Style

	// ==========================================================================
	// SEGMENT STYLES
	// ==========================================================================

	CodeBlock  lipgloss.Style
	TableBlock lipgloss.Style

	// ==========================================================================
	// STUDY NODE STYLES
	// ==========================================================================

	Heading        lipgloss.Style
	ListBullet     lipgloss.Style
	KeyPointBox    lipgloss.Style
	DefinitionBox  lipgloss.Style
	ImportantBox   lipgloss.Style
	ExampleBox     lipgloss.Style
	QuoteLine      lipgloss.Style
	EmphasisInline lipgloss.Style
	MathInline     lipgloss.Style

	// ==========================================================================
	// LOCK SCREEN STYLES
	// ==========================================================================

	LockBox    lipgloss.Style
	LockTitle  lipgloss.Style
	LockHint   lipgloss.Style
	LockError  lipgloss.Style
	LockDigits lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	FileContext  lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.HeaderQuote = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Composing indicator
	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.ComposingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Segments
	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2)

	t.TableBlock = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	// Study nodes
	t.Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.ListBullet = lipgloss.NewStyle().
		Foreground(Teal)

	t.KeyPointBox = boxStyle(KeyPoint)
	t.DefinitionBox = boxStyle(Definition)
	t.ImportantBox = boxStyle(Important)
	t.ExampleBox = boxStyle(Example)

	t.QuoteLine = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)

	t.EmphasisInline = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.MathInline = lipgloss.NewStyle().
		Foreground(Teal).
		Italic(true)

	// Lock screen
	t.LockBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Indigo).
		Padding(1, 4).
		Align(lipgloss.Center)

	t.LockTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.LockHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.LockError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.LockDigits = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FileContext = lipgloss.NewStyle().
		Foreground(Emerald)
}

// boxStyle builds the left-bordered callout style the study nodes share.
func boxStyle(accent lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(accent).
		PaddingLeft(1)
}

// Resize updates the layout dimensions.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
}
