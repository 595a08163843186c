// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/studypal/internal/ui/styles"
)

// =============================================================================
// COMPOSING INDICATOR
// =============================================================================

// Composing is the animated indicator shown while the assistant is
// preparing the next reply segment.
type Composing struct {
	spinner  spinner.Model
	message  string
	isActive bool
}

// NewComposing creates the indicator with ASCII-safe frames.
func NewComposing() Composing {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Composing{
		spinner: s,
		message: "Composing",
	}
}

// Start activates the indicator and returns the tick command.
func (c *Composing) Start() tea.Cmd {
	c.isActive = true
	return c.spinner.Tick
}

// Stop hides the indicator.
func (c *Composing) Stop() {
	c.isActive = false
}

// Active reports whether the indicator is showing.
func (c Composing) Active() bool {
	return c.isActive
}

// SetMessage changes the label next to the spinner.
func (c *Composing) SetMessage(msg string) {
	c.message = msg
}

// Update advances the animation.
func (c Composing) Update(msg tea.Msg) (Composing, tea.Cmd) {
	if !c.isActive {
		return c, nil
	}
	var cmd tea.Cmd
	c.spinner, cmd = c.spinner.Update(msg)
	return c, cmd
}

// View renders the indicator, or "" when inactive.
func (c Composing) View(theme *styles.Theme) string {
	if !c.isActive {
		return ""
	}
	return theme.Spinner.Render(c.spinner.View()) + " " +
		theme.ComposingText.Render(c.message+"...")
}
