// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/studypal/internal/client"
	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/render"
	"github.com/morganforge/studypal/internal/session"
	"github.com/morganforge/studypal/internal/ui/components"
	"github.com/morganforge/studypal/internal/ui/styles"
)

// =============================================================================
// VIEW PHASE
// =============================================================================

// Phase is which screen the TUI is on.
type Phase int

const (
	// PhaseLocked shows the code entry screen.
	PhaseLocked Phase = iota

	// PhaseChat is the unlocked chat view.
	PhaseChat
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// entryRole identifies who a transcript entry belongs to.
type entryRole int

const (
	roleUser entryRole = iota
	roleAssistant
	roleSystem
)

// entry is one finished line in the transcript.
type entry struct {
	role    entryRole
	content string
}

// playback tracks the in-flight reveal of one reply.
type playback struct {
	player *render.Player

	// blocks already revealed for the current reply, rendered
	blocks []string

	// tree under construction for the current text segment
	stack     []model.Node
	doneNodes []model.Node

	release func()
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the studypal client.
type Model struct {
	// State
	phase Phase

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Backend
	backend *client.Client

	// Session state
	gate    *session.Gate
	fileCtx *session.Context

	// Playback pacing
	timing render.Timing

	// Conversation
	entries  []entry
	playback *playback

	// pendingRelease returns the gate to Idle once the in-flight
	// operation fully completes.
	pendingRelease func()

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	codeInput textinput.Model
	composing components.Composing

	// Key bindings
	keyMap KeyMap

	// Header
	quote string

	// Status
	status      string
	statusIsErr bool
	lockError   string
}

// New creates the chat model against the given backend.
func New(cfg *config.Config, backend *client.Client) Model {
	input := textinput.New()
	input.Placeholder = "Ask a study question..."
	input.CharLimit = 4000
	input.Width = 60

	codeInput := textinput.New()
	codeInput.Placeholder = "Enter code"
	codeInput.EchoMode = textinput.EchoPassword
	codeInput.CharLimit = 64
	codeInput.Width = 24
	codeInput.Focus()

	return Model{
		phase:     PhaseLocked,
		theme:     styles.NewTheme(),
		backend:   backend,
		gate:      session.NewGate(),
		fileCtx:   session.NewContext(),
		timing:    timingFromConfig(cfg),
		viewport:  viewport.New(80, 20),
		input:     input,
		codeInput: codeInput,
		composing: components.NewComposing(),
		keyMap:    DefaultKeyMap(),
	}
}

// timingFromConfig converts the millisecond config knobs into a Timing.
func timingFromConfig(cfg *config.Config) render.Timing {
	t := render.DefaultTiming()
	if cfg == nil {
		return t
	}
	t.Composing = time.Duration(cfg.UI.ComposingDelayMs) * time.Millisecond
	t.PerWord = time.Duration(cfg.UI.WordDelayMs) * time.Millisecond
	t.Settle = time.Duration(cfg.UI.SettleDelayMs) * time.Millisecond
	return t
}

// Init starts the cursor blink on the lock screen.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Busy reports whether a chat or upload is in flight.
func (m Model) Busy() bool {
	return m.gate.State() != session.Idle
}
