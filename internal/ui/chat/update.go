// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/studypal/internal/client"
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/render"
	"github.com/morganforge/studypal/internal/session"
	"github.com/morganforge/studypal/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.Resize(msg.Width, msg.Height)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		if m.viewport.Height < 5 {
			m.viewport.Height = 5
		}
		m.input.Width = msg.Width - 8
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if m.phase == PhaseLocked {
			return m.updateLocked(msg)
		}
		return m.updateChat(msg)

	case unlockResultMsg:
		return m.handleUnlockResult(msg)

	case quoteMsg:
		m.quote = msg.quote
		return m, nil

	case historyMsg:
		m.loadHistory(msg.turns)
		m.refreshViewport()
		return m, nil

	case chatReplyMsg:
		return m.handleChatReply(msg)

	case playbackStepMsg:
		return m.handlePlaybackStep(msg)

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case historyClearedMsg:
		if msg.err != nil {
			m.setStatus("Could not clear history", true)
		} else {
			m.entries = nil
			m.setStatus("Chat history cleared", false)
			m.refreshViewport()
		}
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.isErr)
		return m, nil
	}

	// Spinner animation and cursor blink
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.composing, cmd = m.composing.Update(msg)
	cmds = append(cmds, cmd)

	if m.phase == PhaseLocked {
		m.codeInput, cmd = m.codeInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// LOCK SCREEN
// =============================================================================

func (m Model) updateLocked(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Send):
		code := strings.TrimSpace(m.codeInput.Value())
		if code == "" {
			return m, nil
		}
		m.codeInput.Reset()
		m.lockError = ""
		return m, verifyCodeCmd(m.backend, code)
	}

	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m Model) handleUnlockResult(msg unlockResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, client.ErrUnauthorized) {
			m.lockError = "Incorrect code"
		} else {
			m.lockError = client.FallbackMessage
		}
		return m, nil
	}

	m.phase = PhaseChat
	m.input.Focus()
	return m, tea.Batch(
		fetchQuoteCmd(m.backend),
		fetchHistoryCmd(m.backend),
		textinput.Blink,
	)
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the typed input, routing slash commands to their handlers.
func (m Model) submit() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		return m.handleCommand(content)
	}

	// While a chat or upload is in flight new submissions are rejected,
	// never queued.
	release, err := m.gate.Begin(session.Sending)
	if err != nil {
		m.setStatus("Still working on the last request...", true)
		return m, nil
	}

	m.input.Reset()
	m.pendingRelease = release
	m.entries = append(m.entries, entry{role: roleUser, content: content})
	m.refreshViewport()

	_, fileContext, _ := m.fileCtx.Get()
	return m, tea.Batch(
		m.composing.Start(),
		sendChatCmd(m.backend, content, fileContext),
	)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// commandHandler handles one slash command.
type commandHandler func(m Model, args []string) (tea.Model, tea.Cmd)

var commandHandlers = map[string]commandHandler{
	"clear":  handleClearCommand,
	"upload": handleUploadCommand,
	"u":      handleUploadCommand,
	"forget": handleForgetCommand,
	"quote":  handleQuoteCommand,
	"help":   handleHelpCommand,
	"h":      handleHelpCommand,
	"quit":   handleQuitCommand,
	"q":      handleQuitCommand,
}

func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	handler, ok := commandHandlers[name]
	if !ok {
		m.setStatus(fmt.Sprintf("Unknown command: /%s", name), true)
		return m, nil
	}
	return handler(m, parts[1:])
}

func handleClearCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, clearHistoryCmd(m.backend)
}

func handleUploadCommand(m Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.setStatus("Usage: /upload <file> [file...]", true)
		return m, nil
	}

	release, err := m.gate.Begin(session.Uploading)
	if err != nil {
		m.setStatus("Still working on the last request...", true)
		return m, nil
	}
	m.pendingRelease = release
	m.setStatus(fmt.Sprintf("Uploading %d file(s)...", len(args)), false)
	return m, uploadFilesCmd(m.backend, args)
}

func handleForgetCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.fileCtx.Clear()
	m.setStatus("File context cleared", false)
	return m, nil
}

func handleQuoteCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, fetchQuoteCmd(m.backend)
}

func handleHelpCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	m.entries = append(m.entries, entry{role: roleSystem, content: helpText})
	m.refreshViewport()
	return m, nil
}

func handleQuitCommand(m Model, _ []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

const helpText = `Commands:
  /upload <file>...  analyze images or PDFs and use them as context
  /forget            drop the current file context
  /clear             wipe chat history
  /quote             refresh the header quote
  /quit              exit`

// =============================================================================
// REPLY PLAYBACK
// =============================================================================

func (m Model) handleChatReply(msg chatReplyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.composing.Stop()
		m.releaseGate()
		m.entries = append(m.entries, entry{role: roleSystem, content: client.FallbackMessage})
		m.refreshViewport()
		return m, nil
	}

	m.playback = &playback{
		player:  render.NewPlayer(msg.segments, m.timing),
		release: m.pendingRelease,
	}
	m.pendingRelease = nil

	ev, ok := m.playback.player.Next()
	if !ok {
		mm, cmd := m.finishPlayback()
		return mm, cmd
	}
	return m, stepPlaybackCmd(ev)
}

func (m Model) handlePlaybackStep(msg playbackStepMsg) (tea.Model, tea.Cmd) {
	if m.playback == nil {
		return m, nil
	}
	cmd := m.applyEvent(msg.event)
	m.refreshViewport()

	ev, ok := m.playback.player.Next()
	if !ok {
		mm, done := m.finishPlayback()
		return mm, tea.Batch(cmd, done)
	}
	return m, tea.Batch(cmd, stepPlaybackCmd(ev))
}

// applyEvent folds one display event into the playback state.
func (m *Model) applyEvent(ev render.Event) tea.Cmd {
	p := m.playback
	switch ev.Kind {
	case render.EventComposing:
		return m.composing.Start()

	case render.EventComposingDone:
		m.composing.Stop()

	case render.EventBlock:
		p.blocks = append(p.blocks, m.renderBlock(ev.Block))

	case render.EventNodeOpen:
		p.stack = append(p.stack, ev.Node)

	case render.EventWord:
		if len(p.stack) == 0 {
			break
		}
		top := &p.stack[len(p.stack)-1]
		if top.Text == "" {
			top.Text = ev.Word
		} else {
			top.Text += " " + ev.Word
		}

	case render.EventNodeClose:
		if len(p.stack) == 0 {
			break
		}
		closed := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) > 0 {
			parent := &p.stack[len(p.stack)-1]
			parent.Children = append(parent.Children, closed)
		} else {
			p.doneNodes = append(p.doneNodes, closed)
		}

	case render.EventSegmentDone:
		if len(p.doneNodes) > 0 {
			p.blocks = append(p.blocks,
				components.RenderNodes(p.doneNodes, m.theme, m.contentWidth()))
			p.doneNodes = nil
		}
	}
	return nil
}

func (m Model) finishPlayback() (Model, tea.Cmd) {
	m.composing.Stop()
	if m.playback != nil {
		if len(m.playback.blocks) > 0 {
			m.entries = append(m.entries, entry{
				role:    roleAssistant,
				content: strings.Join(m.playback.blocks, "\n"),
			})
		}
		if m.playback.release != nil {
			m.playback.release()
		}
		m.playback = nil
	}
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// UPLOADS
// =============================================================================

func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	m.releaseGate()

	if msg.err != nil {
		m.setStatus(client.FallbackMessage, true)
		return m, nil
	}

	// Last successful analysis wins as the conversation context.
	succeeded := 0
	for _, res := range msg.results {
		if res.Kind == model.FileError {
			continue
		}
		succeeded++
		m.fileCtx.Set(res.Name, res.ContextText())
	}

	var lines []string
	for _, res := range msg.results {
		if res.Kind == model.FileError {
			lines = append(lines, fmt.Sprintf("[X] %s: %s", res.Name, res.Error))
		} else {
			lines = append(lines, fmt.Sprintf("[OK] %s (%s)", res.Name, res.Kind))
		}
	}
	m.entries = append(m.entries, entry{role: roleSystem, content: strings.Join(lines, "\n")})

	if succeeded > 0 {
		m.setStatus(fmt.Sprintf("%d of %d file(s) analyzed", succeeded, len(msg.results)), false)
	} else {
		m.setStatus("No files could be analyzed", true)
	}
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) releaseGate() {
	if m.pendingRelease != nil {
		m.pendingRelease()
		m.pendingRelease = nil
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsErr = isErr
}

// loadHistory seeds the transcript from stored turns. Stored replies are
// shown immediately; playback is only for fresh replies.
func (m *Model) loadHistory(turns []model.ChatTurn) {
	for _, turn := range turns {
		m.entries = append(m.entries, entry{role: roleUser, content: turn.User})

		var blocks []string
		for _, seg := range turn.Bot {
			blocks = append(blocks, m.renderSegment(seg))
		}
		if len(blocks) > 0 {
			m.entries = append(m.entries, entry{
				role:    roleAssistant,
				content: strings.Join(blocks, "\n"),
			})
		}
	}
}
