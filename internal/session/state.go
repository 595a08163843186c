// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client session's mutable state: an explicit
// Idle/Sending/Uploading state machine gating outgoing work, and the
// conversation context derived from the most recent file upload.
package session

import (
	"errors"
	"sync"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State is the session's activity state.
type State int

const (
	// Idle means no chat or upload is in flight; submission is allowed.
	Idle State = iota

	// Sending means a chat request is in flight.
	Sending

	// Uploading means a file upload is in flight.
	Uploading
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Uploading:
		return "uploading"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned when a transition is requested while another
	// operation is in flight. Callers retry after the session goes idle;
	// requests are rejected, never queued.
	ErrBusy = errors.New("session busy")

	// ErrNotActive is returned for a transition into a state that cannot
	// be entered from Idle.
	ErrNotActive = errors.New("invalid target state")
)

// Gate is the mutual-exclusion discipline for one client session. The only
// legal transitions are Idle->Sending, Idle->Uploading, and back to Idle.
type Gate struct {
	mu    sync.Mutex
	state State
}

// NewGate returns a gate in the Idle state.
func NewGate() *Gate {
	return &Gate{state: Idle}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Begin moves the gate from Idle into target. It fails with ErrBusy if any
// operation is already in flight. The returned release function restores
// Idle and tolerates duplicate calls, so it can sit in a defer and the
// gate is released on every exit path.
func (g *Gate) Begin(target State) (release func(), err error) {
	if target != Sending && target != Uploading {
		return nil, ErrNotActive
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Idle {
		return nil, ErrBusy
	}
	g.state = target

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.state == target {
				g.state = Idle
			}
		})
	}, nil
}

// =============================================================================
// CONVERSATION CONTEXT
// =============================================================================

// Context holds the most recent file-derived context string. Last write
// wins; it is never merged across multiple files and is not part of chat
// history.
type Context struct {
	mu   sync.Mutex
	text string
	name string
}

// NewContext returns an empty conversation context.
func NewContext() *Context {
	return &Context{}
}

// Set replaces the context with the analysis of a newly ingested file.
func (c *Context) Set(name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
	c.text = text
}

// Clear removes the context entirely.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = ""
	c.text = ""
}

// Get returns the current context text and the file it came from.
func (c *Context) Get() (name, text string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name, c.text, c.text != ""
}
