// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps per-session chat history: an append-only sequence
// of turns keyed by session ID, created on first contact and evicted after
// inactivity, with optional sqlite persistence behind it.
package history

import (
	"log"
	"sync"
	"time"

	"github.com/morganforge/studypal/internal/model"
)

// DefaultSession is used for clients that do not send a session ID.
const DefaultSession = "default"

// =============================================================================
// MANAGER
// =============================================================================

// Manager tracks chat history per session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	store    *Store // optional durable backing, may be nil
}

type entry struct {
	turns      []model.ChatTurn
	lastActive time.Time
	loaded     bool
}

// NewManager creates a manager whose sessions are evicted after idle ttl.
// A ttl of zero disables eviction.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
	}
}

// SetStore attaches a durable store. Sessions are lazily loaded from it on
// first contact and every append is written through.
func (m *Manager) SetStore(s *Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = s
}

// Append records one completed chat turn for a session.
func (m *Manager) Append(session string, turn model.ChatTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.touch(session)
	e.turns = append(e.turns, turn)

	if m.store != nil {
		if err := m.store.Append(session, turn); err != nil {
			log.Printf("HISTORY: persist turn for %q: %v", session, err)
		}
	}
}

// Turns returns a copy of the session's history in append order.
func (m *Manager) Turns(session string) []model.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.touch(session)
	out := make([]model.ChatTurn, len(e.turns))
	copy(out, e.turns)
	return out
}

// Clear wipes a session's history wholesale.
func (m *Manager) Clear(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[session]; ok {
		e.turns = nil
		e.lastActive = time.Now()
		e.loaded = true
	}
	if m.store != nil {
		if err := m.store.Clear(session); err != nil {
			log.Printf("HISTORY: clear %q: %v", session, err)
		}
	}
}

// Sessions returns the number of live sessions. Used by tests and the
// server's health endpoint.
func (m *Manager) Sessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	return len(m.sessions)
}

// touch returns the session's entry, creating it on first contact,
// loading persisted turns if a store is attached, and sweeping expired
// sessions as a side effect. Caller holds the lock.
func (m *Manager) touch(session string) *entry {
	m.sweep()

	e, ok := m.sessions[session]
	if !ok {
		e = &entry{}
		m.sessions[session] = e
	}
	if !e.loaded {
		e.loaded = true
		if m.store != nil {
			turns, err := m.store.Load(session)
			if err != nil {
				log.Printf("HISTORY: load %q: %v", session, err)
			} else {
				e.turns = append(turns, e.turns...)
			}
		}
	}
	e.lastActive = time.Now()
	return e
}

// sweep evicts sessions idle longer than the ttl. Caller holds the lock.
func (m *Manager) sweep() {
	if m.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.ttl)
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
