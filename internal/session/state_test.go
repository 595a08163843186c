// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"
)

// =============================================================================
// GATE TRANSITIONS
// =============================================================================

func TestGate_StartsIdle(t *testing.T) {
	g := NewGate()
	if g.State() != Idle {
		t.Errorf("new gate state = %v, want idle", g.State())
	}
}

func TestGate_BeginAndRelease(t *testing.T) {
	g := NewGate()

	release, err := g.Begin(Sending)
	if err != nil {
		t.Fatalf("Begin(Sending) failed: %v", err)
	}
	if g.State() != Sending {
		t.Errorf("state = %v, want sending", g.State())
	}

	release()
	if g.State() != Idle {
		t.Errorf("state after release = %v, want idle", g.State())
	}
}

func TestGate_RejectsWhileBusy(t *testing.T) {
	g := NewGate()

	release, err := g.Begin(Uploading)
	if err != nil {
		t.Fatalf("Begin(Uploading) failed: %v", err)
	}
	defer release()

	if _, err := g.Begin(Sending); !errors.Is(err, ErrBusy) {
		t.Errorf("Begin while uploading = %v, want ErrBusy", err)
	}
	if _, err := g.Begin(Uploading); !errors.Is(err, ErrBusy) {
		t.Errorf("second Begin(Uploading) = %v, want ErrBusy", err)
	}
}

func TestGate_ReleaseIsIdempotent(t *testing.T) {
	g := NewGate()

	release, _ := g.Begin(Sending)
	release()
	release() // double release must be harmless

	if g.State() != Idle {
		t.Errorf("state = %v, want idle", g.State())
	}

	// Gate remains usable after release.
	if _, err := g.Begin(Uploading); err != nil {
		t.Errorf("Begin after release failed: %v", err)
	}
}

func TestGate_BeginIdleIsInvalid(t *testing.T) {
	g := NewGate()
	if _, err := g.Begin(Idle); !errors.Is(err, ErrNotActive) {
		t.Errorf("Begin(Idle) = %v, want ErrNotActive", err)
	}
}

// =============================================================================
// CONVERSATION CONTEXT
// =============================================================================

func TestContext_LastWriteWins(t *testing.T) {
	c := NewContext()

	if _, _, ok := c.Get(); ok {
		t.Error("fresh context should be empty")
	}

	c.Set("notes.pdf", "first analysis")
	c.Set("diagram.png", "second analysis")

	name, text, ok := c.Get()
	if !ok {
		t.Fatal("context should be populated")
	}
	if name != "diagram.png" || text != "second analysis" {
		t.Errorf("got (%q, %q), want the most recent upload only", name, text)
	}
}

func TestContext_Clear(t *testing.T) {
	c := NewContext()
	c.Set("notes.pdf", "analysis")
	c.Clear()

	if _, _, ok := c.Get(); ok {
		t.Error("cleared context should report empty")
	}
}
