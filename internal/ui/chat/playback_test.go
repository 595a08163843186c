// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/render"
	"github.com/morganforge/studypal/internal/session"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	return New(config.Default(), nil)
}

// drive pushes every event of a planned script through applyEvent.
func drive(t *testing.T, m *Model, segments []model.Segment) {
	t.Helper()
	m.playback = &playback{player: render.NewPlayer(segments, render.Timing{})}
	for {
		ev, ok := m.playback.player.Next()
		if !ok {
			break
		}
		m.applyEvent(ev)
	}
}

func TestPlayback_CodeBlockRevealedWhole(t *testing.T) {
	m := newTestModel(t)
	drive(t, &m, []model.Segment{
		{Kind: model.SegmentCode, Content: "x := 1\ny := 2"},
	})

	// The block arrives in one piece, never word by word.
	if len(m.playback.blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(m.playback.blocks))
	}
	if m.playback.blocks[0] == "" {
		t.Error("code block rendered empty")
	}
	if len(m.playback.stack) != 0 || len(m.playback.doneNodes) != 0 {
		t.Error("block segments must not open nodes")
	}
}

func TestPlayback_TextSegmentRebuildsTree(t *testing.T) {
	m := newTestModel(t)
	drive(t, &m, []model.Segment{
		{Kind: model.SegmentText, Content: "- alpha\n- beta"},
	})

	if len(m.playback.stack) != 0 {
		t.Fatalf("stack not empty after playback: %d", len(m.playback.stack))
	}
	if len(m.playback.doneNodes) != 0 {
		t.Fatalf("doneNodes not flushed on segment end: %d", len(m.playback.doneNodes))
	}
	if len(m.playback.blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(m.playback.blocks))
	}
	out := m.playback.blocks[0]
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "beta") {
		t.Errorf("list items missing from render: %q", out)
	}
}

func TestPlayback_WordsAccumulateInOpenNode(t *testing.T) {
	m := newTestModel(t)
	m.playback = &playback{}

	m.applyEvent(render.Event{Kind: render.EventNodeOpen, Node: model.Node{Kind: model.NodeParagraph}})
	m.applyEvent(render.Event{Kind: render.EventWord, Word: "study"})
	m.applyEvent(render.Event{Kind: render.EventWord, Word: "hard"})

	if got := m.playback.stack[0].Text; got != "study hard" {
		t.Errorf("open node text = %q, want %q", got, "study hard")
	}

	m.applyEvent(render.Event{Kind: render.EventNodeClose})
	if len(m.playback.doneNodes) != 1 {
		t.Fatalf("closed top-level node not collected")
	}
}

func TestPlayback_FinishAppendsAssistantEntry(t *testing.T) {
	m := newTestModel(t)
	released := false
	m.playback = &playback{
		blocks:  []string{"rendered reply"},
		release: func() { released = true },
	}

	m, _ = m.finishPlayback()

	if m.playback != nil {
		t.Fatal("playback not cleared")
	}
	if !released {
		t.Error("gate release not called")
	}
	if len(m.entries) != 1 || m.entries[0].role != roleAssistant {
		t.Fatalf("entries = %+v, want one assistant entry", m.entries)
	}
}

func TestSubmitRejectedWhileBusy(t *testing.T) {
	m := newTestModel(t)
	m.phase = PhaseChat

	release, err := m.gate.Begin(session.Sending)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer release()

	m.input.SetValue("another question")
	updated, cmd := m.submit()
	mm := updated.(Model)

	if cmd != nil {
		t.Error("expected no command while busy")
	}
	if len(mm.entries) != 0 {
		t.Error("busy submission must not enter the transcript")
	}
	if mm.input.Value() != "another question" {
		t.Error("input should be preserved for retry")
	}
}
