// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"testing"
	"time"

	"github.com/morganforge/studypal/internal/model"
)

func fastTiming() Timing {
	return Timing{Composing: time.Millisecond, PerWord: time.Millisecond, Settle: time.Millisecond}
}

// =============================================================================
// COMPOSING INDICATOR DISCIPLINE
// =============================================================================

// Three segments produce exactly three composing indicators and each is
// removed before the next appears.
func TestPlan_OneComposingPerSegmentNoOverlap(t *testing.T) {
	segments := []model.Segment{
		{Kind: model.SegmentCode, Content: "x = 1"},
		{Kind: model.SegmentTable, Content: "| a |"},
		{Kind: model.SegmentText, Content: "done"},
	}
	events := Plan(segments, fastTiming())

	shown, hidden := 0, 0
	open := false
	for _, ev := range events {
		switch ev.Kind {
		case EventComposing:
			if open {
				t.Fatal("composing indicator shown while previous one still visible")
			}
			open = true
			shown++
		case EventComposingDone:
			if !open {
				t.Fatal("composing indicator removed without being shown")
			}
			open = false
			hidden++
		}
	}
	if shown != 3 || hidden != 3 {
		t.Errorf("composing shown/hidden = %d/%d, want 3/3", shown, hidden)
	}
	if open {
		t.Error("composing indicator left visible at end of playback")
	}
}

// =============================================================================
// SEQUENCING
// =============================================================================

func TestPlan_SegmentsPlaySequentially(t *testing.T) {
	segments := []model.Segment{
		{Kind: model.SegmentCode, Content: "a"},
		{Kind: model.SegmentText, Content: "b"},
	}
	events := Plan(segments, fastTiming())

	current := -1
	for _, ev := range events {
		if ev.Segment < current {
			t.Fatalf("event for segment %d after segment %d started", ev.Segment, current)
		}
		if ev.Segment > current {
			if ev.Kind != EventComposing {
				t.Fatalf("segment %d must start with composing, got kind %d", ev.Segment, ev.Kind)
			}
			current = ev.Segment
		}
	}
}

func TestPlan_SettleDelayBetweenSegments(t *testing.T) {
	timing := fastTiming()
	timing.Settle = 99 * time.Millisecond
	segments := []model.Segment{
		{Kind: model.SegmentCode, Content: "a"},
		{Kind: model.SegmentCode, Content: "b"},
	}
	events := Plan(segments, timing)

	if events[0].Delay != 0 {
		t.Errorf("first composing delay = %v, want 0", events[0].Delay)
	}
	var second *Event
	for i := range events {
		if events[i].Kind == EventComposing && events[i].Segment == 1 {
			second = &events[i]
		}
	}
	if second == nil || second.Delay != timing.Settle {
		t.Errorf("second segment composing delay = %+v, want settle of %v", second, timing.Settle)
	}
}

// =============================================================================
// BLOCK AND WORD REVEALS
// =============================================================================

func TestPlan_CodeRevealsAtomically(t *testing.T) {
	events := Plan([]model.Segment{{Kind: model.SegmentCode, Content: "x := 1\ny := 2"}}, fastTiming())

	var blocks, words int
	for _, ev := range events {
		switch ev.Kind {
		case EventBlock:
			blocks++
			if ev.Block.Content != "x := 1\ny := 2" {
				t.Errorf("block content = %q", ev.Block.Content)
			}
		case EventWord:
			words++
		}
	}
	if blocks != 1 || words != 0 {
		t.Errorf("blocks/words = %d/%d, want 1/0 (atomic reveal)", blocks, words)
	}
}

func TestPlan_TextRevealsWordByWord(t *testing.T) {
	events := Plan([]model.Segment{{Kind: model.SegmentText, Content: "three short words"}}, fastTiming())

	var words []string
	for _, ev := range events {
		if ev.Kind == EventWord {
			words = append(words, ev.Word)
		}
	}
	if len(words) != 3 {
		t.Fatalf("words = %v, want one event per word", words)
	}
	if words[0] != "three" || words[2] != "words" {
		t.Errorf("words revealed out of order: %v", words)
	}
}

func TestPlan_NestedStructureOpensEmptyAndFills(t *testing.T) {
	events := Plan([]model.Segment{{Kind: model.SegmentText, Content: "- alpha beta\n- gamma"}}, fastTiming())

	// Expected shape: list opens, first item opens, its words arrive, the
	// item closes, second item opens, and the list closes only at the end.
	var trace []EventKind
	var opened []model.NodeKind
	for _, ev := range events {
		switch ev.Kind {
		case EventNodeOpen:
			trace = append(trace, ev.Kind)
			opened = append(opened, ev.Node.Kind)
			if ev.Node.Children != nil || (ev.Node.Kind == model.NodeListItem && ev.Node.Text != "") {
				t.Errorf("structural node must open empty: %+v", ev.Node)
			}
		case EventWord, EventNodeClose:
			trace = append(trace, ev.Kind)
		}
	}

	wantOpened := []model.NodeKind{model.NodeList, model.NodeListItem, model.NodeListItem}
	if len(opened) != len(wantOpened) {
		t.Fatalf("opened nodes = %v, want %v", opened, wantOpened)
	}
	for i, k := range wantOpened {
		if opened[i] != k {
			t.Errorf("opened[%d] = %q, want %q", i, opened[i], k)
		}
	}

	wantTrace := []EventKind{
		EventNodeOpen,  // list
		EventNodeOpen,  // item 1
		EventWord, EventWord,
		EventNodeClose, // item 1
		EventNodeOpen,  // item 2
		EventWord,
		EventNodeClose, // item 2
		EventNodeClose, // list
	}
	if len(trace) != len(wantTrace) {
		t.Fatalf("trace = %v, want %v", trace, wantTrace)
	}
	for i := range wantTrace {
		if trace[i] != wantTrace[i] {
			t.Errorf("trace[%d] = %v, want %v", i, trace[i], wantTrace[i])
		}
	}
}

// =============================================================================
// PLAYER
// =============================================================================

func TestPlayer_ConsumesEveryEventOnce(t *testing.T) {
	segments := []model.Segment{{Kind: model.SegmentText, Content: "hi there"}}
	p := NewPlayer(segments, fastTiming())

	total := p.Remaining()
	count := 0
	for {
		_, ok := p.Next()
		if !ok {
			break
		}
		count++
	}
	if count != total {
		t.Errorf("consumed %d events, want %d", count, total)
	}
	if !p.Done() {
		t.Error("player should report done after exhaustion")
	}
	if _, ok := p.Next(); ok {
		t.Error("Next after exhaustion must return false")
	}
}

func TestPlan_NoSegmentsNoEvents(t *testing.T) {
	if events := Plan(nil, DefaultTiming()); len(events) != 0 {
		t.Errorf("Plan(nil) = %v, want empty script", events)
	}
}
