// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns a segmented reply into a timed sequence of display
// events: the simulated "composing" indicator, atomic block reveals for
// code and tables, and word-by-word reveals for formatted text.
//
// The engine is pure: Plan produces the full event script up front and the
// presentation layer (the Bubble Tea chat model) steps through it, sleeping
// each event's delay before applying it. Segments play strictly one after
// another; there is no cancellation, a started playback always runs to
// completion.
package render

import (
	"strings"
	"time"

	"github.com/morganforge/studypal/internal/markup"
	"github.com/morganforge/studypal/internal/model"
)

// =============================================================================
// TIMING
// =============================================================================

// Timing controls the simulated delays during playback.
type Timing struct {
	// Composing is how long the composing indicator is held per segment.
	Composing time.Duration

	// PerWord is the delay between word reveals in a text segment.
	PerWord time.Duration

	// Settle is the pause between two consecutive segments.
	Settle time.Duration
}

// DefaultTiming returns the stock playback pacing.
func DefaultTiming() Timing {
	return Timing{
		Composing: 450 * time.Millisecond,
		PerWord:   35 * time.Millisecond,
		Settle:    250 * time.Millisecond,
	}
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind identifies one display event during playback.
type EventKind int

const (
	// EventComposing shows the composing indicator for a segment.
	EventComposing EventKind = iota

	// EventComposingDone removes the composing indicator.
	EventComposingDone

	// EventBlock reveals a code or table segment atomically.
	EventBlock

	// EventNodeOpen creates an empty structural node; its content fills
	// in as children are revealed.
	EventNodeOpen

	// EventWord appends one word to the innermost open node.
	EventWord

	// EventNodeClose closes the innermost open node.
	EventNodeClose

	// EventSegmentDone marks the end of one segment's playback.
	EventSegmentDone
)

// Event is one step of playback. Delay is how long the consumer waits
// before applying the event.
type Event struct {
	Kind    EventKind
	Delay   time.Duration
	Segment int           // index into the planned segments
	Block   model.Segment // EventBlock only
	Node    model.Node    // EventNodeOpen only: shell without children
	Word    string        // EventWord only
}

// =============================================================================
// PLANNER
// =============================================================================

// Plan builds the full playback script for a reply's segments.
func Plan(segments []model.Segment, timing Timing) []Event {
	var events []Event

	for i, seg := range segments {
		delay := time.Duration(0)
		if i > 0 {
			delay = timing.Settle
		}
		events = append(events, Event{Kind: EventComposing, Delay: delay, Segment: i})
		events = append(events, Event{Kind: EventComposingDone, Delay: timing.Composing, Segment: i})

		switch seg.Kind {
		case model.SegmentText:
			events = appendNodeEvents(events, i, markup.Format(seg.Content), timing)
		default:
			events = append(events, Event{Kind: EventBlock, Segment: i, Block: seg})
		}

		events = append(events, Event{Kind: EventSegmentDone, Segment: i})
	}

	return events
}

// appendNodeEvents walks a presentation tree depth-first. Structural nodes
// open empty, leaf text is revealed word by word, then the node closes.
func appendNodeEvents(events []Event, seg int, nodes []model.Node, timing Timing) []Event {
	for _, node := range nodes {
		shell := node
		shell.Children = nil
		if len(node.Children) == 0 {
			shell.Text = ""
		}
		events = append(events, Event{Kind: EventNodeOpen, Segment: seg, Node: shell})

		if len(node.Children) > 0 {
			events = appendNodeEvents(events, seg, node.Children, timing)
		} else {
			for _, word := range strings.Fields(node.Text) {
				events = append(events, Event{
					Kind:    EventWord,
					Delay:   timing.PerWord,
					Segment: seg,
					Word:    word,
				})
			}
		}

		events = append(events, Event{Kind: EventNodeClose, Segment: seg})
	}
	return events
}

// =============================================================================
// PLAYER
// =============================================================================

// Player steps through a planned script.
type Player struct {
	events []Event
	pos    int
}

// NewPlayer plans segments and returns a player over the script.
func NewPlayer(segments []model.Segment, timing Timing) *Player {
	return &Player{events: Plan(segments, timing)}
}

// Next returns the next event, or false when playback is complete.
func (p *Player) Next() (Event, bool) {
	if p.pos >= len(p.events) {
		return Event{}, false
	}
	ev := p.events[p.pos]
	p.pos++
	return ev, true
}

// Done reports whether every event has been consumed.
func (p *Player) Done() bool {
	return p.pos >= len(p.events)
}

// Remaining returns the number of unplayed events.
func (p *Player) Remaining() int {
	return len(p.events) - p.pos
}
