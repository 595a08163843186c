// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main chat view for the studypal TUI.
package chat

import (
	"github.com/morganforge/studypal/internal/model"
	"github.com/morganforge/studypal/internal/render"
)

// =============================================================================
// MESSAGES
// =============================================================================

// unlockResultMsg reports the outcome of a code verification request.
type unlockResultMsg struct {
	err error
}

// chatReplyMsg carries the segmented reply for a sent message.
type chatReplyMsg struct {
	segments []model.Segment
	err      error
}

// quoteMsg carries the motivational quote for the header.
type quoteMsg struct {
	quote string
}

// historyMsg carries previously stored chat turns.
type historyMsg struct {
	turns []model.ChatTurn
}

// uploadDoneMsg reports the per-file outcomes of a batch upload.
type uploadDoneMsg struct {
	results []model.FileAnalysisResult
	err     error
}

// historyClearedMsg reports the outcome of a clear-history request.
type historyClearedMsg struct {
	err error
}

// playbackStepMsg delivers the next display event after its delay.
type playbackStepMsg struct {
	event render.Event
}

// statusMsg shows a transient line in the status bar.
type statusMsg struct {
	text  string
	isErr bool
}
