// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/studypal/internal/client"
	"github.com/morganforge/studypal/internal/render"
)

// =============================================================================
// BACKEND COMMANDS
// =============================================================================

// requestTimeout bounds each backend call issued from the TUI.
const requestTimeout = 2 * time.Minute

func verifyCodeCmd(backend *client.Client, code string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return unlockResultMsg{err: backend.VerifyCode(ctx, code)}
	}
}

func sendChatCmd(backend *client.Client, message, fileContext string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		segments, err := backend.Chat(ctx, message, fileContext)
		return chatReplyMsg{segments: segments, err: err}
	}
}

func fetchQuoteCmd(backend *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		quote, err := backend.Quote(ctx)
		if err != nil {
			// The header falls back to a canned line; a missing quote is
			// never an error the user has to see.
			return quoteMsg{quote: "Stay focused and keep learning!"}
		}
		return quoteMsg{quote: quote}
	}
}

func fetchHistoryCmd(backend *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		turns, err := backend.History(ctx)
		if err != nil {
			return historyMsg{}
		}
		return historyMsg{turns: turns}
	}
}

func clearHistoryCmd(backend *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return historyClearedMsg{err: backend.ClearHistory(ctx)}
	}
}

func uploadFilesCmd(backend *client.Client, paths []string) tea.Cmd {
	return func() tea.Msg {
		files := make([]client.UploadFile, 0, len(paths))
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return uploadDoneMsg{err: err}
			}
			files = append(files, client.UploadFile{
				Name:     filepath.Base(path),
				MIMEType: mimeTypeFor(path, data),
				Data:     data,
			})
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		results, err := backend.Upload(ctx, files)
		return uploadDoneMsg{results: results, err: err}
	}
}

// mimeTypeFor resolves a file's media type from its extension, falling
// back to content sniffing.
func mimeTypeFor(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

// =============================================================================
// PLAYBACK COMMAND
// =============================================================================

// stepPlaybackCmd delivers one display event after its delay.
func stepPlaybackCmd(ev render.Event) tea.Cmd {
	return tea.Tick(ev.Delay, func(time.Time) tea.Msg {
		return playbackStepMsg{event: ev}
	})
}
