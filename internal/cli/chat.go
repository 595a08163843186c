// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/morganforge/studypal/internal/client"
)

// =============================================================================
// REPL CHAT
// =============================================================================

// ChatREPL is a line-oriented chat loop for terminals where the full TUI
// is unwanted (ssh sessions, scripts driving a pty).
type ChatREPL struct {
	line        *liner.State
	backend     *client.Client
	historyFile string
	quiet       bool
}

// NewChatREPL creates a REPL with readline-style editing and history.
func NewChatREPL(backend *client.Client, quiet bool) *ChatREPL {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	historyFile := filepath.Join(home, ".studypal_history")
	if f, err := os.Open(historyFile); err == nil {
		l.ReadHistory(f)
		f.Close()
	}

	return &ChatREPL{
		line:        l,
		backend:     backend,
		historyFile: historyFile,
		quiet:       quiet,
	}
}

// Close saves history and restores the terminal.
func (r *ChatREPL) Close() {
	if f, err := os.Create(r.historyFile); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// Run reads questions until EOF, Ctrl+C, or /quit.
func (r *ChatREPL) Run(ctx context.Context) error {
	if !r.quiet {
		fmt.Println("StudyPal chat. /clear resets history, /quit exits.")
		fmt.Println()
	}

	for {
		input, err := r.line.Prompt("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return nil
			}
			return nil // EOF
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		switch input {
		case "/quit", "/q", "/exit":
			return nil
		case "/clear":
			if err := r.clearHistory(ctx); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("History cleared.")
			}
			continue
		}

		if err := r.ask(ctx, input); err != nil {
			if errors.Is(err, client.ErrUnreachable) {
				fmt.Println("Backend unreachable. Is `studypal serve` running?")
				continue
			}
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (r *ChatREPL) ask(ctx context.Context, question string) error {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	segments, err := r.backend.Chat(reqCtx, question, "")
	if err != nil {
		return err
	}
	fmt.Print(renderPlain(segments))
	return nil
}

func (r *ChatREPL) clearHistory(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return r.backend.ClearHistory(reqCtx)
}

// HandleChat runs the REPL until the user exits.
func HandleChat(args Args) error {
	repl := NewChatREPL(newBackendClient(args), args.Quiet)
	defer repl.Close()
	return repl.Run(context.Background())
}
