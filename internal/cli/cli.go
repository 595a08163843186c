// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides argument parsing and command handlers for the
// studypal binary.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdServe
	CmdAsk
	CmdChat
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	ServerURL  string
	SessionID  string
	Quiet      bool
	Verbose    bool

	// Command-specific
	Query string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `studypal - exam-prep study assistant

StudyPal pairs a terminal chat client with a small HTTP backend that
talks to Gemini. Replies come back segmented: code blocks reveal whole,
tables reveal whole, and explanations play out word by word.

Usage:
  studypal                   Start the TUI client (default)
  studypal serve             Run the backend server
  studypal ask "question"    Ask a single question
  studypal chat              Interactive REPL chat
  studypal version           Show version
  studypal help              Show this help

Global Flags:
  --config PATH   Config file (default: ~/.config/studypal/config.toml)
  --server URL    Backend address (default: http://127.0.0.1:3000)
  --session ID    Session key for history isolation
  -q, --quiet     Minimal output
  -v, --verbose   Debug output

Environment:
  GEMINI_API_KEY        Gemini API key (required by serve)
  STUDYPAL_PORT         Backend listen port
  STUDYPAL_PIN          Unlock code override
  STUDYPAL_SERVER_URL   Backend address for the client

Examples:
  studypal serve                        Run the backend
  studypal                              Study in the TUI
  studypal ask "Explain Bayes theorem"  One-shot question
  studypal chat --session exam-prep     Keyed REPL session

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("studypal version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return parse(os.Args[1:])
}

// parse is the testable core of Parse.
func parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "serve", "server":
		return CmdServe, args

	case "ask":
		args.Query = strings.Join(remaining, " ")
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "version", "--version", "-V":
		return CmdVersion, args

	case "help", "--help", "-h":
		return CmdHelp, args

	default:
		// An unknown word is treated as a question for convenience.
		args.Query = strings.Join(append([]string{cmd}, remaining...), " ")
		return CmdAsk, args
	}
}

// parseGlobalFlags strips global flags from argv, returning what is left.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch {
		case arg == "--config" && i+1 < len(argv):
			args.ConfigPath = argv[i+1]
			i += 2
		case strings.HasPrefix(arg, "--config="):
			args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			i++
		case arg == "--server" && i+1 < len(argv):
			args.ServerURL = argv[i+1]
			i += 2
		case strings.HasPrefix(arg, "--server="):
			args.ServerURL = strings.TrimPrefix(arg, "--server=")
			i++
		case arg == "--session" && i+1 < len(argv):
			args.SessionID = argv[i+1]
			i += 2
		case strings.HasPrefix(arg, "--session="):
			args.SessionID = strings.TrimPrefix(arg, "--session=")
			i++
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
			i++
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
			i++
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	return remaining, args
}
