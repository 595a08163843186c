// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/ui/chat"
)

// HandleTUI launches the full-screen chat client.
func HandleTUI(args Args) error {
	cfgPath := args.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if args.ServerURL != "" {
		cfg.UI.ServerURL = args.ServerURL
	}

	backend := newBackendClient(args)
	m := chat.New(cfg, backend)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
