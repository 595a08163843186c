// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/morganforge/studypal/internal/analyze"
	"github.com/morganforge/studypal/internal/assistant"
	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/history"
	"github.com/morganforge/studypal/internal/server"
)

// HandleServe runs the backend HTTP server until interrupted.
func HandleServe(args Args) error {
	cfgPath := args.ConfigPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	apiKey := config.APIKey()
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ai, err := buildAssistant(ctx, cfg, apiKey)
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}

	hist := history.NewManager(time.Duration(cfg.History.SessionTTLMinutes) * time.Minute)
	if cfg.History.Persist {
		store, err := history.OpenStore(cfg.History.DatabasePath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer store.Close()
		hist.SetStore(store)
	}

	spool, err := analyze.NewSpool(cfg.Upload.SpoolDir)
	if err != nil {
		return fmt.Errorf("upload spool: %w", err)
	}

	srv := server.New(cfg, ai, hist, spool)

	// Config edits swap the model settings live. Host/port changes still
	// need a restart.
	stop, err := config.Watch(cfgPath, func(next *config.Config) {
		swapped, err := buildAssistant(ctx, next, config.APIKey())
		if err != nil {
			log.Printf("SERVE: config reload skipped: %v", err)
			return
		}
		srv.SwapAssistant(swapped)
		log.Printf("SERVE: model settings reloaded from %s", cfgPath)
	})
	if err != nil {
		log.Printf("SERVE: config watch unavailable: %v", err)
	} else {
		defer stop()
	}

	return srv.ListenAndServe(ctx)
}

// buildAssistant constructs a Gemini client from the model section.
func buildAssistant(ctx context.Context, cfg *config.Config, apiKey string) (*assistant.Client, error) {
	ac := assistant.DefaultConfig(apiKey)
	if cfg.Model.Name != "" {
		ac.Model = cfg.Model.Name
	}
	if cfg.Model.VisionName != "" {
		ac.VisionModel = cfg.Model.VisionName
	}
	if cfg.Model.SystemPrompt != "" {
		ac.SystemPrompt = cfg.Model.SystemPrompt
	}
	if cfg.Model.MaxChatTokens > 0 {
		ac.MaxChatTokens = int32(cfg.Model.MaxChatTokens)
	}
	if cfg.Model.MaxQuoteTokens > 0 {
		ac.MaxQuoteTokens = int32(cfg.Model.MaxQuoteTokens)
	}
	if cfg.Model.RequestsPerMinute > 0 {
		ac.RequestsPerMinute = cfg.Model.RequestsPerMinute
	}
	return assistant.New(ctx, ac)
}
