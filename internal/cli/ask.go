// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/morganforge/studypal/internal/client"
	"github.com/morganforge/studypal/internal/config"
	"github.com/morganforge/studypal/internal/markup"
	"github.com/morganforge/studypal/internal/model"
)

// HandleAsk sends a single question and prints the plain-text reply.
func HandleAsk(args Args) error {
	if strings.TrimSpace(args.Query) == "" {
		return fmt.Errorf("usage: studypal ask \"your question\"")
	}

	c := newBackendClient(args)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	segments, err := c.Chat(ctx, args.Query, "")
	if err != nil {
		return err
	}

	fmt.Print(renderPlain(segments))
	return nil
}

// newBackendClient builds a client from flags, env, and config defaults.
func newBackendClient(args Args) *client.Client {
	url := args.ServerURL
	if url == "" {
		cfgPath := args.ConfigPath
		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}
		if cfg, err := config.Load(cfgPath); err == nil {
			url = cfg.UI.ServerURL
		}
	}

	c := client.New(url)
	if args.SessionID != "" {
		c = c.WithSession(args.SessionID)
	}
	return c
}

// renderPlain flattens segments into terminal-friendly plain text.
func renderPlain(segments []model.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case model.SegmentCode:
			for _, line := range strings.Split(seg.Content, "\n") {
				b.WriteString("    ")
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString("\n")
		case model.SegmentTable:
			b.WriteString(seg.Content)
			b.WriteString("\n\n")
		default:
			for _, n := range markup.Format(seg.Content) {
				b.WriteString(plainNode(n, 0))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func plainNode(n model.Node, depth int) string {
	indent := strings.Repeat("  ", depth)
	switch n.Kind {
	case model.NodeHeading:
		return indent + strings.ToUpper(plainInline(n)) + "\n"
	case model.NodeList:
		var b strings.Builder
		for _, item := range n.Children {
			b.WriteString(indent + "* " + plainInline(item) + "\n")
		}
		return b.String()
	case model.NodeKeyPoint:
		return indent + "[KEY POINT] " + plainInline(n) + "\n"
	case model.NodeDef:
		return indent + "[DEFINITION] " + plainInline(n) + "\n"
	case model.NodeImportant:
		return indent + "[IMPORTANT] " + plainInline(n) + "\n"
	case model.NodeExample:
		return indent + "[EXAMPLE] " + plainInline(n) + "\n"
	case model.NodeQuote:
		return indent + "> " + plainInline(n) + "\n"
	default:
		return indent + plainInline(n) + "\n"
	}
}

// plainInline flattens a node's inline children (or its own text).
func plainInline(n model.Node) string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var b strings.Builder
	if n.Text != "" {
		b.WriteString(n.Text)
	}
	for _, c := range n.Children {
		b.WriteString(plainInline(c))
	}
	return b.String()
}
