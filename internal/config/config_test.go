// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != DefaultPort {
		t.Errorf("default port = %d, want %d", cfg.Server.Port, DefaultPort)
	}
	if cfg.Security.PIN != "1234" {
		t.Errorf("default PIN = %q, want 1234", cfg.Security.PIN)
	}
	if cfg.Upload.MaxFileMB != 10 || cfg.Upload.MaxBatchFileMB != 5 {
		t.Errorf("default upload caps = %d/%d, want 10/5", cfg.Upload.MaxFileMB, cfg.Upload.MaxBatchFileMB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

// =============================================================================
// FILE LOADING AND OVERRIDES
// =============================================================================

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 8080

[security]
pin = "9876"

[ui]
word_delay_ms = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Security.PIN != "9876" {
		t.Errorf("pin = %q, want 9876", cfg.Security.PIN)
	}
	if cfg.UI.WordDelayMs != 10 {
		t.Errorf("word delay = %d, want 10", cfg.UI.WordDelayMs)
	}
	// Untouched settings keep their defaults.
	if cfg.Model.Name == "" {
		t.Error("model name default lost")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if cfg.Server.Port != DefaultPort {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 8080\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("STUDYPAL_PORT", "9999")
	t.Setenv("STUDYPAL_PIN", "4321")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("env should beat file: port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Security.PIN != "4321" {
		t.Errorf("pin = %q, want env override", cfg.Security.PIN)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero upload cap", func(c *Config) { c.Upload.MaxFileMB = 0 }},
		{"no unlock method", func(c *Config) { c.Security = SecurityConfig{} }},
		{"negative delay", func(c *Config) { c.UI.WordDelayMs = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("%s: Validate accepted invalid config", tc.name)
			}
		})
	}
}
