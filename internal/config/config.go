// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for studypal.
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional TOML file (~/.studypal/config.toml by default), and environment
// variables. A .env file in the working directory is loaded first so the
// Gemini API key can live there during development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvAPIKey is the environment variable holding the Gemini API key. The
// key is deliberately never read from the config file.
const EnvAPIKey = "GEMINI_API_KEY"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete studypal configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Model    ModelConfig    `toml:"model"`
	Security SecurityConfig `toml:"security"`
	Upload   UploadConfig   `toml:"upload"`
	History  HistoryConfig  `toml:"history"`
	UI       UIConfig       `toml:"ui"`
}

// ServerConfig configures the HTTP backend.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// RequestsPerMinute rate-limits inbound requests per client address.
	// <=0 disables limiting.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// ModelConfig configures the Gemini models.
type ModelConfig struct {
	Name           string `toml:"name"`
	VisionName     string `toml:"vision_name"`
	SystemPrompt   string `toml:"system_prompt"`
	MaxChatTokens  int    `toml:"max_chat_tokens"`
	MaxQuoteTokens int    `toml:"max_quote_tokens"`

	// RequestsPerMinute rate-limits outbound model calls.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// SecurityConfig configures the access gate.
type SecurityConfig struct {
	// PIN is the static unlock code, compared in constant time.
	PIN string `toml:"pin"`

	// PINHash, when set, replaces PIN with a bcrypt hash comparison.
	PINHash string `toml:"pin_hash"`

	// TOTPSecret, when set, additionally accepts time-based one-time
	// codes generated from this secret.
	TOTPSecret string `toml:"totp_secret"`
}

// UploadConfig bounds file ingestion.
type UploadConfig struct {
	// MaxFileMB is the per-file cap for single-file analysis.
	MaxFileMB int64 `toml:"max_file_mb"`

	// MaxBatchFileMB is the per-file cap in batch mode.
	MaxBatchFileMB int64 `toml:"max_batch_file_mb"`

	// SpoolDir overrides the temporary upload directory.
	SpoolDir string `toml:"spool_dir"`
}

// HistoryConfig configures chat history retention.
type HistoryConfig struct {
	// Persist enables the sqlite store.
	Persist bool `toml:"persist"`

	// DatabasePath is the sqlite file location.
	DatabasePath string `toml:"database_path"`

	// SessionTTLMinutes evicts idle sessions. <=0 keeps them forever.
	SessionTTLMinutes int `toml:"session_ttl_minutes"`
}

// UIConfig configures the TUI client.
type UIConfig struct {
	// ServerURL is the backend the client talks to.
	ServerURL string `toml:"server_url"`

	// Playback pacing, in milliseconds.
	ComposingDelayMs int `toml:"composing_delay_ms"`
	WordDelayMs      int `toml:"word_delay_ms"`
	SettleDelayMs    int `toml:"settle_delay_ms"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultPort is the default HTTP port for the backend.
const DefaultPort = 3000

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              DefaultPort,
			RequestsPerMinute: 120,
		},
		Model: ModelConfig{
			Name:              "gemini-2.0-flash",
			VisionName:        "gemini-2.0-flash",
			SystemPrompt:      "You are a helpful study assistant for competitive exam preparation.",
			MaxChatTokens:     1000,
			MaxQuoteTokens:    100,
			RequestsPerMinute: 15,
		},
		Security: SecurityConfig{
			PIN: "1234",
		},
		Upload: UploadConfig{
			MaxFileMB:      10,
			MaxBatchFileMB: 5,
		},
		History: HistoryConfig{
			Persist:           false,
			DatabasePath:      filepath.Join(configDir(), "history.db"),
			SessionTTLMinutes: 60,
		},
		UI: UIConfig{
			ServerURL:        fmt.Sprintf("http://127.0.0.1:%d", DefaultPort),
			ComposingDelayMs: 450,
			WordDelayMs:      35,
			SettleDelayMs:    250,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studypal"
	}
	return filepath.Join(home, ".studypal")
}

// =============================================================================
// LOADING
// =============================================================================

// Load builds the effective configuration: defaults, then the TOML file at
// path (skipped when absent), then environment overrides. An empty path
// means DefaultPath.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies STUDYPAL_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("STUDYPAL_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("STUDYPAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("STUDYPAL_PIN"); v != "" {
		c.Security.PIN = v
	}
	if v := os.Getenv("STUDYPAL_SERVER_URL"); v != "" {
		c.UI.ServerURL = v
	}
	if v := os.Getenv("STUDYPAL_HISTORY_DB"); v != "" {
		c.History.DatabasePath = v
		c.History.Persist = true
	}
	if v := os.Getenv("STUDYPAL_MODEL"); v != "" {
		c.Model.Name = v
	}
}

// APIKey returns the Gemini API key from the environment.
func APIKey() string {
	return strings.TrimSpace(os.Getenv(EnvAPIKey))
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Upload.MaxFileMB <= 0 || c.Upload.MaxBatchFileMB <= 0 {
		return fmt.Errorf("config: upload size caps must be positive")
	}
	if c.Security.PIN == "" && c.Security.PINHash == "" && c.Security.TOTPSecret == "" {
		return fmt.Errorf("config: no unlock method configured")
	}
	if c.UI.WordDelayMs < 0 || c.UI.ComposingDelayMs < 0 || c.UI.SettleDelayMs < 0 {
		return fmt.Errorf("config: playback delays cannot be negative")
	}
	return nil
}
