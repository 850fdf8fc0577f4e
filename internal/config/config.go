// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for stemma.
//
// Configuration comes from, in order of precedence:
//   - environment variables (STEMMA_API_URL, STEMMA_TOKEN)
//   - ~/.stemma/config.toml
//   - built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete stemma configuration.
type Config struct {
	// API settings
	API APIConfig `toml:"api"`

	// Chat settings
	Chat ChatConfig `toml:"chat"`

	// Dashboard settings
	Dashboard DashboardConfig `toml:"dashboard"`

	// UI settings
	UI UIConfig `toml:"ui"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the chat backend base URL
	BaseURL string `toml:"base_url"`
	// Token is the bearer token for the backend. Usually set via the
	// STEMMA_TOKEN environment variable instead of the file.
	Token string `toml:"token"`
	// TimeoutSecs is the non-streaming request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// ChatConfig contains send behavior settings.
type ChatConfig struct {
	// DefaultProvider selects the initial model vendor
	DefaultProvider string `toml:"default_provider"`
	// DefaultModel selects the initial model; must belong to the provider
	DefaultModel string `toml:"default_model"`
	// TypingDelayMs is the cosmetic delay before the assistant bubble
	// appears
	TypingDelayMs int `toml:"typing_delay_ms"`
	// SingleStall decides what a failed send leaves behind:
	// "keep", "remove-assistant", or "remove-all"
	SingleStall string `toml:"single_stall"`
	// DualStall is the same policy for compare sends
	DualStall string `toml:"dual_stall"`
}

// DashboardConfig contains chat list settings.
type DashboardConfig struct {
	// RefreshSecs is the minimum interval between chat list refreshes
	RefreshSecs int `toml:"refresh_secs"`
}

// UIConfig contains rendering settings.
type UIConfig struct {
	// Markdown renders assistant replies through glamour when true
	Markdown bool `toml:"markdown"`
	// Theme selects the color theme: "dark" or "light"
	Theme string `toml:"theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     "http://localhost:8000",
			TimeoutSecs: 30,
		},
		Chat: ChatConfig{
			DefaultProvider: "gemini",
			DefaultModel:    "gemini-2.0-flash",
			TypingDelayMs:   500,
			SingleStall:     "keep",
			DualStall:       "remove-assistant",
		},
		Dashboard: DashboardConfig{
			RefreshSecs: 5,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "dark",
		},
	}
}

// Timeout returns the API timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// TypingDelay returns the assistant bubble delay as a duration.
func (c *Config) TypingDelay() time.Duration {
	return time.Duration(c.Chat.TypingDelayMs) * time.Millisecond
}

// RefreshInterval returns the dashboard refresh interval as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Dashboard.RefreshSecs) * time.Second
}

// Token implements api.TokenSource with the configured static token.
func (c *Config) Token() string {
	return c.API.Token
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the stemma configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".stemma"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default file path. A missing file is
// not an error; defaults plus environment overrides apply.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file, fills in
// defaults for unset fields, applies environment overrides, and validates.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values with defaults so a partial file still
// yields a usable config.
func (c *Config) fillDefaults() {
	def := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = def.API.TimeoutSecs
	}
	if c.Chat.DefaultProvider == "" {
		c.Chat.DefaultProvider = def.Chat.DefaultProvider
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = def.Chat.DefaultModel
	}
	if c.Chat.TypingDelayMs == 0 {
		c.Chat.TypingDelayMs = def.Chat.TypingDelayMs
	}
	if c.Chat.SingleStall == "" {
		c.Chat.SingleStall = def.Chat.SingleStall
	}
	if c.Chat.DualStall == "" {
		c.Chat.DualStall = def.Chat.DualStall
	}
	if c.Dashboard.RefreshSecs == 0 {
		c.Dashboard.RefreshSecs = def.Dashboard.RefreshSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("STEMMA_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if token := os.Getenv("STEMMA_TOKEN"); token != "" {
		c.API.Token = token
	}
}

// validStalls are the accepted stall policy names.
var validStalls = map[string]bool{
	"keep":             true,
	"remove-assistant": true,
	"remove-all":       true,
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 0 {
		return fmt.Errorf("api.timeout_secs must not be negative")
	}
	if !validStalls[c.Chat.SingleStall] {
		return fmt.Errorf("chat.single_stall %q is not one of keep, remove-assistant, remove-all", c.Chat.SingleStall)
	}
	if !validStalls[c.Chat.DualStall] {
		return fmt.Errorf("chat.dual_stall %q is not one of keep, remove-assistant, remove-all", c.Chat.DualStall)
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme %q is not one of dark, light", c.UI.Theme)
	}
	return nil
}

// Save writes the configuration to the default file path with owner-only
// permissions, since it may contain the bearer token.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
