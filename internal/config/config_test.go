// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout())
	}
	if cfg.TypingDelay() != 500*time.Millisecond {
		t.Errorf("TypingDelay = %v, want 500ms", cfg.TypingDelay())
	}
	if cfg.Chat.SingleStall != "keep" || cfg.Chat.DualStall != "remove-assistant" {
		t.Errorf("stall defaults = %q/%q", cfg.Chat.SingleStall, cfg.Chat.DualStall)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.API.BaseURL)
	}
}

func TestLoadFromPathPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://api.example.com"

[chat]
default_provider = "openai"
default_model = "gpt-4o"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Chat.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", cfg.Chat.DefaultModel)
	}
	// Unset fields keep defaults
	if cfg.API.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want default 30", cfg.API.TimeoutSecs)
	}
	if cfg.Chat.SingleStall != "keep" {
		t.Errorf("SingleStall = %q, want default keep", cfg.Chat.SingleStall)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STEMMA_API_URL", "https://env.example.com")
	t.Setenv("STEMMA_TOKEN", "env-token")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.API.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want env override", cfg.API.BaseURL)
	}
	if cfg.Token() != "env-token" {
		t.Errorf("Token() = %q, want env override", cfg.Token())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad url", func(c *Config) { c.API.BaseURL = "localhost:8000" }, true},
		{"bad stall", func(c *Config) { c.Chat.SingleStall = "panic" }, true},
		{"bad dual stall", func(c *Config) { c.Chat.DualStall = "explode" }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestBadTOMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nbase_url="), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://one.example.com\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[api]\nbase_url = \"http://two.example.com\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.API.BaseURL != "http://two.example.com" {
			t.Errorf("BaseURL = %q, want http://two.example.com", cfg.API.BaseURL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
