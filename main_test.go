// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"sync"
	"testing"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
)

func TestSetConfigSwapsAtomically(t *testing.T) {
	cfg := config.Default()
	client := api.NewClient(&api.Config{BaseURL: cfg.API.BaseURL}, cfg)
	a := newApp(styles.NewTheme("dark"), cfg, client)

	next := config.Default()
	next.Chat.DefaultModel = "gemini-2.0-flash-lite"

	// The watcher goroutine swaps while the update loop reads. The race
	// detector flags this if the swap is not atomic.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			a.setConfig(next)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = a.cfg.Load()
		}
	}()
	wg.Wait()

	if got := a.cfg.Load(); got != next {
		t.Errorf("expected the reloaded config to be installed, got %+v", got)
	}
}
