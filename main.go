// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// stemma is a terminal client for a branching chat backend: a dashboard
// for managing chat trees and usage, a chat view with streaming replies,
// side-by-side comparison, and branch-and-continue.
package main

import (
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/cli"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/ui/chat"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
	"github.com/stemma-labs/stemma-tui/internal/ui/dashboard"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
)

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		if err := cli.HandleAsk(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdRepl:
		if err := cli.HandleRepl(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintHelp()
	}
}

func runTUI(args *cli.ArgParser) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if modelName := args.Flag("model"); modelName != "" {
		if !model.ValidModel(modelName) {
			fmt.Fprintf(os.Stderr, "Error: unknown model %q\n", modelName)
			os.Exit(1)
		}
		cfg.Chat.DefaultModel = modelName
		cfg.Chat.DefaultProvider = string(model.ProviderFromModel(modelName))
	}

	if debugFile := args.Flag("debug"); debugFile != "" {
		f, err := tea.LogToFile(debugFile, "stemma")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	client := api.NewClient(&api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.Timeout(),
	}, cfg)

	app := newApp(theme, cfg, client)

	// Live-reload the config file so token or model edits land without
	// a restart. A failed watcher only disables reloads.
	if path, err := config.Path(); err == nil {
		watcher, werr := config.NewWatcher(path, func(next *config.Config) {
			app.setConfig(next)
		})
		if werr == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running stemma: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// view identifies the active screen.
type view int

const (
	viewDashboard view = iota
	viewChat
)

// app is the top-level Bubble Tea model. It owns the two screens and
// routes between them.
type app struct {
	theme  *styles.Theme
	cfg    atomic.Pointer[config.Config]
	client *api.Client

	active    view
	dashboard *dashboard.Model
	chat      *chat.Model

	width  int
	height int
}

func newApp(theme *styles.Theme, cfg *config.Config, client *api.Client) *app {
	a := &app{
		theme:     theme,
		client:    client,
		active:    viewDashboard,
		dashboard: dashboard.New(theme, cfg, client),
	}
	a.cfg.Store(cfg)
	return a
}

// setConfig swaps in a reloaded config. The watcher goroutine writes
// while the Bubble Tea loop reads, so the swap is atomic. New sessions
// pick the fresh values up on creation.
func (a *app) setConfig(cfg *config.Config) {
	a.cfg.Store(cfg)
}

// Init starts the dashboard and the single app-wide toast tick chain.
func (a *app) Init() tea.Cmd {
	return tea.Batch(a.dashboard.Init(), components.ToastTickCmd())
}

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetSize(msg.Width, msg.Height)
		if a.chat != nil {
			a.chat.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case dashboard.OpenChatMsg:
		return a.openChat(msg.ChatID)

	case chat.OpenDashboardMsg:
		a.active = viewDashboard
		a.dashboard.SetSize(a.width, a.height)
		return a, a.dashboard.Refresh()

	// Keys and the toast tick go to the active view only. Ticks
	// re-issue themselves, so fanning them out to both views would
	// double the chain on every tick.
	case tea.KeyMsg, components.ToastTickMsg:
		return a, a.updateActive(msg)
	}

	// Everything else fans out to both views. Each view's own message
	// types are package private, so there is no cross-talk, and tick
	// chains survive while their view is in the background.
	var cmds []tea.Cmd
	updatedDash, cmd := a.dashboard.Update(msg)
	a.dashboard = updatedDash
	cmds = append(cmds, cmd)
	if a.chat != nil {
		updatedChat, cmd := a.chat.Update(msg)
		a.chat = updatedChat
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *app) updateActive(msg tea.Msg) tea.Cmd {
	if a.active == viewChat && a.chat != nil {
		updated, cmd := a.chat.Update(msg)
		a.chat = updated
		return cmd
	}
	updated, cmd := a.dashboard.Update(msg)
	a.dashboard = updated
	return cmd
}

// openChat builds a fresh chat model bound to chatID and switches to it.
func (a *app) openChat(chatID string) (tea.Model, tea.Cmd) {
	a.chat = chat.New(a.theme, a.cfg.Load(), a.client, chatID)
	a.chat.SetSize(a.width, a.height)
	a.active = viewChat
	return a, a.chat.Init()
}

func (a *app) View() string {
	if a.active == viewChat && a.chat != nil {
		return a.chat.View()
	}
	return a.dashboard.View()
}
