// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines the Bubble Tea message types and commands the view
// uses. Streaming runs off the Bubble Tea loop: commands call into
// chatflow sessions, and session notifications come back through an
// event channel drained by waitForSessionEvent.
package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// SessionEventMsg carries one chatflow notification into the update
// loop: chunk growth, typing flips, and settles all arrive this way.
type SessionEventMsg struct {
	ChatID string
	Event  chatflow.Event
}

// StreamDoneMsg signals that a send finished, successfully or not.
type StreamDoneMsg struct {
	ChatID string
	Err    error
}

// =============================================================================
// DATA MESSAGES
// =============================================================================

// ChatsLoadedMsg delivers the chat list for the sidebar.
type ChatsLoadedMsg struct {
	Chats []model.Chat
	Err   error
}

// SessionLoadedMsg signals that a session finished loading its history.
type SessionLoadedMsg struct {
	ChatID string
	Err    error
}

// BranchCreatedMsg delivers the session for a freshly created branch.
type BranchCreatedMsg struct {
	Session *chatflow.Session
	Err     error
}

// OpenDashboardMsg asks the application model to switch to the dashboard.
type OpenDashboardMsg struct{}

// =============================================================================
// COMMANDS
// =============================================================================

// waitForSessionEvent blocks on the event channel and forwards the next
// notification. The update loop re-issues it after every event.
func waitForSessionEvent(ch <-chan SessionEventMsg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ev
	}
}

// sendCmd streams one message into a single session.
func sendCmd(ctx context.Context, session *chatflow.Session, text string, route chatflow.Route) tea.Cmd {
	return func() tea.Msg {
		err := session.Send(ctx, text, route.Provider, route.Model)
		return StreamDoneMsg{ChatID: session.ChatID(), Err: err}
	}
}

// sendBothCmd streams one message into the main and compare sessions at once.
func sendBothCmd(ctx context.Context, text string, main, compare *chatflow.Session, mainRoute, compareRoute chatflow.Route) tea.Cmd {
	return func() tea.Msg {
		err := chatflow.SendBoth(ctx, text, main, compare, mainRoute, compareRoute)
		return StreamDoneMsg{ChatID: main.ChatID(), Err: err}
	}
}

// branchCmd forks a new chat off the origin message.
func branchCmd(ctx context.Context, backend chatflow.Backend, req chatflow.BranchRequest, opts chatflow.Options) tea.Cmd {
	return func() tea.Msg {
		session, err := chatflow.CreateBranch(ctx, backend, req, opts)
		return BranchCreatedMsg{Session: session, Err: err}
	}
}

// loadChatsCmd fetches the chat list.
func loadChatsCmd(ctx context.Context, client *api.Client) tea.Cmd {
	return func() tea.Msg {
		chats, err := client.ListChats(ctx)
		return ChatsLoadedMsg{Chats: chats, Err: err}
	}
}

// loadSessionCmd loads a session's history from the backend.
func loadSessionCmd(ctx context.Context, session *chatflow.Session) tea.Cmd {
	return func() tea.Msg {
		err := session.Load(ctx)
		return SessionLoadedMsg{ChatID: session.ChatID(), Err: err}
	}
}
