// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
)

// Update handles all Bubble Tea messages for the chat view.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case SessionEventMsg:
		m.refreshTranscripts()
		if msg.Event == chatflow.EventChunk {
			// One scroll per applied chunk keeps the tail visible
			// without fighting manual scrollback more than needed.
			m.viewport.GotoBottom()
			if m.compare != nil {
				m.compareViewport.GotoBottom()
			}
		}
		return m, waitForSessionEvent(m.events)

	case StreamDoneMsg:
		m.streaming = false
		m.cancelSend = nil
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			m.toasts.AddError(errText(msg.Err))
		}
		m.refreshTranscripts()
		return m, nil

	case ChatsLoadedMsg:
		if msg.Err != nil {
			m.toasts.AddError("load chats: " + errText(msg.Err))
			return m, nil
		}
		m.setChats(msg.Chats)
		return m, nil

	case SessionLoadedMsg:
		if msg.Err != nil {
			m.toasts.AddError("load history: " + errText(msg.Err))
		}
		m.refreshTranscripts()
		m.viewport.GotoBottom()
		return m, nil

	case BranchCreatedMsg:
		m.form = nil
		if msg.Err != nil {
			m.toasts.AddError("branch: " + errText(msg.Err))
			return m, nil
		}
		m.session = msg.Session
		m.toasts.AddSuccess("branch created")
		m.refreshTranscripts()
		m.viewport.GotoBottom()
		return m, loadChatsCmd(context.Background(), m.client)
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// The branch overlay swallows all other keys while open.
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Dashboard):
		return m, func() tea.Msg { return OpenDashboardMsg{} }

	case key.Matches(msg, m.keys.FocusNext):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming && m.cancelSend != nil {
			m.cancelSend()
			return m, nil
		}
		if m.pickCompare {
			m.pickCompare = false
			return m, nil
		}
		if m.compare != nil {
			m.closeCompare()
			return m, nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Compare):
		m.pickCompare = true
		m.focus = focusSidebar
		m.input.Blur()
		m.toasts.AddStatus("pick a chat to compare against")
		return m, nil

	case key.Matches(msg, m.keys.CycleModel):
		m.route = nextRoute(m.route)
		return m, nil

	case key.Matches(msg, m.keys.Branch):
		return m.openBranchForm()

	case key.Matches(msg, m.keys.SendBoth):
		if m.compare != nil {
			return m.submit(true)
		}
		return m, nil
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(msg)
	case focusViewport:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	default:
		if key.Matches(msg, m.keys.Send) {
			return m.submit(false)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.FocusNext):
		m.form.nextField()
		return m, nil
	case key.Matches(msg, m.keys.CycleModel):
		m.form.cycleModel()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		req := m.form.request()
		return m, branchCmd(context.Background(), m.client, req, m.sessionOptions())
	}
	return m, m.form.update(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleNode):
		if row, ok := m.selectedRow(); ok && row.HasChildren {
			m.collapse.Toggle(row.Chat.ID)
			m.reflow()
		}
		return m, nil

	case key.Matches(msg, m.keys.OpenChat):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if m.pickCompare {
			return m.openCompare(row.Chat.ID)
		}
		return m.openChat(row.Chat.ID)
	}
	return m, nil
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case focusInput:
		m.focus = focusSidebar
		m.input.Blur()
	case focusSidebar:
		m.focus = focusViewport
	default:
		m.focus = focusInput
		m.input.Focus()
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// submit sends the input line to the main session, or to both sessions
// when both is set and the compare pane is open.
func (m *Model) submit(both bool) (*Model, tea.Cmd) {
	if m.streaming {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSend = cancel
	m.streaming = true

	if both && m.compare != nil {
		return m, sendBothCmd(ctx, text, m.session, m.compare, m.route, m.compareRoute)
	}
	return m, sendCmd(ctx, m.session, text, m.route)
}

// openBranchForm opens the overlay anchored at the newest message.
func (m *Model) openBranchForm() (*Model, tea.Cmd) {
	messages := m.session.Messages()
	if len(messages) == 0 {
		m.toasts.AddStatus("nothing to branch from yet")
		return m, nil
	}
	origin := messages[len(messages)-1]
	if origin.IsPending() {
		m.toasts.AddStatus("wait for the reply to settle before branching")
		return m, nil
	}
	chat := model.FindChat(m.chats, m.session.ChatID())
	if chat == nil {
		chat = &model.Chat{ID: m.session.ChatID()}
	}
	m.form = newBranchForm(*chat, origin, m.route)
	return m, nil
}

// openChat rebinds the main pane to another chat.
func (m *Model) openChat(chatID string) (*Model, tea.Cmd) {
	if chatID == m.session.ChatID() {
		m.focus = focusInput
		m.input.Focus()
		return m, nil
	}
	m.session = chatflow.NewSession(m.client, chatID, m.sessionOptions())
	m.reroot(chatID)
	m.focus = focusInput
	m.input.Focus()
	return m, loadSessionCmd(context.Background(), m.session)
}

// openCompare binds the compare pane to the picked chat.
func (m *Model) openCompare(chatID string) (*Model, tea.Cmd) {
	m.pickCompare = false
	if chatID == m.session.ChatID() {
		m.toasts.AddStatus("that chat is already open")
		return m, nil
	}
	m.compare = chatflow.NewSession(m.client, chatID, m.sessionOptions())
	m.compareRoute = m.route
	m.SetSize(m.width, m.height)
	m.focus = focusInput
	m.input.Focus()
	return m, loadSessionCmd(context.Background(), m.compare)
}

func (m *Model) closeCompare() {
	m.compare = nil
	m.SetSize(m.width, m.height)
}

// =============================================================================
// SIDEBAR STATE
// =============================================================================

// setChats installs a fresh chat list and re-resolves the family root.
func (m *Model) setChats(chats []model.Chat) {
	m.chats = chats
	m.reroot(m.session.ChatID())
}

// reroot resolves the root of chatID's family and reflows the sidebar.
func (m *Model) reroot(chatID string) {
	root, err := tree.Resolve(m.chats, chatID)
	switch {
	case errors.Is(err, tree.ErrCycle):
		// Corrupt ancestry from the backend. Surface it and show the
		// chat on its own rather than walking the loop.
		m.toasts.AddError("branch data is cyclic, showing this chat alone")
		root = chatID
	case err != nil:
		// Unknown chats degrade to a flat view rooted at the chat
		// itself.
		root = chatID
	}
	m.rootID = root
	m.reflow()
}

func (m *Model) reflow() {
	m.rows = tree.Flatten(m.chats, m.rootID, m.collapse)
	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) selectedRow() (tree.Row, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.selected], true
}

// errText turns a client error into toast copy. A missing token gets a
// pointer to the fix instead of a bare sentinel message.
func errText(err error) string {
	if api.IsAuthNotReady(err) {
		return "no API token configured, add token to ~/.stemma/config.toml"
	}
	return err.Error()
}
