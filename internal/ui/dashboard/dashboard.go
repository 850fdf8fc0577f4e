// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard provides the chat management view: the full branch
// tree across every family, token usage, and billing actions.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// OpenChatMsg asks the application model to open a chat.
type OpenChatMsg struct {
	ChatID string
}

type chatsMsg struct {
	chats []model.Chat
	err   error
}

type usageMsg struct {
	usage *api.TokenUsage
	err   error
}

type checkoutMsg struct {
	url string
	err error
}

type createdMsg struct {
	chatID string
	err    error
}

type deletedMsg struct {
	chatID string
	err    error
}

type refreshTickMsg struct{}

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the dashboard's keyboard shortcuts.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Open      key.Binding
	NewChat   key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Refresh   key.Binding
	Subscribe key.Binding
	Billing   key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default dashboard shortcuts.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "move up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "move down")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "collapse/expand")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open chat")),
		NewChat:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new chat")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete chat")),
		Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:    key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "cancel")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Subscribe: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "subscribe")),
		Billing:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "billing portal")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	theme  *styles.Theme
	cfg    *config.Config
	client *api.Client

	chats    []model.Chat
	rows     []tree.Row
	selected int
	collapse *tree.CollapseState

	usage *api.TokenUsage

	// Deletion runs through a y/esc confirmation.
	pendingDelete string

	// Checkout and portal URLs surface as a copyable line, terminals
	// cannot open a browser on the server's behalf.
	billingURL string

	// limiter throttles refreshes so held-down keys and the auto tick
	// cannot hammer the backend.
	limiter *rate.Limiter

	toasts *components.ToastManager
	keys   KeyMap

	width  int
	height int
}

// New builds the dashboard model.
func New(theme *styles.Theme, cfg *config.Config, client *api.Client) *Model {
	return &Model{
		theme:    theme,
		cfg:      cfg,
		client:   client,
		collapse: tree.NewDashboardCollapseState(),
		limiter:  rate.NewLimiter(rate.Every(cfg.RefreshInterval()), 1),
		toasts:   components.NewToastManager(),
		keys:     DefaultKeyMap(),
	}
}

// Init loads the chat list and usage and starts the refresh tick. The
// toast tick chain is owned by the application model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadChats(),
		m.loadUsage(),
		m.refreshTick(),
	)
}

// Refresh reloads the chat list and usage without restarting tick chains.
// Used when the dashboard comes back into the foreground.
func (m *Model) Refresh() tea.Cmd {
	return tea.Batch(m.loadChats(), m.loadUsage())
}

// SetSize records the terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) loadChats() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		chats, err := client.ListChats(context.Background())
		return chatsMsg{chats: chats, err: err}
	}
}

func (m *Model) loadUsage() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		usage, err := client.TokenCount(context.Background())
		return usageMsg{usage: usage, err: err}
	}
}

func (m *Model) createChat() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		id, err := client.CreateChat(context.Background())
		return createdMsg{chatID: id, err: err}
	}
}

func (m *Model) deleteChat(chatID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteChat(context.Background(), chatID)
		return deletedMsg{chatID: chatID, err: err}
	}
}

func (m *Model) checkout(plan string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		url, err := client.CreateCheckoutSession(context.Background(), plan)
		return checkoutMsg{url: url, err: err}
	}
}

func (m *Model) portal() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		url, err := client.CreatePortalSession(context.Background())
		return checkoutMsg{url: url, err: err}
	}
}

func (m *Model) refreshTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles all Bubble Tea messages for the dashboard.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case refreshTickMsg:
		if m.limiter.Allow() {
			return m, tea.Batch(m.loadChats(), m.loadUsage(), m.refreshTick())
		}
		return m, m.refreshTick()

	case chatsMsg:
		if msg.err != nil {
			m.toasts.AddError("load chats: " + errText(msg.err))
			return m, nil
		}
		m.chats = msg.chats
		m.reflow()
		return m, nil

	case usageMsg:
		if msg.err != nil {
			m.toasts.AddError("load usage: " + errText(msg.err))
			return m, nil
		}
		m.usage = msg.usage
		return m, nil

	case createdMsg:
		if msg.err != nil {
			m.toasts.AddError("create chat: " + errText(msg.err))
			return m, nil
		}
		return m, func() tea.Msg { return OpenChatMsg{ChatID: msg.chatID} }

	case deletedMsg:
		if msg.err != nil {
			m.toasts.AddError("delete chat: " + errText(msg.err))
			return m, nil
		}
		m.toasts.AddSuccess("chat deleted")
		return m, m.loadChats()

	case checkoutMsg:
		if msg.err != nil {
			m.toasts.AddError("billing: " + errText(msg.err))
			return m, nil
		}
		m.billingURL = msg.url
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	// Confirmation mode swallows everything except y/esc.
	if m.pendingDelete != "" {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			id := m.pendingDelete
			m.pendingDelete = ""
			return m, m.deleteChat(id)
		case key.Matches(msg, m.keys.Cancel):
			m.pendingDelete = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.rows)-1 {
			m.selected++
		}

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.selectedRow(); ok && row.HasChildren {
			m.collapse.Toggle(row.Chat.ID)
			m.reflow()
		}

	case key.Matches(msg, m.keys.Open):
		if row, ok := m.selectedRow(); ok {
			id := row.Chat.ID
			return m, func() tea.Msg { return OpenChatMsg{ChatID: id} }
		}

	case key.Matches(msg, m.keys.NewChat):
		return m, m.createChat()

	case key.Matches(msg, m.keys.Delete):
		if row, ok := m.selectedRow(); ok {
			m.pendingDelete = row.Chat.ID
		}

	case key.Matches(msg, m.keys.Refresh):
		if m.limiter.Allow() {
			return m, tea.Batch(m.loadChats(), m.loadUsage())
		}
		m.toasts.AddStatus("refreshed a moment ago, hold on")

	case key.Matches(msg, m.keys.Subscribe):
		return m, m.checkout("pro")

	case key.Matches(msg, m.keys.Billing):
		return m, m.portal()
	}

	return m, nil
}

func (m *Model) reflow() {
	m.rows = tree.FlattenAll(m.chats, m.collapse)
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
