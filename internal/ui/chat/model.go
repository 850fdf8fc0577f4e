// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/config"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS
// =============================================================================

// focusArea tracks which region receives key input.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusViewport
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view: a sidebar with the
// branch tree, one or two transcript panes, and the input bar.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config

	client *api.Client
	events chan SessionEventMsg

	// Sessions. compare is nil outside compare mode.
	session *chatflow.Session
	compare *chatflow.Session

	// Per-pane routes.
	route        chatflow.Route
	compareRoute chatflow.Route

	// Sidebar state.
	chats       []model.Chat
	rootID      string
	collapse    *tree.CollapseState
	rows        []tree.Row
	selected    int
	pickCompare bool // next sidebar Enter picks the compare chat

	// Components.
	viewport        viewport.Model
	compareViewport viewport.Model
	input           textinput.Model
	spinner         spinner.Model
	toasts          *components.ToastManager
	markdown        *glamour.TermRenderer

	keys  KeyMap
	focus focusArea

	// In-flight send.
	streaming  bool
	cancelSend context.CancelFunc

	form *branchForm // nil when the branch overlay is closed

	width  int
	height int
}

// New builds a chat model bound to chatID. History and the sidebar load
// asynchronously from Init.
func New(theme *styles.Theme, cfg *config.Config, client *api.Client, chatID string) *Model {
	events := make(chan SessionEventMsg, 128)

	m := &Model{
		theme:    theme,
		cfg:      cfg,
		client:   client,
		events:   events,
		collapse: tree.NewSidebarCollapseState(),
		rootID:   chatID,
		toasts:   components.NewToastManager(),
		keys:     DefaultKeyMap(),
	}

	m.route = chatflow.Route{
		Provider: cfg.Chat.DefaultProvider,
		Model:    cfg.Chat.DefaultModel,
	}
	m.compareRoute = m.route

	m.session = chatflow.NewSession(client, chatID, m.sessionOptions())

	m.input = textinput.New()
	m.input.Placeholder = "Type a message..."
	m.input.CharLimit = 4000
	m.input.Focus()

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = theme.PendingMark

	m.viewport = viewport.New(0, 0)
	m.compareViewport = viewport.New(0, 0)

	if cfg.UI.Markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			m.markdown = renderer
		}
	}

	return m
}

// sessionOptions builds chatflow options from config, routing
// notifications onto the event channel. Notifications arrive from stream
// goroutines, so the push never blocks; a dropped event only delays a
// repaint until the next one.
func (m *Model) sessionOptions() chatflow.Options {
	events := m.events
	return chatflow.Options{
		TypingDelay: m.cfg.TypingDelay(),
		SingleStall: chatflow.ParseStallPolicy(m.cfg.Chat.SingleStall),
		DualStall:   chatflow.ParseStallPolicy(m.cfg.Chat.DualStall),
		Notify: func(e chatflow.Event) {
			select {
			case events <- SessionEventMsg{Event: e}:
			default:
			}
		},
	}
}

// Init loads the transcript and chat list and starts the event drain.
// The toast tick chain is owned by the application model.
func (m *Model) Init() tea.Cmd {
	ctx := context.Background()
	return tea.Batch(
		loadSessionCmd(ctx, m.session),
		loadChatsCmd(ctx, m.client),
		waitForSessionEvent(m.events),
		m.spinner.Tick,
	)
}

// SetSize lays the view out for the given terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	sidebar := sidebarWidth(width)
	paneWidth := width - sidebar
	if m.compare != nil {
		paneWidth = paneWidth / 2
	}
	// Borders eat two columns, input and status bars eat four rows.
	contentWidth := paneWidth - 2
	if contentWidth < 10 {
		contentWidth = 10
	}
	contentHeight := height - 6
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = contentHeight
	m.compareViewport.Width = contentWidth
	m.compareViewport.Height = contentHeight
	inputWidth := width - sidebar - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.refreshTranscripts()
}

// sidebarWidth reserves about a quarter of the screen, clamped.
func sidebarWidth(total int) int {
	w := total / 4
	if w < 20 {
		w = 20
	}
	if w > 36 {
		w = 36
	}
	if w >= total {
		w = total / 2
	}
	return w
}

// CompareActive reports whether the split compare pane is open.
func (m *Model) CompareActive() bool {
	return m.compare != nil
}
