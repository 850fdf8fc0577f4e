// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
	"github.com/stemma-labs/stemma-tui/internal/util"
)

// View renders the full chat screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	sidebar := m.renderSidebar()
	panes := m.renderPanes()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, panes)

	inputBox := m.theme.InputContainer
	if m.focus == focusInput {
		inputBox = m.theme.InputFocused
	}
	input := inputBox.Width(m.width - 2).Render(m.input.View())

	screen := lipgloss.JoinVertical(lipgloss.Left,
		body,
		input,
		m.renderStatusBar(),
	)

	if m.form != nil {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.form.view(m.theme))
	}
	if m.toasts.HasToasts() {
		overlay := components.RenderToastStack(m.toasts.Toasts(), m.width, m.height)
		if overlay != "" {
			return screen + "\n" + overlay
		}
	}
	return screen
}

// =============================================================================
// PANES
// =============================================================================

// refreshTranscripts re-renders both panes from session state. Called
// from the update loop so GotoBottom sees the new content height.
func (m *Model) refreshTranscripts() {
	m.viewport.SetContent(m.transcript(m.session))
	if m.compare != nil {
		m.compareViewport.SetContent(m.transcript(m.compare))
	}
}

func (m *Model) renderPanes() string {
	border := m.theme.PaneBorder
	if m.focus == focusViewport {
		border = m.theme.PaneFocused
	}
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.PaneTitle.Render(m.paneTitle(m.session, m.route)),
		border.Render(m.viewport.View()),
	)
	if m.compare == nil {
		return main
	}

	comparePane := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.CompareBanner.Render(m.paneTitle(m.compare, m.compareRoute)),
		m.theme.PaneBorder.Render(m.compareViewport.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, main, comparePane)
}

func (m *Model) paneTitle(s *chatflow.Session, route chatflow.Route) string {
	name := s.ChatID()
	if chat := model.FindChat(m.chats, s.ChatID()); chat != nil {
		name = chat.DisplayName()
	}
	return util.TruncateWidth(name, 30) + "  " + route.Model
}

// transcript renders a session's messages as stacked bubbles.
func (m *Model) transcript(s *chatflow.Session) string {
	width := m.viewport.Width
	var blocks []string
	for _, msg := range s.Messages() {
		blocks = append(blocks, renderMessage(m.theme, m.markdown, msg, width))
	}
	if s.Typing() {
		blocks = append(blocks, m.spinner.View()+m.theme.MutedText.Render(" thinking..."))
	}
	return strings.Join(blocks, "\n")
}

// renderMessage renders one message bubble. Assistant content goes
// through glamour when markdown rendering is on; user content never
// does, what the user typed is what they see.
func renderMessage(theme *styles.Theme, markdown *glamour.TermRenderer, msg model.Message, width int) string {
	bubbleWidth := width - 8
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	label := theme.BubbleLabel.Render(msg.Role.DisplayName())
	if msg.IsPending() {
		label += theme.PendingMark.Render(" *")
	}

	content := msg.Content
	style := theme.UserBubble
	if msg.Role == model.RoleAssistant {
		style = theme.AssistantBubble
		if markdown != nil && content != "" {
			if rendered, err := markdown.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
	}
	if content == "" {
		content = theme.MutedText.Render("...")
	}

	bubble := style.MaxWidth(bubbleWidth).Render(content)
	return label + "\n" + bubble
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) renderSidebar() string {
	width := sidebarWidth(m.width)
	height := m.height - 4
	if height < 3 {
		height = 3
	}

	title := m.theme.SidebarTitle.Render("Branches")
	if m.pickCompare {
		title = m.theme.TreeRowCompare.Render("Pick compare chat")
	}

	lines := []string{title, ""}
	for i, row := range m.rows {
		lines = append(lines, m.renderTreeRow(row, i == m.selected, width-4))
	}

	body := strings.Join(lines, "\n")
	return m.theme.Sidebar.Width(width - 1).Height(height).Render(body)
}

func (m *Model) renderTreeRow(row tree.Row, selected bool, width int) string {
	line := treeRowText(row, m.session.ChatID(), m.compareChatID(), width)
	switch {
	case selected && m.focus == focusSidebar:
		return m.theme.TreeRowSelected.Render(line)
	case row.Chat.ID == m.compareChatID():
		return m.theme.TreeRowCompare.Render(line)
	default:
		return m.theme.TreeRow.Render(line)
	}
}

func (m *Model) compareChatID() string {
	if m.compare == nil {
		return ""
	}
	return m.compare.ChatID()
}

// treeRowText builds the plain text for one sidebar row: indentation,
// a collapse marker for parents, and the chat name with open/compare tags.
func treeRowText(row tree.Row, openID, compareID string, width int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", row.Depth))

	switch {
	case !row.HasChildren:
		b.WriteString("  ")
	case row.Expanded:
		b.WriteString("v ")
	default:
		b.WriteString("> ")
	}

	name := row.Chat.DisplayName()
	switch row.Chat.ID {
	case openID:
		name += " (open)"
	case compareID:
		name += " (compare)"
	}
	b.WriteString(name)

	return util.TruncateWidth(b.String(), width)
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m *Model) renderStatusBar() string {
	left := m.route.Model
	if m.compare != nil {
		left += " | compare: " + m.compareRoute.Model
	}
	if m.streaming {
		left += "  " + m.spinner.View() + "streaming"
	}

	help := "tab focus  ctrl+b branch  ctrl+o compare  ctrl+t model  ctrl+d dashboard"
	if m.compare != nil {
		help = "ctrl+s send both  esc close compare  " + help
	}

	gap := m.width - util.StringWidth(left) - util.StringWidth(help) - 4
	if gap < 1 {
		return m.theme.StatusBar.Width(m.width).Render(left)
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + help)
}
