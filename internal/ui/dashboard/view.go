// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
	"github.com/stemma-labs/stemma-tui/internal/util"
)

// planQuotas maps plan names to their monthly token allowance, mirroring
// the backend's limits. Unknown plans render without a meter.
var planQuotas = map[string]int{
	"free": 100_000,
	"pro":  2_000_000,
}

// meterWidth is the character width of the usage bar.
const meterWidth = 24

// View renders the dashboard screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	sections := []string{
		m.theme.Title.Render("stemma"),
		m.renderUsage(),
		"",
		m.renderTree(),
		"",
		m.renderFooter(),
	}
	screen := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.pendingDelete != "" {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			m.renderDeleteConfirm())
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
// USAGE
// =============================================================================

func (m *Model) renderUsage() string {
	if m.usage == nil {
		return m.theme.UsageLabel.Render("usage: loading...")
	}

	line := m.theme.PlanBadge.Render(m.usage.Plan) + " " +
		m.theme.UsageLabel.Render("tokens used: ") +
		m.theme.UsageMeter.Render(util.FormatCount(m.usage.TokenCount))

	if bar := usageBar(m.usage, meterWidth); bar != "" {
		line += "  " + m.theme.UsageLabel.Render(bar)
	}

	if m.billingURL != "" {
		line += "\n" + m.theme.UsageLabel.Render("open in browser: ") + m.billingURL
	}
	return line
}

// usageBar renders a [####----] meter against the plan quota, or ""
// when the plan has no known quota.
func usageBar(usage *api.TokenUsage, width int) string {
	quota, ok := planQuotas[usage.Plan]
	if !ok || quota <= 0 || width <= 0 {
		return ""
	}
	filled := usage.TokenCount * width / quota
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// =============================================================================
// TREE
// =============================================================================

func (m *Model) renderTree() string {
	if len(m.rows) == 0 {
		return m.theme.MutedText.Render("no chats yet, press n to start one")
	}

	width := m.width - 4
	lines := make([]string, 0, len(m.rows))
	for i, row := range m.rows {
		line := dashboardRowText(row, width)
		if i == m.selected {
			lines = append(lines, m.theme.TreeRowSelected.Render(line))
		} else {
			lines = append(lines, m.theme.TreeRow.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// dashboardRowText builds one tree line: marker, name, and a branch
// count for collapsed parents.
func dashboardRowText(row tree.Row, width int) string {
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
	b.WriteString(row.Chat.DisplayName())
	return util.TruncateWidth(b.String(), width)
}

// =============================================================================
// FOOTER AND OVERLAYS
// =============================================================================

func (m *Model) renderFooter() string {
	help := "enter open  n new  d delete  space fold  r refresh  s subscribe  b billing  q quit"
	return m.theme.Help.Render(help)
}

func (m *Model) renderDeleteConfirm() string {
	name := m.pendingDelete
	if chat := model.FindChat(m.chats, m.pendingDelete); chat != nil {
		name = chat.DisplayName()
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.DangerText.Render("Delete chat?"),
		m.theme.MutedText.Render(util.TruncateWidth(name, 40)),
		"",
		m.theme.MutedText.Render("y delete  esc keep"),
	)
	return m.theme.FormBox.BorderForeground(m.theme.DangerText.GetForeground()).Render(body)
}
