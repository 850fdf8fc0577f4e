// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds all the pre-built Lip Gloss styles for the application.
// Styles are computed once at startup and on terminal resize.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Dimensions (updated on resize)
	Width  int
	Height int

	// ============================== Chrome ==============================
	Title     lipgloss.Style
	StatusBar lipgloss.Style
	Help      lipgloss.Style

	// ============================ Message bubbles =======================
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	BubbleLabel     lipgloss.Style
	PendingMark     lipgloss.Style

	// =============================== Input ==============================
	InputContainer lipgloss.Style
	InputFocused   lipgloss.Style
	Prompt         lipgloss.Style

	// ============================== Sidebar =============================
	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	TreeRow         lipgloss.Style
	TreeRowSelected lipgloss.Style
	TreeRowCompare  lipgloss.Style

	// ============================== Panes ===============================
	PaneBorder    lipgloss.Style
	PaneFocused   lipgloss.Style
	PaneTitle     lipgloss.Style
	CompareBanner lipgloss.Style

	// ============================= Dashboard ============================
	UsageMeter  lipgloss.Style
	UsageLabel  lipgloss.Style
	PlanBadge   lipgloss.Style
	FormBox     lipgloss.Style
	FormLabel   lipgloss.Style
	DangerText  lipgloss.Style
	SuccessText lipgloss.Style
	MutedText   lipgloss.Style
}

// NewTheme detects terminal capabilities and builds the style set.
// An empty override uses the terminal's reported background; "dark" or
// "light" forces the adaptive palette one way.
func NewTheme(override string) *Theme {
	t := &Theme{
		ColorProfile: termenv.ColorProfile(),
		HasTrueColor: termenv.ColorProfile() == termenv.TrueColor,
		IsDark:       termenv.HasDarkBackground(),
	}

	switch override {
	case "dark":
		t.IsDark = true
	case "light":
		t.IsDark = false
	}
	lipgloss.SetHasDarkBackground(t.IsDark)

	t.initStyles()
	return t
}

// SetSize records the terminal dimensions for layout math.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

func (t *Theme) initStyles() {
	// Chrome
	t.Title = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		Padding(0, 1)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.BubbleLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.PendingMark = lipgloss.NewStyle().
		Foreground(Amber)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputFocused = t.InputContainer.
		BorderForeground(FocusRing)

	t.Prompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.TreeRow = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.TreeRowSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.TreeRowCompare = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Panes
	t.PaneBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.PaneFocused = t.PaneBorder.
		BorderForeground(FocusRing)

	t.PaneTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		Padding(0, 1)

	t.CompareBanner = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Cyan).
		Bold(true).
		Padding(0, 1)

	// Dashboard
	t.UsageMeter = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.UsageLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.PlanBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 1)

	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	t.DangerText = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Emerald)

	t.MutedText = lipgloss.NewStyle().
		Foreground(TextMuted)
}
