// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/ui/styles"
)

// =============================================================================
// BRANCH FORM
// =============================================================================

// branchField indexes the focusable fields of the branch form.
type branchField int

const (
	fieldName branchField = iota
	fieldTags
	fieldModel
	fieldCount
)

// branchForm is the overlay for forking a chat off a message.
type branchForm struct {
	origin model.Chat   // chat the origin message lives in
	msg    model.Message // message being branched from

	name  textinput.Model
	tags  textinput.Model
	route chatflow.Route

	focus branchField
}

func newBranchForm(origin model.Chat, msg model.Message, route chatflow.Route) *branchForm {
	name := textinput.New()
	name.Placeholder = "branch name"
	name.CharLimit = 80
	name.Focus()

	tags := textinput.New()
	tags.Placeholder = "tags, comma separated"
	tags.CharLimit = 120

	return &branchForm{
		origin: origin,
		msg:    msg,
		name:   name,
		tags:   tags,
		route:  route,
	}
}

// nextField moves focus to the next form field.
func (f *branchForm) nextField() {
	f.focus = (f.focus + 1) % fieldCount
	f.name.Blur()
	f.tags.Blur()
	switch f.focus {
	case fieldName:
		f.name.Focus()
	case fieldTags:
		f.tags.Focus()
	}
}

// cycleModel advances the route through the full model catalog.
func (f *branchForm) cycleModel() {
	f.route = nextRoute(f.route)
}

// update feeds a key to the focused text field.
func (f *branchForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldTags:
		f.tags, cmd = f.tags.Update(msg)
	}
	return cmd
}

// request builds the branch request from the form's current values.
func (f *branchForm) request() chatflow.BranchRequest {
	return chatflow.BranchRequest{
		ChatID: f.origin.ID,
		Origin: f.msg,
		Name:   strings.TrimSpace(f.name.Value()),
		Tags:   splitTags(f.tags.Value()),
		Route:  f.route,
	}
}

// view renders the form box.
func (f *branchForm) view(theme *styles.Theme) string {
	label := theme.FormLabel
	muted := theme.MutedText

	modelLine := f.route.Model
	if f.focus == fieldModel {
		modelLine = "< " + modelLine + " >"
	}

	rows := []string{
		theme.Title.Render("Branch from message"),
		muted.Render(f.msg.Preview(60)),
		"",
		label.Render("Name") + "  " + f.name.View(),
		label.Render("Tags") + "  " + f.tags.View(),
		label.Render("Model") + " " + modelLine,
		"",
		muted.Render("tab next field  ctrl+t cycle model  enter create  esc close"),
	}
	return theme.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// =============================================================================
// HELPERS
// =============================================================================

// splitTags parses a comma separated tag list, dropping empties.
func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// nextRoute returns the route after r in the flattened provider catalog,
// wrapping to the first model of the first provider at the end.
func nextRoute(r chatflow.Route) chatflow.Route {
	var all []chatflow.Route
	for _, p := range model.Providers() {
		for _, m := range model.ModelsFor(p) {
			all = append(all, chatflow.Route{Provider: string(p), Model: m})
		}
	}
	if len(all) == 0 {
		return r
	}
	for i, candidate := range all {
		if candidate.Model == r.Model {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}
