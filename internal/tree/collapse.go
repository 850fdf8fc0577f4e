// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tree

// =============================================================================
// COLLAPSE STATE
// =============================================================================

// CollapseState tracks which nodes have their children hidden. Nodes the
// user has never toggled take the context default: the dashboard starts
// everything collapsed so long chat lists stay scannable, the chat sidebar
// starts everything expanded so the current branch is visible.
type CollapseState struct {
	defaultExpanded bool
	toggled         map[string]bool
}

// NewCollapseState creates a collapse tracker. defaultExpanded selects the
// untouched-node behavior for the hosting view.
func NewCollapseState(defaultExpanded bool) *CollapseState {
	return &CollapseState{
		defaultExpanded: defaultExpanded,
		toggled:         make(map[string]bool),
	}
}

// NewDashboardCollapseState returns the dashboard default, collapsed.
func NewDashboardCollapseState() *CollapseState {
	return NewCollapseState(false)
}

// NewSidebarCollapseState returns the chat sidebar default, expanded.
func NewSidebarCollapseState() *CollapseState {
	return NewCollapseState(true)
}

// Expanded reports whether a node's children are shown.
func (s *CollapseState) Expanded(chatID string) bool {
	if flipped, ok := s.toggled[chatID]; ok {
		return s.defaultExpanded != flipped
	}
	return s.defaultExpanded
}

// Toggle flips the collapse state of a node.
func (s *CollapseState) Toggle(chatID string) {
	if s.toggled[chatID] {
		delete(s.toggled, chatID)
		return
	}
	s.toggled[chatID] = true
}

// Reset forgets every toggle, restoring the context default everywhere.
func (s *CollapseState) Reset() {
	s.toggled = make(map[string]bool)
}
