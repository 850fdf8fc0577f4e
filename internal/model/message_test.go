// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestNewPendingUserMessage(t *testing.T) {
	m := NewPendingUserMessage("hello")

	if !strings.HasPrefix(m.ID, UserPlaceholderPrefix) {
		t.Errorf("ID = %q, want %q prefix", m.ID, UserPlaceholderPrefix)
	}
	if m.Role != RoleUser {
		t.Errorf("Role = %q, want %q", m.Role, RoleUser)
	}
	if m.Content != "hello" {
		t.Errorf("Content = %q, want %q", m.Content, "hello")
	}
	if !m.IsPending() {
		t.Error("expected new message to be pending")
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewPendingAssistantMessage(t *testing.T) {
	m := NewPendingAssistantMessage("gpt-4o-mini")

	if !strings.HasPrefix(m.ID, AssistantPlaceholderPrefix) {
		t.Errorf("ID = %q, want %q prefix", m.ID, AssistantPlaceholderPrefix)
	}
	if m.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", m.Role, RoleAssistant)
	}
	if !m.IsEmpty() {
		t.Error("expected assistant placeholder to start empty")
	}
	if m.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want %q", m.Model, "gpt-4o-mini")
	}
}

func TestNewTempAssistantMessage(t *testing.T) {
	m := NewTempAssistantMessage("left", "gemini-2.0-flash")

	if !strings.HasPrefix(m.ID, TempPlaceholderPrefix+"left-") {
		t.Errorf("ID = %q, want %q prefix", m.ID, TempPlaceholderPrefix+"left-")
	}
	if m.Role != RoleAssistant {
		t.Errorf("Role = %q, want %q", m.Role, RoleAssistant)
	}
	if !m.IsPending() {
		t.Error("expected temp placeholder to be pending")
	}
}

func TestPlaceholderIDsAreUnique(t *testing.T) {
	a := NewPendingUserMessage("x")
	b := NewPendingUserMessage("x")
	if a.ID == b.ID {
		t.Errorf("two placeholders share ID %q", a.ID)
	}
}

func TestSettle(t *testing.T) {
	m := NewPendingAssistantMessage("gpt-4o")
	m.Settle("srv-123")

	if m.ID != "srv-123" {
		t.Errorf("ID = %q, want %q", m.ID, "srv-123")
	}
	if m.IsPending() {
		t.Error("expected settled message to not be pending")
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxRunes int
		want     string
	}{
		{"short unchanged", "hi there", 20, "hi there"},
		{"exact fit", "12345", 5, "12345"},
		{"truncated", "hello world out there", 10, "hello w..."},
		{"newlines flattened", "line one\nline two", 20, "line one line two"},
		{"multibyte safe", "héllo wörld exträ länge", 10, "héllo w..."},
		{"tiny budget", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Message{Content: tt.content}
			got := m.Preview(tt.maxRunes)
			if got != tt.want {
				t.Errorf("Preview(%d) = %q, want %q", tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{Role("system"), "system"},
	}

	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestMessageStateString(t *testing.T) {
	tests := []struct {
		state MessageState
		want  string
	}{
		{MessagePending, "pending"},
		{MessageSettled, "settled"},
		{MessageState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
