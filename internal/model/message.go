// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE STATE
// =============================================================================

// MessageState tracks where a message sits in the optimistic lifecycle.
// A pending message carries a locally generated placeholder ID; a settled
// message carries the identifier the backend assigned after persistence.
type MessageState int

const (
	// MessagePending means the message exists only in local state, with a
	// placeholder ID, possibly still receiving streamed content.
	MessagePending MessageState = iota

	// MessageSettled means the backend has persisted the message and its ID
	// is authoritative.
	MessageSettled
)

// String returns the state name for logging and test failures.
func (s MessageState) String() string {
	switch s {
	case MessagePending:
		return "pending"
	case MessageSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Placeholder ID prefixes. The backend never issues IDs with these prefixes,
// so they double as a wire-compatible marker for optimistic entries created
// before persistence completes.
const (
	UserPlaceholderPrefix      = "user-"
	AssistantPlaceholderPrefix = "assistant-"
	TempPlaceholderPrefix      = "temp-"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a chat.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	Model     string    `json:"model,omitempty"`

	// State is local bookkeeping, never sent to the backend.
	State MessageState `json:"-"`
}

// NewPendingUserMessage creates an optimistic user message with a
// placeholder ID and the current timestamp.
func NewPendingUserMessage(content string) Message {
	return Message{
		ID:        UserPlaceholderPrefix + uuid.NewString(),
		Content:   content,
		Role:      RoleUser,
		CreatedAt: time.Now(),
		State:     MessagePending,
	}
}

// NewPendingAssistantMessage creates an optimistic, initially empty
// assistant message that will be filled in as the reply streams.
func NewPendingAssistantMessage(model string) Message {
	return Message{
		ID:        AssistantPlaceholderPrefix + uuid.NewString(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		Model:     model,
		State:     MessagePending,
	}
}

// NewTempAssistantMessage creates an optimistic assistant message with a
// temp-prefixed ID. The dual-send path uses these so that each leg's
// placeholder is distinguishable from the single-send kind.
func NewTempAssistantMessage(tag, model string) Message {
	return Message{
		ID:        TempPlaceholderPrefix + tag + "-" + uuid.NewString(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
		Model:     model,
		State:     MessagePending,
	}
}

// IsPending reports whether the message is still an optimistic placeholder.
func (m *Message) IsPending() bool {
	return m.State == MessagePending
}

// Settle replaces the placeholder ID with the authoritative one.
func (m *Message) Settle(id string) {
	m.ID = id
	m.State = MessageSettled
}

// Preview returns a single-line, rune-safe truncation of the content.
func (m *Message) Preview(maxRunes int) string {
	content := strings.ReplaceAll(m.Content, "\n", " ")
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}
