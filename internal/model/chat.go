// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat is one conversation record as reported by the backend.
//
// AncestorID names the root conversation of the tree this chat belongs to;
// it is empty for the root itself. BranchOf names the immediate parent chat,
// empty for roots. Following BranchOf transitively from any chat must end at
// a chat with an empty AncestorID; the tree package enforces that.
type Chat struct {
	ID         string    `json:"id"`
	AncestorID string    `json:"ancestorId,omitempty"`
	BranchOf   string    `json:"branch_of,omitempty"`
	Name       string    `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// IsRoot reports whether the chat is a top-level conversation.
func (c *Chat) IsRoot() bool {
	return c.BranchOf == ""
}

// DisplayName returns the chat's name, falling back to a shortened ID.
func (c *Chat) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

// FindChat returns the chat with the given ID, or nil.
func FindChat(chats []Chat, id string) *Chat {
	for i := range chats {
		if chats[i].ID == id {
			return &chats[i]
		}
	}
	return nil
}
