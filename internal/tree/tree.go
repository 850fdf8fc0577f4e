// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tree turns the flat chat list into branch hierarchies. Each tree
// is rooted at a chat with no ancestor; every other node names its parent
// through BranchOf and its tree through AncestorID.
package tree

import (
	"errors"
	"fmt"

	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCycle means a BranchOf chain loops back on itself. This is corrupt
	// backend data, not a state the client can render.
	ErrCycle = errors.New("cyclic branch chain")

	// ErrOrphan means a BranchOf chain names a parent that is not in the
	// chat set.
	ErrOrphan = errors.New("branch parent not found")

	// ErrNotFound means the target chat is not in the chat set.
	ErrNotFound = errors.New("chat not found")
)

// =============================================================================
// TREE QUERIES
// =============================================================================

// Resolve walks the BranchOf chain from the target chat to its tree root
// and returns the root's ID. The root is the chat whose AncestorID is
// empty. A dangling parent reference yields ErrOrphan; a loop yields
// ErrCycle instead of spinning.
func Resolve(chats []model.Chat, targetID string) (string, error) {
	byID := make(map[string]*model.Chat, len(chats))
	for i := range chats {
		byID[chats[i].ID] = &chats[i]
	}

	current, ok := byID[targetID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	seen := map[string]bool{current.ID: true}
	for current.BranchOf != "" {
		parent, ok := byID[current.BranchOf]
		if !ok {
			return "", fmt.Errorf("%w: %s points at %s", ErrOrphan, current.ID, current.BranchOf)
		}
		if seen[parent.ID] {
			return "", fmt.Errorf("%w: via %s", ErrCycle, parent.ID)
		}
		seen[parent.ID] = true
		current = parent
	}

	if current.AncestorID != "" && current.AncestorID != current.ID {
		return "", fmt.Errorf("%w: root %s claims ancestor %s", ErrOrphan, current.ID, current.AncestorID)
	}
	return current.ID, nil
}

// Children returns, in insertion order, the chats branched directly off
// parentID within the tree identified by rootID.
func Children(chats []model.Chat, parentID, rootID string) []model.Chat {
	var out []model.Chat
	for _, c := range chats {
		if c.BranchOf == parentID && c.AncestorID == rootID {
			out = append(out, c)
		}
	}
	return out
}

// Roots returns the top-level chats in insertion order. These are the
// dashboard's first tier; branches hang off them.
func Roots(chats []model.Chat) []model.Chat {
	var out []model.Chat
	for _, c := range chats {
		if c.BranchOf == "" {
			out = append(out, c)
		}
	}
	return out
}

// Depth returns how many BranchOf hops separate the chat from its root, or
// an error for the same corrupt shapes Resolve rejects.
func Depth(chats []model.Chat, targetID string) (int, error) {
	byID := make(map[string]*model.Chat, len(chats))
	for i := range chats {
		byID[chats[i].ID] = &chats[i]
	}

	current, ok := byID[targetID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, targetID)
	}

	depth := 0
	seen := map[string]bool{current.ID: true}
	for current.BranchOf != "" {
		parent, ok := byID[current.BranchOf]
		if !ok {
			return 0, fmt.Errorf("%w: %s points at %s", ErrOrphan, current.ID, current.BranchOf)
		}
		if seen[parent.ID] {
			return 0, fmt.Errorf("%w: via %s", ErrCycle, parent.ID)
		}
		seen[parent.ID] = true
		current = parent
		depth++
	}
	return depth, nil
}
