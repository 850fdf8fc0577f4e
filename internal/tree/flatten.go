// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tree

import "github.com/stemma-labs/stemma-tui/internal/model"

// =============================================================================
// FLATTENING
// =============================================================================

// Row is one visible line of a flattened chat tree.
type Row struct {
	Chat        model.Chat
	Depth       int
	HasChildren bool
	Expanded    bool
}

// Flatten walks the family rooted at rootID depth-first and returns the
// rows a view should draw. Children of a collapsed chat are skipped.
// Resolve rejects cyclic chat lists up front, but a visited set still
// guards the walk so corrupt data terminates instead of recursing.
func Flatten(chats []model.Chat, rootID string, cs *CollapseState) []Row {
	root := model.FindChat(chats, rootID)
	if root == nil {
		return nil
	}
	var rows []Row
	appendSubtree(&rows, chats, *root, rootID, 0, cs, map[string]bool{})
	return rows
}

// FlattenAll flattens every family in the list, roots in insertion order.
func FlattenAll(chats []model.Chat, cs *CollapseState) []Row {
	var rows []Row
	seen := map[string]bool{}
	for _, root := range Roots(chats) {
		appendSubtree(&rows, chats, root, root.ID, 0, cs, seen)
	}
	return rows
}

func appendSubtree(rows *[]Row, chats []model.Chat, chat model.Chat, rootID string, depth int, cs *CollapseState, seen map[string]bool) {
	if seen[chat.ID] {
		return
	}
	seen[chat.ID] = true
	children := Children(chats, chat.ID, rootID)
	expanded := cs.Expanded(chat.ID)
	*rows = append(*rows, Row{
		Chat:        chat,
		Depth:       depth,
		HasChildren: len(children) > 0,
		Expanded:    expanded,
	})
	if !expanded {
		return
	}
	for _, child := range children {
		appendSubtree(rows, chats, child, rootID, depth+1, cs, seen)
	}
}
