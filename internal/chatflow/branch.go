// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatflow

import (
	"context"
	"fmt"

	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// BRANCH AND CONTINUE
// =============================================================================

// BranchRequest describes a branch-from operation.
type BranchRequest struct {
	ChatID string        // chat the origin message lives in
	Origin model.Message // message the branch forks from
	Name   string
	Tags   []string
	Route  Route // provider/model for the re-send, user-role origins only
}

// CreateBranch forks a new chat off an existing message and returns a
// session bound to it, already preloaded.
//
// The backend copies the history up to the fork point. The new session's
// transcript is that history plus an optimistic clone of the origin
// message. When the origin is a user message its content is re-sent into
// the new chat through the normal streaming path, so the branch opens with
// a fresh reply from the requested model; assistant-origin branches open
// as-is.
func CreateBranch(ctx context.Context, backend Backend, req BranchRequest, opts Options) (*Session, error) {
	newChatID, err := backend.BranchFrom(ctx, req.ChatID, req.Origin.ID, req.Name, req.Tags)
	if err != nil {
		return nil, fmt.Errorf("branch from %s: %w", req.Origin.ID, err)
	}

	session := NewSession(backend, newChatID, opts)

	history, err := backend.ListMessages(ctx, newChatID)
	if err != nil {
		return nil, fmt.Errorf("load branched chat %s: %w", newChatID, err)
	}

	if req.Origin.Role != model.RoleUser {
		session.Preload(history)
		return session, nil
	}

	// User-origin branch: show the forked question optimistically, then
	// stream its answer into the new chat.
	clone := model.NewPendingUserMessage(req.Origin.Content)
	session.Preload(append(history, clone))

	// The preload already placed the cloned question, so the exchange goes
	// through streamInto directly rather than send, which would append a
	// second user message.
	assistant := model.NewPendingAssistantMessage(req.Route.Model)
	if err := session.streamInto(ctx, req.Origin.Content, req.Route.Provider, req.Route.Model, assistant); err != nil {
		return session, err
	}
	return session, nil
}
