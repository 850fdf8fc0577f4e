// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatflow

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// DUAL SEND
// =============================================================================

// Route names the provider and model for one leg of a send.
type Route struct {
	Provider string
	Model    string
}

// SendBoth posts the same text to two chats at once, streaming each reply
// into its own session. The legs are independent: distinct temp assistant
// placeholders, distinct transcripts, concurrent streams. A failure on
// either leg cancels the other, and each interrupted leg applies its
// session's DualStall policy, which by default drops the empty assistant
// bubble but keeps the shared user message.
func SendBoth(ctx context.Context, text string, main, compare *Session, mainRoute, compareRoute Route) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return main.send(ctx, text, mainRoute.Provider, mainRoute.Model,
			model.NewTempAssistantMessage("main", mainRoute.Model), main.opts.DualStall)
	})
	g.Go(func() error {
		return compare.send(ctx, text, compareRoute.Provider, compareRoute.Model,
			model.NewTempAssistantMessage("compare", compareRoute.Model), compare.opts.DualStall)
	})
	return g.Wait()
}
