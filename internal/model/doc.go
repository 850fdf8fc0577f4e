// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by every view of the
// client: chats, messages, the optimistic message lifecycle, and the static
// provider/model catalog.
//
// A Message starts its life as a local placeholder (MessagePending) the
// moment the user hits send, and is settled (MessageSettled) once the
// backend has persisted it and assigned a durable identifier. The
// MessageList type owns that reconciliation.
package model
