// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Stemma chat backend.
//
// The backend owns all persistent state: chats, their branch relationships,
// message history, token accounting, and billing. This package exposes one
// method per backend endpoint, authenticates every request with a bearer
// token from a TokenSource, and reads assistant replies as a raw text
// stream with a callback per chunk.
//
// Callers that render views should treat ErrNoToken as "not signed in yet"
// and show an empty state rather than an error.
package api
