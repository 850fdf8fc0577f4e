// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatflow reconciles optimistic local messages with the backend's
// authoritative records. A send appends placeholder entries immediately,
// streams the reply into them, then swaps in the server-assigned IDs once
// the exchange is persisted.
package chatflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// BACKEND CONTRACT
// =============================================================================

// Backend is the slice of the API client the reconciler needs.
type Backend interface {
	SendMessage(ctx context.Context, chatID, content, provider, modelName string, callback api.StreamCallback) (string, error)
	ListMessages(ctx context.Context, chatID string) ([]model.Message, error)
	BranchFrom(ctx context.Context, chatID, messageID, name string, tags []string) (string, error)
}

// =============================================================================
// EVENTS AND POLICY
// =============================================================================

// Event tells the view layer why the session changed.
type Event int

const (
	// EventChunk means assistant content grew; views scroll to bottom.
	EventChunk Event = iota

	// EventTyping means the typing flag flipped.
	EventTyping

	// EventSettled means placeholders adopted authoritative IDs.
	EventSettled
)

// StallPolicy decides what happens to pending placeholders when a send
// fails mid-flight.
type StallPolicy int

const (
	// StallDefault resolves to the per-path default: StallKeep for single
	// sends, StallRemoveAssistant for dual sends.
	StallDefault StallPolicy = iota

	// StallKeep leaves every placeholder in place, frozen with whatever
	// content arrived. The single-chat send default.
	StallKeep

	// StallRemoveAssistant drops the pending assistant placeholder but
	// keeps the user message. The dual-send default, so a half-failed
	// compare does not show an abandoned empty bubble.
	StallRemoveAssistant

	// StallRemoveAll drops both placeholders.
	StallRemoveAll
)

// ParseStallPolicy maps a configuration name to a policy. Unknown names
// resolve to StallDefault.
func ParseStallPolicy(name string) StallPolicy {
	switch name {
	case "keep":
		return StallKeep
	case "remove-assistant":
		return StallRemoveAssistant
	case "remove-all":
		return StallRemoveAll
	default:
		return StallDefault
	}
}

// Options tunes a session. The zero value gets defaults filled in.
type Options struct {
	// TypingDelay is the cosmetic pause before the empty assistant bubble
	// appears (default: 500ms).
	TypingDelay time.Duration

	// SingleStall applies when a plain Send fails (default: StallKeep).
	SingleStall StallPolicy

	// DualStall applies when either leg of a SendBoth fails
	// (default: StallRemoveAssistant).
	DualStall StallPolicy

	// Notify receives change events. May be nil. Called without the
	// session lock held; implementations must not call back into the
	// session synchronously from another goroutine's critical section.
	Notify func(Event)
}

func (o Options) withDefaults() Options {
	if o.TypingDelay == 0 {
		o.TypingDelay = 500 * time.Millisecond
	}
	if o.SingleStall == StallDefault {
		o.SingleStall = StallKeep
	}
	if o.DualStall == StallDefault {
		o.DualStall = StallRemoveAssistant
	}
	return o
}

// =============================================================================
// SESSION
// =============================================================================

// Session binds one chat to one message list and drives sends against it.
// It is safe for concurrent use; the dual-send path runs two sessions from
// separate goroutines.
type Session struct {
	chatID  string
	backend Backend
	opts    Options

	mu     sync.Mutex
	list   *model.MessageList
	typing bool
}

// NewSession creates a session for a chat with an empty transcript.
func NewSession(backend Backend, chatID string, opts Options) *Session {
	return &Session{
		chatID:  chatID,
		backend: backend,
		opts:    opts.withDefaults(),
		list:    model.NewMessageList(nil),
	}
}

// ChatID returns the bound chat's ID.
func (s *Session) ChatID() string {
	return s.chatID
}

// Messages returns a copy of the current transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.All()
}

// Typing reports whether a reply is in flight.
func (s *Session) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// Preload replaces the transcript, normally with a fresh ListMessages
// result.
func (s *Session) Preload(messages []model.Message) {
	s.mu.Lock()
	s.list.Replace(messages)
	s.mu.Unlock()
	s.notify(EventChunk)
}

// Load fetches the authoritative transcript and installs it.
func (s *Session) Load(ctx context.Context) error {
	messages, err := s.backend.ListMessages(ctx, s.chatID)
	if err != nil {
		return err
	}
	s.Preload(messages)
	return nil
}

func (s *Session) notify(e Event) {
	if s.opts.Notify != nil {
		s.opts.Notify(e)
	}
}

func (s *Session) setTyping(v bool) {
	s.mu.Lock()
	changed := s.typing != v
	s.typing = v
	s.mu.Unlock()
	if changed {
		s.notify(EventTyping)
	}
}

// Send posts text to the chat and streams the reply into an optimistic
// assistant message. Blank input is a no-op. On success the pending pair is
// settled against the authoritative transcript; on failure the session's
// SingleStall policy decides what survives.
func (s *Session) Send(ctx context.Context, text, provider, modelName string) error {
	return s.send(ctx, text, provider, modelName,
		model.NewPendingAssistantMessage(modelName), s.opts.SingleStall)
}

// send is the shared body of Send and the dual-send legs. The assistant
// placeholder and stall policy vary per caller.
func (s *Session) send(ctx context.Context, text, provider, modelName string, assistant model.Message, stall StallPolicy) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	user := model.NewPendingUserMessage(text)
	s.mu.Lock()
	s.list.Append(user)
	s.mu.Unlock()
	s.notify(EventChunk)

	err := s.streamInto(ctx, text, provider, modelName, assistant)
	if err != nil {
		s.applyStall(stall, user.ID, assistant.ID)
	}
	return err
}

// streamInto runs one streaming exchange against the transcript: typing
// flag on, assistant bubble appended after the typing delay or on the first
// chunk, full content replace per chunk, settle against the authoritative
// list at the end. The caller has already appended the user message.
func (s *Session) streamInto(ctx context.Context, text, provider, modelName string, assistant model.Message) error {
	s.setTyping(true)

	appended := false
	appendAssistant := func(content string) {
		s.mu.Lock()
		if !appended {
			s.list.Append(assistant)
			appended = true
		}
		if content != "" {
			s.list.SetContent(assistant.ID, content)
		}
		s.mu.Unlock()
	}
	timer := time.AfterFunc(s.opts.TypingDelay, func() {
		appendAssistant("")
		s.notify(EventChunk)
	})
	defer timer.Stop()

	var buffer strings.Builder
	_, err := s.backend.SendMessage(ctx, s.chatID, text, provider, modelName, func(chunk string) {
		buffer.WriteString(chunk)
		appendAssistant(buffer.String())
		s.notify(EventChunk)
	})
	timer.Stop()

	if err != nil {
		s.setTyping(false)
		return fmt.Errorf("send to chat %s: %w", s.chatID, err)
	}

	// Make sure the bubble exists even if the whole reply arrived before
	// the typing timer fired.
	appendAssistant(buffer.String())

	authoritative, err := s.backend.ListMessages(ctx, s.chatID)
	if err != nil {
		// The exchange is persisted server-side; the placeholders keep the
		// streamed content and settle on the next full load.
		s.setTyping(false)
		return fmt.Errorf("reconcile chat %s: %w", s.chatID, err)
	}

	s.mu.Lock()
	s.list.SettlePair(authoritative)
	s.mu.Unlock()
	s.setTyping(false)
	s.notify(EventSettled)
	return nil
}

// applyStall prunes placeholders after a failed send according to policy.
func (s *Session) applyStall(policy StallPolicy, userID, assistantID string) {
	s.mu.Lock()
	switch policy {
	case StallKeep:
	case StallRemoveAssistant:
		s.list.Remove(assistantID)
	case StallRemoveAll:
		s.list.Remove(assistantID)
		s.list.Remove(userID)
	}
	s.mu.Unlock()
	s.notify(EventChunk)
}
