// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stemma-labs/stemma-tui/internal/api"
	"github.com/stemma-labs/stemma-tui/internal/model"
)

// fakeBackend implements Backend with pluggable behavior per method.
type fakeBackend struct {
	mu        sync.Mutex
	sendCalls int

	sendFn   func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error)
	listFn   func(ctx context.Context, chatID string) ([]model.Message, error)
	branchFn func(ctx context.Context, chatID, messageID, name string, tags []string) (string, error)
}

func (f *fakeBackend) SendMessage(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
	f.mu.Lock()
	f.sendCalls++
	f.mu.Unlock()
	if f.sendFn == nil {
		return "", nil
	}
	return f.sendFn(ctx, chatID, content, provider, modelName, cb)
}

func (f *fakeBackend) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, chatID)
}

func (f *fakeBackend) BranchFrom(ctx context.Context, chatID, messageID, name string, tags []string) (string, error) {
	if f.branchFn == nil {
		return "", errors.New("branch not configured")
	}
	return f.branchFn(ctx, chatID, messageID, name, tags)
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCalls
}

// streamingBackend streams the given chunks and returns an authoritative
// transcript whose tail is the persisted exchange.
func streamingBackend(chunks []string, reply string) *fakeBackend {
	return &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			var full string
			for _, c := range chunks {
				full += c
				cb(c)
			}
			return full, nil
		},
		listFn: func(ctx context.Context, chatID string) ([]model.Message, error) {
			return []model.Message{
				{ID: "srv-user", Role: model.RoleUser, Content: "hi"},
				{ID: "srv-asst", Role: model.RoleAssistant, Content: reply},
			}, nil
		},
	}
}

// testOptions uses a typing delay that never fires; the assistant bubble
// appears on the first chunk instead, keeping tests deterministic.
func testOptions(notify func(Event)) Options {
	return Options{TypingDelay: time.Hour, Notify: notify}
}

func TestSendStreamsAndSettles(t *testing.T) {
	backend := streamingBackend([]string{"Hel", "lo"}, "Hello")

	var mu sync.Mutex
	var events []Event
	session := NewSession(backend, "c1", testOptions(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	err := session.Send(context.Background(), "hi", "openai", "gpt-4o-mini")
	require.NoError(t, err)

	messages := session.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "srv-user", messages[0].ID)
	require.Equal(t, "srv-asst", messages[1].ID)
	require.Equal(t, "Hello", messages[1].Content)
	require.Equal(t, model.MessageSettled, messages[1].State)
	require.False(t, session.Typing())

	mu.Lock()
	defer mu.Unlock()
	chunkEvents := 0
	settledEvents := 0
	for _, e := range events {
		switch e {
		case EventChunk:
			chunkEvents++
		case EventSettled:
			settledEvents++
		}
	}
	// One per streamed chunk, at minimum, plus the optimistic appends.
	require.GreaterOrEqual(t, chunkEvents, 2)
	require.Equal(t, 1, settledEvents)
}

func TestSendBlankIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	session := NewSession(backend, "c1", testOptions(nil))

	require.NoError(t, session.Send(context.Background(), "   \n\t", "openai", "gpt-4o"))
	require.Zero(t, backend.calls())
	require.Empty(t, session.Messages())
}

func TestSendFailureKeepsPlaceholders(t *testing.T) {
	backend := &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			cb("par")
			return "par", errors.New("stream cut")
		},
	}
	session := NewSession(backend, "c1", Options{
		TypingDelay: time.Hour,
		SingleStall: StallKeep,
	})

	err := session.Send(context.Background(), "hi", "openai", "gpt-4o")
	require.Error(t, err)
	require.False(t, session.Typing())

	messages := session.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, model.RoleUser, messages[0].Role)
	require.Equal(t, "par", messages[1].Content)
	require.True(t, messages[1].IsPending())
}

func TestSendFailureRemoveAssistant(t *testing.T) {
	backend := &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			cb("par")
			return "par", errors.New("stream cut")
		},
	}
	session := NewSession(backend, "c1", Options{
		TypingDelay: time.Hour,
		SingleStall: StallRemoveAssistant,
	})

	require.Error(t, session.Send(context.Background(), "hi", "openai", "gpt-4o"))

	messages := session.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, model.RoleUser, messages[0].Role)
}

func TestSendFailureRemoveAll(t *testing.T) {
	backend := &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			return "", errors.New("boom")
		},
	}
	session := NewSession(backend, "c1", Options{
		TypingDelay: time.Hour,
		SingleStall: StallRemoveAll,
	})

	require.Error(t, session.Send(context.Background(), "hi", "openai", "gpt-4o"))
	require.Empty(t, session.Messages())
}

func TestSendReconcileFailureKeepsStreamedContent(t *testing.T) {
	backend := &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			cb("Hello")
			return "Hello", nil
		},
		listFn: func(ctx context.Context, chatID string) ([]model.Message, error) {
			return nil, errors.New("fetch failed")
		},
	}
	session := NewSession(backend, "c1", testOptions(nil))

	err := session.Send(context.Background(), "hi", "openai", "gpt-4o")
	require.Error(t, err)

	messages := session.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "Hello", messages[1].Content)
	require.True(t, messages[1].IsPending())
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	require.Equal(t, 500*time.Millisecond, opts.TypingDelay)
	require.Equal(t, StallKeep, opts.SingleStall)
	require.Equal(t, StallRemoveAssistant, opts.DualStall)
}

func TestTypingDelayAppendsEmptyBubble(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{
		sendFn: func(ctx context.Context, chatID, content, provider, modelName string, cb api.StreamCallback) (string, error) {
			<-release
			cb("Hello")
			return "Hello", nil
		},
		listFn: func(ctx context.Context, chatID string) ([]model.Message, error) {
			return []model.Message{
				{ID: "srv-user", Role: model.RoleUser, Content: "hi"},
				{ID: "srv-asst", Role: model.RoleAssistant, Content: "Hello"},
			}, nil
		},
	}

	session := NewSession(backend, "c1", Options{TypingDelay: time.Millisecond})

	done := make(chan error, 1)
	go func() {
		done <- session.Send(context.Background(), "hi", "openai", "gpt-4o")
	}()

	// The empty assistant bubble shows up while the backend is still silent.
	require.Eventually(t, func() bool {
		messages := session.Messages()
		return len(messages) == 2 && messages[1].Role == model.RoleAssistant && messages[1].IsEmpty()
	}, time.Second, time.Millisecond)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, "Hello", session.Messages()[1].Content)
}

func TestPreloadAndLoad(t *testing.T) {
	backend := &fakeBackend{
		listFn: func(ctx context.Context, chatID string) ([]model.Message, error) {
			return []model.Message{{ID: "m1", Content: "hi"}}, nil
		},
	}
	session := NewSession(backend, "c1", testOptions(nil))

	require.NoError(t, session.Load(context.Background()))
	require.Len(t, session.Messages(), 1)

	session.Preload(nil)
	require.Empty(t, session.Messages())
}
