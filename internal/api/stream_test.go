// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessageStreamsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.URL.Path != "/chats/c1/messages" {
			t.Errorf("path = %q, want /chats/c1/messages", r.URL.Path)
		}
		if got := r.URL.Query().Get("provider"); got != "openai" {
			t.Errorf("provider = %q, want openai", got)
		}
		if got := r.URL.Query().Get("model"); got != "gpt-4o-mini" {
			t.Errorf("model = %q, want gpt-4o-mini", got)
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("response writer does not support flushing")
		}
		w.Write([]byte("Hel"))
		flusher.Flush()
		w.Write([]byte("lo"))
		flusher.Flush()
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL}, StaticToken("t"))

	var chunks []string
	full, err := client.SendMessage(context.Background(), "c1", "hi", "openai", "gpt-4o-mini", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if full != "Hello" {
		t.Errorf("full = %q, want %q", full, "Hello")
	}
	var rejoined string
	for _, c := range chunks {
		rejoined += c
	}
	if rejoined != "Hello" {
		t.Errorf("chunks rejoin to %q, want %q", rejoined, "Hello")
	}
}

func TestSendMessageEmptyBodyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL}, StaticToken("t"))
	_, err := client.SendMessage(context.Background(), "c1", "hi", "openai", "gpt-4o-mini", nil)

	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeNoStream {
		t.Errorf("err = %v, want no-stream error", err)
	}
}

func TestSendMessageNoToken(t *testing.T) {
	client := NewClient(DefaultConfig(), StaticToken(""))
	_, err := client.SendMessage(context.Background(), "c1", "hi", "openai", "gpt-4o-mini", nil)
	if !IsAuthNotReady(err) {
		t.Errorf("err = %v, want auth-not-ready", err)
	}
}

func TestSendMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failure", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&Config{BaseURL: server.URL}, StaticToken("t"))
	_, err := client.SendMessage(context.Background(), "c1", "hi", "openai", "gpt-4o-mini", nil)

	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeServer {
		t.Errorf("err = %v, want server error", err)
	}
}

func TestSendMessageCancellation(t *testing.T) {
	blocker := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Write([]byte("partial"))
		flusher.Flush()
		<-blocker
	}))
	defer server.Close()
	defer close(blocker)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(&Config{BaseURL: server.URL}, StaticToken("t"))

	_, err := client.SendMessage(ctx, "c1", "hi", "openai", "gpt-4o-mini", func(chunk string) {
		cancel()
	})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
}
