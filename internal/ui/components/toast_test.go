// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"
)

func TestToastManagerNewestFirst(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("first")
	m.AddError("second")

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].Message != "second" {
		t.Errorf("expected newest toast first, got %q", toasts[0].Message)
	}
	if toasts[0].Kind != ToastKindError {
		t.Errorf("expected error kind, got %d", toasts[0].Kind)
	}
}

func TestToastManagerCapsAtMax(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 10; i++ {
		m.AddStatus("toast")
	}
	if got := len(m.Toasts()); got != 5 {
		t.Errorf("expected 5 toasts after overflow, got %d", got)
	}
}

func TestToastManagerDismiss(t *testing.T) {
	m := NewToastManager()
	id := m.AddStatus("keep me not")
	m.AddStatus("keep me")

	m.Dismiss(id)

	toasts := m.Toasts()
	if len(toasts) != 1 {
		t.Fatalf("expected 1 toast after dismiss, got %d", len(toasts))
	}
	if toasts[0].Message != "keep me" {
		t.Errorf("wrong toast survived: %q", toasts[0].Message)
	}
}

func TestToastTickExpires(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("old")
	m.toasts[0].CreatedAt = time.Now().Add(-time.Minute)
	m.AddStatus("fresh")

	active := m.Tick()
	if len(active) != 1 {
		t.Fatalf("expected 1 active toast, got %d", len(active))
	}
	if active[0].Message != "fresh" {
		t.Errorf("expected fresh toast to survive, got %q", active[0].Message)
	}
}

func TestWrapToastText(t *testing.T) {
	wrapped := wrapToastText("one two three four five", 9)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 9 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if wrapToastText("short", 0) != "short" {
		t.Error("zero width should return input unchanged")
	}
}
