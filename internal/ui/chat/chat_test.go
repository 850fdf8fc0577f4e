// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/stemma-labs/stemma-tui/internal/chatflow"
	"github.com/stemma-labs/stemma-tui/internal/model"
	"github.com/stemma-labs/stemma-tui/internal/tree"
	"github.com/stemma-labs/stemma-tui/internal/ui/components"
)

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "idea", []string{"idea"}},
		{"spaces and empties", " a , ,b, c ", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTags(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitTags(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("splitTags(%q) = %v, want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestNextRouteCyclesCatalog(t *testing.T) {
	start := chatflow.Route{
		Provider: string(model.ProviderGemini),
		Model:    model.DefaultModelFor(model.ProviderGemini),
	}

	seen := map[string]bool{}
	r := start
	for i := 0; i < 64; i++ {
		seen[r.Model] = true
		r = nextRoute(r)
		if r.Model == start.Model {
			break
		}
	}

	// Every catalog model should be reachable by cycling.
	for _, p := range model.Providers() {
		for _, name := range model.ModelsFor(p) {
			if !seen[name] {
				t.Errorf("model %s never reached while cycling", name)
			}
		}
	}
	if r.Model != start.Model {
		t.Error("cycling never wrapped back to the start")
	}
}

func TestNextRouteUnknownModelResets(t *testing.T) {
	r := nextRoute(chatflow.Route{Provider: "gemini", Model: "retired-model"})
	if r.Model != model.DefaultModelFor(model.ProviderGemini) {
		t.Errorf("expected reset to catalog head, got %s", r.Model)
	}
}

func TestTreeRowText(t *testing.T) {
	row := tree.Row{
		Chat:        model.Chat{ID: "c1", Name: "Ideas"},
		Depth:       1,
		HasChildren: true,
		Expanded:    false,
	}

	line := treeRowText(row, "other", "", 40)
	if !strings.HasPrefix(line, "  > ") {
		t.Errorf("expected indent and collapsed marker, got %q", line)
	}
	if !strings.Contains(line, "Ideas") {
		t.Errorf("expected chat name, got %q", line)
	}

	line = treeRowText(row, "c1", "", 40)
	if !strings.Contains(line, "(open)") {
		t.Errorf("expected open tag, got %q", line)
	}

	line = treeRowText(row, "other", "c1", 40)
	if !strings.Contains(line, "(compare)") {
		t.Errorf("expected compare tag, got %q", line)
	}
}

func TestTreeRowTextTruncates(t *testing.T) {
	row := tree.Row{
		Chat: model.Chat{ID: "c", Name: strings.Repeat("x", 100)},
	}
	line := treeRowText(row, "", "", 20)
	if len(line) > 23 {
		t.Errorf("row not truncated: %d chars", len(line))
	}
}

func TestSidebarWidthClamps(t *testing.T) {
	if w := sidebarWidth(40); w != 20 {
		t.Errorf("small terminal: got %d, want 20", w)
	}
	if w := sidebarWidth(300); w != 36 {
		t.Errorf("huge terminal: got %d, want 36", w)
	}
	if w := sidebarWidth(100); w != 25 {
		t.Errorf("normal terminal: got %d, want 25", w)
	}
}

func TestRerootCyclicChatsShowsChatAlone(t *testing.T) {
	m := &Model{
		toasts:   components.NewToastManager(),
		collapse: tree.NewSidebarCollapseState(),
		chats: []model.Chat{
			{ID: "b", AncestorID: "b", BranchOf: "c"},
			{ID: "c", AncestorID: "b", BranchOf: "b"},
		},
	}

	m.reroot("b")

	if m.rootID != "b" {
		t.Errorf("expected root to fall back to the chat itself, got %q", m.rootID)
	}
	if !m.toasts.HasToasts() {
		t.Error("expected a toast reporting the cyclic branch data")
	}
	if len(m.rows) == 0 {
		t.Fatal("expected the chat itself to stay visible")
	}
	if m.rows[0].Chat.ID != "b" {
		t.Errorf("expected first row b, got %q", m.rows[0].Chat.ID)
	}
}
