// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package tree

import (
	"testing"

	"github.com/stemma-labs/stemma-tui/internal/model"
)

func family() []model.Chat {
	return []model.Chat{
		{ID: "root", AncestorID: "root"},
		{ID: "a", AncestorID: "root", BranchOf: "root"},
		{ID: "b", AncestorID: "root", BranchOf: "root"},
		{ID: "a1", AncestorID: "root", BranchOf: "a"},
	}
}

func ids(rows []Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Chat.ID)
	}
	return out
}

func TestFlattenExpandedOrder(t *testing.T) {
	cs := NewSidebarCollapseState() // everything expanded
	rows := Flatten(family(), "root", cs)

	want := []string{"root", "a", "a1", "b"}
	got := ids(rows)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if rows[0].Depth != 0 || rows[1].Depth != 1 || rows[2].Depth != 2 {
		t.Errorf("unexpected depths: %+v", rows)
	}
	if !rows[0].HasChildren || rows[2].HasChildren {
		t.Errorf("HasChildren wrong: %+v", rows)
	}
}

func TestFlattenCollapsedHidesSubtree(t *testing.T) {
	cs := NewSidebarCollapseState()
	cs.Toggle("a") // collapse a, hiding a1

	rows := Flatten(family(), "root", cs)
	got := ids(rows)
	want := []string{"root", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFlattenUnknownRoot(t *testing.T) {
	cs := NewSidebarCollapseState()
	if rows := Flatten(family(), "missing", cs); rows != nil {
		t.Errorf("expected nil rows for unknown root, got %v", ids(rows))
	}
}

func TestFlattenCyclicDataTerminates(t *testing.T) {
	// Two chats branching off each other. Resolve rejects this list,
	// but Flatten must still terminate if handed it directly.
	chats := []model.Chat{
		{ID: "b", AncestorID: "b", BranchOf: "c"},
		{ID: "c", AncestorID: "b", BranchOf: "b"},
	}
	cs := NewSidebarCollapseState()

	rows := Flatten(chats, "b", cs)
	got := ids(rows)
	want := []string{"b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFlattenAllDashboardDefaultCollapsed(t *testing.T) {
	chats := append(family(), model.Chat{ID: "other", AncestorID: "other"})
	cs := NewDashboardCollapseState() // everything collapsed

	rows := FlattenAll(chats, cs)
	got := ids(rows)
	want := []string{"root", "other"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
