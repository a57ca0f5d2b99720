package model

import (
	"testing"
)

// treeGraph builds a two-level stage tree:
//
//	match-1 (1)
//	  set-1 (1), set-2 (2)
//	match-2 (2)
//	  set-3 (1)
func treeGraph() *EventGraph {
	return &EventGraph{
		Event: Event{ID: "e1"},
		Stages: []EventStage{
			{ID: "set-2", EventID: "e1", ParentID: "match-1", Number: 2},
			{ID: "match-2", EventID: "e1", Number: 2},
			{ID: "set-1", EventID: "e1", ParentID: "match-1", Number: 1},
			{ID: "match-1", EventID: "e1", Number: 1},
			{ID: "set-3", EventID: "e1", ParentID: "match-2", Number: 1},
		},
		Participants: []Participant{{ID: "alice"}, {ID: "bob"}},
		Scores: map[string][]StageScore{
			"set-1": {{EventStageID: "set-1", ParticipantID: "alice", Value: float64(6)}},
		},
	}
}

func TestSiblingsOrder(t *testing.T) {
	g := treeGraph()

	roots := g.Siblings("")
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	if roots[0].ID != "match-1" || roots[1].ID != "match-2" {
		t.Errorf("roots out of order: %s, %s", roots[0].ID, roots[1].ID)
	}

	sets := g.Siblings("match-1")
	if len(sets) != 2 || sets[0].ID != "set-1" || sets[1].ID != "set-2" {
		t.Errorf("unexpected match-1 children: %+v", sets)
	}

	if got := g.Siblings("missing"); len(got) != 0 {
		t.Errorf("expected no children for unknown parent, got %d", len(got))
	}
}

func TestOrderedStagesDepthFirst(t *testing.T) {
	g := treeGraph()

	want := []string{"match-1", "set-1", "set-2", "match-2", "set-3"}
	got := g.OrderedStages()
	if len(got) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestGraphLookups(t *testing.T) {
	g := treeGraph()

	if _, ok := g.Stage("set-3"); !ok {
		t.Error("expected set-3 to resolve")
	}
	if _, ok := g.Stage("nope"); ok {
		t.Error("expected unknown stage to miss")
	}

	if _, ok := g.Participant("alice"); !ok {
		t.Error("expected alice to resolve")
	}
	if _, ok := g.Participant("mallory"); ok {
		t.Error("expected unknown participant to miss")
	}

	row, ok := g.StageScore("set-1", "alice")
	if !ok {
		t.Fatal("expected score row for alice at set-1")
	}
	if row.Value != float64(6) {
		t.Errorf("unexpected value: %v", row.Value)
	}
	if _, ok := g.StageScore("set-1", "bob"); ok {
		t.Error("expected no row for bob")
	}
	if _, ok := g.StageScore("set-2", "alice"); ok {
		t.Error("expected no rows for set-2")
	}
}
