package model

import "sort"

// EventGraph is the full structural+score snapshot for one event: the event
// row, its participants, its ordered stage list, and the current score rows
// per stage. Stages are held flat (adjacency by parent id), never as a
// recursive object graph, so arbitrary tree depth needs no special casing.
type EventGraph struct {
	Event Event
	// ScoreFormatID is the event's default score format, resolved from
	// the venue event format's template.
	ScoreFormatID string
	Participants  []Participant
	Stages        []EventStage
	// Scores maps stage id to that stage's current score rows.
	Scores map[string][]StageScore
}

// Stage returns the stage with the given id.
func (g *EventGraph) Stage(id string) (EventStage, bool) {
	for _, s := range g.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return EventStage{}, false
}

// Participant returns the event participant with the given id.
func (g *EventGraph) Participant(id string) (Participant, bool) {
	for _, p := range g.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Siblings returns the stages sharing parentID, in ascending Number order.
func (g *EventGraph) Siblings(parentID string) []EventStage {
	var out []EventStage
	for _, s := range g.Stages {
		if s.ParentID == parentID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// OrderedStages returns every stage in tree order: depth-first from the
// roots, siblings in ascending Number order. This is the canonical
// recomputation order for the whole event.
func (g *EventGraph) OrderedStages() []EventStage {
	var out []EventStage
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, s := range g.Siblings(parentID) {
			out = append(out, s)
			walk(s.ID)
		}
	}
	walk("")
	return out
}

// StageScore returns the score row for (stageID, participantID) if present.
func (g *EventGraph) StageScore(stageID, participantID string) (StageScore, bool) {
	for _, sc := range g.Scores[stageID] {
		if sc.ParticipantID == participantID {
			return sc, true
		}
	}
	return StageScore{}, false
}
