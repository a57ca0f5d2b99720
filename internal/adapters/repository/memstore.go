package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/modularizer/gulfer/internal/domain/model"
)

// MemStore implements Store with plain maps guarded by one RWMutex. Stage
// trees are held as id-keyed rows with adjacency looked up by parent id,
// never as recursive object graphs.
type MemStore struct {
	mu sync.RWMutex

	sports       map[string]model.Sport
	sportsByName map[string]string

	scoreFormats map[string]model.ScoreFormat
	eventFormats map[string]model.EventFormat
	formatStages map[string]model.EventFormatStage

	venues       map[string]model.Venue
	venueFormats map[string]model.VenueEventFormat
	venueStages  map[string]model.VenueEventFormatStage

	events      map[string]model.Event
	eventStages map[string]model.EventStage
	// stagesByEvent indexes stage ids per event in insertion order.
	stagesByEvent map[string][]string

	participants      map[string]model.Participant
	eventParticipants map[string]map[string]string // event id -> participant id -> join id

	// scores maps stage id -> participant id -> row.
	scores map[string]map[string]model.StageScore
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		sports:            make(map[string]model.Sport),
		sportsByName:      make(map[string]string),
		scoreFormats:      make(map[string]model.ScoreFormat),
		eventFormats:      make(map[string]model.EventFormat),
		formatStages:      make(map[string]model.EventFormatStage),
		venues:            make(map[string]model.Venue),
		venueFormats:      make(map[string]model.VenueEventFormat),
		venueStages:       make(map[string]model.VenueEventFormatStage),
		events:            make(map[string]model.Event),
		eventStages:       make(map[string]model.EventStage),
		stagesByEvent:     make(map[string][]string),
		participants:      make(map[string]model.Participant),
		eventParticipants: make(map[string]map[string]string),
		scores:            make(map[string]map[string]model.StageScore),
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// EventGraph loads the full structural+score snapshot for one event.
func (s *MemStore) EventGraph(_ context.Context, eventID string) (*model.EventGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}

	g := &model.EventGraph{
		Event:  copyEvent(ev),
		Scores: make(map[string][]model.StageScore),
	}

	if vf, ok := s.venueFormats[ev.VenueEventFormatID]; ok {
		if ef, ok := s.eventFormats[vf.EventFormatID]; ok {
			g.ScoreFormatID = ef.DefaultScoreFormatID
		}
	}

	for pid := range s.eventParticipants[eventID] {
		if p, ok := s.participants[pid]; ok {
			g.Participants = append(g.Participants, copyParticipant(p))
		}
	}
	sort.Slice(g.Participants, func(i, j int) bool { return g.Participants[i].ID < g.Participants[j].ID })

	for _, sid := range s.stagesByEvent[eventID] {
		st := s.eventStages[sid]
		g.Stages = append(g.Stages, st)
		for _, row := range s.scores[sid] {
			g.Scores[sid] = append(g.Scores[sid], copyScore(row))
		}
		sort.Slice(g.Scores[sid], func(i, j int) bool {
			return g.Scores[sid][i].ParticipantID < g.Scores[sid][j].ParticipantID
		})
	}
	sort.Slice(g.Stages, func(i, j int) bool {
		if g.Stages[i].ParentID != g.Stages[j].ParentID {
			return g.Stages[i].ParentID < g.Stages[j].ParentID
		}
		return g.Stages[i].Number < g.Stages[j].Number
	})
	return g, nil
}

// StageScores returns the current rows for one stage.
func (s *MemStore) StageScores(_ context.Context, stageID string) ([]model.StageScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.eventStages[stageID]; !ok {
		return nil, fmt.Errorf("stage %s: %w", stageID, ErrNotFound)
	}
	rows := make([]model.StageScore, 0, len(s.scores[stageID]))
	for _, row := range s.scores[stageID] {
		rows = append(rows, copyScore(row))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ParticipantID < rows[j].ParticipantID })
	return rows, nil
}

// UpsertStageScore replaces the row for (stage, participant).
func (s *MemStore) UpsertStageScore(_ context.Context, score model.StageScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventStages[score.EventStageID]; !ok {
		return fmt.Errorf("stage %s: %w", score.EventStageID, ErrNotFound)
	}
	if _, ok := s.participants[score.ParticipantID]; !ok {
		return fmt.Errorf("participant %s: %w", score.ParticipantID, ErrNotFound)
	}

	rows := s.scores[score.EventStageID]
	if rows == nil {
		rows = make(map[string]model.StageScore)
		s.scores[score.EventStageID] = rows
	}
	if existing, ok := rows[score.ParticipantID]; ok {
		score.ID = existing.ID
	} else {
		score.ID = newID(score.ID)
	}
	rows[score.ParticipantID] = copyScore(score)
	return nil
}

// UpdateEventMeta merges patch into the event metadata bag.
func (s *MemStore) UpdateEventMeta(_ context.Context, eventID string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if ev.Meta == nil {
		ev.Meta = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		ev.Meta[k] = v
	}
	s.events[eventID] = ev
	return nil
}

// ScoreFormat resolves one score format by id.
func (s *MemStore) ScoreFormat(_ context.Context, id string) (model.ScoreFormat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.scoreFormats[id]
	if !ok {
		return model.ScoreFormat{}, fmt.Errorf("score format %s: %w", id, ErrNotFound)
	}
	return f, nil
}

// RegisterSport creates a sport by unique name, idempotently.
func (s *MemStore) RegisterSport(_ context.Context, name string) (model.Sport, error) {
	if name == "" {
		return model.Sport{}, fmt.Errorf("sport name: %w", ErrInvalidEntity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.sportsByName[name]; ok {
		return s.sports[id], nil
	}
	sp := model.Sport{ID: newID(""), Name: name}
	s.sports[sp.ID] = sp
	s.sportsByName[name] = sp.ID
	return sp, nil
}

// CreateScoreFormat stores a score format. SportID may be empty for
// sport-agnostic formats.
func (s *MemStore) CreateScoreFormat(_ context.Context, f model.ScoreFormat) (model.ScoreFormat, error) {
	if f.Method == "" {
		return model.ScoreFormat{}, fmt.Errorf("score format method: %w", ErrInvalidEntity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.SportID != "" {
		if _, ok := s.sports[f.SportID]; !ok {
			return model.ScoreFormat{}, fmt.Errorf("sport %s: %w", f.SportID, ErrNotFound)
		}
	}
	f.ID = newID(f.ID)
	s.scoreFormats[f.ID] = f
	return f, nil
}

// CreateEventFormat stores an event format template.
func (s *MemStore) CreateEventFormat(_ context.Context, f model.EventFormat) (model.EventFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sports[f.SportID]; !ok {
		return model.EventFormat{}, fmt.Errorf("sport %s: %w", f.SportID, ErrNotFound)
	}
	if _, ok := s.scoreFormats[f.DefaultScoreFormatID]; !ok {
		return model.EventFormat{}, fmt.Errorf("score format %s: %w", f.DefaultScoreFormatID, ErrNotFound)
	}
	f.ID = newID(f.ID)
	s.eventFormats[f.ID] = f
	return f, nil
}

// CreateEventFormatStage stores a template stage node. The triple
// (EventFormatID, ParentID, Number) must be unique among siblings.
func (s *MemStore) CreateEventFormatStage(_ context.Context, st model.EventFormatStage) (model.EventFormatStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.eventFormats[st.EventFormatID]; !ok {
		return model.EventFormatStage{}, fmt.Errorf("event format %s: %w", st.EventFormatID, ErrNotFound)
	}
	if st.ParentID != "" {
		parent, ok := s.formatStages[st.ParentID]
		if !ok || parent.EventFormatID != st.EventFormatID {
			return model.EventFormatStage{}, fmt.Errorf("parent stage %s: %w", st.ParentID, ErrNotFound)
		}
	}
	for _, sib := range s.formatStages {
		if sib.EventFormatID == st.EventFormatID && sib.ParentID == st.ParentID && sib.Number == st.Number {
			return model.EventFormatStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
		}
	}
	st.ID = newID(st.ID)
	s.formatStages[st.ID] = st
	return st, nil
}

// CreateVenue stores a venue.
func (s *MemStore) CreateVenue(_ context.Context, v model.Venue) (model.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = newID(v.ID)
	s.venues[v.ID] = v
	return v, nil
}

// CreateVenueEventFormat instantiates an event format at a venue.
func (s *MemStore) CreateVenueEventFormat(_ context.Context, f model.VenueEventFormat) (model.VenueEventFormat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[f.VenueID]; !ok {
		return model.VenueEventFormat{}, fmt.Errorf("venue %s: %w", f.VenueID, ErrNotFound)
	}
	if _, ok := s.eventFormats[f.EventFormatID]; !ok {
		return model.VenueEventFormat{}, fmt.Errorf("event format %s: %w", f.EventFormatID, ErrNotFound)
	}
	f.ID = newID(f.ID)
	s.venueFormats[f.ID] = f
	return f, nil
}

// CreateVenueEventFormatStage mirrors one template stage at a venue. An
// empty ScoreFormatID inherits the template stage's override.
func (s *MemStore) CreateVenueEventFormatStage(_ context.Context, st model.VenueEventFormatStage) (model.VenueEventFormatStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vf, ok := s.venueFormats[st.VenueEventFormatID]
	if !ok {
		return model.VenueEventFormatStage{}, fmt.Errorf("venue event format %s: %w", st.VenueEventFormatID, ErrNotFound)
	}
	tmpl, ok := s.formatStages[st.FormatStageID]
	if !ok || tmpl.EventFormatID != vf.EventFormatID {
		return model.VenueEventFormatStage{}, fmt.Errorf("format stage %s: %w", st.FormatStageID, ErrNotFound)
	}
	for _, sib := range s.venueStages {
		if sib.VenueEventFormatID == st.VenueEventFormatID && sib.ParentID == st.ParentID && sib.Number == st.Number {
			return model.VenueEventFormatStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
		}
	}
	if st.ScoreFormatID == "" {
		st.ScoreFormatID = tmpl.ScoreFormatID
	}
	st.ID = newID(st.ID)
	s.venueStages[st.ID] = st
	return st, nil
}

// CreateEvent stores one concrete played instance.
func (s *MemStore) CreateEvent(_ context.Context, e model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venueFormats[e.VenueEventFormatID]; !ok {
		return model.Event{}, fmt.Errorf("venue event format %s: %w", e.VenueEventFormatID, ErrNotFound)
	}
	e.ID = newID(e.ID)
	s.events[e.ID] = copyEvent(e)
	return e, nil
}

// CreateEventStage instantiates one stage for one event. An empty
// ScoreFormatID resolves: venue stage override, then format default.
func (s *MemStore) CreateEventStage(_ context.Context, st model.EventStage) (model.EventStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[st.EventID]
	if !ok {
		return model.EventStage{}, fmt.Errorf("event %s: %w", st.EventID, ErrNotFound)
	}
	if st.ParentID != "" {
		parent, ok := s.eventStages[st.ParentID]
		if !ok || parent.EventID != st.EventID {
			return model.EventStage{}, fmt.Errorf("parent stage %s: %w", st.ParentID, ErrNotFound)
		}
	}
	for _, sid := range s.stagesByEvent[st.EventID] {
		sib := s.eventStages[sid]
		if sib.ParentID == st.ParentID && sib.Number == st.Number {
			return model.EventStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
		}
	}

	if st.ScoreFormatID == "" {
		if vs, ok := s.venueStages[st.VenueStageID]; ok && vs.ScoreFormatID != "" {
			st.ScoreFormatID = vs.ScoreFormatID
		} else if vf, ok := s.venueFormats[ev.VenueEventFormatID]; ok {
			if ef, ok := s.eventFormats[vf.EventFormatID]; ok {
				st.ScoreFormatID = ef.DefaultScoreFormatID
			}
		}
	}
	if _, ok := s.scoreFormats[st.ScoreFormatID]; !ok {
		return model.EventStage{}, fmt.Errorf("score format %q: %w", st.ScoreFormatID, ErrNotFound)
	}

	st.ID = newID(st.ID)
	s.eventStages[st.ID] = st
	s.stagesByEvent[st.EventID] = append(s.stagesByEvent[st.EventID], st.ID)
	return st, nil
}

// CreateParticipant stores a player or team.
func (s *MemStore) CreateParticipant(_ context.Context, p model.Participant) (model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.IsTeam {
		for _, mid := range p.MemberIDs {
			member, ok := s.participants[mid]
			if !ok {
				return model.Participant{}, fmt.Errorf("member %s: %w", mid, ErrNotFound)
			}
			if member.IsTeam {
				return model.Participant{}, fmt.Errorf("member %s is a team: %w", mid, ErrInvalidEntity)
			}
		}
	} else if len(p.MemberIDs) > 0 {
		return model.Participant{}, fmt.Errorf("player with members: %w", ErrInvalidEntity)
	}
	p.ID = newID(p.ID)
	s.participants[p.ID] = copyParticipant(p)
	return p, nil
}

// AddEventParticipant joins a participant to an event, once.
func (s *MemStore) AddEventParticipant(_ context.Context, eventID, participantID string) (model.EventParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return model.EventParticipant{}, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if _, ok := s.participants[participantID]; !ok {
		return model.EventParticipant{}, fmt.Errorf("participant %s: %w", participantID, ErrNotFound)
	}
	joins := s.eventParticipants[eventID]
	if joins == nil {
		joins = make(map[string]string)
		s.eventParticipants[eventID] = joins
	}
	if _, ok := joins[participantID]; ok {
		return model.EventParticipant{}, fmt.Errorf("participant %s already in event: %w", participantID, ErrConflict)
	}
	ep := model.EventParticipant{ID: newID(""), EventID: eventID, ParticipantID: participantID}
	joins[participantID] = ep.ID
	return ep, nil
}

// Count reports stored entity counts.
func (s *MemStore) Count(_ context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{
		Events:       len(s.events),
		Stages:       len(s.eventStages),
		Participants: len(s.participants),
	}
	for _, rows := range s.scores {
		c.Scores += len(rows)
	}
	return c
}

// Close is a no-op for the in-memory backend.
func (s *MemStore) Close() error { return nil }

func copyEvent(e model.Event) model.Event {
	if e.Meta != nil {
		meta := make(map[string]any, len(e.Meta))
		for k, v := range e.Meta {
			meta[k] = v
		}
		e.Meta = meta
	}
	return e
}

func copyParticipant(p model.Participant) model.Participant {
	if p.MemberIDs != nil {
		p.MemberIDs = append([]string(nil), p.MemberIDs...)
	}
	return p
}

func copyScore(sc model.StageScore) model.StageScore {
	if sc.Meta.Stats != nil {
		stats := make(map[string]float64, len(sc.Meta.Stats))
		for k, v := range sc.Meta.Stats {
			stats[k] = v
		}
		sc.Meta.Stats = stats
	}
	return sc
}
