package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/modularizer/gulfer/internal/domain/model"
)

// SQLStore implements Store on sqlite via database/sql. Raw values and
// metadata bags travel as JSON TEXT.
type SQLStore struct {
	db *sql.DB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an opened database (see OpenSQLite).
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// EventGraph loads the full structural+score snapshot for one event.
func (s *SQLStore) EventGraph(ctx context.Context, eventID string) (*model.EventGraph, error) {
	g := &model.EventGraph{Scores: make(map[string][]model.StageScore)}

	var metaJSON string
	var start, end sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, venue_event_format_id, start_at, end_at, active, meta FROM events WHERE id = ?`,
		eventID,
	).Scan(&g.Event.ID, &g.Event.VenueEventFormatID, &start, &end, &g.Event.Active, &metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", eventID, err)
	}
	g.Event.Start, g.Event.End = start.Time, end.Time
	if err := json.Unmarshal([]byte(metaJSON), &g.Event.Meta); err != nil {
		return nil, fmt.Errorf("decode event meta: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT ef.default_score_format_id
		 FROM venue_event_formats vf JOIN event_formats ef ON ef.id = vf.event_format_id
		 WHERE vf.id = ?`,
		g.Event.VenueEventFormatID,
	).Scan(&g.ScoreFormatID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve default score format: %w", err)
	}

	if g.Participants, err = s.eventParticipants(ctx, eventID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, venue_stage_id, parent_id, number, name, score_format_id, start_at, end_at, active
		 FROM event_stages WHERE event_id = ? ORDER BY parent_id, number`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st model.EventStage
		var sStart, sEnd sql.NullTime
		if err := rows.Scan(&st.ID, &st.EventID, &st.VenueStageID, &st.ParentID, &st.Number,
			&st.Name, &st.ScoreFormatID, &sStart, &sEnd, &st.Active); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		st.Start, st.End = sStart.Time, sEnd.Time
		g.Stages = append(g.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}

	for _, st := range g.Stages {
		scores, err := s.StageScores(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		if len(scores) > 0 {
			g.Scores[st.ID] = scores
		}
	}
	return g, nil
}

func (s *SQLStore) eventParticipants(ctx context.Context, eventID string) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.is_team, p.member_ids
		 FROM event_participants ep JOIN participants p ON p.id = ep.participant_id
		 WHERE ep.event_id = ? ORDER BY p.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		var members string
		if err := rows.Scan(&p.ID, &p.Name, &p.IsTeam, &members); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		if err := json.Unmarshal([]byte(members), &p.MemberIDs); err != nil {
			return nil, fmt.Errorf("decode member ids: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return out, nil
}

// StageScores returns the current rows for one stage.
func (s *SQLStore) StageScores(ctx context.Context, stageID string) ([]model.StageScore, error) {
	if err := s.exists(ctx, "event_stages", stageID); err != nil {
		return nil, fmt.Errorf("stage %s: %w", stageID, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_stage_id, participant_id, value, completed_at,
		        points, won, lost, tied, win_margin, loss_margin, meta
		 FROM stage_scores WHERE event_stage_id = ? ORDER BY participant_id`,
		stageID,
	)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	var out []model.StageScore
	for rows.Next() {
		var sc model.StageScore
		var value sql.NullString
		var completed sql.NullTime
		var metaJSON string
		if err := rows.Scan(&sc.ID, &sc.EventStageID, &sc.ParticipantID, &value, &completed,
			&sc.Points, &sc.Won, &sc.Lost, &sc.Tied, &sc.WinMargin, &sc.LossMargin, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		sc.CompletedAt = completed.Time
		if value.Valid && value.String != "" {
			if err := json.Unmarshal([]byte(value.String), &sc.Value); err != nil {
				return nil, fmt.Errorf("decode score value: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(metaJSON), &sc.Meta); err != nil {
			return nil, fmt.Errorf("decode score meta: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return out, nil
}

// UpsertStageScore writes the row for (stage, participant).
func (s *SQLStore) UpsertStageScore(ctx context.Context, score model.StageScore) error {
	if err := s.exists(ctx, "event_stages", score.EventStageID); err != nil {
		return fmt.Errorf("stage %s: %w", score.EventStageID, err)
	}
	if err := s.exists(ctx, "participants", score.ParticipantID); err != nil {
		return fmt.Errorf("participant %s: %w", score.ParticipantID, err)
	}

	valueJSON, err := json.Marshal(score.Value)
	if err != nil {
		return fmt.Errorf("encode score value: %w", err)
	}
	metaJSON, err := json.Marshal(score.Meta)
	if err != nil {
		return fmt.Errorf("encode score meta: %w", err)
	}
	if score.ID == "" {
		score.ID = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stage_scores
		   (id, event_stage_id, participant_id, value, completed_at,
		    points, won, lost, tied, win_margin, loss_margin, meta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_stage_id, participant_id) DO UPDATE SET
		   value = excluded.value,
		   completed_at = excluded.completed_at,
		   points = excluded.points,
		   won = excluded.won,
		   lost = excluded.lost,
		   tied = excluded.tied,
		   win_margin = excluded.win_margin,
		   loss_margin = excluded.loss_margin,
		   meta = excluded.meta`,
		score.ID, score.EventStageID, score.ParticipantID, string(valueJSON), score.CompletedAt,
		score.Points, score.Won, score.Lost, score.Tied, score.WinMargin, score.LossMargin, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// UpdateEventMeta merges patch into the event metadata bag.
func (s *SQLStore) UpdateEventMeta(ctx context.Context, eventID string, patch map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var metaJSON string
	err = tx.QueryRowContext(ctx, `SELECT meta FROM events WHERE id = ?`, eventID).Scan(&metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load event meta: %w", err)
	}

	meta := make(map[string]any)
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return fmt.Errorf("decode event meta: %w", err)
	}
	for k, v := range patch {
		meta[k] = v
	}
	merged, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode event meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE events SET meta = ? WHERE id = ?`, string(merged), eventID); err != nil {
		return fmt.Errorf("update event meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event meta: %w", err)
	}
	return nil
}

// ScoreFormat resolves one score format by id.
func (s *SQLStore) ScoreFormat(ctx context.Context, id string) (model.ScoreFormat, error) {
	var f model.ScoreFormat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, method, sport_id FROM score_formats WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.Method, &f.SportID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreFormat{}, fmt.Errorf("score format %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ScoreFormat{}, fmt.Errorf("load score format %s: %w", id, err)
	}
	return f, nil
}

// RegisterSport creates a sport by unique name, idempotently.
func (s *SQLStore) RegisterSport(ctx context.Context, name string) (model.Sport, error) {
	if name == "" {
		return model.Sport{}, fmt.Errorf("sport name: %w", ErrInvalidEntity)
	}

	var sp model.Sport
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM sports WHERE name = ?`, name).Scan(&sp.ID, &sp.Name)
	if err == nil {
		return sp, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Sport{}, fmt.Errorf("lookup sport %s: %w", name, err)
	}

	sp = model.Sport{ID: uuid.NewString(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sports (id, name) VALUES (?, ?)`, sp.ID, sp.Name); err != nil {
		return model.Sport{}, fmt.Errorf("insert sport %s: %w", name, err)
	}
	return sp, nil
}

// CreateScoreFormat stores a score format.
func (s *SQLStore) CreateScoreFormat(ctx context.Context, f model.ScoreFormat) (model.ScoreFormat, error) {
	if f.Method == "" {
		return model.ScoreFormat{}, fmt.Errorf("score format method: %w", ErrInvalidEntity)
	}
	if f.SportID != "" {
		if err := s.exists(ctx, "sports", f.SportID); err != nil {
			return model.ScoreFormat{}, fmt.Errorf("sport %s: %w", f.SportID, err)
		}
	}
	f.ID = newID(f.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO score_formats (id, name, method, sport_id) VALUES (?, ?, ?, ?)`,
		f.ID, f.Name, f.Method, f.SportID,
	)
	if err != nil {
		return model.ScoreFormat{}, fmt.Errorf("insert score format: %w", err)
	}
	return f, nil
}

// CreateEventFormat stores an event format template.
func (s *SQLStore) CreateEventFormat(ctx context.Context, f model.EventFormat) (model.EventFormat, error) {
	if err := s.exists(ctx, "sports", f.SportID); err != nil {
		return model.EventFormat{}, fmt.Errorf("sport %s: %w", f.SportID, err)
	}
	if err := s.exists(ctx, "score_formats", f.DefaultScoreFormatID); err != nil {
		return model.EventFormat{}, fmt.Errorf("score format %s: %w", f.DefaultScoreFormatID, err)
	}
	f.ID = newID(f.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_formats
		   (id, name, sport_id, default_score_format_id,
		    min_team_size, max_team_size, min_teams, max_teams, min_duration_ns, max_duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.SportID, f.DefaultScoreFormatID,
		f.MinTeamSize, f.MaxTeamSize, f.MinTeams, f.MaxTeams,
		int64(f.MinDuration), int64(f.MaxDuration),
	)
	if err != nil {
		return model.EventFormat{}, fmt.Errorf("insert event format: %w", err)
	}
	return f, nil
}

// CreateEventFormatStage stores a template stage node.
func (s *SQLStore) CreateEventFormatStage(ctx context.Context, st model.EventFormatStage) (model.EventFormatStage, error) {
	if err := s.exists(ctx, "event_formats", st.EventFormatID); err != nil {
		return model.EventFormatStage{}, fmt.Errorf("event format %s: %w", st.EventFormatID, err)
	}
	if st.ParentID != "" {
		if err := s.exists(ctx, "event_format_stages", st.ParentID); err != nil {
			return model.EventFormatStage{}, fmt.Errorf("parent stage %s: %w", st.ParentID, err)
		}
	}
	if taken, err := s.siblingTaken(ctx, "event_format_stages", "event_format_id", st.EventFormatID, st.ParentID, st.Number); err != nil {
		return model.EventFormatStage{}, err
	} else if taken {
		return model.EventFormatStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
	}

	st.ID = newID(st.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_format_stages (id, event_format_id, parent_id, number, name, score_format_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.EventFormatID, st.ParentID, st.Number, st.Name, st.ScoreFormatID,
	)
	if err != nil {
		return model.EventFormatStage{}, fmt.Errorf("insert format stage: %w", err)
	}
	return st, nil
}

// CreateVenue stores a venue.
func (s *SQLStore) CreateVenue(ctx context.Context, v model.Venue) (model.Venue, error) {
	v.ID = newID(v.ID)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO venues (id, name) VALUES (?, ?)`, v.ID, v.Name); err != nil {
		return model.Venue{}, fmt.Errorf("insert venue: %w", err)
	}
	return v, nil
}

// CreateVenueEventFormat instantiates an event format at a venue.
func (s *SQLStore) CreateVenueEventFormat(ctx context.Context, f model.VenueEventFormat) (model.VenueEventFormat, error) {
	if err := s.exists(ctx, "venues", f.VenueID); err != nil {
		return model.VenueEventFormat{}, fmt.Errorf("venue %s: %w", f.VenueID, err)
	}
	if err := s.exists(ctx, "event_formats", f.EventFormatID); err != nil {
		return model.VenueEventFormat{}, fmt.Errorf("event format %s: %w", f.EventFormatID, err)
	}
	f.ID = newID(f.ID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO venue_event_formats (id, venue_id, event_format_id, name) VALUES (?, ?, ?, ?)`,
		f.ID, f.VenueID, f.EventFormatID, f.Name,
	)
	if err != nil {
		return model.VenueEventFormat{}, fmt.Errorf("insert venue event format: %w", err)
	}
	return f, nil
}

// CreateVenueEventFormatStage mirrors one template stage at a venue.
func (s *SQLStore) CreateVenueEventFormatStage(ctx context.Context, st model.VenueEventFormatStage) (model.VenueEventFormatStage, error) {
	if err := s.exists(ctx, "venue_event_formats", st.VenueEventFormatID); err != nil {
		return model.VenueEventFormatStage{}, fmt.Errorf("venue event format %s: %w", st.VenueEventFormatID, err)
	}
	var tmplScoreFormat string
	err := s.db.QueryRowContext(ctx,
		`SELECT score_format_id FROM event_format_stages WHERE id = ?`, st.FormatStageID,
	).Scan(&tmplScoreFormat)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VenueEventFormatStage{}, fmt.Errorf("format stage %s: %w", st.FormatStageID, ErrNotFound)
	}
	if err != nil {
		return model.VenueEventFormatStage{}, fmt.Errorf("load format stage: %w", err)
	}
	if taken, err := s.siblingTaken(ctx, "venue_event_format_stages", "venue_event_format_id", st.VenueEventFormatID, st.ParentID, st.Number); err != nil {
		return model.VenueEventFormatStage{}, err
	} else if taken {
		return model.VenueEventFormatStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
	}
	if st.ScoreFormatID == "" {
		st.ScoreFormatID = tmplScoreFormat
	}

	st.ID = newID(st.ID)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO venue_event_format_stages
		   (id, venue_event_format_id, format_stage_id, parent_id, number, location, distance, score_format_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.VenueEventFormatID, st.FormatStageID, st.ParentID, st.Number, st.Location, st.Distance, st.ScoreFormatID,
	)
	if err != nil {
		return model.VenueEventFormatStage{}, fmt.Errorf("insert venue stage: %w", err)
	}
	return st, nil
}

// CreateEvent stores one concrete played instance.
func (s *SQLStore) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if err := s.exists(ctx, "venue_event_formats", e.VenueEventFormatID); err != nil {
		return model.Event{}, fmt.Errorf("venue event format %s: %w", e.VenueEventFormatID, err)
	}
	metaJSON, err := json.Marshal(orEmptyMeta(e.Meta))
	if err != nil {
		return model.Event{}, fmt.Errorf("encode event meta: %w", err)
	}
	e.ID = newID(e.ID)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, venue_event_format_id, start_at, end_at, active, meta) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.VenueEventFormatID, e.Start, e.End, e.Active, string(metaJSON),
	)
	if err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// CreateEventStage instantiates one stage for one event.
func (s *SQLStore) CreateEventStage(ctx context.Context, st model.EventStage) (model.EventStage, error) {
	var venueFormatID string
	err := s.db.QueryRowContext(ctx, `SELECT venue_event_format_id FROM events WHERE id = ?`, st.EventID).Scan(&venueFormatID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EventStage{}, fmt.Errorf("event %s: %w", st.EventID, ErrNotFound)
	}
	if err != nil {
		return model.EventStage{}, fmt.Errorf("load event: %w", err)
	}
	if st.ParentID != "" {
		if err := s.exists(ctx, "event_stages", st.ParentID); err != nil {
			return model.EventStage{}, fmt.Errorf("parent stage %s: %w", st.ParentID, err)
		}
	}
	if taken, err := s.siblingTaken(ctx, "event_stages", "event_id", st.EventID, st.ParentID, st.Number); err != nil {
		return model.EventStage{}, err
	} else if taken {
		return model.EventStage{}, fmt.Errorf("stage number %d under parent %q: %w", st.Number, st.ParentID, ErrConflict)
	}

	if st.ScoreFormatID == "" {
		st.ScoreFormatID, err = s.resolveStageFormat(ctx, st.VenueStageID, venueFormatID)
		if err != nil {
			return model.EventStage{}, err
		}
	}
	if err := s.exists(ctx, "score_formats", st.ScoreFormatID); err != nil {
		return model.EventStage{}, fmt.Errorf("score format %q: %w", st.ScoreFormatID, err)
	}

	st.ID = newID(st.ID)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO event_stages
		   (id, event_id, venue_stage_id, parent_id, number, name, score_format_id, start_at, end_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.EventID, st.VenueStageID, st.ParentID, st.Number, st.Name, st.ScoreFormatID, st.Start, st.End, st.Active,
	)
	if err != nil {
		return model.EventStage{}, fmt.Errorf("insert event stage: %w", err)
	}
	return st, nil
}

func (s *SQLStore) resolveStageFormat(ctx context.Context, venueStageID, venueFormatID string) (string, error) {
	if venueStageID != "" {
		var sf string
		err := s.db.QueryRowContext(ctx,
			`SELECT score_format_id FROM venue_event_format_stages WHERE id = ?`, venueStageID,
		).Scan(&sf)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("load venue stage: %w", err)
		}
		if sf != "" {
			return sf, nil
		}
	}
	var sf string
	err := s.db.QueryRowContext(ctx,
		`SELECT ef.default_score_format_id
		 FROM venue_event_formats vf JOIN event_formats ef ON ef.id = vf.event_format_id
		 WHERE vf.id = ?`,
		venueFormatID,
	).Scan(&sf)
	if err != nil {
		return "", fmt.Errorf("resolve default score format: %w", err)
	}
	return sf, nil
}

// CreateParticipant stores a player or team.
func (s *SQLStore) CreateParticipant(ctx context.Context, p model.Participant) (model.Participant, error) {
	if !p.IsTeam && len(p.MemberIDs) > 0 {
		return model.Participant{}, fmt.Errorf("player with members: %w", ErrInvalidEntity)
	}
	for _, mid := range p.MemberIDs {
		if err := s.exists(ctx, "participants", mid); err != nil {
			return model.Participant{}, fmt.Errorf("member %s: %w", mid, err)
		}
	}
	members, err := json.Marshal(orEmptyList(p.MemberIDs))
	if err != nil {
		return model.Participant{}, fmt.Errorf("encode member ids: %w", err)
	}
	p.ID = newID(p.ID)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO participants (id, name, is_team, member_ids) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.IsTeam, string(members),
	)
	if err != nil {
		return model.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return p, nil
}

// AddEventParticipant joins a participant to an event, once.
func (s *SQLStore) AddEventParticipant(ctx context.Context, eventID, participantID string) (model.EventParticipant, error) {
	if err := s.exists(ctx, "events", eventID); err != nil {
		return model.EventParticipant{}, fmt.Errorf("event %s: %w", eventID, err)
	}
	if err := s.exists(ctx, "participants", participantID); err != nil {
		return model.EventParticipant{}, fmt.Errorf("participant %s: %w", participantID, err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM event_participants WHERE event_id = ? AND participant_id = ?`,
		eventID, participantID,
	).Scan(&n); err != nil {
		return model.EventParticipant{}, fmt.Errorf("lookup event participant: %w", err)
	}
	if n > 0 {
		return model.EventParticipant{}, fmt.Errorf("participant %s already in event: %w", participantID, ErrConflict)
	}

	ep := model.EventParticipant{ID: uuid.NewString(), EventID: eventID, ParticipantID: participantID}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_participants (id, event_id, participant_id) VALUES (?, ?, ?)`,
		ep.ID, ep.EventID, ep.ParticipantID,
	)
	if err != nil {
		return model.EventParticipant{}, fmt.Errorf("insert event participant: %w", err)
	}
	return ep, nil
}

// Count reports stored entity counts.
func (s *SQLStore) Count(ctx context.Context) Counts {
	var c Counts
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events`).Scan(&c.Events)
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM event_stages`).Scan(&c.Stages)
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM participants`).Scan(&c.Participants)
	_ = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM stage_scores`).Scan(&c.Scores)
	return c
}

func (s *SQLStore) exists(ctx context.Context, table, id string) error {
	var n int
	// table names come from a fixed internal set, never from callers
	q := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE id = ?`, table) //nolint:gosec
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&n); err != nil {
		return fmt.Errorf("lookup %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) siblingTaken(ctx context.Context, table, ownerCol, ownerID, parentID string, number int) (bool, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE %s = ? AND parent_id = ? AND number = ?`, table, ownerCol) //nolint:gosec
	if err := s.db.QueryRowContext(ctx, q, ownerID, parentID, number).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup siblings in %s: %w", table, err)
	}
	return n > 0, nil
}

func orEmptyMeta(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptyList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
