// Package repository defines the scoring store contract and its backends.
package repository

import (
	"context"

	"github.com/modularizer/gulfer/internal/domain/model"
)

// Store provides structural setup plus the read/write surface the
// recomputation engine drives. Raw score values are owned by callers; the
// derived fields on score rows are owned by the engine.
type Store interface {
	// Engine-facing reads and writes.

	// EventGraph loads one event together with its full participant list,
	// its ordered stage list, and the current score rows.
	// Returns ErrNotFound when the event is unknown.
	EventGraph(ctx context.Context, eventID string) (*model.EventGraph, error)

	// StageScores returns the current score rows for one stage.
	StageScores(ctx context.Context, stageID string) ([]model.StageScore, error)

	// UpsertStageScore writes the row for (EventStageID, ParticipantID),
	// replacing an existing row wholesale.
	UpsertStageScore(ctx context.Context, score model.StageScore) error

	// UpdateEventMeta merges patch into the event's metadata bag.
	UpdateEventMeta(ctx context.Context, eventID string, patch map[string]any) error

	// ScoreFormat resolves one score format by id.
	ScoreFormat(ctx context.Context, id string) (model.ScoreFormat, error)

	// Structural setup, owned by callers outside the engine's write path.

	// RegisterSport creates a sport by unique name, idempotently: calling
	// it again with the same name returns the existing sport.
	RegisterSport(ctx context.Context, name string) (model.Sport, error)

	CreateScoreFormat(ctx context.Context, f model.ScoreFormat) (model.ScoreFormat, error)
	CreateEventFormat(ctx context.Context, f model.EventFormat) (model.EventFormat, error)
	CreateEventFormatStage(ctx context.Context, s model.EventFormatStage) (model.EventFormatStage, error)
	CreateVenue(ctx context.Context, v model.Venue) (model.Venue, error)
	CreateVenueEventFormat(ctx context.Context, f model.VenueEventFormat) (model.VenueEventFormat, error)
	CreateVenueEventFormatStage(ctx context.Context, s model.VenueEventFormatStage) (model.VenueEventFormatStage, error)
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	CreateEventStage(ctx context.Context, s model.EventStage) (model.EventStage, error)
	CreateParticipant(ctx context.Context, p model.Participant) (model.Participant, error)
	AddEventParticipant(ctx context.Context, eventID, participantID string) (model.EventParticipant, error)

	// Count reports stored entity counts for monitoring.
	Count(ctx context.Context) Counts

	Close() error
}

// Counts is a monitoring snapshot of store contents.
type Counts struct {
	Events       int `json:"events"`
	Stages       int `json:"stages"`
	Participants int `json:"participants"`
	Scores       int `json:"scores"`
}
