// Package method defines the pluggable scoring-method strategy: the
// per-sport behavior that turns raw recorded values into points, plus the
// registry implementations are looked up from by name.
package method

import (
	"context"

	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/internal/domain/rank"
)

// Method is the capability interface every scoring method implements.
// Implementations may additionally implement StageScorer and EventScorer
// for full custom ranking logic; the engine discovers those by assertion.
type Method interface {
	// Name identifies the method in the registry and in score formats.
	Name() string

	// HigherPointsBetter gives the sort direction for ranking.
	HigherPointsBetter() bool

	// PropagatesToSiblingStages reports whether a change to one stage's
	// score must trigger recomputation of every subsequent sibling stage
	// (cumulative and elimination formats).
	PropagatesToSiblingStages() bool

	// ValueToPoints converts one raw value into a point contribution. It
	// backs default per-stage scoring and the precomputed sums/averages
	// fed to custom logic.
	ValueToPoints(v model.Value) (float64, error)

	// Validate rejects structurally invalid raw values before they are
	// persisted.
	Validate(v model.Value) bool
}

// StageInfo is everything a custom stage scorer may consume.
type StageInfo struct {
	Event model.Event
	Stage model.EventStage

	// Values holds every participant's current raw value at this stage.
	// Participants with no recorded value are absent.
	Values map[string]model.Value

	// Previous holds the already-computed group results of all preceding
	// sibling stages, in stage number order.
	Previous []rank.GroupResult

	// Sums and Averages are per-participant ValueToPoints aggregates over
	// the sibling stages up to and including this one.
	Sums     map[string]float64
	Averages map[string]float64
}

// StageScorer is the optional capability for full custom per-stage ranking.
type StageScorer interface {
	ScoreStage(ctx context.Context, info StageInfo) (rank.SimpleResult, error)
}

// StageResult pairs one stage with its computed group result.
type StageResult struct {
	StageID string
	Number  int
	Result  rank.GroupResult
}

// EventInfo is everything a custom event scorer may consume.
type EventInfo struct {
	Event model.Event

	// StageResults holds every stage's already-computed group result in
	// tree order.
	StageResults []StageResult

	// Sums is the precomputed per-participant sum of stage points.
	Sums map[string]float64
}

// EventScorer is the optional capability for full custom event-level
// aggregation. When absent, the engine sums each participant's per-stage
// points.
type EventScorer interface {
	ScoreEvent(ctx context.Context, info EventInfo) (rank.SimpleResult, error)
}
