// Package engine drives scoring recomputation: it turns one raw score write
// into a consistent set of derived stage results and an event-level
// aggregate, cascading to later sibling stages when the bound scoring
// method requires it.
package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/modularizer/gulfer/internal/domain/method"
	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/internal/domain/rank"
	"github.com/modularizer/gulfer/pkg/logger"
	"github.com/modularizer/gulfer/pkg/metrics"
)

// Store is the slice of the storage layer the engine drives. The engine is
// the only writer of derived score fields and event result annotations.
type Store interface {
	EventGraph(ctx context.Context, eventID string) (*model.EventGraph, error)
	StageScores(ctx context.Context, stageID string) ([]model.StageScore, error)
	UpsertStageScore(ctx context.Context, score model.StageScore) error
	UpdateEventMeta(ctx context.Context, eventID string, patch map[string]any) error
	ScoreFormat(ctx context.Context, id string) (model.ScoreFormat, error)
}

// Event metadata keys written by the engine.
const (
	MetaKeyResult     = "result"
	MetaKeyComputedAt = "result_computed_at"
)

// StageResult is one stage's ranked outcome in an event view.
type StageResult struct {
	StageID  string           `json:"stage_id"`
	Name     string           `json:"name,omitempty"`
	ParentID string           `json:"parent_id,omitempty"`
	Number   int              `json:"number"`
	Result   rank.GroupResult `json:"result"`
}

// EventScores is the read-only recomputation-from-source view: every
// stage's group result in tree order plus the event-level aggregate.
type EventScores struct {
	EventID string           `json:"event_id"`
	Stages  []StageResult    `json:"stages"`
	Event   rank.GroupResult `json:"event"`
}

// Engine owns the recomputation state machine. Cascades for one event are
// serialized by a keyed mutex; the method registry is read-only and shared.
type Engine struct {
	store   Store
	methods *method.Registry
	locks   *keyedMutex
	reads   singleflight.Group
	now     func() time.Time
	logger  logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine over a store and a populated method registry.
func New(store Store, methods *method.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		methods: methods,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("engine")
	}
	return e
}

// SetStageScore is the sole write entry point: it records one participant's
// raw value at one stage and recomputes every derived result that depends
// on it. Validation and lookup failures abort before any write; a failure
// partway through sibling propagation leaves earlier siblings committed and
// later ones stale, and a retry of the whole call converges because every
// stage recompute is a pure function of persisted raw values.
func (e *Engine) SetStageScore(ctx context.Context, eventID, stageID, participantID string, value model.Value) error {
	unlock := e.locks.lock(eventID)
	defer unlock()

	start := time.Now()
	metrics.RecordCascade()
	err := e.setStageScore(ctx, eventID, stageID, participantID, value)
	metrics.RecordCascadeDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordCascadeFailure()
		e.logger.Error(ctx, "cascade failed",
			logger.String("event", eventID),
			logger.String("stage", stageID),
			logger.String("participant", participantID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

func (e *Engine) setStageScore(ctx context.Context, eventID, stageID, participantID string, value model.Value) error {
	g, err := e.store.EventGraph(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	stage, ok := g.Stage(stageID)
	if !ok {
		return fmt.Errorf("stage %s in event %s: %w", stageID, eventID, ErrNotFound)
	}
	if _, ok := g.Participant(participantID); !ok {
		return fmt.Errorf("participant %s in event %s: %w", participantID, eventID, ErrNotFound)
	}

	m, err := e.methodForStage(ctx, stage)
	if err != nil {
		return err
	}
	if !m.Validate(value) {
		metrics.RecordSubmissionRejected()
		return fmt.Errorf("method %s, stage %s: %w", m.Name(), stageID, ErrValidation)
	}

	// Upsert the raw value, preserving fields the caller did not supply.
	row, existed := g.StageScore(stageID, participantID)
	if !existed {
		row = model.StageScore{EventStageID: stageID, ParticipantID: participantID}
	}
	row.Value = value
	row.CompletedAt = e.now()
	if err := e.store.UpsertStageScore(ctx, row); err != nil {
		return fmt.Errorf("persist raw value: %w", err)
	}

	// Score the target stage and persist its derived fields.
	chain, err := e.computeSiblingChain(ctx, g, stage.ParentID, stage.Number)
	if err != nil {
		return err
	}
	target := chain[len(chain)-1]
	if err := e.persistOutcome(ctx, target); err != nil {
		return err
	}
	if err := e.recomputeEvent(ctx, g); err != nil {
		return err
	}

	// Forward propagation: later sibling stages depend on earlier
	// outcomes, so recompute them in ascending number order.
	if m.PropagatesToSiblingStages() {
		full, err := e.computeSiblingChain(ctx, g, stage.ParentID, -1)
		if err != nil {
			return err
		}
		for _, out := range full {
			if out.Stage.Number <= stage.Number {
				continue
			}
			if err := e.persistOutcome(ctx, out); err != nil {
				return err
			}
			if err := e.recomputeEvent(ctx, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// EventScores recomputes every result from source without persisting
// anything. Concurrent reads for one event share a single computation.
// An event with no stages reads as an empty view when its default score
// format resolves; without one there is no method to aggregate with and the
// read fails with ErrNotFound.
func (e *Engine) EventScores(ctx context.Context, eventID string) (*EventScores, error) {
	v, err, _ := e.reads.Do(eventID, func() (any, error) {
		g, err := e.store.EventGraph(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("load event: %w", err)
		}
		outcomes, evResult, err := e.computeAll(ctx, g)
		if err != nil {
			return nil, err
		}

		view := &EventScores{EventID: eventID, Event: evResult}
		for _, out := range outcomes {
			view.Stages = append(view.Stages, StageResult{
				StageID:  out.Stage.ID,
				Name:     out.Stage.Name,
				ParentID: out.Stage.ParentID,
				Number:   out.Stage.Number,
				Result:   out.Result,
			})
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EventScores), nil
}

// stageOutcome pairs a stage with its computed results.
type stageOutcome struct {
	Stage  model.EventStage
	Simple rank.SimpleResult
	Result rank.GroupResult
}

func (e *Engine) methodForStage(ctx context.Context, stage model.EventStage) (method.Method, error) {
	f, err := e.store.ScoreFormat(ctx, stage.ScoreFormatID)
	if err != nil {
		return nil, fmt.Errorf("stage %s score format: %w", stage.ID, err)
	}
	m, err := e.methods.Lookup(f.Method)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage.ID, err)
	}
	return m, nil
}

// computeSiblingChain scores the ordered siblings under parentID from
// currently persisted raw values, feeding each stage the results of all
// preceding siblings. maxNumber bounds the chain inclusively; a negative
// value computes every sibling. Order is load-bearing: later stages in a
// propagating chain consume earlier outcomes.
func (e *Engine) computeSiblingChain(ctx context.Context, g *model.EventGraph, parentID string, maxNumber int) ([]stageOutcome, error) {
	var (
		outcomes []stageOutcome
		previous []rank.GroupResult
		sums     = make(map[string]float64)
		counts   = make(map[string]int)
	)

	for _, stage := range g.Siblings(parentID) {
		if maxNumber >= 0 && stage.Number > maxNumber {
			break
		}

		m, err := e.methodForStage(ctx, stage)
		if err != nil {
			return nil, err
		}
		rows, err := e.store.StageScores(ctx, stage.ID)
		if err != nil {
			return nil, fmt.Errorf("stage %s scores: %w", stage.ID, err)
		}

		// Participants with no recorded value are skipped, never ranked.
		values := make(map[string]model.Value, len(rows))
		for _, row := range rows {
			if row.Value == nil {
				continue
			}
			values[row.ParticipantID] = row.Value
			pts, err := m.ValueToPoints(row.Value)
			if err != nil {
				return nil, fmt.Errorf("stage %s participant %s: %w", stage.ID, row.ParticipantID, err)
			}
			sums[row.ParticipantID] += pts
			counts[row.ParticipantID]++
		}

		info := method.StageInfo{
			Event:    g.Event,
			Stage:    stage,
			Values:   values,
			Previous: append([]rank.GroupResult(nil), previous...),
			Sums:     copyFloats(sums),
			Averages: averages(sums, counts),
		}

		sr, err := e.scoreStage(ctx, m, info)
		if err != nil {
			return nil, err
		}
		out := stageOutcome{
			Stage:  stage,
			Simple: sr,
			Result: rank.Compute(sr, m.HigherPointsBetter()),
		}
		outcomes = append(outcomes, out)
		previous = append(previous, out.Result)
	}
	return outcomes, nil
}

// scoreStage runs the method's custom stage logic when present; the default
// maps every raw value through ValueToPoints directly to points.
func (e *Engine) scoreStage(ctx context.Context, m method.Method, info method.StageInfo) (rank.SimpleResult, error) {
	if scorer, ok := m.(method.StageScorer); ok {
		sr, err := scorer.ScoreStage(ctx, info)
		if err != nil {
			return rank.SimpleResult{}, fmt.Errorf("score stage %s: %w", info.Stage.ID, err)
		}
		if sr.ScoreType == "" {
			sr.ScoreType = m.Name()
		}
		return sr, nil
	}

	sr := rank.SimpleResult{
		Points:    make(map[string]float64, len(info.Values)),
		ScoreType: m.Name(),
	}
	for pid, v := range info.Values {
		pts, err := m.ValueToPoints(v)
		if err != nil {
			return rank.SimpleResult{}, fmt.Errorf("stage %s participant %s: %w", info.Stage.ID, pid, err)
		}
		sr.Points[pid] = pts
	}
	return sr, nil
}

// persistOutcome writes derived fields for every participant that has a
// score row at the stage. Participants without a raw value stay untouched.
func (e *Engine) persistOutcome(ctx context.Context, out stageOutcome) error {
	rows, err := e.store.StageScores(ctx, out.Stage.ID)
	if err != nil {
		return fmt.Errorf("stage %s scores: %w", out.Stage.ID, err)
	}
	for _, row := range rows {
		entry, ok := out.Result.Entry(row.ParticipantID)
		if !ok {
			continue
		}
		row.Points = entry.Points
		row.Won = entry.Won
		row.Lost = entry.Lost
		row.Tied = entry.Tied
		row.WinMargin = entry.WinMargin
		row.LossMargin = entry.LossMargin
		row.Meta = model.ScoreMeta{
			Place:        entry.Place,
			PlaceFromEnd: entry.PlaceFromEnd,
			ScoreType:    out.Result.ScoreType,
			Stats:        entry.Stats,
		}
		if err := e.store.UpsertStageScore(ctx, row); err != nil {
			return fmt.Errorf("persist stage %s result: %w", out.Stage.ID, err)
		}
	}
	metrics.RecordStageRecompute()
	return nil
}

// computeAll re-derives every stage's result in tree order plus the
// event-level aggregate, always from persisted scores.
func (e *Engine) computeAll(ctx context.Context, g *model.EventGraph) ([]stageOutcome, rank.GroupResult, error) {
	var (
		ordered  []stageOutcome
		computed = make(map[string]bool) // parent ids whose chain is done
		byStage  = make(map[string]stageOutcome)
	)
	for _, stage := range g.OrderedStages() {
		if !computed[stage.ParentID] {
			chain, err := e.computeSiblingChain(ctx, g, stage.ParentID, -1)
			if err != nil {
				return nil, rank.GroupResult{}, err
			}
			for _, out := range chain {
				byStage[out.Stage.ID] = out
			}
			computed[stage.ParentID] = true
		}
		ordered = append(ordered, byStage[stage.ID])
	}

	// Default event aggregation: per-participant sum of stage points
	// across all stages where a value was recorded.
	sums := make(map[string]float64)
	var stageResults []method.StageResult
	for _, out := range ordered {
		stageResults = append(stageResults, method.StageResult{
			StageID: out.Stage.ID,
			Number:  out.Stage.Number,
			Result:  out.Result,
		})
		for _, entry := range out.Result.Entries {
			sums[entry.ParticipantID] += entry.Points
		}
	}

	m, err := e.eventMethod(ctx, g)
	if err != nil {
		return nil, rank.GroupResult{}, err
	}

	var sr rank.SimpleResult
	if scorer, ok := m.(method.EventScorer); ok {
		sr, err = scorer.ScoreEvent(ctx, method.EventInfo{
			Event:        g.Event,
			StageResults: stageResults,
			Sums:         sums,
		})
		if err != nil {
			return nil, rank.GroupResult{}, fmt.Errorf("score event %s: %w", g.Event.ID, err)
		}
	} else {
		sr = rank.SimpleResult{Points: sums}
	}
	if sr.ScoreType == "" {
		sr.ScoreType = m.Name()
	}
	return ordered, rank.Compute(sr, m.HigherPointsBetter()), nil
}

// eventMethod resolves the scoring method used for event-level aggregation:
// the event's default score format, falling back to the first root stage's.
func (e *Engine) eventMethod(ctx context.Context, g *model.EventGraph) (method.Method, error) {
	formatID := g.ScoreFormatID
	if formatID == "" {
		roots := g.Siblings("")
		if len(roots) == 0 {
			return nil, fmt.Errorf("event %s has no stages: %w", g.Event.ID, ErrNotFound)
		}
		formatID = roots[0].ScoreFormatID
	}
	f, err := e.store.ScoreFormat(ctx, formatID)
	if err != nil {
		return nil, fmt.Errorf("event %s score format: %w", g.Event.ID, err)
	}
	m, err := e.methods.Lookup(f.Method)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", g.Event.ID, err)
	}
	return m, nil
}

// recomputeEvent re-derives every stage result and stores the event-level
// aggregate as a read-only annotation on the event metadata.
func (e *Engine) recomputeEvent(ctx context.Context, g *model.EventGraph) error {
	_, evResult, err := e.computeAll(ctx, g)
	if err != nil {
		return err
	}
	patch := map[string]any{
		MetaKeyResult:     evResult,
		MetaKeyComputedAt: e.now().UTC().Format(time.RFC3339Nano),
	}
	if err := e.store.UpdateEventMeta(ctx, g.Event.ID, patch); err != nil {
		return fmt.Errorf("persist event result: %w", err)
	}
	return nil
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func averages(sums map[string]float64, counts map[string]int) map[string]float64 {
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		if n := counts[k]; n > 0 {
			out[k] = sum / float64(n)
		}
	}
	return out
}
