package method

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/internal/domain/rank"
)

// Score type labels attached to computed results.
const (
	ScoreTypeStrokes   = "strokes"
	ScoreTypePoints    = "points"
	ScoreTypeBestTime  = "besttime"
	ScoreTypeMatchPlay = "matchplay"
	ScoreTypeSets      = "sets"
)

// Builtins returns the scoring methods registered at startup.
func Builtins() []Method {
	return []Method{
		&strokesMethod{},
		&pointsMethod{},
		&bestTimeMethod{},
		&matchPlayMethod{},
		&setsMethod{},
	}
}

// RegisterBuiltins populates r with every built-in method.
func RegisterBuiltins(r *Registry) error {
	for _, m := range Builtins() {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// numericValue coerces the raw value shapes that reach methods: native Go
// numbers from in-process callers and float64/json.Number from JSON decoding.
func numericValue(v model.Value) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrInvalidValue, v)
	}
}

// numericSlice coerces a raw value to a slice of numbers.
func numericSlice(v model.Value) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return s, nil
	case []int:
		out := make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
		return out, nil
	case []any:
		out := make([]float64, len(s))
		for i, n := range s {
			f, err := numericValue(n)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected number list, got %T", ErrInvalidValue, v)
	}
}

// strokesMethod counts strokes: golf-style, fewest wins.
type strokesMethod struct{}

func (*strokesMethod) Name() string                    { return "strokes" }
func (*strokesMethod) HigherPointsBetter() bool        { return false }
func (*strokesMethod) PropagatesToSiblingStages() bool { return false }

func (*strokesMethod) ValueToPoints(v model.Value) (float64, error) {
	return numericValue(v)
}

func (*strokesMethod) Validate(v model.Value) bool {
	n, err := numericValue(v)
	return err == nil && n >= 0
}

// pointsMethod is generic accumulating points: trivia, archery, most wins.
type pointsMethod struct{}

func (*pointsMethod) Name() string                    { return "points" }
func (*pointsMethod) HigherPointsBetter() bool        { return true }
func (*pointsMethod) PropagatesToSiblingStages() bool { return false }

func (*pointsMethod) ValueToPoints(v model.Value) (float64, error) {
	return numericValue(v)
}

func (*pointsMethod) Validate(v model.Value) bool {
	_, err := numericValue(v)
	return err == nil
}

// bestTimeMethod ranks recorded times in seconds: swimming, sprints.
type bestTimeMethod struct{}

func (*bestTimeMethod) Name() string                    { return "besttime" }
func (*bestTimeMethod) HigherPointsBetter() bool        { return false }
func (*bestTimeMethod) PropagatesToSiblingStages() bool { return false }

func (*bestTimeMethod) ValueToPoints(v model.Value) (float64, error) {
	return numericValue(v)
}

func (*bestTimeMethod) Validate(v model.Value) bool {
	n, err := numericValue(v)
	return err == nil && n > 0
}

// setsMethod scores set/leg based racquet sports. The raw value is the list
// of per-game points won in the stage; its sum is the point contribution.
type setsMethod struct{}

func (*setsMethod) Name() string                    { return "sets" }
func (*setsMethod) HigherPointsBetter() bool        { return true }
func (*setsMethod) PropagatesToSiblingStages() bool { return false }

func (*setsMethod) ValueToPoints(v model.Value) (float64, error) {
	games, err := numericSlice(v)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, g := range games {
		sum += g
	}
	return sum, nil
}

func (*setsMethod) Validate(v model.Value) bool {
	games, err := numericSlice(v)
	if err != nil || len(games) == 0 {
		return false
	}
	for _, g := range games {
		if g < 0 {
			return false
		}
	}
	return true
}

// matchPlayMethod scores hole-by-hole match play: the raw value is strokes
// for the stage, the stage is worth one point split between the stage's
// leaders, and running totals accumulate across sibling stages. A stage
// score change therefore invalidates every later sibling stage.
type matchPlayMethod struct{}

// Stat names published by matchPlayMethod.
const (
	statRunningTotal = "running_total"
	statThrough      = "through"
	statStagesWon    = "stages_won"
)

func (*matchPlayMethod) Name() string                    { return "matchplay" }
func (*matchPlayMethod) HigherPointsBetter() bool        { return true }
func (*matchPlayMethod) PropagatesToSiblingStages() bool { return true }

func (*matchPlayMethod) ValueToPoints(v model.Value) (float64, error) {
	return numericValue(v)
}

func (*matchPlayMethod) Validate(v model.Value) bool {
	n, err := numericValue(v)
	return err == nil && n >= 0
}

// ScoreStage awards 1 point to a strict stroke leader, 0.5 to each of two
// or more tied leaders, and 0 otherwise, then carries a running stage-point
// total derived from the preceding sibling results.
func (m *matchPlayMethod) ScoreStage(_ context.Context, info StageInfo) (rank.SimpleResult, error) {
	sr := rank.SimpleResult{
		Points:    make(map[string]float64, len(info.Values)),
		Stats:     make(map[string]map[string]float64, len(info.Values)),
		ScoreType: ScoreTypeMatchPlay,
	}
	if len(info.Values) == 0 {
		return sr, nil
	}

	strokes := make(map[string]float64, len(info.Values))
	best := 0.0
	first := true
	for id, v := range info.Values {
		n, err := numericValue(v)
		if err != nil {
			return rank.SimpleResult{}, fmt.Errorf("stage %s participant %s: %w", info.Stage.ID, id, err)
		}
		strokes[id] = n
		if first || n < best {
			best = n
			first = false
		}
	}

	leaders := 0
	for _, n := range strokes {
		if n == best {
			leaders++
		}
	}

	for id, n := range strokes {
		var pts float64
		switch {
		case n == best && leaders == 1:
			pts = 1
		case n == best:
			pts = 0.5
		}
		sr.Points[id] = pts

		running := pts
		for _, prev := range info.Previous {
			if e, ok := prev.Entry(id); ok {
				running += e.Points
			}
		}
		sr.Stats[id] = map[string]float64{
			statRunningTotal: running,
			statThrough:      float64(len(info.Previous) + 1),
		}
	}
	return sr, nil
}

// ScoreEvent ranks participants by accumulated stage points and reports how
// many stages each won outright.
func (m *matchPlayMethod) ScoreEvent(_ context.Context, info EventInfo) (rank.SimpleResult, error) {
	sr := rank.SimpleResult{
		Points:    make(map[string]float64, len(info.Sums)),
		Stats:     make(map[string]map[string]float64, len(info.Sums)),
		ScoreType: ScoreTypeMatchPlay,
	}
	for id, sum := range info.Sums {
		sr.Points[id] = sum

		won := 0.0
		for _, stage := range info.StageResults {
			if e, ok := stage.Result.Entry(id); ok && e.Won {
				won++
			}
		}
		sr.Stats[id] = map[string]float64{statStagesWon: won}
	}
	return sr, nil
}
