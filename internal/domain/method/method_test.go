package method_test

import (
	"context"
	"testing"

	"github.com/modularizer/gulfer/internal/domain/method"
	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/internal/domain/rank"
	"github.com/smartystreets/goconvey/convey"
)

type fakeMethod struct {
	name string
}

func (f *fakeMethod) Name() string                    { return f.name }
func (f *fakeMethod) HigherPointsBetter() bool        { return true }
func (f *fakeMethod) PropagatesToSiblingStages() bool { return false }
func (f *fakeMethod) ValueToPoints(v model.Value) (float64, error) {
	return 0, nil
}
func (f *fakeMethod) Validate(v model.Value) bool { return true }

func TestRegistry(t *testing.T) {
	convey.Convey("Given an empty registry", t, func() {
		r := method.NewRegistry()

		convey.Convey("When registering a method", func() {
			err := r.Register(&fakeMethod{name: "custom"})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it can be looked up by name", func() {
				m, err := r.Lookup("custom")
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.Name(), convey.ShouldEqual, "custom")
			})

			convey.Convey("Then registering the same name again fails", func() {
				err := r.Register(&fakeMethod{name: "custom"})
				convey.So(err, convey.ShouldWrap, method.ErrAlreadyRegistered)
			})
		})

		convey.Convey("When registering a method with an empty name", func() {
			err := r.Register(&fakeMethod{name: ""})
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When looking up an unknown name", func() {
			_, err := r.Lookup("nope")
			convey.So(err, convey.ShouldWrap, method.ErrNotRegistered)
		})
	})

	convey.Convey("Given a registry with all built-ins", t, func() {
		r := method.NewRegistry()
		err := method.RegisterBuiltins(r)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then every built-in is resolvable", func() {
			for _, name := range []string{"strokes", "points", "besttime", "matchplay", "sets"} {
				m, err := r.Lookup(name)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.Name(), convey.ShouldEqual, name)
			}
			convey.So(len(r.Names()), convey.ShouldEqual, 5)
		})
	})
}

func TestBuiltinValidation(t *testing.T) {
	r := method.NewRegistry()
	if err := method.RegisterBuiltins(r); err != nil {
		t.Fatalf("register builtins: %v", err)
	}

	convey.Convey("Given the strokes method", t, func() {
		m, _ := r.Lookup("strokes")

		convey.Convey("Then lower is better and it accepts non-negative numbers", func() {
			convey.So(m.HigherPointsBetter(), convey.ShouldBeFalse)
			convey.So(m.Validate(4), convey.ShouldBeTrue)
			convey.So(m.Validate(0), convey.ShouldBeTrue)
			convey.So(m.Validate(-1), convey.ShouldBeFalse)
			convey.So(m.Validate("four"), convey.ShouldBeFalse)
		})

		convey.Convey("Then points equal the raw value", func() {
			pts, err := m.ValueToPoints(float64(5))
			convey.So(err, convey.ShouldBeNil)
			convey.So(pts, convey.ShouldEqual, 5)
		})
	})

	convey.Convey("Given the besttime method", t, func() {
		m, _ := r.Lookup("besttime")

		convey.Convey("Then zero and negative times are rejected", func() {
			convey.So(m.Validate(58.91), convey.ShouldBeTrue)
			convey.So(m.Validate(0), convey.ShouldBeFalse)
			convey.So(m.Validate(-3.2), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given the points method", t, func() {
		m, _ := r.Lookup("points")

		convey.Convey("Then higher is better and any number is accepted", func() {
			convey.So(m.HigherPointsBetter(), convey.ShouldBeTrue)
			convey.So(m.Validate(-2), convey.ShouldBeTrue)
			convey.So(m.Validate(nil), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given the sets method", t, func() {
		m, _ := r.Lookup("sets")

		convey.Convey("Then the raw value is a non-empty list of non-negative games", func() {
			convey.So(m.Validate([]float64{6, 4, 6}), convey.ShouldBeTrue)
			convey.So(m.Validate([]int{6, 4}), convey.ShouldBeTrue)
			convey.So(m.Validate([]float64{}), convey.ShouldBeFalse)
			convey.So(m.Validate([]float64{6, -1}), convey.ShouldBeFalse)
			convey.So(m.Validate(6), convey.ShouldBeFalse)
		})

		convey.Convey("Then points are the sum of games", func() {
			pts, err := m.ValueToPoints([]any{float64(6), float64(4), float64(7)})
			convey.So(err, convey.ShouldBeNil)
			convey.So(pts, convey.ShouldEqual, 17)
		})

		convey.Convey("Then a non-list value errors", func() {
			_, err := m.ValueToPoints("6-4")
			convey.So(err, convey.ShouldWrap, method.ErrInvalidValue)
		})
	})
}

func TestMatchPlayScoring(t *testing.T) {
	r := method.NewRegistry()
	if err := method.RegisterBuiltins(r); err != nil {
		t.Fatalf("register builtins: %v", err)
	}
	m, _ := r.Lookup("matchplay")
	ctx := context.Background()

	convey.Convey("Given the matchplay method", t, func() {
		convey.So(m.PropagatesToSiblingStages(), convey.ShouldBeTrue)

		scorer, ok := m.(method.StageScorer)
		convey.So(ok, convey.ShouldBeTrue)

		convey.Convey("When one participant leads a stage outright", func() {
			sr, err := scorer.ScoreStage(ctx, method.StageInfo{
				Stage:  model.EventStage{ID: "hole-1"},
				Values: map[string]model.Value{"alice": 3, "bob": 5},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the leader takes the full stage point", func() {
				convey.So(sr.Points["alice"], convey.ShouldEqual, 1)
				convey.So(sr.Points["bob"], convey.ShouldEqual, 0)
				convey.So(sr.Stats["alice"]["running_total"], convey.ShouldEqual, 1)
				convey.So(sr.Stats["alice"]["through"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the stage is halved", func() {
			sr, err := scorer.ScoreStage(ctx, method.StageInfo{
				Stage:  model.EventStage{ID: "hole-1"},
				Values: map[string]model.Value{"alice": 4, "bob": 4},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then each leader takes half a point", func() {
				convey.So(sr.Points["alice"], convey.ShouldEqual, 0.5)
				convey.So(sr.Points["bob"], convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When previous stage results exist", func() {
			prev := rank.Compute(rank.SimpleResult{
				Points: map[string]float64{"alice": 1, "bob": 0},
			}, true)
			sr, err := scorer.ScoreStage(ctx, method.StageInfo{
				Stage:    model.EventStage{ID: "hole-2"},
				Values:   map[string]model.Value{"alice": 5, "bob": 3},
				Previous: []rank.GroupResult{prev},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then running totals accumulate across stages", func() {
				convey.So(sr.Points["bob"], convey.ShouldEqual, 1)
				convey.So(sr.Stats["alice"]["running_total"], convey.ShouldEqual, 1)
				convey.So(sr.Stats["bob"]["running_total"], convey.ShouldEqual, 1)
				convey.So(sr.Stats["bob"]["through"], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a raw value is not numeric", func() {
			_, err := scorer.ScoreStage(ctx, method.StageInfo{
				Stage:  model.EventStage{ID: "hole-1"},
				Values: map[string]model.Value{"alice": "three"},
			})
			convey.So(err, convey.ShouldWrap, method.ErrInvalidValue)
		})

		convey.Convey("When aggregating the event", func() {
			eventScorer, ok := m.(method.EventScorer)
			convey.So(ok, convey.ShouldBeTrue)

			hole1 := rank.Compute(rank.SimpleResult{Points: map[string]float64{"alice": 1, "bob": 0}}, true)
			hole2 := rank.Compute(rank.SimpleResult{Points: map[string]float64{"alice": 0.5, "bob": 0.5}}, true)

			sr, err := eventScorer.ScoreEvent(ctx, method.EventInfo{
				StageResults: []method.StageResult{
					{StageID: "hole-1", Number: 1, Result: hole1},
					{StageID: "hole-2", Number: 2, Result: hole2},
				},
				Sums: map[string]float64{"alice": 1.5, "bob": 0.5},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then points are the stage-point sums with stages_won stats", func() {
				convey.So(sr.Points["alice"], convey.ShouldEqual, 1.5)
				convey.So(sr.Points["bob"], convey.ShouldEqual, 0.5)
				convey.So(sr.Stats["alice"]["stages_won"], convey.ShouldEqual, 1)
				convey.So(sr.Stats["bob"]["stages_won"], convey.ShouldEqual, 0)
			})
		})
	})
}
