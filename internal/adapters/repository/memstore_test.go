package repository_test

import (
	"context"
	"testing"

	"github.com/modularizer/gulfer/internal/adapters/repository"
	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// seed builds the structural chain down to an event with one stage.
func seed(t *testing.T, store *repository.MemStore) (model.Event, model.EventStage, model.ScoreFormat) {
	t.Helper()
	ctx := context.Background()

	sport, err := store.RegisterSport(ctx, "Golf")
	if err != nil {
		t.Fatalf("register sport: %v", err)
	}
	sf, err := store.CreateScoreFormat(ctx, model.ScoreFormat{Name: "stroke play", Method: "strokes", SportID: sport.ID})
	if err != nil {
		t.Fatalf("create score format: %v", err)
	}
	ef, err := store.CreateEventFormat(ctx, model.EventFormat{Name: "9 holes", SportID: sport.ID, DefaultScoreFormatID: sf.ID})
	if err != nil {
		t.Fatalf("create event format: %v", err)
	}
	venue, err := store.CreateVenue(ctx, model.Venue{Name: "North Course"})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	vf, err := store.CreateVenueEventFormat(ctx, model.VenueEventFormat{VenueID: venue.ID, EventFormatID: ef.ID})
	if err != nil {
		t.Fatalf("create venue event format: %v", err)
	}
	event, err := store.CreateEvent(ctx, model.Event{VenueEventFormatID: vf.ID, Active: true})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	stage, err := store.CreateEventStage(ctx, model.EventStage{EventID: event.ID, Number: 1, Name: "hole-1"})
	if err != nil {
		t.Fatalf("create event stage: %v", err)
	}
	return event, stage, sf
}

func TestRegisterSportIdempotent(t *testing.T) {
	convey.Convey("Given a store", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()

		convey.Convey("When registering the same sport name twice", func() {
			first, err := store.RegisterSport(ctx, "Golf")
			convey.So(err, convey.ShouldBeNil)
			second, err := store.RegisterSport(ctx, "Golf")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the same sport comes back", func() {
				convey.So(second.ID, convey.ShouldEqual, first.ID)
			})
		})

		convey.Convey("When registering an empty name", func() {
			_, err := store.RegisterSport(ctx, "")
			convey.So(err, convey.ShouldWrap, repository.ErrInvalidEntity)
		})
	})
}

func TestStageNumberUniqueness(t *testing.T) {
	convey.Convey("Given an event with a stage at number 1", t, func() {
		store := repository.NewMemStore()
		event, stage, _ := seed(t, store)
		ctx := context.Background()

		convey.Convey("When creating a sibling with the same number", func() {
			_, err := store.CreateEventStage(ctx, model.EventStage{EventID: event.ID, Number: 1, Name: "dup"})
			convey.So(err, convey.ShouldWrap, repository.ErrConflict)
		})

		convey.Convey("When creating a child with the same number", func() {
			child, err := store.CreateEventStage(ctx, model.EventStage{
				EventID:  event.ID,
				ParentID: stage.ID,
				Number:   1,
				Name:     "set-1",
			})

			convey.Convey("Then the number only has to be unique among siblings", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(child.ParentID, convey.ShouldEqual, stage.ID)
			})
		})

		convey.Convey("When creating a stage under an unknown parent", func() {
			_, err := store.CreateEventStage(ctx, model.EventStage{EventID: event.ID, ParentID: "nope", Number: 2})
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestScoreFormatResolution(t *testing.T) {
	convey.Convey("Given a seeded event", t, func() {
		store := repository.NewMemStore()
		event, stage, sf := seed(t, store)
		ctx := context.Background()

		convey.Convey("Then a stage created without a score format inherits the default", func() {
			convey.So(stage.ScoreFormatID, convey.ShouldEqual, sf.ID)
		})

		convey.Convey("Then an explicit stage override wins", func() {
			override, err := store.CreateScoreFormat(ctx, model.ScoreFormat{Name: "tiebreak", Method: "points"})
			convey.So(err, convey.ShouldBeNil)

			st, err := store.CreateEventStage(ctx, model.EventStage{
				EventID:       event.ID,
				Number:        2,
				ScoreFormatID: override.ID,
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(st.ScoreFormatID, convey.ShouldEqual, override.ID)
		})

		convey.Convey("Then the event graph exposes the format default", func() {
			g, err := store.EventGraph(ctx, event.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(g.ScoreFormatID, convey.ShouldEqual, sf.ID)
		})
	})
}

func TestUpsertStageScore(t *testing.T) {
	convey.Convey("Given a seeded event with a participant", t, func() {
		store := repository.NewMemStore()
		event, stage, _ := seed(t, store)
		ctx := context.Background()

		p, err := store.CreateParticipant(ctx, model.Participant{ID: "alice", Name: "alice"})
		convey.So(err, convey.ShouldBeNil)
		_, err = store.AddEventParticipant(ctx, event.ID, p.ID)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When writing a score twice for the same pair", func() {
			err := store.UpsertStageScore(ctx, model.StageScore{EventStageID: stage.ID, ParticipantID: p.ID, Value: float64(4)})
			convey.So(err, convey.ShouldBeNil)

			rows, err := store.StageScores(ctx, stage.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(rows), convey.ShouldEqual, 1)
			firstID := rows[0].ID

			err = store.UpsertStageScore(ctx, model.StageScore{EventStageID: stage.ID, ParticipantID: p.ID, Value: float64(6), Points: 6})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the row is replaced wholesale under a stable id", func() {
				rows, err := store.StageScores(ctx, stage.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 1)
				convey.So(rows[0].ID, convey.ShouldEqual, firstID)
				convey.So(rows[0].Value, convey.ShouldEqual, float64(6))
				convey.So(rows[0].Points, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When writing against an unknown stage", func() {
			err := store.UpsertStageScore(ctx, model.StageScore{EventStageID: "nope", ParticipantID: p.ID})
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})

		convey.Convey("When joining the same participant twice", func() {
			_, err := store.AddEventParticipant(ctx, event.ID, p.ID)
			convey.So(err, convey.ShouldWrap, repository.ErrConflict)
		})
	})
}

func TestEventGraphAndMeta(t *testing.T) {
	convey.Convey("Given a seeded event", t, func() {
		store := repository.NewMemStore()
		event, stage, _ := seed(t, store)
		ctx := context.Background()

		convey.Convey("When loading an unknown event", func() {
			_, err := store.EventGraph(ctx, "missing")
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})

		convey.Convey("When merging metadata patches", func() {
			convey.So(store.UpdateEventMeta(ctx, event.ID, map[string]any{"a": 1}), convey.ShouldBeNil)
			convey.So(store.UpdateEventMeta(ctx, event.ID, map[string]any{"b": 2}), convey.ShouldBeNil)

			convey.Convey("Then both keys survive", func() {
				g, err := store.EventGraph(ctx, event.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(g.Event.Meta["a"], convey.ShouldEqual, 1)
				convey.So(g.Event.Meta["b"], convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When counting stored entities", func() {
			c := store.Count(ctx)
			convey.So(c.Events, convey.ShouldEqual, 1)
			convey.So(c.Stages, convey.ShouldEqual, 1)
		})

		convey.Convey("When adding more stages", func() {
			second, err := store.CreateEventStage(ctx, model.EventStage{EventID: event.ID, Number: 2})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the graph orders siblings by number", func() {
				g, err := store.EventGraph(ctx, event.ID)
				convey.So(err, convey.ShouldBeNil)
				sibs := g.Siblings("")
				convey.So(len(sibs), convey.ShouldEqual, 2)
				convey.So(sibs[0].ID, convey.ShouldEqual, stage.ID)
				convey.So(sibs[1].ID, convey.ShouldEqual, second.ID)
			})
		})
	})
}

func TestParticipants(t *testing.T) {
	convey.Convey("Given a store", t, func() {
		store := repository.NewMemStore()
		ctx := context.Background()

		convey.Convey("When creating a team from existing players", func() {
			p1, err := store.CreateParticipant(ctx, model.Participant{Name: "alice"})
			convey.So(err, convey.ShouldBeNil)
			p2, err := store.CreateParticipant(ctx, model.Participant{Name: "bob"})
			convey.So(err, convey.ShouldBeNil)

			team, err := store.CreateParticipant(ctx, model.Participant{
				Name:      "pairs",
				IsTeam:    true,
				MemberIDs: []string{p1.ID, p2.ID},
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(team.IsTeam, convey.ShouldBeTrue)

			convey.Convey("Then a team cannot contain a team", func() {
				_, err := store.CreateParticipant(ctx, model.Participant{
					Name:      "super-team",
					IsTeam:    true,
					MemberIDs: []string{team.ID},
				})
				convey.So(err, convey.ShouldWrap, repository.ErrInvalidEntity)
			})
		})

		convey.Convey("When a player carries member ids", func() {
			_, err := store.CreateParticipant(ctx, model.Participant{Name: "solo", MemberIDs: []string{"x"}})
			convey.So(err, convey.ShouldWrap, repository.ErrInvalidEntity)
		})

		convey.Convey("When a team references an unknown member", func() {
			_, err := store.CreateParticipant(ctx, model.Participant{Name: "ghosts", IsTeam: true, MemberIDs: []string{"nope"}})
			convey.So(err, convey.ShouldWrap, repository.ErrNotFound)
		})
	})
}
