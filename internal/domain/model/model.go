// Package model contains the structural entities the scoring engine
// operates over: sports, formats, the stage trees, events, participants,
// and recorded scores.
package model

import "time"

// Value is one recorded raw score value. Its structure is sport-defined and
// opaque to the engine; only the bound scoring method interprets it.
type Value any

// Sport is a named category of competition, e.g. "Golf". Names are unique
// and registration is idempotent.
type Sport struct {
	ID   string
	Name string
}

// ScoreFormat names a scoring method and binds it to a sport. One scoring
// method implementation may back many score formats. SportID is empty for
// sport-agnostic formats.
type ScoreFormat struct {
	ID      string
	Name    string
	Method  string // scoring-method identifier, resolved via the method registry
	SportID string
}

// EventFormat is a structural template for a competition, e.g. an 18-hole
// round or a best-of-3 match.
type EventFormat struct {
	ID                   string
	Name                 string
	SportID              string
	DefaultScoreFormatID string

	MinTeamSize int
	MaxTeamSize int
	MinTeams    int
	MaxTeams    int

	MinDuration time.Duration
	MaxDuration time.Duration
}

// EventFormatStage is a node in the template stage tree. ParentID is empty
// for root stages. The triple (EventFormatID, ParentID, Number) is unique
// among siblings; Number gives deterministic sibling order.
type EventFormatStage struct {
	ID            string
	EventFormatID string
	ParentID      string
	Number        int
	Name          string
	// ScoreFormatID overrides the format default when set; a stage may
	// score differently than its siblings (e.g. a tie-break game).
	ScoreFormatID string
}

// Venue is a physical place formats get instantiated at.
type Venue struct {
	ID   string
	Name string
}

// VenueEventFormat instantiates an event format template at one venue so
// that the same template can carry venue-specific overrides.
type VenueEventFormat struct {
	ID            string
	VenueID       string
	EventFormatID string
	Name          string
}

// VenueEventFormatStage mirrors one template stage for one venue, adding
// venue metadata such as location and distance.
type VenueEventFormatStage struct {
	ID                 string
	VenueEventFormatID string
	FormatStageID      string
	ParentID           string
	Number             int
	Location           string
	Distance           float64
	ScoreFormatID      string
}

// Event is one concrete played instance of a venue event format.
type Event struct {
	ID                 string
	VenueEventFormatID string
	Start              time.Time
	End                time.Time
	Active             bool
	// Meta carries engine-derived annotations such as the event-level
	// result. It is a read-only view for consumers.
	Meta map[string]any
}

// EventStage is the concrete instantiation of one venue-format stage for
// one event. ScoreFormatID is always resolved at instantiation time (stage
// override or format default).
type EventStage struct {
	ID            string
	EventID       string
	VenueStageID  string
	ParentID      string
	Number        int
	Name          string
	ScoreFormatID string
	Start         time.Time
	End           time.Time
	Active        bool
}

// Participant is a player or a team. Teams own a set of player
// participants via MemberIDs.
type Participant struct {
	ID        string
	Name      string
	IsTeam    bool
	MemberIDs []string
}

// EventParticipant joins a participant to an event.
type EventParticipant struct {
	ID            string
	EventID       string
	ParticipantID string
}

// ScoreMeta carries rank and computed statistics for one stage score.
type ScoreMeta struct {
	Place        int
	PlaceFromEnd int
	ScoreType    string
	Stats        map[string]float64
}

// StageScore is the central mutable fact: one participant's recorded raw
// value at one concrete stage, plus the derived fields owned exclusively by
// the recomputation engine. Derived fields are never hand-edited; they are
// always the output of the most recent recomputation for the stage.
type StageScore struct {
	ID            string
	EventStageID  string
	ParticipantID string

	Value       Value
	CompletedAt time.Time

	// Derived fields below.
	Points     float64
	Won        bool
	Lost       bool
	Tied       bool
	WinMargin  float64
	LossMargin float64
	Meta       ScoreMeta
}

// ScoreSubmission is one raw score write request flowing through the
// ingestion queue. SubmissionID is the client idempotency key.
type ScoreSubmission struct {
	SubmissionID  string
	EventID       string
	StageID       string
	ParticipantID string
	Value         Value
	ReceivedAt    time.Time
}
