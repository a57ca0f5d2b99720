// Package rank computes tie-aware group results from per-participant point
// mappings using standard competition ranking.
package rank

import (
	"cmp"
	"slices"
)

// SimpleResult is the raw output of a scoring method for one group: a
// mapping from participant id to points, plus any statistics the method
// precomputed for consumers.
type SimpleResult struct {
	Points    map[string]float64            `json:"points"`
	Stats     map[string]map[string]float64 `json:"stats,omitempty"`
	ScoreType string                        `json:"score_type,omitempty"`
}

// Entry is the ranked outcome for one participant.
type Entry struct {
	ParticipantID string  `json:"participant_id"`
	Points        float64 `json:"points"`

	// Place is 1 for the best value; ties share a place and the next
	// distinct value advances by the tie-group size. PlaceFromEnd is the
	// symmetric rank from the bottom.
	Place        int `json:"place"`
	PlaceFromEnd int `json:"place_from_end"`

	// Won and Lost are true only for a strict best/worst value when more
	// than one distinct value exists; tied participants are neither.
	Won  bool `json:"won"`
	Lost bool `json:"lost"`
	Tied bool `json:"tied"`

	// WinMargin and LossMargin are the absolute distances to the group's
	// best and worst points. PointsBehindPrevious and PointsAheadOfNext
	// are the distances to the adjacent ranks in sort order.
	WinMargin            float64 `json:"win_margin"`
	LossMargin           float64 `json:"loss_margin"`
	PointsBehindPrevious float64 `json:"points_behind_previous"`
	PointsAheadOfNext    float64 `json:"points_ahead_of_next"`

	Stats map[string]float64 `json:"stats,omitempty"`
}

// GroupResult is the ranked, tie-aware output of scoring one set of
// participants' points.
type GroupResult struct {
	// Entries are sorted best-first with a deterministic tie-break on
	// participant id.
	Entries []Entry `json:"entries"`
	// Winners holds every participant tied at the best value.
	Winners       []string `json:"winners"`
	WinningPoints float64  `json:"winning_points"`

	HigherPointsBetter bool   `json:"higher_points_better"`
	ScoreType          string `json:"score_type,omitempty"`
}

// Entry returns the entry for participantID.
func (g GroupResult) Entry(participantID string) (Entry, bool) {
	for _, e := range g.Entries {
		if e.ParticipantID == participantID {
			return e, true
		}
	}
	return Entry{}, false
}

// IsWinner reports whether participantID is tied at the best value.
func (g GroupResult) IsWinner(participantID string) bool {
	return slices.Contains(g.Winners, participantID)
}

// Compute ranks a SimpleResult. An empty point set yields an empty result;
// a single participant is the sole winner with zero margins.
func Compute(sr SimpleResult, higherPointsBetter bool) GroupResult {
	out := GroupResult{
		HigherPointsBetter: higherPointsBetter,
		ScoreType:          sr.ScoreType,
	}
	if len(sr.Points) == 0 {
		return out
	}

	entries := make([]Entry, 0, len(sr.Points))
	for id, pts := range sr.Points {
		e := Entry{ParticipantID: id, Points: pts}
		if stats, ok := sr.Stats[id]; ok {
			e.Stats = stats
		}
		entries = append(entries, e)
	}

	// Sort best-first in the direction given by higherPointsBetter, with a
	// deterministic tie-break on participant id.
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Points != b.Points {
			if higherPointsBetter {
				return cmp.Compare(b.Points, a.Points)
			}
			return cmp.Compare(a.Points, b.Points)
		}
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})

	best := entries[0].Points
	worst := entries[len(entries)-1].Points
	distinct := countDistinct(entries)

	// Competition ranking: walk best-first assigning places with tie-skip
	// semantics, then symmetrically from the bottom for PlaceFromEnd.
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Place = entries[i-1].Place
		} else {
			entries[i].Place = i + 1
		}
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if i < len(entries)-1 && entries[i].Points == entries[i+1].Points {
			entries[i].PlaceFromEnd = entries[i+1].PlaceFromEnd
		} else {
			entries[i].PlaceFromEnd = len(entries) - i
		}
	}

	bestCount := 0
	worstCount := 0
	for _, e := range entries {
		if e.Points == best {
			bestCount++
		}
		if e.Points == worst {
			worstCount++
		}
	}

	for i := range entries {
		e := &entries[i]
		e.WinMargin = abs(e.Points - best)
		e.LossMargin = abs(e.Points - worst)
		if i > 0 {
			e.PointsBehindPrevious = abs(e.Points - entries[i-1].Points)
		}
		if i < len(entries)-1 {
			e.PointsAheadOfNext = abs(e.Points - entries[i+1].Points)
		}

		switch {
		case len(entries) == 1:
			// A lone participant is always the sole winner.
			e.Won = true
		case distinct > 1 && e.Points == best && bestCount == 1:
			e.Won = true
		case distinct > 1 && e.Points == worst && worstCount == 1:
			e.Lost = true
		}
		e.Tied = !e.Won && !e.Lost
	}

	out.Entries = entries
	out.WinningPoints = best
	for _, e := range entries {
		if e.Points == best {
			out.Winners = append(out.Winners, e.ParticipantID)
		}
	}
	return out
}

func countDistinct(entries []Entry) int {
	n := 0
	for i := range entries {
		if i == 0 || entries[i].Points != entries[i-1].Points {
			n++
		}
	}
	return n
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
