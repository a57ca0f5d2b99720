// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/modularizer/gulfer/internal/engine"
)

// EventDependencies defines the interface for event read operations.
type EventDependencies interface {
	EventScores(ctx context.Context, eventID string) (*engine.EventScores, error)
}

// EventsHandler handles event read requests.
type EventsHandler struct {
	deps     EventDependencies
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, maxLimit int) *EventsHandler {
	return &EventsHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetEvent routes GET /events/{event_id}/scores and
// GET /events/{event_id}/leaderboard requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	segs := pathSegments(r.URL.Path, "/events/")
	if len(segs) != 2 || segs[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	eventID := segs[0]
	switch segs[1] {
	case "scores":
		h.handleScores(w, r, eventID)
	case "leaderboard":
		h.handleLeaderboard(w, r, eventID)
	default:
		http.NotFound(w, r)
	}
}

// handleScores serves the full per-stage and event-level standings.
func (h *EventsHandler) handleScores(w http.ResponseWriter, r *http.Request, eventID string) {
	const op = "api.get_event_scores"
	view, err := h.deps.EventScores(r.Context(), eventID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleLeaderboard serves the event-level ranking, optionally truncated
// by a limit query parameter.
func (h *EventsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request, eventID string) {
	const op = "api.get_event_leaderboard"

	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	view, err := h.deps.EventScores(r.Context(), eventID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	board := view.Event
	if len(board.Entries) > limit {
		board.Entries = board.Entries[:limit]
	}
	writeJSON(w, http.StatusOK, board)
}
