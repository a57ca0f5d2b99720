// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/modularizer/gulfer/internal/domain/dedupe"
	"github.com/modularizer/gulfer/internal/domain/model"
	"github.com/modularizer/gulfer/pkg/metrics"
)

// ScoreDependencies defines the interface for score ingestion dependencies.
type ScoreDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.ScoreSubmission) bool
}

// scoreRequest mirrors the wire schema for POST /scores.
type scoreRequest struct {
	SubmissionID  string      `json:"submission_id"`
	EventID       string      `json:"event_id"`
	StageID       string      `json:"stage_id"`
	ParticipantID string      `json:"participant_id"`
	Value         model.Value `json:"value"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return errors.New("missing submission_id")
	case strings.TrimSpace(s.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(s.StageID) == "":
		return errors.New("missing stage_id")
	case strings.TrimSpace(s.ParticipantID) == "":
		return errors.New("missing participant_id")
	case s.Value == nil:
		return errors.New("missing value")
	}
	return nil
}

// ScoresHandler handles score submission requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordSubmissionRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordSubmissionRejected()
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		metrics.RecordSubmissionDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	sub := model.ScoreSubmission{
		SubmissionID:  req.SubmissionID,
		EventID:       req.EventID,
		StageID:       req.StageID,
		ParticipantID: req.ParticipantID,
		Value:         req.Value,
		ReceivedAt:    time.Now().UTC(),
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.SubmissionID)
		metrics.RecordSubmissionRejected()
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
