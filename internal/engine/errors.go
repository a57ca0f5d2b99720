package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	// ErrValidation means the bound scoring method rejected a raw value.
	// Nothing was written; the caller should re-prompt and retry.
	ErrValidation = errors.New("score value rejected")

	// ErrNotFound means the event, stage, or participant is absent from
	// the loaded event graph. Nothing was written.
	ErrNotFound = errors.New("not found")
)
