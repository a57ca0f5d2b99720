package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrNotFound covers missing events, stages, participants, formats,
	// and score rows.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers uniqueness violations, e.g. two sibling stages
	// claiming one number or a duplicate event participant.
	ErrConflict = errors.New("conflict")

	// ErrInvalidEntity covers structurally incomplete entities handed to
	// the setup API.
	ErrInvalidEntity = errors.New("invalid entity")
)
