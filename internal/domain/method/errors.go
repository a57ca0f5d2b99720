package method

import "errors"

// Sentinel kinds for scoring-method errors.
var (
	// ErrNotRegistered means a score format references a method name with
	// no registered implementation. This is a configuration defect and
	// must fail loudly, never fall back at runtime.
	ErrNotRegistered = errors.New("scoring method not registered")

	// ErrAlreadyRegistered guards against two implementations claiming
	// one name.
	ErrAlreadyRegistered = errors.New("scoring method already registered")

	// ErrInvalidValue means a raw value has the wrong shape for the
	// method interpreting it.
	ErrInvalidValue = errors.New("invalid raw score value")
)
