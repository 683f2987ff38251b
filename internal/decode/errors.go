package decode

import "errors"

var (
	// ErrConfig marks malformed or contradictory generation options.
	// Detected once at setup, never retried.
	ErrConfig = errors.New("decode: invalid generation options")

	// ErrInputTooLong is returned when the prompt does not fit in the
	// resolved maximum length.
	ErrInputTooLong = errors.New("decode: prompt longer than max length")
)
