package auth

import "errors"

var (
	// ErrSuperseded is returned by an operation whose result arrived after a
	// sign-out discarded the client it ran against.
	ErrSuperseded = errors.New("superseded by sign-out")
)
