package services

import "errors"

// Service operations fail closed: a failed call changes nothing and
// returns one of these values. ErrNotFound deliberately covers both
// missing entities and denied access, so a caller cannot tell whether a
// private entity exists.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found or not available")
	ErrConflict     = errors.New("already exists")
	ErrStateDenied  = errors.New("not allowed in the timer's current state")
)
