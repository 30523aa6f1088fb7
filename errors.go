package stowgate

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrRangeNotSatisfiable is returned for malformed, multiple or out of bounds ranges
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
	// ErrInternal is returned when the backing store fails unexpectedly
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
