package catalog

import "errors"

var (
	// ErrNotFound is returned when a name or condition matches no record
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when a request cannot be answered with the resolved input
	ErrInvalidRequest = errors.New("invalid request")
)
