package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a uniqueness conflict, e.g. creating a grant that
	// already exists for the same key.
	ErrConflict = errors.New("conflict")
)
