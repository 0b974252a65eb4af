package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a snapshot or sync run is not found.
	ErrNotFound = errors.New("record not found")
)
