package entity

import "errors"

var (
	// ErrInvalidCode is returned when an airport code is empty after trimming.
	ErrInvalidCode = errors.New("invalid airport code")

	// ErrInvalidFlightKey is returned when a flight update has no provider key.
	ErrInvalidFlightKey = errors.New("invalid flight key")

	// ErrInvalidConfig is returned for a poll configuration that cannot be scheduled.
	ErrInvalidConfig = errors.New("invalid poll configuration")

	// ErrNotFound is returned when a keyed record is not in the store.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when creating a record whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreSave wraps a failure to flush pending changes to the backend.
	ErrStoreSave = errors.New("store save failed")

	// ErrIncompleteMetadata is reported when a metadata payload lacks required fields.
	ErrIncompleteMetadata = errors.New("incomplete airport metadata")
)
