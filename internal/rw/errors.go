package rw

import "errors"

var (
	// ErrStorageUnavailable means the data directory or database could not be
	// created or opened. Storage calls degrade to no-ops.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRootMissing means the configured watch root does not exist.
	ErrRootMissing = errors.New("watch root does not exist")

	// ErrInvalidEvent means an event failed validation before insert.
	ErrInvalidEvent = errors.New("invalid event")
)
