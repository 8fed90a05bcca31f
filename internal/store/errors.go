package store

import "errors"

// Sentinel errors returned by store implementations. Handlers translate
// these into HTTP statuses; anything else is treated as an internal
// persistence failure and never surfaced to the client verbatim.
var (
	// ErrNotFound means the requested row, session, or object does not exist
	// (or has expired, for TTL-bound records).
	ErrNotFound = errors.New("not found")

	// ErrConflict means an insert violated a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)
