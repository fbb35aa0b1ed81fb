package common

import "errors"

var (
	// ErrStoreUnavailable marks a failed or timed-out read against the
	// persistent store. Never masked by serving stale cache beyond its TTL.
	ErrStoreUnavailable = errors.New("graph store unavailable")

	// ErrEntityNotFound is returned for an unknown entity id in a path or
	// neighborhood query. A normal NotFound, not a failure.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrPathNotFound is returned when no path exists within the depth bound.
	ErrPathNotFound = errors.New("no path within depth bound")

	// ErrGraphTooLarge signals that a soft node-count limit was exceeded and
	// the expensive sub-computation was skipped rather than attempted.
	ErrGraphTooLarge = errors.New("graph exceeds soft size limit")
)
