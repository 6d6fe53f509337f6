package service

import "errors"

var (
	// ErrStaleSession means the stored meeting record pointed at a provider
	// meeting that no longer exists. The stale record has been removed; the
	// caller should retry, which will create a fresh session.
	ErrStaleSession = errors.New("stale session: retry to create a new one")

	// ErrInvalidRequest means required caller input was missing or malformed
	ErrInvalidRequest = errors.New("invalid request")
)
