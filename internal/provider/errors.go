package provider

import "errors"

// Classified provider failures. Callers branch on these with errors.Is and
// never inspect transport-specific error shapes.
var (
	// ErrBadRequest means the provider rejected the input; retrying without
	// changing the request will not help.
	ErrBadRequest = errors.New("provider rejected request")

	// ErrMeetingNotFound means the provider no longer knows the meeting id,
	// typically because a locally stored record is stale.
	ErrMeetingNotFound = errors.New("provider meeting not found")

	// ErrUnavailable means the provider could not be reached or failed
	// transiently; the caller may retry.
	ErrUnavailable = errors.New("provider unavailable")
)
