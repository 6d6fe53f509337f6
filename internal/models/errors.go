package models

import "errors"

// ErrNotFound is returned by storage implementations when a requested
// record is absent or expired.
var ErrNotFound = errors.New("record not found")
