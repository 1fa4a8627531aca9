package core

import "errors"

// Common errors.
var (
	ErrNotFound         = errors.New("document not found")
	ErrUnavailable      = errors.New("collection unavailable")
	ErrClosed           = errors.New("closed")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidDocument  = errors.New("invalid document")
	ErrNotWatchable     = errors.New("collection does not support live queries")
	ErrNoLocation       = errors.New("no location fix available")
	ErrPermissionDenied = errors.New("location permission denied")
)
