package domain

import "errors"

var (
	// ErrNotFound is matched by platform errors for HTTP 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is matched by platform errors for HTTP 409.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition marks a failure that aborts a sync task before it writes.
	ErrPrecondition = errors.New("precondition failed")
)
