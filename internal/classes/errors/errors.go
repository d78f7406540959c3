package errors

import "errors"

var (
	ErrNotFound = errors.New("class not found")

	// ErrCountChanged means bookedCount moved between the read and the
	// guarded write.
	ErrCountChanged = errors.New("class booked count changed concurrently")
)
