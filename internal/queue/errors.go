package queue

import "errors"

var (
	// ErrNotFound means no live queue item carries the requested id.
	ErrNotFound = errors.New("queue item not found")

	// ErrPartialRemoval means internal cleanup was applied but at least one
	// best-effort step (remote delete, blacklisting) failed.
	ErrPartialRemoval = errors.New("removal partially failed")
)
