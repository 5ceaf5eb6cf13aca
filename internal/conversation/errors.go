package conversation

import "errors"

var (
	// ErrInvalidRequest is returned when the exchange request is missing a
	// required field.
	ErrInvalidRequest = errors.New("conversation: invalid request")

	// ErrUpstreamGeneration is returned when the completion provider fails,
	// returns nothing usable, or times out. The exchange aborts with no
	// turn persisted.
	ErrUpstreamGeneration = errors.New("conversation: upstream generation failed")

	// ErrPersistence is returned when the turn write fails. A reply was
	// generated in memory but the exchange is still reported as failed.
	ErrPersistence = errors.New("conversation: turn persistence failed")
)
