package sla

import "errors"

var (
	// ErrNotFound indicates no deadline matched the lookup.
	ErrNotFound = errors.New("deadline not found")

	// ErrNoRule indicates the event type matched no configured rule.
	ErrNoRule = errors.New("no rule for event type")
)
