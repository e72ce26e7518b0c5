package events

import "errors"

var (
	// ErrUnknownMessage indicates the provider message id in a webhook does
	// not resolve to a message.
	ErrUnknownMessage = errors.New("unknown provider message id")

	// ErrUnknownEventType indicates a webhook type outside the dispatch set.
	ErrUnknownEventType = errors.New("unknown event type")
)
