package message

import "errors"

// Sentinel errors for the message service layer.
var (
	ErrNotFound          = errors.New("message not found")
	ErrInvalidTransition = errors.New("invalid message status transition")
)
