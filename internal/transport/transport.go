// Package transport abstracts the outbound mail provider. The engine only
// needs one operation: hand over a composed message and get back the
// provider's message id, which later webhook events reference.
package transport

import "context"

// OutboundMessage is a fully composed email ready for delivery.
type OutboundMessage struct {
	To       string
	ToName   string
	Subject  string
	BodyText string
	BodyHTML string
}

// Transport delivers one message and returns the provider message id.
// Implementations must honor ctx cancellation; the worker wraps every call
// in a send timeout.
type Transport interface {
	Send(ctx context.Context, msg OutboundMessage) (providerMessageID string, err error)
}
