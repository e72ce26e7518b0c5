// Package events is the single entry point for delivery-lifecycle webhooks
// and inbound-reply notifications.
//
// Every webhook must pass the idempotency barrier before any side effect: the
// provider event id is inserted into the append-only campaign event log, and
// a conflict means the event was already processed, so the whole dispatch is
// skipped. Providers redeliver webhooks at-least-once; duplicate delivery
// must never double-count stats or re-trigger auto-actions.
//
// Events for the same message arrive out of order. Handlers never assume
// ordering; each applies its own transition through the message service,
// which refuses to downgrade terminal compliance states.
package events
