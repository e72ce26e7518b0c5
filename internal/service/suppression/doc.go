// Package suppression implements the suppression registry.
//
// This is the single source of truth for whether an email address may
// receive mail. Suppressions flow in from multiple sources (bounce and
// complaint webhooks, inbound unsubscribe replies, manual operator actions)
// and are checked immediately before every send attempt — an address can be
// suppressed between enqueue and claim, so the registry is consulted at
// claim time, never only at enqueue time.
//
// Entries are upserted idempotently and severity-ordered: once an address
// carries a complaint reason, no later signal may downgrade it.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports net/http
// or database/sql directly.
package suppression
