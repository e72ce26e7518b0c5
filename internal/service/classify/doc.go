// Package classify implements reply classification for inbound lead replies.
//
// The Classifier interface keeps the rule-based implementation swappable for
// a learned model without touching event ingestion. The rule engine evaluates
// categories in a fixed priority order so that compliance-relevant signals
// (opt-out requests) are never masked by a co-occurring sales signal:
// "interested, but please unsubscribe" classifies as unsubscribe.
package classify
