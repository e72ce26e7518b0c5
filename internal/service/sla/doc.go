// Package sla implements the generic phase-deadline tracker.
//
// A stateless rule table maps event types to phases and marks each as a
// phase start or phase end. A phase-start event with no active deadline for
// (entity_type, entity_id, phase) creates one from the rule's deadline and
// warning offsets; the matching phase-end event completes it. The breach
// transition itself is applied by Sweep, which an external scheduler drives.
//
// Responsible-party resolution is phase-specific and pluggable per entity
// type, so a phase like "submitted" can assign responsibility to the
// counterpart client rather than the event actor.
package sla
