// Package sequence implements the campaign and sequence manager.
//
// A sequence is the per-lead multi-step outreach plan inside one campaign.
// It advances one step at a time; each step corresponds to one message.
// Pausing records a reason, and resume is refused while the pause reason is
// a compliance signal (bounce/complaint/unsubscribe) and the lead remains
// suppressed — an auto-pause must never be silently undone by an operator
// acting on a stale view.
//
// The campaign side owns campaign pause/resume, including the auto-pause
// forced by event ingestion when complaints accumulate.
package sequence
