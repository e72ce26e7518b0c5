// Package message implements the message store and its lifecycle state
// machine.
//
// A message's status moves monotonically forward along the delivery graph
// (draft → pending_review → approved → scheduled → sent → delivered →
// opened → clicked), with bounced/complained/cancelled/failed as terminal
// branches. Engagement events are idempotent and re-entrant: repeated opens
// and clicks increment counters without moving status backward. Webhook
// events may arrive out of order, so each recorder applies its own effect
// independent of the exact current state — the only hard rule is that a
// terminal compliance state is never downgraded by a later benign event.
//
// A reply is recorded as replied_at plus reply_classification attributes so
// delivery history (delivered/opened timestamps) is never erased; status
// advances to replied only from a benign post-sent state.
package message
