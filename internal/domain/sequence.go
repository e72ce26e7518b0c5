package domain

import "time"

// SequenceStatus enumerates the lifecycle states of a per-lead sequence.
type SequenceStatus string

const (
	SequenceActive    SequenceStatus = "active"
	SequencePaused    SequenceStatus = "paused"
	SequenceCompleted SequenceStatus = "completed"
)

// Pause reasons recorded on sequences. The compliance reasons block manual
// resume for as long as the lead stays suppressed.
const (
	PauseReasonBounce      = "bounce"
	PauseReasonComplaint   = "complaint"
	PauseReasonUnsubscribe = "unsubscribe"
	PauseReasonReply       = "reply_received"
	PauseReasonManual      = "manual"
)

// CompliancePauseReason reports whether a pause reason came from a compliance
// signal rather than an operator decision.
func CompliancePauseReason(reason string) bool {
	switch reason {
	case PauseReasonBounce, PauseReasonComplaint, PauseReasonUnsubscribe:
		return true
	}
	return false
}

// Sequence is the ordered multi-step outreach plan applied to one lead within
// one campaign. At most one non-completed sequence exists per (lead, campaign).
type Sequence struct {
	ID           string         `json:"id" db:"id"`
	LeadID       string         `json:"lead_id" db:"lead_id"`
	CampaignID   string         `json:"campaign_id" db:"campaign_id"`
	CurrentStep  int            `json:"current_step" db:"current_step"`
	Status       SequenceStatus `json:"status" db:"status"`
	PausedReason string         `json:"paused_reason,omitempty" db:"paused_reason"`
	PausedAt     *time.Time     `json:"paused_at,omitempty" db:"paused_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
