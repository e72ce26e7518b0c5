package domain

import "time"

// SuppressionReason enumerates why an email was suppressed, ordered by
// severity. A stronger reason must never be overwritten by a weaker one.
type SuppressionReason string

const (
	ReasonComplaint   SuppressionReason = "complaint"
	ReasonBounce      SuppressionReason = "bounce"
	ReasonUnsubscribe SuppressionReason = "unsubscribe"
	ReasonManual      SuppressionReason = "manual"
)

// reasonSeverity ranks reasons; higher wins on upsert conflicts.
var reasonSeverity = map[SuppressionReason]int{
	ReasonComplaint:   4,
	ReasonBounce:      3,
	ReasonUnsubscribe: 2,
	ReasonManual:      1,
}

// Severity returns the compliance rank of a reason. Unknown reasons rank 0.
func (r SuppressionReason) Severity() int { return reasonSeverity[r] }

// Outranks reports whether r is at least as severe as other. Equal severity
// counts as outranking so re-suppressing with the same reason stays idempotent.
func (r SuppressionReason) Outranks(other SuppressionReason) bool {
	return r.Severity() >= other.Severity()
}

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceWebhook  SuppressionSource = "webhook"
	SourceReply    SuppressionSource = "inbound_reply"
	SourceImport   SuppressionSource = "import"
	SourceOperator SuppressionSource = "operator"
)

// Suppression is a single entry on the deny-list of addresses that must never
// be contacted again. Keyed case-insensitively by email.
type Suppression struct {
	Email          string            `json:"email" db:"email"`
	Reason         SuppressionReason `json:"reason" db:"reason"`
	Source         SuppressionSource `json:"source" db:"source"`
	OriginalLeadID string            `json:"original_lead_id,omitempty" db:"original_lead_id"`
	Notes          string            `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}
