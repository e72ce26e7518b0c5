package domain

import "time"

// DeadlineStatus enumerates the states of an SLA deadline.
type DeadlineStatus string

const (
	DeadlineActive    DeadlineStatus = "active"
	DeadlineWarning   DeadlineStatus = "warning"
	DeadlineCompleted DeadlineStatus = "completed"
	DeadlineBreached  DeadlineStatus = "breached"
)

// Deadline is one phase-deadline instance tracked for an entity. Created on a
// phase-start event, completed on the matching phase-end event, or breached by
// a time-based sweep.
type Deadline struct {
	ID               string         `json:"id" db:"id"`
	EntityType       string         `json:"entity_type" db:"entity_type"`
	EntityID         string         `json:"entity_id" db:"entity_id"`
	RuleID           string         `json:"rule_id" db:"rule_id"`
	Phase            string         `json:"phase" db:"phase"`
	ResponsibleParty string         `json:"responsible_party,omitempty" db:"responsible_party"`
	DeadlineAt       time.Time      `json:"deadline_at" db:"deadline_at"`
	WarningAt        time.Time      `json:"warning_at" db:"warning_at"`
	Status           DeadlineStatus `json:"status" db:"status"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}
