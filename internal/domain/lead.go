package domain

import (
	"regexp"
	"strings"
	"time"
)

// LeadStatus enumerates the lifecycle states of a lead.
type LeadStatus string

const (
	LeadNew        LeadStatus = "new"
	LeadContacted  LeadStatus = "contacted"
	LeadReplied    LeadStatus = "replied"
	LeadSuppressed LeadStatus = "suppressed"
	LeadWon        LeadStatus = "won"
	LeadLost       LeadStatus = "lost"
)

// Lead represents a prospective contact/company pair targeted for outreach.
// Leads are never hard-deleted; suppression and loss are soft states so the
// contact history stays auditable.
type Lead struct {
	ID                string     `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	ContactName       string     `json:"contact_name" db:"contact_name"`
	CompanyName       string     `json:"company_name" db:"company_name"`
	CompanyDomain     string     `json:"company_domain,omitempty" db:"company_domain"`
	JobTitle          string     `json:"job_title,omitempty" db:"job_title"`
	Status            LeadStatus `json:"status" db:"status"`
	IsSuppressed      bool       `json:"is_suppressed" db:"is_suppressed"`
	SuppressionReason string     `json:"suppression_reason,omitempty" db:"suppression_reason"`
	HasReplied        bool       `json:"has_replied" db:"has_replied"`
	ReplySentiment    string     `json:"reply_sentiment,omitempty" db:"reply_sentiment"`
	LastReplyAt       *time.Time `json:"last_reply_at,omitempty" db:"last_reply_at"`
	ImportJobID       string     `json:"import_job_id,omitempty" db:"import_job_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lowercases and trims an email address. All email comparisons
// in the engine happen on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address matches the local@domain.tld pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
