package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
)

// Campaign defines the outreach rules a sequence runs under.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Goal           string         `json:"goal" db:"goal"`
	Tonality       string         `json:"tonality" db:"tonality"`
	MaxWordCount   int            `json:"max_word_count" db:"max_word_count"`
	ForbiddenWords []string       `json:"forbidden_words" db:"forbidden_words"`
	Status         CampaignStatus `json:"status" db:"status"`
	PausedReason   string         `json:"paused_reason,omitempty" db:"paused_reason"`
	PausedAt       *time.Time     `json:"paused_at,omitempty" db:"paused_at"`
	Stats          CampaignStats  `json:"stats"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// CampaignStats holds aggregate delivery counters. Counters are derived from
// the append-only event log and incremented only when the originating event
// passes the idempotency barrier, so duplicate webhook deliveries never
// double-count.
type CampaignStats struct {
	Sent            int `json:"sent" db:"sent_count"`
	Delivered       int `json:"delivered" db:"delivered_count"`
	Opened          int `json:"opened" db:"opened_count"`
	Clicked         int `json:"clicked" db:"clicked_count"`
	Replied         int `json:"replied" db:"replied_count"`
	PositiveReplies int `json:"positive_replies" db:"positive_reply_count"`
	Bounced         int `json:"bounced" db:"bounced_count"`
	Complained      int `json:"complained" db:"complained_count"`
}
