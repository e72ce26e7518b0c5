package domain

import "time"

// EventType enumerates the delivery-lifecycle events the engine ingests.
type EventType string

const (
	EventDelivered  EventType = "delivered"
	EventOpened     EventType = "opened"
	EventClicked    EventType = "clicked"
	EventBounced    EventType = "bounced"
	EventComplained EventType = "complained"
	EventReplied    EventType = "replied"
	EventSent       EventType = "sent"
)

// ProviderEvent is a normalized delivery-lifecycle webhook event. ProviderID
// is the provider's event id and is the idempotency key: ingesting the same
// ProviderID twice must be a no-op.
type ProviderEvent struct {
	ProviderID        string    `json:"provider_id"`
	Type              EventType `json:"type"`
	ProviderMessageID string    `json:"email_id"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// InboundReply is a normalized inbound-reply notification.
type InboundReply struct {
	FromEmail  string    `json:"from_email"`
	Subject    string    `json:"subject"`
	BodyText   string    `json:"body_text"`
	InReplyTo  string    `json:"in_reply_to"`
	MessageID  string    `json:"message_id"`
	ReceivedAt time.Time `json:"received_at"`
}

// CampaignEvent is one row of the append-only event log. It is both the
// idempotency record for its provider event id and the raw material campaign
// stat counters are derived from.
type CampaignEvent struct {
	ID              string    `json:"id" db:"id"`
	ProviderEventID string    `json:"provider_event_id" db:"provider_event_id"`
	CampaignID      string    `json:"campaign_id" db:"campaign_id"`
	LeadID          string    `json:"lead_id" db:"lead_id"`
	MessageID       string    `json:"message_id" db:"message_id"`
	Type            EventType `json:"type" db:"event_type"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
