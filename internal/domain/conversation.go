package domain

import "time"

// ConversationStatus enumerates the states of a lead conversation.
type ConversationStatus string

const (
	ConversationActive ConversationStatus = "active"
	ConversationHot    ConversationStatus = "hot"
	ConversationClosed ConversationStatus = "closed"
)

// MessageDirection tags a conversation entry as inbound or outbound.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// ConversationMessage is one entry in a conversation's append-only log.
type ConversationMessage struct {
	ID             string           `json:"id" db:"id"`
	ConversationID string           `json:"conversation_id" db:"conversation_id"`
	Direction      MessageDirection `json:"direction" db:"direction"`
	Subject        string           `json:"subject,omitempty" db:"subject"`
	Content        string           `json:"content" db:"content"`
	Classification string           `json:"classification,omitempty" db:"classification"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// Conversation is the campaign-scoped reply thread for one lead, created
// lazily on the first inbound reply.
type Conversation struct {
	ID            string             `json:"id" db:"id"`
	LeadID        string             `json:"lead_id" db:"lead_id"`
	CampaignID    string             `json:"campaign_id" db:"campaign_id"`
	Status        ConversationStatus `json:"status" db:"status"`
	LastMessageAt time.Time          `json:"last_message_at" db:"last_message_at"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
}
