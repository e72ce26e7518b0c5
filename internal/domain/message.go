package domain

import "time"

// MessageStatus enumerates the lifecycle of a single outbound email instance.
type MessageStatus string

const (
	MessageDraft         MessageStatus = "draft"
	MessagePendingReview MessageStatus = "pending_review"
	MessageApproved      MessageStatus = "approved"
	MessageScheduled     MessageStatus = "scheduled"
	MessageSent          MessageStatus = "sent"
	MessageDelivered     MessageStatus = "delivered"
	MessageOpened        MessageStatus = "opened"
	MessageClicked       MessageStatus = "clicked"
	MessageBounced       MessageStatus = "bounced"
	MessageComplained    MessageStatus = "complained"
	MessageReplied       MessageStatus = "replied"
	MessageCancelled     MessageStatus = "cancelled"
	MessageFailed        MessageStatus = "failed"
)

// statusRank orders the benign delivery progression. Used to keep status
// monotonic when engagement events arrive out of order.
var statusRank = map[MessageStatus]int{
	MessageDraft:         0,
	MessagePendingReview: 1,
	MessageApproved:      2,
	MessageScheduled:     3,
	MessageSent:          4,
	MessageDelivered:     5,
	MessageOpened:        6,
	MessageClicked:       7,
	MessageReplied:       8,
}

// Rank returns the position of s in the benign progression, or -1 for the
// terminal failure states which sit outside it.
func (s MessageStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// PostSent reports whether s is sent or a descendant of sent.
func (s MessageStatus) PostSent() bool {
	switch s {
	case MessageSent, MessageDelivered, MessageOpened, MessageClicked,
		MessageBounced, MessageComplained, MessageReplied:
		return true
	}
	return false
}

// ComplianceTerminal reports whether s is a terminal compliance state that
// must never be downgraded by a later benign event.
func (s MessageStatus) ComplianceTerminal() bool {
	return s == MessageBounced || s == MessageComplained
}

// CanTransition reports whether the lifecycle graph permits moving from s to
// next. Repeated engagement events (opened → opened) are not transitions;
// callers record them as counter increments instead.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case MessagePendingReview:
		return s == MessageDraft
	case MessageApproved:
		return s == MessagePendingReview
	case MessageScheduled:
		return s == MessageApproved
	case MessageSent:
		return s == MessageScheduled
	case MessageDelivered:
		return s == MessageSent
	case MessageOpened:
		return s == MessageSent || s == MessageDelivered
	case MessageClicked:
		return s == MessageSent || s == MessageDelivered || s == MessageOpened
	case MessageBounced, MessageComplained:
		return s.PostSent() && !s.ComplianceTerminal() && s != MessageReplied
	case MessageReplied:
		// A reply may land on any benign post-sent state.
		return s.PostSent() && !s.ComplianceTerminal()
	case MessageCancelled:
		// Anything not yet handed to the transport can be cancelled.
		return !s.PostSent() && s != MessageFailed
	case MessageFailed:
		return s == MessageScheduled
	}
	return false
}

// Message is one composed outbound email bound to a lead, campaign, and
// sequence step. Delivery history is kept in per-state timestamps so a later
// reply or compliance event never erases what was observed before it.
type Message struct {
	ID                  string        `json:"id" db:"id"`
	LeadID              string        `json:"lead_id" db:"lead_id"`
	CampaignID          string        `json:"campaign_id" db:"campaign_id"`
	SequenceStep        int           `json:"sequence_step" db:"sequence_step"`
	Subject             string        `json:"subject" db:"subject"`
	Body                string        `json:"body" db:"body"`
	Status              MessageStatus `json:"status" db:"status"`
	ProviderMessageID   string        `json:"provider_message_id,omitempty" db:"provider_message_id"`
	OpenCount           int           `json:"open_count" db:"open_count"`
	ClickCount          int           `json:"click_count" db:"click_count"`
	ReplyClassification string        `json:"reply_classification,omitempty" db:"reply_classification"`
	SentAt              *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	DeliveredAt         *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`
	OpenedAt            *time.Time    `json:"opened_at,omitempty" db:"opened_at"`
	ClickedAt           *time.Time    `json:"clicked_at,omitempty" db:"clicked_at"`
	BouncedAt           *time.Time    `json:"bounced_at,omitempty" db:"bounced_at"`
	ComplainedAt        *time.Time    `json:"complained_at,omitempty" db:"complained_at"`
	RepliedAt           *time.Time    `json:"replied_at,omitempty" db:"replied_at"`
	CancelledAt         *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	FailedAt            *time.Time    `json:"failed_at,omitempty" db:"failed_at"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" db:"updated_at"`
}
