package events

import (
	"context"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// MessageStore is the slice of the message service the processor needs.
type MessageStore interface {
	GetByProviderMessageID(ctx context.Context, providerID string) (*domain.Message, error)
	LatestSentForLead(ctx context.Context, leadID string) (*domain.Message, error)
	RecordDelivered(ctx context.Context, m *domain.Message, at time.Time) error
	RecordOpen(ctx context.Context, m *domain.Message, at time.Time) error
	RecordClick(ctx context.Context, m *domain.Message, at time.Time) error
	RecordBounce(ctx context.Context, m *domain.Message, at time.Time) error
	RecordComplaint(ctx context.Context, m *domain.Message, at time.Time) error
	RecordReply(ctx context.Context, m *domain.Message, classification string, at time.Time) error
	CancelPreSendForLead(ctx context.Context, leadID string) ([]string, error)
}

// LeadStore reads and mutates lead flags.
type LeadStore interface {
	Get(ctx context.Context, id string) (*domain.Lead, error)
	GetByEmail(ctx context.Context, email string) (*domain.Lead, error)
	Update(ctx context.Context, lead *domain.Lead) error
}

// SequenceManager applies the auto-pause actions.
type SequenceManager interface {
	PauseAllForLead(ctx context.Context, leadID, reason string) (int, error)
	PauseCampaign(ctx context.Context, campaignID, reason string) error
}

// QueueCanceller cancels not-yet-claimed send queue items for a lead.
type QueueCanceller interface {
	CancelPendingForLead(ctx context.Context, leadID string) (int, error)
}

// Suppressor adds addresses to the suppression registry.
type Suppressor interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, leadID, notes string) error
}

// EventLog is the append-only campaign event log. Record returns false when
// the provider event id was already logged, which is the idempotency barrier
// for the whole dispatch. Discard removes a logged id again when a side
// effect fails after the insert, so the provider's redelivery runs the full
// dispatch instead of deduping against one that never finished.
type EventLog interface {
	Record(ctx context.Context, ev *domain.CampaignEvent) (bool, error)
	Discard(ctx context.Context, providerEventID string) error
	ComplaintsSince(ctx context.Context, campaignID string, since time.Time) (int, error)
}

// StatCounter increments one aggregate campaign counter. Called only after
// the idempotency barrier, so increments are never replayed.
type StatCounter interface {
	Increment(ctx context.Context, campaignID, counter string) error
}

// ConversationStore maintains the per-lead reply thread.
type ConversationStore interface {
	FindOrCreate(ctx context.Context, leadID, campaignID string) (*domain.Conversation, error)
	Append(ctx context.Context, conversationID string, msg *domain.ConversationMessage) error
	SetStatus(ctx context.Context, conversationID string, status domain.ConversationStatus) error
}

// DeadlineTracker feeds response-time tracking. Advisory: tracker errors are
// logged, never fail ingestion.
type DeadlineTracker interface {
	HandleEvent(ctx context.Context, entityType, entityID, eventType, actor string, at time.Time) error
}

// Campaign stat counter names, matching the aggregate columns.
const (
	StatSent            = "sent"
	StatDelivered       = "delivered"
	StatOpened          = "opened"
	StatClicked         = "clicked"
	StatReplied         = "replied"
	StatPositiveReplies = "positive_replies"
	StatBounced         = "bounced"
	StatComplained      = "complained"
)
