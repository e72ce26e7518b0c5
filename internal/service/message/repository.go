package message

import (
	"context"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// Repository defines the data access contract for the message store.
type Repository interface {
	// Get returns a message by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Message, error)

	// GetByProviderMessageID resolves a provider message id (set at send
	// time) back to a message, or ErrNotFound.
	GetByProviderMessageID(ctx context.Context, providerID string) (*domain.Message, error)

	// LatestSentForLead returns the lead's most recently sent message, or
	// ErrNotFound if the lead has none past the sent state.
	LatestSentForLead(ctx context.Context, leadID string) (*domain.Message, error)

	// Create inserts a new message in draft state.
	Create(ctx context.Context, m *domain.Message) error

	// Update persists all mutable fields of a message.
	Update(ctx context.Context, m *domain.Message) error

	// CancelPreSendForLead bulk-cancels every message for the lead that has
	// not reached the transport (draft/pending_review/approved/scheduled).
	// Returns the IDs of the cancelled messages so queue items can follow.
	CancelPreSendForLead(ctx context.Context, leadID string) ([]string, error)
}
