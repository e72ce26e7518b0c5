package sequence

import (
	"context"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// Repository defines the data access contract for sequences.
type Repository interface {
	// Get returns a sequence by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Sequence, error)

	// FindOpen returns the non-completed sequence for a (lead, campaign)
	// pair, or ErrNotFound. At most one exists at a time.
	FindOpen(ctx context.Context, leadID, campaignID string) (*domain.Sequence, error)

	// ActiveForLead returns all active sequences for a lead across campaigns.
	ActiveForLead(ctx context.Context, leadID string) ([]domain.Sequence, error)

	// Create inserts a new sequence. Must fail if a non-completed sequence
	// already exists for the (lead, campaign) pair.
	Create(ctx context.Context, seq *domain.Sequence) error

	// Update persists the mutable fields of a sequence.
	Update(ctx context.Context, seq *domain.Sequence) error
}

// CampaignRepository defines the data access contract for campaigns.
type CampaignRepository interface {
	// Get returns a campaign by ID, or ErrCampaignNotFound.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// SetStatus updates a campaign's status, paused reason, and paused-at
	// timestamp.
	SetStatus(ctx context.Context, id string, status domain.CampaignStatus, pausedReason string) error
}

// SuppressionChecker is the slice of the suppression registry this package
// needs to guard resume against a stale operator view.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// LeadGetter resolves lead records for compliance checks.
type LeadGetter interface {
	Get(ctx context.Context, id string) (*domain.Lead, error)
}
