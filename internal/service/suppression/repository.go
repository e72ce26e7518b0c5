package suppression

import (
	"context"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// Repository defines the data access contract for the suppression registry.
type Repository interface {
	// IsSuppressed returns true if the email is on the registry.
	IsSuppressed(ctx context.Context, email string) (bool, error)

	// Get returns the entry for an email, or ErrNotFound.
	Get(ctx context.Context, email string) (*domain.Suppression, error)

	// Upsert inserts or updates an entry. The implementation must be safe
	// under concurrent duplicate delivery: conflicting writes for the same
	// email may interleave, but a stored reason is only replaced when the
	// incoming reason outranks it.
	Upsert(ctx context.Context, s *domain.Suppression) error

	// List returns entries matching the filter plus the total count.
	List(ctx context.Context, filter ListFilter) ([]domain.Suppression, int, error)

	// Count returns the total number of suppressed emails.
	Count(ctx context.Context) (int, error)
}

// ListFilter controls pagination and filtering for registry listings.
type ListFilter struct {
	Reason string
	Source string
	Search string
	Limit  int
	Offset int
}
