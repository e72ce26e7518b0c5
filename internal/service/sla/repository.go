package sla

import (
	"context"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// Repository persists deadlines.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Deadline, error)

	// FindOpen returns the deadline for (entityType, entityID, phase) whose
	// status is active or warning, or ErrNotFound.
	FindOpen(ctx context.Context, entityType, entityID, phase string) (*domain.Deadline, error)

	// ListDue returns open deadlines whose warning or deadline time is at or
	// before now. Used by Sweep.
	ListDue(ctx context.Context, now time.Time) ([]*domain.Deadline, error)

	ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Deadline, error)

	Create(ctx context.Context, d *domain.Deadline) error
	Update(ctx context.Context, d *domain.Deadline) error
}
