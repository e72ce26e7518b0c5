package importer

import (
	"context"

	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// JobRepository defines the data access contract for import jobs.
type JobRepository interface {
	// Get returns a job by ID, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*domain.ImportJob, error)

	// Create inserts a new pending job.
	Create(ctx context.Context, job *domain.ImportJob) error

	// Update persists the job's progress counters, error log, and status.
	// Called after every batch so partial state survives a crash.
	Update(ctx context.Context, job *domain.ImportJob) error
}

// LeadWriter is the slice of the lead store the importer needs.
type LeadWriter interface {
	// ExistsByEmail reports whether a lead with this (normalized) email
	// already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts a new lead.
	Create(ctx context.Context, lead *domain.Lead) error
}

// SuppressionChecker is the slice of the suppression registry the importer
// needs.
type SuppressionChecker interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}
