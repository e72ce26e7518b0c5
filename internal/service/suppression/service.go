package suppression

import (
	"context"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IsSuppressed checks whether an email address must be blocked from sending.
func (s *Service) IsSuppressed(ctx context.Context, email string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, ErrEmailMissing
	}
	return s.repo.IsSuppressed(ctx, email)
}

// Suppress adds an email to the registry. Idempotent upsert: re-suppressing
// with the same or a weaker reason preserves the existing record, while a
// stronger reason (complaint > bounce > unsubscribe > manual) replaces it.
func (s *Service) Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, leadID, notes string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrEmailMissing
	}

	entry := &domain.Suppression{
		Email:          email,
		Reason:         reason,
		Source:         source,
		OriginalLeadID: leadID,
		Notes:          notes,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return err
	}

	logger.Info("address suppressed",
		"email", email,
		"reason", string(reason),
		"source", string(source),
		"lead_id", leadID,
	)
	return nil
}

// Get returns the registry entry for an email.
func (s *Service) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailMissing
	}
	return s.repo.Get(ctx, email)
}

// List returns registry entries matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]domain.Suppression, int, error) {
	return s.repo.List(ctx, filter)
}

// Count returns the total number of suppressed addresses.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Stats aggregates registry counts grouped by reason and source.
type Stats struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
	BySource map[string]int `json:"by_source"`
}

// GetStats computes registry statistics for the operator dashboard.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	entries, total, err := s.repo.List(ctx, ListFilter{Limit: 0})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:    total,
		ByReason: make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, e := range entries {
		stats.ByReason[string(e.Reason)]++
		stats.BySource[string(e.Source)]++
	}
	return stats, nil
}
