package sla

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

// Rule binds event types to one tracked phase of one entity type. StartEvents
// open a deadline, EndEvents complete it. Offsets are hours from the start
// event's timestamp.
type Rule struct {
	ID            string
	EntityType    string
	Phase         string
	StartEvents   []string
	EndEvents     []string
	DeadlineHours int
	WarningHours  int
}

// ResolverFunc decides who is responsible for a phase. actor is whoever
// triggered the start event; implementations may return it unchanged or remap
// to a counterpart.
type ResolverFunc func(phase, actor string) string

// Service tracks phase deadlines against a configured rule table.
type Service struct {
	repo      Repository
	rules     []Rule
	resolvers map[string]ResolverFunc // keyed by entity type
	now       func() time.Time
}

func NewService(repo Repository, rules []Rule) *Service {
	return &Service{
		repo:      repo,
		rules:     rules,
		resolvers: make(map[string]ResolverFunc),
		now:       time.Now,
	}
}

// RegisterResolver installs the responsible-party resolver for an entity
// type. Entity types without a resolver keep the event actor as responsible.
func (s *Service) RegisterResolver(entityType string, fn ResolverFunc) {
	s.resolvers[entityType] = fn
}

// HandleEvent applies every rule the event type participates in. A start
// event is a no-op when an open deadline already exists for the phase, so
// replayed events never double-create. An end event with no open deadline is
// also a no-op.
func (s *Service) HandleEvent(ctx context.Context, entityType, entityID, eventType, actor string, at time.Time) error {
	matched := false
	for i := range s.rules {
		r := &s.rules[i]
		if r.EntityType != entityType {
			continue
		}
		if contains(r.StartEvents, eventType) {
			matched = true
			if err := s.openDeadline(ctx, r, entityID, actor, at); err != nil {
				return err
			}
		}
		if contains(r.EndEvents, eventType) {
			matched = true
			if err := s.closeDeadline(ctx, r, entityID, at); err != nil {
				return err
			}
		}
	}
	if !matched {
		return ErrNoRule
	}
	return nil
}

func (s *Service) openDeadline(ctx context.Context, r *Rule, entityID, actor string, at time.Time) error {
	_, err := s.repo.FindOpen(ctx, r.EntityType, entityID, r.Phase)
	if err == nil {
		return nil // already tracking this phase
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	responsible := actor
	if fn, ok := s.resolvers[r.EntityType]; ok {
		responsible = fn(r.Phase, actor)
	}

	d := &domain.Deadline{
		ID:               uuid.New().String(),
		EntityType:       r.EntityType,
		EntityID:         entityID,
		RuleID:           r.ID,
		Phase:            r.Phase,
		ResponsibleParty: responsible,
		DeadlineAt:       at.Add(time.Duration(r.DeadlineHours) * time.Hour),
		WarningAt:        at.Add(time.Duration(r.DeadlineHours-r.WarningHours) * time.Hour),
		Status:           domain.DeadlineActive,
		CreatedAt:        s.now(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return err
	}
	logger.Info("[SLA] Deadline opened", "rule", r.ID, "entity", entityID, "phase", r.Phase, "due", d.DeadlineAt.Format(time.RFC3339))
	return nil
}

func (s *Service) closeDeadline(ctx context.Context, r *Rule, entityID string, at time.Time) error {
	d, err := s.repo.FindOpen(ctx, r.EntityType, entityID, r.Phase)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	done := at
	d.Status = domain.DeadlineCompleted
	d.CompletedAt = &done
	if err := s.repo.Update(ctx, d); err != nil {
		return err
	}
	logger.Info("[SLA] Deadline completed", "rule", r.ID, "entity", entityID, "phase", r.Phase)
	return nil
}

// Sweep escalates open deadlines: active past the warning time becomes
// warning, and anything open past the deadline becomes breached. It returns
// the deadlines it transitioned to breached so callers can notify.
func (s *Service) Sweep(ctx context.Context, now time.Time) ([]*domain.Deadline, error) {
	due, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return nil, err
	}

	var breached []*domain.Deadline
	for _, d := range due {
		switch {
		case !now.Before(d.DeadlineAt):
			d.Status = domain.DeadlineBreached
			if err := s.repo.Update(ctx, d); err != nil {
				return breached, err
			}
			logger.Warn("[SLA] Deadline breached", "entity", d.EntityID, "phase", d.Phase, "responsible", d.ResponsibleParty)
			breached = append(breached, d)
		case d.Status == domain.DeadlineActive && !now.Before(d.WarningAt):
			d.Status = domain.DeadlineWarning
			if err := s.repo.Update(ctx, d); err != nil {
				return breached, err
			}
			logger.Info("[SLA] Deadline warning", "entity", d.EntityID, "phase", d.Phase, "due", d.DeadlineAt.Format(time.RFC3339))
		}
	}
	return breached, nil
}

// ListForEntity returns every deadline recorded for an entity, open or not.
func (s *Service) ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Deadline, error) {
	return s.repo.ListForEntity(ctx, entityType, entityID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
