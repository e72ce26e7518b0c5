package message

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hirespeedy/outreach-engine/internal/domain"
)

// Service implements the message lifecycle. All mutations go through it so
// the state machine stays enforceable in one place.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a message service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns a message by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Message, error) {
	return s.repo.Get(ctx, id)
}

// GetByProviderMessageID resolves a provider message id to a message.
func (s *Service) GetByProviderMessageID(ctx context.Context, providerID string) (*domain.Message, error) {
	return s.repo.GetByProviderMessageID(ctx, providerID)
}

// LatestSentForLead returns the lead's most recently sent message.
func (s *Service) LatestSentForLead(ctx context.Context, leadID string) (*domain.Message, error) {
	return s.repo.LatestSentForLead(ctx, leadID)
}

// Create inserts a new draft message for a lead/campaign/sequence step.
func (s *Service) Create(ctx context.Context, leadID, campaignID string, step int, subject, body string) (*domain.Message, error) {
	if step < 1 {
		return nil, fmt.Errorf("sequence step must be >= 1, got %d", step)
	}
	m := &domain.Message{
		ID:           uuid.New().String(),
		LeadID:       leadID,
		CampaignID:   campaignID,
		SequenceStep: step,
		Subject:      subject,
		Body:         body,
		Status:       domain.MessageDraft,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Transition moves a message to the given status, validating the lifecycle
// graph and stamping the matching timestamp.
func (s *Service) Transition(ctx context.Context, id string, to domain.MessageStatus) (*domain.Message, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, to)
	}
	s.apply(m, to, s.now())
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkSent transitions scheduled → sent and stores the provider message id.
// The provider id is set exactly once.
func (s *Service) MarkSent(ctx context.Context, id, providerMessageID string) (*domain.Message, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.Status.CanTransition(domain.MessageSent) {
		return nil, fmt.Errorf("%w: %s -> sent", ErrInvalidTransition, m.Status)
	}
	if m.ProviderMessageID == "" {
		m.ProviderMessageID = providerMessageID
	}
	s.apply(m, domain.MessageSent, s.now())
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordDelivered stamps delivered_at and advances status if the message is
// still earlier in the benign progression. Safe to replay and safe to receive
// after an opened event.
func (s *Service) RecordDelivered(ctx context.Context, m *domain.Message, at time.Time) error {
	if m.DeliveredAt == nil {
		m.DeliveredAt = &at
	}
	s.advanceIfForward(m, domain.MessageDelivered)
	return s.repo.Update(ctx, m)
}

// RecordOpen increments open_count and stamps opened_at on the first open.
// Re-entrant: repeated opens never move status backward or error.
func (s *Service) RecordOpen(ctx context.Context, m *domain.Message, at time.Time) error {
	if m.OpenedAt == nil {
		m.OpenedAt = &at
	}
	m.OpenCount++
	s.advanceIfForward(m, domain.MessageOpened)
	return s.repo.Update(ctx, m)
}

// RecordClick increments click_count and stamps clicked_at on the first click.
func (s *Service) RecordClick(ctx context.Context, m *domain.Message, at time.Time) error {
	if m.ClickedAt == nil {
		m.ClickedAt = &at
	}
	m.ClickCount++
	s.advanceIfForward(m, domain.MessageClicked)
	return s.repo.Update(ctx, m)
}

// RecordBounce moves the message into the bounced compliance-terminal state.
// A message already complained stays complained.
func (s *Service) RecordBounce(ctx context.Context, m *domain.Message, at time.Time) error {
	if m.BouncedAt == nil {
		m.BouncedAt = &at
	}
	if !m.Status.ComplianceTerminal() {
		m.Status = domain.MessageBounced
	}
	return s.repo.Update(ctx, m)
}

// RecordComplaint moves the message into the complained compliance-terminal
// state. Complaint is the highest-severity signal and always sticks.
func (s *Service) RecordComplaint(ctx context.Context, m *domain.Message, at time.Time) error {
	if m.ComplainedAt == nil {
		m.ComplainedAt = &at
	}
	m.Status = domain.MessageComplained
	return s.repo.Update(ctx, m)
}

// RecordReply attaches the classification and replied_at to a post-sent
// message. Delivery history is retained: delivered/opened/clicked timestamps
// survive, and status only advances to replied from a benign state.
func (s *Service) RecordReply(ctx context.Context, m *domain.Message, classification string, at time.Time) error {
	if m.RepliedAt == nil {
		m.RepliedAt = &at
	}
	m.ReplyClassification = classification
	if m.Status.PostSent() && !m.Status.ComplianceTerminal() {
		m.Status = domain.MessageReplied
	}
	return s.repo.Update(ctx, m)
}

// CancelPreSendForLead bulk-cancels every not-yet-sent message for a lead.
func (s *Service) CancelPreSendForLead(ctx context.Context, leadID string) ([]string, error) {
	return s.repo.CancelPreSendForLead(ctx, leadID)
}

// advanceIfForward moves status forward along the benign progression only.
// Out-of-order events (delivered after opened) become no-ops, and terminal
// compliance states are never overwritten.
func (s *Service) advanceIfForward(m *domain.Message, to domain.MessageStatus) {
	if m.Status.ComplianceTerminal() || m.Status == domain.MessageReplied {
		return
	}
	if to.Rank() > m.Status.Rank() {
		m.Status = to
	}
}

// apply sets the status and stamps the matching timestamp.
func (s *Service) apply(m *domain.Message, to domain.MessageStatus, at time.Time) {
	m.Status = to
	switch to {
	case domain.MessageSent:
		if m.SentAt == nil {
			m.SentAt = &at
		}
	case domain.MessageDelivered:
		if m.DeliveredAt == nil {
			m.DeliveredAt = &at
		}
	case domain.MessageOpened:
		if m.OpenedAt == nil {
			m.OpenedAt = &at
		}
	case domain.MessageClicked:
		if m.ClickedAt == nil {
			m.ClickedAt = &at
		}
	case domain.MessageBounced:
		if m.BouncedAt == nil {
			m.BouncedAt = &at
		}
	case domain.MessageComplained:
		if m.ComplainedAt == nil {
			m.ComplainedAt = &at
		}
	case domain.MessageReplied:
		if m.RepliedAt == nil {
			m.RepliedAt = &at
		}
	case domain.MessageCancelled:
		if m.CancelledAt == nil {
			m.CancelledAt = &at
		}
	case domain.MessageFailed:
		if m.FailedAt == nil {
			m.FailedAt = &at
		}
	}
}
