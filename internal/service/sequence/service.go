package sequence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

// Service implements sequence and campaign state management.
type Service struct {
	repo      Repository
	campaigns CampaignRepository
	suppress  SuppressionChecker
	leads     LeadGetter
	now       func() time.Time
}

// NewService creates a sequence service. suppress and leads are required for
// the compliance guard on Start and Resume.
func NewService(repo Repository, campaigns CampaignRepository, suppress SuppressionChecker, leads LeadGetter) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		suppress:  suppress,
		leads:     leads,
		now:       time.Now,
	}
}

// Get returns a sequence by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Sequence, error) {
	return s.repo.Get(ctx, id)
}

// Start creates a new active sequence for a (lead, campaign) pair. Refused
// when a non-completed sequence already exists or the lead is suppressed.
func (s *Service) Start(ctx context.Context, leadID, campaignID string) (*domain.Sequence, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	suppressed, err := s.suppress.IsSuppressed(ctx, lead.Email)
	if err != nil {
		return nil, err
	}
	if suppressed || lead.IsSuppressed {
		return nil, ErrLeadSuppressed
	}

	if _, err := s.repo.FindOpen(ctx, leadID, campaignID); err == nil {
		return nil, ErrAlreadyActive
	} else if err != ErrNotFound {
		return nil, err
	}

	seq := &domain.Sequence{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		CampaignID:  campaignID,
		CurrentStep: 1,
		Status:      domain.SequenceActive,
	}
	if err := s.repo.Create(ctx, seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// Pause pauses an active sequence and records the reason.
func (s *Service) Pause(ctx context.Context, id, reason string) error {
	seq, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.pause(ctx, seq, reason)
}

func (s *Service) pause(ctx context.Context, seq *domain.Sequence, reason string) error {
	if seq.Status != domain.SequenceActive {
		// Already paused: a compliance reason may replace a weaker one, but
		// never the other way around.
		if seq.Status == domain.SequencePaused &&
			domain.CompliancePauseReason(reason) && !domain.CompliancePauseReason(seq.PausedReason) {
			seq.PausedReason = reason
			return s.repo.Update(ctx, seq)
		}
		return nil
	}
	now := s.now()
	seq.Status = domain.SequencePaused
	seq.PausedReason = reason
	seq.PausedAt = &now
	return s.repo.Update(ctx, seq)
}

// Resume reactivates a paused sequence. If the pause reason was a compliance
// signal and the lead is still suppressed, the resume is rejected — the
// operator is acting on a stale view.
func (s *Service) Resume(ctx context.Context, id string) error {
	seq, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if seq.Status != domain.SequencePaused {
		return ErrNotPaused
	}

	if domain.CompliancePauseReason(seq.PausedReason) {
		lead, err := s.leads.Get(ctx, seq.LeadID)
		if err != nil {
			return err
		}
		suppressed, err := s.suppress.IsSuppressed(ctx, lead.Email)
		if err != nil {
			return err
		}
		if suppressed || lead.IsSuppressed {
			logger.Warn("resume rejected on compliance hold",
				"sequence_id", seq.ID,
				"lead_id", seq.LeadID,
				"paused_reason", seq.PausedReason,
			)
			return ErrComplianceHold
		}
	}

	seq.Status = domain.SequenceActive
	seq.PausedReason = ""
	seq.PausedAt = nil
	return s.repo.Update(ctx, seq)
}

// Advance moves an active sequence to the next step.
func (s *Service) Advance(ctx context.Context, id string) (*domain.Sequence, error) {
	seq, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if seq.Status != domain.SequenceActive {
		return nil, ErrNotActive
	}
	seq.CurrentStep++
	if err := s.repo.Update(ctx, seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// Complete marks a sequence finished. Terminal.
func (s *Service) Complete(ctx context.Context, id string) error {
	seq, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if seq.Status == domain.SequenceCompleted {
		return nil
	}
	now := s.now()
	seq.Status = domain.SequenceCompleted
	seq.CompletedAt = &now
	return s.repo.Update(ctx, seq)
}

// PauseAllForLead pauses every active sequence for a lead with the given
// reason. Used by event ingestion auto-actions (bounce, complaint, reply).
func (s *Service) PauseAllForLead(ctx context.Context, leadID, reason string) (int, error) {
	seqs, err := s.repo.ActiveForLead(ctx, leadID)
	if err != nil {
		return 0, err
	}
	paused := 0
	for i := range seqs {
		if err := s.pause(ctx, &seqs[i], reason); err != nil {
			return paused, err
		}
		paused++
	}
	return paused, nil
}

// PauseCampaign force-pauses a campaign with a reason. Idempotent: pausing an
// already-paused campaign is a no-op.
func (s *Service) PauseCampaign(ctx context.Context, campaignID, reason string) error {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignPaused {
		return nil
	}
	logger.Warn("campaign paused", "campaign_id", campaignID, "reason", reason)
	return s.campaigns.SetStatus(ctx, campaignID, domain.CampaignPaused, reason)
}

// ResumeCampaign reactivates a paused campaign.
func (s *Service) ResumeCampaign(ctx context.Context, campaignID string) error {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status == domain.CampaignActive {
		return nil
	}
	return s.campaigns.SetStatus(ctx, campaignID, domain.CampaignActive, "")
}
