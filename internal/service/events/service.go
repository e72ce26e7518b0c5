package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
	"github.com/hirespeedy/outreach-engine/internal/service/classify"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
)

// Options tunes the processor.
type Options struct {
	// AutoPauseComplaintThreshold is the complaint count within
	// AutoPauseWindow that force-pauses a campaign. Checked during complaint
	// handling, not by a separate sweep.
	AutoPauseComplaintThreshold int
	AutoPauseWindow             time.Duration
	ClassifierTimeout           time.Duration
}

// Deps wires the processor to the rest of the engine.
type Deps struct {
	Messages      MessageStore
	Leads         LeadStore
	Sequences     SequenceManager
	Queue         QueueCanceller
	Suppressions  Suppressor
	Log           EventLog
	Stats         StatCounter
	Conversations ConversationStore
	Classifier    classify.Classifier
	Deadlines     DeadlineTracker // optional
}

// Processor applies webhook and inbound-reply events to engine state.
type Processor struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func NewProcessor(deps Deps, opts Options) *Processor {
	if opts.AutoPauseComplaintThreshold <= 0 {
		opts.AutoPauseComplaintThreshold = 3
	}
	if opts.AutoPauseWindow <= 0 {
		opts.AutoPauseWindow = 24 * time.Hour
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = 10 * time.Second
	}
	return &Processor{deps: deps, opts: opts, now: time.Now}
}

// Outcome reports what a webhook dispatch did, for the receiver's response.
type Outcome struct {
	Duplicate  bool     `json:"duplicate"`
	MessageID  string   `json:"message_id,omitempty"`
	LeadID     string   `json:"lead_id,omitempty"`
	CampaignID string   `json:"campaign_id,omitempty"`
	Actions    []string `json:"actions,omitempty"`
}

// ReplyOutcome reports what an inbound reply produced.
type ReplyOutcome struct {
	LeadFound      bool    `json:"lead_found"`
	Duplicate      bool    `json:"duplicate,omitempty"`
	LeadID         string  `json:"lead_id,omitempty"`
	Classification string  `json:"classification,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Suppressed     bool    `json:"suppressed,omitempty"`
}

// ProcessEvent dispatches one provider webhook. The event log insert is the
// idempotency barrier: a duplicate provider event id short-circuits before
// any side effect. When a side effect fails after the insert, the logged id
// is discarded again, so the provider's redelivery retries the dispatch.
func (p *Processor) ProcessEvent(ctx context.Context, ev domain.ProviderEvent) (*Outcome, error) {
	msg, err := p.deps.Messages.GetByProviderMessageID(ctx, ev.ProviderMessageID)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, ev.ProviderMessageID)
		}
		return nil, err
	}

	at := ev.OccurredAt
	if at.IsZero() {
		at = p.now()
	}

	fresh, err := p.deps.Log.Record(ctx, &domain.CampaignEvent{
		ID:              uuid.New().String(),
		ProviderEventID: ev.ProviderID,
		CampaignID:      msg.CampaignID,
		LeadID:          msg.LeadID,
		MessageID:       msg.ID,
		Type:            ev.Type,
		OccurredAt:      at,
	})
	if err != nil {
		return nil, fmt.Errorf("recording event: %w", err)
	}
	out := &Outcome{MessageID: msg.ID, LeadID: msg.LeadID, CampaignID: msg.CampaignID}
	if !fresh {
		out.Duplicate = true
		logger.Debug("[Events] Duplicate webhook ignored", "provider_event_id", ev.ProviderID, "type", string(ev.Type))
		return out, nil
	}

	switch ev.Type {
	case domain.EventDelivered:
		if err = p.deps.Messages.RecordDelivered(ctx, msg, at); err == nil {
			p.count(ctx, msg.CampaignID, StatDelivered)
		}
	case domain.EventOpened:
		if err = p.deps.Messages.RecordOpen(ctx, msg, at); err == nil {
			p.count(ctx, msg.CampaignID, StatOpened)
		}
	case domain.EventClicked:
		if err = p.deps.Messages.RecordClick(ctx, msg, at); err == nil {
			p.count(ctx, msg.CampaignID, StatClicked)
		}
	case domain.EventBounced:
		err = p.handleBounce(ctx, msg, at, out)
	case domain.EventComplained:
		err = p.handleComplaint(ctx, msg, at, out)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, ev.Type)
	}
	if err != nil {
		p.discardEvent(ctx, ev.ProviderID)
		return out, err
	}

	p.trackDeadline(ctx, "lead", msg.LeadID, string(ev.Type), "", at)
	return out, nil
}

// discardEvent compensates a dispatch whose side effects failed after the
// event id was logged. Leaving the row would make the redelivery a duplicate
// and permanently drop the suppression and cancellation actions.
func (p *Processor) discardEvent(ctx context.Context, providerEventID string) {
	if err := p.deps.Log.Discard(ctx, providerEventID); err != nil {
		logger.Error("[Events] Could not unlog failed dispatch, redelivery will dedupe",
			"provider_event_id", providerEventID, "error", err.Error())
	}
}

func (p *Processor) handleBounce(ctx context.Context, msg *domain.Message, at time.Time, out *Outcome) error {
	if err := p.deps.Messages.RecordBounce(ctx, msg, at); err != nil {
		return err
	}
	p.count(ctx, msg.CampaignID, StatBounced)

	lead, err := p.deps.Leads.Get(ctx, msg.LeadID)
	if err != nil {
		return err
	}
	if err := p.suppressLead(ctx, lead, "bounced", domain.ReasonBounce, "hard bounce reported by provider"); err != nil {
		return err
	}
	if err := p.haltOutreach(ctx, lead.ID, domain.PauseReasonBounce, out); err != nil {
		return err
	}

	logger.Audit("lead_suppressed_bounce", "lead_id", lead.ID, "email", lead.Email, "campaign_id", msg.CampaignID)
	out.Actions = append(out.Actions, "suppressed")
	return nil
}

func (p *Processor) handleComplaint(ctx context.Context, msg *domain.Message, at time.Time, out *Outcome) error {
	if err := p.deps.Messages.RecordComplaint(ctx, msg, at); err != nil {
		return err
	}
	p.count(ctx, msg.CampaignID, StatComplained)

	lead, err := p.deps.Leads.Get(ctx, msg.LeadID)
	if err != nil {
		return err
	}
	if err := p.suppressLead(ctx, lead, "spam_complaint", domain.ReasonComplaint, "spam complaint reported by provider"); err != nil {
		return err
	}
	if err := p.haltOutreach(ctx, lead.ID, domain.PauseReasonComplaint, out); err != nil {
		return err
	}

	logger.Audit("lead_suppressed_complaint", "lead_id", lead.ID, "email", lead.Email, "campaign_id", msg.CampaignID)
	out.Actions = append(out.Actions, "suppressed")

	// Trailing-window auto-pause. The complaint just logged counts toward
	// the threshold; pausing an already-paused campaign is a no-op.
	since := at.Add(-p.opts.AutoPauseWindow)
	n, err := p.deps.Log.ComplaintsSince(ctx, msg.CampaignID, since)
	if err != nil {
		return err
	}
	if n >= p.opts.AutoPauseComplaintThreshold {
		if err := p.deps.Sequences.PauseCampaign(ctx, msg.CampaignID, "complaint_threshold"); err != nil {
			return err
		}
		logger.Audit("campaign_auto_paused", "campaign_id", msg.CampaignID, "complaints_24h", n)
		out.Actions = append(out.Actions, "campaign_paused")
	}
	return nil
}

// ProcessReply handles one inbound-reply notification. An unknown sender is
// not an error: the receiver answers with a neutral "lead not found" result.
func (p *Processor) ProcessReply(ctx context.Context, reply domain.InboundReply) (*ReplyOutcome, error) {
	email := domain.NormalizeEmail(reply.FromEmail)
	lead, err := p.deps.Leads.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrLeadNotFound) {
			logger.Debug("[Events] Inbound reply from unknown sender", "email", email)
			return &ReplyOutcome{LeadFound: false}, nil
		}
		return nil, err
	}

	at := reply.ReceivedAt
	if at.IsZero() {
		at = p.now()
	}

	res := p.classifyReply(ctx, reply.BodyText)
	out := &ReplyOutcome{
		LeadFound:      true,
		LeadID:         lead.ID,
		Classification: string(res.Label),
		Confidence:     res.Confidence,
	}

	// Attach the classification to the most recent sent message. A lead can
	// reply from a thread older than any tracked message; the reply is still
	// processed against the lead itself.
	var campaignID string
	msg, err := p.deps.Messages.LatestSentForLead(ctx, lead.ID)
	switch {
	case err == nil:
		campaignID = msg.CampaignID
	case errors.Is(err, message.ErrNotFound):
		msg = nil
	default:
		return nil, err
	}

	// Mail Message-ID headers dedupe redelivered reply notifications the
	// same way provider event ids dedupe webhooks.
	if reply.MessageID != "" {
		logEv := &domain.CampaignEvent{
			ID:              uuid.New().String(),
			ProviderEventID: "inbound:" + reply.MessageID,
			CampaignID:      campaignID,
			LeadID:          lead.ID,
			Type:            domain.EventReplied,
			OccurredAt:      at,
		}
		if msg != nil {
			logEv.MessageID = msg.ID
		}
		fresh, err := p.deps.Log.Record(ctx, logEv)
		if err != nil {
			return nil, fmt.Errorf("recording reply event: %w", err)
		}
		if !fresh {
			out.Duplicate = true
			return out, nil
		}
	}

	if err := p.applyReply(ctx, lead, msg, res, at, out); err != nil {
		if reply.MessageID != "" {
			p.discardEvent(ctx, "inbound:"+reply.MessageID)
		}
		return nil, err
	}

	if campaignID != "" {
		p.count(ctx, campaignID, StatReplied)
		if res.Label == classify.LabelPositive {
			p.count(ctx, campaignID, StatPositiveReplies)
		}
		if err := p.appendConversation(ctx, lead.ID, campaignID, reply, res); err != nil {
			logger.Error("[Events] Conversation append failed", "lead_id", lead.ID, "error", err.Error())
		}
	}

	p.trackDeadline(ctx, "lead", lead.ID, "reply_received", lead.Email, at)
	return out, nil
}

// applyReply mutates message, lead, suppression, and sequence state for one
// fresh inbound reply.
func (p *Processor) applyReply(ctx context.Context, lead *domain.Lead, msg *domain.Message, res classify.Result, at time.Time, out *ReplyOutcome) error {
	if msg != nil {
		if err := p.deps.Messages.RecordReply(ctx, msg, string(res.Label), at); err != nil {
			return err
		}
	}

	lead.HasReplied = true
	lead.ReplySentiment = string(res.Label)
	lead.LastReplyAt = &at
	if lead.Status == domain.LeadNew || lead.Status == domain.LeadContacted {
		lead.Status = domain.LeadReplied
	}

	pauseReason := domain.PauseReasonReply
	if res.Label == classify.LabelUnsubscribe {
		pauseReason = domain.PauseReasonUnsubscribe
		lead.IsSuppressed = true
		lead.SuppressionReason = string(domain.ReasonUnsubscribe)
		lead.Status = domain.LeadSuppressed
		if err := p.deps.Suppressions.Suppress(ctx, lead.Email, domain.ReasonUnsubscribe, domain.SourceReply, lead.ID, "opt-out via inbound reply"); err != nil {
			return err
		}
		logger.Audit("lead_unsubscribed", "lead_id", lead.ID, "email", lead.Email)
		out.Suppressed = true
	}
	if err := p.deps.Leads.Update(ctx, lead); err != nil {
		return err
	}
	return p.haltOutreach(ctx, lead.ID, pauseReason, &Outcome{})
}

// classifyReply runs the classifier under its timeout and degrades to
// neutral on failure, so compliance actions driven by a determinable label
// are never lost to a classifier outage.
func (p *Processor) classifyReply(ctx context.Context, text string) classify.Result {
	cctx, cancel := context.WithTimeout(ctx, p.opts.ClassifierTimeout)
	defer cancel()

	res, err := p.deps.Classifier.Classify(cctx, text)
	if err != nil {
		logger.Warn("[Events] Classifier failed, using neutral", "error", err.Error())
		return classify.Neutral()
	}
	return res
}

// haltOutreach cancels pre-send messages and pending queue items for the
// lead and pauses its sequences. Shared by bounce, complaint, and reply
// handling.
func (p *Processor) haltOutreach(ctx context.Context, leadID, pauseReason string, out *Outcome) error {
	cancelled, err := p.deps.Messages.CancelPreSendForLead(ctx, leadID)
	if err != nil {
		return err
	}
	queued, err := p.deps.Queue.CancelPendingForLead(ctx, leadID)
	if err != nil {
		return err
	}
	paused, err := p.deps.Sequences.PauseAllForLead(ctx, leadID, pauseReason)
	if err != nil {
		return err
	}
	if len(cancelled) > 0 || queued > 0 || paused > 0 {
		logger.Info("[Events] Outreach halted", "lead_id", leadID, "reason", pauseReason,
			"messages_cancelled", len(cancelled), "queue_items_cancelled", queued, "sequences_paused", paused)
	}
	if len(cancelled) > 0 || queued > 0 {
		out.Actions = append(out.Actions, "queue_cancelled")
	}
	if paused > 0 {
		out.Actions = append(out.Actions, "sequences_paused")
	}
	return nil
}

func (p *Processor) suppressLead(ctx context.Context, lead *domain.Lead, leadReason string, reason domain.SuppressionReason, notes string) error {
	lead.IsSuppressed = true
	lead.SuppressionReason = leadReason
	lead.Status = domain.LeadSuppressed
	if err := p.deps.Leads.Update(ctx, lead); err != nil {
		return err
	}
	return p.deps.Suppressions.Suppress(ctx, lead.Email, reason, domain.SourceWebhook, lead.ID, notes)
}

func (p *Processor) appendConversation(ctx context.Context, leadID, campaignID string, reply domain.InboundReply, res classify.Result) error {
	conv, err := p.deps.Conversations.FindOrCreate(ctx, leadID, campaignID)
	if err != nil {
		return err
	}
	err = p.deps.Conversations.Append(ctx, conv.ID, &domain.ConversationMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Direction:      domain.DirectionInbound,
		Subject:        reply.Subject,
		Content:        reply.BodyText,
		Classification: string(res.Label),
		CreatedAt:      p.now(),
	})
	if err != nil {
		return err
	}
	if res.Label == classify.LabelPositive && conv.Status != domain.ConversationHot {
		return p.deps.Conversations.SetStatus(ctx, conv.ID, domain.ConversationHot)
	}
	return nil
}

// count increments a campaign stat. Stat drift is tolerable; a failed
// increment is logged and never fails the dispatch.
func (p *Processor) count(ctx context.Context, campaignID, counter string) {
	if err := p.deps.Stats.Increment(ctx, campaignID, counter); err != nil {
		logger.Error("[Events] Stat increment failed", "campaign_id", campaignID, "counter", counter, "error", err.Error())
	}
}

func (p *Processor) trackDeadline(ctx context.Context, entityType, entityID, eventType, actor string, at time.Time) {
	if p.deps.Deadlines == nil {
		return
	}
	if err := p.deps.Deadlines.HandleEvent(ctx, entityType, entityID, eventType, actor, at); err != nil {
		logger.Debug("[Events] Deadline tracking skipped", "event", eventType, "error", err.Error())
	}
}
