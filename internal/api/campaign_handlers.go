package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
)

type createCampaignRequest struct {
	Name           string   `json:"name"`
	Goal           string   `json:"goal"`
	Tonality       string   `json:"tonality"`
	MaxWordCount   int      `json:"max_word_count"`
	ForbiddenWords []string `json:"forbidden_words"`
}

// CreateCampaign registers a new campaign in active state.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := &domain.Campaign{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Goal:           req.Goal,
		Tonality:       req.Tonality,
		MaxWordCount:   req.MaxWordCount,
		ForbiddenWords: req.ForbiddenWords,
		Status:         domain.CampaignActive,
	}
	if err := h.deps.Campaigns.Create(r.Context(), c); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// GetCampaign returns a campaign with its aggregate stats.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.deps.Campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sequence.ErrCampaignNotFound) {
			respondError(w, http.StatusNotFound, "campaign not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type pauseRequest struct {
	Reason string `json:"reason"`
}

// PauseCampaign pauses a campaign and all its active sequences.
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = "operator"
	}
	if err := h.deps.Sequences.PauseCampaign(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// ResumeCampaign reactivates a paused campaign.
func (h *Handlers) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sequences.ResumeCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

type startSequenceRequest struct {
	LeadID     string `json:"lead_id"`
	CampaignID string `json:"campaign_id"`
}

// StartSequence enrolls a lead into a campaign. At most one open sequence
// may exist per (lead, campaign) pair.
func (h *Handlers) StartSequence(w http.ResponseWriter, r *http.Request) {
	var req startSequenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LeadID == "" || req.CampaignID == "" {
		respondError(w, http.StatusBadRequest, "lead_id and campaign_id are required")
		return
	}

	seq, err := h.deps.Sequences.Start(r.Context(), req.LeadID, req.CampaignID)
	if err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, seq)
}

// PauseSequence pauses one sequence.
func (h *Handlers) PauseSequence(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = "operator"
	}
	if err := h.deps.Sequences.Pause(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

// ResumeSequence resumes a paused sequence. Compliance-paused sequences stay
// paused while the lead is still suppressed.
func (h *Handlers) ResumeSequence(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Sequences.Resume(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

// AdvanceSequence moves a sequence to its next step.
func (h *Handlers) AdvanceSequence(w http.ResponseWriter, r *http.Request) {
	seq, err := h.deps.Sequences.Advance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondSequenceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seq)
}

func respondSequenceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sequence.ErrNotFound), errors.Is(err, sequence.ErrCampaignNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, sequence.ErrAlreadyActive):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sequence.ErrNotActive),
		errors.Is(err, sequence.ErrNotPaused),
		errors.Is(err, sequence.ErrComplianceHold),
		errors.Is(err, sequence.ErrLeadSuppressed):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

type createMessageRequest struct {
	LeadID     string `json:"lead_id"`
	CampaignID string `json:"campaign_id"`
	Step       int    `json:"step"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// CreateMessage drafts an outbound message for a sequence step.
func (h *Handlers) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LeadID == "" || req.CampaignID == "" {
		respondError(w, http.StatusBadRequest, "lead_id and campaign_id are required")
		return
	}

	m, err := h.deps.Messages.Create(r.Context(), req.LeadID, req.CampaignID, req.Step, req.Subject, req.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// GetMessage returns a message with its lifecycle timestamps.
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Messages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondMessageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type transitionMessageRequest struct {
	Status string `json:"status"`
}

// TransitionMessage applies a single review-flow transition (draft →
// pending_review → approved, or a cancel).
func (h *Handlers) TransitionMessage(w http.ResponseWriter, r *http.Request) {
	var req transitionMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.deps.Messages.Transition(r.Context(), chi.URLParam(r, "id"), domain.MessageStatus(req.Status))
	if err != nil {
		respondMessageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

type scheduleMessageRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// ScheduleMessage moves an approved message to scheduled and enqueues it for
// sending at the given time (now when omitted).
func (h *Handlers) ScheduleMessage(w http.ResponseWriter, r *http.Request) {
	var req scheduleMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ScheduledAt.IsZero() {
		req.ScheduledAt = time.Now().UTC()
	}

	m, err := h.deps.Messages.Transition(r.Context(), chi.URLParam(r, "id"), domain.MessageScheduled)
	if err != nil {
		respondMessageError(w, err)
		return
	}

	item, err := h.deps.Enqueue.Enqueue(r.Context(), m.ID, req.ScheduledAt)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "enqueueing message: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":    m,
		"queue_item": item,
	})
}

func respondMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, message.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, message.ErrInvalidTransition):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
