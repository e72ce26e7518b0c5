// Package api exposes the engine's HTTP surface: lead import, provider
// webhooks, campaign and sequence orchestration, the suppression registry,
// and operational queue controls.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/events"
	"github.com/hirespeedy/outreach-engine/internal/service/importer"
	"github.com/hirespeedy/outreach-engine/internal/service/message"
	"github.com/hirespeedy/outreach-engine/internal/service/sequence"
	"github.com/hirespeedy/outreach-engine/internal/service/sla"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
)

// ImportService runs lead import batches.
type ImportService interface {
	CreateJob(ctx context.Context) (*domain.ImportJob, error)
	GetJob(ctx context.Context, id string) (*domain.ImportJob, error)
	ProcessJob(ctx context.Context, jobID string, rows []map[string]string, mapping map[string]string) (*domain.ImportJob, error)
}

// SuppressionService is the registry surface the API exposes.
type SuppressionService interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource, leadID, notes string) error
	Get(ctx context.Context, email string) (*domain.Suppression, error)
	List(ctx context.Context, filter suppression.ListFilter) ([]domain.Suppression, int, error)
	GetStats(ctx context.Context) (*suppression.Stats, error)
}

// EventProcessor ingests provider webhooks and inbound replies.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev domain.ProviderEvent) (*events.Outcome, error)
	ProcessReply(ctx context.Context, reply domain.InboundReply) (*events.ReplyOutcome, error)
}

// CampaignStore persists campaign definitions and their aggregate stats.
type CampaignStore interface {
	Create(ctx context.Context, c *domain.Campaign) error
	Get(ctx context.Context, id string) (*domain.Campaign, error)
}

// SequenceService drives per-lead sequence state.
type SequenceService interface {
	Get(ctx context.Context, id string) (*domain.Sequence, error)
	Start(ctx context.Context, leadID, campaignID string) (*domain.Sequence, error)
	Pause(ctx context.Context, id, reason string) error
	Resume(ctx context.Context, id string) error
	Advance(ctx context.Context, id string) (*domain.Sequence, error)
	Complete(ctx context.Context, id string) error
	PauseCampaign(ctx context.Context, campaignID, reason string) error
	ResumeCampaign(ctx context.Context, campaignID string) error
}

// MessageService composes and transitions outbound messages.
type MessageService interface {
	Get(ctx context.Context, id string) (*domain.Message, error)
	Create(ctx context.Context, leadID, campaignID string, step int, subject, body string) (*domain.Message, error)
	Transition(ctx context.Context, id string, to domain.MessageStatus) (*domain.Message, error)
}

// Enqueuer schedules a message onto the send queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, messageID string, scheduledAt time.Time) (*domain.SendQueueItem, error)
}

// QueueInspector reports send-queue depth per status.
type QueueInspector interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// SendTrigger drains one batch of due queue items.
type SendTrigger interface {
	ProcessOnce(ctx context.Context) (int, error)
}

// ConversationReader reads a conversation's message thread.
type ConversationReader interface {
	Messages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error)
}

// DeadlineService escalates overdue SLA deadlines and reports per-entity
// deadline history.
type DeadlineService interface {
	Sweep(ctx context.Context, now time.Time) ([]*domain.Deadline, error)
	ListForEntity(ctx context.Context, entityType, entityID string) ([]*domain.Deadline, error)
}

// SweepLock guards manual queue processing so concurrent triggers (cron plus
// an operator click) cannot double-drain the queue.
type SweepLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Deps bundles everything the route handlers call. Sender, Deadlines and
// SweepLock may be nil when the API runs without an embedded worker.
type Deps struct {
	Imports       ImportService
	Suppressions  SuppressionService
	Processor     EventProcessor
	Campaigns     CampaignStore
	Sequences     SequenceService
	Messages      MessageService
	Queue         QueueInspector
	Enqueue       Enqueuer
	Sender        SendTrigger
	Conversations ConversationReader
	Deadlines     DeadlineService
	SweepLock     SweepLock
}

// Handlers holds the services behind the HTTP routes.
type Handlers struct {
	deps Deps
}

// NewHandlers creates the route handler set.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// HealthCheck reports process liveness plus queue depth when available.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.deps.Queue != nil {
		if counts, err := h.deps.Queue.CountByStatus(r.Context()); err == nil {
			resp["queue"] = counts
		} else {
			resp["status"] = "degraded"
			resp["queue_error"] = err.Error()
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

var (
	_ ImportService      = (*importer.Service)(nil)
	_ SuppressionService = (*suppression.Service)(nil)
	_ EventProcessor     = (*events.Processor)(nil)
	_ SequenceService    = (*sequence.Service)(nil)
	_ MessageService     = (*message.Service)(nil)
	_ DeadlineService    = (*sla.Service)(nil)
)
