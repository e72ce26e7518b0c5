package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/events"
)

// providerEventEnvelope is the provider's webhook wire shape: an event type
// plus a data object referencing the provider message id.
type providerEventEnvelope struct {
	Type string `json:"type"`
	Data struct {
		EventID    string    `json:"event_id"`
		EmailID    string    `json:"email_id"`
		OccurredAt time.Time `json:"occurred_at"`
	} `json:"data"`
}

// HandleProviderEvent ingests one delivery-lifecycle webhook from the email
// provider. Unknown message references and duplicate event ids are answered
// with 200 so the provider does not retry them forever.
func (h *Handlers) HandleProviderEvent(w http.ResponseWriter, r *http.Request) {
	var env providerEventEnvelope
	if !decodeBody(w, r, &env) {
		return
	}
	if env.Data.EventID == "" || env.Type == "" || env.Data.EmailID == "" {
		respondError(w, http.StatusBadRequest, "type, data.event_id and data.email_id are required")
		return
	}

	ev := domain.ProviderEvent{
		ProviderID:        env.Data.EventID,
		Type:              domain.EventType(env.Type),
		ProviderMessageID: env.Data.EmailID,
		OccurredAt:        env.Data.OccurredAt,
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	outcome, err := h.deps.Processor.ProcessEvent(r.Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, events.ErrUnknownMessage):
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"accepted": false,
				"reason":   "unknown message reference",
			})
		case errors.Is(err, events.ErrUnknownEventType):
			respondError(w, http.StatusBadRequest, "unknown event type: "+string(ev.Type))
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accepted": true,
		"outcome":  outcome,
	})
}

// HandleInboundReply ingests an inbound reply notification. A sender that
// does not match any lead gets a neutral 200 response.
func (h *Handlers) HandleInboundReply(w http.ResponseWriter, r *http.Request) {
	var reply domain.InboundReply
	if !decodeBody(w, r, &reply) {
		return
	}
	if reply.FromEmail == "" {
		respondError(w, http.StatusBadRequest, "from_email is required")
		return
	}
	if reply.ReceivedAt.IsZero() {
		reply.ReceivedAt = time.Now().UTC()
	}

	outcome, err := h.deps.Processor.ProcessReply(r.Context(), reply)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, outcome)
}
