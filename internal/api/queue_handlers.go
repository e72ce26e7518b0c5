package api

import (
	"net/http"
	"time"

	"github.com/hirespeedy/outreach-engine/internal/pkg/logger"
)

// QueueStatus reports queue depth per status.
func (h *Handlers) QueueStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.deps.Queue.CountByStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

// ProcessQueue drains one batch of due queue items on demand. A distributed
// lock keeps a cron trigger and an operator trigger from draining the same
// batch twice.
func (h *Handlers) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	if h.deps.Sender == nil {
		respondError(w, http.StatusServiceUnavailable, "send worker is not attached to this server")
		return
	}

	if h.deps.SweepLock != nil {
		ok, err := h.deps.SweepLock.TryAcquire(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "acquiring sweep lock: "+err.Error())
			return
		}
		if !ok {
			respondJSON(w, http.StatusConflict, map[string]string{"error": "a queue sweep is already running"})
			return
		}
		defer func() {
			if err := h.deps.SweepLock.Release(r.Context()); err != nil {
				logger.Warn("[API] Failed to release sweep lock", "error", err.Error())
			}
		}()
	}

	processed, err := h.deps.Sender.ProcessOnce(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"processed": processed})
}

// SweepDeadlines escalates overdue SLA deadlines and returns the entries
// that breached during this sweep.
func (h *Handlers) SweepDeadlines(w http.ResponseWriter, r *http.Request) {
	if h.deps.Deadlines == nil {
		respondError(w, http.StatusServiceUnavailable, "deadline tracking is not enabled")
		return
	}
	breached, err := h.deps.Deadlines.Sweep(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"breached":       breached,
		"breached_count": len(breached),
	})
}
