package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hirespeedy/outreach-engine/internal/domain"
	"github.com/hirespeedy/outreach-engine/internal/service/suppression"
)

// ListSuppressions returns a page of registry entries, filterable by reason,
// source and a substring match on the address.
func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := suppression.ListFilter{
		Reason: q.Get("reason"),
		Source: q.Get("source"),
		Search: q.Get("search"),
		Limit:  50,
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	entries, total, err := h.deps.Suppressions.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"suppressions": entries,
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

type createSuppressionRequest struct {
	Email string `json:"email"`
	Notes string `json:"notes"`
}

// CreateSuppression adds a manual operator suppression. Manual entries are
// the lowest severity tier, so an existing bounce or complaint entry for the
// same address is left untouched.
func (h *Handlers) CreateSuppression(w http.ResponseWriter, r *http.Request) {
	var req createSuppressionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		respondError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	if err := h.deps.Suppressions.Suppress(r.Context(), email, domain.ReasonManual, domain.SourceOperator, "", req.Notes); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"email": email, "status": "suppressed"})
}

// GetSuppression looks up a single registry entry.
func (h *Handlers) GetSuppression(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(chi.URLParam(r, "email"))
	entry, err := h.deps.Suppressions.Get(r.Context(), email)
	if err != nil {
		if errors.Is(err, suppression.ErrNotFound) {
			respondError(w, http.StatusNotFound, "address is not suppressed")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// SuppressionStats returns registry totals broken down by reason and source.
func (h *Handlers) SuppressionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Suppressions.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
