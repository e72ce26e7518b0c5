package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ConversationMessages returns the full thread for a conversation, oldest
// first.
func (h *Handlers) ConversationMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.deps.Conversations.Messages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// EntityDeadlines returns every SLA deadline recorded for an entity, open or
// closed.
func (h *Handlers) EntityDeadlines(w http.ResponseWriter, r *http.Request) {
	if h.deps.Deadlines == nil {
		respondError(w, http.StatusServiceUnavailable, "deadline tracking is not enabled")
		return
	}
	deadlines, err := h.deps.Deadlines.ListForEntity(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"deadlines": deadlines})
}
