package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hirespeedy/outreach-engine/internal/service/importer"
)

type createImportRequest struct {
	Rows    []map[string]string `json:"rows"`
	Mapping map[string]string   `json:"mapping"`
}

// CreateImport accepts a batch of lead rows, runs the import synchronously
// and returns the finished job with its per-row error list.
func (h *Handlers) CreateImport(w http.ResponseWriter, r *http.Request) {
	var req createImportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Rows) == 0 {
		respondError(w, http.StatusBadRequest, "rows is required")
		return
	}

	job, err := h.deps.Imports.CreateJob(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "creating import job: "+err.Error())
		return
	}

	job, err = h.deps.Imports.ProcessJob(r.Context(), job.ID, req.Rows, req.Mapping)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "processing import: "+err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, job)
}

// GetImport returns an import job by id, including row errors.
func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Imports.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, importer.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, "import job not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, job)
}
