/*
sync.go - External feed endpoints

PURPOSE:
  Triggers feed ingestion for one provider and flips the provider's
  active flag. The since window for grade sync defaults to 30 days back.
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultSyncWindow = 30 * 24 * time.Hour

// SyncGrades handles POST /api/sync/{provider}/grades.
func (h *Handler) SyncGrades(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "provider")
	var req SyncGradesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	since := time.Now().Add(-defaultSyncWindow)
	if req.Since != nil {
		parsed, err := time.Parse(time.RFC3339, *req.Since)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since, want RFC3339", err)
			return
		}
		since = parsed
	}
	result, err := h.feed.SyncGrades(r.Context(), code, since)
	if err != nil {
		writeError(w, http.StatusBadRequest, "grade sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncHomeworks handles POST /api/sync/{provider}/homeworks.
func (h *Handler) SyncHomeworks(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "provider")
	result, err := h.feed.SyncHomeworks(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusBadRequest, "homework sync failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetProviderActive handles POST /api/sync/{provider}/active.
func (h *Handler) SetProviderActive(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "provider")
	var req ProviderActiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	record, err := h.feed.SetProviderActive(r.Context(), code, req.Active)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to change provider state", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
