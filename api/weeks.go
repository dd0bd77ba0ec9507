/*
weeks.go - Weekly ledger endpoints

PURPOSE:
  HTTP surface of the calculation engine: calculate, preview, the week
  lifecycle, and finalization. Calculation outcomes that are not hard
  errors (previous week not finalized, already calculated) come back as
  200 with the status field set, so clients branch on status rather than
  on HTTP codes.
*/
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hearthside/learning-hub/ledger"
)

// CalculateWeek handles POST /api/weeks/calculate.
func (h *Handler) CalculateWeek(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	result, err := h.engine.Calculate(r.Context(), req.NewWeekKey, req.FundTopup)
	if err != nil {
		h.writeDomainError(w, "calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalcResultDTO(result))
}

// PreviewWeek handles GET /api/weeks/preview.
func (h *Handler) PreviewWeek(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Preview(r.Context())
	if err != nil {
		h.writeDomainError(w, "preview failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toCalcResultDTO(result))
}

// CreateWeek handles POST /api/weeks.
func (h *Handler) CreateWeek(w http.ResponseWriter, r *http.Request) {
	var req CreateWeekRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	week, err := h.engine.CreateWeek(r.Context(), req.WeekKey)
	if err != nil {
		h.writeDomainError(w, "failed to create week", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWeekDTO(week))
}

// ListWeeks handles GET /api/weeks.
func (h *Handler) ListWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.engine.ListWeeks(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list weeks", err)
		return
	}
	out := make([]*WeekDTO, len(weeks))
	for i, wk := range weeks {
		out[i] = toWeekDTO(wk)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetWeek handles GET /api/weeks/{key}.
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	week, err := h.engine.GetWeek(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get week", err)
		return
	}
	if week == nil {
		writeError(w, http.StatusNotFound, "week not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(week))
}

// UpdateWeek handles PATCH /api/weeks/{key}.
func (h *Handler) UpdateWeek(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req UpdateWeekRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	week, err := h.engine.UpdateWeek(r.Context(), key, ledger.UpdateWeekParams{
		PenaltyMinutes:      req.PenaltyMinutes,
		ActualPlayedMinutes: req.ActualPlayedMinutes,
		TotalMinutes:        req.TotalMinutes,
	})
	if err != nil {
		// A finalized week comes back unchanged alongside the error.
		if week != nil && errors.Is(err, ledger.ErrWeekFinalized) {
			writeJSON(w, http.StatusConflict, WeekConflictResponse{
				Error:   "week is finalized",
				Details: err.Error(),
				Week:    toWeekDTO(week),
			})
			return
		}
		h.writeDomainError(w, "failed to update week", err)
		return
	}
	if week == nil {
		writeError(w, http.StatusNotFound, "week not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(week))
}

// FinalizeWeek handles POST /api/weeks/{key}/finalize.
func (h *Handler) FinalizeWeek(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req FinalizeWeekRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	week, err := h.engine.Finalize(r.Context(), key, req.ActualPlayedMinutes)
	if err != nil {
		h.writeDomainError(w, "failed to finalize week", err)
		return
	}
	if week == nil {
		writeError(w, http.StatusNotFound, "week not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWeekDTO(week))
}
