/*
grades.go - Grade and bonus endpoints

PURPOSE:
  HTTP surface of the recorder: manual grade entry, grade listings and
  escalation bookkeeping, ad-hoc and homework bonuses.
*/
package api

import (
	"net/http"
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// CreateGrade handles POST /api/grades.
func (h *Handler) CreateGrade(w http.ResponseWriter, r *http.Request) {
	var req CreateGradeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	params := ledger.GradeParams{
		SubjectID:      req.SubjectID,
		SubjectTopicID: req.SubjectTopicID,
		BonusTaskID:    req.BonusTaskID,
		HomeworkID:     req.HomeworkID,
		Value:          ledger.GradeValue(req.Value),
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD", err)
			return
		}
		params.Date = &date
	}
	grade, err := h.recorder.AddGrade(r.Context(), params)
	if err != nil {
		h.writeDomainError(w, "failed to record grade", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGradeDTO(grade))
}

// ListGrades handles GET /api/grades.
func (h *Handler) ListGrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ledger.GradeFilter{
		Source:     ledger.GradeSource(q.Get("source")),
		Unrewarded: q.Get("unrewarded") == "true",
	}
	grades, err := h.recorder.ListGrades(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list grades", err)
		return
	}
	writeJSON(w, http.StatusOK, toGradeDTOs(grades))
}

// PendingEscalation handles GET /api/grades/pending-escalation.
func (h *Handler) PendingEscalation(w http.ResponseWriter, r *http.Request) {
	grades, err := h.recorder.PendingEscalation(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list escalations", err)
		return
	}
	writeJSON(w, http.StatusOK, toGradeDTOs(grades))
}

// MarkEscalated handles POST /api/grades/mark-escalated.
func (h *Handler) MarkEscalated(w http.ResponseWriter, r *http.Request) {
	var req IDListRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	count, err := h.recorder.MarkEscalated(r.Context(), req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark grades escalated", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

// =============================================================================
// BONUSES
// =============================================================================

// CreateBonus handles POST /api/bonuses.
func (h *Handler) CreateBonus(w http.ResponseWriter, r *http.Request) {
	var req CreateBonusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	bonus, err := h.recorder.AddBonus(r.Context(), ledger.BonusParams{
		HomeworkID: req.HomeworkID,
		Minutes:    req.Minutes,
		Reason:     req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, "failed to record bonus", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBonusDTO(bonus))
}

// ListUnrewardedBonuses handles GET /api/bonuses/unrewarded.
func (h *Handler) ListUnrewardedBonuses(w http.ResponseWriter, r *http.Request) {
	bonuses, err := h.recorder.ListUnrewardedBonuses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bonuses", err)
		return
	}
	out := make([]*BonusDTO, len(bonuses))
	for i, b := range bonuses {
		out[i] = toBonusDTO(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// MarkBonusesRewarded handles POST /api/bonuses/mark-rewarded.
func (h *Handler) MarkBonusesRewarded(w http.ResponseWriter, r *http.Request) {
	count, err := h.recorder.MarkAllBonusesRewarded(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to mark bonuses rewarded", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

// DeleteBonus handles DELETE /api/bonuses/{id}.
func (h *Handler) DeleteBonus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bonus id", err)
		return
	}
	deleted, err := h.recorder.DeleteBonus(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "failed to delete bonus", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "bonus not found", nil)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
