/*
homeworks.go - Homework endpoints

PURPOSE:
  HTTP surface of the homework lifecycle: create, edit, complete (with
  the bonus/penalty settlement), the overdue sweep, and the deadline
  reminders. A completion carrying a recommended grade of 4 or 5 is
  rejected up front so the student redoes the work instead of closing it.
*/
package api

import (
	"net/http"
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// CreateHomework handles POST /api/homeworks.
func (h *Handler) CreateHomework(w http.ResponseWriter, r *http.Request) {
	var req CreateHomeworkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	params := ledger.HomeworkParams{
		SubjectID:      req.SubjectID,
		SubjectTopicID: req.SubjectTopicID,
		BookID:         req.BookID,
		Description:    req.Description,
	}
	if req.DeadlineAt != nil {
		deadline, err := time.Parse(time.RFC3339, *req.DeadlineAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline_at, want RFC3339", err)
			return
		}
		params.DeadlineAt = &deadline
	}
	hw, err := h.recorder.CreateHomework(r.Context(), params)
	if err != nil {
		h.writeDomainError(w, "failed to create homework", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHomeworkDTO(hw))
}

// ListHomeworks handles GET /api/homeworks.
func (h *Handler) ListHomeworks(w http.ResponseWriter, r *http.Request) {
	f := ledger.HomeworkFilter{Status: ledger.HomeworkStatus(r.URL.Query().Get("status"))}
	hws, err := h.recorder.ListHomeworks(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list homeworks", err)
		return
	}
	writeJSON(w, http.StatusOK, toHomeworkDTOs(hws))
}

// GetHomework handles GET /api/homeworks/{id}.
func (h *Handler) GetHomework(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid homework id", err)
		return
	}
	hw, err := h.recorder.Homework(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get homework", err)
		return
	}
	if hw == nil {
		writeError(w, http.StatusNotFound, "homework not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toHomeworkDTO(hw))
}

// UpdateHomework handles PATCH /api/homeworks/{id}.
func (h *Handler) UpdateHomework(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid homework id", err)
		return
	}
	var req UpdateHomeworkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	params := ledger.UpdateHomeworkParams{Description: req.Description}
	if req.DeadlineAt != nil {
		deadline, err := time.Parse(time.RFC3339, *req.DeadlineAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline_at, want RFC3339", err)
			return
		}
		params.DeadlineAt = &deadline
	}
	hw, err := h.recorder.UpdateHomework(r.Context(), id, params)
	if err != nil {
		writeError(w, http.StatusConflict, "failed to update homework", err)
		return
	}
	if hw == nil {
		writeError(w, http.StatusNotFound, "homework not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toHomeworkDTO(hw))
}

// CompleteHomework handles POST /api/homeworks/{id}/complete.
func (h *Handler) CompleteHomework(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid homework id", err)
		return
	}
	var req CompleteHomeworkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	var recommended *ledger.GradeValue
	if req.RecommendedGrade != nil {
		value := ledger.GradeValue(*req.RecommendedGrade)
		if !value.Valid() {
			writeError(w, http.StatusBadRequest, "invalid recommended grade", ledger.ErrInvalidGrade)
			return
		}
		if value.NeedsRetry() {
			writeError(w, http.StatusBadRequest, "student should redo the work", ledger.ErrGradeRetry)
			return
		}
		recommended = &value
	}
	hw, bonus, err := h.recorder.CompleteHomework(r.Context(), id, recommended)
	if err != nil {
		h.writeDomainError(w, "failed to complete homework", err)
		return
	}
	if hw == nil {
		writeError(w, http.StatusNotFound, "homework not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, CompleteHomeworkResponse{
		Homework: toHomeworkDTO(hw),
		Bonus:    toBonusDTO(bonus),
	})
}

// CloseOverdueHomeworks handles POST /api/homeworks/close-overdue.
func (h *Handler) CloseOverdueHomeworks(w http.ResponseWriter, r *http.Request) {
	closed, err := h.recorder.CloseOverdueHomeworks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to close overdue homeworks", err)
		return
	}
	writeJSON(w, http.StatusOK, toHomeworkDTOs(closed))
}

// DueReminders handles GET /api/homeworks/reminders.
func (h *Handler) DueReminders(w http.ResponseWriter, r *http.Request) {
	due, err := h.recorder.DueReminders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reminders", err)
		return
	}
	out := make([]ReminderDTO, len(due))
	for i, rem := range due {
		out[i] = ReminderDTO{Homework: toHomeworkDTO(rem.Homework), Kind: string(rem.Kind)}
	}
	writeJSON(w, http.StatusOK, out)
}

// MarkReminded handles POST /api/homeworks/reminders/mark.
func (h *Handler) MarkReminded(w http.ResponseWriter, r *http.Request) {
	var req MarkRemindedRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	count, err := h.recorder.MarkReminded(r.Context(), ledger.ReminderKind(req.Kind), req.IDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to mark reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}
