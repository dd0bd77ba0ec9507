/*
tasks.go - Bonus task and fund endpoints

PURPOSE:
  HTTP surface of the allocator and the compound task result. Admission
  failures (fund shortfall) come back as 409 with the numbers in the
  details; a preempted task and the fund snapshot ride along in the
  creation response.
*/
package api

import (
	"net/http"

	"github.com/hearthside/learning-hub/ledger"
)

// CreateTask handles POST /api/bonus-tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	task, preempted, fund, err := h.alloc.CreateTask(r.Context(), req.SubjectTopicID, req.Description)
	if err != nil {
		h.writeDomainError(w, "failed to create bonus task", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateTaskResponse{
		Task:      toTaskDTO(task),
		Preempted: toTaskDTO(preempted),
		Fund:      toFundDTO(fund),
	})
}

// ListTasks handles GET /api/bonus-tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	f := ledger.TaskFilter{Status: ledger.TaskStatus(r.URL.Query().Get("status"))}
	tasks, err := h.alloc.ListTasks(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTOs(tasks))
}

// LatestTask handles GET /api/bonus-tasks/latest.
func (h *Handler) LatestTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.alloc.LatestTask(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get latest task", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "no tasks exist", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// CheckPendingTask handles GET /api/bonus-tasks/check-pending. A null body
// means "create a fresh task".
func (h *Handler) CheckPendingTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.alloc.CheckPendingTask(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check pending tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// GetTask handles GET /api/bonus-tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id", err)
		return
	}
	task, err := h.alloc.Task(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task", err)
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// CompleteTask handles POST /api/bonus-tasks/{id}/complete.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id", err)
		return
	}
	var req CompleteTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	task, fund, err := h.alloc.CompleteTask(r.Context(), id, req.QualityNotes)
	if err != nil {
		h.writeDomainError(w, "failed to complete task", err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteTaskResponse{
		Task: toTaskDTO(task),
		Fund: toFundDTO(fund),
	})
}

// CancelTask handles POST /api/bonus-tasks/{id}/cancel.
func (h *Handler) CancelTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id", err)
		return
	}
	task, err := h.alloc.CancelTask(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "failed to cancel task", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// ApplyTaskResult handles POST /api/bonus-tasks/{id}/result.
func (h *Handler) ApplyTaskResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id", err)
		return
	}
	var req TaskResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	countRepeat := true
	if req.CountRepeat != nil {
		countRepeat = *req.CountRepeat
	}
	result, err := h.results.ApplyTaskResult(r.Context(), id,
		ledger.GradeValue(req.GradeValue), countRepeat, req.QualityNotes)
	if err != nil {
		h.writeDomainError(w, "failed to apply task result", err)
		return
	}
	writeJSON(w, http.StatusOK, TaskResultDTO{
		Task:              toTaskDTO(result.Task),
		Fund:              toFundDTO(result.Fund),
		Grade:             toGradeDTO(result.Grade),
		UpdatedReviews:    toReviewDTOs(result.UpdatedReviews),
		ReinforcedReviews: toReviewDTOs(result.ReinforcedReviews),
	})
}

// GetFund handles GET /api/fund.
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.alloc.Fund(r.Context())
	if err != nil {
		h.writeDomainError(w, "failed to get fund", err)
		return
	}
	writeJSON(w, http.StatusOK, toFundDTO(fund))
}

// TopUpFund handles POST /api/fund/topup.
func (h *Handler) TopUpFund(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	result, err := h.alloc.TopUp(r.Context(), req.Count)
	if err != nil {
		h.writeDomainError(w, "failed to top up fund", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
