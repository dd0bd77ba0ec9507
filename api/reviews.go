/*
reviews.go - Topic review endpoints

PURPOSE:
  HTTP surface of the tracker: open reviews, list them, the priority
  ordering, and the random pick among top candidates.
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/hearthside/learning-hub/ledger"
)

// CreateReview handles POST /api/reviews.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	review, err := h.tracker.CreateReview(r.Context(), req.GradeID)
	if err != nil {
		h.writeDomainError(w, "failed to create review", err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewDTO(review))
}

// ListReviews handles GET /api/reviews.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ledger.ReviewFilter{Status: ledger.ReviewStatus(q.Get("status"))}
	if topic := q.Get("topic_id"); topic != "" {
		id, err := strconv.ParseInt(topic, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid topic_id", err)
			return
		}
		f.SubjectTopicID = id
	}
	reviews, err := h.tracker.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTOs(reviews))
}

// TopPriorityReviews handles GET /api/reviews/priority.
func (h *Handler) TopPriorityReviews(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}
	reviews, err := h.tracker.TopPriority(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list priority reviews", err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTOs(reviews))
}

// PickPriorityReview handles GET /api/reviews/priority/pick. A null body
// means nothing is pending.
func (h *Handler) PickPriorityReview(w http.ResponseWriter, r *http.Request) {
	review, err := h.tracker.PickPriority(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to pick a review", err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

// IncrementReview handles POST /api/reviews/{id}/increment.
func (h *Handler) IncrementReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id", err)
		return
	}
	review, err := h.tracker.IncrementRepeat(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to increment review", err)
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "review not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}

// ReinforceReview handles POST /api/reviews/{id}/reinforce.
func (h *Handler) ReinforceReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid review id", err)
		return
	}
	review, err := h.tracker.MarkReinforced(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reinforce review", err)
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "review not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReviewDTO(review))
}
