/*
dto.go - Request and response data structures

PURPOSE:
  JSON shapes for the HTTP API. Domain types are converted at this
  boundary; handlers never encode ledger structs directly when the wire
  shape differs (dates as YYYY-MM-DD, pointer-optional fields).
*/
package api

import (
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// WEEKS
// =============================================================================

type CalculateRequest struct {
	NewWeekKey string `json:"new_week_key"`
	FundTopup  *int   `json:"fund_topup,omitempty"`
}

type CreateWeekRequest struct {
	WeekKey string `json:"week_key"`
}

type UpdateWeekRequest struct {
	PenaltyMinutes      *int `json:"penalty_minutes,omitempty"`
	ActualPlayedMinutes *int `json:"actual_played_minutes,omitempty"`
	TotalMinutes        *int `json:"total_minutes,omitempty"`
}

type FinalizeWeekRequest struct {
	ActualPlayedMinutes int `json:"actual_played_minutes"`
}

type WeekDTO struct {
	ID                   int64  `json:"id"`
	WeekKey              string `json:"week_key"`
	StartAt              string `json:"start_at"`
	EndAt                string `json:"end_at"`
	GradeMinutes         int    `json:"grade_minutes"`
	HomeworkBonusMinutes int    `json:"homework_bonus_minutes"`
	PenaltyMinutes       int    `json:"penalty_minutes"`
	CarryoverOutMinutes  int    `json:"carryover_out_minutes"`
	ActualPlayedMinutes  int    `json:"actual_played_minutes"`
	TotalMinutes         int    `json:"total_minutes"`
	IsFinalized          bool   `json:"is_finalized"`
}

func toWeekDTO(w *ledger.Week) *WeekDTO {
	if w == nil {
		return nil
	}
	return &WeekDTO{
		ID:                   w.ID,
		WeekKey:              w.WeekKey,
		StartAt:              w.StartAt.Format(time.RFC3339),
		EndAt:                w.EndAt.Format(time.RFC3339),
		GradeMinutes:         w.GradeMinutes,
		HomeworkBonusMinutes: w.HomeworkBonusMinutes,
		PenaltyMinutes:       w.PenaltyMinutes,
		CarryoverOutMinutes:  w.CarryoverOutMinutes,
		ActualPlayedMinutes:  w.ActualPlayedMinutes,
		TotalMinutes:         w.TotalMinutes,
		IsFinalized:          w.IsFinalized,
	}
}

// WeekConflictResponse is the 409 body for edits to a finalized week: the
// error alongside the unchanged record.
type WeekConflictResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Week    *WeekDTO `json:"week"`
}

type CalcResultDTO struct {
	Status           string                  `json:"status"`
	Message          string                  `json:"message,omitempty"`
	Week             *WeekDTO                `json:"week,omitempty"`
	CarryoverMinutes int                     `json:"carryover_minutes"`
	GradeMinutes     int                     `json:"grade_minutes"`
	BonusMinutes     int                     `json:"bonus_minutes"`
	PenaltyMinutes   int                     `json:"penalty_minutes"`
	TotalMinutes     int                     `json:"total_minutes"`
	GradesProcessed  int                     `json:"grades_processed"`
	BonusesProcessed int                     `json:"bonuses_processed"`
	Breakdown        []ledger.GradeBreakdown `json:"breakdown,omitempty"`
	FundTopup        int                     `json:"fund_topup"`
}

func toCalcResultDTO(r *ledger.CalcResult) *CalcResultDTO {
	return &CalcResultDTO{
		Status:           string(r.Status),
		Message:          r.Message,
		Week:             toWeekDTO(r.Week),
		CarryoverMinutes: r.CarryoverMinutes,
		GradeMinutes:     r.GradeMinutes,
		BonusMinutes:     r.BonusMinutes,
		PenaltyMinutes:   r.PenaltyMinutes,
		TotalMinutes:     r.TotalMinutes,
		GradesProcessed:  r.GradesProcessed,
		BonusesProcessed: r.BonusesProcessed,
		Breakdown:        r.Breakdown,
		FundTopup:        r.FundTopup,
	}
}

// =============================================================================
// BONUS TASKS AND FUND
// =============================================================================

type CreateTaskRequest struct {
	SubjectTopicID int64  `json:"subject_topic_id"`
	Description    string `json:"description"`
}

type CompleteTaskRequest struct {
	QualityNotes string `json:"quality_notes,omitempty"`
}

type TaskResultRequest struct {
	GradeValue   int    `json:"grade_value"`
	CountRepeat  *bool  `json:"count_repeat,omitempty"` // default true
	QualityNotes string `json:"quality_notes,omitempty"`
}

type TaskDTO struct {
	ID              int64  `json:"id"`
	SubjectTopicID  int64  `json:"subject_topic_id"`
	FundID          int64  `json:"fund_id"`
	TaskDescription string `json:"task_description"`
	Status          string `json:"status"`
	CompletedAt     string `json:"completed_at,omitempty"`
	QualityNotes    string `json:"quality_notes,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toTaskDTO(t *ledger.BonusTask) *TaskDTO {
	if t == nil {
		return nil
	}
	dto := &TaskDTO{
		ID:              t.ID,
		SubjectTopicID:  t.SubjectTopicID,
		FundID:          t.FundID,
		TaskDescription: t.TaskDescription,
		Status:          string(t.Status),
		QualityNotes:    t.QualityNotes,
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		dto.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

func toTaskDTOs(tasks []*ledger.BonusTask) []*TaskDTO {
	out := make([]*TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskDTO(t)
	}
	return out
}

type CreateTaskResponse struct {
	Task      *TaskDTO `json:"task"`
	Preempted *TaskDTO `json:"preempted,omitempty"`
	Fund      *FundDTO `json:"fund"`
}

type CompleteTaskResponse struct {
	Task *TaskDTO `json:"task"`
	Fund *FundDTO `json:"fund"`
}

type FundDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	AvailableTasks int    `json:"available_tasks"`
}

func toFundDTO(f *ledger.BonusFund) *FundDTO {
	if f == nil {
		return nil
	}
	return &FundDTO{ID: f.ID, Name: f.Name, AvailableTasks: f.AvailableTasks}
}

type TopUpRequest struct {
	Count int `json:"count"`
}

// =============================================================================
// GRADES AND BONUSES
// =============================================================================

type CreateGradeRequest struct {
	SubjectID      int64   `json:"subject_id"`
	SubjectTopicID *int64  `json:"subject_topic_id,omitempty"`
	BonusTaskID    *int64  `json:"bonus_task_id,omitempty"`
	HomeworkID     *int64  `json:"homework_id,omitempty"`
	Value          int     `json:"value"`
	Date           *string `json:"date,omitempty"` // YYYY-MM-DD
}

type GradeDTO struct {
	ID             int64  `json:"id"`
	SubjectID      int64  `json:"subject_id"`
	SubjectTopicID *int64 `json:"subject_topic_id,omitempty"`
	BonusTaskID    *int64 `json:"bonus_task_id,omitempty"`
	HomeworkID     *int64 `json:"homework_id,omitempty"`
	Value          int    `json:"value"`
	Date           string `json:"date"`
	Rewarded       bool   `json:"rewarded"`
	EscalatedAt    string `json:"escalated_at,omitempty"`
	Source         string `json:"source"`
	ExternalID     string `json:"external_id,omitempty"`
	OriginalValue  string `json:"original_value,omitempty"`
}

func toGradeDTO(g *ledger.Grade) *GradeDTO {
	if g == nil {
		return nil
	}
	dto := &GradeDTO{
		ID:             g.ID,
		SubjectID:      g.SubjectID,
		SubjectTopicID: g.SubjectTopicID,
		BonusTaskID:    g.BonusTaskID,
		HomeworkID:     g.HomeworkID,
		Value:          int(g.Value),
		Date:           g.Date.Format("2006-01-02"),
		Rewarded:       g.Rewarded,
		Source:         string(g.Source),
		OriginalValue:  g.OriginalValue,
	}
	if g.EscalatedAt != nil {
		dto.EscalatedAt = g.EscalatedAt.Format(time.RFC3339)
	}
	if g.ExternalID != nil {
		dto.ExternalID = *g.ExternalID
	}
	return dto
}

func toGradeDTOs(grades []*ledger.Grade) []*GradeDTO {
	out := make([]*GradeDTO, len(grades))
	for i, g := range grades {
		out[i] = toGradeDTO(g)
	}
	return out
}

type CreateBonusRequest struct {
	HomeworkID *int64 `json:"homework_id,omitempty"`
	Minutes    int    `json:"minutes"`
	Reason     string `json:"reason,omitempty"`
}

type BonusDTO struct {
	ID         int64  `json:"id"`
	HomeworkID *int64 `json:"homework_id,omitempty"`
	Minutes    int    `json:"minutes"`
	Reason     string `json:"reason,omitempty"`
	Rewarded   bool   `json:"rewarded"`
	CreatedAt  string `json:"created_at"`
}

func toBonusDTO(b *ledger.Bonus) *BonusDTO {
	if b == nil {
		return nil
	}
	return &BonusDTO{
		ID:         b.ID,
		HomeworkID: b.HomeworkID,
		Minutes:    b.Minutes,
		Reason:     b.Reason,
		Rewarded:   b.Rewarded,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
}

type IDListRequest struct {
	IDs []int64 `json:"ids"`
}

type CountResponse struct {
	Count int `json:"count"`
}

// =============================================================================
// REVIEWS
// =============================================================================

type CreateReviewRequest struct {
	GradeID int64 `json:"grade_id"`
}

type ReviewDTO struct {
	ID             int64  `json:"id"`
	SubjectID      int64  `json:"subject_id"`
	SubjectTopicID int64  `json:"subject_topic_id"`
	GradeID        int64  `json:"grade_id"`
	Status         string `json:"status"`
	RepeatCount    int    `json:"repeat_count"`
	CreatedAt      string `json:"created_at"`
}

func toReviewDTO(r *ledger.TopicReview) *ReviewDTO {
	if r == nil {
		return nil
	}
	return &ReviewDTO{
		ID:             r.ID,
		SubjectID:      r.SubjectID,
		SubjectTopicID: r.SubjectTopicID,
		GradeID:        r.GradeID,
		Status:         string(r.Status),
		RepeatCount:    r.RepeatCount,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
}

func toReviewDTOs(reviews []*ledger.TopicReview) []*ReviewDTO {
	out := make([]*ReviewDTO, len(reviews))
	for i, r := range reviews {
		out[i] = toReviewDTO(r)
	}
	return out
}

type TaskResultDTO struct {
	Task              *TaskDTO     `json:"task"`
	Fund              *FundDTO     `json:"fund"`
	Grade             *GradeDTO    `json:"grade"`
	UpdatedReviews    []*ReviewDTO `json:"updated_reviews"`
	ReinforcedReviews []*ReviewDTO `json:"reinforced_reviews"`
}

// =============================================================================
// HOMEWORKS
// =============================================================================

type CreateHomeworkRequest struct {
	SubjectID      int64   `json:"subject_id"`
	SubjectTopicID *int64  `json:"subject_topic_id,omitempty"`
	BookID         *int64  `json:"book_id,omitempty"`
	Description    string  `json:"description"`
	DeadlineAt     *string `json:"deadline_at,omitempty"` // RFC3339
}

type UpdateHomeworkRequest struct {
	Description *string `json:"description,omitempty"`
	DeadlineAt  *string `json:"deadline_at,omitempty"`
}

type CompleteHomeworkRequest struct {
	RecommendedGrade *int `json:"recommended_grade,omitempty"`
}

type HomeworkDTO struct {
	ID               int64  `json:"id"`
	SubjectID        int64  `json:"subject_id"`
	SubjectTopicID   *int64 `json:"subject_topic_id,omitempty"`
	BookID           *int64 `json:"book_id,omitempty"`
	Description      string `json:"description"`
	Status           string `json:"status"`
	AssignedAt       string `json:"assigned_at"`
	DeadlineAt       string `json:"deadline_at,omitempty"`
	CompletedAt      string `json:"completed_at,omitempty"`
	RecommendedGrade *int   `json:"recommended_grade,omitempty"`
	ExternalID       string `json:"external_id,omitempty"`
}

func toHomeworkDTO(h *ledger.Homework) *HomeworkDTO {
	if h == nil {
		return nil
	}
	dto := &HomeworkDTO{
		ID:             h.ID,
		SubjectID:      h.SubjectID,
		SubjectTopicID: h.SubjectTopicID,
		BookID:         h.BookID,
		Description:    h.Description,
		Status:         string(h.Status),
		AssignedAt:     h.AssignedAt.Format(time.RFC3339),
	}
	if h.DeadlineAt != nil {
		dto.DeadlineAt = h.DeadlineAt.Format(time.RFC3339)
	}
	if h.CompletedAt != nil {
		dto.CompletedAt = h.CompletedAt.Format(time.RFC3339)
	}
	if h.RecommendedGrade != nil {
		v := int(*h.RecommendedGrade)
		dto.RecommendedGrade = &v
	}
	if h.ExternalID != nil {
		dto.ExternalID = *h.ExternalID
	}
	return dto
}

func toHomeworkDTOs(hws []*ledger.Homework) []*HomeworkDTO {
	out := make([]*HomeworkDTO, len(hws))
	for i, h := range hws {
		out[i] = toHomeworkDTO(h)
	}
	return out
}

type CompleteHomeworkResponse struct {
	Homework *HomeworkDTO `json:"homework"`
	Bonus    *BonusDTO    `json:"bonus,omitempty"`
}

type ReminderDTO struct {
	Homework *HomeworkDTO `json:"homework"`
	Kind     string       `json:"kind"`
}

type MarkRemindedRequest struct {
	Kind string  `json:"kind"` // "d1" or "d2"
	IDs  []int64 `json:"ids"`
}

// =============================================================================
// SYNC AND CONFIG
// =============================================================================

type SyncGradesRequest struct {
	Since *string `json:"since,omitempty"` // RFC3339; default 30 days back
}

type ProviderActiveRequest struct {
	Active bool `json:"active"`
}

type SetConfigRequest struct {
	Value       *string `json:"value"`
	Description string  `json:"description,omitempty"`
	IsRequired  bool    `json:"is_required,omitempty"`
}
