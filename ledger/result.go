/*
result.go - Compound bonus-task result

PURPOSE:
  Applies the outcome of a finished bonus task across three ledgers in one
  transaction: the task completes (fund deducts a slot), a grade is
  recorded against the task, and the topic's pending reviews get their
  repeat bump with auto-closure.

VALIDATION ORDER:
  Everything is validated BEFORE any write: the grade must be passing
  work (4-5 means the student retries and the task stays pending), the
  task must exist and be pending, the topic must resolve to a subject,
  and the task must not already carry a grade.
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// TaskResult is the full outcome of ApplyTaskResult.
type TaskResult struct {
	Task              *BonusTask     `json:"task"`
	Fund              *BonusFund     `json:"fund"`
	Grade             *Grade         `json:"grade"`
	UpdatedReviews    []*TopicReview `json:"updated_reviews"`
	ReinforcedReviews []*TopicReview `json:"reinforced_reviews"`
}

// Results applies bonus-task outcomes.
type Results struct {
	store    TxStore
	settings Settings
	now      func() time.Time
}

// NewResults builds the compound result service.
func NewResults(store TxStore, settings Settings) *Results {
	return &Results{store: store, settings: settings, now: time.Now}
}

// WithClock overrides the clock. Tests only.
func (r *Results) WithClock(now func() time.Time) *Results {
	r.now = now
	return r
}

// ApplyTaskResult completes the task, records the grade against it, and,
// when countRepeat is set, bumps every pending review on the task's topic.
// Grades 4-5 are rejected up front; the task is left untouched so the
// student can retry.
func (r *Results) ApplyTaskResult(ctx context.Context, taskID int64, value GradeValue, countRepeat bool, qualityNotes string) (*TaskResult, error) {
	if !value.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGrade, int(value))
	}
	if value.NeedsRetry() {
		return nil, fmt.Errorf("%w: grade %d on task %d", ErrGradeRetry, int(value), taskID)
	}

	var result *TaskResult
	err := r.store.WithTx(ctx, func(s Store) error {
		task, err := s.TaskByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}

		subjectID, ok, err := s.TopicSubject(ctx, task.SubjectTopicID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: topic %d", ErrTopicNotFound, task.SubjectTopicID)
		}

		existing, err := s.GradeByBonusTask(ctx, taskID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: task %d already graded", ErrDuplicateGrade, taskID)
		}

		now := r.now()
		task, fund, err := completeTaskTx(ctx, s, taskID, qualityNotes, now)
		if err != nil {
			return err
		}

		topicID := task.SubjectTopicID
		grade := &Grade{
			SubjectID:      subjectID,
			SubjectTopicID: &topicID,
			BonusTaskID:    &task.ID,
			Value:          value,
			Date:           now,
			Source:         SourceManual,
		}
		if err := s.CreateGrade(ctx, grade); err != nil {
			return err
		}

		result = &TaskResult{Task: task, Fund: fund, Grade: grade}
		if countRepeat {
			updated, reinforced, err := bumpPendingReviewsForTopic(ctx, s, r.settings, topicID)
			if err != nil {
				return err
			}
			result.UpdatedReviews = updated
			result.ReinforcedReviews = reinforced
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
