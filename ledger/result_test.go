package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/ledger"
)

// =============================================================================
// VALIDATION
// =============================================================================

func TestApplyTaskResult_InvalidGrade(t *testing.T) {
	mem := newTestStore()
	results := ledger.NewResults(mem, ledger.DefaultSettings())

	_, err := results.ApplyTaskResult(context.Background(), 1, 0, true, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidGrade)
}

func TestApplyTaskResult_RetryGradesRejected(t *testing.T) {
	// GIVEN: A pending task
	// WHEN: Applying a grade of 4
	// THEN: The result is rejected and the task stays pending

	mem := newTestStore()
	alloc := ledger.NewAllocator(mem)
	results := ledger.NewResults(mem, ledger.DefaultSettings())
	ctx := context.Background()
	seedFund(t, mem, 5)

	task, _, _, err := alloc.CreateTask(ctx, testTopic, "drills")
	require.NoError(t, err)

	_, err = results.ApplyTaskResult(ctx, task.ID, ledger.GradePoor, true, "")
	assert.ErrorIs(t, err, ledger.ErrGradeRetry)

	stored, err := mem.TaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TaskPending, stored.Status)
}

func TestApplyTaskResult_MissingTask(t *testing.T) {
	mem := newTestStore()
	results := ledger.NewResults(mem, ledger.DefaultSettings())

	_, err := results.ApplyTaskResult(context.Background(), 42, ledger.GradeGood, true, "")
	assert.ErrorIs(t, err, ledger.ErrTaskNotFound)
}

func TestApplyTaskResult_AlreadyGraded(t *testing.T) {
	mem := newTestStore()
	alloc := ledger.NewAllocator(mem)
	recorder := ledger.NewRecorder(mem, ledger.DefaultSettings())
	results := ledger.NewResults(mem, ledger.DefaultSettings())
	ctx := context.Background()
	seedFund(t, mem, 5)

	task, _, _, err := alloc.CreateTask(ctx, testTopic, "drills")
	require.NoError(t, err)
	_, err = recorder.AddGrade(ctx, ledger.GradeParams{
		SubjectID:   testSubject,
		BonusTaskID: &task.ID,
		Value:       ledger.GradeGood,
	})
	require.NoError(t, err)

	_, err = results.ApplyTaskResult(ctx, task.ID, ledger.GradeExcellent, true, "")
	assert.ErrorIs(t, err, ledger.ErrDuplicateGrade)
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestApplyTaskResult_CompletesGradesAndBumps(t *testing.T) {
	// GIVEN: A pending task and a pending review on the same topic, opened
	//        by a grade of 2 (auto-close threshold 1)
	// WHEN: Applying a passing result
	// THEN: Task completes, fund deducts one, a manual grade attaches to
	//       the task, and the review closes as reinforced

	mem := newTestStore()
	alloc := ledger.NewAllocator(mem)
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	now := day(2025, time.September, 10)
	results := ledger.NewResults(mem, ledger.DefaultSettings()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()
	seedFund(t, mem, 2)

	trigger := seedGrade(t, mem, ledger.GradeGood, day(2025, time.September, 8))
	review, err := tracker.CreateReview(ctx, trigger.ID)
	require.NoError(t, err)

	task, _, _, err := alloc.CreateTask(ctx, testTopic, "drills")
	require.NoError(t, err)

	result, err := results.ApplyTaskResult(ctx, task.ID, ledger.GradeExcellent, true, "solid")
	require.NoError(t, err)

	assert.Equal(t, ledger.TaskCompleted, result.Task.Status)
	assert.Equal(t, 1, result.Fund.AvailableTasks)

	require.NotNil(t, result.Grade)
	assert.Equal(t, ledger.GradeExcellent, result.Grade.Value)
	assert.Equal(t, ledger.SourceManual, result.Grade.Source)
	assert.Equal(t, now, result.Grade.Date)
	require.NotNil(t, result.Grade.BonusTaskID)
	assert.Equal(t, task.ID, *result.Grade.BonusTaskID)
	assert.Equal(t, testSubject, result.Grade.SubjectID)

	assert.Empty(t, result.UpdatedReviews)
	require.Len(t, result.ReinforcedReviews, 1)
	assert.Equal(t, review.ID, result.ReinforcedReviews[0].ID)

	stored, err := mem.ReviewByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReviewReinforced, stored.Status)
	assert.Equal(t, 1, stored.RepeatCount)
}

func TestApplyTaskResult_BumpBelowThresholdStaysPending(t *testing.T) {
	// GIVEN: A review opened by a grade of 4 (threshold 3)
	// WHEN: One passing result lands on the topic
	// THEN: The repeat count bumps but the review stays pending

	mem := newTestStore()
	alloc := ledger.NewAllocator(mem)
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	results := ledger.NewResults(mem, ledger.DefaultSettings())
	ctx := context.Background()
	seedFund(t, mem, 5)

	trigger := seedGrade(t, mem, ledger.GradePoor, day(2025, time.September, 8))
	review, err := tracker.CreateReview(ctx, trigger.ID)
	require.NoError(t, err)

	task, _, _, err := alloc.CreateTask(ctx, testTopic, "drills")
	require.NoError(t, err)

	result, err := results.ApplyTaskResult(ctx, task.ID, ledger.GradeExcellent, true, "")
	require.NoError(t, err)
	require.Len(t, result.UpdatedReviews, 1)
	assert.Empty(t, result.ReinforcedReviews)
	assert.Equal(t, 1, result.UpdatedReviews[0].RepeatCount)

	stored, err := mem.ReviewByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReviewPending, stored.Status)
}

func TestApplyTaskResult_NoBumpWhenRepeatNotCounted(t *testing.T) {
	mem := newTestStore()
	alloc := ledger.NewAllocator(mem)
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	results := ledger.NewResults(mem, ledger.DefaultSettings())
	ctx := context.Background()
	seedFund(t, mem, 5)

	trigger := seedGrade(t, mem, ledger.GradeGood, day(2025, time.September, 8))
	review, err := tracker.CreateReview(ctx, trigger.ID)
	require.NoError(t, err)

	task, _, _, err := alloc.CreateTask(ctx, testTopic, "drills")
	require.NoError(t, err)

	result, err := results.ApplyTaskResult(ctx, task.ID, ledger.GradeExcellent, false, "")
	require.NoError(t, err)
	assert.Empty(t, result.UpdatedReviews)
	assert.Empty(t, result.ReinforcedReviews)

	stored, err := mem.ReviewByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.RepeatCount)
	assert.Equal(t, ledger.ReviewPending, stored.Status)
}
