package ledger_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/ledger/store"
)

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestCreateReview_OnePerGrade(t *testing.T) {
	// GIVEN: A topic-linked grade
	// WHEN: Opening a review twice
	// THEN: The first succeeds, the second is a duplicate

	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	ctx := context.Background()

	grade := seedGrade(t, mem, ledger.GradeSatisfactory, day(2025, time.September, 8))

	review, err := tracker.CreateReview(ctx, grade.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReviewPending, review.Status)
	assert.Equal(t, testTopic, review.SubjectTopicID)
	assert.Equal(t, testSubject, review.SubjectID)

	_, err = tracker.CreateReview(ctx, grade.ID)
	assert.ErrorIs(t, err, ledger.ErrDuplicateReview)
}

func TestCreateReview_GradeWithoutTopic(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	ctx := context.Background()

	grade := &ledger.Grade{
		SubjectID: testSubject,
		Value:     ledger.GradePoor,
		Date:      day(2025, time.September, 8),
		Source:    ledger.SourceManual,
	}
	require.NoError(t, mem.CreateGrade(ctx, grade))

	_, err := tracker.CreateReview(ctx, grade.ID)
	assert.Error(t, err)
}

func TestIncrementRepeat_MissingIsNil(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())

	review, err := tracker.IncrementRepeat(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestMarkReinforced_Idempotent(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	ctx := context.Background()

	grade := seedGrade(t, mem, ledger.GradeGood, day(2025, time.September, 8))
	review, err := tracker.CreateReview(ctx, grade.ID)
	require.NoError(t, err)

	closed, err := tracker.MarkReinforced(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReviewReinforced, closed.Status)

	again, err := tracker.MarkReinforced(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReviewReinforced, again.Status)
}

// =============================================================================
// PRIORITY ORDERING
// =============================================================================

// seedReview opens a review for a fresh grade of the given value on its own
// topic, so priority tests can distinguish candidates.
func seedReview(t *testing.T, mem *store.TxMemory, tracker *ledger.Tracker, topicID int64, value ledger.GradeValue) *ledger.TopicReview {
	t.Helper()
	mem.AddTopic(topicID, testSubject)
	grade := &ledger.Grade{
		SubjectID:      testSubject,
		SubjectTopicID: &topicID,
		Value:          value,
		Date:           day(2025, time.September, 8),
		Source:         ledger.SourceManual,
	}
	require.NoError(t, mem.CreateGrade(context.Background(), grade))
	review, err := tracker.CreateReview(context.Background(), grade.ID)
	require.NoError(t, err)
	return review
}

func TestTopPriority_WorstGradeFirst(t *testing.T) {
	// GIVEN: Pending reviews triggered by grades 2, 5, 3
	// WHEN: Asking for the priority list
	// THEN: Order is 5, 3, 2

	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())

	r2 := seedReview(t, mem, tracker, 201, ledger.GradeGood)
	r5 := seedReview(t, mem, tracker, 202, ledger.GradeFail)
	r3 := seedReview(t, mem, tracker, 203, ledger.GradeSatisfactory)

	top, err := tracker.TopPriority(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, r5.ID, top[0].ID)
	assert.Equal(t, r3.ID, top[1].ID)
	assert.Equal(t, r2.ID, top[2].ID)
}

func TestTopPriority_FewestRepeatsBreaksTies(t *testing.T) {
	// GIVEN: Two reviews on the same grade value, one already repeated
	// WHEN: Asking for the priority list
	// THEN: The unrepeated one ranks first

	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	ctx := context.Background()

	repeated := seedReview(t, mem, tracker, 201, ledger.GradeFail)
	fresh := seedReview(t, mem, tracker, 202, ledger.GradeFail)

	_, err := tracker.IncrementRepeat(ctx, repeated.ID)
	require.NoError(t, err)

	top, err := tracker.TopPriority(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, fresh.ID, top[0].ID)
	assert.Equal(t, repeated.ID, top[1].ID)
}

func TestTopPriority_DefaultLimit(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())

	for i := int64(0); i < 6; i++ {
		seedReview(t, mem, tracker, 300+i, ledger.GradeFail)
	}

	top, err := tracker.TopPriority(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, top, ledger.DefaultPriorityLimit)
}

func TestPickPriority_NothingPending(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())

	review, err := tracker.PickPriority(context.Background())
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestPickPriority_AlwaysATopCandidate(t *testing.T) {
	// GIVEN: Five pending reviews, so one falls outside the top four
	// WHEN: Picking repeatedly
	// THEN: The pick is always one of the top-priority candidates

	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings()).
		WithRand(rand.New(rand.NewSource(3)))
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		seedReview(t, mem, tracker, 300+i, ledger.GradeFail)
	}
	top, err := tracker.TopPriority(ctx, 0)
	require.NoError(t, err)
	allowed := make(map[int64]bool, len(top))
	for _, r := range top {
		allowed[r.ID] = true
	}

	for i := 0; i < 30; i++ {
		pick, err := tracker.PickPriority(ctx)
		require.NoError(t, err)
		require.NotNil(t, pick)
		assert.True(t, allowed[pick.ID], "pick %d is outside the top candidates", pick.ID)
	}
}

func TestPendingForTopic(t *testing.T) {
	mem := newTestStore()
	tracker := ledger.NewTracker(mem, ledger.DefaultSettings())
	ctx := context.Background()

	target := seedReview(t, mem, tracker, 201, ledger.GradeFail)
	seedReview(t, mem, tracker, 202, ledger.GradeFail)

	pending, err := tracker.PendingForTopic(ctx, 201)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, target.ID, pending[0].ID)
}
