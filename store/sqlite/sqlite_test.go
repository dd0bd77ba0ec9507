package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/learning-hub/catalog"
	"github.com/hearthside/learning-hub/ledger"
	"github.com/hearthside/learning-hub/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedCatalog creates a school, a subject, and a topic; returns their ids.
func seedCatalog(t *testing.T, store *sqlite.Store) (schoolID, subjectID, topicID int64) {
	t.Helper()
	ctx := context.Background()

	school := &catalog.School{Code: "lincoln", Name: "Lincoln Middle School", Active: true}
	require.NoError(t, store.CreateSchool(ctx, school))

	subject := &catalog.Subject{SchoolID: school.ID, Name: "math"}
	require.NoError(t, store.CreateSubject(ctx, subject))

	topic := &catalog.SubjectTopic{SubjectID: subject.ID, Description: "fractions"}
	require.NoError(t, store.CreateTopic(ctx, topic))

	return school.ID, subject.ID, topic.ID
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// WEEKS
// =============================================================================

func TestWeeks_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := utcDay(2025, time.September, 6)
	week := &ledger.Week{
		WeekKey:      "2025-09-06",
		StartAt:      start,
		EndAt:        start.AddDate(0, 0, 7),
		GradeMinutes: 25,
		TotalMinutes: 40,
	}
	require.NoError(t, store.CreateWeek(ctx, week))
	assert.NotZero(t, week.ID)

	got, err := store.WeekByKey(ctx, "2025-09-06")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 25, got.GradeMinutes)
	assert.True(t, got.StartAt.Equal(start))
	assert.False(t, got.IsFinalized)

	got.IsFinalized = true
	got.CarryoverOutMinutes = 12
	require.NoError(t, store.UpdateWeek(ctx, got))

	again, err := store.WeekByKey(ctx, "2025-09-06")
	require.NoError(t, err)
	assert.True(t, again.IsFinalized)
	assert.Equal(t, 12, again.CarryoverOutMinutes)

	missing, err := store.WeekByKey(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWeeks_ContainingIsHalfOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := utcDay(2025, time.September, 6)
	week := &ledger.Week{WeekKey: "2025-09-06", StartAt: start, EndAt: start.AddDate(0, 0, 7)}
	require.NoError(t, store.CreateWeek(ctx, week))

	inside, err := store.WeekContaining(ctx, start)
	require.NoError(t, err)
	require.NotNil(t, inside, "start boundary is inside")

	outside, err := store.WeekContaining(ctx, start.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Nil(t, outside, "end boundary is outside")
}

func TestWeeks_ListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"2025-09-06", "2025-09-13", "2025-09-20"} {
		start, err := ledger.ParseWeekKey(key)
		require.NoError(t, err)
		require.NoError(t, store.CreateWeek(ctx, &ledger.Week{
			WeekKey: key, StartAt: start, EndAt: start.AddDate(0, 0, 7),
		}))
	}

	weeks, err := store.ListWeeks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	assert.Equal(t, "2025-09-20", weeks[0].WeekKey)
	assert.Equal(t, "2025-09-13", weeks[1].WeekKey)
}

// =============================================================================
// GRADES
// =============================================================================

func TestGrades_InclusiveRangeAndConsumption(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, topicID := seedCatalog(t, store)

	from := utcDay(2025, time.September, 6)
	to := from.AddDate(0, 0, 7)

	var ids []int64
	for _, date := range []time.Time{from, from.AddDate(0, 0, 3), to} {
		grade := &ledger.Grade{
			SubjectID:      subjectID,
			SubjectTopicID: &topicID,
			Value:          ledger.GradeGood,
			Date:           date,
			Source:         ledger.SourceManual,
		}
		require.NoError(t, store.CreateGrade(ctx, grade))
		ids = append(ids, grade.ID)
	}
	// One outside the window
	require.NoError(t, store.CreateGrade(ctx, &ledger.Grade{
		SubjectID: subjectID, Value: ledger.GradeGood,
		Date: to.AddDate(0, 0, 1), Source: ledger.SourceManual,
	}))

	inRange, err := store.UnrewardedGradesInRange(ctx, from, to)
	require.NoError(t, err)
	assert.Len(t, inRange, 3, "both boundaries are inclusive")

	count, err := store.MarkGradesRewarded(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	empty, err := store.UnrewardedGradesInRange(ctx, from, to)
	require.NoError(t, err)
	assert.Empty(t, empty)

	// Re-marking changes nothing
	count, err = store.MarkGradesRewarded(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGrades_ExternalIDUnique(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, _ := seedCatalog(t, store)

	ext := "feed-1"
	first := &ledger.Grade{
		SubjectID: subjectID, Value: ledger.GradeGood,
		Date: utcDay(2025, time.September, 8), Source: ledger.SourceAuto, ExternalID: &ext,
	}
	require.NoError(t, store.CreateGrade(ctx, first))

	dup := &ledger.Grade{
		SubjectID: subjectID, Value: ledger.GradePoor,
		Date: utcDay(2025, time.September, 9), Source: ledger.SourceAuto, ExternalID: &ext,
	}
	err := store.CreateGrade(ctx, dup)
	assert.ErrorIs(t, err, ledger.ErrDuplicateGrade)

	got, err := store.GradeByExternalID(ctx, ext)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestGrades_EscalationFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, _ := seedCatalog(t, store)

	ext := "feed-esc"
	grade := &ledger.Grade{
		SubjectID: subjectID, Value: ledger.GradeFail,
		Date: utcDay(2025, time.September, 8), Source: ledger.SourceAuto, ExternalID: &ext,
	}
	require.NoError(t, store.CreateGrade(ctx, grade))
	require.NoError(t, store.CreateGrade(ctx, &ledger.Grade{
		SubjectID: subjectID, Value: ledger.GradeFail,
		Date: utcDay(2025, time.September, 8), Source: ledger.SourceManual,
	}))

	pending, err := store.PendingEscalation(ctx, ledger.GradePoor)
	require.NoError(t, err)
	require.Len(t, pending, 1, "manual grades never escalate")
	assert.Equal(t, grade.ID, pending[0].ID)

	count, err := store.MarkGradesEscalated(ctx, []int64{grade.ID}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	pending, err = store.PendingEscalation(ctx, ledger.GradePoor)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// =============================================================================
// BONUSES, FUND, TASKS
// =============================================================================

func TestBonuses_AdhocLatestByReason(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &ledger.Bonus{Minutes: 5, Reason: "helped cooking"}
	require.NoError(t, store.CreateBonus(ctx, first))
	second := &ledger.Bonus{Minutes: 5, Reason: "helped cooking"}
	require.NoError(t, store.CreateBonus(ctx, second))

	latest, err := store.LatestAdhocBonusByReason(ctx, "helped cooking")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)

	none, err := store.LatestAdhocBonusByReason(ctx, "something else")
	require.NoError(t, err)
	assert.Nil(t, none)

	count, err := store.MarkAllBonusesRewarded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	unrewarded, err := store.ListUnrewardedBonuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, unrewarded)
}

func TestBonuses_OnePerHomework(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, _ := seedCatalog(t, store)

	hw := &ledger.Homework{
		SubjectID: subjectID, Description: "essay",
		Status: ledger.HomeworkPending, AssignedAt: utcDay(2025, time.September, 8),
	}
	require.NoError(t, store.CreateHomework(ctx, hw))

	require.NoError(t, store.CreateBonus(ctx, &ledger.Bonus{HomeworkID: &hw.ID, Minutes: 5}))
	err := store.CreateBonus(ctx, &ledger.Bonus{HomeworkID: &hw.ID, Minutes: 5})
	assert.ErrorIs(t, err, ledger.ErrDuplicateBonus)

	got, err := store.BonusByHomework(ctx, hw.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 5, got.Minutes)
}

func TestFund_SingletonRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	none, err := store.Fund(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	fund := &ledger.BonusFund{ID: ledger.FundID, Name: "bonus tasks", AvailableTasks: 15}
	require.NoError(t, store.CreateFund(ctx, fund))

	got, err := store.Fund(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 15, got.AvailableTasks)

	got.AvailableTasks = -2
	require.NoError(t, store.UpdateFund(ctx, got))
	again, err := store.Fund(ctx)
	require.NoError(t, err)
	assert.Equal(t, -2, again.AvailableTasks)
}

func TestTasks_PendingQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, topicID := seedCatalog(t, store)
	require.NoError(t, store.CreateFund(ctx, &ledger.BonusFund{ID: ledger.FundID, Name: "fund"}))

	var tasks []*ledger.BonusTask
	for _, desc := range []string{"first", "second", "third"} {
		task := &ledger.BonusTask{
			SubjectTopicID: topicID, FundID: ledger.FundID,
			TaskDescription: desc, Status: ledger.TaskPending,
		}
		require.NoError(t, store.CreateTask(ctx, task))
		tasks = append(tasks, task)
	}

	count, err := store.CountPendingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	oldest, err := store.OldestPendingTask(ctx)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.Equal(t, tasks[0].ID, oldest.ID)

	latest, err := store.LatestTask(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, tasks[2].ID, latest.ID)

	tasks[0].Status = ledger.TaskCancelled
	require.NoError(t, store.UpdateTask(ctx, tasks[0]))

	count, err = store.CountPendingTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pending, err := store.ListTasks(ctx, ledger.TaskFilter{Status: ledger.TaskPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

// =============================================================================
// REVIEWS
// =============================================================================

func TestReviews_PriorityJoinOrdering(t *testing.T) {
	// GIVEN: Pending reviews triggered by grades 2, 5, 5 (one 5 repeated)
	// WHEN: Querying by priority
	// THEN: Fresh 5 first, repeated 5 second, 2 last

	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, topicID := seedCatalog(t, store)

	mkReview := func(value ledger.GradeValue, repeats int) *ledger.TopicReview {
		grade := &ledger.Grade{
			SubjectID: subjectID, SubjectTopicID: &topicID,
			Value: value, Date: utcDay(2025, time.September, 8), Source: ledger.SourceManual,
		}
		require.NoError(t, store.CreateGrade(ctx, grade))
		review := &ledger.TopicReview{
			SubjectID: subjectID, SubjectTopicID: topicID,
			GradeID: grade.ID, Status: ledger.ReviewPending, RepeatCount: repeats,
		}
		require.NoError(t, store.CreateReview(ctx, review))
		return review
	}

	r2 := mkReview(ledger.GradeGood, 0)
	rRepeated := mkReview(ledger.GradeFail, 2)
	rFresh := mkReview(ledger.GradeFail, 0)

	top, err := store.PendingReviewsByPriority(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, rFresh.ID, top[0].ID)
	assert.Equal(t, rRepeated.ID, top[1].ID)
	assert.Equal(t, r2.ID, top[2].ID)
}

func TestReviews_OnePerGrade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, topicID := seedCatalog(t, store)

	grade := &ledger.Grade{
		SubjectID: subjectID, SubjectTopicID: &topicID,
		Value: ledger.GradePoor, Date: utcDay(2025, time.September, 8), Source: ledger.SourceManual,
	}
	require.NoError(t, store.CreateGrade(ctx, grade))

	review := &ledger.TopicReview{
		SubjectID: subjectID, SubjectTopicID: topicID,
		GradeID: grade.ID, Status: ledger.ReviewPending,
	}
	require.NoError(t, store.CreateReview(ctx, review))

	dup := &ledger.TopicReview{
		SubjectID: subjectID, SubjectTopicID: topicID,
		GradeID: grade.ID, Status: ledger.ReviewPending,
	}
	err := store.CreateReview(ctx, dup)
	assert.ErrorIs(t, err, ledger.ErrDuplicateReview)

	got, err := store.ReviewByGrade(ctx, grade.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, review.ID, got.ID)
}

// =============================================================================
// HOMEWORKS
// =============================================================================

func TestHomeworks_PendingWithDeadline(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, _ := seedCatalog(t, store)

	later := utcDay(2025, time.September, 20)
	sooner := utcDay(2025, time.September, 12)

	mkHomework := func(deadline *time.Time, status ledger.HomeworkStatus) *ledger.Homework {
		hw := &ledger.Homework{
			SubjectID: subjectID, Description: "work",
			Status: status, AssignedAt: utcDay(2025, time.September, 8), DeadlineAt: deadline,
		}
		require.NoError(t, store.CreateHomework(ctx, hw))
		return hw
	}

	hwLater := mkHomework(&later, ledger.HomeworkPending)
	hwSooner := mkHomework(&sooner, ledger.HomeworkPending)
	mkHomework(nil, ledger.HomeworkPending)
	mkHomework(&sooner, ledger.HomeworkDone)

	pending, err := store.PendingHomeworksWithDeadline(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, hwSooner.ID, pending[0].ID, "oldest deadline first")
	assert.Equal(t, hwLater.ID, pending[1].ID)
}

func TestHomeworks_ExternalIDLookupAndUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, _ := seedCatalog(t, store)

	ext := "hw-ext-1"
	hw := &ledger.Homework{
		SubjectID: subjectID, Description: "essay",
		Status: ledger.HomeworkPending, AssignedAt: utcDay(2025, time.September, 8),
		ExternalID: &ext,
	}
	require.NoError(t, store.CreateHomework(ctx, hw))

	got, err := store.HomeworkByExternalID(ctx, ext)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, hw.ID, got.ID)

	now := utcDay(2025, time.September, 9)
	grade := ledger.GradeGood
	got.Status = ledger.HomeworkDone
	got.CompletedAt = &now
	got.RecommendedGrade = &grade
	got.RemindedD1At = &now
	require.NoError(t, store.UpdateHomework(ctx, got))

	again, err := store.HomeworkByID(ctx, hw.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.HomeworkDone, again.Status)
	require.NotNil(t, again.RecommendedGrade)
	assert.Equal(t, ledger.GradeGood, *again.RecommendedGrade)
	assert.NotNil(t, again.RemindedD1At)
}

// =============================================================================
// CATALOG AND CONFIG
// =============================================================================

func TestCatalog_TopicSubject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, subjectID, topicID := seedCatalog(t, store)

	got, ok, err := store.TopicSubject(ctx, topicID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, subjectID, got)

	_, ok, err = store.TopicSubject(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfig_UpsertAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Create unset
	entry, err := store.SetConfig(ctx, "bonus_fund_weekly_topup", nil, "weekly slots", true)
	require.NoError(t, err)
	assert.Nil(t, entry.Value)
	assert.True(t, entry.IsRequired)

	_, set, err := store.ConfigValue(ctx, "bonus_fund_weekly_topup")
	require.NoError(t, err)
	assert.False(t, set, "nil value reads as unset")

	// Set a value through the same upsert
	value := "20"
	entry, err = store.SetConfig(ctx, "bonus_fund_weekly_topup", &value, "weekly slots", true)
	require.NoError(t, err)
	require.NotNil(t, entry.Value)
	assert.Equal(t, "20", *entry.Value)

	raw, set, err := store.ConfigValue(ctx, "bonus_fund_weekly_topup")
	require.NoError(t, err)
	assert.True(t, set)
	assert.Equal(t, "20", raw)

	entries, err := store.ListConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "upsert must not duplicate the row")
}

func TestMembersAndProviders_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	schoolID, _, _ := seedCatalog(t, store)

	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Dana", Role: catalog.RoleParent, IsAdmin: true,
	}))
	require.NoError(t, store.CreateMember(ctx, &catalog.FamilyMember{
		Name: "Sam", Role: catalog.RoleStudent, IsStudent: true,
	}))

	members, err := store.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	provider := &catalog.SyncProvider{Code: "portal", SchoolID: &schoolID}
	require.NoError(t, store.CreateProvider(ctx, provider))

	got, err := store.ProviderByCode(ctx, "portal")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	got.Active = true
	require.NoError(t, store.UpdateProvider(ctx, got))
	again, err := store.ProviderByCode(ctx, "portal")
	require.NoError(t, err)
	assert.True(t, again.Active)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(s ledger.Store) error {
		if err := s.CreateBonus(ctx, &ledger.Bonus{Minutes: 5, Reason: "inside tx"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bonuses, err := store.ListUnrewardedBonuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, bonuses)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(s ledger.Store) error {
		return s.CreateBonus(ctx, &ledger.Bonus{Minutes: 5, Reason: "inside tx"})
	})
	require.NoError(t, err)

	bonuses, err := store.ListUnrewardedBonuses(ctx)
	require.NoError(t, err)
	assert.Len(t, bonuses, 1)
}
