package store

import (
	"context"
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction. For the memory store this is
// simulated with a snapshot and a rollback on error. The lock is held for
// the whole unit, which also serializes concurrent transactions.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm.Memory}
	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	weeks     map[int64]ledger.Week
	grades    map[int64]ledger.Grade
	bonuses   map[int64]ledger.Bonus
	fund      *ledger.BonusFund
	tasks     map[int64]ledger.BonusTask
	reviews   map[int64]ledger.TopicReview
	homeworks map[int64]ledger.Homework
	seq       int64
}

func (tm *TxMemory) snapshot() memorySnapshot {
	s := memorySnapshot{
		weeks:     make(map[int64]ledger.Week, len(tm.weeks)),
		grades:    make(map[int64]ledger.Grade, len(tm.grades)),
		bonuses:   make(map[int64]ledger.Bonus, len(tm.bonuses)),
		tasks:     make(map[int64]ledger.BonusTask, len(tm.tasks)),
		reviews:   make(map[int64]ledger.TopicReview, len(tm.reviews)),
		homeworks: make(map[int64]ledger.Homework, len(tm.homeworks)),
		seq:       tm.seq,
	}
	for k, v := range tm.weeks {
		s.weeks[k] = v
	}
	for k, v := range tm.grades {
		s.grades[k] = v
	}
	for k, v := range tm.bonuses {
		s.bonuses[k] = v
	}
	for k, v := range tm.tasks {
		s.tasks[k] = v
	}
	for k, v := range tm.reviews {
		s.reviews[k] = v
	}
	for k, v := range tm.homeworks {
		s.homeworks[k] = v
	}
	if tm.fund != nil {
		clone := *tm.fund
		s.fund = &clone
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.weeks = s.weeks
	tm.grades = s.grades
	tm.bonuses = s.bonuses
	tm.fund = s.fund
	tm.tasks = s.tasks
	tm.reviews = s.reviews
	tm.homeworks = s.homeworks
	tm.seq = s.seq
}

// txMemoryView is the Store handed to WithTx callbacks. The parent's lock
// is already held, so every call goes straight to the unlocked internals.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateWeek(_ context.Context, w *ledger.Week) error {
	return tv.parent.createWeekLocked(w)
}

func (tv *txMemoryView) WeekByKey(_ context.Context, key string) (*ledger.Week, error) {
	return tv.parent.weekByKeyLocked(key), nil
}

func (tv *txMemoryView) WeekContaining(_ context.Context, t time.Time) (*ledger.Week, error) {
	return tv.parent.weekContainingLocked(t), nil
}

func (tv *txMemoryView) UpdateWeek(_ context.Context, w *ledger.Week) error {
	return tv.parent.updateWeekLocked(w)
}

func (tv *txMemoryView) ListWeeks(_ context.Context, limit int) ([]*ledger.Week, error) {
	return tv.parent.listWeeksLocked(limit), nil
}

func (tv *txMemoryView) CreateGrade(_ context.Context, g *ledger.Grade) error {
	return tv.parent.createGradeLocked(g)
}

func (tv *txMemoryView) GradeByID(_ context.Context, id int64) (*ledger.Grade, error) {
	return tv.parent.gradeByIDLocked(id), nil
}

func (tv *txMemoryView) GradeByBonusTask(_ context.Context, taskID int64) (*ledger.Grade, error) {
	return tv.parent.gradeByBonusTaskLocked(taskID), nil
}

func (tv *txMemoryView) GradeByExternalID(_ context.Context, externalID string) (*ledger.Grade, error) {
	return tv.parent.gradeByExternalIDLocked(externalID), nil
}

func (tv *txMemoryView) ListGrades(_ context.Context, f ledger.GradeFilter) ([]*ledger.Grade, error) {
	return tv.parent.listGradesLocked(f), nil
}

func (tv *txMemoryView) UnrewardedGradesInRange(_ context.Context, from, to time.Time) ([]*ledger.Grade, error) {
	return tv.parent.unrewardedGradesInRangeLocked(from, to), nil
}

func (tv *txMemoryView) MarkGradesRewarded(_ context.Context, ids []int64) (int, error) {
	return tv.parent.markGradesRewardedLocked(ids), nil
}

func (tv *txMemoryView) PendingEscalation(_ context.Context, threshold ledger.GradeValue) ([]*ledger.Grade, error) {
	return tv.parent.pendingEscalationLocked(threshold), nil
}

func (tv *txMemoryView) MarkGradesEscalated(_ context.Context, ids []int64, at time.Time) (int, error) {
	return tv.parent.markGradesEscalatedLocked(ids, at), nil
}

func (tv *txMemoryView) CreateBonus(_ context.Context, b *ledger.Bonus) error {
	return tv.parent.createBonusLocked(b)
}

func (tv *txMemoryView) BonusByID(_ context.Context, id int64) (*ledger.Bonus, error) {
	return tv.parent.bonusByIDLocked(id), nil
}

func (tv *txMemoryView) BonusByHomework(_ context.Context, homeworkID int64) (*ledger.Bonus, error) {
	return tv.parent.bonusByHomeworkLocked(homeworkID), nil
}

func (tv *txMemoryView) UpdateBonus(_ context.Context, b *ledger.Bonus) error {
	return tv.parent.updateBonusLocked(b)
}

func (tv *txMemoryView) DeleteBonus(_ context.Context, id int64) error {
	return tv.parent.deleteBonusLocked(id)
}

func (tv *txMemoryView) ListUnrewardedBonuses(_ context.Context) ([]*ledger.Bonus, error) {
	return tv.parent.listUnrewardedBonusesLocked(), nil
}

func (tv *txMemoryView) LatestAdhocBonusByReason(_ context.Context, reason string) (*ledger.Bonus, error) {
	return tv.parent.latestAdhocBonusByReasonLocked(reason), nil
}

func (tv *txMemoryView) MarkAllBonusesRewarded(_ context.Context) (int, error) {
	return tv.parent.markAllBonusesRewardedLocked(), nil
}

func (tv *txMemoryView) Fund(_ context.Context) (*ledger.BonusFund, error) {
	return tv.parent.fundLocked(), nil
}

func (tv *txMemoryView) CreateFund(_ context.Context, f *ledger.BonusFund) error {
	return tv.parent.createFundLocked(f)
}

func (tv *txMemoryView) UpdateFund(_ context.Context, f *ledger.BonusFund) error {
	return tv.parent.updateFundLocked(f)
}

func (tv *txMemoryView) CreateTask(_ context.Context, t *ledger.BonusTask) error {
	return tv.parent.createTaskLocked(t)
}

func (tv *txMemoryView) TaskByID(_ context.Context, id int64) (*ledger.BonusTask, error) {
	return tv.parent.taskByIDLocked(id), nil
}

func (tv *txMemoryView) UpdateTask(_ context.Context, t *ledger.BonusTask) error {
	return tv.parent.updateTaskLocked(t)
}

func (tv *txMemoryView) ListTasks(_ context.Context, f ledger.TaskFilter) ([]*ledger.BonusTask, error) {
	return tv.parent.listTasksLocked(f), nil
}

func (tv *txMemoryView) CountPendingTasks(_ context.Context) (int, error) {
	return tv.parent.countPendingTasksLocked(), nil
}

func (tv *txMemoryView) OldestPendingTask(_ context.Context) (*ledger.BonusTask, error) {
	return tv.parent.oldestPendingTaskLocked(), nil
}

func (tv *txMemoryView) LatestTask(_ context.Context) (*ledger.BonusTask, error) {
	return tv.parent.latestTaskLocked(), nil
}

func (tv *txMemoryView) CreateReview(_ context.Context, r *ledger.TopicReview) error {
	return tv.parent.createReviewLocked(r)
}

func (tv *txMemoryView) ReviewByID(_ context.Context, id int64) (*ledger.TopicReview, error) {
	return tv.parent.reviewByIDLocked(id), nil
}

func (tv *txMemoryView) ReviewByGrade(_ context.Context, gradeID int64) (*ledger.TopicReview, error) {
	return tv.parent.reviewByGradeLocked(gradeID), nil
}

func (tv *txMemoryView) UpdateReview(_ context.Context, r *ledger.TopicReview) error {
	return tv.parent.updateReviewLocked(r)
}

func (tv *txMemoryView) ListReviews(_ context.Context, f ledger.ReviewFilter) ([]*ledger.TopicReview, error) {
	return tv.parent.listReviewsLocked(f), nil
}

func (tv *txMemoryView) PendingReviewsByPriority(_ context.Context, limit int) ([]*ledger.TopicReview, error) {
	return tv.parent.pendingReviewsByPriorityLocked(limit), nil
}

func (tv *txMemoryView) CreateHomework(_ context.Context, h *ledger.Homework) error {
	return tv.parent.createHomeworkLocked(h)
}

func (tv *txMemoryView) HomeworkByID(_ context.Context, id int64) (*ledger.Homework, error) {
	return tv.parent.homeworkByIDLocked(id), nil
}

func (tv *txMemoryView) HomeworkByExternalID(_ context.Context, externalID string) (*ledger.Homework, error) {
	return tv.parent.homeworkByExternalIDLocked(externalID), nil
}

func (tv *txMemoryView) UpdateHomework(_ context.Context, h *ledger.Homework) error {
	return tv.parent.updateHomeworkLocked(h)
}

func (tv *txMemoryView) ListHomeworks(_ context.Context, f ledger.HomeworkFilter) ([]*ledger.Homework, error) {
	return tv.parent.listHomeworksLocked(f), nil
}

func (tv *txMemoryView) PendingHomeworksWithDeadline(_ context.Context) ([]*ledger.Homework, error) {
	return tv.parent.pendingHomeworksWithDeadlineLocked(), nil
}

func (tv *txMemoryView) TopicSubject(_ context.Context, topicID int64) (int64, bool, error) {
	subjectID, ok := tv.parent.topicSubjectLocked(topicID)
	return subjectID, ok, nil
}
