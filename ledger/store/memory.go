// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds every aggregate in plain maps keyed by id. Records are
// stored by value and cloned on reads so callers can mutate the returned
// structs freely before writing them back.
type Memory struct {
	mu sync.RWMutex

	weeks     map[int64]ledger.Week
	grades    map[int64]ledger.Grade
	bonuses   map[int64]ledger.Bonus
	fund      *ledger.BonusFund
	tasks     map[int64]ledger.BonusTask
	reviews   map[int64]ledger.TopicReview
	homeworks map[int64]ledger.Homework

	// topics maps topic id -> subject id
	topics map[int64]int64

	seq int64
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		weeks:     make(map[int64]ledger.Week),
		grades:    make(map[int64]ledger.Grade),
		bonuses:   make(map[int64]ledger.Bonus),
		tasks:     make(map[int64]ledger.BonusTask),
		reviews:   make(map[int64]ledger.TopicReview),
		homeworks: make(map[int64]ledger.Homework),
		topics:    make(map[int64]int64),
		now:       time.Now,
	}
}

// SetClock overrides the store's clock for CreatedAt stamps. Tests only.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

// AddTopic registers a topic under a subject. Tests and dev seeding.
func (m *Memory) AddTopic(topicID, subjectID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics[topicID] = subjectID
}

func (m *Memory) nextID() int64 {
	m.seq++
	return m.seq
}

// =============================================================================
// WEEKS
// =============================================================================

func (m *Memory) CreateWeek(_ context.Context, w *ledger.Week) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createWeekLocked(w)
}

func (m *Memory) createWeekLocked(w *ledger.Week) error {
	w.ID = m.nextID()
	now := m.now()
	w.CreatedAt = now
	w.UpdatedAt = now
	m.weeks[w.ID] = *w
	return nil
}

func (m *Memory) WeekByKey(_ context.Context, key string) (*ledger.Week, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weekByKeyLocked(key), nil
}

func (m *Memory) weekByKeyLocked(key string) *ledger.Week {
	for _, w := range m.weeks {
		if w.WeekKey == key {
			clone := w
			return &clone
		}
	}
	return nil
}

func (m *Memory) WeekContaining(_ context.Context, t time.Time) (*ledger.Week, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weekContainingLocked(t), nil
}

func (m *Memory) weekContainingLocked(t time.Time) *ledger.Week {
	for _, w := range m.weeks {
		if !t.Before(w.StartAt) && t.Before(w.EndAt) {
			clone := w
			return &clone
		}
	}
	return nil
}

func (m *Memory) UpdateWeek(_ context.Context, w *ledger.Week) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateWeekLocked(w)
}

func (m *Memory) updateWeekLocked(w *ledger.Week) error {
	w.UpdatedAt = m.now()
	m.weeks[w.ID] = *w
	return nil
}

func (m *Memory) ListWeeks(_ context.Context, limit int) ([]*ledger.Week, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listWeeksLocked(limit), nil
}

func (m *Memory) listWeeksLocked(limit int) []*ledger.Week {
	out := make([]*ledger.Week, 0, len(m.weeks))
	for _, w := range m.weeks {
		clone := w
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// =============================================================================
// GRADES
// =============================================================================

func (m *Memory) CreateGrade(_ context.Context, g *ledger.Grade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createGradeLocked(g)
}

func (m *Memory) createGradeLocked(g *ledger.Grade) error {
	g.ID = m.nextID()
	g.CreatedAt = m.now()
	m.grades[g.ID] = *g
	return nil
}

func (m *Memory) GradeByID(_ context.Context, id int64) (*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gradeByIDLocked(id), nil
}

func (m *Memory) gradeByIDLocked(id int64) *ledger.Grade {
	g, ok := m.grades[id]
	if !ok {
		return nil
	}
	clone := g
	return &clone
}

func (m *Memory) GradeByBonusTask(_ context.Context, taskID int64) (*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gradeByBonusTaskLocked(taskID), nil
}

func (m *Memory) gradeByBonusTaskLocked(taskID int64) *ledger.Grade {
	for _, g := range m.grades {
		if g.BonusTaskID != nil && *g.BonusTaskID == taskID {
			clone := g
			return &clone
		}
	}
	return nil
}

func (m *Memory) GradeByExternalID(_ context.Context, externalID string) (*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gradeByExternalIDLocked(externalID), nil
}

func (m *Memory) gradeByExternalIDLocked(externalID string) *ledger.Grade {
	for _, g := range m.grades {
		if g.ExternalID != nil && *g.ExternalID == externalID {
			clone := g
			return &clone
		}
	}
	return nil
}

func (m *Memory) ListGrades(_ context.Context, f ledger.GradeFilter) ([]*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listGradesLocked(f), nil
}

func (m *Memory) listGradesLocked(f ledger.GradeFilter) []*ledger.Grade {
	var out []*ledger.Grade
	for _, g := range m.grades {
		if f.SubjectID != 0 && g.SubjectID != f.SubjectID {
			continue
		}
		if f.Source != "" && g.Source != f.Source {
			continue
		}
		if f.Unrewarded && g.Rewarded {
			continue
		}
		if f.From != nil && g.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && g.Date.After(*f.To) {
			continue
		}
		clone := g
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (m *Memory) UnrewardedGradesInRange(_ context.Context, from, to time.Time) ([]*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unrewardedGradesInRangeLocked(from, to), nil
}

func (m *Memory) unrewardedGradesInRangeLocked(from, to time.Time) []*ledger.Grade {
	var out []*ledger.Grade
	for _, g := range m.grades {
		if g.Rewarded || g.Date.Before(from) || g.Date.After(to) {
			continue
		}
		clone := g
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) MarkGradesRewarded(_ context.Context, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markGradesRewardedLocked(ids), nil
}

func (m *Memory) markGradesRewardedLocked(ids []int64) int {
	count := 0
	for _, id := range ids {
		g, ok := m.grades[id]
		if !ok || g.Rewarded {
			continue
		}
		g.Rewarded = true
		m.grades[id] = g
		count++
	}
	return count
}

func (m *Memory) PendingEscalation(_ context.Context, threshold ledger.GradeValue) ([]*ledger.Grade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingEscalationLocked(threshold), nil
}

func (m *Memory) pendingEscalationLocked(threshold ledger.GradeValue) []*ledger.Grade {
	var out []*ledger.Grade
	for _, g := range m.grades {
		if g.Source != ledger.SourceAuto || g.EscalatedAt != nil {
			continue
		}
		if g.Value != threshold && !g.Value.WorseThan(threshold) {
			continue
		}
		clone := g
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) MarkGradesEscalated(_ context.Context, ids []int64, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markGradesEscalatedLocked(ids, at), nil
}

func (m *Memory) markGradesEscalatedLocked(ids []int64, at time.Time) int {
	count := 0
	for _, id := range ids {
		g, ok := m.grades[id]
		if !ok || g.EscalatedAt != nil {
			continue
		}
		g.EscalatedAt = &at
		m.grades[id] = g
		count++
	}
	return count
}

// =============================================================================
// BONUSES
// =============================================================================

func (m *Memory) CreateBonus(_ context.Context, b *ledger.Bonus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBonusLocked(b)
}

func (m *Memory) createBonusLocked(b *ledger.Bonus) error {
	b.ID = m.nextID()
	b.CreatedAt = m.now()
	m.bonuses[b.ID] = *b
	return nil
}

func (m *Memory) BonusByID(_ context.Context, id int64) (*ledger.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bonusByIDLocked(id), nil
}

func (m *Memory) bonusByIDLocked(id int64) *ledger.Bonus {
	b, ok := m.bonuses[id]
	if !ok {
		return nil
	}
	clone := b
	return &clone
}

func (m *Memory) BonusByHomework(_ context.Context, homeworkID int64) (*ledger.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bonusByHomeworkLocked(homeworkID), nil
}

func (m *Memory) bonusByHomeworkLocked(homeworkID int64) *ledger.Bonus {
	for _, b := range m.bonuses {
		if b.HomeworkID != nil && *b.HomeworkID == homeworkID {
			clone := b
			return &clone
		}
	}
	return nil
}

func (m *Memory) UpdateBonus(_ context.Context, b *ledger.Bonus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateBonusLocked(b)
}

func (m *Memory) updateBonusLocked(b *ledger.Bonus) error {
	m.bonuses[b.ID] = *b
	return nil
}

func (m *Memory) DeleteBonus(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteBonusLocked(id)
}

func (m *Memory) deleteBonusLocked(id int64) error {
	delete(m.bonuses, id)
	return nil
}

func (m *Memory) ListUnrewardedBonuses(_ context.Context) ([]*ledger.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUnrewardedBonusesLocked(), nil
}

func (m *Memory) listUnrewardedBonusesLocked() []*ledger.Bonus {
	var out []*ledger.Bonus
	for _, b := range m.bonuses {
		if b.Rewarded {
			continue
		}
		clone := b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) LatestAdhocBonusByReason(_ context.Context, reason string) (*ledger.Bonus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestAdhocBonusByReasonLocked(reason), nil
}

func (m *Memory) latestAdhocBonusByReasonLocked(reason string) *ledger.Bonus {
	var latest *ledger.Bonus
	for _, b := range m.bonuses {
		if b.HomeworkID != nil || b.Reason != reason {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			clone := b
			latest = &clone
		}
	}
	return latest
}

func (m *Memory) MarkAllBonusesRewarded(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markAllBonusesRewardedLocked(), nil
}

func (m *Memory) markAllBonusesRewardedLocked() int {
	count := 0
	for id, b := range m.bonuses {
		if b.Rewarded {
			continue
		}
		b.Rewarded = true
		m.bonuses[id] = b
		count++
	}
	return count
}

// =============================================================================
// FUND
// =============================================================================

func (m *Memory) Fund(_ context.Context) (*ledger.BonusFund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fundLocked(), nil
}

func (m *Memory) fundLocked() *ledger.BonusFund {
	if m.fund == nil {
		return nil
	}
	clone := *m.fund
	return &clone
}

func (m *Memory) CreateFund(_ context.Context, f *ledger.BonusFund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createFundLocked(f)
}

func (m *Memory) createFundLocked(f *ledger.BonusFund) error {
	if f.ID == 0 {
		f.ID = ledger.FundID
	}
	now := m.now()
	f.CreatedAt = now
	f.UpdatedAt = now
	clone := *f
	m.fund = &clone
	return nil
}

func (m *Memory) UpdateFund(_ context.Context, f *ledger.BonusFund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateFundLocked(f)
}

func (m *Memory) updateFundLocked(f *ledger.BonusFund) error {
	f.UpdatedAt = m.now()
	clone := *f
	m.fund = &clone
	return nil
}

// =============================================================================
// TASKS
// =============================================================================

func (m *Memory) CreateTask(_ context.Context, t *ledger.BonusTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createTaskLocked(t)
}

func (m *Memory) createTaskLocked(t *ledger.BonusTask) error {
	t.ID = m.nextID()
	t.CreatedAt = m.now()
	m.tasks[t.ID] = *t
	return nil
}

func (m *Memory) TaskByID(_ context.Context, id int64) (*ledger.BonusTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.taskByIDLocked(id), nil
}

func (m *Memory) taskByIDLocked(id int64) *ledger.BonusTask {
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	clone := t
	return &clone
}

func (m *Memory) UpdateTask(_ context.Context, t *ledger.BonusTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTaskLocked(t)
}

func (m *Memory) updateTaskLocked(t *ledger.BonusTask) error {
	m.tasks[t.ID] = *t
	return nil
}

func (m *Memory) ListTasks(_ context.Context, f ledger.TaskFilter) ([]*ledger.BonusTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTasksLocked(f), nil
}

func (m *Memory) listTasksLocked(f ledger.TaskFilter) []*ledger.BonusTask {
	var out []*ledger.BonusTask
	for _, t := range m.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.SubjectTopicID != 0 && t.SubjectTopicID != f.SubjectTopicID {
			continue
		}
		clone := t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (m *Memory) CountPendingTasks(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countPendingTasksLocked(), nil
}

func (m *Memory) countPendingTasksLocked() int {
	count := 0
	for _, t := range m.tasks {
		if t.Status == ledger.TaskPending {
			count++
		}
	}
	return count
}

func (m *Memory) OldestPendingTask(_ context.Context) (*ledger.BonusTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.oldestPendingTaskLocked(), nil
}

func (m *Memory) oldestPendingTaskLocked() *ledger.BonusTask {
	var oldest *ledger.BonusTask
	for _, t := range m.tasks {
		if t.Status != ledger.TaskPending {
			continue
		}
		if oldest == nil || t.ID < oldest.ID {
			clone := t
			oldest = &clone
		}
	}
	return oldest
}

func (m *Memory) LatestTask(_ context.Context) (*ledger.BonusTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latestTaskLocked(), nil
}

func (m *Memory) latestTaskLocked() *ledger.BonusTask {
	var latest *ledger.BonusTask
	for _, t := range m.tasks {
		if latest == nil || t.ID > latest.ID {
			clone := t
			latest = &clone
		}
	}
	return latest
}

// =============================================================================
// REVIEWS
// =============================================================================

func (m *Memory) CreateReview(_ context.Context, r *ledger.TopicReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createReviewLocked(r)
}

func (m *Memory) createReviewLocked(r *ledger.TopicReview) error {
	r.ID = m.nextID()
	now := m.now()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.reviews[r.ID] = *r
	return nil
}

func (m *Memory) ReviewByID(_ context.Context, id int64) (*ledger.TopicReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reviewByIDLocked(id), nil
}

func (m *Memory) reviewByIDLocked(id int64) *ledger.TopicReview {
	r, ok := m.reviews[id]
	if !ok {
		return nil
	}
	clone := r
	return &clone
}

func (m *Memory) ReviewByGrade(_ context.Context, gradeID int64) (*ledger.TopicReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reviewByGradeLocked(gradeID), nil
}

func (m *Memory) reviewByGradeLocked(gradeID int64) *ledger.TopicReview {
	for _, r := range m.reviews {
		if r.GradeID == gradeID {
			clone := r
			return &clone
		}
	}
	return nil
}

func (m *Memory) UpdateReview(_ context.Context, r *ledger.TopicReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateReviewLocked(r)
}

func (m *Memory) updateReviewLocked(r *ledger.TopicReview) error {
	r.UpdatedAt = m.now()
	m.reviews[r.ID] = *r
	return nil
}

func (m *Memory) ListReviews(_ context.Context, f ledger.ReviewFilter) ([]*ledger.TopicReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listReviewsLocked(f), nil
}

func (m *Memory) listReviewsLocked(f ledger.ReviewFilter) []*ledger.TopicReview {
	var out []*ledger.TopicReview
	for _, r := range m.reviews {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.SubjectTopicID != 0 && r.SubjectTopicID != f.SubjectTopicID {
			continue
		}
		clone := r
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (m *Memory) PendingReviewsByPriority(_ context.Context, limit int) ([]*ledger.TopicReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingReviewsByPriorityLocked(limit), nil
}

func (m *Memory) pendingReviewsByPriorityLocked(limit int) []*ledger.TopicReview {
	var out []*ledger.TopicReview
	for _, r := range m.reviews {
		if r.Status != ledger.ReviewPending {
			continue
		}
		clone := r
		out = append(out, &clone)
	}
	gradeValue := func(r *ledger.TopicReview) ledger.GradeValue {
		if g, ok := m.grades[r.GradeID]; ok {
			return g.Value
		}
		return 0
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := gradeValue(out[i]), gradeValue(out[j])
		if vi != vj {
			return vi.WorseThan(vj)
		}
		if out[i].RepeatCount != out[j].RepeatCount {
			return out[i].RepeatCount < out[j].RepeatCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// =============================================================================
// HOMEWORKS
// =============================================================================

func (m *Memory) CreateHomework(_ context.Context, h *ledger.Homework) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createHomeworkLocked(h)
}

func (m *Memory) createHomeworkLocked(h *ledger.Homework) error {
	h.ID = m.nextID()
	h.CreatedAt = m.now()
	m.homeworks[h.ID] = *h
	return nil
}

func (m *Memory) HomeworkByID(_ context.Context, id int64) (*ledger.Homework, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.homeworkByIDLocked(id), nil
}

func (m *Memory) homeworkByIDLocked(id int64) *ledger.Homework {
	h, ok := m.homeworks[id]
	if !ok {
		return nil
	}
	clone := h
	return &clone
}

func (m *Memory) HomeworkByExternalID(_ context.Context, externalID string) (*ledger.Homework, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.homeworkByExternalIDLocked(externalID), nil
}

func (m *Memory) homeworkByExternalIDLocked(externalID string) *ledger.Homework {
	for _, h := range m.homeworks {
		if h.ExternalID != nil && *h.ExternalID == externalID {
			clone := h
			return &clone
		}
	}
	return nil
}

func (m *Memory) UpdateHomework(_ context.Context, h *ledger.Homework) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateHomeworkLocked(h)
}

func (m *Memory) updateHomeworkLocked(h *ledger.Homework) error {
	m.homeworks[h.ID] = *h
	return nil
}

func (m *Memory) ListHomeworks(_ context.Context, f ledger.HomeworkFilter) ([]*ledger.Homework, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listHomeworksLocked(f), nil
}

func (m *Memory) listHomeworksLocked(f ledger.HomeworkFilter) []*ledger.Homework {
	var out []*ledger.Homework
	for _, h := range m.homeworks {
		if f.Status != "" && h.Status != f.Status {
			continue
		}
		if f.SubjectID != 0 && h.SubjectID != f.SubjectID {
			continue
		}
		clone := h
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (m *Memory) PendingHomeworksWithDeadline(_ context.Context) ([]*ledger.Homework, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingHomeworksWithDeadlineLocked(), nil
}

func (m *Memory) pendingHomeworksWithDeadlineLocked() []*ledger.Homework {
	var out []*ledger.Homework
	for _, h := range m.homeworks {
		if h.Status != ledger.HomeworkPending || h.DeadlineAt == nil {
			continue
		}
		clone := h
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeadlineAt.Before(*out[j].DeadlineAt) })
	return out
}

// =============================================================================
// TOPICS
// =============================================================================

func (m *Memory) TopicSubject(_ context.Context, topicID int64) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subjectID, ok := m.topics[topicID]
	return subjectID, ok, nil
}

func (m *Memory) topicSubjectLocked(topicID int64) (int64, bool) {
	subjectID, ok := m.topics[topicID]
	return subjectID, ok
}
