/*
store.go - Storage interfaces for the ledger

PURPOSE:
  Defines the persistence contract the engines depend on. Implementations:
  - ledger/store: in-memory (tests, development)
  - store/sqlite: production SQLite

CONVENTIONS:
  - Lookups return (nil, nil) when the record does not exist. The engines
    decide whether absence is an answer or an error.
  - Create methods assign the record's ID and CreatedAt in place.
  - WithTx runs a function against a transactional view of the store; any
    error rolls the whole unit back. The weekly calculation and the fund
    mutations rely on this.
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// FILTERS
// =============================================================================

// GradeFilter narrows grade listings. Zero-value fields are ignored.
type GradeFilter struct {
	SubjectID  int64
	Source     GradeSource
	Unrewarded bool
	From       *time.Time
	To         *time.Time
	Limit      int
}

// TaskFilter narrows bonus-task listings.
type TaskFilter struct {
	Status         TaskStatus
	SubjectTopicID int64
	Limit          int
}

// ReviewFilter narrows topic-review listings.
type ReviewFilter struct {
	Status         ReviewStatus
	SubjectTopicID int64
	Limit          int
}

// HomeworkFilter narrows homework listings.
type HomeworkFilter struct {
	Status    HomeworkStatus
	SubjectID int64
	Limit     int
}

// =============================================================================
// STORE INTERFACES - One per aggregate, composed into Store
// =============================================================================

// WeekStore persists weekly accounting periods.
type WeekStore interface {
	CreateWeek(ctx context.Context, w *Week) error
	WeekByKey(ctx context.Context, key string) (*Week, error)
	// WeekContaining returns the week whose [StartAt, EndAt) holds t.
	WeekContaining(ctx context.Context, t time.Time) (*Week, error)
	UpdateWeek(ctx context.Context, w *Week) error
	ListWeeks(ctx context.Context, limit int) ([]*Week, error)
}

// GradeStore persists grades and their consumption/escalation flags.
type GradeStore interface {
	CreateGrade(ctx context.Context, g *Grade) error
	GradeByID(ctx context.Context, id int64) (*Grade, error)
	GradeByBonusTask(ctx context.Context, taskID int64) (*Grade, error)
	GradeByExternalID(ctx context.Context, externalID string) (*Grade, error)
	ListGrades(ctx context.Context, f GradeFilter) ([]*Grade, error)
	// UnrewardedGradesInRange returns unrewarded grades with a date in
	// [from, to], inclusive on both ends.
	UnrewardedGradesInRange(ctx context.Context, from, to time.Time) ([]*Grade, error)
	MarkGradesRewarded(ctx context.Context, ids []int64) (int, error)
	// PendingEscalation returns auto-synced grades at or worse than the
	// threshold that have not been escalated yet.
	PendingEscalation(ctx context.Context, threshold GradeValue) ([]*Grade, error)
	MarkGradesEscalated(ctx context.Context, ids []int64, at time.Time) (int, error)
}

// BonusStore persists bonuses.
type BonusStore interface {
	CreateBonus(ctx context.Context, b *Bonus) error
	BonusByID(ctx context.Context, id int64) (*Bonus, error)
	BonusByHomework(ctx context.Context, homeworkID int64) (*Bonus, error)
	UpdateBonus(ctx context.Context, b *Bonus) error
	DeleteBonus(ctx context.Context, id int64) error
	ListUnrewardedBonuses(ctx context.Context) ([]*Bonus, error)
	// LatestAdhocBonusByReason returns the newest ad-hoc bonus with the
	// exact reason text, for duplicate-window checks.
	LatestAdhocBonusByReason(ctx context.Context, reason string) (*Bonus, error)
	MarkAllBonusesRewarded(ctx context.Context) (int, error)
}

// FundStore persists the singleton bonus fund.
type FundStore interface {
	Fund(ctx context.Context) (*BonusFund, error)
	CreateFund(ctx context.Context, f *BonusFund) error
	UpdateFund(ctx context.Context, f *BonusFund) error
}

// TaskStore persists bonus tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, t *BonusTask) error
	TaskByID(ctx context.Context, id int64) (*BonusTask, error)
	UpdateTask(ctx context.Context, t *BonusTask) error
	ListTasks(ctx context.Context, f TaskFilter) ([]*BonusTask, error)
	CountPendingTasks(ctx context.Context) (int, error)
	OldestPendingTask(ctx context.Context) (*BonusTask, error)
	LatestTask(ctx context.Context) (*BonusTask, error)
}

// ReviewStore persists topic reviews.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *TopicReview) error
	ReviewByID(ctx context.Context, id int64) (*TopicReview, error)
	ReviewByGrade(ctx context.Context, gradeID int64) (*TopicReview, error)
	UpdateReview(ctx context.Context, r *TopicReview) error
	ListReviews(ctx context.Context, f ReviewFilter) ([]*TopicReview, error)
	// PendingReviewsByPriority returns pending reviews ordered worst grade
	// first, then lowest repeat count, then newest.
	PendingReviewsByPriority(ctx context.Context, limit int) ([]*TopicReview, error)
}

// HomeworkStore persists homeworks.
type HomeworkStore interface {
	CreateHomework(ctx context.Context, h *Homework) error
	HomeworkByID(ctx context.Context, id int64) (*Homework, error)
	HomeworkByExternalID(ctx context.Context, externalID string) (*Homework, error)
	UpdateHomework(ctx context.Context, h *Homework) error
	ListHomeworks(ctx context.Context, f HomeworkFilter) ([]*Homework, error)
	// PendingHomeworksWithDeadline returns pending homeworks that have a
	// deadline set, oldest deadline first.
	PendingHomeworksWithDeadline(ctx context.Context) ([]*Homework, error)
}

// TopicStore is the slice of the catalog the engines need: resolving a
// subject topic to its subject.
type TopicStore interface {
	// TopicSubject returns the subject id of a topic and whether the topic
	// exists.
	TopicSubject(ctx context.Context, topicID int64) (int64, bool, error)
}

// Store is the full persistence surface of the ledger.
type Store interface {
	WeekStore
	GradeStore
	BonusStore
	FundStore
	TaskStore
	ReviewStore
	HomeworkStore
	TopicStore
}

// TxStore is a Store that can run a unit of work atomically. The Store
// passed to fn sees uncommitted writes; returning an error rolls them back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
