/*
Package ledger implements the weekly game-minutes ledger for the learning hub.

PURPOSE:
  This package contains the domain model and the bookkeeping engines that
  convert a student's academic week into "minutes of play": the weekly
  calculation engine, the grade/bonus accumulators, the bonus-fund slot
  allocator, and the topic-review tracker.

KEY CONCEPTS IN THIS FILE (types.go):
  - GradeValue: The 5-point grade scale (1 = best, 5 = worst), with a single
    ordering function used everywhere "worse/better" is evaluated
  - Week: One 7-day accounting period, keyed by its starting Saturday
  - Grade / Bonus: The two minute sources, each consumed ("rewarded") exactly
    once by the weekly calculation
  - BonusFund / BonusTask: The shared slot quota and the tasks drawn from it
  - TopicReview: A reinforcement marker tied to a below-best grade
  - Homework: Assignment whose completion feeds a Bonus

DESIGN PRINCIPLES:
  1. Consumption flags, not deletion: grades and bonuses flip Rewarded once
     and stay as immutable history
  2. Sequential weeks: week N+1 cannot be calculated until week N is
     finalized with its actual played minutes
  3. One comparison: GradeValue.WorseThan is the only place grade ordering
     lives

SEE ALSO:
  - engine.go: Weekly calculation, preview, finalize
  - fund.go: Bonus fund slot allocation and preemption
  - review.go: Topic review priority and auto-closure
*/
package ledger

import (
	"fmt"
	"time"
)

// =============================================================================
// GRADE SCALE - 5-point European scale, 1 best, 5 worst
// =============================================================================

// GradeValue is a grade on the 5-point scale. Lower is better.
type GradeValue int

const (
	GradeExcellent    GradeValue = 1
	GradeGood         GradeValue = 2
	GradeSatisfactory GradeValue = 3
	GradePoor         GradeValue = 4
	GradeFail         GradeValue = 5
)

// BestGrade is the top of the scale; grades worse than this trigger reviews.
const BestGrade = GradeExcellent

// Valid reports whether v is on the scale.
func (v GradeValue) Valid() bool { return v >= GradeExcellent && v <= GradeFail }

// WorseThan is the single ordering function for grades. A higher numeric
// value is a worse grade.
func (v GradeValue) WorseThan(other GradeValue) bool { return v > other }

// NeedsReview reports whether a grade should spawn a topic review.
func (v GradeValue) NeedsReview() bool { return v.WorseThan(BestGrade) }

// NeedsRetry reports whether the work should be redone rather than accepted
// (grades 4-5 close nothing: the student retries).
func (v GradeValue) NeedsRetry() bool { return v.WorseThan(GradeSatisfactory) }

func (v GradeValue) String() string { return fmt.Sprintf("%d", int(v)) }

// GradeSource records how a grade entered the system.
type GradeSource string

const (
	SourceManual GradeSource = "manual" // entered by a human or the agent
	SourceAuto   GradeSource = "auto"   // pulled from an external feed
)

// =============================================================================
// WEEK - One 7-day accounting period
// =============================================================================

// WeekKeyLayout is the date layout of week keys (the period's starting
// Saturday).
const WeekKeyLayout = "2006-01-02"

// Week is one accounting period. Periods chain strictly: each week's key is
// exactly 7 days after the previous one, and StartAt equals the previous
// week's EndAt. The interval is half-open: [StartAt, EndAt).
type Week struct {
	ID      int64
	WeekKey string

	StartAt time.Time
	EndAt   time.Time

	GradeMinutes         int
	HomeworkBonusMinutes int
	PenaltyMinutes       int
	CarryoverOutMinutes  int
	ActualPlayedMinutes  int
	TotalMinutes         int

	// Once finalized, no field may change.
	IsFinalized bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ParseWeekKey parses a week key into its calendar date.
func ParseWeekKey(key string) (time.Time, error) {
	t, err := time.Parse(WeekKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week key %q: %w", key, err)
	}
	return t, nil
}

// PrevWeekKey returns the key exactly 7 days before the given one.
func PrevWeekKey(key string) (string, error) {
	t, err := ParseWeekKey(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -7).Format(WeekKeyLayout), nil
}

// =============================================================================
// GRADE - One recorded academic grade
// =============================================================================

// Grade is a recorded grade, always tied to a subject, optionally to a
// topic, a bonus task or a homework.
type Grade struct {
	ID             int64
	SubjectID      int64
	SubjectTopicID *int64
	BonusTaskID    *int64 // at most one grade per bonus task
	HomeworkID     *int64

	Value GradeValue
	Date  time.Time

	// Rewarded flips true exactly once, when a weekly calculation folds
	// this grade into a week's ledger. Never reverts.
	Rewarded bool

	// EscalatedAt is set once the grade has been surfaced to a responsible
	// adult. Nil means not yet escalated.
	EscalatedAt *time.Time

	Source GradeSource

	// ExternalID is the upstream feed's identifier, used for sync dedup.
	ExternalID    *string
	OriginalValue string // raw mark as received from the feed, if any

	CreatedAt time.Time
}

// =============================================================================
// BONUS - One signed minute adjustment
// =============================================================================

// Bonus records awarded (or deducted) minutes independent of grades.
// Exactly one of the two modes holds:
//   - homework-linked: HomeworkID set, one bonus per homework
//   - ad-hoc: HomeworkID nil, Reason required
type Bonus struct {
	ID         int64
	HomeworkID *int64
	Minutes    int
	Reason     string
	Rewarded   bool
	CreatedAt  time.Time
}

// IsAdhoc reports whether this is an ad-hoc (non-homework) bonus.
func (b *Bonus) IsAdhoc() bool { return b.HomeworkID == nil }

// =============================================================================
// BONUS FUND + TASKS - Shared slot quota
// =============================================================================

// FundID is the fixed identity of the singleton bonus fund row.
const FundID int64 = 1

// BonusFund is the shared quota of assignable bonus tasks. Exactly one row
// exists system-wide. AvailableTasks is a capacity for pending-plus-new
// commitments: it is checked on task creation but deducted only on task
// completion, so it can transiently go negative under unusual sequencing.
type BonusFund struct {
	ID             int64
	Name           string
	AvailableTasks int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TaskStatus is the lifecycle state of a bonus task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s TaskStatus) Terminal() bool { return s == TaskCompleted || s == TaskCancelled }

// BonusTask is extra work offered to earn a grade, tied to a topic.
// pending -> completed (completion) or pending -> cancelled (explicit cancel
// or allocator preemption). Terminal states never transition.
type BonusTask struct {
	ID              int64
	SubjectTopicID  int64
	FundID          int64
	TaskDescription string
	Status          TaskStatus
	CompletedAt     *time.Time
	QualityNotes    string
	CreatedAt       time.Time
}

// =============================================================================
// TOPIC REVIEW - Reinforcement marker
// =============================================================================

// ReviewStatus is the lifecycle state of a topic review.
type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewReinforced ReviewStatus = "reinforced" // terminal
)

// TopicReview tracks that a topic needs reinforcement after a below-best
// grade. At most one review per grade. RepeatCount increases each time a
// bonus task on the same topic completes; the review closes manually or
// automatically once the count meets the per-grade threshold.
type TopicReview struct {
	ID             int64
	SubjectID      int64
	SubjectTopicID int64
	GradeID        int64 // unique
	Status         ReviewStatus
	RepeatCount    int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// =============================================================================
// HOMEWORK - Assignment feeding the bonus ledger
// =============================================================================

// HomeworkStatus is the lifecycle state of a homework.
type HomeworkStatus string

const (
	HomeworkPending HomeworkStatus = "pending"
	HomeworkDone    HomeworkStatus = "done"
	HomeworkOverdue HomeworkStatus = "overdue"
)

// Closed reports whether the homework reached a terminal status.
func (s HomeworkStatus) Closed() bool { return s == HomeworkDone || s == HomeworkOverdue }

// Homework is an assignment. Completing it (or closing it overdue) creates
// or refreshes the homework's unique Bonus.
type Homework struct {
	ID             int64
	SubjectID      int64
	SubjectTopicID *int64
	BookID         *int64
	Description    string
	Status         HomeworkStatus

	AssignedAt  time.Time
	DeadlineAt  *time.Time
	CompletedAt *time.Time

	RecommendedGrade *GradeValue

	// Reminder stamps: D-2 and D-1 before the deadline, each sent at most
	// once.
	RemindedD2At *time.Time
	RemindedD1At *time.Time

	ExternalID *string
	CreatedAt  time.Time
}
