/*
recorder.go - Grade and bonus recording

PURPOSE:
  The write path for the two minute sources. Grades and bonuses enter
  here, get validated and deduplicated, and then sit unrewarded until the
  next weekly calculation consumes them.

DEDUPLICATION:
  - One grade per bonus task, one grade per external id
  - One bonus per homework
  - An ad-hoc bonus with the exact same reason inside the dedup window is
    treated as a double submission and rejected
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GradeParams carries a new grade.
type GradeParams struct {
	SubjectID      int64
	SubjectTopicID *int64
	BonusTaskID    *int64
	HomeworkID     *int64
	Value          GradeValue
	Date           *time.Time // nil: now
	Source         GradeSource
	ExternalID     *string
	OriginalValue  string
}

// BonusParams carries a new bonus. HomeworkID nil means ad-hoc, which
// requires a reason.
type BonusParams struct {
	HomeworkID *int64
	Minutes    int
	Reason     string
}

// Recorder is the write path for grades, bonuses, and homework
// completion.
type Recorder struct {
	store    TxStore
	settings Settings
	now      func() time.Time
}

// NewRecorder builds a recorder over the given store.
func NewRecorder(store TxStore, settings Settings) *Recorder {
	return &Recorder{store: store, settings: settings, now: time.Now}
}

// WithClock overrides the recorder's clock. Tests only.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// =============================================================================
// GRADES
// =============================================================================

// AddGrade records a grade after uniqueness checks on the bonus-task and
// external-id links.
func (r *Recorder) AddGrade(ctx context.Context, p GradeParams) (*Grade, error) {
	if !p.Value.Valid() {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGrade, int(p.Value))
	}
	source := p.Source
	if source == "" {
		source = SourceManual
	}

	var grade *Grade
	err := r.store.WithTx(ctx, func(s Store) error {
		if p.BonusTaskID != nil {
			existing, err := s.GradeByBonusTask(ctx, *p.BonusTaskID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: task %d already graded", ErrDuplicateGrade, *p.BonusTaskID)
			}
		}
		if p.ExternalID != nil {
			existing, err := s.GradeByExternalID(ctx, *p.ExternalID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: external id %q", ErrDuplicateGrade, *p.ExternalID)
			}
		}

		date := r.now()
		if p.Date != nil {
			date = *p.Date
		}
		grade = &Grade{
			SubjectID:      p.SubjectID,
			SubjectTopicID: p.SubjectTopicID,
			BonusTaskID:    p.BonusTaskID,
			HomeworkID:     p.HomeworkID,
			Value:          p.Value,
			Date:           date,
			Source:         source,
			ExternalID:     p.ExternalID,
			OriginalValue:  p.OriginalValue,
		}
		return s.CreateGrade(ctx, grade)
	})
	if err != nil {
		return nil, err
	}
	return grade, nil
}

// ListGrades lists grades through the filter.
func (r *Recorder) ListGrades(ctx context.Context, f GradeFilter) ([]*Grade, error) {
	return r.store.ListGrades(ctx, f)
}

// MarkGradesRewarded flips the consumption flag on the given grades and
// returns how many rows changed.
func (r *Recorder) MarkGradesRewarded(ctx context.Context, ids []int64) (int, error) {
	return r.store.MarkGradesRewarded(ctx, ids)
}

// PendingEscalation lists auto-synced grades at or worse than the
// configured threshold that have not been escalated yet.
func (r *Recorder) PendingEscalation(ctx context.Context) ([]*Grade, error) {
	return r.store.PendingEscalation(ctx, r.settings.EscalationThreshold)
}

// MarkEscalated stamps the given grades as escalated and returns how many
// rows changed.
func (r *Recorder) MarkEscalated(ctx context.Context, ids []int64) (int, error) {
	return r.store.MarkGradesEscalated(ctx, ids, r.now())
}

// =============================================================================
// BONUSES
// =============================================================================

// AddBonus records a bonus. Ad-hoc bonuses need a reason and are rejected
// when an identical reason was recorded inside the dedup window. A
// homework can carry at most one bonus.
func (r *Recorder) AddBonus(ctx context.Context, p BonusParams) (*Bonus, error) {
	reason := strings.TrimSpace(p.Reason)

	var bonus *Bonus
	err := r.store.WithTx(ctx, func(s Store) error {
		if p.HomeworkID == nil {
			if reason == "" {
				return ErrMissingReason
			}
			latest, err := s.LatestAdhocBonusByReason(ctx, reason)
			if err != nil {
				return err
			}
			if latest != nil && r.now().Sub(latest.CreatedAt) < r.settings.BonusDedupWindow {
				return fmt.Errorf("%w: identical reason within %s", ErrDuplicateBonus, r.settings.BonusDedupWindow)
			}
		} else {
			existing, err := s.BonusByHomework(ctx, *p.HomeworkID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: homework %d already has a bonus", ErrDuplicateBonus, *p.HomeworkID)
			}
		}

		bonus = &Bonus{
			HomeworkID: p.HomeworkID,
			Minutes:    p.Minutes,
			Reason:     reason,
		}
		return s.CreateBonus(ctx, bonus)
	})
	if err != nil {
		return nil, err
	}
	return bonus, nil
}

// DeleteBonus removes an unrewarded bonus. A rewarded bonus is immutable
// history and cannot be deleted; a missing bonus reports deleted=false.
func (r *Recorder) DeleteBonus(ctx context.Context, id int64) (bool, error) {
	bonus, err := r.store.BonusByID(ctx, id)
	if err != nil {
		return false, err
	}
	if bonus == nil {
		return false, nil
	}
	if bonus.Rewarded {
		return false, fmt.Errorf("%w: bonus %d", ErrBonusRewarded, id)
	}
	if err := r.store.DeleteBonus(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// ListUnrewardedBonuses lists every bonus awaiting the next calculation.
func (r *Recorder) ListUnrewardedBonuses(ctx context.Context) ([]*Bonus, error) {
	return r.store.ListUnrewardedBonuses(ctx)
}

// MarkAllBonusesRewarded sweeps every unrewarded bonus and returns the
// count.
func (r *Recorder) MarkAllBonusesRewarded(ctx context.Context) (int, error) {
	return r.store.MarkAllBonusesRewarded(ctx)
}
