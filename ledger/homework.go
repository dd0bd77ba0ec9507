/*
homework.go - Homework completion and reminders

PURPOSE:
  Homework is the main feeder of the bonus ledger: completing an
  assignment on time earns minutes, closing it past the deadline costs
  them. Completion is terminal, so a homework contributes to at most one
  settlement, but its single bonus row is refreshed (rewarded flag reset)
  if completion happens again before a calculation ran.

REMINDERS:
  Two reminder horizons exist, two days and one day before the deadline.
  Each fires at most once per homework, tracked by its own timestamp.
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// HomeworkParams carries a new homework.
type HomeworkParams struct {
	SubjectID      int64
	SubjectTopicID *int64
	BookID         *int64
	Description    string
	AssignedAt     *time.Time // nil: now
	DeadlineAt     *time.Time
	ExternalID     *string
}

// UpdateHomeworkParams carries optional edits to a pending homework.
type UpdateHomeworkParams struct {
	Description *string
	DeadlineAt  *time.Time
}

// ReminderKind distinguishes the two reminder horizons.
type ReminderKind string

const (
	ReminderD1 ReminderKind = "d1" // deadline is tomorrow
	ReminderD2 ReminderKind = "d2" // deadline is in two days
)

// Reminder pairs a homework with the horizon that is due.
type Reminder struct {
	Homework *Homework    `json:"homework"`
	Kind     ReminderKind `json:"kind"`
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// CreateHomework records a new pending homework.
func (r *Recorder) CreateHomework(ctx context.Context, p HomeworkParams) (*Homework, error) {
	assigned := r.now()
	if p.AssignedAt != nil {
		assigned = *p.AssignedAt
	}
	hw := &Homework{
		SubjectID:      p.SubjectID,
		SubjectTopicID: p.SubjectTopicID,
		BookID:         p.BookID,
		Description:    p.Description,
		Status:         HomeworkPending,
		AssignedAt:     assigned,
		DeadlineAt:     p.DeadlineAt,
		ExternalID:     p.ExternalID,
	}
	if err := r.store.CreateHomework(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

// Homework returns a homework by id, or nil.
func (r *Recorder) Homework(ctx context.Context, id int64) (*Homework, error) {
	return r.store.HomeworkByID(ctx, id)
}

// ListHomeworks lists homeworks through the filter.
func (r *Recorder) ListHomeworks(ctx context.Context, f HomeworkFilter) ([]*Homework, error) {
	return r.store.ListHomeworks(ctx, f)
}

// UpdateHomework edits a pending homework. Closed homeworks are immutable.
func (r *Recorder) UpdateHomework(ctx context.Context, id int64, p UpdateHomeworkParams) (*Homework, error) {
	hw, err := r.store.HomeworkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if hw == nil {
		return nil, nil
	}
	if hw.Status.Closed() {
		return hw, fmt.Errorf("homework %d is %s and cannot be updated", id, hw.Status)
	}
	if p.Description != nil {
		hw.Description = *p.Description
	}
	if p.DeadlineAt != nil {
		hw.DeadlineAt = p.DeadlineAt
	}
	if err := r.store.UpdateHomework(ctx, hw); err != nil {
		return nil, err
	}
	return hw, nil
}

// CompleteHomework closes a pending homework. On time it becomes done
// with the on-time bonus; past its deadline it becomes overdue with the
// overdue penalty. The homework's single bonus row is created or
// refreshed with its rewarded flag reset. An already closed homework is
// returned as-is; a missing one returns (nil, nil, nil).
func (r *Recorder) CompleteHomework(ctx context.Context, id int64, recommendedGrade *GradeValue) (*Homework, *Bonus, error) {
	var hw *Homework
	var bonus *Bonus
	err := r.store.WithTx(ctx, func(s Store) error {
		var err error
		hw, err = s.HomeworkByID(ctx, id)
		if err != nil {
			return err
		}
		if hw == nil || hw.Status.Closed() {
			return nil
		}

		now := r.now()
		onTime := hw.DeadlineAt == nil || !now.After(*hw.DeadlineAt)

		hw.CompletedAt = &now
		if recommendedGrade != nil {
			hw.RecommendedGrade = recommendedGrade
		}
		minutes := r.settings.HomeworkBonusOnTime
		reason := fmt.Sprintf("homework %d completed on time", id)
		if onTime {
			hw.Status = HomeworkDone
		} else {
			hw.Status = HomeworkOverdue
			minutes = r.settings.HomeworkPenaltyOverdue
			reason = fmt.Sprintf("homework %d closed overdue", id)
		}
		if err := s.UpdateHomework(ctx, hw); err != nil {
			return err
		}

		bonus, err = s.BonusByHomework(ctx, id)
		if err != nil {
			return err
		}
		if bonus != nil {
			bonus.Minutes = minutes
			bonus.Reason = reason
			bonus.Rewarded = false
			return s.UpdateBonus(ctx, bonus)
		}
		bonus = &Bonus{HomeworkID: &hw.ID, Minutes: minutes, Reason: reason}
		return s.CreateBonus(ctx, bonus)
	})
	if err != nil {
		return nil, nil, err
	}
	return hw, bonus, nil
}

// CloseOverdueHomeworks sweeps every pending homework whose deadline has
// passed through the completion path, closing each as overdue.
func (r *Recorder) CloseOverdueHomeworks(ctx context.Context) ([]*Homework, error) {
	pending, err := r.store.PendingHomeworksWithDeadline(ctx)
	if err != nil {
		return nil, err
	}
	now := r.now()
	var closed []*Homework
	for _, hw := range pending {
		if hw.DeadlineAt == nil || !now.After(*hw.DeadlineAt) {
			continue
		}
		updated, _, err := r.CompleteHomework(ctx, hw.ID, nil)
		if err != nil {
			return closed, err
		}
		closed = append(closed, updated)
	}
	return closed, nil
}

// =============================================================================
// REMINDERS
// =============================================================================

// DueReminders lists the reminders owed right now: pending homeworks whose
// deadline falls tomorrow (d1) or the day after (d2) and which have not
// been reminded at that horizon yet.
func (r *Recorder) DueReminders(ctx context.Context) ([]Reminder, error) {
	pending, err := r.store.PendingHomeworksWithDeadline(ctx)
	if err != nil {
		return nil, err
	}
	today := dateOf(r.now())
	var due []Reminder
	for _, hw := range pending {
		if hw.DeadlineAt == nil {
			continue
		}
		days := int(dateOf(*hw.DeadlineAt).Sub(today).Hours() / 24)
		switch {
		case days == 1 && hw.RemindedD1At == nil:
			due = append(due, Reminder{Homework: hw, Kind: ReminderD1})
		case days == 2 && hw.RemindedD2At == nil:
			due = append(due, Reminder{Homework: hw, Kind: ReminderD2})
		}
	}
	return due, nil
}

// MarkReminded stamps the given homeworks at the given horizon so the
// reminder does not fire again.
func (r *Recorder) MarkReminded(ctx context.Context, kind ReminderKind, ids []int64) (int, error) {
	now := r.now()
	count := 0
	for _, id := range ids {
		hw, err := r.store.HomeworkByID(ctx, id)
		if err != nil {
			return count, err
		}
		if hw == nil {
			continue
		}
		switch kind {
		case ReminderD1:
			if hw.RemindedD1At != nil {
				continue
			}
			hw.RemindedD1At = &now
		case ReminderD2:
			if hw.RemindedD2At != nil {
				continue
			}
			hw.RemindedD2At = &now
		default:
			return count, fmt.Errorf("unknown reminder kind %q", kind)
		}
		if err := r.store.UpdateHomework(ctx, hw); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
