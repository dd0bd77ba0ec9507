/*
engine.go - Weekly calculation engine

PURPOSE:
  Turns one academic week into minutes of play. The engine owns the week
  lifecycle: calculate (open the next week and pay out the previous one),
  preview (dry-run the current week), finalize (record actual play and
  derive carryover), and the guarded manual update.

SEQUENCING INVARIANT:
  Weeks form a strict chain. Week N+1 can only be calculated after week N
  is finalized, because the carryover into N+1 is only known once N's
  actual played minutes are recorded. A calculation against an unfinalized
  predecessor does not fail hard; it returns StatusPrevNotFinalized so the
  caller can finalize first and retry.

IDEMPOTENCE:
  Re-running Calculate for an existing week key returns the stored week
  with StatusAlreadyCalculated and performs no writes. Combined with the
  single enclosing transaction this makes the operation safe to retry.

CALCULATION:
  total = carryover(prev) + grade minutes + bonus minutes - penalty

  Grade minutes come from unrewarded grades dated within the PREVIOUS
  week (inclusive range); bonus minutes from ALL unrewarded bonuses. Both
  sources are marked rewarded in the same transaction, then the fund gets
  its weekly topup.

SEE ALSO:
  - accumulate.go: The grade/bonus folds
  - fund.go: The allocator the topup feeds
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// STATUSES AND RESULTS
// =============================================================================

// CalcStatus is the outcome class of a calculation or preview.
type CalcStatus string

const (
	StatusOK                CalcStatus = "ok"
	StatusPrevNotFinalized  CalcStatus = "prev_week_not_finalized"
	StatusAlreadyCalculated CalcStatus = "already_calculated"
	StatusPreview           CalcStatus = "preview"
	StatusNoActiveWeek      CalcStatus = "no_active_week"
)

// CalcResult is the full outcome of Calculate or Preview.
type CalcResult struct {
	Status  CalcStatus `json:"status"`
	Message string     `json:"message,omitempty"`
	Week    *Week      `json:"week,omitempty"`

	CarryoverMinutes int `json:"carryover_minutes"`
	GradeMinutes     int `json:"grade_minutes"`
	BonusMinutes     int `json:"bonus_minutes"`
	PenaltyMinutes   int `json:"penalty_minutes"`
	TotalMinutes     int `json:"total_minutes"`

	GradesProcessed  int `json:"grades_processed"`
	BonusesProcessed int `json:"bonuses_processed"`

	Breakdown []GradeBreakdown `json:"breakdown,omitempty"`

	// FundTopup is the number of slots added to the bonus fund, 0 when the
	// topup was skipped or the fund does not exist.
	FundTopup int `json:"fund_topup"`
}

// UpdateWeekParams carries the optional manual adjustments to an open week.
type UpdateWeekParams struct {
	PenaltyMinutes      *int
	ActualPlayedMinutes *int
	TotalMinutes        *int
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs the weekly ledger. Safe for single-writer use; concurrent
// calculations are serialized by the store transaction.
type Engine struct {
	store    TxStore
	settings Settings
	now      func() time.Time
}

// NewEngine builds an engine over the given store with the given settings.
func NewEngine(store TxStore, settings Settings) *Engine {
	return &Engine{store: store, settings: settings, now: time.Now}
}

// WithClock overrides the engine's clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// =============================================================================
// CALCULATE - Open the next week and pay out the previous one
// =============================================================================

// Calculate runs the weekly calculation for newWeekKey. topupOverride, when
// non-nil, replaces the configured weekly fund topup for this run only.
// The whole operation runs in one transaction.
func (e *Engine) Calculate(ctx context.Context, newWeekKey string, topupOverride *int) (*CalcResult, error) {
	if _, err := ParseWeekKey(newWeekKey); err != nil {
		return nil, err
	}
	prevKey, err := PrevWeekKey(newWeekKey)
	if err != nil {
		return nil, err
	}

	var result *CalcResult
	err = e.store.WithTx(ctx, func(s Store) error {
		prev, err := s.WeekByKey(ctx, prevKey)
		if err != nil {
			return err
		}
		if prev == nil || !prev.IsFinalized {
			result = &CalcResult{
				Status: StatusPrevNotFinalized,
				Message: fmt.Sprintf(
					"previous week %s must be finalized before calculating %s",
					prevKey, newWeekKey),
			}
			return nil
		}

		existing, err := s.WeekByKey(ctx, newWeekKey)
		if err != nil {
			return err
		}
		if existing != nil {
			result = &CalcResult{
				Status:  StatusAlreadyCalculated,
				Message: fmt.Sprintf("week %s was already calculated", newWeekKey),
				Week:    existing,

				CarryoverMinutes: prev.CarryoverOutMinutes,
				GradeMinutes:     existing.GradeMinutes,
				BonusMinutes:     existing.HomeworkBonusMinutes,
				PenaltyMinutes:   existing.PenaltyMinutes,
				TotalMinutes:     existing.TotalMinutes,
			}
			return nil
		}

		carry := prev.CarryoverOutMinutes

		week := &Week{
			WeekKey: newWeekKey,
			StartAt: prev.EndAt,
			EndAt:   prev.EndAt.AddDate(0, 0, 7),
		}
		if err := s.CreateWeek(ctx, week); err != nil {
			return err
		}
		penalty := week.PenaltyMinutes

		grades, err := accumulateGrades(ctx, s, e.settings, prev.StartAt, prev.EndAt)
		if err != nil {
			return err
		}
		bonuses, err := accumulateBonuses(ctx, s)
		if err != nil {
			return err
		}

		total := carry + grades.Total + bonuses.Total - penalty

		week.GradeMinutes = grades.Total
		week.HomeworkBonusMinutes = bonuses.Total
		week.TotalMinutes = total
		if err := s.UpdateWeek(ctx, week); err != nil {
			return err
		}

		if len(grades.Grades) > 0 {
			if _, err := s.MarkGradesRewarded(ctx, gradeIDs(grades.Grades)); err != nil {
				return err
			}
		}
		if len(bonuses.Bonuses) > 0 {
			if _, err := s.MarkAllBonusesRewarded(ctx); err != nil {
				return err
			}
		}

		topup := e.settings.WeeklyTopup
		if topupOverride != nil {
			topup = *topupOverride
		}
		applied := 0
		if topup > 0 {
			fund, err := s.Fund(ctx)
			if err != nil {
				return err
			}
			if fund != nil {
				fund.AvailableTasks += topup
				if err := s.UpdateFund(ctx, fund); err != nil {
					return err
				}
				applied = topup
			}
		}

		result = &CalcResult{
			Status: StatusOK,
			Week:   week,

			CarryoverMinutes: carry,
			GradeMinutes:     grades.Total,
			BonusMinutes:     bonuses.Total,
			PenaltyMinutes:   penalty,
			TotalMinutes:     total,

			GradesProcessed:  len(grades.Grades),
			BonusesProcessed: len(bonuses.Bonuses),
			Breakdown:        grades.Breakdown,
			FundTopup:        applied,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// PREVIEW - Dry-run the current week
// =============================================================================

// Preview computes what the week containing "now" would pay out if it were
// calculated today. No writes.
func (e *Engine) Preview(ctx context.Context) (*CalcResult, error) {
	now := e.now()
	week, err := e.store.WeekContaining(ctx, now)
	if err != nil {
		return nil, err
	}
	if week == nil {
		return &CalcResult{
			Status:  StatusNoActiveWeek,
			Message: "no week covers the current date",
		}, nil
	}

	// Carryover counts only once the previous week is finalized.
	carry := 0
	prevKey, err := PrevWeekKey(week.WeekKey)
	if err != nil {
		return nil, err
	}
	prev, err := e.store.WeekByKey(ctx, prevKey)
	if err != nil {
		return nil, err
	}
	if prev != nil && prev.IsFinalized {
		carry = prev.CarryoverOutMinutes
	}

	grades, err := accumulateGrades(ctx, e.store, e.settings, week.StartAt, week.EndAt)
	if err != nil {
		return nil, err
	}
	bonuses, err := accumulateBonuses(ctx, e.store)
	if err != nil {
		return nil, err
	}

	total := carry + grades.Total + bonuses.Total - week.PenaltyMinutes

	return &CalcResult{
		Status: StatusPreview,
		Week:   week,

		CarryoverMinutes: carry,
		GradeMinutes:     grades.Total,
		BonusMinutes:     bonuses.Total,
		PenaltyMinutes:   week.PenaltyMinutes,
		TotalMinutes:     total,

		GradesProcessed:  len(grades.Grades),
		BonusesProcessed: len(bonuses.Bonuses),
		Breakdown:        grades.Breakdown,
	}, nil
}

// =============================================================================
// WEEK LIFECYCLE - create, get, update, finalize
// =============================================================================

// CreateWeek opens a week manually with an explicit key. StartAt defaults
// to the key's date and EndAt to seven days later.
func (e *Engine) CreateWeek(ctx context.Context, weekKey string) (*Week, error) {
	start, err := ParseWeekKey(weekKey)
	if err != nil {
		return nil, err
	}
	existing, err := e.store.WeekByKey(ctx, weekKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	week := &Week{
		WeekKey: weekKey,
		StartAt: start,
		EndAt:   start.AddDate(0, 0, 7),
	}
	if err := e.store.CreateWeek(ctx, week); err != nil {
		return nil, err
	}
	return week, nil
}

// GetWeek returns the week for the key, or nil when it does not exist.
func (e *Engine) GetWeek(ctx context.Context, weekKey string) (*Week, error) {
	return e.store.WeekByKey(ctx, weekKey)
}

// ListWeeks returns the most recent weeks, newest first.
func (e *Engine) ListWeeks(ctx context.Context, limit int) ([]*Week, error) {
	return e.store.ListWeeks(ctx, limit)
}

// UpdateWeek applies manual adjustments to an open week. On a finalized
// week it returns the unchanged record together with a WeekStateError.
func (e *Engine) UpdateWeek(ctx context.Context, weekKey string, p UpdateWeekParams) (*Week, error) {
	week, err := e.store.WeekByKey(ctx, weekKey)
	if err != nil {
		return nil, err
	}
	if week == nil {
		return nil, nil
	}
	if week.IsFinalized {
		return week, &WeekStateError{WeekKey: weekKey}
	}
	if p.PenaltyMinutes != nil {
		week.PenaltyMinutes = *p.PenaltyMinutes
	}
	if p.ActualPlayedMinutes != nil {
		week.ActualPlayedMinutes = *p.ActualPlayedMinutes
	}
	if p.TotalMinutes != nil {
		week.TotalMinutes = *p.TotalMinutes
	}
	if err := e.store.UpdateWeek(ctx, week); err != nil {
		return nil, err
	}
	return week, nil
}

// Finalize records the actually played minutes and freezes the week.
// carryover_out = total - actual, so unplayed minutes roll forward and
// overplay rolls forward as a debt. Finalizing an already finalized week
// returns it unchanged; the new actual is ignored. A missing week returns
// (nil, nil).
func (e *Engine) Finalize(ctx context.Context, weekKey string, actualPlayed int) (*Week, error) {
	var week *Week
	err := e.store.WithTx(ctx, func(s Store) error {
		var err error
		week, err = s.WeekByKey(ctx, weekKey)
		if err != nil {
			return err
		}
		if week == nil || week.IsFinalized {
			return nil
		}
		week.ActualPlayedMinutes = actualPlayed
		week.CarryoverOutMinutes = week.TotalMinutes - actualPlayed
		week.IsFinalized = true
		return s.UpdateWeek(ctx, week)
	})
	if err != nil {
		return nil, err
	}
	return week, nil
}
