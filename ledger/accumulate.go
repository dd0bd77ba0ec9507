/*
accumulate.go - Minute accumulators

PURPOSE:
  The two folds at the center of the weekly calculation: unrewarded grades
  over a date range, and unrewarded bonuses. Both are read-only; flipping
  the Rewarded flags is the caller's job so that preview can reuse the
  exact same sums without mutating anything.

RANGE SEMANTICS:
  Grades are selected over [from, to] INCLUSIVE ON BOTH ENDS. Because each
  week's StartAt equals the previous week's EndAt, a grade dated exactly on
  the boundary is visible to both weeks' ranges; the Rewarded flag is what
  keeps it from being paid twice.

  Bonuses are swept with NO date filter at all: every unrewarded bonus is
  folded into whichever calculation runs next.
*/
package ledger

import (
	"context"
	"sort"
	"time"
)

// GradeBreakdown is the per-value slice of a grade accumulation.
type GradeBreakdown struct {
	Value   GradeValue `json:"value"`
	Count   int        `json:"count"`
	Minutes int        `json:"minutes"`
}

type gradeAccum struct {
	Total     int
	Breakdown []GradeBreakdown
	Grades    []*Grade
}

// accumulateGrades folds unrewarded grades dated in [from, to] through the
// configured grade-to-minutes table. Values missing from the table count
// toward the breakdown but contribute zero minutes.
func accumulateGrades(ctx context.Context, s Store, settings Settings, from, to time.Time) (gradeAccum, error) {
	grades, err := s.UnrewardedGradesInRange(ctx, from, to)
	if err != nil {
		return gradeAccum{}, err
	}

	byValue := make(map[GradeValue]*GradeBreakdown)
	total := 0
	for _, g := range grades {
		minutes := settings.MinutesFor(g.Value)
		total += minutes
		b, ok := byValue[g.Value]
		if !ok {
			b = &GradeBreakdown{Value: g.Value}
			byValue[g.Value] = b
		}
		b.Count++
		b.Minutes += minutes
	}

	breakdown := make([]GradeBreakdown, 0, len(byValue))
	for _, b := range byValue {
		breakdown = append(breakdown, *b)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[j].Value.WorseThan(breakdown[i].Value)
	})

	return gradeAccum{Total: total, Breakdown: breakdown, Grades: grades}, nil
}

type bonusAccum struct {
	Total   int
	Bonuses []*Bonus
}

// accumulateBonuses folds every unrewarded bonus, regardless of when it was
// created.
func accumulateBonuses(ctx context.Context, s Store) (bonusAccum, error) {
	bonuses, err := s.ListUnrewardedBonuses(ctx)
	if err != nil {
		return bonusAccum{}, err
	}
	total := 0
	for _, b := range bonuses {
		total += b.Minutes
	}
	return bonusAccum{Total: total, Bonuses: bonuses}, nil
}

func gradeIDs(grades []*Grade) []int64 {
	ids := make([]int64, len(grades))
	for i, g := range grades {
		ids[i] = g.ID
	}
	return ids
}
