/*
errors.go - Error types for the ledger

PURPOSE:
  Defines sentinel errors and structured error types for all ledger
  operations. Callers use errors.Is/errors.As to branch; structured types
  carry the numbers the caller needs to explain the failure.

ERROR CATEGORIES:
  1. Not found: missing records where the operation cannot degrade to nil
  2. State violations: illegal lifecycle transitions (finalized week,
     terminal task, rewarded bonus)
  3. Validation: bad input (missing reason, duplicate link, invalid grade)
  4. Capacity: fund shortfall, with the numbers attached

CONVENTION:
  Lookups return (nil, nil) when the record simply does not exist and the
  caller can treat absence as an answer. The sentinels below are for the
  cases where absence (or a bad state) makes the operation itself invalid.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrFundNotFound - the singleton bonus fund row is missing
	ErrFundNotFound = errors.New("bonus fund not found")

	// ErrTaskNotFound - referenced bonus task does not exist
	ErrTaskNotFound = errors.New("bonus task not found")

	// ErrTopicNotFound - referenced subject topic does not exist
	ErrTopicNotFound = errors.New("subject topic not found")

	// ErrWeekFinalized - attempted to mutate a finalized week
	ErrWeekFinalized = errors.New("week is already finalized")

	// ErrBonusRewarded - attempted to delete a bonus already consumed
	ErrBonusRewarded = errors.New("bonus already rewarded")

	// ErrMissingReason - ad-hoc bonus submitted without a reason
	ErrMissingReason = errors.New("reason is required for an ad-hoc bonus")

	// ErrDuplicateBonus - identical ad-hoc reason inside the dedup window,
	// or a second bonus for the same homework
	ErrDuplicateBonus = errors.New("duplicate bonus")

	// ErrDuplicateGrade - a second grade for the same bonus task or the
	// same external id
	ErrDuplicateGrade = errors.New("duplicate grade")

	// ErrDuplicateReview - a second topic review for the same grade
	ErrDuplicateReview = errors.New("topic review already exists for this grade")

	// ErrGradeRetry - grade 4-5 offered where only passing work is accepted
	ErrGradeRetry = errors.New("grade too low: student should retry")

	// ErrInvalidGrade - value outside the 1-5 scale
	ErrInvalidGrade = errors.New("grade value must be between 1 and 5")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FundShortfallError is returned when the fund cannot cover the pending
// tasks plus the one being created, even after preemption.
type FundShortfallError struct {
	Available int
	Pending   int
	Needed    int
}

func (e *FundShortfallError) Error() string {
	return fmt.Sprintf(
		"insufficient fund: available=%d, pending=%d, need at least %d",
		e.Available, e.Pending, e.Needed)
}

// TaskStateError is returned on an illegal bonus-task transition. It keeps
// the actual status so the caller can tell "already completed" from
// "already cancelled".
type TaskStateError struct {
	TaskID int64
	Status TaskStatus
	Op     string
}

func (e *TaskStateError) Error() string {
	return fmt.Sprintf("cannot %s task %d: status is %q", e.Op, e.TaskID, e.Status)
}

// WeekStateError wraps ErrWeekFinalized with the offending week so callers
// can return the unchanged record alongside the error.
type WeekStateError struct {
	WeekKey string
}

func (e *WeekStateError) Error() string {
	return fmt.Sprintf("week %s is already finalized and cannot be updated", e.WeekKey)
}

func (e *WeekStateError) Unwrap() error { return ErrWeekFinalized }

// =============================================================================
// HELPERS
// =============================================================================

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFundNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrTopicNotFound)
}

// IsClientError reports whether err stems from caller input or state that
// the caller can fix, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	if IsNotFound(err) {
		return true
	}
	switch {
	case errors.Is(err, ErrWeekFinalized),
		errors.Is(err, ErrBonusRewarded),
		errors.Is(err, ErrMissingReason),
		errors.Is(err, ErrDuplicateBonus),
		errors.Is(err, ErrDuplicateGrade),
		errors.Is(err, ErrDuplicateReview),
		errors.Is(err, ErrGradeRetry),
		errors.Is(err, ErrInvalidGrade):
		return true
	}
	var shortfall *FundShortfallError
	if errors.As(err, &shortfall) {
		return true
	}
	var state *TaskStateError
	return errors.As(err, &state)
}
