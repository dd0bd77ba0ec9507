/*
fund.go - Bonus fund slot allocator

PURPOSE:
  Manages the shared quota of bonus tasks. The fund is a single row whose
  AvailableTasks balance gates task CREATION but is only deducted on task
  COMPLETION: a pending task is a commitment, not a spend.

ADMISSION RULE:
  A new task is admitted when available >= pending + 1. If that fails and
  at least one pending task exists, the allocator preempts the single
  OLDEST pending task (cancels it) and re-checks ONCE. A second shortfall
  is an error carrying the numbers.

BALANCE:
  Because creation never deducts, completing tasks admitted under an
  earlier, larger balance can push AvailableTasks below zero. That is
  accepted; the weekly topup restores it.

SEE ALSO:
  - engine.go: The weekly topup feeding this fund
  - result.go: The compound task-result operation built on the allocator
*/
package ledger

import (
	"context"
	"math/rand"
	"time"
)

// TopUpResult reports a fund top-up.
type TopUpResult struct {
	Added  int `json:"added"`
	Before int `json:"before"`
	After  int `json:"after"`
}

// Allocator manages the bonus fund and its tasks.
type Allocator struct {
	store TxStore
	now   func() time.Time
	rnd   *rand.Rand
}

// NewAllocator builds an allocator over the given store.
func NewAllocator(store TxStore) *Allocator {
	return &Allocator{
		store: store,
		now:   time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock overrides the allocator's clock. Tests only.
func (a *Allocator) WithClock(now func() time.Time) *Allocator {
	a.now = now
	return a
}

// WithRand overrides the allocator's randomness source. Tests only.
func (a *Allocator) WithRand(rnd *rand.Rand) *Allocator {
	a.rnd = rnd
	return a
}

// Fund returns the fund, or ErrFundNotFound when the row is missing.
func (a *Allocator) Fund(ctx context.Context) (*BonusFund, error) {
	fund, err := a.store.Fund(ctx)
	if err != nil {
		return nil, err
	}
	if fund == nil {
		return nil, ErrFundNotFound
	}
	return fund, nil
}

// EnsureFund creates the singleton fund row if it does not exist yet.
func (a *Allocator) EnsureFund(ctx context.Context, name string, initial int) (*BonusFund, error) {
	fund, err := a.store.Fund(ctx)
	if err != nil {
		return nil, err
	}
	if fund != nil {
		return fund, nil
	}
	fund = &BonusFund{ID: FundID, Name: name, AvailableTasks: initial}
	if err := a.store.CreateFund(ctx, fund); err != nil {
		return nil, err
	}
	return fund, nil
}

// =============================================================================
// TASK CREATION - Admission check with one-shot preemption
// =============================================================================

// CreateTask admits a new pending task against the fund. When admission
// fails it preempts the oldest pending task once before giving up. The
// fund balance is NOT deducted here. Returns the new task, the cancelled
// task when preemption happened, and the fund as it stands after
// admission.
func (a *Allocator) CreateTask(ctx context.Context, topicID int64, description string) (*BonusTask, *BonusTask, *BonusFund, error) {
	var task, preempted *BonusTask
	var fund *BonusFund
	err := a.store.WithTx(ctx, func(s Store) error {
		if _, ok, err := s.TopicSubject(ctx, topicID); err != nil {
			return err
		} else if !ok {
			return ErrTopicNotFound
		}

		var err error
		fund, err = s.Fund(ctx)
		if err != nil {
			return err
		}
		if fund == nil {
			return ErrFundNotFound
		}

		pending, err := s.CountPendingTasks(ctx)
		if err != nil {
			return err
		}

		if pending > 0 && fund.AvailableTasks < pending+1 {
			oldest, err := s.OldestPendingTask(ctx)
			if err != nil {
				return err
			}
			if oldest != nil {
				oldest.Status = TaskCancelled
				if err := s.UpdateTask(ctx, oldest); err != nil {
					return err
				}
				preempted = oldest
				pending--
			}
		}

		if fund.AvailableTasks < pending+1 {
			return &FundShortfallError{
				Available: fund.AvailableTasks,
				Pending:   pending,
				Needed:    pending + 1,
			}
		}

		task = &BonusTask{
			SubjectTopicID:  topicID,
			FundID:          fund.ID,
			TaskDescription: description,
			Status:          TaskPending,
		}
		return s.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return task, preempted, fund, nil
}

// =============================================================================
// TASK TRANSITIONS
// =============================================================================

// CompleteTask moves a pending task to completed and deducts exactly one
// slot from the fund. The balance may go negative. Returns the task and
// the fund after deduction.
func (a *Allocator) CompleteTask(ctx context.Context, taskID int64, qualityNotes string) (*BonusTask, *BonusFund, error) {
	var task *BonusTask
	var fund *BonusFund
	err := a.store.WithTx(ctx, func(s Store) error {
		var err error
		task, fund, err = completeTaskTx(ctx, s, taskID, qualityNotes, a.now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return task, fund, nil
}

// completeTaskTx is the shared pending->completed transition: status check,
// one-slot deduction, completion stamp. Runs against the caller's
// transactional store view.
func completeTaskTx(ctx context.Context, s Store, taskID int64, qualityNotes string, completedAt time.Time) (*BonusTask, *BonusFund, error) {
	task, err := s.TaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, ErrTaskNotFound
	}
	if task.Status != TaskPending {
		return nil, nil, &TaskStateError{TaskID: taskID, Status: task.Status, Op: "complete"}
	}

	fund, err := s.Fund(ctx)
	if err != nil {
		return nil, nil, err
	}
	if fund == nil {
		return nil, nil, ErrFundNotFound
	}
	fund.AvailableTasks--
	if err := s.UpdateFund(ctx, fund); err != nil {
		return nil, nil, err
	}

	task.Status = TaskCompleted
	task.CompletedAt = &completedAt
	task.QualityNotes = qualityNotes
	if err := s.UpdateTask(ctx, task); err != nil {
		return nil, nil, err
	}
	return task, fund, nil
}

// CancelTask cancels a pending task. No slot is refunded because none was
// taken. Terminal tasks cannot be cancelled.
func (a *Allocator) CancelTask(ctx context.Context, taskID int64) (*BonusTask, error) {
	var task *BonusTask
	err := a.store.WithTx(ctx, func(s Store) error {
		var err error
		task, err = s.TaskByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if task.Status != TaskPending {
			return &TaskStateError{TaskID: taskID, Status: task.Status, Op: "cancel"}
		}
		task.Status = TaskCancelled
		return s.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// TopUp adds count slots to the fund. Unused slots carry over; nothing
// expires.
func (a *Allocator) TopUp(ctx context.Context, count int) (*TopUpResult, error) {
	var result *TopUpResult
	err := a.store.WithTx(ctx, func(s Store) error {
		fund, err := s.Fund(ctx)
		if err != nil {
			return err
		}
		if fund == nil {
			return ErrFundNotFound
		}
		before := fund.AvailableTasks
		fund.AvailableTasks += count
		if err := s.UpdateFund(ctx, fund); err != nil {
			return err
		}
		result = &TopUpResult{Added: count, Before: before, After: fund.AvailableTasks}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =============================================================================
// TASK QUERIES
// =============================================================================

// Task returns a task by id, or nil when it does not exist.
func (a *Allocator) Task(ctx context.Context, taskID int64) (*BonusTask, error) {
	return a.store.TaskByID(ctx, taskID)
}

// ListTasks lists tasks through the filter.
func (a *Allocator) ListTasks(ctx context.Context, f TaskFilter) ([]*BonusTask, error) {
	return a.store.ListTasks(ctx, f)
}

// LatestTask returns the most recently created task, or nil.
func (a *Allocator) LatestTask(ctx context.Context) (*BonusTask, error) {
	return a.store.LatestTask(ctx)
}

// CheckPendingTask flips a coin: half the time it suggests reusing a
// random pending task, otherwise it suggests creating a fresh one by
// returning nil.
func (a *Allocator) CheckPendingTask(ctx context.Context) (*BonusTask, error) {
	if a.rnd.Intn(2) == 0 {
		return nil, nil
	}
	pending, err := a.store.ListTasks(ctx, TaskFilter{Status: TaskPending})
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[a.rnd.Intn(len(pending))], nil
}
