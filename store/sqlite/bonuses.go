package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthside/learning-hub/ledger"
)

// =============================================================================
// BONUSES
// =============================================================================

const bonusColumns = `id, homework_id, minutes, reason, rewarded, created_at`

func (s *session) CreateBonus(ctx context.Context, b *ledger.Bonus) error {
	b.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO bonuses (homework_id, minutes, reason, rewarded, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		nullInt64(b.HomeworkID), b.Minutes, b.Reason, b.Rewarded, b.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %v", ledger.ErrDuplicateBonus, err)
		}
		return fmt.Errorf("failed to insert bonus: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

func (s *session) BonusByID(ctx context.Context, id int64) (*ledger.Bonus, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+bonusColumns+` FROM bonuses WHERE id = ?`, id)
	return scanBonus(row)
}

func (s *session) BonusByHomework(ctx context.Context, homeworkID int64) (*ledger.Bonus, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+bonusColumns+` FROM bonuses WHERE homework_id = ?`, homeworkID)
	return scanBonus(row)
}

func (s *session) UpdateBonus(ctx context.Context, b *ledger.Bonus) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE bonuses SET minutes = ?, reason = ?, rewarded = ? WHERE id = ?`,
		b.Minutes, b.Reason, b.Rewarded, b.ID)
	if err != nil {
		return fmt.Errorf("failed to update bonus %d: %w", b.ID, err)
	}
	return nil
}

func (s *session) DeleteBonus(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM bonuses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bonus %d: %w", id, err)
	}
	return nil
}

func (s *session) ListUnrewardedBonuses(ctx context.Context) ([]*ledger.Bonus, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+bonusColumns+` FROM bonuses WHERE rewarded = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Bonus
	for rows.Next() {
		b, err := scanBonusFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *session) LatestAdhocBonusByReason(ctx context.Context, reason string) (*ledger.Bonus, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+bonusColumns+` FROM bonuses
		WHERE homework_id IS NULL AND reason = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`, reason)
	return scanBonus(row)
}

func (s *session) MarkAllBonusesRewarded(ctx context.Context) (int, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE bonuses SET rewarded = 1 WHERE rewarded = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to mark bonuses rewarded: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanBonusFields(sc rowScanner) (*ledger.Bonus, error) {
	var (
		b          ledger.Bonus
		homeworkID sql.NullInt64
	)
	err := sc.Scan(&b.ID, &homeworkID, &b.Minutes, &b.Reason, &b.Rewarded, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.HomeworkID = int64Ptr(homeworkID)
	return &b, nil
}

func scanBonus(row *sql.Row) (*ledger.Bonus, error) {
	b, err := scanBonusFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bonus: %w", err)
	}
	return b, nil
}

// =============================================================================
// BONUS FUND
// =============================================================================

func (s *session) Fund(ctx context.Context) (*ledger.BonusFund, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, available_tasks, created_at, updated_at
		FROM bonus_funds WHERE id = ?`, ledger.FundID)
	var f ledger.BonusFund
	err := row.Scan(&f.ID, &f.Name, &f.AvailableTasks, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fund: %w", err)
	}
	return &f, nil
}

func (s *session) CreateFund(ctx context.Context, f *ledger.BonusFund) error {
	if f.ID == 0 {
		f.ID = ledger.FundID
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO bonus_funds (id, name, available_tasks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.AvailableTasks, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}
	return nil
}

func (s *session) UpdateFund(ctx context.Context, f *ledger.BonusFund) error {
	f.UpdatedAt = time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		UPDATE bonus_funds SET name = ?, available_tasks = ?, updated_at = ? WHERE id = ?`,
		f.Name, f.AvailableTasks, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}
	return nil
}

// =============================================================================
// BONUS TASKS
// =============================================================================

const taskColumns = `id, subject_topic_id, fund_id, task_description, status,
	completed_at, quality_notes, created_at`

func (s *session) CreateTask(ctx context.Context, t *ledger.BonusTask) error {
	t.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO bonus_tasks (subject_topic_id, fund_id, task_description,
			status, completed_at, quality_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.SubjectTopicID, t.FundID, t.TaskDescription, string(t.Status),
		nullTime(t.CompletedAt), t.QualityNotes, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *session) TaskByID(ctx context.Context, id int64) (*ledger.BonusTask, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM bonus_tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (s *session) UpdateTask(ctx context.Context, t *ledger.BonusTask) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE bonus_tasks SET status = ?, completed_at = ?, quality_notes = ?
		WHERE id = ?`,
		string(t.Status), nullTime(t.CompletedAt), t.QualityNotes, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", t.ID, err)
	}
	return nil
}

func (s *session) ListTasks(ctx context.Context, f ledger.TaskFilter) ([]*ledger.BonusTask, error) {
	query := `SELECT ` + taskColumns + ` FROM bonus_tasks WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.SubjectTopicID != 0 {
		query += ` AND subject_topic_id = ?`
		args = append(args, f.SubjectTopicID)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []*ledger.BonusTask
	for rows.Next() {
		t, err := scanTaskFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *session) CountPendingTasks(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bonus_tasks WHERE status = 'pending'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending tasks: %w", err)
	}
	return n, nil
}

func (s *session) OldestPendingTask(ctx context.Context) (*ledger.BonusTask, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM bonus_tasks
		WHERE status = 'pending' ORDER BY created_at, id LIMIT 1`)
	return scanTask(row)
}

func (s *session) LatestTask(ctx context.Context) (*ledger.BonusTask, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM bonus_tasks ORDER BY id DESC LIMIT 1`)
	return scanTask(row)
}

func scanTaskFields(sc rowScanner) (*ledger.BonusTask, error) {
	var (
		t           ledger.BonusTask
		status      string
		completedAt sql.NullTime
	)
	err := sc.Scan(&t.ID, &t.SubjectTopicID, &t.FundID, &t.TaskDescription,
		&status, &completedAt, &t.QualityNotes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = ledger.TaskStatus(status)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

func scanTask(row *sql.Row) (*ledger.BonusTask, error) {
	t, err := scanTaskFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return t, nil
}
