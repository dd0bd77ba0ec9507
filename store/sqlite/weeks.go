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
// WEEKS
// =============================================================================

const weekColumns = `id, week_key, start_at, end_at, grade_minutes,
	homework_bonus_minutes, penalty_minutes, carryover_out_minutes,
	actual_played_minutes, total_minutes, is_finalized, created_at, updated_at`

func (s *session) CreateWeek(ctx context.Context, w *ledger.Week) error {
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO weeks (week_key, start_at, end_at, grade_minutes,
			homework_bonus_minutes, penalty_minutes, carryover_out_minutes,
			actual_played_minutes, total_minutes, is_finalized, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.WeekKey, w.StartAt, w.EndAt, w.GradeMinutes,
		w.HomeworkBonusMinutes, w.PenaltyMinutes, w.CarryoverOutMinutes,
		w.ActualPlayedMinutes, w.TotalMinutes, w.IsFinalized, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("week %s already exists: %w", w.WeekKey, err)
		}
		return fmt.Errorf("failed to insert week: %w", err)
	}
	w.ID, err = res.LastInsertId()
	return err
}

func (s *session) WeekByKey(ctx context.Context, key string) (*ledger.Week, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+weekColumns+` FROM weeks WHERE week_key = ?`, key)
	return scanWeek(row)
}

func (s *session) WeekContaining(ctx context.Context, t time.Time) (*ledger.Week, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+weekColumns+` FROM weeks WHERE start_at <= ? AND ? < end_at`, t, t)
	return scanWeek(row)
}

func (s *session) UpdateWeek(ctx context.Context, w *ledger.Week) error {
	w.UpdatedAt = time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		UPDATE weeks SET grade_minutes = ?, homework_bonus_minutes = ?,
			penalty_minutes = ?, carryover_out_minutes = ?,
			actual_played_minutes = ?, total_minutes = ?, is_finalized = ?,
			updated_at = ?
		WHERE id = ?`,
		w.GradeMinutes, w.HomeworkBonusMinutes, w.PenaltyMinutes,
		w.CarryoverOutMinutes, w.ActualPlayedMinutes, w.TotalMinutes,
		w.IsFinalized, w.UpdatedAt, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update week %d: %w", w.ID, err)
	}
	return nil
}

func (s *session) ListWeeks(ctx context.Context, limit int) ([]*ledger.Week, error) {
	if limit <= 0 {
		limit = 52
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+weekColumns+` FROM weeks ORDER BY start_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Week
	for rows.Next() {
		w, err := scanWeekRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWeekFields(sc rowScanner) (*ledger.Week, error) {
	var w ledger.Week
	err := sc.Scan(&w.ID, &w.WeekKey, &w.StartAt, &w.EndAt, &w.GradeMinutes,
		&w.HomeworkBonusMinutes, &w.PenaltyMinutes, &w.CarryoverOutMinutes,
		&w.ActualPlayedMinutes, &w.TotalMinutes, &w.IsFinalized,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanWeek(row *sql.Row) (*ledger.Week, error) {
	w, err := scanWeekFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan week: %w", err)
	}
	return w, nil
}

func scanWeekRow(rows *sql.Rows) (*ledger.Week, error) {
	w, err := scanWeekFields(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan week: %w", err)
	}
	return w, nil
}
