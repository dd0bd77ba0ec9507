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
// GRADES
// =============================================================================

const gradeColumns = `id, subject_id, subject_topic_id, bonus_task_id,
	homework_id, value, date, rewarded, escalated_at, source, external_id,
	original_value, created_at`

func (s *session) CreateGrade(ctx context.Context, g *ledger.Grade) error {
	g.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO grades (subject_id, subject_topic_id, bonus_task_id,
			homework_id, value, date, rewarded, escalated_at, source,
			external_id, original_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.SubjectID, nullInt64(g.SubjectTopicID), nullInt64(g.BonusTaskID),
		nullInt64(g.HomeworkID), int(g.Value), g.Date, g.Rewarded,
		nullTime(g.EscalatedAt), string(g.Source), nullString(g.ExternalID),
		g.OriginalValue, g.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %v", ledger.ErrDuplicateGrade, err)
		}
		return fmt.Errorf("failed to insert grade: %w", err)
	}
	g.ID, err = res.LastInsertId()
	return err
}

func (s *session) GradeByID(ctx context.Context, id int64) (*ledger.Grade, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE id = ?`, id)
	return scanGrade(row)
}

func (s *session) GradeByBonusTask(ctx context.Context, taskID int64) (*ledger.Grade, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE bonus_task_id = ?`, taskID)
	return scanGrade(row)
}

func (s *session) GradeByExternalID(ctx context.Context, externalID string) (*ledger.Grade, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+gradeColumns+` FROM grades WHERE external_id = ?`, externalID)
	return scanGrade(row)
}

func (s *session) ListGrades(ctx context.Context, f ledger.GradeFilter) ([]*ledger.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE 1=1`
	var args []any
	if f.SubjectID != 0 {
		query += ` AND subject_id = ?`
		args = append(args, f.SubjectID)
	}
	if f.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(f.Source))
	}
	if f.Unrewarded {
		query += ` AND rewarded = 0`
	}
	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, *f.From)
	}
	if f.To != nil {
		query += ` AND date <= ?`
		args = append(args, *f.To)
	}
	query += ` ORDER BY date DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryGrades(ctx, query, args...)
}

func (s *session) UnrewardedGradesInRange(ctx context.Context, from, to time.Time) ([]*ledger.Grade, error) {
	// Inclusive on both ends; the rewarded flag prevents double counting
	// on the shared boundary.
	return s.queryGrades(ctx, `
		SELECT `+gradeColumns+` FROM grades
		WHERE rewarded = 0 AND date >= ? AND date <= ?
		ORDER BY id`, from, to)
}

func (s *session) MarkGradesRewarded(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.q.ExecContext(ctx,
		`UPDATE grades SET rewarded = 1 WHERE rewarded = 0 AND id IN (`+placeholders(len(ids))+`)`,
		idArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark grades rewarded: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *session) PendingEscalation(ctx context.Context, threshold ledger.GradeValue) ([]*ledger.Grade, error) {
	return s.queryGrades(ctx, `
		SELECT `+gradeColumns+` FROM grades
		WHERE source = 'auto' AND escalated_at IS NULL AND value >= ?
		ORDER BY id`, int(threshold))
}

func (s *session) MarkGradesEscalated(ctx context.Context, ids []int64, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{at}, idArgs(ids)...)
	res, err := s.q.ExecContext(ctx,
		`UPDATE grades SET escalated_at = ? WHERE escalated_at IS NULL AND id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark grades escalated: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *session) queryGrades(ctx context.Context, query string, args ...any) ([]*ledger.Grade, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Grade
	for rows.Next() {
		g, err := scanGradeFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGradeFields(sc rowScanner) (*ledger.Grade, error) {
	var (
		g           ledger.Grade
		topicID     sql.NullInt64
		taskID      sql.NullInt64
		homeworkID  sql.NullInt64
		value       int
		escalatedAt sql.NullTime
		source      string
		externalID  sql.NullString
	)
	err := sc.Scan(&g.ID, &g.SubjectID, &topicID, &taskID, &homeworkID,
		&value, &g.Date, &g.Rewarded, &escalatedAt, &source, &externalID,
		&g.OriginalValue, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	g.SubjectTopicID = int64Ptr(topicID)
	g.BonusTaskID = int64Ptr(taskID)
	g.HomeworkID = int64Ptr(homeworkID)
	g.Value = ledger.GradeValue(value)
	g.EscalatedAt = timePtr(escalatedAt)
	g.Source = ledger.GradeSource(source)
	g.ExternalID = strPtr(externalID)
	return &g, nil
}

func scanGrade(row *sql.Row) (*ledger.Grade, error) {
	g, err := scanGradeFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan grade: %w", err)
	}
	return g, nil
}
