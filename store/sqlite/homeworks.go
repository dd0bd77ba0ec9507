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
// HOMEWORKS
// =============================================================================

const homeworkColumns = `id, subject_id, subject_topic_id, book_id,
	description, status, assigned_at, deadline_at, completed_at,
	recommended_grade, reminded_d2_at, reminded_d1_at, external_id, created_at`

func (s *session) CreateHomework(ctx context.Context, h *ledger.Homework) error {
	h.CreatedAt = time.Now().UTC()
	var grade sql.NullInt64
	if h.RecommendedGrade != nil {
		grade = sql.NullInt64{Int64: int64(*h.RecommendedGrade), Valid: true}
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO homeworks (subject_id, subject_topic_id, book_id,
			description, status, assigned_at, deadline_at, completed_at,
			recommended_grade, reminded_d2_at, reminded_d1_at, external_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.SubjectID, nullInt64(h.SubjectTopicID), nullInt64(h.BookID),
		h.Description, string(h.Status), h.AssignedAt, nullTime(h.DeadlineAt),
		nullTime(h.CompletedAt), grade, nullTime(h.RemindedD2At),
		nullTime(h.RemindedD1At), nullString(h.ExternalID), h.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("homework with the same external id exists: %w", err)
		}
		return fmt.Errorf("failed to insert homework: %w", err)
	}
	h.ID, err = res.LastInsertId()
	return err
}

func (s *session) HomeworkByID(ctx context.Context, id int64) (*ledger.Homework, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+homeworkColumns+` FROM homeworks WHERE id = ?`, id)
	return scanHomework(row)
}

func (s *session) HomeworkByExternalID(ctx context.Context, externalID string) (*ledger.Homework, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+homeworkColumns+` FROM homeworks WHERE external_id = ?`, externalID)
	return scanHomework(row)
}

func (s *session) UpdateHomework(ctx context.Context, h *ledger.Homework) error {
	var grade sql.NullInt64
	if h.RecommendedGrade != nil {
		grade = sql.NullInt64{Int64: int64(*h.RecommendedGrade), Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
		UPDATE homeworks SET description = ?, status = ?, deadline_at = ?,
			completed_at = ?, recommended_grade = ?, reminded_d2_at = ?,
			reminded_d1_at = ?
		WHERE id = ?`,
		h.Description, string(h.Status), nullTime(h.DeadlineAt),
		nullTime(h.CompletedAt), grade, nullTime(h.RemindedD2At),
		nullTime(h.RemindedD1At), h.ID)
	if err != nil {
		return fmt.Errorf("failed to update homework %d: %w", h.ID, err)
	}
	return nil
}

func (s *session) ListHomeworks(ctx context.Context, f ledger.HomeworkFilter) ([]*ledger.Homework, error) {
	query := `SELECT ` + homeworkColumns + ` FROM homeworks WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.SubjectID != 0 {
		query += ` AND subject_id = ?`
		args = append(args, f.SubjectID)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryHomeworks(ctx, query, args...)
}

func (s *session) PendingHomeworksWithDeadline(ctx context.Context) ([]*ledger.Homework, error) {
	return s.queryHomeworks(ctx, `
		SELECT `+homeworkColumns+` FROM homeworks
		WHERE status = 'pending' AND deadline_at IS NOT NULL
		ORDER BY deadline_at`)
}

func (s *session) queryHomeworks(ctx context.Context, query string, args ...any) ([]*ledger.Homework, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query homeworks: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Homework
	for rows.Next() {
		h, err := scanHomeworkFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan homework: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHomeworkFields(sc rowScanner) (*ledger.Homework, error) {
	var (
		h           ledger.Homework
		topicID     sql.NullInt64
		bookID      sql.NullInt64
		status      string
		deadlineAt  sql.NullTime
		completedAt sql.NullTime
		grade       sql.NullInt64
		d2At, d1At  sql.NullTime
		externalID  sql.NullString
	)
	err := sc.Scan(&h.ID, &h.SubjectID, &topicID, &bookID, &h.Description,
		&status, &h.AssignedAt, &deadlineAt, &completedAt, &grade,
		&d2At, &d1At, &externalID, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	h.SubjectTopicID = int64Ptr(topicID)
	h.BookID = int64Ptr(bookID)
	h.Status = ledger.HomeworkStatus(status)
	h.DeadlineAt = timePtr(deadlineAt)
	h.CompletedAt = timePtr(completedAt)
	if grade.Valid {
		g := ledger.GradeValue(grade.Int64)
		h.RecommendedGrade = &g
	}
	h.RemindedD2At = timePtr(d2At)
	h.RemindedD1At = timePtr(d1At)
	h.ExternalID = strPtr(externalID)
	return &h, nil
}

func scanHomework(row *sql.Row) (*ledger.Homework, error) {
	h, err := scanHomeworkFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan homework: %w", err)
	}
	return h, nil
}
