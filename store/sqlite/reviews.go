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
// TOPIC REVIEWS
// =============================================================================

const reviewColumns = `id, subject_id, subject_topic_id, grade_id, status,
	repeat_count, created_at, updated_at`

func (s *session) CreateReview(ctx context.Context, r *ledger.TopicReview) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO topic_reviews (subject_id, subject_topic_id, grade_id,
			status, repeat_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.SubjectID, r.SubjectTopicID, r.GradeID, string(r.Status),
		r.RepeatCount, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: grade %d", ledger.ErrDuplicateReview, r.GradeID)
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *session) ReviewByID(ctx context.Context, id int64) (*ledger.TopicReview, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM topic_reviews WHERE id = ?`, id)
	return scanReview(row)
}

func (s *session) ReviewByGrade(ctx context.Context, gradeID int64) (*ledger.TopicReview, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM topic_reviews WHERE grade_id = ?`, gradeID)
	return scanReview(row)
}

func (s *session) UpdateReview(ctx context.Context, r *ledger.TopicReview) error {
	r.UpdatedAt = time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		UPDATE topic_reviews SET status = ?, repeat_count = ?, updated_at = ?
		WHERE id = ?`,
		string(r.Status), r.RepeatCount, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update review %d: %w", r.ID, err)
	}
	return nil
}

func (s *session) ListReviews(ctx context.Context, f ledger.ReviewFilter) ([]*ledger.TopicReview, error) {
	query := `SELECT ` + reviewColumns + ` FROM topic_reviews WHERE 1=1`
	var args []any
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.SubjectTopicID != 0 {
		query += ` AND subject_topic_id = ?`
		args = append(args, f.SubjectTopicID)
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return s.queryReviews(ctx, query, args...)
}

// PendingReviewsByPriority joins the triggering grade to order worst grade
// first, then fewest repeats, then newest.
func (s *session) PendingReviewsByPriority(ctx context.Context, limit int) ([]*ledger.TopicReview, error) {
	return s.queryReviews(ctx, `
		SELECT r.id, r.subject_id, r.subject_topic_id, r.grade_id, r.status,
			r.repeat_count, r.created_at, r.updated_at
		FROM topic_reviews r
		JOIN grades g ON g.id = r.grade_id
		WHERE r.status = 'pending'
		ORDER BY g.value DESC, r.repeat_count ASC, r.created_at DESC
		LIMIT ?`, limit)
}

func (s *session) queryReviews(ctx context.Context, query string, args ...any) ([]*ledger.TopicReview, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var out []*ledger.TopicReview
	for rows.Next() {
		r, err := scanReviewFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReviewFields(sc rowScanner) (*ledger.TopicReview, error) {
	var (
		r      ledger.TopicReview
		status string
	)
	err := sc.Scan(&r.ID, &r.SubjectID, &r.SubjectTopicID, &r.GradeID,
		&status, &r.RepeatCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = ledger.ReviewStatus(status)
	return &r, nil
}

func scanReview(row *sql.Row) (*ledger.TopicReview, error) {
	r, err := scanReviewFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return r, nil
}
