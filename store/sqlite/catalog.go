package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthside/learning-hub/catalog"
)

// =============================================================================
// SCHOOLS
// =============================================================================

func (s *session) CreateSchool(ctx context.Context, sc *catalog.School) error {
	sc.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO schools (code, name, active, created_at) VALUES (?, ?, ?, ?)`,
		sc.Code, sc.Name, sc.Active, sc.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("school code %q already exists: %w", sc.Code, err)
		}
		return fmt.Errorf("failed to insert school: %w", err)
	}
	sc.ID, err = res.LastInsertId()
	return err
}

func (s *session) SchoolByCode(ctx context.Context, code string) (*catalog.School, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, code, name, active, created_at FROM schools WHERE code = ?`, code)
	var sc catalog.School
	err := row.Scan(&sc.ID, &sc.Code, &sc.Name, &sc.Active, &sc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan school: %w", err)
	}
	return &sc, nil
}

func (s *session) ListSchools(ctx context.Context, activeOnly bool) ([]*catalog.School, error) {
	query := `SELECT id, code, name, active, created_at FROM schools`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`
	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	var out []*catalog.School
	for rows.Next() {
		var sc catalog.School
		if err := rows.Scan(&sc.ID, &sc.Code, &sc.Name, &sc.Active, &sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		out = append(out, &sc)
	}
	return out, rows.Err()
}

func (s *session) UpdateSchool(ctx context.Context, sc *catalog.School) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE schools SET name = ?, active = ? WHERE id = ?`, sc.Name, sc.Active, sc.ID)
	if err != nil {
		return fmt.Errorf("failed to update school %d: %w", sc.ID, err)
	}
	return nil
}

// =============================================================================
// SUBJECTS AND TOPICS
// =============================================================================

func (s *session) CreateSubject(ctx context.Context, sub *catalog.Subject) error {
	sub.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO subjects (school_id, name, created_at) VALUES (?, ?, ?)`,
		sub.SchoolID, sub.Name, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert subject: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	return err
}

func (s *session) SubjectByID(ctx context.Context, id int64) (*catalog.Subject, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, school_id, name, created_at FROM subjects WHERE id = ?`, id)
	var sub catalog.Subject
	err := row.Scan(&sub.ID, &sub.SchoolID, &sub.Name, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}
	return &sub, nil
}

func (s *session) ListSubjects(ctx context.Context, schoolID int64) ([]*catalog.Subject, error) {
	query := `SELECT id, school_id, name, created_at FROM subjects`
	var args []any
	if schoolID != 0 {
		query += ` WHERE school_id = ?`
		args = append(args, schoolID)
	}
	query += ` ORDER BY id`
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Subject
	for rows.Next() {
		var sub catalog.Subject
		if err := rows.Scan(&sub.ID, &sub.SchoolID, &sub.Name, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		out = append(out, &sub)
	}
	return out, rows.Err()
}

func (s *session) CreateTopic(ctx context.Context, t *catalog.SubjectTopic) error {
	t.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO subject_topics (subject_id, description, created_at) VALUES (?, ?, ?)`,
		t.SubjectID, t.Description, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *session) TopicByID(ctx context.Context, id int64) (*catalog.SubjectTopic, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, subject_id, description, created_at FROM subject_topics WHERE id = ?`, id)
	var t catalog.SubjectTopic
	err := row.Scan(&t.ID, &t.SubjectID, &t.Description, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan topic: %w", err)
	}
	return &t, nil
}

func (s *session) ListTopics(ctx context.Context, subjectID int64) ([]*catalog.SubjectTopic, error) {
	query := `SELECT id, subject_id, description, created_at FROM subject_topics`
	var args []any
	if subjectID != 0 {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY id`
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	var out []*catalog.SubjectTopic
	for rows.Next() {
		var t catalog.SubjectTopic
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// TopicSubject satisfies ledger.TopicStore.
func (s *session) TopicSubject(ctx context.Context, topicID int64) (int64, bool, error) {
	var subjectID int64
	err := s.q.QueryRowContext(ctx,
		`SELECT subject_id FROM subject_topics WHERE id = ?`, topicID).Scan(&subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve topic %d: %w", topicID, err)
	}
	return subjectID, true, nil
}

// =============================================================================
// FAMILY MEMBERS
// =============================================================================

func (s *session) CreateMember(ctx context.Context, m *catalog.FamilyMember) error {
	m.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO family_members (name, role, is_admin, is_student, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, string(m.Role), m.IsAdmin, m.IsStudent, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert family member: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

func (s *session) ListMembers(ctx context.Context) ([]*catalog.FamilyMember, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, name, role, is_admin, is_student, created_at FROM family_members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()

	var out []*catalog.FamilyMember
	for rows.Next() {
		var m catalog.FamilyMember
		var role string
		if err := rows.Scan(&m.ID, &m.Name, &role, &m.IsAdmin, &m.IsStudent, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		m.Role = catalog.MemberRole(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// =============================================================================
// CONFIG ENTRIES
// =============================================================================

func (s *session) SetConfig(ctx context.Context, key string, value *string, description string, required bool) (*catalog.ConfigEntry, error) {
	now := time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO config_entries (key, value, description, is_required, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, nullString(value), description, required, now)
	if err != nil {
		return nil, fmt.Errorf("failed to set config %q: %w", key, err)
	}
	return s.ConfigEntryByKey(ctx, key)
}

func (s *session) ConfigEntryByKey(ctx context.Context, key string) (*catalog.ConfigEntry, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, key, value, description, is_required, updated_at
		FROM config_entries WHERE key = ?`, key)
	var (
		e     catalog.ConfigEntry
		value sql.NullString
	)
	err := row.Scan(&e.ID, &e.Key, &value, &e.Description, &e.IsRequired, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan config entry: %w", err)
	}
	e.Value = strPtr(value)
	return &e, nil
}

func (s *session) ListConfig(ctx context.Context) ([]*catalog.ConfigEntry, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, key, value, description, is_required, updated_at
		FROM config_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	var out []*catalog.ConfigEntry
	for rows.Next() {
		var (
			e     catalog.ConfigEntry
			value sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Key, &value, &e.Description, &e.IsRequired, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan config entry: %w", err)
		}
		e.Value = strPtr(value)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// ConfigValue satisfies ledger.ConfigReader.
func (s *session) ConfigValue(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.ConfigEntryByKey(ctx, key)
	if err != nil {
		return "", false, err
	}
	if entry == nil || entry.Value == nil {
		return "", false, nil
	}
	return *entry.Value, true, nil
}

// =============================================================================
// SYNC PROVIDERS
// =============================================================================

func (s *session) CreateProvider(ctx context.Context, p *catalog.SyncProvider) error {
	p.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO sync_providers (code, school_id, active, created_at)
		VALUES (?, ?, ?, ?)`,
		p.Code, nullInt64(p.SchoolID), p.Active, p.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("provider code %q already exists: %w", p.Code, err)
		}
		return fmt.Errorf("failed to insert provider: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *session) ProviderByCode(ctx context.Context, code string) (*catalog.SyncProvider, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, code, school_id, active, created_at FROM sync_providers WHERE code = ?`, code)
	var (
		p        catalog.SyncProvider
		schoolID sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.Code, &schoolID, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan provider: %w", err)
	}
	p.SchoolID = int64Ptr(schoolID)
	return &p, nil
}

func (s *session) ListProviders(ctx context.Context) ([]*catalog.SyncProvider, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, code, school_id, active, created_at FROM sync_providers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var out []*catalog.SyncProvider
	for rows.Next() {
		var (
			p        catalog.SyncProvider
			schoolID sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Code, &schoolID, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		p.SchoolID = int64Ptr(schoolID)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *session) UpdateProvider(ctx context.Context, p *catalog.SyncProvider) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE sync_providers SET school_id = ?, active = ? WHERE id = ?`,
		nullInt64(p.SchoolID), p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update provider %d: %w", p.ID, err)
	}
	return nil
}

// compile-time interface check
var _ catalog.Store = (*Store)(nil)
