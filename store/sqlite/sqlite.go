/*
Package sqlite is the production store: one SQLite database holding the
full ledger and catalog.

PURPOSE:
  Implements ledger.TxStore and catalog.Store using mattn/go-sqlite3. The
  schema is created on open; foreign keys and WAL are switched on through
  the DSN.

STRUCTURE:
  All query methods live on an internal session that runs against either
  the raw *sql.DB or an open *sql.Tx. WithTx opens a transaction, hands a
  session bound to it to the callback, and commits or rolls back the unit
  as a whole. A store-level mutex serializes writers; SQLite only allows
  one at a time anyway.

FILES:
  sqlite.go    - open, schema, transaction plumbing, scan helpers
  weeks.go     - weeks
  grades.go    - grades
  bonuses.go   - bonuses, bonus fund, bonus tasks
  reviews.go   - topic reviews
  homeworks.go - homeworks
  catalog.go   - schools, subjects, topics, members, config, providers

MIGRATION:
  Schema is auto-migrated on New(). For a bigger deployment, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hearthside/learning-hub/ledger"
)

// Store implements ledger.TxStore and catalog.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
	*session
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive and sidesteps
	// SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, session: &session{q: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn inside one SQL transaction. Any error rolls the whole
// unit back.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	view := &session{q: tx}
	if err := fn(view); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS schools (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		code       TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subjects (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		school_id  INTEGER NOT NULL REFERENCES schools(id),
		name       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subject_topics (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id  INTEGER NOT NULL REFERENCES subjects(id),
		description TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS family_members (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL,
		is_admin   INTEGER NOT NULL DEFAULT 0,
		is_student INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS config_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		key         TEXT NOT NULL UNIQUE,
		value       TEXT,
		description TEXT NOT NULL DEFAULT '',
		is_required INTEGER NOT NULL DEFAULT 0,
		updated_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_providers (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		code       TEXT NOT NULL UNIQUE,
		school_id  INTEGER REFERENCES schools(id),
		active     INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weeks (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		week_key               TEXT NOT NULL UNIQUE,
		start_at               TIMESTAMP NOT NULL,
		end_at                 TIMESTAMP NOT NULL,
		grade_minutes          INTEGER NOT NULL DEFAULT 0,
		homework_bonus_minutes INTEGER NOT NULL DEFAULT 0,
		penalty_minutes        INTEGER NOT NULL DEFAULT 0,
		carryover_out_minutes  INTEGER NOT NULL DEFAULT 0,
		actual_played_minutes  INTEGER NOT NULL DEFAULT 0,
		total_minutes          INTEGER NOT NULL DEFAULT 0,
		is_finalized           INTEGER NOT NULL DEFAULT 0,
		created_at             TIMESTAMP NOT NULL,
		updated_at             TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bonus_funds (
		id              INTEGER PRIMARY KEY,
		name            TEXT NOT NULL,
		available_tasks INTEGER NOT NULL DEFAULT 0,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bonus_tasks (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_topic_id INTEGER NOT NULL REFERENCES subject_topics(id),
		fund_id          INTEGER NOT NULL REFERENCES bonus_funds(id),
		task_description TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		completed_at     TIMESTAMP,
		quality_notes    TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS homeworks (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id        INTEGER NOT NULL REFERENCES subjects(id),
		subject_topic_id  INTEGER REFERENCES subject_topics(id),
		book_id           INTEGER,
		description       TEXT NOT NULL,
		status            TEXT NOT NULL DEFAULT 'pending',
		assigned_at       TIMESTAMP NOT NULL,
		deadline_at       TIMESTAMP,
		completed_at      TIMESTAMP,
		recommended_grade INTEGER,
		reminded_d2_at    TIMESTAMP,
		reminded_d1_at    TIMESTAMP,
		external_id       TEXT UNIQUE,
		created_at        TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS grades (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id       INTEGER NOT NULL REFERENCES subjects(id),
		subject_topic_id INTEGER REFERENCES subject_topics(id),
		bonus_task_id    INTEGER UNIQUE REFERENCES bonus_tasks(id),
		homework_id      INTEGER REFERENCES homeworks(id),
		value            INTEGER NOT NULL,
		date             TIMESTAMP NOT NULL,
		rewarded         INTEGER NOT NULL DEFAULT 0,
		escalated_at     TIMESTAMP,
		source           TEXT NOT NULL DEFAULT 'manual',
		external_id      TEXT UNIQUE,
		original_value   TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bonuses (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		homework_id INTEGER UNIQUE REFERENCES homeworks(id),
		minutes     INTEGER NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		rewarded    INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS topic_reviews (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_id       INTEGER NOT NULL REFERENCES subjects(id),
		subject_topic_id INTEGER NOT NULL REFERENCES subject_topics(id),
		grade_id         INTEGER NOT NULL UNIQUE REFERENCES grades(id),
		status           TEXT NOT NULL DEFAULT 'pending',
		repeat_count     INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMP NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	);

	-- Hot paths: weekly accumulation and allocator admission
	CREATE INDEX IF NOT EXISTS idx_grades_rewarded_date ON grades(rewarded, date);
	CREATE INDEX IF NOT EXISTS idx_bonuses_rewarded ON bonuses(rewarded);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON bonus_tasks(status);
	CREATE INDEX IF NOT EXISTS idx_reviews_status_topic ON topic_reviews(status, subject_topic_id);
	CREATE INDEX IF NOT EXISTS idx_homeworks_status ON homeworks(status);
`

// =============================================================================
// SESSION AND SCAN HELPERS
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session carries every query method over one querier.
type session struct {
	q querier
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders builds "?,?,?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// compile-time interface check
var _ ledger.TxStore = (*Store)(nil)
