package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrMigrationFailed indicates a migration failure.
var ErrMigrationFailed = errors.New("sqlite: migration failed")

// Migration is one versioned schema step. Statements run in order inside one transaction.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// Migrator applies embedded migrations and records them in schema_migrations.
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db, migrations: GetMigrations()}
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("%w: create migrations table: %v", ErrMigrationFailed, err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("%w: query applied migrations: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range mig.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
		return err
	}
	return tx.Commit()
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_accounts",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					username TEXT NOT NULL UNIQUE,
					password_hash TEXT NOT NULL,
					user_type TEXT NOT NULL CHECK (user_type IN ('student', 'staff')),
					created_at TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS students (
					user_id TEXT PRIMARY KEY REFERENCES users(id),
					name TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					total_hours INTEGER NOT NULL DEFAULT 0 CHECK (total_hours >= 0)
				)`,
				`CREATE TABLE IF NOT EXISTS staff (
					user_id TEXT PRIMARY KEY REFERENCES users(id),
					name TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT ''
				)`,
			},
		},
		{
			Version: 2,
			Name:    "create_ledger",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS logged_hours (
					id TEXT PRIMARY KEY,
					student_id TEXT NOT NULL REFERENCES students(user_id),
					staff_id TEXT NOT NULL REFERENCES staff(user_id),
					hours INTEGER NOT NULL CHECK (hours > 0),
					description TEXT NOT NULL DEFAULT '',
					logged_at TEXT NOT NULL,
					is_confirmed INTEGER NOT NULL DEFAULT 0,
					confirmed_at TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_logged_hours_student ON logged_hours(student_id, logged_at)`,
				`CREATE INDEX IF NOT EXISTS idx_logged_hours_staff ON logged_hours(staff_id, logged_at)`,
				`CREATE TABLE IF NOT EXISTS accolades (
					id TEXT PRIMARY KEY,
					student_id TEXT NOT NULL REFERENCES students(user_id),
					milestone INTEGER NOT NULL CHECK (milestone > 0),
					name TEXT NOT NULL,
					awarded_at TEXT NOT NULL,
					UNIQUE (student_id, milestone)
				)`,
			},
		},
		{
			Version: 3,
			Name:    "create_confirmation_requests",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS confirmation_requests (
					id TEXT PRIMARY KEY,
					logged_hours_id TEXT NOT NULL REFERENCES logged_hours(id),
					student_id TEXT NOT NULL REFERENCES students(user_id),
					requested_at TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved'))
				)`,
				`CREATE INDEX IF NOT EXISTS idx_confirmation_requests_entry ON confirmation_requests(logged_hours_id)`,
				`CREATE INDEX IF NOT EXISTS idx_confirmation_requests_student ON confirmation_requests(student_id)`,
			},
		},
	}
}
