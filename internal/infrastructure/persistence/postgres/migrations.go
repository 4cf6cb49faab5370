package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// migrationLockKey serializes Migrate across instances starting together.
const migrationLockKey = 0x686f757273

type migration struct {
	version int
	name    string
	up      string
}

var migrations = []migration{
	{1, "create_accounts", migration001Up},
	{2, "create_ledger", migration002Up},
	{3, "create_confirmation_requests", migration003Up},
}

// Migrate applies pending migrations in one transaction under an advisory lock.
func Migrate(ctx context.Context, conn *Connection) error {
	return conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockKey); err != nil {
			return fmt.Errorf("migrate: lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`); err != nil {
			return fmt.Errorf("migrate: create schema_migrations: %w", err)
		}

		var current int
		if err := tx.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
			return fmt.Errorf("migrate: read version: %w", err)
		}

		for _, m := range migrations {
			if m.version <= current {
				continue
			}
			if _, err := tx.Exec(ctx, m.up); err != nil {
				return fmt.Errorf("migrate: %03d_%s: %w", m.version, m.name, err)
			}
			if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.version, m.name); err != nil {
				return fmt.Errorf("migrate: record %03d: %w", m.version, err)
			}
		}
		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE ACCOUNTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Usernames are unique across students and staff.
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    username VARCHAR(100) NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    user_type VARCHAR(20) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_user_type CHECK (user_type IN ('student', 'staff'))
);

CREATE TABLE IF NOT EXISTS students (
    user_id UUID PRIMARY KEY REFERENCES users(id),
    name VARCHAR(200) NOT NULL DEFAULT '',
    email VARCHAR(200) NOT NULL DEFAULT '',
    total_hours INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_total_hours CHECK (total_hours >= 0)
);

CREATE INDEX IF NOT EXISTS idx_students_total_hours ON students(total_hours DESC, user_id);

CREATE TABLE IF NOT EXISTS staff (
    user_id UUID PRIMARY KEY REFERENCES users(id),
    name VARCHAR(200) NOT NULL DEFAULT '',
    email VARCHAR(200) NOT NULL DEFAULT ''
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS logged_hours (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(user_id),
    staff_id UUID NOT NULL REFERENCES staff(user_id),
    hours INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    is_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    confirmed_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT positive_hours CHECK (hours > 0),
    CONSTRAINT confirmed_has_timestamp CHECK (is_confirmed = (confirmed_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_logged_hours_student ON logged_hours(student_id, logged_at);
CREATE INDEX IF NOT EXISTS idx_logged_hours_staff ON logged_hours(staff_id, logged_at);
CREATE INDEX IF NOT EXISTS idx_logged_hours_confirmed ON logged_hours(student_id) WHERE is_confirmed;

-- At most one accolade per (student, milestone).
CREATE TABLE IF NOT EXISTS accolades (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students(user_id),
    milestone INTEGER NOT NULL,
    name VARCHAR(100) NOT NULL,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT positive_milestone CHECK (milestone > 0),
    UNIQUE (student_id, milestone)
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE CONFIRMATION REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS confirmation_requests (
    id UUID PRIMARY KEY,
    logged_hours_id UUID NOT NULL REFERENCES logged_hours(id),
    student_id UUID NOT NULL REFERENCES students(user_id),
    requested_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',

    CONSTRAINT valid_request_status CHECK (status IN ('pending', 'approved'))
);

CREATE INDEX IF NOT EXISTS idx_confirmation_requests_entry ON confirmation_requests(logged_hours_id);
CREATE INDEX IF NOT EXISTS idx_confirmation_requests_student ON confirmation_requests(student_id);
`
