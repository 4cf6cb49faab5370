// Package sqlite implements the record store on an embedded SQLite database.
// Intended for development, single-node deployments and tests.
//
// The pool is pinned to one connection and every transaction starts with
// BEGIN IMMEDIATE, so units of work are fully serialized.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// ErrStoreClosed indicates the store was closed.
var ErrStoreClosed = errors.New("sqlite: store is closed")

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds SQLite store configuration.
type Config struct {
	// Path is the database file path. ":memory:" is accepted.
	Path string

	// BusyTimeout is how long SQLite waits on a locked database file.
	BusyTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Path:        "hourshub.db",
		BusyTimeout: 5 * time.Second,
	}
}

// DSN returns the modernc.org/sqlite connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_txlock=immediate",
		c.Path,
		c.BusyTimeout.Milliseconds(),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store implements store.Store on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ store.Store = (*Store)(nil)

// Open opens the database, applies the schema and returns a ready store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = DefaultConfig().BusyTimeout
	}

	db, err := sql.Open("sqlite", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}

	if err := NewMigrator(db).Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// WithinTx implements store.Store.
func (s *Store) WithinTx(ctx context.Context, fn store.TxFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return shared.StorageError("sqlite", "WithinTx", ErrStoreClosed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.StorageError("sqlite", "BeginTx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &unitOfWork{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return shared.StorageError("sqlite", "WithinTx", err)
	}

	if err := tx.Commit(); err != nil {
		return shared.StorageError("sqlite", "Commit", err)
	}

	return nil
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}
	return s.db.PingContext(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// querier is satisfied by *sql.Tx and *sql.DB.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type unitOfWork struct {
	q querier
}

func (u *unitOfWork) Students() account.StudentRepository { return &studentRepo{q: u.q} }
func (u *unitOfWork) Staff() account.StaffRepository      { return &staffRepo{q: u.q} }
func (u *unitOfWork) Entries() ledger.Repository          { return &entryRepo{q: u.q} }
func (u *unitOfWork) Accolades() accolade.Repository      { return &accoladeRepo{q: u.q} }
func (u *unitOfWork) Requests() confirmation.Repository   { return &requestRepo{q: u.q} }

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// IsUniqueViolation checks if the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsNoRows checks if the error is a "no rows" error.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
