package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
	"github.com/servicehours/hours-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store implements store.Store on a pgx connection pool.
type Store struct {
	conn    *Connection
	retrier *retry.Retrier
	logger  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a store. Transactions aborted by serialization failures
// or deadlocks are re-run from the start.
func NewStore(conn *Connection, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "postgres_store")

	return &Store{
		conn:   conn,
		logger: logger,
		retrier: retry.DatabaseRetrier(
			retry.WithRetryIf(IsSerializationFailure),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				logger.Warn("retrying transaction", "attempt", attempt, "delay", delay, "error", err)
			}),
		),
	}
}

// WithinTx implements store.Store.
func (s *Store) WithinTx(ctx context.Context, fn store.TxFunc) error {
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
			return fn(ctx, &unitOfWork{q: tx})
		})
	})
	return shared.StorageError("postgres", "WithinTx", err)
}

// Ping implements store.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

type unitOfWork struct {
	q Querier
}

func (u *unitOfWork) Students() account.StudentRepository { return &studentRepo{q: u.q} }
func (u *unitOfWork) Staff() account.StaffRepository      { return &staffRepo{q: u.q} }
func (u *unitOfWork) Entries() ledger.Repository          { return &entryRepo{q: u.q} }
func (u *unitOfWork) Accolades() accolade.Repository      { return &accoladeRepo{q: u.q} }
func (u *unitOfWork) Requests() confirmation.Repository   { return &requestRepo{q: u.q} }
