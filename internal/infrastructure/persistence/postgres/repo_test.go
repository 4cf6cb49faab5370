package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NON-UUID IDENTIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// A nil Querier panics if a guarded lookup reaches the database.
func TestRepos_NonUUIDIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	uow := &unitOfWork{}

	_, err := uow.Students().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)
	assert.True(t, shared.IsNotFound(err))

	_, err = uow.Students().LockByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	err = uow.Students().UpdateTotalHours(ctx, "missing", 10)
	assert.ErrorIs(t, err, shared.ErrStudentNotFound)

	_, err = uow.Staff().GetByID(ctx, "teacher-1")
	assert.ErrorIs(t, err, shared.ErrStaffNotFound)

	_, err = uow.Entries().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)

	_, err = uow.Entries().LockByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)

	err = uow.Entries().MarkConfirmed(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)

	_, err = uow.Requests().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrRequestNotFound)

	err = uow.Requests().UpdateStatus(ctx, "missing", confirmation.StatusApproved)
	assert.ErrorIs(t, err, shared.ErrRequestNotFound)
}

func TestRepos_NonUUIDIDMatchesNothing(t *testing.T) {
	ctx := context.Background()
	uow := &unitOfWork{}

	entries, err := uow.Entries().ListByStudent(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = uow.Entries().ListByStaff(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)

	total, err := uow.Entries().SumConfirmed(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, total)

	exists, err := uow.Accolades().Exists(ctx, "missing", 10)
	require.NoError(t, err)
	assert.False(t, exists)

	accolades, err := uow.Accolades().ListByStudent(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, accolades)

	requests, err := uow.Requests().ListByEntry(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, requests)

	requests, err = uow.Requests().ListByStudent(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID("7c9e6679-7425-40de-944b-e07fc1f90ae7"))
	assert.True(t, validID("7C9E6679-7425-40DE-944B-E07FC1F90AE7"))
	assert.False(t, validID(""))
	assert.False(t, validID("missing"))
	assert.False(t, validID("7c9e6679-7425-40de-944b"))
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func TestErrorHelpers(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("postgres: get entry: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, IsUniqueViolation(wrap("23505")))
	assert.False(t, IsUniqueViolation(wrap("22P02")))

	assert.True(t, IsSerializationFailure(wrap("40001")))
	assert.True(t, IsSerializationFailure(wrap("40P01")))
	assert.False(t, IsSerializationFailure(wrap("23505")))
	assert.False(t, IsSerializationFailure(errors.New("boom")))

	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(wrap("22P02")))
}
