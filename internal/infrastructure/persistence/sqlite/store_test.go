package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/confirmation"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/internal/domain/store"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	account.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "hours.db")

	st, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedStudent(t *testing.T, st *Store, username string) *account.Student {
	t.Helper()
	cred, err := account.NewCredential(username, "pw", account.UserTypeStudent, now)
	require.NoError(t, err)
	s, err := account.NewStudent(cred, username, username+"@example.com")
	require.NoError(t, err)

	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Students().Create(ctx, s)
	}))
	return s
}

func seedStaff(t *testing.T, st *Store, username string) *account.Staff {
	t.Helper()
	cred, err := account.NewCredential(username, "pw", account.UserTypeStaff, now)
	require.NoError(t, err)
	s, err := account.NewStaff(cred, username, "")
	require.NoError(t, err)

	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Staff().Create(ctx, s)
	}))
	return s
}

func TestStore_AccountsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	student := seedStudent(t, st, "alice")
	staff := seedStaff(t, st, "bob")

	err := st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Students().GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, student.ID, got.ID)
		assert.Equal(t, student.PasswordHash, got.PasswordHash)
		assert.NoError(t, got.CheckPassword("pw"))

		gotStaff, err := tx.Staff().GetByID(ctx, staff.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", gotStaff.Username)

		_, err = tx.Students().GetByID(ctx, staff.ID)
		assert.True(t, shared.IsNotFound(err))
		return nil
	})
	require.NoError(t, err)
}

func TestStore_UsernameUniqueAcrossRoles(t *testing.T) {
	st := openTestStore(t)
	seedStudent(t, st, "carol")

	cred, err := account.NewCredential("carol", "pw", account.UserTypeStaff, now)
	require.NoError(t, err)
	staff, err := account.NewStaff(cred, "Carol", "")
	require.NoError(t, err)

	err = st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.Staff().Create(ctx, staff)
	})
	assert.True(t, shared.IsConflict(err))
}

func TestStore_LedgerAndTotals(t *testing.T) {
	st := openTestStore(t)
	alice := seedStudent(t, st, "alice")
	bob := seedStudent(t, st, "bob")
	staff := seedStaff(t, st, "staff")

	e1, _ := ledger.NewEntry(alice.ID, staff.ID, 4, "library", now)
	e2, _ := ledger.NewEntry(alice.ID, staff.ID, 6, "garden", now.Add(time.Minute))
	e3, _ := ledger.NewEntry(bob.ID, staff.ID, 3, "kitchen", now)

	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, e := range []*ledger.Entry{e1, e2, e3} {
			if err := tx.Entries().Create(ctx, e); err != nil {
				return err
			}
		}
		if err := tx.Entries().MarkConfirmed(ctx, e1.ID, now); err != nil {
			return err
		}
		return tx.Entries().MarkConfirmed(ctx, e3.ID, now)
	}))

	require.NoError(t, st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		sum, err := tx.Entries().SumConfirmed(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, sum)

		totals, err := tx.Entries().ConfirmedTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{alice.ID: 4, bob.ID: 3}, totals)

		list, err := tx.Entries().ListByStudent(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, e1.ID, list[0].ID)
		assert.True(t, list[0].Confirmed)
		require.NotNil(t, list[0].ConfirmedAt)
		assert.True(t, list[0].ConfirmedAt.Equal(now))
		assert.False(t, list[1].Confirmed)

		byStaff, err := tx.Entries().ListByStaff(ctx, staff.ID)
		require.NoError(t, err)
		assert.Len(t, byStaff, 3)

		_, err = tx.Entries().GetByID(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrEntryNotFound)
		return nil
	}))
}

func TestStore_RollbackOnError(t *testing.T) {
	st := openTestStore(t)
	alice := seedStudent(t, st, "alice")
	boom := errors.New("boom")

	err := st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.Students().UpdateTotalHours(ctx, alice.ID, 99); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, shared.IsStorage(err))

	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		got, err := tx.Students().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.TotalHours)
		return nil
	}))
}

func TestStore_DomainErrorsPassThrough(t *testing.T) {
	st := openTestStore(t)

	err := st.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Entries().LockByID(ctx, "missing")
		return err
	})
	assert.ErrorIs(t, err, shared.ErrEntryNotFound)
	assert.False(t, shared.IsStorage(err))
}

func TestStore_AccoladesAndRequests(t *testing.T) {
	st := openTestStore(t)
	alice := seedStudent(t, st, "alice")
	staff := seedStaff(t, st, "staff")
	entry, _ := ledger.NewEntry(alice.ID, staff.ID, 2, "", now)
	req, err := confirmation.NewRequest(alice.ID, entry, now)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.Entries().Create(ctx, entry); err != nil {
			return err
		}
		if err := tx.Requests().Create(ctx, req); err != nil {
			return err
		}
		if err := tx.Accolades().Create(ctx, accolade.New(alice.ID, 25, now)); err != nil {
			return err
		}
		return tx.Accolades().Create(ctx, accolade.New(alice.ID, 10, now))
	}))

	require.NoError(t, st.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		exists, err := tx.Accolades().Exists(ctx, alice.ID, 10)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = tx.Accolades().Exists(ctx, alice.ID, 50)
		require.NoError(t, err)
		assert.False(t, exists)

		list, err := tx.Accolades().ListByStudent(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 10, list[0].Milestone)

		require.NoError(t, tx.Requests().UpdateStatus(ctx, req.ID, confirmation.StatusApproved))
		got, err := tx.Requests().GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, confirmation.StatusApproved, got.Status)

		byEntry, err := tx.Requests().ListByEntry(ctx, entry.ID)
		require.NoError(t, err)
		assert.Len(t, byEntry, 1)

		_, err = tx.Requests().GetByID(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrRequestNotFound)
		return nil
	}))
}

func TestStore_Closed(t *testing.T) {
	st := openTestStore(t)
	require.NoError(t, st.Close())

	err := st.WithinTx(context.Background(), func(context.Context, store.Tx) error { return nil })
	assert.True(t, shared.IsStorage(err))
	assert.ErrorIs(t, st.Ping(context.Background()), ErrStoreClosed)
}
