package confirmation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newEntry(t *testing.T, studentID string) *ledger.Entry {
	t.Helper()
	e, err := ledger.NewEntry(studentID, "staff-1", 3, "", now)
	require.NoError(t, err)
	return e
}

func TestNewRequest(t *testing.T) {
	entry := newEntry(t, "student-1")

	r, err := NewRequest("student-1", entry, now)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, r.EntryID)
	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.IsPending())
}

func TestNewRequest_ForeignEntry(t *testing.T) {
	_, err := NewRequest("student-2", newEntry(t, "student-1"), now)
	assert.ErrorIs(t, err, shared.ErrForeignEntry)
	assert.True(t, shared.IsInvalidState(err))
}

func TestNewRequest_ConfirmedEntry(t *testing.T) {
	entry := newEntry(t, "student-1")
	require.NoError(t, entry.Confirm(now))

	_, err := NewRequest("student-1", entry, now)
	assert.ErrorIs(t, err, shared.ErrEntryNotPending)
}

func TestRequest_Approve(t *testing.T) {
	r, err := NewRequest("student-1", newEntry(t, "student-1"), now)
	require.NoError(t, err)

	require.NoError(t, r.Approve())
	assert.Equal(t, StatusApproved, r.Status)
	assert.True(t, shared.IsInvalidState(r.Approve()))

	m := r.ToMap()
	assert.Equal(t, "approved", m["status"])
	assert.Equal(t, r.EntryID, m["loggedHoursID"])
}
