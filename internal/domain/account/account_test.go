package account

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestNewCredential(t *testing.T) {
	cred, err := NewCredential("  alice ", "secret", UserTypeStudent, now)
	require.NoError(t, err)

	assert.Equal(t, "alice", cred.Username)
	assert.NotEqual(t, "secret", cred.PasswordHash)
	assert.NoError(t, cred.CheckPassword("secret"))
	assert.ErrorIs(t, cred.CheckPassword("wrong"), shared.ErrPasswordMismatch)
}

func TestNewCredential_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		userType UserType
	}{
		{"empty username", " ", "pw", UserTypeStudent},
		{"empty password", "bob", "", UserTypeStaff},
		{"unknown type", "bob", "pw", UserType("admin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCredential(tt.username, tt.password, tt.userType, now)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestNewStudent_RequiresStudentCredential(t *testing.T) {
	cred, err := NewCredential("carol", "pw", UserTypeStaff, now)
	require.NoError(t, err)

	_, err = NewStudent(cred, "Carol", "carol@example.com")
	assert.ErrorIs(t, err, shared.ErrInvalidUserType)

	staff, err := NewStaff(cred, "Carol", "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Carol", staff.Name)
}

func TestStudent_ToMap(t *testing.T) {
	cred, err := NewCredential("dave", "pw", UserTypeStudent, now)
	require.NoError(t, err)
	st, err := NewStudent(cred, " Dave ", "dave@example.com")
	require.NoError(t, err)
	st.TotalHours = 12

	m := st.ToMap()
	assert.Equal(t, st.ID, m["id"])
	assert.Equal(t, "student", m["user_type"])
	assert.Equal(t, "Dave", m["studentName"])
	assert.Equal(t, 12, m["totalHours"])
	assert.NotContains(t, m, "password")
}

func TestStaff_ToMapListsOnlyConfirmed(t *testing.T) {
	cred, err := NewCredential("erin", "pw", UserTypeStaff, now)
	require.NoError(t, err)
	staff, err := NewStaff(cred, "Erin", "")
	require.NoError(t, err)

	confirmed, _ := ledger.NewEntry("s", staff.ID, 2, "", now)
	pending, _ := ledger.NewEntry("s", staff.ID, 3, "", now)
	require.NoError(t, confirmed.Confirm(now))
	staff.LoggedHours = []*ledger.Entry{confirmed, pending}

	list, ok := staff.ToMap()["hoursConfirmed"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, confirmed.ID, list[0]["logID"])
}
