package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/servicehours/hours-hub/internal/domain/account"
)

func student(id, name string, hours int) *account.Student {
	return &account.Student{
		Credential: account.Credential{ID: id, UserType: account.UserTypeStudent},
		Name:       name,
		TotalHours: hours,
	}
}

func ids(students []*account.Student) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func TestNewRanking_OrdersByHoursThenID(t *testing.T) {
	input := []*account.Student{
		student("c", "Cara", 10),
		student("a", "Ann", 25),
		student("b", "Ben", 10),
		student("d", "Dan", 0),
	}

	r := NewRanking(input)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(r.All()))
	assert.Equal(t, "c", input[0].ID, "input must not be reordered")
	assert.Equal(t, 4, r.Count())
}

func TestRanking_Top(t *testing.T) {
	r := NewRanking([]*account.Student{
		student("a", "", 5),
		student("b", "", 7),
		student("c", "", 1),
	})

	assert.Equal(t, []string{"b", "a"}, ids(r.Top(2)))
	assert.Len(t, r.Top(10), 3)
	assert.Empty(t, r.Top(0))
	assert.Empty(t, r.Top(-3))
	assert.Empty(t, NewRanking(nil).Top(3))
}

func TestRanking_Standings(t *testing.T) {
	r := NewRanking([]*account.Student{student("x", "Xena", 3), student("y", "Yuri", 8)})

	standings := r.Standings()
	assert.Equal(t, []Standing{
		{Rank: 1, StudentID: "y", StudentName: "Yuri", TotalHours: 8},
		{Rank: 2, StudentID: "x", StudentName: "Xena", TotalHours: 3},
	}, standings)
	assert.Equal(t, "#1", standings[0].Rank.String())
}

func TestSnapshot(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSnapshot(NewRanking([]*account.Student{
		student("a", "", 4),
		student("b", "", 9),
	}), at)

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 13, s.TotalHours())
	assert.Equal(t, 9, s.TopHours())
	assert.Equal(t, Rank(2), s.GetRank("a"))
	assert.Equal(t, Rank(0), s.GetRank("missing"))
	assert.Len(t, s.Top(1), 1)
	assert.Equal(t, Meta{GeneratedAt: at, TotalStudents: 2, TotalHours: 13, TopHours: 9}, s.Meta())

	empty := NewSnapshot(nil, at)
	assert.Equal(t, 0, empty.TopHours())
	assert.Empty(t, empty.Top(5))
}
