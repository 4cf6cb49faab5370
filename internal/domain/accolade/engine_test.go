package accolade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

type memoryRepo struct {
	items     []*Accolade
	existsErr error
}

func (r *memoryRepo) Create(_ context.Context, a *Accolade) error {
	r.items = append(r.items, a)
	return nil
}

func (r *memoryRepo) Exists(_ context.Context, studentID string, milestone int) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	for _, a := range r.items {
		if a.StudentID == studentID && a.Milestone == milestone {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) ListByStudent(_ context.Context, studentID string) ([]*Accolade, error) {
	var out []*Accolade
	for _, a := range r.items {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func fixedClock() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

func milestonesOf(list []*Accolade) []int {
	out := make([]int, len(list))
	for i, a := range list {
		out[i] = a.Milestone
	}
	return out
}

func TestEngine_CheckAndAward(t *testing.T) {
	tests := []struct {
		name  string
		total int
		want  []int
	}{
		{"below first milestone", 9, nil},
		{"exactly first milestone", 10, []int{10}},
		{"jump over two milestones", 30, []int{10, 25}},
		{"all milestones", 75, []int{10, 25, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepo{}
			engine := NewEngine(DefaultMilestones, fixedClock)

			awarded, err := engine.CheckAndAward(context.Background(), repo, "student-1", tt.total)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), len(awarded))
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, milestonesOf(awarded))
			}
		})
	}
}

func TestEngine_Idempotent(t *testing.T) {
	repo := &memoryRepo{}
	engine := NewEngine(nil, fixedClock)
	ctx := context.Background()

	first, err := engine.CheckAndAward(ctx, repo, "student-1", 26)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	again, err := engine.CheckAndAward(ctx, repo, "student-1", 26)
	require.NoError(t, err)
	assert.Empty(t, again)

	next, err := engine.CheckAndAward(ctx, repo, "student-1", 50)
	require.NoError(t, err)
	assert.Equal(t, []int{50}, milestonesOf(next))
	assert.Len(t, repo.items, 3)

	other, err := engine.CheckAndAward(ctx, repo, "student-2", 10)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestEngine_PropagatesRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewEngine(DefaultMilestones, fixedClock)

	_, err := engine.CheckAndAward(context.Background(), &memoryRepo{existsErr: boom}, "student-1", 10)
	assert.ErrorIs(t, err, boom)
}

func TestNew_UsesLabelAndClock(t *testing.T) {
	a := New("student-1", 25, fixedClock())
	assert.Equal(t, "Silver Service Award", a.Name)
	assert.Equal(t, fixedClock(), a.AwardedAt)
	assert.Equal(t, "40 Hour Award", Label(40))
}

func TestParseMilestones(t *testing.T) {
	m, err := ParseMilestones(" 50, 10,25 ")
	require.NoError(t, err)
	assert.Equal(t, Milestones{10, 25, 50}, m)
	assert.Equal(t, "10,25,50", m.String())
	assert.Equal(t, []int{10, 25}, m.Reached(49))

	for _, raw := range []string{"", "10,10", "0,5", "-1", "ten"} {
		_, err := ParseMilestones(raw)
		assert.True(t, shared.IsValidation(err), "raw=%q", raw)
	}
}
