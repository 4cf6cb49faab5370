package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehours/hours-hub/internal/domain/account"
	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type staticSource struct {
	snapshot *leaderboard.Snapshot
	err      error
	calls    int
}

func (s *staticSource) Snapshot(context.Context) (*leaderboard.Snapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

type recordingPublisher struct {
	published []*leaderboard.Snapshot
	err       error
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, s *leaderboard.Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, s)
	return nil
}

type fakeLocker struct {
	err      error
	unlocked bool
	ttl      time.Duration
}

func (l *fakeLocker) TryLock(_ context.Context, _, _ string, ttl time.Duration) (func(context.Context) error, error) {
	l.ttl = ttl
	if l.err != nil {
		return nil, l.err
	}
	return func(context.Context) error {
		l.unlocked = true
		return nil
	}, nil
}

type recordingObserver struct {
	errs []error
}

func (o *recordingObserver) ObserveRankingRebuild(_ time.Duration, err error) {
	o.errs = append(o.errs, err)
}

func sampleSnapshot() *leaderboard.Snapshot {
	students := []*account.Student{
		{Credential: account.Credential{ID: "s-b"}, TotalHours: 12},
		{Credential: account.Credential{ID: "s-a"}, TotalHours: 30},
	}
	return leaderboard.NewSnapshot(leaderboard.NewRanking(students), time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC))
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestRebuildLeaderboardJob_PublishesSnapshot(t *testing.T) {
	source := &staticSource{snapshot: sampleSnapshot()}
	pub := &recordingPublisher{}
	locker := &fakeLocker{}
	obs := &recordingObserver{}

	job := NewRebuildLeaderboardJob(source, nil, DefaultRebuildLeaderboardConfig(),
		WithPublisher(pub), WithLocker(locker, ErrLockHeld), WithObserver(obs))

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "s-a", pub.published[0].Standings[0].StudentID)
	assert.True(t, locker.unlocked)
	assert.Equal(t, 2*time.Minute, locker.ttl)
	assert.Equal(t, []error{nil}, obs.errs)

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 30, stats.TopHours)
	assert.True(t, stats.Published)
	assert.False(t, stats.Skipped)
}

func TestRebuildLeaderboardJob_SkipsWhenLockHeld(t *testing.T) {
	lockHeld := errors.New("held")
	source := &staticSource{snapshot: sampleSnapshot()}
	obs := &recordingObserver{}

	job := NewRebuildLeaderboardJob(source, nil, DefaultRebuildLeaderboardConfig(),
		WithLocker(&fakeLocker{err: lockHeld}, lockHeld), WithObserver(obs))

	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, source.calls)
	assert.Empty(t, obs.errs)
	assert.True(t, job.LastRebuildStats().Skipped)
}

func TestRebuildLeaderboardJob_LockFailure(t *testing.T) {
	source := &staticSource{snapshot: sampleSnapshot()}
	job := NewRebuildLeaderboardJob(source, nil, DefaultRebuildLeaderboardConfig(),
		WithLocker(&fakeLocker{err: errors.New("redis down")}, ErrLockHeld))

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "acquire rebuild lock")
	assert.Zero(t, source.calls)
}

func TestRebuildLeaderboardJob_Errors(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		obs := &recordingObserver{}
		job := NewRebuildLeaderboardJob(&staticSource{err: errors.New("db down")}, nil,
			DefaultRebuildLeaderboardConfig(), WithObserver(obs))

		err := job.Run(context.Background())
		assert.ErrorContains(t, err, "generate rankings")
		require.Len(t, obs.errs, 1)
		assert.Error(t, obs.errs[0])
	})

	t.Run("publish", func(t *testing.T) {
		job := NewRebuildLeaderboardJob(&staticSource{snapshot: sampleSnapshot()}, nil,
			DefaultRebuildLeaderboardConfig(), WithPublisher(&recordingPublisher{err: errors.New("nope")}))

		err := job.Run(context.Background())
		assert.ErrorContains(t, err, "publish leaderboard")
		assert.False(t, job.LastRebuildStats().Published)
	})
}

func TestRebuildLeaderboardJob_WithoutPublisher(t *testing.T) {
	job := NewRebuildLeaderboardJob(&staticSource{snapshot: sampleSnapshot()}, nil, DefaultRebuildLeaderboardConfig())

	require.NoError(t, job.Run(context.Background()))
	assert.False(t, job.LastRebuildStats().Published)
	assert.Equal(t, "rebuild_leaderboard", job.Name())
}
