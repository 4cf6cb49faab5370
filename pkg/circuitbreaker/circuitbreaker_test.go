package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func fail(context.Context) error             { return errDown }
func succeed(context.Context) error          { return nil }

func withClock(now func() time.Time) Option {
	return func(c *Config) { c.Now = now }
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var transitions []string
	cb := New("redis",
		WithFailureThreshold(3),
		WithCooldown(10*time.Second),
		withClock(clock.now),
		WithOnStateChange(func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsRejected(err))
	assert.False(t, called)
	assert.Equal(t, 1, cb.Counts().Rejected)

	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("redis",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(time.Second),
		withClock(clock.now),
	)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	require.Equal(t, StateOpen, cb.State())

	clock.advance(time.Second)
	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("redis", WithFailureThreshold(1), WithCooldown(time.Second), withClock(clock.now))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	clock.advance(time.Second)

	require.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := New("redis", WithFailureThreshold(2))
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 2, cb.Counts().TotalFailures)
}

func TestBreaker_HalfOpenLimitsConcurrentCalls(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := New("redis",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithCooldown(time.Second),
		WithMaxHalfOpenRequests(1),
		withClock(clock.now),
	)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	clock.advance(time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := cb.Execute(ctx, succeed)
	assert.ErrorIs(t, err, ErrTooManyRequests)
	assert.True(t, IsRejected(err))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, cb.State())
}
