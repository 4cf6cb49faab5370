package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errConflict = errors.New("conflict")

func fast() Option {
	return WithBackoff(Backoff{Initial: time.Millisecond, Max: time.Millisecond, Multiplier: 1})
}

func isConflict(err error) bool { return errors.Is(err, errConflict) }

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retried []int

	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	}, fast(), WithRetryIf(isConflict), WithOnRetry(func(attempt int, _ error, _ time.Duration) {
		retried = append(retried, attempt)
	}))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errConflict
	}, fast(), WithMaxAttempts(4), WithRetryIf(isConflict))

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 4, calls)
}

func TestDo_DoesNotRetryOtherErrors(t *testing.T) {
	other := errors.New("other")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return other
	}, fast(), WithRetryIf(isConflict))

	assert.Same(t, other, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond, Multiplier: 2}

	assert.Equal(t, 10*time.Millisecond, b.Delay(1))
	assert.Equal(t, 20*time.Millisecond, b.Delay(2))
	assert.Equal(t, 40*time.Millisecond, b.Delay(3))
	assert.Equal(t, 50*time.Millisecond, b.Delay(4))
	assert.Equal(t, 50*time.Millisecond, b.Delay(30))

	b.Jitter = 0.5
	for i := 0; i < 20; i++ {
		d := b.Delay(1)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
	}
}
