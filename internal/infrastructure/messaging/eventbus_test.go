package messaging

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

type observed struct {
	eventType shared.EventType
	err       error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []observed
}

func (o *recordingObserver) ObserveEventHandled(eventType shared.EventType, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{eventType, err})
}

func syncBus(observer Observer) *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Observer:  observer,
	})
}

func TestEventBus_RoutesByType(t *testing.T) {
	bus := syncBus(nil)
	var confirmed, all []shared.EventType

	require.NoError(t, bus.Subscribe(shared.EventHoursConfirmed, func(e shared.Event) error {
		confirmed = append(confirmed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewHoursLoggedEvent("e-1", "s-1", "f-1", 2)))
	require.NoError(t, bus.Publish(shared.NewHoursConfirmedEvent("e-1", "s-1", "f-1", 2, 2)))

	assert.Equal(t, []shared.EventType{shared.EventHoursConfirmed}, confirmed)
	assert.Equal(t, []shared.EventType{shared.EventHoursLogged, shared.EventHoursConfirmed}, all)
}

func TestEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	obs := &recordingObserver{}
	bus := syncBus(obs)
	boom := errors.New("boom")
	reached := false

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return boom }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("bad handler") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { reached = true; return nil }))

	err := bus.Publish(shared.NewConfirmationRequestedEvent("r-1", "s-1", "e-1"))
	assert.NoError(t, err)
	assert.True(t, reached)

	require.Len(t, obs.calls, 3)
	assert.ErrorIs(t, obs.calls[0].err, boom)
	assert.ErrorIs(t, obs.calls[1].err, ErrHandlerPanic)
	assert.NoError(t, obs.calls[2].err)
}

func TestEventBus_AsyncCloseWaitsForHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})
	var handled atomic.Int32

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewHoursLoggedEvent("e", "s", "f", 1)))
	}
	require.NoError(t, bus.Close())

	assert.EqualValues(t, 5, handled.Load())
	assert.ErrorIs(t, bus.Publish(shared.NewHoursLoggedEvent("e", "s", "f", 1)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestEventBus_RejectsNil(t *testing.T) {
	bus := syncBus(nil)
	assert.Error(t, bus.Subscribe(shared.EventHoursLogged, nil))
	assert.Error(t, bus.Publish(nil))
}

func TestAuditHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewAuditHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, handler(shared.NewAccoladeAwardedEvent("a-1", "s-1", 25, "Silver Service Award")))

	out := buf.String()
	assert.Contains(t, out, "domain event")
	assert.Contains(t, out, "event_type=accolade.awarded")
	assert.Contains(t, out, "aggregate_id=a-1")
	assert.Contains(t, out, "milestone=25")
}
