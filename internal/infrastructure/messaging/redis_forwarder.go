package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servicehours/hours-hub/internal/domain/shared"
	"github.com/servicehours/hours-hub/pkg/circuitbreaker"
)

// DefaultChannel is the Redis Pub/Sub channel domain events are mirrored to.
const DefaultChannel = "hourshub:events"

// eventEnvelope is the wire format of a forwarded event.
type eventEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// RedisForwarder mirrors domain events to a Redis Pub/Sub channel.
// Register Handle with EventBus.SubscribeAll. While Redis is unreachable the
// breaker opens and events are dropped instead of waiting on timeouts.
type RedisForwarder struct {
	client     *redis.Client
	channel    string
	instanceID string
	timeout    time.Duration
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewRedisForwarder creates a forwarder. An empty channel selects DefaultChannel.
// Breaker options are applied over a threshold of 3 failures and a 15s cool-down.
func NewRedisForwarder(client *redis.Client, channel, instanceID string, logger *slog.Logger, breakerOpts ...circuitbreaker.Option) *RedisForwarder {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "redis_forwarder")

	opts := append([]circuitbreaker.Option{
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithCooldown(15 * time.Second),
	}, breakerOpts...)
	opts = append(opts, circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
		logger.Warn("event forwarding circuit changed", "from", from.String(), "to", to.String())
	}))

	return &RedisForwarder{
		client:     client,
		channel:    channel,
		instanceID: instanceID,
		timeout:    2 * time.Second,
		breaker:    circuitbreaker.New("redis-events", opts...),
		logger:     logger,
	}
}

// Handle implements shared.EventHandler.
func (f *RedisForwarder) Handle(event shared.Event) error {
	data, err := json.Marshal(eventEnvelope{
		InstanceID:  f.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	err = f.breaker.Execute(ctx, func(ctx context.Context) error {
		return f.client.Publish(ctx, f.channel, data).Err()
	})
	if circuitbreaker.IsRejected(err) {
		f.logger.Debug("event dropped", "event_type", event.EventType(), "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}
