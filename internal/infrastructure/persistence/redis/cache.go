// Package redis publishes the generated leaderboard to Redis for fast reads
// and provides the connection used by the event forwarder.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds connection settings. Zero timeouts use the go-redis defaults.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig targets a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

var (
	// ErrCacheMiss means nothing has been published yet.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection wraps the initial ping failure.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrLockNotAcquired means another instance holds the lock.
	ErrLockNotAcquired = errors.New("cache: lock not acquired")
)

// Key prefixes.
const (
	PrefixLeaderboard = "hourshub:leaderboard:"
	PrefixLock        = "hourshub:lock:"
)

// Cache owns the Redis client shared by the leaderboard publisher,
// the rebuild lock and the event forwarder.
type Cache struct {
	client *redis.Client
}

// NewCache connects and pings; the client is closed if the ping fails.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return &Cache{client: client}, nil
}

// Client returns the underlying client.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping implements the health check Pinger.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// DISTRIBUTED LOCK
// ══════════════════════════════════════════════════════════════════════════════

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock acquires a named lock for ttl. The returned function releases it.
// Returns ErrLockNotAcquired when another instance holds the lock.
func (c *Cache) TryLock(ctx context.Context, name, token string, ttl time.Duration) (func(context.Context) error, error) {
	key := PrefixLock + name

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return func(ctx context.Context) error {
		return unlockScript.Run(ctx, c.client, []string{key}, token).Err()
	}, nil
}
