// Package circuitbreaker stops calls to a failing dependency for a cool-down
// period and then lets a limited number of trial calls through.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down elapses.
	StateOpen
	// StateHalfOpen lets a limited number of trial calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when all half-open trial slots are taken.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config holds breaker settings.
type Config struct {
	Name string

	// FailureThreshold consecutive failures open the circuit (default 5).
	FailureThreshold int

	// SuccessThreshold consecutive half-open successes close it (default 2).
	SuccessThreshold int

	// Cooldown is how long the circuit stays open (default 30s).
	Cooldown time.Duration

	// MaxHalfOpenRequests bounds concurrent trial calls (default 1).
	MaxHalfOpenRequests int

	// OnStateChange is called under the breaker lock; it must not call back into the breaker.
	OnStateChange func(name string, from, to State)

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

// DefaultConfig returns default settings.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Cooldown:            30 * time.Second,
		MaxHalfOpenRequests: 1,
		Now:                 time.Now,
	}
}

// Option modifies a Config.
type Option func(*Config)

func WithFailureThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FailureThreshold = n
		}
	}
}

func WithSuccessThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SuccessThreshold = n
		}
	}
}

func WithCooldown(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Cooldown = d
		}
	}
}

func WithMaxHalfOpenRequests(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxHalfOpenRequests = n
		}
	}
}

func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(c *Config) { c.OnStateChange = fn }
}

// Counts are cumulative call statistics.
type Counts struct {
	Requests             int
	Rejected             int
	TotalFailures        int
	ConsecutiveSuccesses int
	ConsecutiveFailures  int
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	config Config

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	trials   int
}

// New creates a closed breaker.
func New(name string, opts ...Option) *CircuitBreaker {
	config := DefaultConfig(name)
	for _, opt := range opts {
		opt(&config)
	}
	return &CircuitBreaker{config: config}
}

// Execute runs fn unless the circuit rejects the call.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	halfOpen, err := cb.allow()
	if err != nil {
		return err
	}

	err = fn(ctx)
	cb.record(err, halfOpen)
	return err
}

func (cb *CircuitBreaker) allow() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.Cooldown {
		cb.transition(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return false, nil
	case StateHalfOpen:
		if cb.trials >= cb.config.MaxHalfOpenRequests {
			cb.counts.Rejected++
			return false, ErrTooManyRequests
		}
		cb.trials++
		return true, nil
	default:
		cb.counts.Rejected++
		return false, ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.counts.Requests++
	if trial && cb.trials > 0 {
		cb.trials--
	}

	if err != nil {
		cb.counts.TotalFailures++
		cb.counts.ConsecutiveFailures++
		cb.counts.ConsecutiveSuccesses = 0
		if cb.state == StateHalfOpen || cb.counts.ConsecutiveFailures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}
		return
	}

	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0
	if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.transition(StateClosed)
	}
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.counts.ConsecutiveFailures = 0
	cb.counts.ConsecutiveSuccesses = 0
	cb.trials = 0
	if to == StateOpen {
		cb.openedAt = cb.config.Now()
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// State returns the current state without advancing it.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts returns a copy of the statistics.
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// IsRejected reports whether err came from the breaker rather than the call.
func IsRejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}
