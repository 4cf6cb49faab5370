// Package handlers contains reusable HTTP pieces: the composite health
// checker and gin middleware.
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("store", handlers.NewPingCheck(st))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports the aggregated health of the service.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// HealthCheckFunc returns nil when the dependency is usable.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is served by /healthz.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPOSITE HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// CompositeHealthChecker runs every registered check concurrently,
// each bounded by its own timeout.
type CompositeHealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheckFunc
	started time.Time
	version string
	timeout time.Duration
}

// NewCompositeHealthChecker creates a checker with a 5s per-check timeout.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:  make(map[string]HealthCheckFunc),
		started: time.Now(),
		version: version,
		timeout: 5 * time.Second,
	}
}

// SetTimeout changes the per-check timeout. Non-positive values are ignored.
func (c *CompositeHealthChecker) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// AddCheck registers or replaces a named check.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs all checks and aggregates the results.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	timeout := c.timeout
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(c.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}
	if len(checks) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, fn := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := runCheck(ctx, fn, timeout)

			mu.Lock()
			status.Checks[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	var failed []string
	for name, r := range status.Checks {
		if !r.Healthy {
			failed = append(failed, name)
		}
	}
	if len(failed) == 0 {
		status.Message = "All checks passed"
		return status
	}

	sort.Strings(failed)
	status.Healthy = false
	status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	return status
}

func runCheck(ctx context.Context, fn HealthCheckFunc, timeout time.Duration) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	result := CheckResult{
		Healthy:  err == nil,
		Message:  "OK",
		Duration: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		result.Message = err.Error()
	}
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDEFINED CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// Pinger is implemented by the record store and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewPingCheck adapts a Pinger to a HealthCheckFunc.
func NewPingCheck(p Pinger) HealthCheckFunc {
	return p.Ping
}
