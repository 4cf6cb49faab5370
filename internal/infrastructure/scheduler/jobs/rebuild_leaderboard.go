// Package jobs contains implementations of scheduled jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotSource generates a fresh leaderboard snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*leaderboard.Snapshot, error)
}

// Locker guards the rebuild across instances.
type Locker interface {
	TryLock(ctx context.Context, name, token string, ttl time.Duration) (func(context.Context) error, error)
}

// RebuildObserver records rebuild outcomes.
type RebuildObserver interface {
	ObserveRankingRebuild(duration time.Duration, err error)
}

// ErrLockHeld is matched against Locker errors meaning another instance is rebuilding.
var ErrLockHeld = errors.New("rebuild lock held elsewhere")

// RebuildLeaderboardJob regenerates rankings from the ledger and publishes
// the standings for readers.
type RebuildLeaderboardJob struct {
	source    SnapshotSource
	publisher leaderboard.Publisher
	locker    Locker
	lockHeld  error
	observer  RebuildObserver
	logger    *slog.Logger
	config    RebuildLeaderboardConfig

	lastRebuildStats atomic.Pointer[RebuildStats]
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration

	// LockTTL bounds how long a crashed instance can hold the rebuild lock.
	LockTTL time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		Timeout: time.Minute,
		LockTTL: 2 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	TotalStudents int
	TopHours      int
	Published     bool
	Skipped       bool
}

// Option configures optional collaborators of the job.
type Option func(*RebuildLeaderboardJob)

// WithPublisher publishes every snapshot, e.g. to Redis.
func WithPublisher(p leaderboard.Publisher) Option {
	return func(j *RebuildLeaderboardJob) { j.publisher = p }
}

// WithLocker skips a run when lockHeld (matched with errors.Is) is returned by TryLock.
func WithLocker(l Locker, lockHeld error) Option {
	return func(j *RebuildLeaderboardJob) {
		j.locker = l
		j.lockHeld = lockHeld
	}
}

// WithObserver records every run.
func WithObserver(o RebuildObserver) Option {
	return func(j *RebuildLeaderboardJob) { j.observer = o }
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(source SnapshotSource, logger *slog.Logger, config RebuildLeaderboardConfig, opts ...Option) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	j := &RebuildLeaderboardJob{
		source:   source,
		logger:   logger.With("job", "rebuild_leaderboard"),
		config:   config,
		lockHeld: ErrLockHeld,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes student totals from the ledger and publishes the leaderboard"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) (err error) {
	stats := &RebuildStats{StartedAt: time.Now()}
	defer func() {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
		j.lastRebuildStats.Store(stats)
		if j.observer != nil && !stats.Skipped {
			j.observer.ObserveRankingRebuild(stats.Duration, err)
		}
	}()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		unlock, err := j.locker.TryLock(ctx, j.Name(), uuid.NewString(), j.config.LockTTL)
		if err != nil {
			if errors.Is(err, j.lockHeld) {
				j.logger.Debug("rebuild skipped, lock held by another instance")
				stats.Skipped = true
				return nil
			}
			return fmt.Errorf("acquire rebuild lock: %w", err)
		}
		defer func() {
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				j.logger.Warn("failed to release rebuild lock", "error", uerr)
			}
		}()
	}

	snapshot, err := j.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("generate rankings: %w", err)
	}
	stats.TotalStudents = snapshot.Count()
	stats.TopHours = snapshot.TopHours()

	if j.publisher != nil {
		if err := j.publisher.PublishSnapshot(ctx, snapshot); err != nil {
			return fmt.Errorf("publish leaderboard: %w", err)
		}
		stats.Published = true
	}

	j.logger.Info("leaderboard rebuilt",
		"total_students", stats.TotalStudents,
		"top_hours", stats.TopHours,
		"published", stats.Published,
	)
	return nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	return j.lastRebuildStats.Load()
}
