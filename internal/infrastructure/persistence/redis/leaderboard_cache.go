package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/servicehours/hours-hub/internal/domain/leaderboard"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache publishes generated standings using Redis Sorted Sets.
//
// Layout:
//   - Sorted Set "hourshub:leaderboard:rank" stores studentID -> rank
//   - Hash "hourshub:leaderboard:info" stores studentID -> Standing JSON
//   - String "hourshub:leaderboard:meta" stores leaderboard.Meta JSON
//
// The score is the rank rather than the hours, so readers see exactly the
// order produced by the ranking engine, ties included.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

var (
	_ leaderboard.Publisher = (*LeaderboardCache)(nil)
	_ leaderboard.Reader    = (*LeaderboardCache)(nil)
)

const (
	keyLeaderboardRank = PrefixLeaderboard + "rank"
	keyLeaderboardInfo = PrefixLeaderboard + "info"
	keyLeaderboardMeta = PrefixLeaderboard + "meta"
)

// NewLeaderboardCache creates a LeaderboardCache. Published keys expire after ttl;
// zero disables expiry.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// PublishSnapshot atomically replaces the published leaderboard.
func (l *LeaderboardCache) PublishSnapshot(ctx context.Context, snapshot *leaderboard.Snapshot) error {
	if snapshot == nil {
		return errors.New("leaderboard_cache: nil snapshot")
	}

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, keyLeaderboardRank, keyLeaderboardInfo)

	if n := snapshot.Count(); n > 0 {
		members := make([]redis.Z, 0, n)
		info := make(map[string]interface{}, n)
		for _, s := range snapshot.Standings {
			data, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("marshal standing: %w", err)
			}
			members = append(members, redis.Z{Score: float64(s.Rank), Member: s.StudentID})
			info[s.StudentID] = data
		}
		pipe.ZAdd(ctx, keyLeaderboardRank, members...)
		pipe.HSet(ctx, keyLeaderboardInfo, info)
	}

	meta, err := json.Marshal(snapshot.Meta())
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	pipe.Set(ctx, keyLeaderboardMeta, meta, l.ttl)

	if l.ttl > 0 {
		pipe.Expire(ctx, keyLeaderboardRank, l.ttl)
		pipe.Expire(ctx, keyLeaderboardInfo, l.ttl)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTop returns the first count published standings.
func (l *LeaderboardCache) GetTop(ctx context.Context, count int) ([]leaderboard.Standing, error) {
	if count <= 0 {
		return nil, shared.NewDomainError("leaderboard", "GetTop", shared.ErrValidation, "count must be positive")
	}

	ids, err := l.cache.Client().ZRange(ctx, keyLeaderboardRank, 0, int64(count-1)).Result()
	if err != nil {
		return nil, shared.StorageError("leaderboard", "GetTop", err)
	}
	if len(ids) == 0 {
		return []leaderboard.Standing{}, nil
	}

	data, err := l.cache.Client().HMGet(ctx, keyLeaderboardInfo, ids...).Result()
	if err != nil {
		return nil, shared.StorageError("leaderboard", "GetTop", err)
	}

	standings := make([]leaderboard.Standing, 0, len(ids))
	for _, v := range data {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var s leaderboard.Standing
		if err := json.Unmarshal([]byte(str), &s); err != nil {
			continue
		}
		standings = append(standings, s)
	}
	return standings, nil
}

// GetRank returns the published rank of a student.
func (l *LeaderboardCache) GetRank(ctx context.Context, studentID string) (leaderboard.Rank, error) {
	score, err := l.cache.Client().ZScore(ctx, keyLeaderboardRank, studentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, shared.NewDomainError("leaderboard", "GetRank", shared.ErrNotFound, "student is not in the published leaderboard")
		}
		return 0, shared.StorageError("leaderboard", "GetRank", err)
	}
	return leaderboard.Rank(score), nil
}

// GetMeta returns the metadata of the last published leaderboard.
func (l *LeaderboardCache) GetMeta(ctx context.Context) (*leaderboard.Meta, error) {
	data, err := l.cache.Client().Get(ctx, keyLeaderboardMeta).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.WrapError("leaderboard", "GetMeta", shared.ErrNotFound, "no leaderboard has been published", ErrCacheMiss)
		}
		return nil, shared.StorageError("leaderboard", "GetMeta", err)
	}

	var meta leaderboard.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, shared.StorageError("leaderboard", "GetMeta", err)
	}
	return &meta, nil
}
