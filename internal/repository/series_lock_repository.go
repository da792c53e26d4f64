package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const seriesLockPrefix = "class_series:lock:"

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeriesLockRepository serializes extension runs of the same series across processes.
type SeriesLockRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSeriesLockRepository constructs the lock. A nil client disables locking.
func NewSeriesLockRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SeriesLockRepository {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeriesLockRepository{client: client, ttl: ttl, logger: logger}
}

// Acquire tries to take the lock for seriesID. ok is false when another holder owns it.
// The returned release function is always safe to call.
func (r *SeriesLockRepository) Acquire(ctx context.Context, seriesID string) (release func(), ok bool, err error) {
	if r.client == nil {
		return func() {}, true, nil
	}
	key := seriesLockKey(seriesID)
	token := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !acquired {
		return func() {}, false, nil
	}
	release = func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			r.logger.Warn("failed to release series lock", zap.String("series_id", seriesID), zap.Error(err))
		}
	}
	return release, true, nil
}

func seriesLockKey(seriesID string) string {
	return seriesLockPrefix + seriesID
}
