// Package lock serializes park attempts on one level across server instances.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Phantawat/car-parking/internal/models"
)

const keyPrefix = "level_lock:"

// pollInterval is how often a waiting Lock retries SetNX.
const pollInterval = 10 * time.Millisecond

// Deletes the key only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out per-level locks. The returned unlock func is safe to call
// once the operation finishes, whatever its outcome.
type Locker interface {
	Lock(ctx context.Context, levelID string) (unlock func(), err error)
}

// Nop never blocks. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// RedisLocker is a Locker backed by SET NX with a TTL and an owner token.
type RedisLocker struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder can
// block a level; wait bounds how long Lock polls before giving up.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger, ttl: ttl, wait: wait}
}

// Lock acquires the level lock. It returns ErrLevelBusy when another holder
// keeps it past the wait. Redis failures are logged and the lock is skipped:
// the conditional spot update still prevents double allocation.
func (l *RedisLocker) Lock(ctx context.Context, levelID string) (func(), error) {
	key := keyPrefix + levelID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, models.Unavailable(ctxErr)
			}
			l.logger.Warn("Level lock unavailable, continuing without it",
				zap.String("level_id", levelID),
				zap.Error(err))
			return func() {}, nil
		}
		if ok {
			return func() { l.unlock(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, models.ErrLevelBusy
		}

		select {
		case <-ctx.Done():
			return nil, models.Unavailable(ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (l *RedisLocker) unlock(key, token string) {
	// the request context may already be done
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("Failed to release level lock",
			zap.String("key", key),
			zap.Error(err))
	}
}
