package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/Concave-Streak/WorkflowEngine/pkg/locks"
)

const lockRetryInterval = 100 * time.Millisecond

// releaseScript deletes the lock key only when it still holds our token, so
// a lock that expired and was re-acquired by someone else is never released
// by the previous holder.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// Locker implements locks.DistributedLocker using Redis SET NX with a TTL.
type Locker struct {
	client *backend.Client
}

// NewLocker creates a Redis-backed distributed locker sharing the given
// client.
func NewLocker(client *backend.Client) *Locker {
	return &Locker{client: client}
}

// Lock polls SET NX until the lock is acquired or the context is done. The
// returned unlock function releases the lock with a token check.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (locks.UnlockFunc, error) {
	lockKey := keyPrefix + "lock:" + key
	token := uuid.New().String()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		if acquired {
			return func(ctx context.Context) error {
				err := l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
				if err != nil {
					return fmt.Errorf("failed to release lock %s: %w", key, err)
				}

				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
