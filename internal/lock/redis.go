package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

// unlockScript deletes the key only while it still holds our token
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker shares the job lock between hosts through SET NX PX.
// The TTL bounds how long a crashed holder blocks other runs.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a locker on key
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context) (UnlockFunc, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		holder, err := l.client.Get(ctx, l.key).Result()
		return nil, lockedError(l.key, holder, err)
	}

	return func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("redis error releasing lock: %w", err)
		}
		return nil
	}, nil
}

// lockedError names the holder's token when it could be read. The key may
// also have expired between SETNX and GET, which yields redis.Nil.
func lockedError(key, holder string, getErr error) error {
	if getErr != nil || holder == "" {
		return fmt.Errorf("%w: redis key %s is held by another run", arkerrors.ErrJobLocked, key)
	}
	return fmt.Errorf("%w: redis key %s is held by %s", arkerrors.ErrJobLocked, key, holder)
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
