// Package lock keeps two runs of the same job from overlapping.
//
// A locker never waits: if another run holds the lock, TryLock returns
// errors.ErrJobLocked and the caller skips its run.
package lock

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"arkfeed.dev/arkfeed/internal/config"
)

// UnlockFunc releases a held lock
type UnlockFunc func(ctx context.Context) error

// Locker acquires the job lock without blocking
type Locker interface {
	// TryLock acquires the lock or returns errors.ErrJobLocked
	TryLock(ctx context.Context) (UnlockFunc, error)
	// Close releases resources held by the backend
	Close() error
}

// FileName is the file lock created inside the git directory
const FileName = "arkfeed.lock"

// New builds the locker configured for a repository
func New(cfg config.Lock, gitDir string) (Locker, error) {
	switch cfg.Backend {
	case config.LockFile, "":
		return NewFileLocker(filepath.Join(gitDir, FileName)), nil
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisLocker(client, cfg.RedisKey, cfg.TTL), nil
	case config.LockNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

// Noop never contends
type Noop struct{}

func (Noop) TryLock(context.Context) (UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}

func (Noop) Close() error { return nil }
