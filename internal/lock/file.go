package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	arkerrors "arkfeed.dev/arkfeed/internal/errors"
)

// FileLocker is an advisory flock on a file, shared by every process on the host
type FileLocker struct {
	path string
}

// NewFileLocker creates a locker on path
func NewFileLocker(path string) *FileLocker {
	return &FileLocker{path: path}
}

// Path returns the lock file path
func (l *FileLocker) Path() string {
	return l.path
}

func (l *FileLocker) TryLock(_ context.Context) (UnlockFunc, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(l.path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is held by another process", arkerrors.ErrJobLocked, l.path)
	}

	return func(context.Context) error {
		return fl.Unlock()
	}, nil
}

func (l *FileLocker) Close() error { return nil }
