// Package filelock provides short-lived, scoped advisory file locks shared by
// cooperating processes.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrTimeout is returned when the lock could not be acquired within the wait window.
var ErrTimeout = errors.New("lock acquisition timed out")

const defaultRetryDelay = 10 * time.Millisecond

// Lock is an exclusive lock held on a sidecar lock file.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive lock on path, retrying until wait elapses or ctx
// is done. A fresh handle is opened per call so that goroutines of one process
// exclude each other the same way separate processes do.
func Acquire(ctx context.Context, path string, wait time.Duration) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filelock: ensure dir: %w", err)
	}

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, defaultRetryDelay)
	if err != nil {
		_ = fl.Unlock()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		}
		return nil, fmt.Errorf("filelock: lock %s: %w", path, err)
	}
	if !ok {
		_ = fl.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks the lock and closes its descriptor. The file itself is left
// in place; removing it would let a waiter lock an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("filelock: unlock %s: %w", l.fl.Path(), err)
	}
	return nil
}
