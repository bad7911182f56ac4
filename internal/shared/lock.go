package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock guards resources that only one running application may own,
// such as the CLI socket port and the cache database.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// NewInstanceLock creates a lock backed by the file at path.
func NewInstanceLock(path string) *InstanceLock {
	return &InstanceLock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking.
// Returns [ErrLocked] when another process holds it.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock folder: %w", err)
	}

	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock: %s)", ErrLocked, l.path)
	}
	return nil
}

// Release unlocks the file. Safe to call when the lock is not held.
func (l *InstanceLock) Release() error {
	if !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *InstanceLock) Path() string {
	return l.path
}
