package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = ".standin.lock"

// Lock keeps two standin processes from encoding into the same proxy
// directory at once. The pending-file convention already prevents duplicate
// jobs for one clip; the lock prevents two batch runs from interleaving
// their cache maintenance.
type Lock struct {
	path string
	lock *flock.Flock
}

// AcquireLock takes the directory-wide lock, failing when another process
// holds it.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path := filepath.Join(dir, lockFileName)
	fileLock := flock.New(path)
	ok, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another standin process is already working in this proxy directory")
	}
	return &Lock{path: path, lock: fileLock}, nil
}

// Release frees the lock. Safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
