package session

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"minutes/internal/config"
)

// ErrLocked is returned when another minutes process holds the job lock.
var ErrLocked = errors.New("another minutes process is running a job")

// Lock guards the single in-flight job across processes.
type Lock struct {
	path  string
	flock *flock.Flock
}

// AcquireLock takes the job lock without blocking.
func AcquireLock(cfg *config.Config) (*Lock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	path := cfg.LockPath()
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
