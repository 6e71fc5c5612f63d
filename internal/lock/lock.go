// Package lock keeps a single sieve process writing to a base directory.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/hpungsan/sieve/internal/errors"
)

// FileName is the lock file inside the base directory.
const FileName = "sieve.lock"

// Lock is an exclusive advisory lock on baseDir/sieve.lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Acquire takes the lock without blocking. It returns a LOCKED error when
// another process holds it.
func Acquire(baseDir string) (*Lock, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	path := filepath.Join(baseDir, FileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.NewLocked(path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.fl.Unlock()
}
