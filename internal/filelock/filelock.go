// Package filelock serializes writers across processes with advisory locks.
// The task store and the fingerprint cache take one before rewriting their
// files.
package filelock

import (
	"fmt"
	"os"
)

const lockFileMode = 0o600

// Lock is a held exclusive lock on a lock file.
type Lock struct {
	f *os.File
}

// Acquire blocks until it holds the exclusive lock on path, creating the
// file if needed. The lock must be released with Release.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock and closes the file. The lock file itself stays
// in place for the next holder.
func (l *Lock) Release() error {
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
