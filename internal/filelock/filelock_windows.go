//go:build windows

package filelock

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

const (
	minBackoff = time.Millisecond
	maxBackoff = 50 * time.Millisecond
)

// lockFile polls with LOCKFILE_FAIL_IMMEDIATELY instead of blocking in
// LockFileEx, which would pin the OS thread for the whole wait.
func lockFile(f *os.File) error {
	const flags = windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY
	backoff := minBackoff
	for {
		err := windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, new(windows.Overlapped))
		if err == nil {
			return nil
		}
		if !errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
			return err
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff) //nolint:mnd // exponential backoff
	}
}

func unlockFile(f *os.File) error {
	return windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, new(windows.Overlapped))
}
