//go:build windows

package vault

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// fileLock is an exclusive lock on a file, held until Unlock.
type fileLock struct {
	f *os.File
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

func lockFlags(block bool) uint32 {
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK)
	if !block {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}
	return flags
}

func lockWith(path string, block bool) (*fileLock, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(windows.Handle(f.Fd()), lockFlags(block), 0, 1, 0, ol); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("LockFileEx %s: %w", path, err)
	}
	return &fileLock{f: f}, nil
}

// lockFile blocks until it holds an exclusive lock on path.
func lockFile(path string) (*fileLock, error) { return lockWith(path, true) }

// tryLockFile takes the lock without blocking, failing if another holder exists.
func tryLockFile(path string) (*fileLock, error) { return lockWith(path, false) }

// Unlock releases the lock. It is safe on a nil lock.
func (l *fileLock) Unlock() {
	if l == nil || l.f == nil {
		return
	}
	_ = windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, 1, 0, new(windows.Overlapped))
	_ = l.f.Close()
	l.f = nil
}
