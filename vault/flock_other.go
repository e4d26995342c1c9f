//go:build !unix && !windows

package vault

import (
	"errors"
	"runtime"
)

var errNoFileLock = errors.New("vault: lock files not supported on " + runtime.GOOS)

// fileLock is unavailable on this platform; only in-process locking works.
type fileLock struct{}

func lockFile(path string) (*fileLock, error) { return nil, errNoFileLock }

func tryLockFile(path string) (*fileLock, error) { return nil, errNoFileLock }

// Unlock is a no-op.
func (l *fileLock) Unlock() {}
