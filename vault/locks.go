package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// walletLocks serializes ledger appends per wallet. Within a process a mutex
// per wallet suffices; with dir set, a lock file per wallet extends the
// exclusion to other processes sharing the directory.
type walletLocks struct {
	dir string

	// onWait, when set, is called before blocking on a lock file held by
	// another process.
	onWait func(path string)

	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

func newWalletLocks(dir string, onWait func(path string)) *walletLocks {
	return &walletLocks{dir: dir, onWait: onWait, locks: make(map[common.Address]*sync.Mutex)}
}

// lock blocks until the caller holds the wallet's append lock and returns
// the function that releases it. The lock file is named by the lowercase hex
// of addr, so it always lands inside dir.
func (l *walletLocks) lock(addr common.Address) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[addr]
	if !ok {
		m = &sync.Mutex{}
		l.locks[addr] = m
	}
	l.mu.Unlock()

	m.Lock()
	if l.dir == "" {
		return m.Unlock, nil
	}

	if err := os.MkdirAll(l.dir, 0700); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("vault: lock dir: %w", err)
	}
	path := filepath.Join(l.dir, strings.ToLower(addr.Hex())+".lock")
	fl, err := tryLockFile(path)
	if err != nil {
		if l.onWait != nil {
			l.onWait(path)
		}
		fl, err = lockFile(path)
	}
	if err != nil {
		m.Unlock()
		return nil, fmt.Errorf("vault: wallet lock: %w", err)
	}
	return func() {
		fl.Unlock()
		m.Unlock()
	}, nil
}
