package storage

import (
	"context"
	"errors"
	"fmt"
)

// Resolver is a read-through cache in front of a remote ContentStore.
// Get tries the local FileStore first, then Remote, caching remote hits.
type Resolver struct {
	Local  *FileStore   // local cache; nil disables caching
	Remote ContentStore // authoritative store
}

// Compile-time interface check.
var _ ContentStore = (*Resolver)(nil)

// NewResolver creates a Resolver over remote with local as its cache.
func NewResolver(local *FileStore, remote ContentStore) *Resolver {
	return &Resolver{Local: local, Remote: remote}
}

// Put stores data remotely and then caches it locally under the remote CID.
// A cache failure does not fail the Put.
func (r *Resolver) Put(ctx context.Context, data []byte) (string, error) {
	id, err := r.Remote.Put(ctx, data)
	if err != nil {
		return "", err
	}
	if r.Local != nil {
		_ = r.Local.PutWithCID(ctx, id, data) // best-effort cache
	}
	return id, nil
}

// Get returns the bytes for cid from the local cache or the remote store.
func (r *Resolver) Get(ctx context.Context, cidStr string) ([]byte, error) {
	if _, err := ValidateCID(cidStr); err != nil {
		return nil, err
	}

	// 1. Try the local cache.
	if r.Local != nil {
		data, err := r.Local.Get(ctx, cidStr)
		if err == nil {
			return data, nil
		}
		// Only fall through on a miss or a corrupt entry; other errors are real failures.
		if !errors.Is(err, ErrContentNotFound) && !errors.Is(err, ErrContentMismatch) {
			return nil, fmt.Errorf("resolver: local store: %w", err)
		}
	}

	// 2. Fetch remotely and cache.
	data, err := r.Remote.Get(ctx, cidStr)
	if err != nil {
		return nil, err
	}
	if r.Local != nil {
		_ = r.Local.PutWithCID(ctx, cidStr, data) // best-effort cache
	}
	return data, nil
}
