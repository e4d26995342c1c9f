// Package storage talks to content-addressable blob storage.
//
// A ContentStore accepts opaque bytes and hands back a CID; the same CID later
// returns the same bytes. Backends are the BTFS/IPFS daemon HTTP API, the btfs
// command-line client, and a local file-backed store for offline use.
package storage

import "context"

// ContentStore is an append-only, content-addressed blob store.
// Implementations perform no retries; transient failures surface immediately.
type ContentStore interface {
	// Put stores data and returns its CID once the backend acknowledges ingestion.
	// Calling Put twice stores twice; it is not idempotent from the caller's view.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the exact bytes previously stored under cid.
	// It never returns a zero-length success: every failure is an explicit error.
	Get(ctx context.Context, cid string) ([]byte, error)
}

// MaxContentResponseSize is the maximum allowed response body size for content
// fetches (1 GB). This prevents memory exhaustion from malicious endpoints.
const MaxContentResponseSize = 1 << 30
