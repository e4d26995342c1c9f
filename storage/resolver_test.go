package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a ContentStore and counts Get calls.
type countingStore struct {
	ContentStore
	gets int
	err  error
}

func (c *countingStore) Get(ctx context.Context, id string) ([]byte, error) {
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	return c.ContentStore.Get(ctx, id)
}

func TestResolver_ReadThrough(t *testing.T) {
	remote := &countingStore{ContentStore: newTestStore(t)}
	local := newTestStore(t)
	r := NewResolver(local, remote)
	ctx := context.Background()

	id, err := remote.Put(ctx, []byte("remote blob"))
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote blob"), got)
	assert.Equal(t, 1, remote.gets)

	// second read is served from the cache
	got, err = r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote blob"), got)
	assert.Equal(t, 1, remote.gets)

	ok, err := local.Has(id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolver_PutCaches(t *testing.T) {
	remote := &countingStore{ContentStore: newTestStore(t)}
	local := newTestStore(t)
	r := NewResolver(local, remote)
	ctx := context.Background()

	id, err := r.Put(ctx, []byte("fresh"))
	require.NoError(t, err)

	_, err = r.Get(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, remote.gets)
}

func TestResolver_RemoteErrorPassesThrough(t *testing.T) {
	remote := &countingStore{ContentStore: newTestStore(t), err: ErrStorageUnavailable}
	r := NewResolver(newTestStore(t), remote)

	_, err := r.Get(context.Background(), mustCID(t, []byte("x")))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestResolver_NotFoundEverywhere(t *testing.T) {
	r := NewResolver(newTestStore(t), newTestStore(t))
	_, err := r.Get(context.Background(), mustCID(t, []byte("missing")))
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestResolver_CorruptCacheFallsThrough(t *testing.T) {
	remote := newTestStore(t)
	local := newTestStore(t)
	r := NewResolver(local, remote)
	ctx := context.Background()

	id, err := remote.Put(ctx, []byte("good"))
	require.NoError(t, err)
	_, err = local.Put(ctx, []byte("good"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(CIDToPath(local.BaseDir(), id), []byte("rot"), 0600))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), got)
}

func TestResolver_NoLocal(t *testing.T) {
	remote := newTestStore(t)
	r := NewResolver(nil, remote)
	ctx := context.Background()

	id, err := r.Put(ctx, []byte("x"))
	require.NoError(t, err)
	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
