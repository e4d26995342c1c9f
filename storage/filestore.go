package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore implements ContentStore using the local filesystem.
// Files are stored at: {baseDir}/{cid[len-2:]}/{cid}
// The last two characters of the CID string shard the directory; the leading
// characters are the multibase/version prefix and would put everything in one shard.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// Compile-time interface check.
var _ ContentStore = (*FileStore)(nil)

// NewFileStore creates a new file-based content store.
// baseDir is typically "~/.cidvault/blobs". The directory is created if it does not exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, ErrInvalidBaseDir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// BaseDir returns the root directory of the store.
func (fs *FileStore) BaseDir() string {
	return fs.baseDir
}

// CIDToPath converts a canonical CID string to its filesystem path.
func CIDToPath(baseDir, c string) string {
	return filepath.Join(baseDir, c[len(c)-2:], c)
}

// canonical parses s and returns the canonical CID string.
func canonical(s string) (string, error) {
	c, err := ValidateCID(s)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// Put stores data under its CIDv1 (raw, sha2-256) and returns that CID.
func (fs *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}
	c, err := ComputeCID(data)
	if err != nil {
		return "", err
	}
	if err := fs.write(ctx, c, data); err != nil {
		return "", err
	}
	return c, nil
}

// PutWithCID stores data under an externally assigned CID, typically one
// issued by a remote daemon. Raw CIDs are verified against data.
func (fs *FileStore) PutWithCID(ctx context.Context, cidStr string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyContent
	}
	c, err := ValidateCID(cidStr)
	if err != nil {
		return err
	}
	if err := verifyContent(c, data); err != nil {
		return err
	}
	return fs.write(ctx, c.String(), data)
}

// write places data at the CID's path via a temp file and rename so that a
// concurrent reader never observes a partial blob.
func (fs *FileStore) write(ctx context.Context, c string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := CIDToPath(fs.baseDir, c)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Get retrieves the bytes stored under cid.
func (fs *FileStore) Get(ctx context.Context, cidStr string) ([]byte, error) {
	c, err := ValidateCID(cidStr)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(CIDToPath(fs.baseDir, c.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentNotFound, c)
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty on disk", ErrInvalidResponse, c)
	}
	if err := verifyContent(c, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Has reports whether content exists for cid.
func (fs *FileStore) Has(cidStr string) (bool, error) {
	c, err := canonical(cidStr)
	if err != nil {
		return false, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := os.Stat(CIDToPath(fs.baseDir, c)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return true, nil
}

// Delete removes content by cid. It models a daemon unpinning and
// garbage-collecting a blob.
func (fs *FileStore) Delete(cidStr string) error {
	c, err := canonical(cidStr)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(CIDToPath(fs.baseDir, c)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrContentNotFound, c)
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Size returns the size in bytes of the content stored under cid.
func (fs *FileStore) Size(cidStr string) (int64, error) {
	c, err := canonical(cidStr)
	if err != nil {
		return 0, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	info, err := os.Stat(CIDToPath(fs.baseDir, c))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrContentNotFound, c)
		}
		return 0, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return info.Size(), nil
}

// List returns every stored CID, sorted, by scanning the shard directories.
func (fs *FileStore) List() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	var result []string
	for _, entry := range entries {
		if !entry.IsDir() || len(entry.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(fs.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			if _, err := ValidateCID(name); err != nil {
				continue // temp files and strays
			}
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}
