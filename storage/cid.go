package storage

import (
	"fmt"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of data.
// The same bytes always produce the same CID.
func ComputeCID(data []byte) (string, error) {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("%w: multihash: %w", ErrStorageRejected, err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// ValidateCID parses s as a CID (v0 or v1).
func ValidateCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %q: %w", ErrInvalidCID, s, err)
	}
	return c, nil
}

// verifyContent checks data against c when c addresses raw bytes.
// DAG-encoded CIDs (e.g. UnixFS v0 CIDs from a daemon) cannot be checked
// without the DAG and are accepted as is.
func verifyContent(c cid.Cid, data []byte) error {
	if c.Type() != cid.Raw {
		return nil
	}
	got, err := c.Prefix().Sum(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContentMismatch, err)
	}
	if !got.Equals(c) {
		return fmt.Errorf("%w: %s", ErrContentMismatch, c)
	}
	return nil
}
