package storage

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a ContentStore wraps exactly one of these.
var (
	// ErrStorageUnavailable indicates a transport or process failure talking to storage.
	ErrStorageUnavailable = errors.New("storage: unavailable")

	// ErrStorageRejected indicates the backend reported a logical error (quota, malformed input).
	ErrStorageRejected = errors.New("storage: rejected")

	// ErrContentNotFound indicates the CID is unknown, unpinned or pruned.
	ErrContentNotFound = errors.New("storage: content not found")
)

var (
	// ErrInvalidCID indicates a CID string that does not parse.
	ErrInvalidCID = fmt.Errorf("%w: invalid CID", ErrStorageRejected)

	// ErrEmptyContent indicates an attempt to store empty content.
	ErrEmptyContent = fmt.Errorf("%w: content is empty", ErrStorageRejected)

	// ErrContentTooLarge indicates a response body over MaxContentResponseSize.
	ErrContentTooLarge = fmt.Errorf("%w: content exceeds maximum size", ErrStorageRejected)

	// ErrInvalidResponse indicates the backend returned a malformed or empty response.
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrStorageUnavailable)

	// ErrIOFailure indicates a local file read/write error.
	ErrIOFailure = fmt.Errorf("%w: I/O failure", ErrStorageUnavailable)

	// ErrContentMismatch indicates stored bytes no longer hash to their CID.
	ErrContentMismatch = fmt.Errorf("%w: content does not match CID", ErrStorageUnavailable)
)

var (
	// ErrInvalidBaseDir indicates the base directory path is invalid.
	ErrInvalidBaseDir = errors.New("storage: invalid base directory")

	// ErrInvalidEndpoint indicates a daemon URL that cannot be used.
	ErrInvalidEndpoint = errors.New("storage: invalid endpoint")

	// ErrDiscoveryFailed indicates DNS endpoint discovery failed.
	ErrDiscoveryFailed = errors.New("storage: endpoint discovery failed")

	// ErrNoEndpoints indicates discovery succeeded but returned no endpoints.
	ErrNoEndpoints = errors.New("storage: no endpoints found")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("storage: DNSSEC validation failed")
)
