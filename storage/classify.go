package storage

import (
	"fmt"
	"strings"
)

// Substrings in backend error messages that identify a missing CID.
var notFoundMarkers = []string{
	"not found",
	"no link named",
	"failed to resolve",
	"no such file",
}

// Substrings that identify a transport or daemon-process failure.
var unavailableMarkers = []string{
	"connection refused",
	"daemon is not running",
	"cannot connect",
	"no such host",
	"timeout",
	"deadline exceeded",
	"context canceled",
}

// classifyMessage maps a backend-reported error message to one of the
// storage error kinds. Anything unrecognized is a rejection.
func classifyMessage(msg string) error {
	lower := strings.ToLower(msg)
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %s", ErrContentNotFound, strings.TrimSpace(msg))
		}
	}
	for _, m := range unavailableMarkers {
		if strings.Contains(lower, m) {
			return fmt.Errorf("%w: %s", ErrStorageUnavailable, strings.TrimSpace(msg))
		}
	}
	return fmt.Errorf("%w: %s", ErrStorageRejected, strings.TrimSpace(msg))
}
