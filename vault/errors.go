package vault

import (
	"errors"

	"github.com/bitfsorg/cidvault/ledger"
	"github.com/bitfsorg/cidvault/sealbox"
	"github.com/bitfsorg/cidvault/storage"
)

var (
	// ErrInvalidRequest indicates a request with a missing field.
	ErrInvalidRequest = errors.New("vault: invalid request")

	// ErrInternal indicates a failure outside every other kind.
	ErrInternal = errors.New("vault: internal error")
)

// ErrorKind names the category of a pipeline failure.
type ErrorKind string

// Error kinds, one per failure category of the pipelines.
const (
	KindCrypto             ErrorKind = "CryptoError"
	KindStorageUnavailable ErrorKind = "StorageUnavailable"
	KindStorageRejected    ErrorKind = "StorageRejected"
	KindContentNotFound    ErrorKind = "ContentNotFound"
	KindLedgerConfig       ErrorKind = "LedgerConfigError"
	KindSigning            ErrorKind = "SigningError"
	KindSubmission         ErrorKind = "SubmissionError"
	KindInvalidRequest     ErrorKind = "InvalidRequest"
	KindInternal           ErrorKind = "Internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidRequest, KindInvalidRequest},
	{sealbox.ErrCrypto, KindCrypto},
	{storage.ErrContentNotFound, KindContentNotFound},
	{storage.ErrStorageRejected, KindStorageRejected},
	{storage.ErrStorageUnavailable, KindStorageUnavailable},
	{ledger.ErrLedgerConfig, KindLedgerConfig},
	{ledger.ErrSigning, KindSigning},
	{ledger.ErrSubmission, KindSubmission},
}

// Kind maps err to its category. A nil error has no kind; anything
// unrecognized is KindInternal.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
