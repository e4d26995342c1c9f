package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by an Index wraps exactly one of these.
var (
	// ErrLedgerConfig indicates the index contract address or ABI is missing or invalid.
	ErrLedgerConfig = errors.New("ledger: configuration error")

	// ErrSigning indicates the signing key is invalid, does not control the
	// wallet, or signing failed.
	ErrSigning = errors.New("ledger: signing error")

	// ErrSubmission indicates an RPC or transport failure, a contract revert,
	// or malformed return data.
	ErrSubmission = errors.New("ledger: submission error")

	// ErrInvalidTxID indicates a transaction id that is not a 0x-prefixed
	// 32-byte hash.
	ErrInvalidTxID = errors.New("ledger: invalid transaction id")
)

var (
	// ErrInvalidAddress indicates a wallet address that does not parse.
	ErrInvalidAddress = fmt.Errorf("%w: invalid wallet address", ErrSubmission)

	// ErrKeyMismatch indicates the signing key does not control the wallet.
	ErrKeyMismatch = fmt.Errorf("%w: signing key does not control wallet", ErrSigning)

	// ErrEmptyCID indicates an attempt to append an empty CID.
	ErrEmptyCID = fmt.Errorf("%w: empty CID", ErrSubmission)

	// ErrNoContract indicates an eth_call returned no data, i.e. there is no
	// contract code at the configured address.
	ErrNoContract = fmt.Errorf("%w: no contract at address", ErrSubmission)
)
