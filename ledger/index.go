// Package ledger maintains the per-wallet, append-only list of CIDs.
//
// RPCIndex talks to a deployed index contract over JSON-RPC; BoltIndex keeps
// the same list in a local bbolt file for offline development. Both take the
// signing key per call and never retain it.
package ledger

import (
	"context"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"

	"github.com/bitfsorg/cidvault/wallet"
)

// Index is the ledger index client.
type Index interface {
	// AppendCID records cid for walletAddress and returns the transaction id
	// as soon as the transaction is submitted. It does not wait for
	// confirmation and is not idempotent.
	AppendCID(ctx context.Context, walletAddress, signingKey, cid string) (string, error)

	// ListCIDs returns every CID recorded for walletAddress in ledger order.
	// A wallet with no entries yields an empty, non-nil slice.
	ListCIDs(ctx context.Context, walletAddress string) ([]string, error)
}

// parseWallet parses a wallet address into its ledger form.
func parseWallet(s string) (common.Address, error) {
	addr, err := wallet.ParseAddress(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr, nil
}

// keyFor parses signingKey and checks that it controls addr.
// The caller must zeroize the returned key.
func keyFor(addr common.Address, signingKey string) (*ec.PrivateKey, error) {
	key, err := wallet.ParseSigningKey(signingKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigning, err)
	}
	if got := wallet.AddressFromKey(key); got != addr {
		wallet.ZeroizeKey(key)
		return nil, fmt.Errorf("%w: key controls %s, wallet is %s", ErrKeyMismatch, got.Hex(), addr.Hex())
	}
	return key, nil
}
