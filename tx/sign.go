package tx

import (
	"fmt"
	"math/big"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/bitfsorg/cidvault/wallet"
)

// compactSigLen is the length of a compact recoverable signature: header || R || S.
const compactSigLen = 65

// SignTx signs an unsigned legacy transaction for chainID with key.
//
// The EIP-155 sighash is signed with a recoverable secp256k1 signature, then
// re-encoded from the compact [27+recid || R || S] layout to the
// [R || S || recid] layout the transaction signer expects. The recovered
// sender is checked against the key before returning.
func SignTx(t *types.Transaction, chainID *big.Int, key *ec.PrivateKey) (*types.Transaction, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParam)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: signing key", ErrNilParam)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id must be positive", ErrInvalidParams)
	}

	// 1. EIP-155 signing hash.
	signer := types.NewEIP155Signer(chainID)
	hash := signer.Hash(t)

	// 2. Recoverable signature (low-S, RFC 6979 nonce).
	compact, err := ec.SignCompact(ec.S256(), key, hash[:], false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	if len(compact) != compactSigLen {
		return nil, fmt.Errorf("%w: unexpected signature length %d", ErrSigningFailed, len(compact))
	}

	// 3. Move the recovery id to the end.
	recid := compact[0] - 27
	if recid > 1 {
		// x-coordinate overflow; astronomically rare and not representable in V.
		return nil, fmt.Errorf("%w: unsupported recovery id %d", ErrSigningFailed, recid)
	}
	sig := make([]byte, compactSigLen)
	copy(sig, compact[1:])
	sig[64] = recid

	// 4. Attach the signature.
	signed, err := t.WithSignature(signer, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	// 5. The recovered sender must be the key's account.
	from, err := types.Sender(signer, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: recover sender: %w", ErrSigningFailed, err)
	}
	if want := wallet.AddressFromKey(key); from != want {
		return nil, fmt.Errorf("%w: recovered %s, want %s", ErrSigningFailed, from.Hex(), want.Hex())
	}
	return signed, nil
}
