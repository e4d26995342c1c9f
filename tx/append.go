// Package tx builds and signs the ledger transactions that append a CID to
// the index contract.
package tx

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AppendParams holds everything needed to build one contract call transaction.
type AppendParams struct {
	Nonce    uint64
	To       common.Address // index contract
	GasLimit uint64
	GasPrice *big.Int // wei
	ChainID  *big.Int
	Data     []byte // ABI-encoded call data
}

// Validate checks that p describes a buildable transaction.
func (p *AppendParams) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: params", ErrNilParam)
	}
	if p.To == (common.Address{}) {
		return fmt.Errorf("%w: contract address is zero", ErrInvalidParams)
	}
	if p.GasLimit == 0 {
		return fmt.Errorf("%w: gas limit is zero", ErrInvalidParams)
	}
	if p.GasPrice == nil || p.GasPrice.Sign() < 0 {
		return fmt.Errorf("%w: gas price must be non-negative", ErrInvalidParams)
	}
	if p.ChainID == nil || p.ChainID.Sign() <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidParams)
	}
	if len(p.Data) < 4 {
		return fmt.Errorf("%w: call data shorter than a method selector", ErrInvalidParams)
	}
	return nil
}

// BuildAppendTx builds an unsigned legacy (type 0) transaction carrying no
// value. It is signed for p.ChainID with SignTx.
func BuildAppendTx(p *AppendParams) (*types.Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	to := p.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    p.Nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      p.GasLimit,
		GasPrice: new(big.Int).Set(p.GasPrice),
		Data:     append([]byte(nil), p.Data...),
	}), nil
}

// EncodeTx returns the RLP encoding of a signed transaction, the payload of
// eth_sendRawTransaction.
func EncodeTx(t *types.Transaction) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParam)
	}
	raw, err := t.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrInvalidParams, err)
	}
	return raw, nil
}
