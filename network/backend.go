package network

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Backend is the subset of the EVM JSON-RPC surface the ledger index needs.
type Backend interface {
	// ChainID returns the EIP-155 chain id of the connected network.
	ChainID(ctx context.Context) (*big.Int, error)

	// PendingNonceAt returns the next nonce for addr, counting pending transactions.
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)

	// SuggestGasPrice returns the node's current gas price in wei.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// CallContract executes a read-only call against the latest block.
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// SendRawTransaction broadcasts a signed, RLP-encoded transaction.
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)

	// TransactionReceipt returns the receipt of a mined transaction.
	// It returns ErrTxNotFound while the transaction is pending or unknown.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// Receipt is the part of a transaction receipt callers care about.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Status      uint64 // 1 success, 0 reverted
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}
