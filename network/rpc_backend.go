package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Compile-time interface check.
var _ Backend = (*RPCClient)(nil)

// callArgs is the transaction object of an eth_call request.
type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

// receiptResult maps the JSON fields of eth_getTransactionReceipt.
type receiptResult struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	GasUsed         hexutil.Uint64 `json:"gasUsed"`
	Status          hexutil.Uint64 `json:"status"`
}

// ChainID calls `eth_chainId`.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	var id hexutil.Big
	if err := c.Call(ctx, "eth_chainId", nil, &id); err != nil {
		return nil, err
	}
	return (*big.Int)(&id), nil
}

// PendingNonceAt calls `eth_getTransactionCount addr "pending"`.
func (c *RPCClient) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	if err := c.Call(ctx, "eth_getTransactionCount", []interface{}{addr, "pending"}, &nonce); err != nil {
		return 0, err
	}
	return uint64(nonce), nil
}

// SuggestGasPrice calls `eth_gasPrice`.
func (c *RPCClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := c.Call(ctx, "eth_gasPrice", nil, &price); err != nil {
		return nil, err
	}
	return (*big.Int)(&price), nil
}

// CallContract calls `eth_call {to, data} "latest"` and returns the raw return data.
func (c *RPCClient) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.Call(ctx, "eth_call", []interface{}{callArgs{To: to, Data: data}, "latest"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendRawTransaction calls `eth_sendRawTransaction` and returns the transaction hash.
// Node-side rejections (nonce too low, underpriced, insufficient funds) wrap
// ErrBroadcastRejected.
func (c *RPCClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	err := c.Call(ctx, "eth_sendRawTransaction", []interface{}{hexutil.Encode(raw)}, &hash)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return common.Hash{}, fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
		}
		return common.Hash{}, err
	}
	if hash == (common.Hash{}) {
		return common.Hash{}, fmt.Errorf("%w: empty transaction hash", ErrInvalidResponse)
	}
	return hash, nil
}

// TransactionReceipt calls `eth_getTransactionReceipt`.
func (c *RPCClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "eth_getTransactionReceipt", []interface{}{hash}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", ErrTxNotFound, hash.Hex())
	}
	var r receiptResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: receipt: %w", ErrInvalidResponse, err)
	}
	return &Receipt{
		TxHash:      r.TransactionHash,
		BlockNumber: uint64(r.BlockNumber),
		GasUsed:     uint64(r.GasUsed),
		Status:      uint64(r.Status),
	}, nil
}
