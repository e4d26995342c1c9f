package network

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MockBackend is a test double for Backend.
// All function fields must be set before the corresponding method is called.
type MockBackend struct {
	ChainIDFn            func(ctx context.Context) (*big.Int, error)
	PendingNonceAtFn     func(ctx context.Context, addr common.Address) (uint64, error)
	SuggestGasPriceFn    func(ctx context.Context) (*big.Int, error)
	CallContractFn       func(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	SendRawTransactionFn func(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceiptFn func(ctx context.Context, hash common.Hash) (*Receipt, error)
}

var _ Backend = (*MockBackend)(nil)

func (m *MockBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return m.ChainIDFn(ctx)
}
func (m *MockBackend) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return m.PendingNonceAtFn(ctx, addr)
}
func (m *MockBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return m.SuggestGasPriceFn(ctx)
}
func (m *MockBackend) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return m.CallContractFn(ctx, to, data)
}
func (m *MockBackend) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	return m.SendRawTransactionFn(ctx, raw)
}
func (m *MockBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	return m.TransactionReceiptFn(ctx, hash)
}
