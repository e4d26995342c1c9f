package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// hexDecode32 decodes a 0x-prefixed hex string of exactly 32 bytes.
func hexDecode32(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(b) != common.HashLength {
		return nil, fmt.Errorf("expected %d bytes, got %d", common.HashLength, len(b))
	}
	return b, nil
}

// ParseTxHash parses a transaction id returned by AppendCID.
func ParseTxHash(s string) (common.Hash, error) {
	b, err := hexDecode32(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w %q: %w", ErrInvalidTxID, s, err)
	}
	return common.BytesToHash(b), nil
}
