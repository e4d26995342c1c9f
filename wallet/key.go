// Package wallet handles ledger account keys: parsing the hex signing key a
// caller supplies, deriving its account address, and the known chain presets.
// Keys are never persisted.
package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningKeySize is the length of a raw secp256k1 private key.
const SigningKeySize = 32

// ParseSigningKey parses a hex-encoded secp256k1 private key with an optional
// 0x prefix.
func ParseSigningKey(s string) (*ec.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != 2*SigningKeySize {
		return nil, fmt.Errorf("%w: expected %d hex chars, got %d", ErrInvalidSigningKey, 2*SigningKeySize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSigningKey, err)
	}
	defer clear(raw)

	priv, _ := ec.PrivateKeyFromBytes(raw)
	if priv == nil || priv.D.Sign() == 0 || priv.D.Cmp(ec.S256().Params().N) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidSigningKey)
	}
	return priv, nil
}

// GenerateSigningKey returns a fresh random secp256k1 key.
func GenerateSigningKey() (*ec.PrivateKey, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	return priv, nil
}

// SigningKeyHex returns the 0x-prefixed hex form of priv.
func SigningKeyHex(priv *ec.PrivateKey) string {
	return "0x" + hex.EncodeToString(priv.D.FillBytes(make([]byte, SigningKeySize)))
}

// AddressFromKey derives the account address controlled by priv:
// the last 20 bytes of keccak256(X || Y) of the uncompressed public key.
func AddressFromKey(priv *ec.PrivateKey) common.Address {
	return AddressFromPublicKey(priv.PubKey())
}

// AddressFromPublicKey derives the account address of pub.
func AddressFromPublicKey(pub *ec.PublicKey) common.Address {
	buf := make([]byte, 64)
	pub.X.FillBytes(buf[:32])
	pub.Y.FillBytes(buf[32:])
	return common.BytesToAddress(crypto.Keccak256(buf)[12:])
}

// ParseAddress parses a 0x-prefixed, 40 hex character account address.
// Mixed-case input must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)
	body := s[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex() != s {
		return common.Address{}, fmt.Errorf("%w: bad checksum %q", ErrInvalidAddress, s)
	}
	return addr, nil
}

// ZeroizeKey overwrites the private scalar of priv.
func ZeroizeKey(priv *ec.PrivateKey) {
	if priv == nil || priv.D == nil {
		return
	}
	clear(priv.D.Bits())
	priv.D.SetInt64(0)
}
