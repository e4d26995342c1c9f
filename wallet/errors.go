package wallet

import "errors"

var (
	// ErrInvalidSigningKey indicates the signing key is not a 32-byte secp256k1 scalar in hex.
	ErrInvalidSigningKey = errors.New("wallet: invalid signing key")

	// ErrInvalidAddress indicates the string is not a 20-byte hex account address.
	ErrInvalidAddress = errors.New("wallet: invalid address")

	// ErrInvalidNetwork indicates unknown network name with no custom config.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")
)
