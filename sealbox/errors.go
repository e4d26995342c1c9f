package sealbox

import (
	"errors"
	"fmt"
)

// ErrCrypto is the kind shared by every error this package returns.
// Callers check it with errors.Is(err, sealbox.ErrCrypto).
var ErrCrypto = errors.New("sealbox: crypto error")

var (
	// ErrInvalidPublicKey indicates a recipient public key of the wrong length or encoding.
	ErrInvalidPublicKey = fmt.Errorf("%w: invalid public key", ErrCrypto)

	// ErrInvalidPrivateKey indicates a private key of the wrong length or encoding.
	ErrInvalidPrivateKey = fmt.Errorf("%w: invalid private key", ErrCrypto)

	// ErrInvalidCiphertext indicates the sealed blob is truncated or not valid base64.
	// Minimum length: 32 (ephemeral public key) + 16 (Poly1305 tag) = 48 bytes.
	ErrInvalidCiphertext = fmt.Errorf("%w: invalid ciphertext", ErrCrypto)

	// ErrAuthFailed indicates the blob was tampered with or was not sealed for this key.
	ErrAuthFailed = fmt.Errorf("%w: authentication failed", ErrCrypto)
)
