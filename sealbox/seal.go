// Package sealbox implements anonymous sealed-box encryption for stored blobs.
//
// A sealed box is built from a fresh ephemeral X25519 key pair per call:
//
//	blob = ephemeral_pk(32B) || XSalsa20-Poly1305(plaintext)(len+16B)
//
// The nonce is derived from (ephemeral_pk, recipient_pk), so the blob is
// self-contained and only the recipient's private key can open it. The format
// is byte-compatible with libsodium crypto_box_seal.
package sealbox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	// KeySize is the length of X25519 public and private keys in bytes.
	KeySize = 32

	// Overhead is the number of bytes a sealed blob adds to its plaintext.
	Overhead = box.AnonymousOverhead
)

// Seal encrypts plaintext so that only the holder of the private key matching
// recipientPublicKey can open it. Every call uses fresh ephemeral key material,
// so sealing the same plaintext twice yields different blobs.
func Seal(recipientPublicKey []byte, plaintext []byte) ([]byte, error) {
	recipient, err := toKey(recipientPublicKey, ErrInvalidPublicKey)
	if err != nil {
		return nil, err
	}

	blob, err := box.SealAnonymous(nil, plaintext, recipient, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: seal: %w", ErrCrypto, err)
	}
	return blob, nil
}

// Open authenticates and decrypts a blob produced by Seal.
//
// It returns ErrAuthFailed if the blob was modified or sealed for a different
// key pair. No plaintext is returned unless authentication succeeds.
func Open(recipientPrivateKey []byte, blob []byte) ([]byte, error) {
	priv, err := toKey(recipientPrivateKey, ErrInvalidPrivateKey)
	if err != nil {
		return nil, err
	}
	defer Zeroize(priv[:])

	if len(blob) < Overhead {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrInvalidCiphertext, len(blob), Overhead)
	}

	pub, err := publicKeyOf(priv)
	if err != nil {
		return nil, err
	}

	plaintext, ok := box.OpenAnonymous(nil, blob, pub, priv)
	if !ok {
		return nil, ErrAuthFailed
	}

	// Normalize nil to empty slice for consistency.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// toKey copies a 32-byte key into a fixed array, reporting kind on bad length.
func toKey(b []byte, kind error) (*[KeySize]byte, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", kind, len(b), KeySize)
	}
	var k [KeySize]byte
	copy(k[:], b)
	return &k, nil
}

// publicKeyOf derives the X25519 public key for a private scalar.
func publicKeyOf(priv *[KeySize]byte) (*[KeySize]byte, error) {
	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		// Only fails for low-order results, i.e. an all-zero style scalar.
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}
	var pub [KeySize]byte
	copy(pub[:], pubBytes)
	return &pub, nil
}
