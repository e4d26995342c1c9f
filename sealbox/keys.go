package sealbox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/box"
)

// KeyPair holds an X25519 key pair for sealed boxes.
// Keys are supplied by callers per request; nothing in this module stores them.
type KeyPair struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"-"`
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %w", ErrCrypto, err)
	}
	return &KeyPair{
		PublicKey:  pub[:],
		PrivateKey: priv[:],
	}, nil
}

// PublicKeyBase64 returns the public key in standard base64.
func (kp *KeyPair) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.PublicKey)
}

// PrivateKeyBase64 returns the private key in standard base64.
func (kp *KeyPair) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(kp.PrivateKey)
}

// ParsePublicKeyBase64 decodes a base64 recipient public key.
func ParsePublicKeyBase64(s string) ([]byte, error) {
	return parseKeyBase64(s, ErrInvalidPublicKey)
}

// ParsePrivateKeyBase64 decodes a base64 private key.
func ParsePrivateKeyBase64(s string) ([]byte, error) {
	return parseKeyBase64(s, ErrInvalidPrivateKey)
}

func parseKeyBase64(s string, kind error) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kind, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", kind, len(key), KeySize)
	}
	return key, nil
}
