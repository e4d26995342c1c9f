package sealbox

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// --- Helper functions ---

func generateKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	require.Len(t, kp.PublicKey, KeySize)
	require.Len(t, kp.PrivateKey, KeySize)
	return kp
}

// --- Seal / Open tests ---

func TestSealOpenRoundTrip(t *testing.T) {
	kp := generateKeyPair(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty input", []byte{}},
		{"hello", []byte("hello")},
		{"binary data", []byte{0x00, 0x01, 0xff, 0xfe}},
		{"large input", bytes.Repeat([]byte("a"), 1024*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Seal(kp.PublicKey, tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, blob, len(tt.plaintext)+Overhead)

			got, err := Open(kp.PrivateKey, blob)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.plaintext, got)
		})
	}
}

func TestSealIsNonDeterministic(t *testing.T) {
	kp := generateKeyPair(t)
	a, err := Seal(kp.PublicKey, []byte("same plaintext"))
	require.NoError(t, err)
	b, err := Seal(kp.PublicKey, []byte("same plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each seal uses a fresh ephemeral key")
}

func TestSealInvalidPublicKey(t *testing.T) {
	for _, key := range [][]byte{nil, {}, make([]byte, 31), make([]byte, 33)} {
		_, err := Seal(key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPublicKey)
		assert.ErrorIs(t, err, ErrCrypto)
	}
}

func TestOpenWrongKey(t *testing.T) {
	alice := generateKeyPair(t)
	mallory := generateKeyPair(t)

	blob, err := Seal(alice.PublicKey, []byte("for alice only"))
	require.NoError(t, err)

	got, err := Open(mallory.PrivateKey, blob)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestOpenTampered(t *testing.T) {
	kp := generateKeyPair(t)
	blob, err := Seal(kp.PublicKey, []byte("integrity matters"))
	require.NoError(t, err)

	for _, idx := range []int{0, KeySize, len(blob) - 1} {
		tampered := append([]byte(nil), blob...)
		tampered[idx] ^= 0x01

		got, err := Open(kp.PrivateKey, tampered)
		assert.Nil(t, got, "flipped byte %d", idx)
		assert.ErrorIs(t, err, ErrAuthFailed, "flipped byte %d", idx)
	}
}

func TestOpenTruncated(t *testing.T) {
	kp := generateKeyPair(t)
	blob, err := Seal(kp.PublicKey, []byte("short"))
	require.NoError(t, err)

	_, err = Open(kp.PrivateKey, blob[:Overhead-1])
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = Open(kp.PrivateKey, blob[:len(blob)-1])
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestOpenInvalidPrivateKey(t *testing.T) {
	_, err := Open(make([]byte, 16), make([]byte, 64))
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestOpenDoesNotModifyCallerKey(t *testing.T) {
	kp := generateKeyPair(t)
	keyCopy := append([]byte(nil), kp.PrivateKey...)
	blob, err := Seal(kp.PublicKey, []byte("x"))
	require.NoError(t, err)

	_, err = Open(kp.PrivateKey, blob)
	require.NoError(t, err)
	assert.Equal(t, keyCopy, kp.PrivateKey)
}

func TestRoundTripProperty(t *testing.T) {
	kp := generateKeyPair(t)
	rapid.Check(t, func(t *rapid.T) {
		m := rapid.SliceOf(rapid.Byte()).Draw(t, "plaintext")

		blob, err := Seal(kp.PublicKey, m)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		got, err := Open(kp.PrivateKey, decodeBlobMust(t, EncodeBlob(blob)))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if !bytes.Equal(got, m) {
			t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(got), len(m))
		}
	})
}

func TestBitFlipProperty(t *testing.T) {
	kp := generateKeyPair(t)
	rapid.Check(t, func(t *rapid.T) {
		m := rapid.SliceOfN(rapid.Byte(), 1, 256).Draw(t, "plaintext")
		blob, err := Seal(kp.PublicKey, m)
		if err != nil {
			t.Fatalf("seal: %v", err)
		}
		idx := rapid.IntRange(0, len(blob)-1).Draw(t, "index")
		bit := rapid.IntRange(0, 7).Draw(t, "bit")
		blob[idx] ^= 1 << bit

		if got, err := Open(kp.PrivateKey, blob); err == nil {
			t.Fatalf("open accepted tampered blob, returned %d bytes", len(got))
		}
	})
}

// decodeBlobMust decodes or fails the property run.
func decodeBlobMust(t *rapid.T, text []byte) []byte {
	blob, err := DecodeBlob(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return blob
}

// --- Key parsing tests ---

func TestParseKeysBase64(t *testing.T) {
	kp := generateKeyPair(t)

	pub, err := ParsePublicKeyBase64(kp.PublicKeyBase64())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)

	priv, err := ParsePrivateKeyBase64(" " + kp.PrivateKeyBase64() + "\n")
	require.NoError(t, err)
	assert.Equal(t, kp.PrivateKey, priv)
}

func TestParseKeysBase64Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!!"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 16))},
		{"too long", base64.StdEncoding.EncodeToString(make([]byte, 64))},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKeyBase64(tt.input)
			assert.ErrorIs(t, err, ErrInvalidPublicKey)
			_, err = ParsePrivateKeyBase64(tt.input)
			assert.ErrorIs(t, err, ErrInvalidPrivateKey)
		})
	}
}

// --- Wire format tests ---

func TestEncodeDecodeBlob(t *testing.T) {
	blob := []byte{0x00, 0x10, 0xff, 0x7f}
	text := EncodeBlob(blob)
	assert.Equal(t, base64.StdEncoding.EncodeToString(blob), string(text))

	got, err := DecodeBlob(append(text, '\n'))
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestDecodeBlobInvalid(t *testing.T) {
	_, err := DecodeBlob([]byte("not*base64"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
	assert.ErrorIs(t, err, ErrCrypto)
}

func TestZeroize(t *testing.T) {
	b := []byte{1, 2, 3}
	Zeroize(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
