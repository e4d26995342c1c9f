package sealbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// EncodeBlob renders a sealed blob as the base64 text that is uploaded to
// content storage. Storage must return these bytes unchanged for Open to
// authenticate them.
func EncodeBlob(blob []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(blob)))
	base64.StdEncoding.Encode(out, blob)
	return out
}

// DecodeBlob parses text produced by EncodeBlob. Surrounding whitespace
// (e.g. a trailing newline added by a CLI download) is ignored.
func DecodeBlob(text []byte) ([]byte, error) {
	text = bytes.TrimSpace(text)
	blob := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(blob, text)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrInvalidCiphertext, err)
	}
	return blob[:n], nil
}
