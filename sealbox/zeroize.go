package sealbox

import "runtime"

// Zeroize overwrites b with zeros so key material does not linger after use.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
