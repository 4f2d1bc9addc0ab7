package transport

import "golang.org/x/crypto/chacha20"

// newChaCha20 wraps golang.org/x/crypto/chacha20 for the length-field
// keystream used by chachaAEAD. It is a thin indirection so tests can
// substitute a fake stream without touching the real cipher.
func newChaCha20(key, nonce []byte) (streamXORer, error) {
	return chacha20.NewUnauthenticatedCipher(key, nonce)
}
