package kex

import (
	"crypto/sha256"
	"hash"
)

// deriveKey implements spec.md §4.3's HASH-based PRF: iv_c2s, iv_s2c,
// key_c2s, key_s2c, mackey_c2s, mackey_s2c are each HASH(K || H ||
// LETTER || session_id) extended by repeated chaining
// HASH(K || H || K1 || K2 || ...) until length bytes are produced
// (RFC 4253 §7.2).
func deriveKey(newHash func() hash.Hash, K, H []byte, letter byte, sessionID []byte, length int) []byte {
	seed := func() hash.Hash {
		h := newHash()
		writeMpint(h, K) // same mpint encoding of K as the exchange hash
		h.Write(H)
		return h
	}

	h := seed()
	h.Write([]byte{letter})
	h.Write(sessionID)
	out := h.Sum(nil)

	for len(out) < length {
		h := seed()
		h.Write(out)
		out = append(out, h.Sum(nil)...)
	}

	return out[:length]
}

// DeriveSHA256 is the ComputeKey implementation shared by sha256-based
// KEX methods (curve25519-sha256 among them).
func DeriveSHA256(K, H []byte, letter byte, sessionID []byte, length int) []byte {
	return deriveKey(sha256.New, K, H, letter, sessionID, length)
}
