package transport

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// StreamCipher is the Cipher collaborator interface of spec.md §6: a
// negotiated direction's encrypt/decrypt transform. Concrete algorithms
// (AEAD or classic block-cipher + separate MAC) implement it.
type StreamCipher interface {
	// Encrypt appends the ciphertext (and, for AEAD modes, the tag) for
	// one packet's header+payload+padding to dst and returns it.
	Encrypt(dst, seq, plaintext []byte) []byte

	// Decrypt authenticates and decrypts one packet in place, returning
	// the plaintext. MACError is returned on tag mismatch.
	Decrypt(seq, ciphertext []byte) ([]byte, error)

	// BlockSize is the cipher's block size, used to size padding.
	BlockSize() int

	// IsAEAD reports whether this cipher folds MAC verification into
	// Decrypt (encrypt-then-MAC is then implicit and a separate MAC is
	// not applied).
	IsAEAD() bool

	// RevealsLength reports whether the 4-byte length prefix is sent in
	// the clear (true for AEAD modes that declare themselves
	// length-revealing, per spec.md §4.2).
	RevealsLength() bool
}

// MAC is the spec.md §6 MAC collaborator: sign/verify over
// (seq || data) using the negotiated direction's MAC key.
type MAC interface {
	Sign(seq uint32, data []byte) []byte
	Verify(seq uint32, data, tag []byte) bool
	Size() int
	ETM() bool // encrypt-then-MAC: MAC covers ciphertext, not plaintext
}

// MACError indicates authentication tag mismatch; always fatal (spec.md §7).
type MACError struct{}

func (MACError) Error() string { return "ssh: MAC verification failed" }

// Compressor/Decompressor are the spec.md §6 compression collaborators.
// IsDelayed reports whether this algorithm is the "@openssh.com"-style
// variant that must not run until authentication completes.
type Compressor interface {
	Compress(dst, src []byte) []byte
	IsDelayed() bool
}

type Decompressor interface {
	Decompress(dst, src []byte) ([]byte, error)
	IsDelayed() bool
}

// CompressionError is fatal (spec.md §7).
type CompressionError struct{ Err error }

func (e *CompressionError) Error() string { return "ssh: compression error: " + e.Err.Error() }
func (e *CompressionError) Unwrap() error { return e.Err }

// noneCipher implements the "none" cipher: no confidentiality.
type noneCipher struct{}

func (noneCipher) Encrypt(dst, seq, plaintext []byte) []byte { return append(dst, plaintext...) }
func (noneCipher) Decrypt(seq, ciphertext []byte) ([]byte, error) { return ciphertext, nil }
func (noneCipher) BlockSize() int                                { return 8 }
func (noneCipher) IsAEAD() bool                                  { return false }
func (noneCipher) RevealsLength() bool                           { return true }

// NoneCipher returns the identity cipher used before the first NEWKEYS
// and for the explicit "none" algorithm name.
func NoneCipher() StreamCipher { return noneCipher{} }

// chachaAEAD implements chacha20-poly1305@openssh.com, OpenSSH's
// construction: two ChaCha20 instances keyed from a 64-byte derived key,
// one (K_1) encrypting only the 4-byte length with the sequence number as
// nonce, the other (K_2) producing a Poly1305 tag over the whole packet.
// Length is therefore length-revealing only after K_1 decryption, which
// RevealsLength reports as false (the header must be decrypted before the
// rest of the packet can be sized) matching spec.md §4.2's header-
// encrypting-cipher branch.
type chachaAEAD struct {
	main   cipher.AEAD // keyed with K_2, seals the whole packet
	lenKey [32]byte    // K_1, used to stream-cipher the 4-byte length
}

// NewChaCha20Poly1305 constructs the default AEAD cipher (SPEC_FULL.md
// AMBIENT STACK) from a 64-byte derived key: bytes 0-31 are K_2 (main
// AEAD key), bytes 32-63 are K_1 (length-field key).
func NewChaCha20Poly1305(key []byte) (StreamCipher, error) {
	if len(key) != 64 {
		return nil, errors.Errorf("ssh: chacha20-poly1305 key must be 64 bytes, got %d", len(key))
	}

	aead, err := chacha20poly1305.New(key[:32])
	if err != nil {
		return nil, errors.Wrap(err, "ssh: constructing chacha20poly1305")
	}

	c := &chachaAEAD{main: aead}
	copy(c.lenKey[:], key[32:64])
	return c, nil
}

func (c *chachaAEAD) BlockSize() int      { return 8 }
func (c *chachaAEAD) IsAEAD() bool        { return true }
func (c *chachaAEAD) RevealsLength() bool { return false }

func (c *chachaAEAD) lengthMask(seq uint32) []byte {
	var nonce [12]byte
	binary.BigEndian.PutUint32(nonce[8:], seq)
	var block [64]byte
	s, err := chacha20poly1305New20(c.lenKey[:], nonce[:])
	if err != nil {
		// Unreachable: lenKey is always 32 bytes and nonce 12 bytes.
		panic(err)
	}
	s.XORKeyStream(block[:4], block[:4])
	return block[:4]
}

func (c *chachaAEAD) Encrypt(dst, seqBuf, plaintext []byte) []byte {
	seq := binary.BigEndian.Uint32(seqBuf)

	length := plaintext[:4]
	mask := c.lengthMask(seq)
	encLen := make([]byte, 4)
	for i := range encLen {
		encLen[i] = length[i] ^ mask[i]
	}

	var nonce [12]byte
	binary.BigEndian.PutUint32(nonce[8:], seq)

	dst = append(dst, encLen...)
	sealed := c.main.Seal(nil, nonce[:], plaintext[4:], encLen)
	return append(dst, sealed...)
}

func (c *chachaAEAD) Decrypt(seqBuf, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 4+c.main.Overhead() {
		return nil, &MACError{}
	}
	seq := binary.BigEndian.Uint32(seqBuf)

	encLen := ciphertext[:4]
	mask := c.lengthMask(seq)
	length := make([]byte, 4)
	for i := range length {
		length[i] = encLen[i] ^ mask[i]
	}

	var nonce [12]byte
	binary.BigEndian.PutUint32(nonce[8:], seq)

	plain, err := c.main.Open(nil, nonce[:], ciphertext[4:], encLen)
	if err != nil {
		return nil, &MACError{}
	}
	return append(length, plain...), nil
}

// chacha20poly1305New20 constructs a raw ChaCha20 stream (RFC 7539 block
// counter fixed at 0) for the length-field keystream; separated out so it
// can be swapped in tests.
var chacha20poly1305New20 = func(key, nonce []byte) (streamXORer, error) {
	return newChaCha20(key, nonce)
}

type streamXORer interface {
	XORKeyStream(dst, src []byte)
}

// hmacSHA256 is the default MAC (hmac-sha2-256).
type hmacSHA256 struct {
	key []byte
	etm bool
}

// NewHMACSHA256 returns a hmac-sha2-256 MAC, optionally in
// encrypt-then-MAC mode.
func NewHMACSHA256(key []byte, etm bool) MAC {
	return &hmacSHA256{key: key, etm: etm}
}

func (m *hmacSHA256) newHash() hash.Hash { return hmac.New(sha256.New, m.key) }

func (m *hmacSHA256) Sign(seq uint32, data []byte) []byte {
	h := m.newHash()
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], seq)
	h.Write(seqBuf[:])
	h.Write(data)
	return h.Sum(nil)
}

func (m *hmacSHA256) Verify(seq uint32, data, tag []byte) bool {
	return hmac.Equal(m.Sign(seq, data), tag)
}

func (m *hmacSHA256) Size() int  { return sha256.Size }
func (m *hmacSHA256) ETM() bool  { return m.etm }
