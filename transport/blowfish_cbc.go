package transport

import (
	"crypto/cipher"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blowfish"
)

// blowfishCBC implements the legacy "blowfish-cbc" algorithm, paired with
// a separate MAC (it is not AEAD). Offered only for interop with very old
// peers; never in the default algorithm preference list.
type blowfishCBC struct {
	encBlock cipher.Block
	iv       []byte
}

// NewBlowfishCBC constructs the legacy blowfish-cbc cipher.
func NewBlowfishCBC(key, iv []byte) (StreamCipher, error) {
	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "ssh: constructing blowfish-cbc")
	}
	return &blowfishCBC{encBlock: block, iv: append([]byte(nil), iv...)}, nil
}

func (b *blowfishCBC) BlockSize() int      { return blowfish.BlockSize }
func (b *blowfishCBC) IsAEAD() bool        { return false }
func (b *blowfishCBC) RevealsLength() bool { return false }

func (b *blowfishCBC) Encrypt(dst, seq, plaintext []byte) []byte {
	mode := cipher.NewCBCEncrypter(b.encBlock, b.iv)
	out := make([]byte, len(plaintext))
	mode.CryptBlocks(out, plaintext)
	if len(plaintext) >= blowfish.BlockSize {
		b.iv = out[len(out)-blowfish.BlockSize:]
	}
	return append(dst, out...)
}

func (b *blowfishCBC) Decrypt(seq, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%blowfish.BlockSize != 0 {
		return nil, errors.New("ssh: blowfish-cbc ciphertext is not block aligned")
	}
	mode := cipher.NewCBCDecrypter(b.encBlock, b.iv)
	out := make([]byte, len(ciphertext))
	mode.CryptBlocks(out, ciphertext)
	if len(ciphertext) >= blowfish.BlockSize {
		b.iv = append([]byte(nil), ciphertext[len(ciphertext)-blowfish.BlockSize:]...)
	}
	return out, nil
}
