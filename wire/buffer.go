// Package wire implements the primitive data encoding used by the SSH
// binary packet protocol: byte, boolean, uint32, uint64, mpint, string and
// namelist, as described in RFC 4251 §5.
//
// It mirrors the Buffer type in sftp/encoding/ssh/filexfer, which encodes
// the sibling SFTP wire format; the two packages intentionally share the
// same Append/Consume naming so that packet encoders read the same way on
// both sides of the module.
package wire

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// MalformedPacket is returned whenever a Consume* call runs past the end
// of the buffer, or a declared length exceeds the remaining bytes.
var MalformedPacket = errors.New("ssh: malformed packet")

// Buffer wraps the encoding details of the SSH binary packet protocol.
type Buffer struct {
	b   []byte
	off int
}

// NewBuffer creates a Buffer that reads from / appends to buf.
// The Buffer takes ownership of buf.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{b: buf}
}

// Bytes returns the unconsumed tail of the Buffer.
func (b *Buffer) Bytes() []byte {
	return b.b[b.off:]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return len(b.b) - b.off
}

// Reset discards any consumed prefix and appended data, keeping the
// underlying array for reuse.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
	b.off = 0
}

func (b *Buffer) need(n int) error {
	if b.Len() < n {
		return MalformedPacket
	}
	return nil
}

// ConsumeBool consumes a single byte, treating any non-zero value as true.
func (b *Buffer) ConsumeBool() (bool, error) {
	v, err := b.ConsumeByte()
	return v != 0, err
}

// AppendBool appends a single boolean byte.
func (b *Buffer) AppendBool(v bool) {
	if v {
		b.AppendByte(1)
	} else {
		b.AppendByte(0)
	}
}

// ConsumeByte consumes a single byte.
func (b *Buffer) ConsumeByte() (byte, error) {
	if err := b.need(1); err != nil {
		return 0, err
	}
	v := b.b[b.off]
	b.off++
	return v, nil
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(v byte) {
	b.b = append(b.b, v)
}

// ConsumeUint32 consumes a big-endian uint32.
func (b *Buffer) ConsumeUint32() (uint32, error) {
	if err := b.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(b.b[b.off:])
	b.off += 4
	return v, nil
}

// AppendUint32 appends a big-endian uint32.
func (b *Buffer) AppendUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.b = append(b.b, tmp[:]...)
}

// ConsumeUint64 consumes a big-endian uint64.
func (b *Buffer) ConsumeUint64() (uint64, error) {
	if err := b.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(b.b[b.off:])
	b.off += 8
	return v, nil
}

// AppendUint64 appends a big-endian uint64.
func (b *Buffer) AppendUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	b.b = append(b.b, tmp[:]...)
}

// ConsumeByteSlice consumes a uint32-length-prefixed byte string.
func (b *Buffer) ConsumeByteSlice() ([]byte, error) {
	n, err := b.ConsumeUint32()
	if err != nil {
		return nil, err
	}
	if err := b.need(int(n)); err != nil {
		return nil, err
	}
	v := b.b[b.off : b.off+int(n) : b.off+int(n)]
	b.off += int(n)
	return v, nil
}

// AppendByteSlice appends a uint32-length-prefixed byte string.
func (b *Buffer) AppendByteSlice(v []byte) {
	b.AppendUint32(uint32(len(v)))
	b.b = append(b.b, v...)
}

// ConsumeString consumes a uint32-length-prefixed string.
func (b *Buffer) ConsumeString() (string, error) {
	v, err := b.ConsumeByteSlice()
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// AppendString appends a uint32-length-prefixed string.
func (b *Buffer) AppendString(v string) {
	b.AppendByteSlice([]byte(v))
}

// ConsumeNameList consumes a namelist: a string containing comma-joined
// ASCII names (RFC 4251 §5).
func (b *Buffer) ConsumeNameList() ([]string, error) {
	s, err := b.ConsumeString()
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	return strings.Split(s, ","), nil
}

// AppendNameList appends a namelist.
func (b *Buffer) AppendNameList(names []string) {
	b.AppendString(strings.Join(names, ","))
}

// ConsumeMpint consumes an mpint: a uint32 length followed by a two's
// complement big-endian integer, per RFC 4251 §5.
func (b *Buffer) ConsumeMpint() (*big.Int, error) {
	v, err := b.ConsumeByteSlice()
	if err != nil {
		return nil, err
	}

	ret := new(big.Int)
	if len(v) == 0 {
		return ret, nil
	}
	if v[0]&0x80 != 0 {
		// Negative: the wire value is two's complement; recover
		// the magnitude by inverting and adding one.
		inv := make([]byte, len(v))
		for i, c := range v {
			inv[i] = ^c
		}
		ret.SetBytes(inv)
		ret.Add(ret, big.NewInt(1))
		ret.Neg(ret)
		return ret, nil
	}
	ret.SetBytes(v)
	return ret, nil
}

// AppendMpint appends an mpint, trimming leading zero bytes and prefixing
// a single zero byte when the magnitude's high bit would otherwise be
// mistaken for a sign bit.
func (b *Buffer) AppendMpint(v *big.Int) {
	if v.Sign() == 0 {
		b.AppendUint32(0)
		return
	}

	if v.Sign() < 0 {
		// Two's complement encoding of a negative value.
		length := (v.BitLen() + 8) / 8
		twos := new(big.Int).Lsh(big.NewInt(1), uint(length)*8)
		twos.Add(twos, v)
		buf := twos.Bytes()
		b.AppendByteSlice(buf)
		return
	}

	buf := v.Bytes()
	if len(buf) > 0 && buf[0]&0x80 != 0 {
		padded := make([]byte, len(buf)+1)
		copy(padded[1:], buf)
		buf = padded
	}
	b.AppendByteSlice(buf)
}

// AppendUint32At overwrites 4 bytes at offset off with v; used to patch in
// a packet length once the payload size is known.
func (b *Buffer) AppendUint32At(off int, v uint32) {
	binary.BigEndian.PutUint32(b.b[off:off+4], v)
}

// AppendRaw appends v with no length prefix, for fields (like a channel
// type's type-specific data) whose framing is determined by the caller
// rather than by this primitive's own length-prefix convention.
func (b *Buffer) AppendRaw(v []byte) {
	b.b = append(b.b, v...)
}
