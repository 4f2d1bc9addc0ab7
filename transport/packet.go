// Package transport implements the SSH-2.0 binary packet protocol: version
// banner exchange, length/padding/MAC framing, rekey triggers and strict-KEX
// sequence-number handling (spec.md §4.2, component C2).
//
// It does not know about KEX/auth/channel message semantics; it only moves
// opaque payload bytes across an encrypted, sequenced, rekeyable pipe, the
// same separation of concerns the teacher keeps between its conn.go framing
// and its packet-*.go message types.
package transport

import (
	"bufio"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Role identifies which side of the connection this endpoint plays.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Direction identifies outbound ("send") vs inbound ("recv") cipher state,
// each negotiated independently per spec.md §3 Connection attributes.
type Direction int

const (
	DirSend Direction = iota
	DirRecv
)

// directionState holds one direction's active cipher/MAC/compressor and
// sequence number.
type directionState struct {
	cipher  StreamCipher
	mac     MAC
	compress Compressor
	decompress Decompressor
	seq     uint32
}

// RekeyConfig configures the rekey policy of spec.md §4.2.
type RekeyConfig struct {
	Bytes   uint64        // default 1 GiB
	Seconds time.Duration // default 1 hour
}

// DefaultRekeyConfig matches spec.md §4.2's stated defaults.
var DefaultRekeyConfig = RekeyConfig{
	Bytes:   1 << 30,
	Seconds: time.Hour,
}

// Transport drives the binary packet protocol over a single
// io.ReadWriteCloser. It has no notion of KEX/auth/channel message
// semantics — those layers call Send/Recv with opaque payloads and react
// to NeedsRekey() themselves, since only they know when it is
// safe to start a KEX exchange (spec.md §4.2's "only KEXINIT/KEX-
// specific/NEWKEYS/IGNORE/DEBUG/DISCONNECT may cross a KEX").
type Transport struct {
	rwc  io.ReadWriteCloser
	r    *bufio.Reader
	role Role

	writeMu sync.Mutex
	send    directionState
	recv    directionState

	pendingSend directionState // staged at NEWKEYS-send, swapped in on NEWKEYS-send itself
	pendingRecv directionState // staged at NEWKEYS-send, swapped in on NEWKEYS-recv

	sessionID []byte // immutable after first NEWKEYS

	strictKex     bool
	firstKexDone  bool
	bytesSinceKex uint64
	rekeyDeadline time.Time
	rekeyCfg      RekeyConfig

	authComplete bool // gates compression of "delayed" algorithms
}

// NewTransport wraps rwc. role determines banner/strict-kex bookkeeping
// only; both roles use the same framing code.
func NewTransport(rwc io.ReadWriteCloser, role Role) *Transport {
	return &Transport{
		rwc:      rwc,
		r:        bufio.NewReaderSize(rwc, 35000),
		role:     role,
		rekeyCfg: DefaultRekeyConfig,
		send:     directionState{cipher: NoneCipher()},
		recv:     directionState{cipher: NoneCipher()},
	}
}

// SetStrictKex enables the strict-KEX sequence-number-reset behavior
// (spec.md §4.2 Strict-KEX), decided once both sides' first KEXINIT have
// been observed to advertise kex-strict-*-v00@openssh.com.
func (t *Transport) SetStrictKex(v bool) { t.strictKex = v }

// StrictKex reports whether strict-KEX was negotiated.
func (t *Transport) StrictKex() bool { return t.strictKex }

// SessionID returns the immutable session id, set at the first NEWKEYS.
func (t *Transport) SessionID() []byte { return t.sessionID }

// SetSessionID sets the session id exactly once; later calls are no-ops,
// enforcing spec.md §3's "session_id is set exactly once" invariant
// (testable property 8).
func (t *Transport) SetSessionID(id []byte) {
	if t.sessionID == nil {
		t.sessionID = append([]byte(nil), id...)
	}
}

// StageKeys stages the next cipher set for dir, to become active once the
// corresponding NEWKEYS has been sent (for DirSend) or received (for
// DirRecv) — spec.md §3's "pending next-recv cipher set staged at NEWKEYS
// send".
func (t *Transport) StageKeys(dir Direction, c StreamCipher, m MAC, comp Compressor, decomp Decompressor) {
	st := directionState{cipher: c, mac: m, compress: comp, decompress: decomp}
	if dir == DirSend {
		t.pendingSend = st
	} else {
		t.pendingRecv = st
	}
}

// ActivateSend swaps in the staged send cipher set after emitting
// NEWKEYS, and resets send_seq to 0 if strict-KEX is active.
func (t *Transport) ActivateSend() {
	seq := t.send.seq
	if t.strictKex {
		seq = 0
	}
	t.pendingSend.seq = seq
	t.send = t.pendingSend
	t.pendingSend = directionState{}
	t.bytesSinceKex = 0
	t.rekeyDeadline = time.Now().Add(t.rekeyCfg.Seconds)
	t.firstKexDone = true
}

// ActivateRecv swaps in the staged recv cipher set after verifying the
// peer's NEWKEYS, resetting recv_seq to 0 if strict-KEX is active.
func (t *Transport) ActivateRecv() {
	seq := t.recv.seq
	if t.strictKex {
		seq = 0
	}
	t.pendingRecv.seq = seq
	t.recv = t.pendingRecv
	t.pendingRecv = directionState{}
}

// MarkAuthComplete gates "delayed" compression algorithms per spec.md
// §4.2 transmit/receive paths.
func (t *Transport) MarkAuthComplete() { t.authComplete = true }

// NeedsRekey reports whether the rekey policy (spec.md §4.2) has
// triggered: bytes_sent_since_last_kex >= rekey_bytes, or now >=
// rekey_deadline.
func (t *Transport) NeedsRekey() bool {
	if !t.firstKexDone {
		return false
	}
	if t.bytesSinceKex >= t.rekeyCfg.Bytes {
		return true
	}
	return !t.rekeyDeadline.IsZero() && time.Now().After(t.rekeyDeadline)
}

// Close closes the underlying transport.
func (t *Transport) Close() error { return t.rwc.Close() }

// ExchangeBanner performs the version-string exchange (spec.md §4.2
// Banner exchange) over this Transport's own reader/writer, before any
// framing is active. It returns the two sides' full banner lines (for
// the KEX exchange-hash transcript) and the peer's parsed version string.
func (t *Transport) ExchangeBanner(version string) (localLine, peerLine, peerVersion string, err error) {
	localLine = "SSH-2.0-" + version
	if err := SendBanner(t.rwc, version); err != nil {
		return "", "", "", err
	}
	isClient := t.role == RoleClient
	peerLine, peerVersion, err = ReadBanner(t.r, isClient)
	if err != nil {
		return "", "", "", err
	}
	return localLine, peerLine, peerVersion, nil
}

const minPadding = 4

func blockSizeFor(c StreamCipher) int {
	bs := c.BlockSize()
	if bs < 8 {
		bs = 8
	}
	return bs
}

// Send frames and writes one packet: msgType followed by payload. It does
// not itself decide whether a KEXINIT needs to precede this message or
// whether the message must be deferred during an in-progress KEX — that
// policy lives in the connection controller (C7), which is the only layer
// that knows the current phase.
func (t *Transport) Send(msgType byte, payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	body := make([]byte, 0, 1+len(payload))
	body = append(body, msgType)
	body = append(body, payload...)

	if t.send.compress != nil && (t.authComplete || !t.send.compress.IsDelayed()) {
		body = t.send.compress.Compress(nil, body)
	}

	bs := blockSizeFor(t.send.cipher)
	// packet_length(4) + padding_length(1) + body + padding must be a
	// multiple of bs; padding_length >= minPadding.
	padLen := bs - (5+len(body))%bs
	if padLen < minPadding {
		padLen += bs
	}

	packet := make([]byte, 0, 4+1+len(body)+padLen)
	packet = append(packet, 0, 0, 0, 0) // placeholder length
	packet = append(packet, byte(padLen))
	packet = append(packet, body...)

	pad := make([]byte, padLen)
	if _, err := rand.Read(pad); err != nil {
		return errors.Wrap(err, "ssh: generating packet padding")
	}
	packet = append(packet, pad...)

	packetLen := uint32(len(packet) - 4)
	packet[0] = byte(packetLen >> 24)
	packet[1] = byte(packetLen >> 16)
	packet[2] = byte(packetLen >> 8)
	packet[3] = byte(packetLen)

	var seqBuf [4]byte
	seqBuf[0] = byte(t.send.seq >> 24)
	seqBuf[1] = byte(t.send.seq >> 16)
	seqBuf[2] = byte(t.send.seq >> 8)
	seqBuf[3] = byte(t.send.seq)

	var out []byte
	if t.send.cipher.IsAEAD() {
		out = t.send.cipher.Encrypt(nil, seqBuf[:], packet)
	} else {
		enc := t.send.cipher.Encrypt(nil, seqBuf[:], packet)
		if t.send.mac != nil {
			if t.send.mac.ETM() {
				tag := t.send.mac.Sign(t.send.seq, enc)
				enc = append(enc, tag...)
			} else {
				tag := t.send.mac.Sign(t.send.seq, packet)
				enc = append(enc, tag...)
			}
		}
		out = enc
	}

	if _, err := t.rwc.Write(out); err != nil {
		return errors.Wrap(err, "ssh: writing packet")
	}

	t.bytesSinceKex += uint64(len(out))
	if !t.firstKexDone && t.send.seq == 0xFFFFFFFF {
		return protoErrf("send sequence number rolled over before first NEWKEYS")
	}
	t.send.seq++
	return nil
}

// Recv reads, decrypts and authenticates one packet, returning its
// message-type byte and payload.
func (t *Transport) Recv() (byte, []byte, error) {
	bs := blockSizeFor(t.recv.cipher)

	var seqBuf [4]byte
	seqBuf[0] = byte(t.recv.seq >> 24)
	seqBuf[1] = byte(t.recv.seq >> 16)
	seqBuf[2] = byte(t.recv.seq >> 8)
	seqBuf[3] = byte(t.recv.seq)

	header := make([]byte, bs)
	if _, err := io.ReadFull(t.r, header); err != nil {
		return 0, nil, errors.Wrap(err, "ssh: reading packet header")
	}

	var plainHeader []byte
	var packetLen uint32
	bodyInHeader := bs - 4 // header bytes already read past the length field
	if t.recv.cipher.IsAEAD() {
		// AEAD ciphers conventionally reveal only the length once the
		// length-field keystream (not the whole packet) is applied;
		// the concrete cipher handles that itself in Decrypt, so for
		// framing purposes we must know the length before reading the
		// rest — concrete AEAD ciphers therefore expose RevealsLength
		// to pick between the two framing strategies below.
		if t.recv.cipher.RevealsLength() {
			packetLen = beUint32(header)
			plainHeader = header
		} else {
			// chacha20-poly1305@openssh.com style: decrypt just the
			// length with the dedicated sub-key; the 4-byte header IS
			// the whole encrypted length field (bs==8 means we over-
			// read up to 4 extra ciphertext bytes here, which we must
			// not discard).
			lenOnly, err := decryptLengthOnly(t.recv.cipher, t.recv.seq, header[:4])
			if err != nil {
				return 0, nil, err
			}
			packetLen = beUint32(lenOnly)
			// Decrypt takes the still-encrypted length field, which the
			// AEAD authenticates as additional data.
			plainHeader = header[:4]
			// push back any extra bytes already read past the 4-byte length
			if len(header) > 4 {
				t.r = prependReader(t.r, header[4:])
				bodyInHeader = 0
			}
		}
	} else {
		dec, err := t.recv.cipher.Decrypt(seqBuf[:], header)
		if err != nil {
			return 0, nil, errors.Wrap(err, "ssh: decrypting packet header")
		}
		packetLen = beUint32(dec)
		plainHeader = dec
	}

	if packetLen == 0 || packetLen > 1<<20 {
		return 0, nil, protoErrf("invalid packet length %d", packetLen)
	}

	remaining := int(packetLen) - bodyInHeader
	if remaining < 0 {
		remaining = 0
	}

	macSize := 0
	if t.recv.cipher.IsAEAD() {
		macSize = aeadOverhead(t.recv.cipher)
	} else if t.recv.mac != nil {
		macSize = t.recv.mac.Size()
	}

	rest := make([]byte, remaining+macSize)
	if _, err := io.ReadFull(t.r, rest); err != nil {
		return 0, nil, errors.Wrap(err, "ssh: reading packet body")
	}

	var plain []byte
	if t.recv.cipher.IsAEAD() {
		full := append(append([]byte(nil), plainHeader...), rest...)
		pt, err := t.recv.cipher.Decrypt(seqBuf[:], full)
		if err != nil {
			return 0, nil, err
		}
		plain = pt
	} else {
		body := rest[:remaining]
		tag := rest[remaining:]

		if t.recv.mac != nil {
			var macInput []byte
			if t.recv.mac.ETM() {
				macInput = append(append([]byte(nil), header...), body...)
				if !t.recv.mac.Verify(t.recv.seq, macInput, tag) {
					return 0, nil, &MACError{}
				}
			}
		}

		decBody, err := t.recv.cipher.Decrypt(seqBuf[:], body)
		if err != nil {
			return 0, nil, errors.Wrap(err, "ssh: decrypting packet body")
		}
		plain = append(plainHeader, decBody...)

		if t.recv.mac != nil && !t.recv.mac.ETM() {
			if !t.recv.mac.Verify(t.recv.seq, plain, tag) {
				return 0, nil, &MACError{}
			}
		}
	}

	// plain starts with the 4-byte packet_length; padding_length follows it.
	plain = plain[4:]
	if len(plain) < 1 {
		return 0, nil, protoErrf("empty decrypted packet")
	}
	padLen := int(plain[0])
	body := plain[1:]
	if padLen > len(body) {
		return 0, nil, protoErrf("padding length %d exceeds body", padLen)
	}
	body = body[:len(body)-padLen]

	if t.recv.decompress != nil && (t.authComplete || !t.recv.decompress.IsDelayed()) {
		decompressed, err := t.recv.decompress.Decompress(nil, body)
		if err != nil {
			return 0, nil, &CompressionError{Err: err}
		}
		body = decompressed
	}

	if len(body) < 1 {
		return 0, nil, protoErrf("empty payload")
	}

	if !t.firstKexDone && t.recv.seq == 0xFFFFFFFF {
		return 0, nil, protoErrf("recv sequence number rolled over before first NEWKEYS")
	}
	t.recv.seq++

	return body[0], body[1:], nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// decryptLengthOnly and aeadOverhead/prependReader are narrow seams used
// only by the chacha20-poly1305@openssh.com framing path; kept here
// rather than in cipher.go because they are a framing concern (how many
// bytes to read before the length is known), not a cipher concern.
func decryptLengthOnly(c StreamCipher, seq uint32, encLen []byte) ([]byte, error) {
	ca, ok := c.(*chachaAEAD)
	if !ok {
		return nil, protoErrf("cipher does not support length-only decryption")
	}
	var seqBuf [4]byte
	seqBuf[0] = byte(seq >> 24)
	seqBuf[1] = byte(seq >> 16)
	seqBuf[2] = byte(seq >> 8)
	seqBuf[3] = byte(seq)
	mask := ca.lengthMask(seq)
	out := make([]byte, 4)
	for i := range out {
		out[i] = encLen[i] ^ mask[i]
	}
	return out, nil
}

func aeadOverhead(c StreamCipher) int {
	if ca, ok := c.(*chachaAEAD); ok {
		return ca.main.Overhead()
	}
	return 16
}

// prependReader pushes extra already-read bytes back in front of r's
// remaining stream.
func prependReader(r *bufio.Reader, extra []byte) *bufio.Reader {
	return bufio.NewReader(io.MultiReader(newByteReader(extra), r))
}

type byteReaderWrap struct{ b []byte }

func newByteReader(b []byte) io.Reader { return &byteReaderWrap{b: b} }

func (b *byteReaderWrap) Read(p []byte) (int, error) {
	if len(b.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.b)
	b.b = b.b[n:]
	return n, nil
}
