package kex

import (
	"crypto/rand"
	"crypto/sha256"

	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"

	"github.com/ardenhq/sshrelay/wire"
)

func init() {
	Register("curve25519-sha256", func() Method { return newCurve25519() })
	Register("curve25519-sha256@libssh.org", func() Method { return newCurve25519() })
}

// curve25519Method implements the default KEX method, curve25519-sha256
// (RFC 8731), using golang.org/x/crypto/curve25519 for the scalar
// multiplication — the one piece of "KEX group math" spec.md §1 calls an
// external collaborator, wired here through the Method interface rather
// than reimplemented.
//
// HostKeySign/HostKeyVerify, which this method must call to authenticate
// the server's reply, are supplied by the caller via WithHostKey before
// Start/ProcessPacket is invoked (the connection controller knows which
// host key algorithm was negotiated; this type does not).
type curve25519Method struct {
	role Role

	priv [32]byte
	pub  [32]byte

	clientVersion, serverVersion     string
	clientInitPayload, serverInitPayload []byte
	hostKeyBlob                      []byte

	sign   func([]byte) ([]byte, error)
	verify func(pub, data, sig []byte) bool

	peerPub [32]byte

	k, h []byte
	done bool
}

func newCurve25519() *curve25519Method {
	return &curve25519Method{}
}

// WithTranscript seeds the exchange-hash transcript inputs that the
// connection controller already holds (banner strings and the two
// KEXINIT payloads), per RFC 4253 §8.
func (m *curve25519Method) WithTranscript(clientVersion, serverVersion string, clientInit, serverInit []byte) *curve25519Method {
	m.clientVersion, m.serverVersion = clientVersion, serverVersion
	m.clientInitPayload, m.serverInitPayload = clientInit, serverInit
	return m
}

// WithHostKey supplies the negotiated host key's blob and a signer (server
// side) used once this side has derived K to produce the exchange-hash
// signature; clients instead supply a verifier.
func (m *curve25519Method) WithHostKey(blob []byte, sign func([]byte) ([]byte, error), verify func(pub, data, sig []byte) bool) *curve25519Method {
	m.hostKeyBlob = blob
	m.sign = sign
	m.verify = verify
	return m
}

func (m *curve25519Method) Name() string { return "curve25519-sha256" }

// ConfigureTranscript implements kex.TranscriptConfigurable.
func (m *curve25519Method) ConfigureTranscript(clientVersion, serverVersion string, clientInit, serverInit []byte) {
	m.WithTranscript(clientVersion, serverVersion, clientInit, serverInit)
}

// ConfigureHostKey implements kex.HostKeyConfigurable.
func (m *curve25519Method) ConfigureHostKey(blob []byte, sign func([]byte) ([]byte, error), verify func(pub, data, sig []byte) bool) {
	m.WithHostKey(blob, sign, verify)
}

const (
	msgKexECDHInit  = 30
	msgKexECDHReply = 31
)

func (m *curve25519Method) Start(role Role) (byte, []byte, error) {
	m.role = role
	if _, err := rand.Read(m.priv[:]); err != nil {
		return 0, nil, errors.Wrap(err, "ssh: generating curve25519 private key")
	}
	curve25519.ScalarBaseMult(&m.pub, &m.priv)

	if role == RoleClient {
		buf := wire.NewBuffer(nil)
		buf.AppendByteSlice(m.pub[:])
		return msgKexECDHInit, buf.Bytes(), nil
	}
	// Server waits for KEX_ECDH_INIT.
	return 0, nil, nil
}

func (m *curve25519Method) ProcessPacket(msgType byte, payload []byte) (byte, []byte, bool, error) {
	buf := wire.NewBuffer(payload)

	switch {
	case m.role == RoleServer && msgType == msgKexECDHInit:
		clientPub, err := buf.ConsumeByteSlice()
		if err != nil {
			return 0, nil, false, err
		}
		copy(m.peerPub[:], clientPub)

		var secret [32]byte
		curve25519.ScalarMult(&secret, &m.priv, &m.peerPub)

		h := sha256.New()
		exchangeHashPrefix(h, m.clientVersion, m.serverVersion, m.clientInitPayload, m.serverInitPayload)
		writeString(h, string(m.hostKeyBlob))
		writeBytes(h, clientPub)
		writeBytes(h, m.pub[:])
		writeMpint(h, secret[:])
		m.h = h.Sum(nil)
		m.k = secret[:]
		m.done = true

		sig, err := m.sign(m.h)
		if err != nil {
			return 0, nil, false, errors.Wrap(err, "ssh: signing exchange hash")
		}

		reply := wire.NewBuffer(nil)
		reply.AppendByteSlice(m.hostKeyBlob)
		reply.AppendByteSlice(m.pub[:])
		reply.AppendByteSlice(sig)
		return msgKexECDHReply, reply.Bytes(), true, nil

	case m.role == RoleClient && msgType == msgKexECDHReply:
		hostKeyBlob, err := buf.ConsumeByteSlice()
		if err != nil {
			return 0, nil, false, err
		}
		serverPub, err := buf.ConsumeByteSlice()
		if err != nil {
			return 0, nil, false, err
		}
		sig, err := buf.ConsumeByteSlice()
		if err != nil {
			return 0, nil, false, err
		}
		copy(m.peerPub[:], serverPub)

		var secret [32]byte
		curve25519.ScalarMult(&secret, &m.priv, &m.peerPub)

		h := sha256.New()
		exchangeHashPrefix(h, m.clientVersion, m.serverVersion, m.clientInitPayload, m.serverInitPayload)
		writeString(h, string(hostKeyBlob))
		writeBytes(h, m.pub[:])
		writeBytes(h, serverPub)
		writeMpint(h, secret[:])
		m.h = h.Sum(nil)
		m.k = secret[:]
		m.done = true

		if m.verify != nil && !m.verify(hostKeyBlob, m.h, sig) {
			return 0, nil, false, errors.New("ssh: host key signature verification failed")
		}
		return 0, nil, true, nil
	}

	return 0, nil, false, errors.Errorf("ssh: unexpected KEX message %d for curve25519-sha256", msgType)
}

func (m *curve25519Method) Result() ([]byte, []byte, error) {
	if !m.done {
		return nil, nil, errors.New("ssh: key exchange not complete")
	}
	return m.k, m.h, nil
}

func (m *curve25519Method) ComputeKey(K, H, sessionID []byte, letter byte, length int) []byte {
	return DeriveSHA256(K, H, letter, sessionID, length)
}

func writeBytes(h interface{ Write([]byte) (int, error) }, b []byte) {
	buf := wire.NewBuffer(nil)
	buf.AppendByteSlice(b)
	h.Write(buf.Bytes())
}

func writeMpint(h interface{ Write([]byte) (int, error) }, magnitude []byte) {
	buf := wire.NewBuffer(nil)
	// curve25519 shared secrets are fixed-width unsigned values; treat
	// the high bit as requiring a zero-pad the same as any other mpint.
	if len(magnitude) > 0 && magnitude[0]&0x80 != 0 {
		padded := make([]byte, len(magnitude)+1)
		copy(padded[1:], magnitude)
		magnitude = padded
	}
	buf.AppendByteSlice(magnitude)
	h.Write(buf.Bytes())
}
