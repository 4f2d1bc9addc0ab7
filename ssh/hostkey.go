package ssh

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

// HostKey is one server identity this module can sign and verify with.
// The asymmetric primitives themselves (ed25519) are necessarily stdlib —
// no pack dependency implements SSH signature blobs without pulling in
// golang.org/x/crypto/ssh itself, which this module intentionally never
// imports (it is the reference implementation of the engine being built
// here) — but the SSH-specific blob framing around them is this module's
// own wire code, not borrowed from crypto/ssh.
type HostKey struct {
	Algo    string
	pub     ed25519.PublicKey
	priv    ed25519.PrivateKey
}

// GenerateHostKey creates a fresh ssh-ed25519 host key, for tests and for
// first-run server bootstrapping.
func GenerateHostKey() (*HostKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "ssh: generating host key")
	}
	return &HostKey{Algo: "ssh-ed25519", pub: pub, priv: priv}, nil
}

// Blob encodes the public key in the SSH wire format (RFC 4253 §6.6):
// string "ssh-ed25519", string pubkey-bytes.
func (k *HostKey) Blob() []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(k.Algo)
	buf.AppendByteSlice(k.pub)
	return buf.Bytes()
}

// Sign produces an SSH signature blob: string algo-name, string raw-sig.
func (k *HostKey) Sign(data []byte) ([]byte, error) {
	sig := ed25519.Sign(k.priv, data)
	buf := wire.NewBuffer(nil)
	buf.AppendString(k.Algo)
	buf.AppendByteSlice(sig)
	return buf.Bytes(), nil
}

// VerifyBlob checks an SSH signature blob against a raw public-key blob
// (as received from a peer's KEX_ECDH_REPLY or publickey auth request).
func VerifyBlob(pubBlob, data, sigBlob []byte) bool {
	pb := wire.NewBuffer(pubBlob)
	algo, err := pb.ConsumeString()
	if err != nil || algo != "ssh-ed25519" {
		return false
	}
	pub, err := pb.ConsumeByteSlice()
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}

	sb := wire.NewBuffer(sigBlob)
	sigAlgo, err := sb.ConsumeString()
	if err != nil || sigAlgo != "ssh-ed25519" {
		return false
	}
	sig, err := sb.ConsumeByteSlice()
	if err != nil {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}
