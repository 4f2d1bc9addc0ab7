package auth

import (
	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

// Identity is one key (or certificate) a client is willing to authenticate
// with. Algorithms lists the signature algorithm names to try for this
// key, most-preferred first — for an RSA key this is
// ["rsa-sha2-512", "rsa-sha2-256", "ssh-rsa"], implementing spec.md §4.4's
// "prefer SHA-2 signatures for rsa-ssh keys, falling back to ssh-rsa (SHA-1)
// only if the server's USERAUTH_FAILURE shows no SHA-2 variant accepted"
// rule; for an OpenSSH certificate the list is the matching
// "*-cert-v01@openssh.com" names in the same SHA2→SHA1 preference order.
type Identity struct {
	Blob       []byte
	Algorithms []string
	Sign       func(algo string, data []byte) ([]byte, error)
}

// PublickeyMethod implements the "publickey" client method (RFC 4252 §7),
// including the query phase (signature-less probe answered by
// USERAUTH_PK_OK) before committing to an expensive signature.
type PublickeyMethod struct {
	Identities []Identity

	// PeerSigAlgs is the peer's server-sig-algs EXT_INFO advertisement
	// (spec.md §4.4), if any was received. When set, it narrows each
	// Identity's Algorithms down to the ones the server actually confirmed
	// it accepts, so an RSA-SHA2 variant is only attempted when the server
	// is known to support it rather than blindly, in caller-supplied order.
	PeerSigAlgs []string

	idx     int // which Identity
	algIdx  int // which Algorithms[algIdx] within it
	queried bool

	sessionID      []byte
	user, service  string
}

// algorithmsFor returns the signature algorithm names to try for id,
// filtered down to PeerSigAlgs when the server advertised one. If none of
// id.Algorithms were confirmed by the peer, the full list is tried anyway
// rather than skipping the identity outright.
func (m *PublickeyMethod) algorithmsFor(id Identity) []string {
	if len(m.PeerSigAlgs) == 0 {
		return id.Algorithms
	}

	allowed := make(map[string]bool, len(m.PeerSigAlgs))
	for _, a := range m.PeerSigAlgs {
		allowed[a] = true
	}

	filtered := make([]string, 0, len(id.Algorithms))
	for _, a := range id.Algorithms {
		if allowed[a] {
			filtered = append(filtered, a)
		}
	}
	if len(filtered) == 0 {
		return id.Algorithms
	}
	return filtered
}

func (m *PublickeyMethod) Name() string { return "publickey" }

func publickeyBlobFields(buf *wire.Buffer, hasSig bool, algo string, blob []byte) {
	buf.AppendBool(hasSig)
	buf.AppendString(algo)
	buf.AppendByteSlice(blob)
}

// Request sends the unsigned query for the current (identity, algorithm)
// pair. attempt indexes linearly across all (identity, algorithm) pairs in
// order, so the driver's plain attempt-increment loop walks the full
// cross product without PublickeyMethod needing its own retry counter
// exposed to the caller.
func (m *PublickeyMethod) Request(sessionID []byte, user, service string, attempt int) ([]byte, bool, error) {
	id, alg, ok := m.nth(attempt)
	if !ok {
		return nil, false, ErrNoMoreMethods
	}
	m.idx, m.algIdx = m.split(attempt)
	m.queried = false
	m.sessionID, m.user, m.service = sessionID, user, service

	buf := wire.NewBuffer(nil)
	MarshalRequestHeader(buf, RequestHeader{User: user, Service: service, Method: "publickey"})
	publickeyBlobFields(buf, false, alg, id.Blob)
	return buf.Bytes(), false, nil
}

// HandleExtra processes USERAUTH_PK_OK by re-requesting with a real
// signature; any other message (e.g. USERAUTH_FAILURE was already routed
// elsewhere by the connection controller) is an error here.
func (m *PublickeyMethod) HandleExtra(msgType byte, payload []byte) ([]byte, bool, error) {
	if msgType != MsgUserAuthPubkeyOK {
		return nil, false, errors.Errorf("ssh: unexpected publickey continuation message %d", msgType)
	}
	m.queried = true
	reply, err := m.sign(m.sessionID, m.user, m.service)
	if err != nil {
		return nil, false, err
	}
	return reply, false, nil
}

// sign produces the final signed USERAUTH_REQUEST once the driver has
// observed USERAUTH_PK_OK, covering RFC 4252 §7's
// string(session_id) + the same request fields, all re-marshaled with
// has_signature=true.
func (m *PublickeyMethod) sign(sessionID []byte, user, service string) ([]byte, error) {
	id := m.Identities[m.idx]
	alg := m.algorithmsFor(id)[m.algIdx]

	signedFields := wire.NewBuffer(nil)
	signedFields.AppendByteSlice(sessionID)
	MarshalRequestHeader(signedFields, RequestHeader{User: user, Service: service, Method: "publickey"})
	publickeyBlobFields(signedFields, true, alg, id.Blob)
	// The signature covers everything up to but not including the
	// signature blob itself (RFC 4252 §7): reuse the same bytes minus the
	// has_signature/algo/blob trailer is wrong — the spec signs the
	// *whole* augmented message including has_signature=true and the
	// algo/blob fields, which is exactly signedFields as built above.
	dataToSign := signedFields.Bytes()

	sig, err := id.Sign(alg, dataToSign)
	if err != nil {
		return nil, errors.Wrap(err, "ssh: signing publickey auth request")
	}

	out := wire.NewBuffer(nil)
	MarshalRequestHeader(out, RequestHeader{User: user, Service: service, Method: "publickey"})
	publickeyBlobFields(out, true, alg, id.Blob)
	out.AppendByteSlice(sig)
	return out.Bytes(), nil
}

func (m *PublickeyMethod) nth(n int) (Identity, string, bool) {
	idx, algIdx := m.split(n)
	if idx >= len(m.Identities) {
		return Identity{}, "", false
	}
	id := m.Identities[idx]
	algs := m.algorithmsFor(id)
	if algIdx >= len(algs) {
		return Identity{}, "", false
	}
	return id, algs[algIdx], true
}

func (m *PublickeyMethod) split(n int) (idx, algIdx int) {
	for _, id := range m.Identities {
		count := len(m.algorithmsFor(id))
		if n < count {
			return idx, n
		}
		n -= count
		idx++
	}
	return idx, 0
}
