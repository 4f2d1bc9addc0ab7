// Package kex implements SSH key exchange negotiation and key derivation:
// KEXINIT marshaling, algorithm negotiation, the ext-info/strict-kex
// pseudo-algorithms, and the default curve25519-sha256 method (spec.md
// §4.3, component C3).
package kex

import (
	"crypto/rand"

	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

// Role mirrors transport.Role without importing it, to keep kex
// dependency-free of the framing layer (only Connection controller (C7)
// needs both).
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) tag() string {
	if r == RoleClient {
		return "c"
	}
	return "s"
}

func (r Role) peerTag() string {
	if r == RoleClient {
		return "s"
	}
	return "c"
}

// Init is the parsed KEXINIT payload (spec.md §4.3).
type Init struct {
	Cookie                  [16]byte
	KexAlgorithms           []string
	HostKeyAlgorithms       []string
	CiphersClientToServer   []string
	CiphersServerToClient   []string
	MACsClientToServer      []string
	MACsServerToClient      []string
	CompressionClientToServer []string
	CompressionServerToClient []string
	LanguagesClientToServer []string
	LanguagesServerToClient []string
	FirstKexPacketFollows  bool
}

// NewInit builds a KEXINIT for role, appending the ext-info-<role> and
// kex-strict-<role>-v00@openssh.com pseudo-algorithms to the kex list, per
// spec.md §4.3.
func NewInit(role Role, kexAlgs, hostKeyAlgs, encC2S, encS2C, macC2S, macS2C, cmpC2S, cmpS2C []string) (*Init, error) {
	in := &Init{
		KexAlgorithms:             append(append([]string{}, kexAlgs...), "ext-info-"+role.tag(), "kex-strict-"+role.tag()+"-v00@openssh.com"),
		HostKeyAlgorithms:         hostKeyAlgs,
		CiphersClientToServer:     encC2S,
		CiphersServerToClient:     encS2C,
		MACsClientToServer:        macC2S,
		MACsServerToClient:        macS2C,
		CompressionClientToServer: cmpC2S,
		CompressionServerToClient: cmpS2C,
	}
	if _, err := rand.Read(in.Cookie[:]); err != nil {
		return nil, errors.Wrap(err, "ssh: generating KEXINIT cookie")
	}
	return in, nil
}

// Marshal encodes the KEXINIT payload (without the leading message-type
// byte, which the caller prefixes).
func (in *Init) Marshal() []byte {
	buf := wire.NewBuffer(append([]byte(nil), in.Cookie[:]...))
	buf.AppendNameList(in.KexAlgorithms)
	buf.AppendNameList(in.HostKeyAlgorithms)
	buf.AppendNameList(in.CiphersClientToServer)
	buf.AppendNameList(in.CiphersServerToClient)
	buf.AppendNameList(in.MACsClientToServer)
	buf.AppendNameList(in.MACsServerToClient)
	buf.AppendNameList(in.CompressionClientToServer)
	buf.AppendNameList(in.CompressionServerToClient)
	buf.AppendNameList(in.LanguagesClientToServer)
	buf.AppendNameList(in.LanguagesServerToClient)
	buf.AppendBool(in.FirstKexPacketFollows)
	buf.AppendUint32(0) // reserved
	return buf.Bytes()
}

// Unmarshal decodes a KEXINIT payload.
func Unmarshal(payload []byte) (*Init, error) {
	buf := wire.NewBuffer(payload)
	in := &Init{}
	return unmarshalInit(buf, in)
}

func unmarshalInit(buf *wire.Buffer, in *Init) (*Init, error) {
	if buf.Len() < 16 {
		return nil, wire.MalformedPacket
	}
	copy(in.Cookie[:], buf.Bytes()[:16])
	// advance past the cookie by consuming 16 raw bytes via ConsumeByte
	for i := 0; i < 16; i++ {
		if _, err := buf.ConsumeByte(); err != nil {
			return nil, err
		}
	}

	fields := []*[]string{
		&in.KexAlgorithms, &in.HostKeyAlgorithms,
		&in.CiphersClientToServer, &in.CiphersServerToClient,
		&in.MACsClientToServer, &in.MACsServerToClient,
		&in.CompressionClientToServer, &in.CompressionServerToClient,
		&in.LanguagesClientToServer, &in.LanguagesServerToClient,
	}
	for _, f := range fields {
		nl, err := buf.ConsumeNameList()
		if err != nil {
			return nil, err
		}
		*f = nl
	}

	follows, err := buf.ConsumeBool()
	if err != nil {
		return nil, err
	}
	in.FirstKexPacketFollows = follows

	if _, err := buf.ConsumeUint32(); err != nil { // reserved
		return nil, err
	}

	return in, nil
}

// HasPseudoAlgorithm reports whether name is present in the kex list.
func (in *Init) HasPseudoAlgorithm(name string) bool {
	for _, a := range in.KexAlgorithms {
		if a == name {
			return true
		}
	}
	return false
}

// SupportsExtInfo reports whether the peer (in is the peer's KEXINIT)
// advertised willingness to exchange EXT_INFO with us.
func (in *Init) SupportsExtInfo(peerRole Role) bool {
	return in.HasPseudoAlgorithm("ext-info-" + peerRole.tag())
}

// SupportsStrictKex reports whether the peer advertised the strict-kex
// extension for peerRole.
func (in *Init) SupportsStrictKex(peerRole Role) bool {
	return in.HasPseudoAlgorithm("kex-strict-" + peerRole.tag() + "-v00@openssh.com")
}

// KeyExchangeFailed is returned when a category has no algorithm overlap
// (spec.md §4.3).
type KeyExchangeFailed struct {
	Category string
}

func (e *KeyExchangeFailed) Error() string {
	return "ssh: no common algorithm for " + e.Category
}

// Negotiated holds the per-category algorithm choices (spec.md §4.3
// Algorithm selection).
type Negotiated struct {
	Kex, HostKey                     string
	CipherC2S, CipherS2C             string
	MACC2S, MACS2C                   string
	CompressionC2S, CompressionS2C   string
}

// clean drops empty names from a name-list before matching. The
// pseudo-algorithms are removed separately, by withoutPseudo.
func clean(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func firstMatch(clientPref, serverHas []string) (string, bool) {
	set := make(map[string]bool, len(serverHas))
	for _, s := range serverHas {
		set[s] = true
	}
	for _, c := range clientPref {
		if set[c] {
			return c, true
		}
	}
	return "", false
}

// pick applies spec.md §4.3: "Client's ordered preference wins: choose
// the first client algorithm the server also lists." The kex pseudo-
// algorithms (ext-info-*, kex-strict-*) are excluded from the kex
// category match since they describe capabilities, not key-exchange
// methods.
func pick(category string, clientList, serverList []string, excludePseudo bool) (string, error) {
	cl, sl := clean(clientList), clean(serverList)
	if excludePseudo {
		cl = withoutPseudo(cl)
		sl = withoutPseudo(sl)
	}
	name, ok := firstMatch(cl, sl)
	if !ok {
		return "", &KeyExchangeFailed{Category: category}
	}
	return name, nil
}

func withoutPseudo(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "ext-info-c" || n == "ext-info-s" ||
			n == "kex-strict-c-v00@openssh.com" || n == "kex-strict-s-v00@openssh.com" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Negotiate performs spec.md §4.3 Algorithm selection. client and server
// are the two sides' KEXINITs, regardless of who is actually acting as
// transport.RoleClient/RoleServer — the client's ORDER always wins, per
// the spec.
func Negotiate(client, server *Init) (*Negotiated, error) {
	var n Negotiated
	var err error

	if n.Kex, err = pick("kex", client.KexAlgorithms, server.KexAlgorithms, true); err != nil {
		return nil, err
	}
	if n.HostKey, err = pick("host-key", client.HostKeyAlgorithms, server.HostKeyAlgorithms, false); err != nil {
		return nil, err
	}
	if n.CipherC2S, err = pick("enc_c2s", client.CiphersClientToServer, server.CiphersClientToServer, false); err != nil {
		return nil, err
	}
	if n.CipherS2C, err = pick("enc_s2c", client.CiphersServerToClient, server.CiphersServerToClient, false); err != nil {
		return nil, err
	}
	if n.MACC2S, err = pick("mac_c2s", client.MACsClientToServer, server.MACsClientToServer, false); err != nil {
		return nil, err
	}
	if n.MACS2C, err = pick("mac_s2c", client.MACsServerToClient, server.MACsServerToClient, false); err != nil {
		return nil, err
	}
	if n.CompressionC2S, err = pick("cmp_c2s", client.CompressionClientToServer, server.CompressionClientToServer, false); err != nil {
		return nil, err
	}
	if n.CompressionS2C, err = pick("cmp_s2c", client.CompressionServerToClient, server.CompressionServerToClient, false); err != nil {
		return nil, err
	}
	return &n, nil
}

// exchangeHashPrefix is a convenience used by Method implementations to
// seed the sha256 transcript with both sides' KEXINIT payloads, a common
// step across all KEX methods (RFC 4253 §8).
func exchangeHashPrefix(h interface{ Write([]byte) (int, error) }, clientVersion, serverVersion string, clientInitPayload, serverInitPayload []byte) {
	writeString(h, clientVersion)
	writeString(h, serverVersion)
	writeString(h, string(clientInitPayload))
	writeString(h, string(serverInitPayload))
}

func writeString(h interface{ Write([]byte) (int, error) }, s string) {
	b := wire.NewBuffer(nil)
	b.AppendString(s)
	h.Write(b.Bytes())
}
