package kex

import (
	"github.com/cornelk/hashmap"
)

// Method implements one concrete key-exchange algorithm (spec.md §6 KEX
// method collaborator): a mini state machine driven by incoming
// KEX-specific packets (message numbers 30-49, spec.md §4.7) that
// eventually yields a shared secret K and exchange hash H.
type Method interface {
	// Name is the algorithm name as advertised in KEXINIT, e.g.
	// "curve25519-sha256".
	Name() string

	// Start begins the exchange from role's side, returning the first
	// message to send (type byte + payload), or no message if this
	// role only reacts to the peer's first message.
	Start(role Role) (msgType byte, payload []byte, err error)

	// ProcessPacket advances the state machine. done is true once K and H
	// are available; reply is non-nil if a message must be sent in
	// response.
	ProcessPacket(msgType byte, payload []byte) (replyType byte, reply []byte, done bool, err error)

	// Result returns the shared secret and exchange hash once done.
	Result() (K []byte, H []byte, err error)

	// ComputeKey implements the spec.md §4.3 PRF: derive key material of
	// the given length, seeded by (K, H, sessionID, letter).
	ComputeKey(K, H, sessionID []byte, letter byte, length int) []byte
}

// Factory constructs a fresh Method instance for one key exchange.
type Factory func() Method

// TranscriptConfigurable is implemented by Methods that need the RFC 4253
// §8 exchange-hash transcript (both banners, both KEXINIT payloads)
// seeded before Start/ProcessPacket runs. The Connection controller (C7)
// type-asserts for this rather than widening the Method interface itself,
// since not every conceivable KEX method needs a host-key signature step
// (e.g. a future GSS-API method would not).
type TranscriptConfigurable interface {
	ConfigureTranscript(clientVersion, serverVersion string, clientInit, serverInit []byte)
}

// HostKeyConfigurable is implemented by Methods that sign or verify the
// exchange hash with a host key (the default curve25519-sha256 among
// them).
type HostKeyConfigurable interface {
	ConfigureHostKey(blob []byte, sign func([]byte) ([]byte, error), verify func(pub, data, sig []byte) bool)
}

// registry is the process-wide algorithm registry (spec.md §9: "Global
// singletons... algorithm registries initialized once at program start").
// It is backed by a lock-free concurrent map because Method/cipher/MAC
// lookups happen on every Connection's KEX, and spec.md §9 requires the
// registry to tolerate many Connections being created concurrently
// without a shared mutex becoming a bottleneck.
var registry = hashmap.New[string, Factory]()

// Register adds (or replaces) a KEX method factory under name. Called
// from init() by each concrete method's file (e.g. curve25519.go).
func Register(name string, f Factory) {
	registry.Set(name, f)
}

// Lookup returns the factory registered under name, if any.
func Lookup(name string) (Factory, bool) {
	return registry.Get(name)
}

// Names returns every registered method name, for building the default
// KEX algorithm preference list.
func Names() []string {
	var names []string
	registry.Range(func(name string, _ Factory) bool {
		names = append(names, name)
		return true
	})
	return names
}
