// Package ssh implements the Connection controller (spec.md §4.7,
// component C7): the dispatch loop that drives transport, kex, auth and
// channel together into a usable client/server facade, plus the Config
// surface applications tune.
package ssh

import (
	"time"

	"github.com/ardenhq/sshrelay/kex"
	"github.com/ardenhq/sshrelay/transport"
)

// Config holds the tunable algorithm lists and policy knobs of spec.md §3
// Connection attributes. Algorithm list fields accept the OpenSSH
// "^default,+extra,-remove" prefix syntax via ResolveAlgorithms.
type Config struct {
	Version string // banner string; defaults to transport.DefaultVersion

	KexAlgorithms     []string
	HostKeyAlgorithms []string
	Ciphers           []string
	MACs              []string
	Compression       []string

	RekeyBytes   uint64
	RekeySeconds time.Duration

	LoginTimeout    time.Duration
	KeepaliveInterval time.Duration
	KeepaliveCountMax int

	DisableTrivialAuth bool
	MaxAuthTries       int

	// SFTPMaxVersion caps the SFTP protocol version this side will
	// negotiate (spec.md §4.8); 0 means no cap beyond the codec's own max.
	SFTPMaxVersion uint32
}

// DefaultCiphers/DefaultMACs/DefaultCompression are spec.md §6's ambient
// default algorithm sets, in preference order.
var (
	DefaultCiphers     = []string{"chacha20-poly1305@openssh.com", "blowfish-cbc"}
	DefaultMACs        = []string{"hmac-sha2-256-etm@openssh.com", "hmac-sha2-256"}
	DefaultCompression = []string{"none", "zlib@openssh.com"}
)

// DefaultConfig returns a Config populated with this module's ambient
// defaults: every registered KEX method, the two ciphers this module
// implements, and spec.md §4.2's default rekey policy.
func DefaultConfig() *Config {
	return &Config{
		Version:           transport.DefaultVersion,
		KexAlgorithms:     kex.Names(),
		HostKeyAlgorithms: []string{"ssh-ed25519", "rsa-sha2-512", "rsa-sha2-256", "ssh-rsa"},
		Ciphers:           DefaultCiphers,
		MACs:              DefaultMACs,
		Compression:       DefaultCompression,
		RekeyBytes:        transport.DefaultRekeyConfig.Bytes,
		RekeySeconds:      transport.DefaultRekeyConfig.Seconds,
		LoginTimeout:      2 * time.Minute,
		KeepaliveInterval: 0,
		KeepaliveCountMax: 3,
		MaxAuthTries:      20,
	}
}

// ResolveAlgorithms expands the "^default-list,+extra,-remove" syntax
// (spec.md §3) against a base default list.
func ResolveAlgorithms(spec []string, defaults []string) []string {
	if len(spec) == 0 {
		return defaults
	}

	out := append([]string(nil), defaults...)
	for _, tok := range spec {
		if tok == "" {
			continue
		}
		switch tok[0] {
		case '^':
			base := tok[1:]
			out = append([]string(nil), splitCSV(base)...)
		case '+':
			for _, a := range splitCSV(tok[1:]) {
				if !contains(out, a) {
					out = append(out, a)
				}
			}
		case '-':
			removeSet := map[string]bool{}
			for _, a := range splitCSV(tok[1:]) {
				removeSet[a] = true
			}
			filtered := out[:0:0]
			for _, a := range out {
				if !removeSet[a] {
					filtered = append(filtered, a)
				}
			}
			out = filtered
		default:
			out = append([]string(nil), splitCSV(tok)...)
		}
	}
	return out
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
