package auth

import (
	"strings"

	"github.com/ardenhq/sshrelay/wire"
)

// ServerSigAlgsExtension lists the signature algorithm names this driver's
// server role advertises via EXT_INFO's server-sig-algs extension
// (RFC 8332 §4), most-preferred first.
var ServerSigAlgsExtension = []string{
	"rsa-sha2-512",
	"rsa-sha2-256",
	"ssh-rsa",
	"ssh-ed25519",
	"ecdsa-sha2-nistp256",
	"ecdsa-sha2-nistp384",
	"ecdsa-sha2-nistp521",
}

// ExtInfo is the parsed EXT_INFO payload (RFC 8308 §3.1): an ordered list
// of extension name/value pairs a peer sends exactly once, immediately
// after its first NEWKEYS.
type ExtInfo struct {
	Extensions map[string]string
}

// MarshalExtInfo builds an EXT_INFO payload advertising server-sig-algs
// (sigAlgs, comma-joined) and global-requests-ok (an empty value, per
// RFC 8308 §3.2: "I will reply SUCCESS/FAILURE to every GLOBAL_REQUEST").
func MarshalExtInfo(sigAlgs []string) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(2)
	buf.AppendString("server-sig-algs")
	buf.AppendString(strings.Join(sigAlgs, ","))
	buf.AppendString("global-requests-ok")
	buf.AppendString("")
	return buf.Bytes()
}

// ParseExtInfo decodes an EXT_INFO payload into a name→value map.
func ParseExtInfo(payload []byte) (*ExtInfo, error) {
	buf := wire.NewBuffer(payload)

	n, err := buf.ConsumeUint32()
	if err != nil {
		return nil, err
	}

	info := &ExtInfo{Extensions: make(map[string]string, n)}
	for i := uint32(0); i < n; i++ {
		name, err := buf.ConsumeString()
		if err != nil {
			return nil, err
		}
		value, err := buf.ConsumeString()
		if err != nil {
			return nil, err
		}
		info.Extensions[name] = value
	}
	return info, nil
}

// ServerSigAlgs splits the server-sig-algs extension value, if the peer
// sent one, into its comma-separated algorithm names.
func (i *ExtInfo) ServerSigAlgs() []string {
	if i == nil {
		return nil
	}
	v, ok := i.Extensions["server-sig-algs"]
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
