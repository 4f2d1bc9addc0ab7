package ssh

import (
	"github.com/ardenhq/sshrelay/kex"
	"github.com/ardenhq/sshrelay/transport"
)

// configureMethod seeds a freshly constructed kex.Method with the
// transcript and host-key material it needs, via the optional
// TranscriptConfigurable/HostKeyConfigurable interfaces so that adding a
// KEX method with different requirements (e.g. none) doesn't force every
// method to carry unused hooks.
func configureMethod(method kex.Method, clientVersion, serverVersion string, clientPayload, serverPayload []byte, role transport.Role, hostKey *HostKey) {
	if tc, ok := method.(kex.TranscriptConfigurable); ok {
		tc.ConfigureTranscript(clientVersion, serverVersion, clientPayload, serverPayload)
	}

	hc, ok := method.(kex.HostKeyConfigurable)
	if !ok {
		return
	}

	if role == transport.RoleServer {
		if hostKey == nil {
			return
		}
		hc.ConfigureHostKey(hostKey.Blob(), hostKey.Sign, nil)
		return
	}

	// Client role: verify the server's signature against whatever blob
	// it presents. ssh.Config has no host-key callback and no
	// known_hosts style check is made, so any host key whose signature
	// verifies is accepted.
	hc.ConfigureHostKey(nil, nil, VerifyBlob)
}
