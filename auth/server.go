package auth

import (
	"github.com/ardenhq/sshrelay/wire"
)

// ServerPolicy is supplied by the application embedding this driver.
// Password, PublicKeyVerify and KeyboardInteractiveReply return
// (authenticated, partialSuccess, error). Any non-nil error a callback
// returns, PermissionDenied included, ends the exchange: ServerDriver
// returns it to its caller and sends no USERAUTH_FAILURE for it.
type ServerPolicy struct {
	None func(user string) (ok bool)

	Password func(user, password string) (ok, partial bool, err error)

	// PublicKey validates that (algo, blob) is an acceptable key for
	// user, independent of whether a signature was actually supplied
	// (the query phase, RFC 4252 §7).
	PublicKey func(user, algo string, blob []byte) (ok bool, err error)

	// PublicKeyVerify checks the signature over signedData once a
	// signed USERAUTH_REQUEST arrives.
	PublicKeyVerify func(user, algo string, blob, signedData, sig []byte) (ok, partial bool, err error)

	KeyboardInteractive func(user string) (prompts []Prompt, err error)
	KeyboardInteractiveReply func(user string, answers []string) (ok, partial bool, err error)
}

// Prompt is one keyboard-interactive challenge line (RFC 4256 §3.2).
type Prompt struct {
	Text  string
	Echo  bool
}

// ServerDriver tracks the remaining method set and failure count for one
// login attempt, per spec.md §4.4's server-side method bookkeeping
// (disable_trivial_auth, max auth tries).
type ServerDriver struct {
	Policy      ServerPolicy
	MaxTries    int // 0 means unlimited
	DisableTrivialAuth bool

	tries int
	authenticatedViaNonTrivial bool
}

// MsgServiceAcceptPayload returns the USERAUTH service-accept payload.
func MsgServiceAcceptPayload(service string) []byte {
	return MarshalServiceRequest(service)
}

// HandleRequest parses and dispatches one USERAUTH_REQUEST, returning
// either a USERAUTH_SUCCESS (ok=true), a USERAUTH_FAILURE payload with the
// remaining methods, or an intermediate continuation message (PK_OK,
// INFO_REQUEST) to send back to the client.
//
// sessionID and the raw request bytes are needed to reconstruct the
// signed data a publickey signature must verify (RFC 4252 §7).
func (d *ServerDriver) HandleRequest(sessionID []byte, payload []byte) (msgType byte, reply []byte, success bool, err error) {
	buf := wire.NewBuffer(payload)
	h, err := ParseRequestHeader(buf)
	if err != nil {
		return 0, nil, false, err
	}
	if h.Service != ServiceName && h.Service != "ssh-connection" {
		return 0, nil, false, &ServiceNotAvailable{Service: h.Service}
	}

	d.tries++
	if d.MaxTries > 0 && d.tries > d.MaxTries {
		return 0, nil, false, &PermissionDenied{Reason: "too many authentication attempts"}
	}

	switch h.Method {
	case "none":
		ok := d.Policy.None != nil && d.Policy.None(h.User)
		return d.result(ok, false, false)

	case "password":
		if d.Policy.Password == nil {
			return d.failure(nil, false)
		}
		if _, err := buf.ConsumeBool(); err != nil { // password-change flag, ignored on first submit
			return 0, nil, false, err
		}
		pw, err := buf.ConsumeString()
		if err != nil {
			return 0, nil, false, err
		}
		ok, partial, err := d.Policy.Password(h.User, pw)
		if err != nil {
			return 0, nil, false, err
		}
		return d.result(ok, partial, false)

	case "publickey":
		return d.handlePublickey(sessionID, h, buf, payload)

	case "keyboard-interactive":
		if d.Policy.KeyboardInteractive == nil {
			return d.failure(nil, false)
		}
		prompts, err := d.Policy.KeyboardInteractive(h.User)
		if err != nil {
			return 0, nil, false, err
		}
		out := wire.NewBuffer(nil)
		out.AppendString("")
		out.AppendString("")
		out.AppendUint32(uint32(len(prompts)))
		for _, p := range prompts {
			out.AppendString(p.Text)
			out.AppendBool(p.Echo)
		}
		return MsgUserAuthInfoRequest, out.Bytes(), false, nil

	default:
		return d.failure(nil, false)
	}
}

// HandleInfoResponse processes USERAUTH_INFO_RESPONSE for an in-flight
// keyboard-interactive exchange.
func (d *ServerDriver) HandleInfoResponse(user string, payload []byte) (msgType byte, reply []byte, success bool, err error) {
	buf := wire.NewBuffer(payload)
	n, err := buf.ConsumeUint32()
	if err != nil {
		return 0, nil, false, err
	}
	answers := make([]string, n)
	for i := range answers {
		if answers[i], err = buf.ConsumeString(); err != nil {
			return 0, nil, false, err
		}
	}
	if d.Policy.KeyboardInteractiveReply == nil {
		return d.failure(nil, false)
	}
	ok, partial, err := d.Policy.KeyboardInteractiveReply(user, answers)
	if err != nil {
		return 0, nil, false, err
	}
	return d.result(ok, partial, false)
}

func (d *ServerDriver) handlePublickey(sessionID []byte, h RequestHeader, buf *wire.Buffer, rawPayload []byte) (byte, []byte, bool, error) {
	hasSig, err := buf.ConsumeBool()
	if err != nil {
		return 0, nil, false, err
	}
	algo, err := buf.ConsumeString()
	if err != nil {
		return 0, nil, false, err
	}
	blob, err := buf.ConsumeByteSlice()
	if err != nil {
		return 0, nil, false, err
	}

	if d.Policy.PublicKey == nil {
		return d.failure(nil, false)
	}
	ok, err := d.Policy.PublicKey(h.User, algo, blob)
	if err != nil {
		return 0, nil, false, err
	}
	if !ok {
		return d.failure(nil, false)
	}

	if !hasSig {
		// Query phase: echo back algo/blob in USERAUTH_PK_OK (RFC 4252 §7).
		out := wire.NewBuffer(nil)
		out.AppendString(algo)
		out.AppendByteSlice(blob)
		return MsgUserAuthPubkeyOK, out.Bytes(), false, nil
	}

	sig, err := buf.ConsumeByteSlice()
	if err != nil {
		return 0, nil, false, err
	}

	// The signed data is session_id followed by the same fields the
	// client built in publickey.go's sign(): header + has_signature=true
	// + algo + blob, reconstructed here from what the server already
	// parsed rather than re-sliced out of rawPayload.
	signedFields := wire.NewBuffer(nil)
	signedFields.AppendByteSlice(sessionID)
	MarshalRequestHeader(signedFields, RequestHeader{User: h.User, Service: h.Service, Method: "publickey"})
	signedFields.AppendBool(true)
	signedFields.AppendString(algo)
	signedFields.AppendByteSlice(blob)
	signedData := signedFields.Bytes()

	vok, partial, err := d.Policy.PublicKeyVerify(h.User, algo, blob, signedData, sig)
	if err != nil {
		return 0, nil, false, err
	}
	return d.result(vok, partial, true)
}

func (d *ServerDriver) result(ok, partial, nonTrivial bool) (byte, []byte, bool, error) {
	if ok {
		if nonTrivial {
			d.authenticatedViaNonTrivial = true
		}
		if d.DisableTrivialAuth && !d.authenticatedViaNonTrivial {
			return d.failure(nil, false)
		}
		return MsgUserAuthSuccess, nil, true, nil
	}
	return d.failure(nil, partial)
}

func (d *ServerDriver) failure(remaining []string, partial bool) (byte, []byte, bool, error) {
	if remaining == nil {
		// Advertise every method the policy can complete.
		if d.Policy.PublicKey != nil && d.Policy.PublicKeyVerify != nil {
			remaining = append(remaining, "publickey")
		}
		if d.Policy.Password != nil {
			remaining = append(remaining, "password")
		}
		if d.Policy.KeyboardInteractive != nil && d.Policy.KeyboardInteractiveReply != nil {
			remaining = append(remaining, "keyboard-interactive")
		}
	}
	f := &Failure{Remaining: remaining, Partial: partial}
	return MsgUserAuthFailure, f.Marshal(), false, nil
}
