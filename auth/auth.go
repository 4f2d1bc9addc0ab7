// Package auth implements the SSH user authentication protocol (RFC 4252)
// driver: service request/accept, client method sequencing, and the
// server-side per-method sub-state machines (spec.md §4.4, component C4).
package auth

import (
	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

const (
	MsgServiceRequest = 5
	MsgServiceAccept  = 6

	MsgUserAuthRequest      = 50
	MsgUserAuthFailure      = 51
	MsgUserAuthSuccess      = 52
	MsgUserAuthBanner       = 53
	MsgUserAuthPubkeyOK     = 60 // also PASSWD_CHANGEREQ / INFO_REQUEST / INFO_RESPONSE share 60-61 by method context
	MsgUserAuthPasswdChangeReq = 60
	MsgUserAuthInfoRequest  = 60
	MsgUserAuthInfoResponse = 61
)

// ServiceName is the only service this driver negotiates, per spec.md §4.4.
const ServiceName = "ssh-userauth"

// PermissionDenied is fatal: the client's method queue emptied without a
// USERAUTH_SUCCESS (spec.md §4.4, §7).
type PermissionDenied struct{ Reason string }

func (e *PermissionDenied) Error() string { return "ssh: permission denied: " + e.Reason }

// ServiceNotAvailable is fatal (spec.md §7).
type ServiceNotAvailable struct{ Service string }

func (e *ServiceNotAvailable) Error() string {
	return "ssh: service not available: " + e.Service
}

// PasswordChangeRequired is recoverable and propagated to the application
// (spec.md §7) when the server replies USERAUTH_PASSWD_CHANGEREQ.
type PasswordChangeRequired struct{ Prompt string }

func (e *PasswordChangeRequired) Error() string { return "ssh: password change required: " + e.Prompt }

// Failure is the parsed USERAUTH_FAILURE payload.
type Failure struct {
	Remaining []string
	Partial   bool
}

func ParseFailure(payload []byte) (*Failure, error) {
	buf := wire.NewBuffer(payload)
	remaining, err := buf.ConsumeNameList()
	if err != nil {
		return nil, err
	}
	partial, err := buf.ConsumeBool()
	if err != nil {
		return nil, err
	}
	return &Failure{Remaining: remaining, Partial: partial}, nil
}

func (f *Failure) Marshal() []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendNameList(f.Remaining)
	buf.AppendBool(f.Partial)
	return buf.Bytes()
}

// MarshalServiceRequest/Accept are trivial single-string payloads.
func MarshalServiceRequest(service string) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(service)
	return buf.Bytes()
}

func ParseServiceRequest(payload []byte) (string, error) {
	return wire.NewBuffer(payload).ConsumeString()
}

// RequestHeader is the common prefix of every USERAUTH_REQUEST: user,
// service, method name.
type RequestHeader struct {
	User    string
	Service string
	Method  string
}

func ParseRequestHeader(buf *wire.Buffer) (RequestHeader, error) {
	var h RequestHeader
	var err error
	if h.User, err = buf.ConsumeString(); err != nil {
		return h, err
	}
	if h.Service, err = buf.ConsumeString(); err != nil {
		return h, err
	}
	if h.Method, err = buf.ConsumeString(); err != nil {
		return h, err
	}
	return h, nil
}

func MarshalRequestHeader(buf *wire.Buffer, h RequestHeader) {
	buf.AppendString(h.User)
	buf.AppendString(h.Service)
	buf.AppendString(h.Method)
}

// ErrNoMoreMethods is returned internally by the client queue when it
// empties; the caller (connection controller) converts it to
// PermissionDenied.
var ErrNoMoreMethods = errors.New("ssh: no more authentication methods to try")
