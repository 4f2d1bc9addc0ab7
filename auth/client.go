package auth

import (
	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

// ClientMethod is one authentication method a client is willing to try,
// analogous to the AuthMethod collaborator of spec.md §6. Concrete
// methods (password, publickey, keyboard-interactive) implement it.
type ClientMethod interface {
	// Name is the wire method name, e.g. "publickey".
	Name() string

	// Request builds the USERAUTH_REQUEST payload for the given
	// sessionID (needed by publickey/hostbased signatures, RFC 4252 §7)
	// and user/service. attempt starts at 0 and increments each time
	// this method is retried for the same login (e.g. the next key in
	// an agent, or the SHA1 retry after a SHA2 cert rejection).
	Request(sessionID []byte, user, service string, attempt int) (payload []byte, done bool, err error)

	// HandleExtra processes a method-specific intermediate message (e.g.
	// USERAUTH_PK_OK for publickey's query phase, or
	// USERAUTH_INFO_REQUEST for keyboard-interactive). retry reports
	// whether the method wants attempt to restart at a higher attempt
	// index with a fresh Request call rather than giving up.
	HandleExtra(msgType byte, payload []byte) (reply []byte, retry bool, err error)
}

// ClientDriver sequences ClientMethods against USERAUTH_FAILURE/SUCCESS
// replies, per spec.md §4.4's client method queue / partial-success
// restart rule.
type ClientDriver struct {
	User, Service string
	SessionID     []byte

	queue   []ClientMethod
	current ClientMethod
	attempt int

	trivialOnly bool // disable_trivial_auth guard state, spec.md §4.4
}

// NewClientDriver seeds the queue with methods in the order the
// application wants them tried; "none" is sent first automatically to
// discover the server's advertised method list, per RFC 4252 §5.2.
func NewClientDriver(user, service string, sessionID []byte, methods []ClientMethod) *ClientDriver {
	return &ClientDriver{User: user, Service: service, SessionID: sessionID, queue: methods}
}

// Start returns the initial "none" USERAUTH_REQUEST used to learn which
// methods the server actually supports before committing to one
// (spec.md §4.4).
func (d *ClientDriver) Start() []byte {
	buf := wire.NewBuffer(nil)
	MarshalRequestHeader(buf, RequestHeader{User: d.User, Service: d.Service, Method: "none"})
	return buf.Bytes()
}

// Next advances the queue after a USERAUTH_FAILURE, filtering the queue
// down to methods the server actually listed (remaining), and returns the
// next USERAUTH_REQUEST payload to send. It returns ErrNoMoreMethods when
// the queue is exhausted.
func (d *ClientDriver) Next(remaining []string) ([]byte, error) {
	allowed := make(map[string]bool, len(remaining))
	for _, m := range remaining {
		allowed[m] = true
	}

	for len(d.queue) > 0 {
		m := d.queue[0]
		if !allowed[m.Name()] {
			d.queue = d.queue[1:]
			continue
		}

		payload, done, err := m.Request(d.SessionID, d.User, d.Service, d.attempt)
		if err != nil {
			return nil, err
		}
		if !done {
			// Method wants another round (e.g. publickey's query phase
			// already consumed this Request call); caller sends payload
			// and waits for the method-specific reply via HandleExtra.
			d.current = m
			return payload, nil
		}

		d.current = nil
		d.attempt = 0
		d.queue = d.queue[1:]
		return payload, nil
	}

	return nil, ErrNoMoreMethods
}

// HandleExtra dispatches a method-specific packet (PK_OK, INFO_REQUEST,
// PASSWD_CHANGEREQ) to the in-flight method. A non-nil reply is a
// complete USERAUTH_REQUEST the caller must send verbatim; if the server
// then answers with USERAUTH_FAILURE, the next Next() call must try the
// next algorithm/identity rather than repeat this one, so sending a reply
// here always advances attempt. retry additionally advances attempt when
// the method wants to retry the SAME Request call (e.g. a changed
// password) without a reply of its own.
func (d *ClientDriver) HandleExtra(msgType byte, payload []byte) ([]byte, error) {
	if d.current == nil {
		return nil, errors.New("ssh: unexpected authentication continuation packet")
	}
	reply, retry, err := d.current.HandleExtra(msgType, payload)
	if err != nil {
		return nil, err
	}
	if retry || reply != nil {
		d.attempt++
	}
	return reply, nil
}

// RestartAfterPartialSuccess is called after a USERAUTH_FAILURE with
// partial_success=true, so that partial success is not treated as a
// terminal failure. It resets the attempt counter and drops the in-flight
// method; the queue itself is not rebuilt, so the following Next call
// filters the methods still queued down to the server's reduced
// "remaining" list. Methods already removed from the queue are not tried
// again.
func (d *ClientDriver) RestartAfterPartialSuccess() {
	d.attempt = 0
	d.current = nil
}
