package ssh

import (
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/auth"
	"github.com/ardenhq/sshrelay/transport"
)

// Client is the application-facing handle returned by Dial: a completed
// handshake and authentication, ready to open channels.
type Client struct {
	*Connection
}

// Dial connects to addr over TCP, performs the version/KEX handshake and
// authenticates with methods, in order.
func Dial(addr, user string, methods []auth.ClientMethod, cfg *Config) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return nil, errors.Wrap(err, "ssh: dialing")
	}
	return NewClient(conn, user, methods, cfg)
}

// NewClient wraps an already-connected io.ReadWriteCloser and drives the
// handshake/auth sequence over it.
func NewClient(rwc io.ReadWriteCloser, user string, methods []auth.ClientMethod, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := NewConnection(rwc, transport.RoleClient, cfg, nil)
	if cfg.LoginTimeout > 0 {
		_ = setDeadline(rwc, time.Now().Add(cfg.LoginTimeout))
	}

	if err := c.Handshake(); err != nil {
		c.Close()
		return nil, err
	}

	driver := auth.NewClientDriver(user, auth.ServiceName, c.t.SessionID(), methods)
	if err := c.RunClientAuth(driver); err != nil {
		c.Close()
		return nil, err
	}

	if cfg.LoginTimeout > 0 {
		_ = setDeadline(rwc, time.Time{})
	}

	return &Client{Connection: c}, nil
}

func setDeadline(rwc interface{}, t time.Time) error {
	type deadliner interface{ SetDeadline(time.Time) error }
	if d, ok := rwc.(deadliner); ok {
		return d.SetDeadline(t)
	}
	return nil
}
