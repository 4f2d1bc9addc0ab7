package ssh

import (
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/auth"
	"github.com/ardenhq/sshrelay/internal/xlog"
	"github.com/ardenhq/sshrelay/transport"
)

// Server accepts connections on a listener and, for each one, runs the
// handshake and authentication and then hands the Connection to Handler.
type Server struct {
	Config   *Config
	HostKey  *HostKey
	Policy   auth.ServerPolicy

	// Handler is invoked once per accepted, authenticated Connection; it
	// owns the rest of that connection's lifetime (typically calling
	// Serve after registering On* callbacks).
	Handler func(c *Connection, user string)
}

// ListenAndServe accepts TCP connections on addr until the listener
// errors or is closed.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "ssh: listening")
	}
	defer ln.Close()

	log := xlog.Component("server")
	for {
		conn, err := ln.Accept()
		if err != nil {
			return errors.Wrap(err, "ssh: accepting connection")
		}
		go func() {
			if err := s.handleConn(conn); err != nil {
				log.WithError(err).Info("connection terminated")
			}
		}()
	}
}

func (s *Server) handleConn(rwc io.ReadWriteCloser) error {
	defer rwc.Close()

	cfg := s.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := NewConnection(rwc, transport.RoleServer, cfg, s.HostKey)

	if cfg.LoginTimeout > 0 {
		_ = setDeadline(rwc, time.Now().Add(cfg.LoginTimeout))
	}

	if err := c.Handshake(); err != nil {
		return err
	}

	driver := &auth.ServerDriver{
		Policy:             s.Policy,
		MaxTries:           cfg.MaxAuthTries,
		DisableTrivialAuth: cfg.DisableTrivialAuth,
	}
	user, err := c.RunServerAuth(driver)
	if err != nil {
		return err
	}

	if cfg.LoginTimeout > 0 {
		_ = setDeadline(rwc, time.Time{})
	}

	if s.Handler != nil {
		s.Handler(c, user)
	}
	return nil
}
