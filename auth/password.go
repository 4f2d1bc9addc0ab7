package auth

import (
	"github.com/ardenhq/sshrelay/wire"
)

// PasswordMethod implements the "password" client method (RFC 4252 §8).
type PasswordMethod struct {
	Password func() (string, error)

	// changeResponse, if set, supplies a new password when the server
	// replies USERAUTH_PASSWD_CHANGEREQ; nil means the application does
	// not support in-band password changes and the driver surfaces
	// PasswordChangeRequired instead.
	ChangeResponse func(prompt string) (newPassword string, ok bool)
}

func (m *PasswordMethod) Name() string { return "password" }

func (m *PasswordMethod) Request(sessionID []byte, user, service string, attempt int) ([]byte, bool, error) {
	pw, err := m.Password()
	if err != nil {
		return nil, false, err
	}

	buf := wire.NewBuffer(nil)
	MarshalRequestHeader(buf, RequestHeader{User: user, Service: service, Method: "password"})
	buf.AppendBool(false) // not a password-change response
	buf.AppendString(pw)
	return buf.Bytes(), true, nil
}

func (m *PasswordMethod) HandleExtra(msgType byte, payload []byte) ([]byte, bool, error) {
	if msgType != MsgUserAuthPasswdChangeReq {
		return nil, false, &PasswordChangeRequired{}
	}
	buf := wire.NewBuffer(payload)
	prompt, err := buf.ConsumeString()
	if err != nil {
		return nil, false, err
	}
	if m.ChangeResponse == nil {
		return nil, false, &PasswordChangeRequired{Prompt: prompt}
	}
	newPw, ok := m.ChangeResponse(prompt)
	if !ok {
		return nil, false, &PasswordChangeRequired{Prompt: prompt}
	}
	return nil, true, nil // caller restarts with the new password via Request
}
