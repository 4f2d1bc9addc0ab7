package sftp

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// StatusError is an SFTP protocol-level error carrying an SSH_FX_* status
// code, as sent in an SSH_FXP_STATUS response.
type StatusError struct {
	Code uint32
	msg  string
	lang string
}

func (s *StatusError) Error() string {
	if s.msg == "" {
		return fxerr(s.Code).Error()
	}
	return s.msg
}

// FxCode returns the SSH_FX_* status code carried by this error.
func (s *StatusError) FxCode() uint32 {
	return s.Code
}

// Is reports whether target represents the same SSH_FX_code.
func (s *StatusError) Is(target error) bool {
	if t, ok := target.(fxerr); ok {
		return fxerr(s.Code) == t
	}
	return false
}

// unexpectedIDErr is returned by the client when a response packet's
// request ID does not match the request it was expecting.
type unexpectedIDErr struct {
	want, got uint32
}

func (u *unexpectedIDErr) Error() string {
	return "sftp: unexpected id: wanted " + itoa(u.want) + ", got " + itoa(u.got)
}

// unexpectedPacketErr is returned by the client when a response packet's
// wire type does not match what the request expected.
type unexpectedPacketErr struct {
	want, got uint8
}

func (u *unexpectedPacketErr) Error() string {
	return "sftp: unexpected packet: wanted " + itoa(uint32(u.want)) + ", got " + itoa(uint32(u.got))
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// statusFromError builds the SSH_FXP_STATUS response for id describing err.
// A nil err maps to SSH_FX_OK.
func statusFromError(id uint32, err error) SSHFxpStatusPacket {
	ret := SSHFxpStatusPacket{
		ID: id,
		StatusError: StatusError{
			Code: sshFxOk,
		},
	}
	if err == nil {
		return ret
	}

	ret.StatusError.Code = sshFxFailure
	ret.StatusError.msg = err.Error()

	switch e := err.(type) {
	case *StatusError:
		ret.StatusError.Code = e.Code
		ret.StatusError.msg = e.msg
		ret.StatusError.lang = e.lang
		return ret
	case fxerr:
		ret.StatusError.Code = uint32(e)
		return ret
	case syscall.Errno:
		ret.StatusError.Code = uint32(translateErrno(e))
		return ret
	case *os.PathError:
		if errno, ok := e.Err.(syscall.Errno); ok {
			ret.StatusError.Code = uint32(translateErrno(errno))
			return ret
		}
	case *os.LinkError:
		if errno, ok := e.Err.(syscall.Errno); ok {
			ret.StatusError.Code = uint32(translateErrno(errno))
			return ret
		}
	case *os.SyscallError:
		if errno, ok := e.Err.(syscall.Errno); ok {
			ret.StatusError.Code = uint32(translateErrno(errno))
			return ret
		}
	}

	switch {
	case err == io.EOF:
		ret.StatusError.Code = sshFxEOF
	case os.IsNotExist(err):
		ret.StatusError.Code = sshFxNoSuchFile
	case os.IsPermission(err):
		ret.StatusError.Code = sshFxPermissionDenied
	case errors.Is(err, os.ErrInvalid):
		ret.StatusError.Code = sshFxBadMessage
	}

	return ret
}

// StatusFromError builds the ResponsePacket carrying the SSH_FXP_STATUS
// reply for pkt describing err. A nil err maps to SSH_FX_OK.
func StatusFromError(pkt interface{ Id() uint32 }, err error) ResponsePacket {
	s := statusFromError(pkt.Id(), err)
	return &s
}
