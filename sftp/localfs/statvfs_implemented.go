//go:build aix || freebsd || darwin || dragonfly || openbsd || linux
// +build aix freebsd darwin dragonfly openbsd linux

package localfs

import (
	"context"

	"github.com/ardenhq/sshrelay/sftp/encoding/ssh/filexfer/openssh"
	"github.com/ardenhq/sshrelay/sftp/localfs/statvfs"
)

// StatVFS implements sftp.StatVFSFileHandler.
func (f *File) StatVFS() (*openssh.StatVFSExtendedReplyPacket, error) {
	return statvfs.StatVFS(f.filename)
}

// StatVFS implements sftp.StatVFSServerHandler.
func (s *ServerHandler) StatVFS(_ context.Context, req *openssh.StatVFSExtendedPacket) (*openssh.StatVFSExtendedReplyPacket, error) {
	return statvfs.StatVFS(req.Path)
}
