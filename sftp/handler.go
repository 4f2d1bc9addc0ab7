package sftp

import (
	"context"
	"io"

	sshfx "github.com/ardenhq/sshrelay/sftp/encoding/ssh/filexfer"
	"github.com/ardenhq/sshrelay/sftp/encoding/ssh/filexfer/openssh"
)

// ServerHandler is the interface a backend implements to serve SFTP requests
// using the filexfer wire types directly, rather than the higher-level
// Request abstraction used by the Handlers-based Server.
//
// Implementations must embed UnimplementedServerHandler to remain
// forward-compatible with new methods added to this interface.
type ServerHandler interface {
	Mkdir(ctx context.Context, req *sshfx.MkdirPacket) error
	Remove(ctx context.Context, req *sshfx.RemovePacket) error
	Rename(ctx context.Context, req *sshfx.RenamePacket) error
	Rmdir(ctx context.Context, req *sshfx.RmdirPacket) error
	SetStat(ctx context.Context, req *sshfx.SetstatPacket) error
	Symlink(ctx context.Context, req *sshfx.SymlinkPacket) error

	LStat(ctx context.Context, req *sshfx.LstatPacket) (*sshfx.Attributes, error)
	Stat(ctx context.Context, req *sshfx.StatPacket) (*sshfx.Attributes, error)
	ReadLink(ctx context.Context, req *sshfx.ReadlinkPacket) (string, error)
	RealPath(ctx context.Context, req *sshfx.RealpathPacket) (string, error)

	Open(ctx context.Context, req *sshfx.OpenPacket) (FileHandler, error)
	OpenDir(ctx context.Context, req *sshfx.OpenDirPacket) (DirHandler, error)

	mustEmbedUnimplementedServerHandler()
}

// FileHandler is the interface returned by ServerHandler.Open,
// representing a single open file on the server.
type FileHandler interface {
	// Handle returns the SFTP handle string this FileHandler was issued under.
	Handle() string

	io.ReaderAt
	io.WriterAt
	io.Closer

	Stat() (*sshfx.Attributes, error)
}

// DirHandler is the interface returned by ServerHandler.OpenDir,
// representing a single open directory on the server.
type DirHandler interface {
	// Handle returns the SFTP handle string this DirHandler was issued under.
	Handle() string

	// ReadDir returns the next batch of directory entries,
	// packed to fit within maxDataLen bytes of SSH_FXP_NAME payload.
	//
	// It returns io.EOF once the directory has been fully read.
	ReadDir(maxDataLen uint32) ([]*sshfx.NameEntry, error)

	io.Closer
}

// SetStatFileHandler is an optional extension implemented by a FileHandler
// that wants to support SSH_FXP_FSETSTAT against its own open handle,
// rather than falling back to ServerHandler.SetStat against the path.
type SetStatFileHandler interface {
	SetStat(attrs *sshfx.Attributes) error
}

// POSIXRenameServerHandler is an optional extension implemented by a backend
// wanting to support the posix-rename@openssh.com extension.
type POSIXRenameServerHandler interface {
	POSIXRename(ctx context.Context, req *openssh.POSIXRenameExtendedPacket) error
}

// StatVFSServerHandler is an optional extension implemented by a backend
// wanting to support the statvfs@openssh.com extension against a path.
type StatVFSServerHandler interface {
	StatVFS(ctx context.Context, req *openssh.StatVFSExtendedPacket) (*openssh.StatVFSExtendedReplyPacket, error)
}

// StatVFSFileHandler is an optional extension implemented by a FileHandler
// wanting to support the statvfs@openssh.com extension against its own open handle.
type StatVFSFileHandler interface {
	StatVFS() (*openssh.StatVFSExtendedReplyPacket, error)
}
