package sftp

import (
	"os"

	sshfx "github.com/ardenhq/sshrelay/sftp/encoding/ssh/filexfer"
)

// FileStat holds the file attributes as sent on the wire, decoded into Go
// types. Used both for unpacking SSH_FXP_ATTRS and, on platforms without a
// *syscall.Stat_t, as the Sys() value for remote os.FileInfo results.
type FileStat struct {
	Size  uint64
	Mode  uint32
	Mtime uint32
	Atime uint32
	UID   uint32
	GID   uint32
}

// fromAttributes converts a decoded wire Attributes blob into a FileStat.
func fromAttributes(attrs sshfx.Attributes) FileStat {
	return FileStat{
		Size:  attrs.Size,
		Mode:  attrs.Permissions,
		Mtime: attrs.MTime,
		Atime: attrs.ATime,
		UID:   attrs.UID,
		GID:   attrs.GID,
	}
}

// attributesFromGenericFileInfo builds a wire Attributes blob from a plain
// os.FileInfo with no platform-specific Sys() value, the fallback path used
// when attributesFromFileInfo doesn't recognize fi.Sys().
func attributesFromGenericFileInfo(fi os.FileInfo) sshfx.Attributes {
	var attrs sshfx.Attributes

	attrs.SetSize(uint64(fi.Size()))
	attrs.SetPermissions(fromFileMode(fi.Mode()))

	mtime := uint32(fi.ModTime().Unix())
	attrs.SetACModTime(mtime, mtime)

	return attrs
}
