package sftp

// SSH_FXP_ATTRS support
// see http://tools.ietf.org/html/draft-ietf-secsh-filexfer-02#section-5

import (
	"os"
	"time"
)

// fileInfo is the os.FileInfo implementation backing every remote file
// result the client hands back to callers (Stat/Lstat/Fstat/ReadDir
// entries). Sys() exposes the full decoded FileStat, including fields
// os.FileInfo has no room for (UID/GID, raw atime).
type fileInfo struct {
	name  string
	mode  os.FileMode
	mtime time.Time
	fs    FileStat
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return int64(fi.fs.Size) }
func (fi *fileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return fi.mtime }
func (fi *fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *fileInfo) Sys() interface{}   { return &fi.fs }

// unmarshalAttrs decodes an SSH_FILEXFER_ATTRS blob (the flags-driven body
// of an SSH_FXP_ATTRS packet or a SSH_FXP_NAME entry's Attrs) into a
// fileInfo named name, returning the remainder of b.
func unmarshalAttrs(name string, b []byte) (*fileInfo, []byte, error) {
	flags, b, err := unmarshalUint32Safe(b)
	if err != nil {
		return nil, nil, err
	}

	fi := &fileInfo{name: name}

	if flags&sshFilexferAttrSize != 0 {
		var size uint64
		if size, b, err = unmarshalUint64Safe(b); err != nil {
			return nil, nil, err
		}
		fi.fs.Size = size
	}
	if flags&sshFilexferAttrUIDGID != 0 {
		if fi.fs.UID, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
		if fi.fs.GID, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
	}
	if flags&sshFilexferAttrPermissions != 0 {
		var mode uint32
		if mode, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
		fi.fs.Mode = mode
		fi.mode = os.FileMode(mode)
	}
	if flags&sshFilexferAttrACModTime != 0 {
		if fi.fs.Atime, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
		if fi.fs.Mtime, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
		fi.mtime = time.Unix(int64(fi.fs.Mtime), 0)
	}
	if flags&sshFilexferAttrExtended != 0 {
		var count uint32
		if count, b, err = unmarshalUint32Safe(b); err != nil {
			return nil, nil, err
		}
		for i := uint32(0); i < count; i++ {
			if _, b, err = unmarshalStringSafe(b); err != nil {
				return nil, nil, err
			}
			if _, b, err = unmarshalStringSafe(b); err != nil {
				return nil, nil, err
			}
		}
	}

	return fi, b, nil
}
