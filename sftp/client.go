package sftp

// sftp client counterpart

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	sshfx "github.com/ardenhq/sshrelay/sftp/encoding/ssh/filexfer"
	"github.com/pkg/errors"
)

const (
	defaultMaxPacket             = 1 << 15 // matches maxTxPacket
	defaultMaxConcurrentRequests = 64
)

// Client is an SFTP client: it speaks the legacy (non-filexfer) SFTP wire
// protocol over an already-established ssh channel or any other
// io.ReadWriteCloser, the same codec Server serves.
type Client struct {
	clientConn

	ext map[string]string // extension name -> data, as advertised in VERSION

	maxPacket             int
	maxConcurrentRequests int
}

// ClientOption configures a Client constructed by NewClient/NewClientPipe.
type ClientOption func(*Client) error

// MaxPacketSize caps the size of a single SSH_FXP_READ/SSH_FXP_WRITE chunk
// the client will ever request. client_limits.go may shrink it further once
// the server's own limits@openssh.com bounds are known.
func MaxPacketSize(size int) ClientOption {
	return func(c *Client) error {
		if size < 1 {
			return errors.New("sftp: max packet size must be positive")
		}
		c.maxPacket = size
		return nil
	}
}

// MaxConcurrentRequestsPerFile bounds how many SSH_FXP_READ/SSH_FXP_WRITE
// requests a single ReadAt/WriteAt call may have in flight at once.
func MaxConcurrentRequestsPerFile(n int) ClientOption {
	return func(c *Client) error {
		if n < 1 {
			return errors.New("sftp: max concurrent requests must be positive")
		}
		c.maxConcurrentRequests = n
		return nil
	}
}

// NewClient opens an SFTP session over conn, which is typically the
// ssh.Channel of an already-negotiated "sftp" subsystem.
func NewClient(conn io.ReadWriteCloser, opts ...ClientOption) (*Client, error) {
	return NewClientPipe(conn, conn, opts...)
}

// NewClientPipe is like NewClient but allows the read and write halves of
// the session to be distinct streams.
func NewClientPipe(rd io.Reader, wr io.WriteCloser, opts ...ClientOption) (*Client, error) {
	c := &Client{
		clientConn: clientConn{
			conn: conn{
				Reader:      rd,
				WriteCloser: wr,
			},
			inflight: make(map[uint32]chan<- result),
			closed:   make(chan struct{}),
		},
		maxPacket:             defaultMaxPacket,
		maxConcurrentRequests: defaultMaxConcurrentRequests,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.init(); err != nil {
		return nil, err
	}

	c.clientConn.wg.Add(1)
	go c.clientConn.loop()

	return c, nil
}

// init performs the SSH_FXP_INIT/SSH_FXP_VERSION handshake. It runs before
// the clientConn's receive loop starts, mirroring how Server.Serve special-
// cases SSH_FXP_INIT ahead of its worker-pool dispatch loop.
func (c *Client) init() error {
	if err := c.conn.sendPacket(SSHFxInitPacket{Version: sftpProtocolVersion}); err != nil {
		return errors.Wrap(err, "sftp: send init")
	}

	typ, data, err := c.conn.recvPacket(0)
	if err != nil {
		return errors.Wrap(err, "sftp: recv version")
	}
	if fxp(typ) != ssh_FXP_VERSION {
		return &unexpectedPacketErr{want: uint8(ssh_FXP_VERSION), got: typ}
	}

	version, b, err := unmarshalUint32Safe(data)
	if err != nil {
		return err
	}
	if version != sftpProtocolVersion {
		return errors.Errorf("sftp: server proposed unsupported version %d", version)
	}

	c.ext = make(map[string]string)
	for len(b) > 0 {
		var name, value string
		if name, b, err = unmarshalStringSafe(b); err != nil {
			return err
		}
		if value, b, err = unmarshalStringSafe(b); err != nil {
			return err
		}
		c.ext[name] = value
	}

	return nil
}

// HasExtension reports whether the server advertised ext in its VERSION
// reply.
func (c *Client) HasExtension(ext string) bool {
	_, ok := c.ext[ext]
	return ok
}

// idRequest adapts any of this package's legacy request packets (which all
// expose Id() uint32 and MarshalBinary) to the lowercase idmarshaler shape
// clientConn's dispatch plumbing expects.
type idRequest struct {
	ResponsePacket
}

func (r idRequest) id() uint32 { return r.Id() }

// call sends req and returns the reply's wire type and body, with the
// leading request-id word already stripped and checked against req.
func (c *Client) call(req ResponsePacket) (fxp, []byte, error) {
	typ, data, err := c.clientConn.sendPacket(nil, idRequest{req})
	if err != nil {
		return 0, nil, err
	}

	id, body, err := unmarshalUint32Safe(data)
	if err != nil {
		return 0, nil, err
	}
	if id != req.Id() {
		return 0, nil, &unexpectedIDErr{want: req.Id(), got: id}
	}

	return fxp(typ), body, nil
}

// unmarshalStatusErr decodes an SSH_FXP_STATUS body into an error, or nil
// for SSH_FX_OK.
func unmarshalStatusErr(body []byte) error {
	code, body, err := unmarshalUint32Safe(body)
	if err != nil {
		return err
	}
	msg, body, err := unmarshalStringSafe(body)
	if err != nil {
		return err
	}
	lang, _, err := unmarshalStringSafe(body)
	if err != nil {
		return err
	}
	if code == sshFxOk {
		return nil
	}
	return &StatusError{Code: code, msg: msg, lang: lang}
}

// expectStatus performs req, a call whose only ever successful reply is
// SSH_FX_OK, and converts anything else into an error.
func (c *Client) expectStatus(req ResponsePacket) error {
	typ, body, err := c.call(req)
	if err != nil {
		return err
	}
	if typ != ssh_FXP_STATUS {
		return &unexpectedPacketErr{want: uint8(ssh_FXP_STATUS), got: uint8(typ)}
	}
	return unmarshalStatusErr(body)
}

// expectHandle performs req and decodes an SSH_FXP_HANDLE reply.
func (c *Client) expectHandle(req ResponsePacket) (string, error) {
	typ, body, err := c.call(req)
	if err != nil {
		return "", err
	}
	switch typ {
	case ssh_FXP_HANDLE:
		handle, _, err := unmarshalStringSafe(body)
		return handle, err
	case ssh_FXP_STATUS:
		return "", unmarshalStatusErr(body)
	default:
		return "", &unexpectedPacketErr{want: uint8(ssh_FXP_HANDLE), got: uint8(typ)}
	}
}

// expectAttrs performs req and decodes an SSH_FXP_ATTRS reply into an
// os.FileInfo named name.
func (c *Client) expectAttrs(req ResponsePacket, name string) (os.FileInfo, error) {
	typ, body, err := c.call(req)
	if err != nil {
		return nil, err
	}
	switch typ {
	case ssh_FXP_ATTRS:
		fi, _, err := unmarshalAttrs(name, body)
		if err != nil {
			return nil, err
		}
		return fi, nil
	case ssh_FXP_STATUS:
		return nil, unmarshalStatusErr(body)
	default:
		return nil, &unexpectedPacketErr{want: uint8(ssh_FXP_ATTRS), got: uint8(typ)}
	}
}

// nameEntry is one entry of an SSH_FXP_NAME reply.
type nameEntry struct {
	name, longname string
	info           os.FileInfo
}

func unmarshalNameEntries(body []byte) ([]nameEntry, error) {
	count, body, err := unmarshalUint32Safe(body)
	if err != nil {
		return nil, err
	}

	entries := make([]nameEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var name, longname string
		if name, body, err = unmarshalStringSafe(body); err != nil {
			return nil, err
		}
		if longname, body, err = unmarshalStringSafe(body); err != nil {
			return nil, err
		}

		var fi *fileInfo
		if fi, body, err = unmarshalAttrs(name, body); err != nil {
			return nil, err
		}

		entries = append(entries, nameEntry{name: name, longname: longname, info: fi})
	}
	return entries, nil
}

// expectName performs req and decodes an SSH_FXP_NAME reply.
func (c *Client) expectName(req ResponsePacket) ([]nameEntry, error) {
	typ, body, err := c.call(req)
	if err != nil {
		return nil, err
	}
	switch typ {
	case ssh_FXP_NAME:
		return unmarshalNameEntries(body)
	case ssh_FXP_STATUS:
		return nil, unmarshalStatusErr(body)
	default:
		return nil, &unexpectedPacketErr{want: uint8(ssh_FXP_NAME), got: uint8(typ)}
	}
}

// readChunk performs an SSH_FXP_READ request and decodes its SSH_FXP_DATA
// reply.
func (c *Client) readChunk(req *SSHFxpReadPacket) ([]byte, error) {
	typ, body, err := c.call(req)
	if err != nil {
		return nil, err
	}
	switch typ {
	case ssh_FXP_DATA:
		length, body, err := unmarshalUint32Safe(body)
		if err != nil {
			return nil, err
		}
		if uint32(len(body)) < length {
			return nil, errShortPacket
		}
		return body[:length], nil
	case ssh_FXP_STATUS:
		return nil, unmarshalStatusErr(body)
	default:
		return nil, &unexpectedPacketErr{want: uint8(ssh_FXP_DATA), got: uint8(typ)}
	}
}

func toPflags(flag int) uint32 {
	var pflags uint32
	switch {
	case flag&os.O_RDWR != 0:
		pflags = ssh_FXF_READ | ssh_FXF_WRITE
	case flag&os.O_WRONLY != 0:
		pflags = ssh_FXF_WRITE
	default:
		pflags = ssh_FXF_READ
	}
	if flag&os.O_APPEND != 0 {
		pflags |= ssh_FXF_APPEND
	}
	if flag&os.O_CREATE != 0 {
		pflags |= ssh_FXF_CREAT
	}
	if flag&os.O_TRUNC != 0 {
		pflags |= ssh_FXF_TRUNC
	}
	if flag&os.O_EXCL != 0 {
		pflags |= ssh_FXF_EXCL
	}
	return pflags
}

// Open opens the named file for reading.
func (c *Client) Open(path string) (*File, error) {
	return c.OpenFile(path, os.O_RDONLY)
}

// Create opens the named file for writing, creating it if needed and
// truncating it if it already exists.
func (c *Client) Create(path string) (*File, error) {
	return c.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
}

// OpenFile opens the named file with the given os.O_* flags.
func (c *Client) OpenFile(p string, flag int) (*File, error) {
	req := &SSHFxpOpenPacket{ID: c.nextID(), Path: p, Pflags: toPflags(flag)}
	handle, err := c.expectHandle(req)
	if err != nil {
		return nil, err
	}
	return &File{c: c, path: p, handle: handle}, nil
}

// Close ends the SFTP session.
func (c *Client) Close() error {
	return c.clientConn.Close()
}

// Remove removes the named file.
func (c *Client) Remove(path string) error {
	return c.expectStatus(&SSHFxpRemovePacket{ID: c.nextID(), Filename: path})
}

// Rename renames oldname to newname, per SSH_FXP_RENAME (which POSIX
// servers may refuse if newname already exists).
func (c *Client) Rename(oldname, newname string) error {
	return c.expectStatus(&SSHFxpRenamePacket{ID: c.nextID(), Oldpath: oldname, Newpath: newname})
}

// PosixRename renames oldname to newname using the posix-rename@openssh.com
// extension, which atomically replaces newname if it exists.
func (c *Client) PosixRename(oldname, newname string) error {
	return c.expectStatus(&SSHFxpPosixRenamePacket{ID: c.nextID(), Oldpath: oldname, Newpath: newname})
}

// Mkdir creates the named directory.
func (c *Client) Mkdir(p string) error {
	return c.expectStatus(&SSHFxpMkdirPacket{ID: c.nextID(), Path: p})
}

// MkdirAll creates p and any missing parents, like os.MkdirAll. It
// succeeds if p already exists as a directory.
func (c *Client) MkdirAll(p string) error {
	p = path.Clean(p)
	if p == "." || p == "/" {
		return nil
	}

	if fi, err := c.Stat(p); err == nil {
		if fi.IsDir() {
			return nil
		}
		return &os.PathError{Op: "mkdir", Path: p, Err: os.ErrExist}
	}

	if err := c.MkdirAll(path.Dir(p)); err != nil {
		return err
	}

	err := c.Mkdir(p)
	if statusErr, ok := err.(*StatusError); ok && statusErr.Code == sshFxFailure {
		if fi, statErr := c.Stat(p); statErr == nil && fi.IsDir() {
			return nil
		}
	}
	return err
}

// RemoveDirectory removes the named, empty directory.
func (c *Client) RemoveDirectory(path string) error {
	return c.expectStatus(&SSHFxpRmdirPacket{ID: c.nextID(), Path: path})
}

// Symlink creates newname as a symbolic link to oldname.
func (c *Client) Symlink(oldname, newname string) error {
	return c.expectStatus(&SSHFxpSymlinkPacket{ID: c.nextID(), Targetpath: oldname, Linkpath: newname})
}

// ReadLink reads the destination of the named symbolic link.
func (c *Client) ReadLink(p string) (string, error) {
	entries, err := c.expectName(&SSHFxpReadlinkPacket{ID: c.nextID(), Path: p})
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("sftp: empty SSH_FXP_NAME reply to readlink")
	}
	return entries[0].name, nil
}

// RealPath resolves p (which may be relative or contain ".."/".") against
// the server's view of the filesystem.
func (c *Client) RealPath(p string) (string, error) {
	entries, err := c.expectName(&SSHFxpRealpathPacket{ID: c.nextID(), Path: p})
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("sftp: empty SSH_FXP_NAME reply to realpath")
	}
	return entries[0].name, nil
}

// Getwd returns the server's idea of the current working directory.
func (c *Client) Getwd() (string, error) {
	return c.RealPath(".")
}

// Stat returns file info for path, following symbolic links.
func (c *Client) Stat(p string) (os.FileInfo, error) {
	return c.expectAttrs(&SSHFxpStatPacket{ID: c.nextID(), Path: p}, path.Base(p))
}

// Lstat returns file info for path without following a trailing symbolic
// link.
func (c *Client) Lstat(p string) (os.FileInfo, error) {
	return c.expectAttrs(&SSHFxpLstatPacket{ID: c.nextID(), Path: p}, path.Base(p))
}

// attributesBlob builds the flags-selected attribute body Setstat/Fsetstat
// expect after their own (type, id, path-or-handle, flags) header: the
// wire body of sshfx.Attributes minus its own leading flags word, which
// Setstat/Fsetstat already carry as a separate field.
func attributesBlob(flags uint32, a sshfx.Attributes) []byte {
	a.Flags = flags
	buf := sshfx.NewBuffer(nil)
	a.MarshalInto(buf)
	return buf.Bytes()[4:]
}

// Chmod changes the mode of the named file.
func (c *Client) Chmod(p string, mode os.FileMode) error {
	a := sshfx.Attributes{Permissions: uint32(fromFileMode(mode))}
	req := &SSHFxpSetstatPacket{
		ID: c.nextID(), Path: p, Flags: sshfx.AttrPermissions,
		Attrs: attributesBlob(sshfx.AttrPermissions, a),
	}
	return c.expectStatus(req)
}

// Chown changes the owning uid/gid of the named file.
func (c *Client) Chown(p string, uid, gid int) error {
	a := sshfx.Attributes{UID: uint32(uid), GID: uint32(gid)}
	req := &SSHFxpSetstatPacket{
		ID: c.nextID(), Path: p, Flags: sshfx.AttrUIDGID,
		Attrs: attributesBlob(sshfx.AttrUIDGID, a),
	}
	return c.expectStatus(req)
}

// Chtimes changes the access and modification times of the named file.
func (c *Client) Chtimes(p string, atime, mtime time.Time) error {
	a := sshfx.Attributes{ATime: uint32(atime.Unix()), MTime: uint32(mtime.Unix())}
	req := &SSHFxpSetstatPacket{
		ID: c.nextID(), Path: p, Flags: sshfx.AttrACModTime,
		Attrs: attributesBlob(sshfx.AttrACModTime, a),
	}
	return c.expectStatus(req)
}

// Truncate changes the size of the named file.
func (c *Client) Truncate(p string, size int64) error {
	a := sshfx.Attributes{Size: uint64(size)}
	req := &SSHFxpSetstatPacket{
		ID: c.nextID(), Path: p, Flags: sshfx.AttrSize,
		Attrs: attributesBlob(sshfx.AttrSize, a),
	}
	return c.expectStatus(req)
}

// StatVFS reports filesystem statistics for path via the
// statvfs@openssh.com extension.
func (c *Client) StatVFS(path string) (*StatVFS, error) {
	req := &SSHFxpStatvfsPacket{ID: c.nextID(), Path: path}
	typ, body, err := c.call(req)
	if err != nil {
		return nil, err
	}
	switch typ {
	case ssh_FXP_EXTENDED_REPLY:
		vfs := new(StatVFS)
		if vfs.ID, body, err = unmarshalUint32Safe(body); err != nil {
			return nil, err
		}
		fields := []*uint64{
			&vfs.Bsize, &vfs.Frsize, &vfs.Blocks, &vfs.Bfree, &vfs.Bavail,
			&vfs.Files, &vfs.Ffree, &vfs.Favail, &vfs.Fsid, &vfs.Flag, &vfs.Namemax,
		}
		for _, f := range fields {
			if *f, body, err = unmarshalUint64Safe(body); err != nil {
				return nil, err
			}
		}
		return vfs, nil
	case ssh_FXP_STATUS:
		return nil, unmarshalStatusErr(body)
	default:
		return nil, &unexpectedPacketErr{want: uint8(ssh_FXP_EXTENDED_REPLY), got: uint8(typ)}
	}
}

// ReadDir reads the named directory, returning the file info for its
// entries in the order the server sent them.
func (c *Client) ReadDir(p string) ([]os.FileInfo, error) {
	handle, err := c.expectHandle(&SSHFxpOpendirPacket{ID: c.nextID(), Path: p})
	if err != nil {
		return nil, err
	}
	defer c.expectStatus(&SSHFxpClosePacket{ID: c.nextID(), Handle: handle})

	var infos []os.FileInfo
	for {
		entries, err := c.expectName(&SSHFxpReaddirPacket{ID: c.nextID(), Handle: handle})
		if err != nil {
			if errors.Is(err, ErrSSHFxEOF) {
				return infos, nil
			}
			return infos, err
		}
		for _, e := range entries {
			if e.name == "." || e.name == ".." {
				continue
			}
			infos = append(infos, e.info)
		}
	}
}

// Walk walks the file tree rooted at root, calling fn for each file or
// directory, in the manner of filepath.Walk.
func (c *Client) Walk(root string, fn func(path string, info os.FileInfo, err error) error) error {
	info, err := c.Lstat(root)
	if err != nil {
		return fn(root, nil, err)
	}
	return c.walk(root, info, fn)
}

func (c *Client) walk(p string, info os.FileInfo, fn func(string, os.FileInfo, error) error) error {
	if !info.IsDir() {
		return fn(p, info, nil)
	}

	entries, listErr := c.ReadDir(p)
	if err := fn(p, info, listErr); err != nil {
		if err == filepath.SkipDir {
			return nil
		}
		return err
	}
	if listErr != nil {
		return nil
	}

	for _, e := range entries {
		if err := c.walk(path.Join(p, e.Name()), e, fn); err != nil {
			if err == filepath.SkipDir {
				continue
			}
			return err
		}
	}
	return nil
}

// File represents a remote file handle open over an SFTP session.
type File struct {
	c      *Client
	path   string
	handle string

	mu     sync.Mutex
	offset int64
}

// Name returns the path the file was opened with.
func (f *File) Name() string { return f.path }

// Close releases the remote file handle.
func (f *File) Close() error {
	return f.c.expectStatus(&SSHFxpClosePacket{ID: f.c.nextID(), Handle: f.handle})
}

// Stat returns file info for the open file.
func (f *File) Stat() (os.FileInfo, error) {
	return f.c.expectAttrs(&SSHFxpFstatPacket{ID: f.c.nextID(), Handle: f.handle}, path.Base(f.path))
}

// ReadAt reads len(b) bytes from the file starting at off, implementing
// io.ReaderAt. See client_parallel.go for the windowed concurrent scheduler
// behind it.
func (f *File) ReadAt(b []byte, off int64) (int, error) {
	return f.c.readAt(f.handle, b, off)
}

// WriteAt writes len(b) bytes to the file starting at off, implementing
// io.WriterAt.
func (f *File) WriteAt(b []byte, off int64) (int, error) {
	return f.c.writeAt(f.handle, b, off)
}

// Read implements io.Reader, reading from and then advancing the file's
// internal offset.
func (f *File) Read(b []byte) (int, error) {
	f.mu.Lock()
	off := f.offset
	f.mu.Unlock()

	n, err := f.ReadAt(b, off)

	f.mu.Lock()
	f.offset = off + int64(n)
	f.mu.Unlock()

	return n, err
}

// Write implements io.Writer, writing to and then advancing the file's
// internal offset.
func (f *File) Write(b []byte) (int, error) {
	f.mu.Lock()
	off := f.offset
	f.mu.Unlock()

	n, err := f.WriteAt(b, off)

	f.mu.Lock()
	f.offset = off + int64(n)
	f.mu.Unlock()

	return n, err
}

// Seek implements io.Seeker over the file's internal offset; it issues no
// wire traffic of its own.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch whence {
	case io.SeekStart:
		f.offset = offset
	case io.SeekCurrent:
		f.offset += offset
	case io.SeekEnd:
		fi, err := f.Stat()
		if err != nil {
			return 0, err
		}
		f.offset = fi.Size() + offset
	default:
		return 0, errors.Errorf("sftp: invalid whence %d", whence)
	}
	return f.offset, nil
}
