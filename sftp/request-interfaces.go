package sftp

import (
	"io"
	"os"
)

// Handlers groups the four callback interfaces a Request-based server
// dispatches to. All four fields are commonly satisfied by one backend
// type implementing all four methods.
type Handlers struct {
	FileGet  FileReader
	FilePut  FileWriter
	FileCmd  FileCmder
	FileList FileLister
}

// FileReader is implemented by a backend to serve file read (Get) requests.
type FileReader interface {
	Fileread(*Request) (io.ReaderAt, error)
}

// FileWriter is implemented by a backend to serve file write (Put) requests.
type FileWriter interface {
	Filewrite(*Request) (io.WriterAt, error)
}

// FileCmder is implemented by a backend to serve requests with no response
// payload: Setstat, Rename, Rmdir, Mkdir, Symlink, Remove.
type FileCmder interface {
	Filecmd(*Request) error
}

// FileLister is implemented by a backend to serve List, Stat and Readlink
// requests.
type FileLister interface {
	Filelist(*Request) (ListerAt, error)
}

// WriterAtReaderAt is implemented by a backend whose Open handler needs to
// serve both reads and writes through a single handle.
type WriterAtReaderAt interface {
	io.WriterAt
	io.ReaderAt
}

// ListerAt is like io.ReaderAt, but for a list of os.FileInfo rather than a
// byte slice; ListAt's offset counts entries, not bytes, and an io.EOF
// return with n > 0 means n entries were copied and the list is exhausted.
type ListerAt interface {
	ListAt([]os.FileInfo, int64) (int, error)
}

// listerat is a slice-backed ListerAt, used by backends that build the full
// directory listing eagerly.
type listerat []os.FileInfo

func (l listerat) ListAt(ls []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}

	n := copy(ls, l[offset:])
	if n < len(ls) {
		return n, io.EOF
	}
	return n, nil
}

// PosixRenameFileCmder is an optional extension implemented by backends
// wanting to support the posix-rename@openssh.com extension.
type PosixRenameFileCmder interface {
	PosixRename(*Request) error
}

// StatVFSFileCmder is an optional extension implemented by backends wanting
// to support the statvfs@openssh.com extension.
type StatVFSFileCmder interface {
	StatVFS(*Request) (*StatVFS, error)
}
