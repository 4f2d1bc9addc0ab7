package sftp

// sftp server counterpart

import (
	"context"
	"io"
	"io/ioutil"
	"strconv"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// Server is an SSH File Transfer Protocol (sftp) server.
// This is intended to provide the sftp subsystem to an ssh server daemon.
// All filesystem operations are dispatched through a Handlers value, so the
// same engine serves a chroot, an in-memory test backend, or any other
// FileReader/FileWriter/FileCmder/FileLister implementation.
type Server struct {
	serverConn
	debugStream io.Writer
	readOnly    bool
	pktMgr      *packetManager

	openRequestLock sync.RWMutex
	openRequests    map[string]*Request
	handleCount     int

	locks *byteRangeLockTable

	handlers Handlers
}

// NewServer creates a new Server instance around the provided streams, serving
// content through the supplied Handlers. Optionally, ServerOption functions
// may be specified to further configure the Server.
//
// A subsequent call to Serve() is required to begin serving files over SFTP.
func NewServer(rwc io.ReadWriteCloser, h Handlers, options ...ServerOption) (*Server, error) {
	s := &Server{
		serverConn: serverConn{
			conn: conn{
				Reader:      rwc,
				WriteCloser: rwc,
				alloc:       newAllocator(),
			},
		},
		debugStream:  ioutil.Discard,
		openRequests: make(map[string]*Request),
		locks:        newByteRangeLockTable(),
		handlers:     h,
	}
	s.pktMgr = newPktMgr(&s.serverConn)

	for _, o := range options {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// A ServerOption is a function which applies configuration to a Server.
type ServerOption func(*Server) error

// WithDebug enables Server debugging output to the supplied io.Writer.
func WithDebug(w io.Writer) ServerOption {
	return func(s *Server) error {
		s.debugStream = w
		return nil
	}
}

// ReadOnly configures a Server to serve files in read-only mode.
func ReadOnly() ServerOption {
	return func(s *Server) error {
		s.readOnly = true
		return nil
	}
}

func (svr *Server) nextHandle(r *Request) string {
	svr.openRequestLock.Lock()
	defer svr.openRequestLock.Unlock()
	svr.handleCount++
	handle := strconv.Itoa(svr.handleCount)
	svr.openRequests[handle] = r
	return handle
}

func (svr *Server) closeRequest(handle string) error {
	svr.openRequestLock.Lock()
	defer svr.openRequestLock.Unlock()
	if r, ok := svr.openRequests[handle]; ok {
		delete(svr.openRequests, handle)
		svr.locks.release(handle)
		return r.close()
	}
	return syscall.EBADF
}

func (svr *Server) getRequest(handle string) (*Request, bool) {
	svr.openRequestLock.RLock()
	defer svr.openRequestLock.RUnlock()
	r, ok := svr.openRequests[handle]
	return r, ok
}

// sftpServerWorker drains pktChan until it's closed; the packetManager
// restores reply ordering regardless of which worker handles a request.
func (svr *Server) sftpServerWorker(pktChan requestChan) error {
	for pkt := range pktChan {
		svr.pktMgr.readyPacket(svr.handle(pkt))
	}
	return nil
}

func (svr *Server) handle(pkt RequestPacket) ResponsePacket {
	if svr.readOnly {
		if _, ok := pkt.(NotReadOnlyPacket); ok {
			return statusFromError(pkt.Id(), syscall.EPERM)
		}
	}
	return svr.dispatch(pkt)
}

func (svr *Server) dispatch(pkt RequestPacket) ResponsePacket {
	switch pkt := pkt.(type) {
	case *SSHFxpOpenPacket:
		return svr.openFile(pkt)
	case *SSHFxpOpendirPacket:
		return svr.openDir(pkt)
	case *SSHFxpClosePacket:
		return statusFromError(pkt.ID, svr.closeRequest(pkt.Handle))
	case *SSHFxpReadPacket:
		return svr.handleForHandle(pkt.ID, pkt.Handle, "Get", pkt)
	case *SSHFxpWritePacket:
		return svr.handleForHandle(pkt.ID, pkt.Handle, "Put", pkt)
	case *SSHFxpReaddirPacket:
		return svr.handleForHandle(pkt.ID, pkt.Handle, "List", pkt)
	case *SSHFxpFstatPacket:
		return svr.handleForHandle(pkt.ID, pkt.Handle, "Stat", pkt)
	case *SSHFxpFsetstatPacket:
		return svr.handleForHandle(pkt.ID, pkt.Handle, "Setstat", pkt)
	case *SSHFxpRealpathPacket:
		f := cleanPath(pkt.Path)
		return &SSHFxpNamePacket{
			ID: pkt.ID,
			NameAttrs: []SSHFxpNameAttr{{
				Name:     f,
				LongName: f,
				Attrs:    emptyFileStat,
			}},
		}
	case *SSHFxpExtendedPacket:
		return svr.extended(pkt)
	case *SSHFxpBlockPacket:
		if _, ok := svr.getRequest(pkt.Handle); !ok {
			return statusFromError(pkt.ID, syscall.EBADF)
		}
		return statusFromError(pkt.ID, svr.locks.block(pkt.Handle, pkt.Offset, pkt.Length, pkt.Mask))
	case *SSHFxpUnblockPacket:
		if _, ok := svr.getRequest(pkt.Handle); !ok {
			return statusFromError(pkt.ID, syscall.EBADF)
		}
		return statusFromError(pkt.ID, svr.locks.unblock(pkt.Handle, pkt.Offset, pkt.Length))
	case HasPath:
		r := requestFromPacket(context.Background(), pkt)
		defer r.close()
		return r.call(svr.handlers, pkt)
	default:
		return StatusFromError(pkt, errors.Errorf("unexpected packet type %T", pkt))
	}
}

// handleForHandle services a request against the Request already stashed
// for handle (from a prior Open/Opendir), for the duration of this one
// packet only.
func (svr *Server) handleForHandle(id uint32, handle, method string, pkt RequestPacket) ResponsePacket {
	r, ok := svr.getRequest(handle)
	if !ok {
		return statusFromError(id, syscall.EBADF)
	}
	// Mutate the stored Request in place, not a copy: its cached
	// reader/writer/lister and list offset must persist across the
	// repeated Read/Write/Readdir calls a client makes against one handle.
	r.Method = method
	return r.call(svr.handlers, pkt)
}

// openFile only records the Request; the underlying Fileread/Filewrite
// handler is invoked lazily on the first Read/Write against the handle, so
// a client can Open+Close a file the backend would reject without ever
// calling into the backend.
func (svr *Server) openFile(pkt *SSHFxpOpenPacket) ResponsePacket {
	r := requestFromPacket(context.Background(), pkt)
	handle := svr.nextHandle(r)
	return &SSHFxpHandlePacket{ID: pkt.ID, Handle: handle}
}

func (svr *Server) openDir(pkt *SSHFxpOpendirPacket) ResponsePacket {
	r := NewRequest("List", pkt.Path)
	handle := svr.nextHandle(r)
	return &SSHFxpHandlePacket{ID: pkt.ID, Handle: handle}
}

func (svr *Server) extended(pkt *SSHFxpExtendedPacket) ResponsePacket {
	switch p := pkt.SpecificPacket.(type) {
	case *SSHFxpExtendedPacketStatVFS:
		cmder, ok := svr.handlers.FileCmd.(StatVFSFileCmder)
		if !ok {
			return statusFromError(pkt.ID, ErrSSHFxOpUnsupported)
		}
		vfs, err := cmder.StatVFS(NewRequest("StatVFS", p.Path))
		if err != nil {
			return statusFromError(pkt.ID, err)
		}
		vfs.ID = pkt.ID
		return vfs
	case *SSHFxpExtendedPacketPosixRename:
		cmder, ok := svr.handlers.FileCmd.(PosixRenameFileCmder)
		if !ok {
			return statusFromError(pkt.ID, ErrSSHFxOpUnsupported)
		}
		req := NewRequest("Rename", p.Oldpath)
		req.Target = cleanPath(p.Newpath)
		return statusFromError(pkt.ID, cmder.PosixRename(req))
	case *SSHFxpExtendedPacketLimits:
		// No per-backend limit is configurable yet, so report the fixed
		// bounds this server already enforces on every connection.
		return &Limits{
			ID:              pkt.ID,
			MaxPacketLength: maxMsgLength,
			MaxReadLength:   uint64(maxTxPacket),
			MaxWriteLength:  uint64(maxTxPacket),
			MaxOpenHandles:  0,
		}
	default:
		return statusFromError(pkt.ID, ErrSSHFxOpUnsupported)
	}
}

// Serve serves SFTP connections until the streams stop or the SFTP
// subsystem is stopped.
func (svr *Server) Serve() error {
	defer svr.conn.Close()

	var wg sync.WaitGroup
	runWorker := func(ch requestChan) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svr.sftpServerWorker(ch); err != nil {
				svr.conn.Close()
			}
		}()
	}
	pktChan := svr.pktMgr.workerChan(runWorker)

	var err error
	var pktType uint8
	var pktBytes []byte
	for {
		pktType, pktBytes, err = svr.recvPacket(0)
		if err != nil {
			break
		}

		if fxp(pktType) == ssh_FXP_INIT {
			err = svr.sendPacket(SSHFxVersionPacket{Version: sftpProtocolVersion})
			svr.conn.alloc.ReleasePages(0)
			if err != nil {
				break
			}
			continue
		}

		rp, makeErr := makePacket(rxPacket{fxp(pktType), pktBytes})
		svr.conn.alloc.ReleasePages(0)
		if makeErr != nil {
			if rp != nil {
				svr.pktMgr.incomingPacket(rp)
				svr.pktMgr.readyPacket(statusFromError(rp.Id(), makeErr))
			}
			continue
		}

		pktChan <- rp
	}

	close(pktChan)
	wg.Wait()

	// close any still-open requests
	for handle, r := range svr.openRequests {
		debug("sftp server file with handle %q left open", handle)
		r.close()
	}
	return err
}

// requestChan carries decoded request packets from the reader goroutine to
// the worker pool; packetManager.workerChan switches it between a
// read/write lane and a command lane around open file handles.
type requestChan chan RequestPacket
