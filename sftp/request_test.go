package sftp

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// memWriterAt is a minimal io.WriterAt backed by a growable byte slice, used
// in place of the real FilesystemHandler/ChrootHandler backends to keep
// these tests focused on Request.call's dispatch, not file I/O.
type memWriterAt struct {
	mu  sync.Mutex
	buf []byte
}

func (w *memWriterAt) WriteAt(p []byte, off int64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	end := int(off) + len(p)
	if end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[off:end], p)
	return len(p), nil
}

func (w *memWriterAt) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}

type testHandler struct {
	filecontents string // dummy contents
	output       *memWriterAt
	err          error // dummy error, should be file related
}

func (t *testHandler) Fileread(r *Request) (io.ReaderAt, error) {
	if t.err != nil {
		return nil, t.err
	}
	return strings.NewReader(t.filecontents), nil
}

func (t *testHandler) Filewrite(r *Request) (io.WriterAt, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.output, nil
}

func (t *testHandler) Filecmd(r *Request) error {
	return t.err
}

func (t *testHandler) Filelist(r *Request) (ListerAt, error) {
	if t.err != nil {
		return nil, t.err
	}
	// NewRequest roots the path ("/request_test.go"); stat it relative to
	// the package directory the test runs in.
	fi, err := os.Stat("." + r.Filepath)
	if err != nil {
		return nil, err
	}
	return listerat{fi}, nil
}

func newTestHandlers() Handlers {
	handler := &testHandler{
		filecontents: "file-data.",
		output:       &memWriterAt{},
	}
	return Handlers{
		FileGet:  handler,
		FilePut:  handler,
		FileCmd:  handler,
		FileList: handler,
	}
}

func (h Handlers) getOut() *memWriterAt {
	return h.FilePut.(*testHandler).output
}

var testError = errors.New("test error")

func (h *Handlers) returnError() {
	handler := h.FilePut.(*testHandler)
	handler.err = testError
}

// fakeIDPacket is a minimal RequestPacket used for dispatch paths (Mkdir,
// List, Stat, Readlink) whose response only needs the request id echoed
// back, not offset/length fields.
type fakeIDPacket struct{ id uint32 }

func (f fakeIDPacket) Id() uint32                 { return f.id }
func (f fakeIDPacket) UnmarshalBinary([]byte) error { return nil }

func statusOk(t *testing.T, p interface{}) {
	pkt, ok := p.(*SSHFxpStatusPacket)
	if !ok {
		t.Fatalf("expected *SSHFxpStatusPacket, got %T", p)
	}
	assert.Equal(t, uint32(1), pkt.Id())
	assert.Equal(t, sshFxOk, pkt.StatusError.Code)
}

func TestGetMethod(t *testing.T) {
	handlers := newTestHandlers()
	request := NewRequest("Get", "./request_test.go")

	// read in 5-byte chunks
	for i, txt := range []string{"file-", "data."} {
		pkt := &SSHFxpReadPacket{ID: 1, Handle: "h", Offset: uint64(i * 5), Len: 5}
		resp := request.call(handlers, pkt)
		dpkt, ok := resp.(*SSHFxpDataPacket)
		if !ok {
			t.Fatalf("expected *SSHFxpDataPacket, got %T", resp)
		}
		assert.Equal(t, uint32(1), dpkt.Id())
		assert.Equal(t, txt, string(dpkt.Data))
	}
}

func TestPutMethod(t *testing.T) {
	handlers := newTestHandlers()
	request := NewRequest("Put", "./request_test.go")

	pkt := &SSHFxpWritePacket{ID: 1, Handle: "h", Offset: 0, Length: uint32(len("file-data.")), Data: []byte("file-data.")}
	resp := request.call(handlers, pkt)
	assert.Equal(t, "file-data.", handlers.getOut().String())
	statusOk(t, resp)
}

func TestCmdrMethod(t *testing.T) {
	handlers := newTestHandlers()
	request := NewRequest("Mkdir", "./request_test.go")
	pkt := fakeIDPacket{id: 1}

	resp := request.call(handlers, pkt)
	statusOk(t, resp)

	handlers.returnError()
	resp = request.call(handlers, pkt)
	statusErr, ok := resp.(*SSHFxpStatusPacket)
	if !ok {
		t.Fatalf("expected *SSHFxpStatusPacket, got %T", resp)
	}
	assert.Equal(t, testError.Error(), statusErr.StatusError.msg)
}

func TestInfoListMethod(t *testing.T)     { testInfoMethod(t, "List") }
func TestInfoReadlinkMethod(t *testing.T) { testInfoMethod(t, "Readlink") }

func TestInfoStatMethod(t *testing.T) {
	handlers := newTestHandlers()
	request := NewRequest("Stat", "./request_test.go")
	resp := request.call(handlers, fakeIDPacket{id: 1})
	spkt, ok := resp.(*SSHFxpStatResponse)
	if !ok {
		t.Fatalf("expected *SSHFxpStatResponse, got %T", resp)
	}
	assert.Equal(t, "request_test.go", spkt.Info.Name())
}

func testInfoMethod(t *testing.T, method string) {
	handlers := newTestHandlers()
	request := NewRequest(method, "./request_test.go")
	resp := request.call(handlers, fakeIDPacket{id: 1})
	npkt, ok := resp.(*SSHFxpNamePacket)
	assert.True(t, ok)
	assert.IsType(t, SSHFxpNameAttr{}, npkt.NameAttrs[0])
	if method == "List" {
		assert.Equal(t, "request_test.go", npkt.NameAttrs[0].Name)
	}
}
