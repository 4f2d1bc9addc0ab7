package sftp

// Client/server round-trip tests. These drive a real Client against a real
// Server over an in-process pipe, backed by InMemHandler, rather than
// shelling out to an external sftp-server binary.

import (
	"crypto/sha1"
	"io"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// netPipe provides a pair of io.ReadWriteClosers connected to each other.
// Unlike net.Pipe, reads and writes on the pair are real socket I/O, which
// exercises the same partial-read/partial-write paths a real connection
// would hit.
func netPipe(t testing.TB) (io.ReadWriteCloser, io.ReadWriteCloser) {
	type result struct {
		net.Conn
		error
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ch := make(chan result, 1)
	go func() {
		conn, err := l.Accept()
		ch <- result{conn, err}
		if err := l.Close(); err != nil {
			t.Error(err)
		}
	}()
	c1, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		l.Close()
		t.Fatal(err)
	}
	r := <-ch
	if r.error != nil {
		t.Fatal(r.error)
	}
	return c1, r.Conn
}

// testClientServer wires a *Client to a *Server over netPipe, backed by an
// in-memory filesystem, and returns the client plus a cleanup func.
func testClientServer(t *testing.T, opts ...ServerOption) (*Client, func()) {
	t.Helper()

	clientConn, serverConn := netPipe(t)

	server, err := NewServer(serverConn, InMemHandler(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		_ = server.Serve()
	}()

	client, err := NewClient(clientConn)
	if err != nil {
		t.Fatal(err)
	}

	return client, func() {
		client.Close()
		server.Close()
	}
}

// readHash reads r until EOF and returns the number of bytes read and the
// hash of the contents.
func readHash(t *testing.T, r io.Reader) (string, int64) {
	h := sha1.New()
	tr := io.TeeReader(r, h)
	read, err := io.Copy(ioutil.Discard, tr)
	if err != nil {
		t.Fatal(err)
	}
	return string(h.Sum(nil)), read
}

// writeHash writes b to w and returns the hash of what was written.
func writeHash(t *testing.T, w io.Writer, b []byte) string {
	h := sha1.New()
	mw := io.MultiWriter(w, h)
	if _, err := mw.Write(b); err != nil {
		t.Fatal(err)
	}
	return string(h.Sum(nil))
}

var clientReadWriteSizes = []int64{
	0, 1, 1000, 1024, 1025, 2048, 4096,
	1 << 12, 1 << 13, 1 << 14, 1 << 15, 1 << 16, 1 << 17,
}

func TestClientWriteRead(t *testing.T) {
	client, cleanup := testClientServer(t)
	defer cleanup()

	for _, n := range clientReadWriteSizes {
		n := n
		t.Run("", func(t *testing.T) {
			path := "/roundtrip"
			f, err := client.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
			if err != nil {
				t.Fatal(err)
			}

			data := make([]byte, n)
			for i := range data {
				data[i] = byte(i)
			}
			wantHash := writeHash(t, f, data)
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			rf, err := client.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			gotHash, read := readHash(t, rf)
			if err := rf.Close(); err != nil {
				t.Fatal(err)
			}

			if read != n {
				t.Errorf("read %d bytes, want %d", read, n)
			}
			if gotHash != wantHash {
				t.Errorf("hash mismatch for %d bytes", n)
			}
		})
	}
}

func TestClientStatAfterWrite(t *testing.T) {
	client, cleanup := testClientServer(t)
	defer cleanup()

	f, err := client.OpenFile("/stat-me", os.O_WRONLY|os.O_CREATE)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	fi, err := client.Stat("/stat-me")
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != int64(len("hello world")) {
		t.Errorf("Stat size = %d, want %d", fi.Size(), len("hello world"))
	}
}

func TestClientMkdirRemove(t *testing.T) {
	client, cleanup := testClientServer(t)
	defer cleanup()

	if err := client.Mkdir("/dir"); err != nil {
		t.Fatal(err)
	}
	fi, err := client.Lstat("/dir")
	if err != nil {
		t.Fatal(err)
	}
	if !fi.IsDir() {
		t.Errorf("Lstat(/dir).IsDir() = false, want true")
	}
	if err := client.RemoveDirectory("/dir"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Lstat("/dir"); err == nil {
		t.Errorf("Lstat(/dir) succeeded after RemoveDirectory")
	}
}

func TestClientRename(t *testing.T) {
	client, cleanup := testClientServer(t)
	defer cleanup()

	f, err := client.Create("/old-name")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	if err := client.Rename("/old-name", "/new-name"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Lstat("/new-name"); err != nil {
		t.Fatalf("Lstat(/new-name): %v", err)
	}
	if _, err := client.Lstat("/old-name"); err == nil {
		t.Errorf("Lstat(/old-name) succeeded after Rename")
	}
}

// taken from github.com/kr/fs/walk_test.go, used to exercise Client.Walk and
// Client.CopyRecursive against a small directory tree.
type treeNode struct {
	name    string
	entries []*treeNode
}

func buildTree(t *testing.T, client *Client, root string, n *treeNode) {
	p := filepath.Join(root, n.name)
	if n.entries == nil {
		f, err := client.Create(p)
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
		return
	}
	if err := client.Mkdir(p); err != nil {
		t.Fatal(err)
	}
	for _, e := range n.entries {
		buildTree(t, client, p, e)
	}
}

func TestClientWalk(t *testing.T) {
	client, cleanup := testClientServer(t)
	defer cleanup()

	tree := &treeNode{
		name: "tree",
		entries: []*treeNode{
			{name: "a"},
			{name: "b", entries: []*treeNode{
				{name: "x"},
				{name: "y"},
			}},
			{name: "c"},
		},
	}
	buildTree(t, client, "/", tree)

	var seen []string
	err := client.Walk("/tree", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		seen = append(seen, p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := 6 // tree, a, b, b/x, b/y, c
	if len(seen) != want {
		t.Errorf("Walk visited %d entries, want %d: %v", len(seen), want, seen)
	}
}
