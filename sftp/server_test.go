package sftp

import (
	"encoding/binary"
	"io"
	"io/fs"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame prepends the 4-byte big-endian length prefix recvPacket expects.
func frame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

func clientServerPair(t *testing.T, h Handlers, options ...ServerOption) (*Client, *Server) {
	t.Helper()

	cr, sw := io.Pipe()
	sr, cw := io.Pipe()

	server, err := NewServer(struct {
		io.Reader
		io.WriteCloser
	}{sr, sw}, h, options...)
	if err != nil {
		t.Fatal(err)
	}
	go server.Serve()

	client, err := NewClientPipe(cr, cw)
	if err != nil {
		t.Fatalf("%+v\n", err)
	}
	return client, server
}

// TestStatusFromError exercises statusFromError's mapping of Go errors to
// SSH_FX_* status codes.
func TestStatusFromError(t *testing.T) {
	type test struct {
		err  error
		code uint32
	}
	testCases := []test{
		{syscall.ENOENT, sshFxNoSuchFile},
		{&os.PathError{Err: syscall.ENOENT}, sshFxNoSuchFile},
		{&os.PathError{Err: io.ErrUnexpectedEOF}, sshFxFailure},
		{ErrSSHFxEOF, sshFxEOF},
		{ErrSSHFxOpUnsupported, sshFxOPUnsupported},
		{io.EOF, sshFxEOF},
		{os.ErrNotExist, sshFxNoSuchFile},
	}
	for _, tc := range testCases {
		got := statusFromError(1, tc.err)
		if got.StatusError.Code != tc.code {
			t.Errorf("statusFromError(%v).Code = %d, want %d", tc.err, got.StatusError.Code, tc.code)
		}
	}
}

// TestInvalidExtendedPacket exercises the server's reply to an extended
// request it doesn't recognize.
func TestInvalidExtendedPacket(t *testing.T) {
	client, server := clientServerPair(t, InMemHandler())
	defer client.Close()
	defer server.Close()

	req := extendedRequestPacket{ID: client.nextID(), ExtendedRequest: "thisDoesn'tExist"}
	typ, data, err := client.clientConn.sendPacket(nil, idRequest{req})
	if err != nil {
		t.Fatalf("unexpected error from sendPacket: %s", err)
	}
	if fxp(typ) != ssh_FXP_STATUS {
		t.Fatalf("received non-FXP_STATUS packet: %v", typ)
	}

	statusErr, ok := unmarshalStatusErr(data).(*StatusError)
	if !ok {
		t.Fatal("failed to convert error from unmarshalStatusErr to *StatusError")
	}
	if statusErr.Code == sshFxOk {
		t.Errorf("statusErr.Code => %d, wanted a failure code", statusErr.Code)
	}
}

// TestStatNonExistent ensures non-existent files map back to os.IsNotExist
// on the client side.
func TestStatNonExistent(t *testing.T) {
	client, server := clientServerPair(t, InMemHandler())
	defer client.Close()
	defer server.Close()

	for _, file := range []string{"/doesnotexist", "/doesnotexist/a/b"} {
		_, err := client.Stat(file)
		if !os.IsNotExist(err) {
			t.Errorf("expected 'does not exist' err for file %q.  got: %v", file, err)
		}
	}
}

type sink struct{}

func (sink) Write(b []byte) (int, error) { return len(b), nil }
func (sink) Close() error                { return nil }

// TestServerWithBrokenClient ensures the server doesn't panic or hang on
// malformed or truncated input.
func TestServerWithBrokenClient(t *testing.T) {
	initBody, _ := SSHFxInitPacket{Version: sftpProtocolVersion}.MarshalBinary()
	validInit := frame(initBody)

	openBody, _ := (&SSHFxpOpenPacket{ID: 1, Path: "foo"}).MarshalBinary()
	brokenOpen := frame(openBody)
	brokenOpen = brokenOpen[:len(brokenOpen)-2]

	for _, clientInput := range [][]byte{
		// Packet length zero (never valid). This used to crash the server.
		{0, 0, 0, 0},
		append(append([]byte{}, validInit...), 0, 0, 0, 0),

		// Client hangs up mid-packet.
		append(append([]byte{}, validInit...), brokenOpen...),
	} {
		srv, err := NewServer(struct {
			io.Reader
			io.WriteCloser
		}{
			strings.NewReader(string(clientInput)),
			sink{},
		}, InMemHandler())
		require.NoError(t, err)

		err = srv.Serve()
		assert.Error(t, err)
		srv.Close()
	}
}

func TestChroot(t *testing.T) {
	tmpFolder := "/var/tmp"
	if runtime.GOOS == "plan9" {
		tmpFolder = "/tmp"
	} else if runtime.GOOS == "windows" {
		tmpFolder = "C:/Windows/Temp"
	}
	rootPath, err := ioutil.TempDir(tmpFolder, "sftp")
	require.Nil(t, err)
	defer os.RemoveAll(rootPath)

	client, server := clientServerPair(t, ChrootHandler(rootPath))
	defer client.Close()
	defer server.Close()

	t.Run("stat", func(t *testing.T) {
		require.Nil(t, os.MkdirAll(filepath.Join(rootPath, "/stat"), 0700))
		regular := "/stat/regular"
		symlink := "/stat/symlink"
		content := []byte(strings.Repeat("hello sftp", 1024))
		require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, regular), content, 0700))
		require.Nil(t, os.Symlink(filepath.Join(rootPath, regular), filepath.Join(rootPath, symlink)))
		t.Run("regular-stat", func(t *testing.T) {
			f, err := client.Stat(regular)
			require.Nil(t, err)
			require.NotNil(t, f)
			assert.EqualValues(t, filepath.Base(regular), f.Name())
			assert.EqualValues(t, len(content), f.Size())
			assert.True(t, f.Mode().IsRegular())
			assert.False(t, f.IsDir())
		})
		t.Run("symlink-stat", func(t *testing.T) {
			f, err := client.Stat(symlink)
			require.Nil(t, err)
			require.NotNil(t, f)
			assert.EqualValues(t, filepath.Base(symlink), f.Name())
			assert.EqualValues(t, len(content), f.Size())
			assert.True(t, f.Mode().IsRegular())
			assert.False(t, f.IsDir())
		})
		t.Run("regular-lstat", func(t *testing.T) {
			f, err := client.Lstat(regular)
			require.Nil(t, err)
			require.NotNil(t, f)
			assert.EqualValues(t, filepath.Base(regular), f.Name())
			assert.EqualValues(t, len(content), f.Size())
			assert.True(t, f.Mode().IsRegular())
			assert.False(t, f.IsDir())
		})
		t.Run("symlink-lstat", func(t *testing.T) {
			f, err := client.Lstat(symlink)
			require.Nil(t, err)
			require.NotNil(t, f)
			assert.EqualValues(t, filepath.Base(symlink), f.Name())
			assert.NotZero(t, f.Mode()&fs.ModeSymlink)
		})
		t.Run("readlink", func(t *testing.T) {
			f, err := client.ReadLink(symlink)
			require.Nil(t, err)
			assert.Equal(t, regular, f)
		})
	})
	t.Run("dir", func(t *testing.T) {
		require.Nil(t, os.MkdirAll(filepath.Join(rootPath, "/dir"), 0700))
		assertDir := func(absPath string, exist bool) {
			f, err := os.Lstat(absPath)
			if !exist {
				require.True(t, os.IsNotExist(err))
			} else {
				require.Nil(t, err)
				assert.True(t, f.IsDir())
			}
		}
		t.Run("mkdir", func(t *testing.T) {
			relPath := "/dir/mkdir"
			require.Nil(t, client.Mkdir(relPath))
			assertDir(filepath.Join(rootPath, relPath), true)
			require.NotNil(t, client.Mkdir("/dir/mkdir/nested/should/fail"))
		})
		t.Run("mkdirall", func(t *testing.T) {
			relPath := "/dir/mkdir-all/nested"
			require.Nil(t, client.MkdirAll(relPath))
			assertDir(filepath.Join(rootPath, relPath), true)
		})
		t.Run("rmdir", func(t *testing.T) {
			relPath := "/dir/rmdir"
			require.Nil(t, os.MkdirAll(filepath.Join(rootPath, relPath), 0700))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, relPath, "nested"), []byte("some file"), 0700))
			require.NotNil(t, client.RemoveDirectory(relPath))
			require.Nil(t, os.Remove(filepath.Join(rootPath, relPath, "nested")))
			require.Nil(t, client.RemoveDirectory(relPath))
			assertDir(filepath.Join(rootPath, relPath), false)
		})
	})
	t.Run("file", func(t *testing.T) {
		require.Nil(t, os.MkdirAll(filepath.Join(rootPath, "/file"), 0700))
		t.Run("symlink", func(t *testing.T) {
			regular := "/file/regular"
			symlink := "/file/symlink"
			content := []byte(strings.Repeat("hello sftp", 1024))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, regular), content, 0700))
			require.Nil(t, client.Symlink(regular, symlink))
			f, err := os.Lstat(filepath.Join(rootPath, symlink))
			require.Nil(t, err)
			assert.EqualValues(t, filepath.Base(symlink), f.Name())
			assert.NotZero(t, f.Mode()&fs.ModeSymlink)
		})
		t.Run("rename", func(t *testing.T) {
			oldfile := "/file/oldfile"
			newfile := "/file/newfile"
			content := []byte(strings.Repeat("hello sftp", 1024))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, oldfile), content, 0700))
			require.Nil(t, client.Rename(oldfile, newfile))
			require.NoFileExists(t, filepath.Join(rootPath, oldfile))
			require.FileExists(t, filepath.Join(rootPath, newfile))
		})
		t.Run("remove", func(t *testing.T) {
			toRemove := "/file/to-remove"
			content := []byte(strings.Repeat("hello sftp", 1024))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, toRemove), content, 0700))
			require.Nil(t, client.Remove(toRemove))
			require.NoFileExists(t, filepath.Join(rootPath, toRemove))
			require.NotNil(t, client.Remove(toRemove))
		})
		t.Run("open", func(t *testing.T) {
			readfile := "/file/readfile"
			content := []byte(strings.Repeat("hello sftp", 1024))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, readfile), content, 0700))
			f, err := client.Open(readfile)
			require.Nil(t, err)
			require.NotNil(t, f)
			defer f.Close()
			got, err := ioutil.ReadAll(f)
			require.Nil(t, err)
			assert.EqualValues(t, content, got)
		})
		t.Run("write", func(t *testing.T) {
			writefile := "/file/writefile"
			content := []byte(strings.Repeat("hello sftp", 1024))
			f, err := client.Create(writefile)
			require.Nil(t, err)
			require.NotNil(t, f)
			defer f.Close()
			n, err := f.Write(content)
			require.Nil(t, err)
			assert.EqualValues(t, len(content), n)
			require.FileExists(t, filepath.Join(rootPath, writefile))
			got, err := ioutil.ReadFile(filepath.Join(rootPath, writefile))
			require.Nil(t, err)
			assert.EqualValues(t, content, got)
		})
	})
	t.Run("relative", func(t *testing.T) {
		require.Nil(t, os.MkdirAll(filepath.Join(rootPath, "/relative"), 0700))
		t.Run("opendir", func(t *testing.T) {
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, "/relative/file1"), []byte("file1"), 0700))
			require.Nil(t, ioutil.WriteFile(filepath.Join(rootPath, "/relative/file2"), []byte("file2"), 0700))
			files, err := client.ReadDir("/relative")
			require.Nil(t, err)
			require.Len(t, files, 2)
			for _, file := range files {
				assert.Contains(t, file.Name(), "file")
				assert.EqualValues(t, file.Size(), 5)
			}
		})
	})
	t.Run("realpath", func(t *testing.T) {
		f, err := client.RealPath(".")
		require.Nil(t, err)
		assert.Equal(t, "/", f)
	})
	t.Run("out-of-path", func(t *testing.T) {
		_, err := client.RealPath("..")
		require.NotNil(t, err)
		_, err = client.ReadDir("..")
		require.NotNil(t, err)
	})
}
