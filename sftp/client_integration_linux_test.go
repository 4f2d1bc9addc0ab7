package sftp

import (
	"syscall"
	"testing"
)

func TestClientStatVFS(t *testing.T) {
	root := t.TempDir()

	clientConn, serverConn := netPipe(t)

	server, err := NewServer(serverConn, FilesystemHandler(root))
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = server.Serve() }()
	defer server.Close()

	client, err := NewClient(clientConn)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if !client.HasExtension("statvfs@openssh.com") {
		t.Skip("server doesn't list statvfs extension")
	}

	vfs, err := client.StatVFS("/")
	if err != nil {
		t.Fatal(err)
	}

	s := syscall.Statfs_t{}
	if err := syscall.Statfs(root, &s); err != nil {
		t.Fatal(err)
	}

	if vfs.Frsize != uint64(s.Frsize) {
		t.Errorf("f_frsize = %d, want %d", vfs.Frsize, s.Frsize)
	}
	if vfs.Bsize != uint64(s.Bsize) {
		t.Errorf("f_bsize = %d, want %d", vfs.Bsize, s.Bsize)
	}
	if vfs.Namemax != uint64(s.Namelen) {
		t.Errorf("f_namemax = %d, want %d", vfs.Namemax, s.Namelen)
	}
}
