// +build !darwin,!linux,!plan9

package sftp

import (
	"syscall"
)

func getStatVFSForPath(name string) (*StatVFS, error) {
	return nil, syscall.ENOTSUP
}
