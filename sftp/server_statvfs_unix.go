// +build linux darwin

package sftp

import (
	"syscall"
)

func getStatVFSForPath(name string) (*StatVFS, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(name, &stat); err != nil {
		return nil, err
	}
	return statvfsFromStatfst(&stat)
}
