// +build aix darwin dragonfly freebsd !android,linux netbsd openbsd solaris

package sftp

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

func lsLinksUIDGID(fi os.FileInfo) (numLinks uint64, uid, gid string) {
	numLinks = 1
	uid, gid = "0", "0"

	switch sys := fi.Sys().(type) {
	case *syscall.Stat_t:
		numLinks = uint64(sys.Nlink)
		uid = lsUsername(lsFormatID(sys.Uid))
		gid = lsGroupName(lsFormatID(sys.Gid))
	default:
	}

	return numLinks, uid, gid
}

func lsFormatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

func lsUsername(id string) string {
	u, err := user.LookupId(id)
	if err != nil {
		return id
	}
	return u.Username
}

func lsGroupName(id string) string {
	g, err := user.LookupGroupId(id)
	if err != nil {
		return id
	}
	return g.Name
}
