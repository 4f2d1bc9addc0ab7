package sftp

import "os"

// RunLs renders dirent in the `ls -l` longname format used in the NAME
// response for List requests.
func RunLs(dirname string, dirent os.FileInfo) string {
	return runLs(dirname, dirent)
}
