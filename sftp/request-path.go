package sftp

import "path/filepath"

// cleanPath normalizes an incoming request path to a slash-rooted,
// lexically clean form, independent of the server platform's path syntax.
func cleanPath(p string) string {
	if p == "" {
		p = "/"
	} else if p[0] != '/' {
		p = "/" + p
	}
	return filepath.ToSlash(filepath.Clean(p))
}
