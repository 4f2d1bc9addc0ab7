package transport

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ProtocolError is a fatal framing/ordering violation (spec.md §7).
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "ssh: protocol error: " + e.Msg }

func protoErrf(format string, args ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

const (
	maxBannerLineLen  = 8192
	maxPreBannerLines = 1024
	maxBannerTotalLen = 255
)

// DefaultVersion is the banner this module emits absent an explicit
// Config.Version. SendBanner rejects, with a ProtocolError, a version whose
// banner line (CRLF included) would exceed 255 octets; it does not
// truncate it.
const DefaultVersion = "SSH-2.0-ardenhq_sshrelay"

// SendBanner writes "SSH-2.0-<version>\r\n" to w. version must already
// exclude the "SSH-2.0-" prefix and CRLF suffix.
func SendBanner(w io.Writer, version string) error {
	line := "SSH-2.0-" + version
	if len(line)+2 > maxBannerTotalLen {
		return protoErrf("local version string %q exceeds %d octets", line, maxBannerTotalLen)
	}
	_, err := fmt.Fprintf(w, "%s\r\n", line)
	return errors.Wrap(err, "ssh: writing version banner")
}

// ReadBanner reads the peer's version banner line, tolerating up to
// maxPreBannerLines non-"SSH-" lines when isClient is true (spec.md §4.2).
// It returns the full banner line (without CRLF) and the remaining
// peer software-version identification string.
func ReadBanner(r *bufio.Reader, isClient bool) (banner, peerVersion string, err error) {
	for i := 0; ; i++ {
		if isClient && i > maxPreBannerLines {
			return "", "", protoErrf("too many lines (%d) before version banner", i)
		}

		line, err := readBannerLine(r)
		if err != nil {
			return "", "", err
		}

		if strings.HasPrefix(line, "SSH-") {
			banner = line
			break
		}
		if !isClient {
			return "", "", protoErrf("server received non-banner line before SSH- banner")
		}
	}

	if !strings.HasPrefix(banner, "SSH-2.0-") {
		if isClient && strings.HasPrefix(banner, "SSH-1.99-") {
			peerVersion = strings.TrimPrefix(banner, "SSH-1.99-")
			return banner, peerVersion, nil
		}
		return "", "", protoErrf("unsupported protocol banner %q", banner)
	}

	return banner, strings.TrimPrefix(banner, "SSH-2.0-"), nil
}

func readBannerLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", errors.Wrap(err, "ssh: reading version banner")
		}
		if b == '\n' {
			break
		}
		buf = append(buf, b)
		if len(buf) > maxBannerLineLen {
			return "", protoErrf("version banner line exceeds %d bytes", maxBannerLineLen)
		}
	}
	return strings.TrimSuffix(string(buf), "\r"), nil
}
