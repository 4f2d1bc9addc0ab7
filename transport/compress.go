package transport

import (
	"bytes"
	"compress/zlib"
	"sync"

	"github.com/pkg/errors"
)

// zlibCompressor/zlibDecompressor implement the "zlib" and
// "zlib@openssh.com" algorithms (spec.md §4.2, §6 Compressor collaborator).
// "zlib@openssh.com" defers compression until after authentication
// completes; "zlib" applies from the first NEWKEYS. Transport gates this
// via Compressor.IsDelayed, independent of which concrete algorithm name
// was negotiated.
type zlibCompressor struct {
	mu      sync.Mutex
	w       *zlib.Writer
	out     bytes.Buffer
	delayed bool
}

// NewZlibCompressor constructs a stateful zlib stream compressor, backed
// by a zlib.Writer whose internal dictionary/history persists across
// Compress calls (only the output buffer is drained each call) so the
// result is a single continuous deflate stream, not independently
// compressed packets.
func NewZlibCompressor(delayed bool) Compressor {
	c := &zlibCompressor{delayed: delayed}
	c.w = zlib.NewWriter(&c.out)
	return c
}

func (c *zlibCompressor) IsDelayed() bool { return c.delayed }

func (c *zlibCompressor) Compress(dst, src []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Write(src)
	c.w.Flush()
	dst = append(dst, c.out.Bytes()...)
	c.out.Reset()
	return dst
}

// zlibDecompressor is the inflate side of the same continuous stream: a
// zlib.Reader over a growable bytes.Buffer that Decompress feeds just
// before reading, so the reader only ever consumes exactly the bytes of
// one flush-delimited block.
type zlibDecompressor struct {
	mu      sync.Mutex
	in      bytes.Buffer
	r       *zlib.Reader
	delayed bool
}

// NewZlibDecompressor constructs the matching inflate-side stream.
func NewZlibDecompressor(delayed bool) Decompressor {
	return &zlibDecompressor{delayed: delayed}
}

func (d *zlibDecompressor) IsDelayed() bool { return d.delayed }

func (d *zlibDecompressor) Decompress(dst, src []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.in.Write(src)

	if d.r == nil {
		r, err := zlib.NewReader(&d.in)
		if err != nil {
			return nil, errors.Wrap(err, "ssh: reading zlib header")
		}
		d.r = r
	}

	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := d.r.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			// d.in temporarily drained at this flush boundary: the rest
			// of the decompressed block, if any, arrives with the next
			// Decompress call's bytes.
			break
		}
		if n == 0 {
			break
		}
	}
	return append(dst, out...), nil
}
