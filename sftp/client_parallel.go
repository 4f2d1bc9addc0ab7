package sftp

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// readAt services File.ReadAt by splitting [off, off+len(b)) into at most
// c.maxPacket-sized SSH_FXP_READ requests and firing up to
// c.maxConcurrentRequests of them at once over the shared clientConn, which
// already multiplexes replies by request id.
func (c *Client) readAt(handle string, b []byte, off int64) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	type chunk struct{ start, length int }
	var chunks []chunk
	for start := 0; start < len(b); start += c.maxPacket {
		length := c.maxPacket
		if start+length > len(b) {
			length = len(b) - start
		}
		chunks = append(chunks, chunk{start, length})
	}

	type outcome struct {
		n   int
		err error
	}
	results := make([]outcome, len(chunks))

	sem := make(chan struct{}, c.maxConcurrentRequests)
	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ch chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			req := &SSHFxpReadPacket{
				ID:     c.nextID(),
				Handle: handle,
				Offset: uint64(off) + uint64(ch.start),
				Len:    uint32(ch.length),
			}
			data, err := c.readChunk(req)
			n := copy(b[ch.start:ch.start+ch.length], data)
			results[i] = outcome{n: n, err: err}
		}(i, ch)
	}
	wg.Wait()

	// ReadAt requires n < len(b) imply a non-nil error, so only the
	// contiguous prefix up to the first short or failed chunk counts.
	var total int
	var retErr error
	for i, r := range results {
		total += r.n
		if r.n < chunks[i].length || r.err != nil {
			retErr = r.err
			if retErr == nil || errors.Is(retErr, ErrSSHFxEOF) {
				retErr = io.EOF
			}
			break
		}
	}
	return total, retErr
}

// writeAt services File.WriteAt the same way readAt services ReadAt: chunked
// SSH_FXP_WRITE requests dispatched up to c.maxConcurrentRequests at a time.
func (c *Client) writeAt(handle string, b []byte, off int64) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	type chunk struct{ start, end int }
	var chunks []chunk
	for start := 0; start < len(b); start += c.maxPacket {
		end := start + c.maxPacket
		if end > len(b) {
			end = len(b)
		}
		chunks = append(chunks, chunk{start, end})
	}

	results := make([]error, len(chunks))

	sem := make(chan struct{}, c.maxConcurrentRequests)
	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ch chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			req := &SSHFxpWritePacket{
				ID:     c.nextID(),
				Handle: handle,
				Offset: uint64(off) + uint64(ch.start),
				Length: uint32(ch.end - ch.start),
				Data:   b[ch.start:ch.end],
			}
			results[i] = c.expectStatus(req)
		}(i, ch)
	}
	wg.Wait()

	var total int
	var retErr error
	for i, err := range results {
		if err != nil {
			if retErr == nil {
				retErr = err
			}
			break
		}
		total += chunks[i].end - chunks[i].start
	}
	return total, retErr
}
