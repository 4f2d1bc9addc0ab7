package channel

import (
	"sync"

	"github.com/ardenhq/sshrelay/wire"
)

// Global request message numbers (RFC 4254 §4).
const (
	MsgGlobalRequest  = 80
	MsgRequestSuccess = 81
	MsgRequestFailure = 82
)

// GlobalRequest is a parsed GLOBAL_REQUEST payload.
type GlobalRequest struct {
	Name         string
	WantReply    bool
	TypeSpecific []byte
}

// ParseGlobalRequest decodes a GLOBAL_REQUEST payload.
func ParseGlobalRequest(payload []byte) (*GlobalRequest, error) {
	buf := wire.NewBuffer(payload)
	name, err := buf.ConsumeString()
	if err != nil {
		return nil, err
	}
	wantReply, err := buf.ConsumeBool()
	if err != nil {
		return nil, err
	}
	return &GlobalRequest{Name: name, WantReply: wantReply, TypeSpecific: buf.Bytes()}, nil
}

// MarshalGlobalRequest encodes a GLOBAL_REQUEST payload.
func MarshalGlobalRequest(name string, wantReply bool, typeSpecific []byte) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(name)
	buf.AppendBool(wantReply)
	buf.AppendRaw(typeSpecific)
	return buf.Bytes()
}

// OutstandingQueue correlates REQUEST_SUCCESS/REQUEST_FAILURE replies to
// the GLOBAL_REQUESTs that asked for them, in strict send order — RFC
// 4254 §4's implicit "replies arrive in the order requests were sent"
// rule, since GLOBAL_REQUEST carries no correlation id of its own.
// Grounded on sftp/packet-manager.go's ordered-completion queue, which
// solves the identical "re-serialize async replies back into request
// order" problem for SFTP.
type OutstandingQueue struct {
	mu      sync.Mutex
	waiters []chan globalReplyResult
}

type globalReplyResult struct {
	ok      bool
	payload []byte
}

// Enqueue registers a new outstanding wantReply GLOBAL_REQUEST and
// returns a function the caller blocks on to receive its eventual
// success/failure.
func (q *OutstandingQueue) Enqueue() func() (ok bool, payload []byte) {
	ch := make(chan globalReplyResult, 1)
	q.mu.Lock()
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()

	return func() (bool, []byte) {
		r := <-ch
		return r.ok, r.payload
	}
}

// Resolve delivers the next outstanding reply, in FIFO order, to whichever
// Enqueue call is oldest.
func (q *OutstandingQueue) Resolve(ok bool, payload []byte) {
	q.mu.Lock()
	if len(q.waiters) == 0 {
		q.mu.Unlock()
		return
	}
	ch := q.waiters[0]
	q.waiters = q.waiters[1:]
	q.mu.Unlock()

	ch <- globalReplyResult{ok: ok, payload: payload}
}

// InboundQueue serializes incoming GLOBAL_REQUESTs so the application
// handles them — and replies to them — in the order the peer sent them,
// even when individual handlers (e.g. tcpip-forward) complete
// asynchronously.
type InboundQueue struct {
	mu   sync.Mutex
	reqs []*GlobalRequest
}

// Push appends an inbound GLOBAL_REQUEST to the FIFO.
func (q *InboundQueue) Push(req *GlobalRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
}

// Pop removes and returns the oldest inbound request, if any.
func (q *InboundQueue) Pop() (*GlobalRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.reqs) == 0 {
		return nil, false
	}
	req := q.reqs[0]
	q.reqs = q.reqs[1:]
	return req, true
}

// ReplyQueue enforces RFC 4254 §4's implicit reply-ordering rule:
// GLOBAL_REQUEST carries no correlation id, so SUCCESS/FAILURE replies
// must be written out in the same order the requests arrived, even when
// an application's handlers finish resolving them out of order (e.g. one
// tcpip-forward attempt completes before an earlier, slower one).
type ReplyQueue struct {
	mu      sync.Mutex
	pending []*GlobalRequest
	results map[*GlobalRequest]replyResult
	flush   func(ok bool, payload []byte)
}

type replyResult struct {
	ok      bool
	payload []byte
}

// NewReplyQueue returns a ReplyQueue that invokes flush, once per
// resolved request and in FIFO arrival order, to actually write the
// reply to the wire.
func NewReplyQueue(flush func(ok bool, payload []byte)) *ReplyQueue {
	return &ReplyQueue{
		results: make(map[*GlobalRequest]replyResult),
		flush:   flush,
	}
}

// Await registers req, in arrival order, as awaiting a reply.
func (q *ReplyQueue) Await(req *GlobalRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, req)
}

// Resolve records req's outcome and flushes as many now-ready replies, in
// FIFO order, as are available.
func (q *ReplyQueue) Resolve(req *GlobalRequest, ok bool, payload []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.results[req] = replyResult{ok: ok, payload: payload}

	for len(q.pending) > 0 {
		head := q.pending[0]
		r, done := q.results[head]
		if !done {
			break
		}
		q.pending = q.pending[1:]
		delete(q.results, head)
		q.flush(r.ok, r.payload)
	}
}
