// Package channel implements SSH connection-protocol channel
// multiplexing (RFC 4254 §5): open/close handshake, window-based flow
// control, and local channel-id allocation with freed-id reuse (spec.md
// §4.5, component C5).
package channel

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ardenhq/sshrelay/wire"
)

const (
	MsgChannelOpen             = 90
	MsgChannelOpenConfirmation = 91
	MsgChannelOpenFailure      = 92
	MsgChannelWindowAdjust     = 93
	MsgChannelData             = 94
	MsgChannelExtendedData     = 95
	MsgChannelEOF              = 96
	MsgChannelClose            = 97
	MsgChannelRequest          = 98
	MsgChannelSuccess          = 99
	MsgChannelFailure          = 100
)

// Open failure reason codes, RFC 4254 §5.1.
const (
	OpenAdministrativelyProhibited = 1
	OpenConnectFailed              = 2
	OpenUnknownChannelType         = 3
	OpenResourceShortage           = 4
)

// DefaultWindowSize and DefaultMaxPacketSize are the initial flow-control
// parameters this side advertises when opening or confirming a channel,
// matching spec.md §4.5's suggested defaults.
const (
	DefaultWindowSize    = 2 * 1024 * 1024
	DefaultMaxPacketSize = 32 * 1024
)

// Channel is one multiplexed logical connection, tracked on both ends by a
// pair of independent local ids. Only the owning Table touches the
// localID/peerID fields; Channel itself only does window/state
// bookkeeping, to keep the same separation of concerns the teacher keeps
// between its handle table and the IO it multiplexes.
type Channel struct {
	mu sync.Mutex

	localID, peerID uint32
	chanType        string

	sendWindow, sendMaxPacket uint32
	recvWindow, recvMaxPacket uint32

	recvWindowFloor uint32 // target window; a window-adjust back up to it is sent once recvWindow falls to half of this

	sentEOF, recvEOF     bool
	sentClose, recvClose bool
}

// OpenError wraps a CHANNEL_OPEN_FAILURE reply.
type OpenError struct {
	Reason      uint32
	Description string
}

func (e *OpenError) Error() string { return "ssh: channel open failed: " + e.Description }

// Table owns the local-id allocation for one Connection's channels, per
// spec.md §4.5's "never reuse an id still referenced by the peer"
// invariant (testable properties 11-13). Grounded on the teacher's
// allocator.go slab/free-list pattern (sftp/allocator.go), generalized
// from byte-range allocation to channel-id allocation.
type Table struct {
	mu       sync.Mutex
	byID     map[uint32]*Channel
	freeIDs  []uint32
	nextID   uint32
}

// NewTable creates an empty channel table.
func NewTable() *Table {
	return &Table{byID: make(map[uint32]*Channel)}
}

// Alloc reserves a fresh local id (reusing a freed one if available) and
// registers a new Channel under it.
func (t *Table) Alloc(chanType string, recvWindow, recvMaxPacket uint32) *Channel {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id uint32
	if n := len(t.freeIDs); n > 0 {
		id = t.freeIDs[n-1]
		t.freeIDs = t.freeIDs[:n-1]
	} else {
		id = t.nextID
		t.nextID++
	}

	ch := &Channel{
		localID:      id,
		chanType:     chanType,
		recvWindow:   recvWindow,
		recvMaxPacket: recvMaxPacket,
	}
	t.byID[id] = ch
	return ch
}

// Lookup returns the Channel registered under a local id.
func (t *Table) Lookup(localID uint32) (*Channel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.byID[localID]
	return ch, ok
}

// Free releases localID back to the pool. The spec.md §4.5 invariant that
// this must only happen after both CHANNEL_CLOSE directions have been
// observed is the caller's responsibility (Channel.Closed reports it).
func (t *Table) Free(localID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byID, localID)
	t.freeIDs = append(t.freeIDs, localID)
}

// LocalID/PeerID/Type are read-only accessors.
func (c *Channel) LocalID() uint32 { return c.localID }
func (c *Channel) PeerID() uint32  { return c.peerID }
func (c *Channel) Type() string    { return c.chanType }

// ConfirmOpen records the peer's id and its advertised window/max-packet
// once CHANNEL_OPEN_CONFIRMATION (outbound open) or the initial
// CHANNEL_OPEN (inbound open) is processed.
func (c *Channel) ConfirmOpen(peerID, sendWindow, sendMaxPacket uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerID = peerID
	c.sendWindow = sendWindow
	c.sendMaxPacket = sendMaxPacket
}

// CanSend reports whether n bytes of CHANNEL_DATA fit within the current
// send window, per spec.md §4.5's "never send more data than the peer's
// advertised window allows" invariant (testable property 11).
func (c *Channel) CanSend(n uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return n <= c.sendWindow
}

// ConsumeSendWindow deducts n bytes after a CHANNEL_DATA/EXTENDED_DATA
// send.
func (c *Channel) ConsumeSendWindow(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > c.sendWindow {
		c.sendWindow = 0
		return
	}
	c.sendWindow -= n
}

// AdjustSendWindow applies an incoming CHANNEL_WINDOW_ADJUST.
func (c *Channel) AdjustSendWindow(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendWindow += n
}

// ConsumeRecvWindow deducts n bytes after receiving CHANNEL_DATA, and
// reports how much window-adjust credit (if any) should now be sent back
// — spec.md §4.5's "replenish before the peer's window starves" policy:
// once recvWindow falls to half of the advertised floor, top it back up to
// the full configured size in one CHANNEL_WINDOW_ADJUST.
func (c *Channel) ConsumeRecvWindow(n uint32) (adjust uint32, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > c.recvWindow {
		return 0, errors.Errorf("ssh: peer sent %d bytes exceeding channel %d's receive window", n, c.localID)
	}
	c.recvWindow -= n

	if c.recvWindow <= c.recvWindowFloor/2 {
		adjust = c.recvWindowFloor - c.recvWindow
		c.recvWindow = c.recvWindowFloor
	}
	return adjust, nil
}

// SetRecvWindowFloor sets the target window size used by ConsumeRecvWindow's
// top-up policy; callers set this once from DefaultWindowSize or a
// negotiated override.
func (c *Channel) SetRecvWindowFloor(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recvWindowFloor = n
}

// MarkSentEOF/MarkRecvEOF/MarkSentClose/MarkRecvClose record one-shot
// protocol events.
func (c *Channel) MarkSentEOF()   { c.mu.Lock(); c.sentEOF = true; c.mu.Unlock() }
func (c *Channel) MarkRecvEOF()   { c.mu.Lock(); c.recvEOF = true; c.mu.Unlock() }
func (c *Channel) MarkSentClose() { c.mu.Lock(); c.sentClose = true; c.mu.Unlock() }
func (c *Channel) MarkRecvClose() { c.mu.Lock(); c.recvClose = true; c.mu.Unlock() }

// Closed reports whether both directions have exchanged CHANNEL_CLOSE,
// the only point at which Table.Free may safely recycle the local id.
func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentClose && c.recvClose
}

// MarshalOpen builds a CHANNEL_OPEN payload.
func MarshalOpen(chanType string, localID, window, maxPacket uint32, typeSpecific []byte) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(chanType)
	buf.AppendUint32(localID)
	buf.AppendUint32(window)
	buf.AppendUint32(maxPacket)
	buf.AppendRaw(typeSpecific)
	return buf.Bytes()
}
