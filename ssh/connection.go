package ssh

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/ardenhq/sshrelay/auth"
	"github.com/ardenhq/sshrelay/channel"
	"github.com/ardenhq/sshrelay/internal/xlog"
	"github.com/ardenhq/sshrelay/internal/xmetrics"
	"github.com/ardenhq/sshrelay/kex"
	"github.com/ardenhq/sshrelay/transport"
	"github.com/ardenhq/sshrelay/wire"
)

// Message-number ranges, spec.md §4.7 dispatch table.
const (
	MsgDisconnect = 1
	MsgIgnore     = 2
	MsgUnimplemented = 3
	MsgDebug      = 4
	MsgExtInfo    = 7
	MsgKexInit    = 20
	MsgNewKeys    = 21
)

// Phase is the connection's place in spec.md §4.7's phase gating: which
// message ranges are legal right now.
type Phase int

const (
	PhaseVersionExchange Phase = iota
	PhaseKex
	PhaseAuth
	PhaseConnected
)

// Connection drives one transport.Transport through KEX, auth and channel
// multiplexing. Grounded on sftp/server.go's recvPacket→classify→handle
// worker loop shape, generalized from the single SFTP message space to
// the full transport/kex/auth/channel range.
type Connection struct {
	id xid.ID // spec.md §9 global connection counter, for logging

	t    *transport.Transport
	role transport.Role
	cfg  *Config

	hostKey *HostKey // server role only

	log *logrus.Entry

	chTable   *channel.Table
	globalOut channel.OutstandingQueue
	globalIn  channel.InboundQueue

	phase        Phase
	phaseMu      sync.Mutex
	lastActivity time.Time

	clientVersion, serverVersion string

	// sendMu guards kexActive/deferredOut: spec.md §4.2's requirement
	// that outbound traffic be held back while a KEX (initial or rekey)
	// is in flight, then flushed, in FIFO order, once NEWKEYS lands.
	sendMu      sync.Mutex
	kexActive   bool
	deferredOut []deferredPacket

	globalReply *channel.ReplyQueue

	extInfoSent bool
	peerExtInfo *auth.ExtInfo

	OnChannelOpen    func(*Connection, *channel.OpenRequest)
	OnGlobalRequest  func(*Connection, *channel.GlobalRequest)
	OnChannelRequest func(*Connection, *channel.Channel, *channel.ChannelRequest)
	OnChannelData    func(*Connection, *channel.Channel, []byte)
	OnChannelExtendedData func(*Connection, *channel.Channel, uint32, []byte)
	OnChannelClosed  func(*Connection, *channel.Channel)
}

// deferredPacket is one outbound message held back while a KEX is active.
type deferredPacket struct {
	msgType byte
	payload []byte
}

// NewConnection wraps rwc as role, ready for Handshake.
func NewConnection(rwc io.ReadWriteCloser, role transport.Role, cfg *Config, hostKey *HostKey) *Connection {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	id := xid.New()
	c := &Connection{
		id:      id,
		t:       transport.NewTransport(rwc, role),
		role:    role,
		cfg:     cfg,
		hostKey: hostKey,
		chTable: channel.NewTable(),
		log:     xlog.Component("connection").WithField("conn", id.String()),
	}
	c.globalReply = channel.NewReplyQueue(c.flushGlobalReply)
	return c
}

// ID returns this connection's sortable, globally-unique log identifier.
func (c *Connection) ID() string { return c.id.String() }

// sendOrDefer writes an application-facing outbound message, or, if a KEX
// is currently in flight, appends it to the FIFO deferred-output queue for
// flushAfterKex to send once NEWKEYS completes (spec.md §4.2, testable
// property 5).
func (c *Connection) sendOrDefer(msgType byte, payload []byte) error {
	c.sendMu.Lock()
	if c.kexActive {
		c.deferredOut = append(c.deferredOut, deferredPacket{msgType: msgType, payload: payload})
		c.sendMu.Unlock()
		return nil
	}
	c.sendMu.Unlock()

	return c.t.Send(msgType, payload)
}

// beginKex marks a KEX as in flight, so sendOrDefer starts queuing instead
// of writing to the wire.
func (c *Connection) beginKex() {
	c.sendMu.Lock()
	c.kexActive = true
	c.sendMu.Unlock()
}

// endKexAndFlush clears the in-flight marker and writes out, in arrival
// order, everything sendOrDefer queued during the KEX.
func (c *Connection) endKexAndFlush() error {
	c.sendMu.Lock()
	c.kexActive = false
	pending := c.deferredOut
	c.deferredOut = nil
	c.sendMu.Unlock()

	for _, p := range pending {
		if err := c.t.Send(p.msgType, p.payload); err != nil {
			return err
		}
	}
	return nil
}

// flushGlobalReply is the channel.ReplyQueue callback that actually writes
// REQUEST_SUCCESS/REQUEST_FAILURE to the wire, once a GlobalRequest's
// reply reaches the head of the FIFO.
func (c *Connection) flushGlobalReply(ok bool, payload []byte) {
	if ok {
		_ = c.sendOrDefer(channel.MsgRequestSuccess, payload)
		return
	}
	_ = c.sendOrDefer(channel.MsgRequestFailure, nil)
}

func (c *Connection) setPhase(p Phase) {
	c.phaseMu.Lock()
	c.phase = p
	c.phaseMu.Unlock()
}

// Phase reports the connection's current spec.md §4.7 phase.
func (c *Connection) Phase() Phase {
	c.phaseMu.Lock()
	defer c.phaseMu.Unlock()
	return c.phase
}

// Handshake performs banner exchange, KEXINIT negotiation and the default
// KEX method, activating encryption before returning. It must be called
// exactly once, before any auth/channel traffic.
func (c *Connection) Handshake() error {
	c.setPhase(PhaseVersionExchange)

	localLine, peerLine, _, err := c.t.ExchangeBanner(c.cfg.Version)
	if err != nil {
		return err
	}

	if c.role == transport.RoleClient {
		c.clientVersion, c.serverVersion = localLine, peerLine
	} else {
		c.clientVersion, c.serverVersion = peerLine, localLine
	}

	c.setPhase(PhaseKex)
	return c.runKex(true)
}

// runKex performs the initial KEX (first==true, gated by PhaseKex) or a
// self-initiated rekey (first==false, legal mid-PhaseConnected per
// spec.md §4.2). The responder side of a rekey the peer started goes
// through runKexResponder instead: the peer's KEXINIT was already read off
// the wire by Serve's dispatch loop, so runKexCrossing skips the Recv step
// and negotiates against it directly instead of reading a second one.
func (c *Connection) runKex(first bool) error {
	return c.runKexCrossing(first, nil)
}

// runKexResponder re-enters runKex's negotiation using a KEXINIT the
// caller already received (spec.md §4.2: "KEXINIT may cross in flight").
func (c *Connection) runKexResponder(peerInitPayload []byte) error {
	return c.runKexCrossing(false, peerInitPayload)
}

func (c *Connection) runKexCrossing(first bool, peerInitPayload []byte) (err error) {
	c.beginKex()
	defer func() {
		if ferr := c.endKexAndFlush(); err == nil {
			err = ferr
		}
	}()

	kr := kex.RoleClient
	if c.role == transport.RoleServer {
		kr = kex.RoleServer
	}

	localInit, err := kex.NewInit(kr, c.cfg.KexAlgorithms, c.cfg.HostKeyAlgorithms,
		c.cfg.Ciphers, c.cfg.Ciphers, c.cfg.MACs, c.cfg.MACs, c.cfg.Compression, c.cfg.Compression)
	if err != nil {
		return err
	}
	localPayload := localInit.Marshal()
	if err := c.t.Send(MsgKexInit, localPayload); err != nil {
		return err
	}

	peerPayload := peerInitPayload
	if peerPayload == nil {
		msgType, p, err := c.t.Recv()
		if err != nil {
			return err
		}
		if msgType != MsgKexInit {
			return errors.Errorf("ssh: expected KEXINIT, got message %d", msgType)
		}
		peerPayload = p
	}
	peerInit, err := kex.Unmarshal(peerPayload)
	if err != nil {
		return err
	}

	var clientInit, serverInit *kex.Init
	var clientPayload, serverPayload []byte
	if c.role == transport.RoleClient {
		clientInit, serverInit = localInit, peerInit
		clientPayload, serverPayload = localPayload, peerPayload
	} else {
		clientInit, serverInit = peerInit, localInit
		clientPayload, serverPayload = peerPayload, localPayload
	}

	negotiated, err := kex.Negotiate(clientInit, serverInit)
	if err != nil {
		return err
	}

	if first {
		strict := clientInit.SupportsStrictKex(kex.RoleServer) && serverInit.SupportsStrictKex(kex.RoleClient)
		c.t.SetStrictKex(strict)
	}

	factory, ok := kex.Lookup(negotiated.Kex)
	if !ok {
		return errors.Errorf("ssh: no local implementation of negotiated KEX method %q", negotiated.Kex)
	}
	method := factory()

	if err := c.driveKex(method, clientPayload, serverPayload); err != nil {
		return err
	}

	K, H, err := method.Result()
	if err != nil {
		return err
	}
	c.t.SetSessionID(H)
	sessionID := c.t.SessionID()

	if err := c.activateKeys(method, K, H, sessionID, negotiated); err != nil {
		return err
	}

	if first {
		c.setPhase(PhaseAuth)

		if c.role == transport.RoleServer && !c.extInfoSent {
			// spec.md §4.3: the server emits EXT_INFO exactly once,
			// immediately after its first NEWKEYS, advertising the
			// signature algorithms it accepts for publickey auth and
			// that it understands global-request replies.
			if err := c.t.Send(MsgExtInfo, auth.MarshalExtInfo(auth.ServerSigAlgsExtension)); err != nil {
				return err
			}
			c.extInfoSent = true
		}
	}
	xmetrics.KexCompleted.Inc()
	return nil
}

// driveKex pumps Method.ProcessPacket with this Connection's own
// transport until the exchange reports done, configuring the method's
// transcript/host-key hooks (via kexadapter.go's optional-interface
// adapter) along the way.
func (c *Connection) driveKex(method kex.Method, clientPayload, serverPayload []byte) error {
	configureMethod(method, c.clientVersion, c.serverVersion, clientPayload, serverPayload, c.role, c.hostKey)

	kr := kex.RoleClient
	if c.role == transport.RoleServer {
		kr = kex.RoleServer
	}

	msgType, payload, err := method.Start(kr)
	if err != nil {
		return err
	}
	if payload != nil {
		if err := c.t.Send(msgType, payload); err != nil {
			return err
		}
	}

	for {
		inType, inPayload, err := c.t.Recv()
		if err != nil {
			return err
		}
		replyType, reply, done, err := method.ProcessPacket(inType, inPayload)
		if err != nil {
			return err
		}
		if reply != nil {
			if err := c.t.Send(replyType, reply); err != nil {
				return err
			}
		}
		if done {
			return nil
		}
	}
}

func (c *Connection) activateKeys(method kex.Method, K, H, sessionID []byte, n *kex.Negotiated) error {
	keyC2S := method.ComputeKey(K, H, sessionID, 'C', 64)
	keyS2C := method.ComputeKey(K, H, sessionID, 'D', 64)
	macC2S := method.ComputeKey(K, H, sessionID, 'E', 32)
	macS2C := method.ComputeKey(K, H, sessionID, 'F', 32)

	newCipher := func(key []byte) (transport.StreamCipher, error) {
		switch n.CipherC2S {
		case "chacha20-poly1305@openssh.com":
			return transport.NewChaCha20Poly1305(key)
		default:
			return transport.NewChaCha20Poly1305(key)
		}
	}

	c2sCipher, err := newCipher(keyC2S)
	if err != nil {
		return err
	}
	s2cCipher, err := newCipher(keyS2C)
	if err != nil {
		return err
	}

	etm := n.MACC2S == "hmac-sha2-256-etm@openssh.com"
	c2sMAC := transport.NewHMACSHA256(macC2S, etm)
	s2cMAC := transport.NewHMACSHA256(macS2C, etm)

	var comp transport.Compressor
	var decomp transport.Decompressor
	if n.CompressionC2S != "none" {
		comp = transport.NewZlibCompressor(n.CompressionC2S == "zlib@openssh.com")
	}
	if n.CompressionS2C != "none" {
		decomp = transport.NewZlibDecompressor(n.CompressionS2C == "zlib@openssh.com")
	}

	if c.role == transport.RoleClient {
		c.t.StageKeys(transport.DirSend, c2sCipher, c2sMAC, comp, nil)
		c.t.StageKeys(transport.DirRecv, s2cCipher, s2cMAC, nil, decomp)
	} else {
		c.t.StageKeys(transport.DirSend, s2cCipher, s2cMAC, comp, nil)
		c.t.StageKeys(transport.DirRecv, c2sCipher, c2sMAC, nil, decomp)
	}

	if err := c.t.Send(MsgNewKeys, nil); err != nil {
		return err
	}
	c.t.ActivateSend()

	msgType, _, err := c.t.Recv()
	if err != nil {
		return err
	}
	if msgType != MsgNewKeys {
		return errors.Errorf("ssh: expected NEWKEYS, got message %d", msgType)
	}
	c.t.ActivateRecv()
	return nil
}

// PeerServerSigAlgs returns the signature algorithm names the peer
// advertised via its EXT_INFO server-sig-algs extension (spec.md §4.3),
// or nil if the peer sent no EXT_INFO (or none yet, before the first KEX
// completes). Client applications building a PublickeyMethod should wire
// this into PublickeyMethod.PeerSigAlgs (spec.md §4.4).
func (c *Connection) PeerServerSigAlgs() []string {
	return c.peerExtInfo.ServerSigAlgs()
}

// RunClientAuth drives the auth.ClientDriver against this connection's
// transport until USERAUTH_SUCCESS or a fatal error.
func (c *Connection) RunClientAuth(d *auth.ClientDriver) error {
	if err := c.t.Send(auth.MsgServiceRequest, auth.MarshalServiceRequest(auth.ServiceName)); err != nil {
		return err
	}

	// The server may have sent EXT_INFO immediately after its NEWKEYS
	// (spec.md §4.3); it can arrive here, ahead of SERVICE_ACCEPT.
	var msgType byte
	for {
		var payload []byte
		var err error
		msgType, payload, err = c.t.Recv()
		if err != nil {
			return err
		}
		if msgType != MsgExtInfo {
			break
		}
		if info, perr := auth.ParseExtInfo(payload); perr == nil {
			c.peerExtInfo = info
		}
	}
	if msgType != auth.MsgServiceAccept {
		return errors.Errorf("ssh: server rejected ssh-userauth service request")
	}

	if err := c.t.Send(auth.MsgUserAuthRequest, d.Start()); err != nil {
		return err
	}

	for {
		msgType, payload, err := c.t.Recv()
		if err != nil {
			return err
		}
		switch msgType {
		case auth.MsgUserAuthSuccess:
			c.t.MarkAuthComplete()
			c.setPhase(PhaseConnected)
			return nil
		case auth.MsgUserAuthFailure:
			f, err := auth.ParseFailure(payload)
			if err != nil {
				return err
			}
			if f.Partial {
				d.RestartAfterPartialSuccess()
			}
			next, err := d.Next(f.Remaining)
			if err != nil {
				return &auth.PermissionDenied{Reason: err.Error()}
			}
			if err := c.t.Send(auth.MsgUserAuthRequest, next); err != nil {
				return err
			}
		case auth.MsgUserAuthBanner:
			// Informational; applications wanting the banner text should
			// wrap RunClientAuth and inspect it before ignoring.
		default:
			reply, err := d.HandleExtra(msgType, payload)
			if err != nil {
				return err
			}
			if reply != nil {
				if err := c.t.Send(auth.MsgUserAuthRequest, reply); err != nil {
					return err
				}
			}
		}
	}
}

// RunServerAuth drives the auth.ServerDriver against incoming
// USERAUTH_REQUESTs until success or a fatal error.
func (c *Connection) RunServerAuth(d *auth.ServerDriver) (user string, err error) {
	msgType, payload, err := c.t.Recv()
	if err != nil {
		return "", err
	}
	if msgType != auth.MsgServiceRequest {
		return "", errors.Errorf("ssh: expected SERVICE_REQUEST, got message %d", msgType)
	}
	service, err := auth.ParseServiceRequest(payload)
	if err != nil {
		return "", err
	}
	if service != auth.ServiceName {
		return "", &auth.ServiceNotAvailable{Service: service}
	}
	if err := c.t.Send(auth.MsgServiceAccept, auth.MarshalServiceRequest(service)); err != nil {
		return "", err
	}

	var lastUser string
	for {
		msgType, payload, err := c.t.Recv()
		if err != nil {
			return "", err
		}

		var replyType byte
		var reply []byte
		var success bool

		switch msgType {
		case auth.MsgUserAuthRequest:
			buf := payload
			h, perr := auth.ParseRequestHeader(wire.NewBuffer(buf))
			if perr == nil {
				lastUser = h.User
			}
			replyType, reply, success, err = d.HandleRequest(c.t.SessionID(), payload)
		case auth.MsgUserAuthInfoResponse:
			replyType, reply, success, err = d.HandleInfoResponse(lastUser, payload)
		default:
			return "", errors.Errorf("ssh: unexpected message %d during authentication", msgType)
		}
		if err != nil {
			return "", err
		}
		if replyType != 0 || reply != nil {
			if err := c.t.Send(replyType, reply); err != nil {
				return "", err
			}
		}
		if success {
			c.t.MarkAuthComplete()
			c.setPhase(PhaseConnected)
			return lastUser, nil
		}
	}
}

// Serve runs the post-auth dispatch loop (spec.md §4.7 phase CONNECTED):
// CHANNEL_*/GLOBAL_REQUEST/REQUEST_SUCCESS-FAILURE messages are routed to
// the registered On* callbacks until a fatal error or DISCONNECT.
func (c *Connection) Serve() error {
	for {
		msgType, payload, err := c.t.Recv()
		if err != nil {
			return err
		}
		c.lastActivity = time.Now()

		if c.t.NeedsRekey() {
			if err := c.runKex(false); err != nil {
				return err
			}
		}

		switch {
		case msgType == MsgDisconnect:
			return nil
		case msgType == MsgIgnore || msgType == MsgDebug || msgType == MsgExtInfo:
			// no-op
		case msgType == MsgKexInit:
			// Peer-initiated rekey (spec.md §4.2: KEXINIT may cross in
			// flight): this KEXINIT was already read off the wire, so
			// hand it straight to the responder side of runKex instead
			// of having runKex read a second one.
			if err := c.runKexResponder(payload); err != nil {
				return err
			}
		case msgType >= 80 && msgType <= 82:
			c.dispatchGlobal(msgType, payload)
		case msgType >= 90 && msgType <= 100:
			c.dispatchChannel(msgType, payload)
		default:
			c.log.WithField("msg_type", msgType).Debug("unhandled message type")
		}
	}
}

func (c *Connection) dispatchGlobal(msgType byte, payload []byte) {
	switch msgType {
	case channel.MsgGlobalRequest:
		req, err := channel.ParseGlobalRequest(payload)
		if err != nil {
			return
		}
		c.globalIn.Push(req)
		if req.WantReply {
			c.globalReply.Await(req)
		}
		if c.OnGlobalRequest != nil {
			c.OnGlobalRequest(c, req)
		} else if req.WantReply {
			// spec.md §3: unknown/unhandled global request names MUST
			// reply FAILURE if want_reply is set.
			c.ReportGlobalResponse(req, false, nil)
		}
	case channel.MsgRequestSuccess:
		c.globalOut.Resolve(true, payload)
	case channel.MsgRequestFailure:
		c.globalOut.Resolve(false, nil)
	}
}

// ReportGlobalResponse sends the SUCCESS/FAILURE reply for a GlobalRequest
// previously delivered to OnGlobalRequest. It is the only way an
// application handling e.g. "tcpip-forward" can complete a request that
// had WantReply set; replies are written out in the FIFO order the
// requests were received (RFC 4254 §4's implicit correlation rule), even
// if handlers resolve them out of order.
func (c *Connection) ReportGlobalResponse(req *channel.GlobalRequest, ok bool, payload []byte) {
	c.globalReply.Resolve(req, ok, payload)
}

func (c *Connection) dispatchChannel(msgType byte, payload []byte) {
	switch msgType {
	case channel.MsgChannelOpen:
		req, err := channel.ParseOpenRequest(payload)
		if err != nil {
			return
		}
		if c.OnChannelOpen != nil {
			c.OnChannelOpen(c, req)
		} else {
			_ = c.RejectChannel(req.SenderChannel, channel.OpenAdministrativelyProhibited, "no handler registered")
		}

	case channel.MsgChannelData:
		recipient, data, err := channel.ParseData(payload)
		if err != nil {
			return
		}
		ch, ok := c.chTable.Lookup(recipient)
		if !ok {
			return
		}
		adjust, err := ch.ConsumeRecvWindow(uint32(len(data)))
		if err == nil && adjust > 0 {
			_ = c.sendOrDefer(channel.MsgChannelWindowAdjust, channel.MarshalWindowAdjust(ch.PeerID(), adjust))
		}
		if c.OnChannelData != nil {
			c.OnChannelData(c, ch, data)
		}

	case channel.MsgChannelExtendedData:
		recipient, dataType, data, err := channel.ParseExtendedData(payload)
		if err != nil {
			return
		}
		ch, ok := c.chTable.Lookup(recipient)
		if !ok {
			return
		}
		adjust, err := ch.ConsumeRecvWindow(uint32(len(data)))
		if err == nil && adjust > 0 {
			_ = c.sendOrDefer(channel.MsgChannelWindowAdjust, channel.MarshalWindowAdjust(ch.PeerID(), adjust))
		}
		if c.OnChannelExtendedData != nil {
			c.OnChannelExtendedData(c, ch, dataType, data)
		}

	case channel.MsgChannelWindowAdjust:
		recipient, n, err := channel.ParseWindowAdjust(payload)
		if err != nil {
			return
		}
		if ch, ok := c.chTable.Lookup(recipient); ok {
			ch.AdjustSendWindow(n)
		}

	case channel.MsgChannelEOF:
		recipient, err := channel.ParseSimple(payload)
		if err != nil {
			return
		}
		if ch, ok := c.chTable.Lookup(recipient); ok {
			ch.MarkRecvEOF()
		}

	case channel.MsgChannelClose:
		recipient, err := channel.ParseSimple(payload)
		if err != nil {
			return
		}
		ch, ok := c.chTable.Lookup(recipient)
		if !ok {
			return
		}
		ch.MarkRecvClose()
		if !ch.Closed() {
			_ = c.sendOrDefer(channel.MsgChannelClose, channel.MarshalSimple(ch.PeerID()))
			ch.MarkSentClose()
		}
		if ch.Closed() {
			c.chTable.Free(ch.LocalID())
			if c.OnChannelClosed != nil {
				c.OnChannelClosed(c, ch)
			}
		}

	case channel.MsgChannelRequest:
		req, err := channel.ParseChannelRequest(payload)
		if err != nil {
			return
		}
		ch, ok := c.chTable.Lookup(req.RecipientChannel)
		if !ok {
			return
		}
		if c.OnChannelRequest != nil {
			c.OnChannelRequest(c, ch, req)
		} else if req.WantReply {
			_ = c.sendOrDefer(channel.MsgChannelFailure, channel.MarshalSimple(ch.PeerID()))
		}
	}
}

// OpenChannel sends CHANNEL_OPEN and blocks for the confirmation/failure.
func (c *Connection) OpenChannel(chanType string, typeSpecific []byte) (*channel.Channel, error) {
	ch := c.chTable.Alloc(chanType, channel.DefaultWindowSize, channel.DefaultMaxPacketSize)
	ch.SetRecvWindowFloor(channel.DefaultWindowSize)

	payload := channel.MarshalOpen(chanType, ch.LocalID(), channel.DefaultWindowSize, channel.DefaultMaxPacketSize, typeSpecific)
	if err := c.sendOrDefer(channel.MsgChannelOpen, payload); err != nil {
		c.chTable.Free(ch.LocalID())
		return nil, err
	}

	for {
		msgType, payload, err := c.t.Recv()
		if err != nil {
			return nil, err
		}
		switch msgType {
		case channel.MsgChannelOpenConfirmation:
			buf := wire.NewBuffer(payload)
			recipient, _ := buf.ConsumeUint32()
			if recipient != ch.LocalID() {
				continue
			}
			peerID, _ := buf.ConsumeUint32()
			window, _ := buf.ConsumeUint32()
			maxPacket, _ := buf.ConsumeUint32()
			ch.ConfirmOpen(peerID, window, maxPacket)
			return ch, nil
		case channel.MsgChannelOpenFailure:
			buf := wire.NewBuffer(payload)
			recipient, _ := buf.ConsumeUint32()
			if recipient != ch.LocalID() {
				continue
			}
			c.chTable.Free(ch.LocalID())
			reason, _ := buf.ConsumeUint32()
			desc, _ := buf.ConsumeString()
			return nil, &channel.OpenError{Reason: reason, Description: desc}
		default:
			c.dispatchOther(msgType, payload)
		}
	}
}

// dispatchOther handles messages received while blocked inside
// OpenChannel's wait loop, so unrelated channel traffic already in flight
// is not dropped.
func (c *Connection) dispatchOther(msgType byte, payload []byte) {
	switch {
	case msgType >= 80 && msgType <= 82:
		c.dispatchGlobal(msgType, payload)
	case msgType >= 90 && msgType <= 100:
		c.dispatchChannel(msgType, payload)
	}
}

// AcceptChannel confirms a pending CHANNEL_OPEN.
func (c *Connection) AcceptChannel(req *channel.OpenRequest) (*channel.Channel, error) {
	ch := c.chTable.Alloc(req.Type, channel.DefaultWindowSize, channel.DefaultMaxPacketSize)
	ch.SetRecvWindowFloor(channel.DefaultWindowSize)
	ch.ConfirmOpen(req.SenderChannel, req.InitialWindow, req.MaxPacketSize)

	payload := channel.MarshalOpenConfirmation(req.SenderChannel, ch.LocalID(), channel.DefaultWindowSize, channel.DefaultMaxPacketSize)
	if err := c.sendOrDefer(channel.MsgChannelOpenConfirmation, payload); err != nil {
		c.chTable.Free(ch.LocalID())
		return nil, err
	}
	return ch, nil
}

// RejectChannel sends CHANNEL_OPEN_FAILURE for a senderChannel id that was
// never allocated a local Channel.
func (c *Connection) RejectChannel(senderChannel uint32, reason uint32, description string) error {
	return c.sendOrDefer(channel.MsgChannelOpenFailure, channel.MarshalOpenFailure(senderChannel, reason, description))
}

// SendData writes a CHANNEL_DATA message, blocking the caller's
// responsibility to have checked Channel.CanSend first.
func (c *Connection) SendData(ch *channel.Channel, data []byte) error {
	ch.ConsumeSendWindow(uint32(len(data)))
	return c.sendOrDefer(channel.MsgChannelData, channel.MarshalData(ch.PeerID(), data))
}

// SendExtendedData writes a CHANNEL_EXTENDED_DATA message (spec.md §4.5),
// e.g. the stderr stream of a session channel (channel.ExtendedDataStderr).
func (c *Connection) SendExtendedData(ch *channel.Channel, dataType uint32, data []byte) error {
	ch.ConsumeSendWindow(uint32(len(data)))
	return c.sendOrDefer(channel.MsgChannelExtendedData, channel.MarshalExtendedData(ch.PeerID(), dataType, data))
}

// SendRequest issues a CHANNEL_REQUEST.
func (c *Connection) SendRequest(ch *channel.Channel, reqType string, wantReply bool, typeSpecific []byte) error {
	return c.sendOrDefer(channel.MsgChannelRequest, channel.MarshalChannelRequest(ch.PeerID(), reqType, wantReply, typeSpecific))
}

// SendGlobalRequest issues a GLOBAL_REQUEST, returning a waiter when
// wantReply is set.
func (c *Connection) SendGlobalRequest(name string, wantReply bool, typeSpecific []byte) (func() (bool, []byte), error) {
	var wait func() (bool, []byte)
	if wantReply {
		wait = c.globalOut.Enqueue()
	}
	if err := c.sendOrDefer(channel.MsgGlobalRequest, channel.MarshalGlobalRequest(name, wantReply, typeSpecific)); err != nil {
		return nil, err
	}
	return wait, nil
}

// CloseChannel initiates or completes the CHANNEL_CLOSE handshake.
func (c *Connection) CloseChannel(ch *channel.Channel) error {
	if err := c.sendOrDefer(channel.MsgChannelClose, channel.MarshalSimple(ch.PeerID())); err != nil {
		return err
	}
	ch.MarkSentClose()
	if ch.Closed() {
		c.chTable.Free(ch.LocalID())
	}
	return nil
}

// Close tears down the underlying transport.
func (c *Connection) Close() error { return c.t.Close() }
