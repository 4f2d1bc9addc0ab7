package filexfer

// Packet defines the behavior of an SFTP packet.
//
// b is an optional caller-supplied buffer the implementation may reuse for
// its header; implementations that do not need it ignore it. reqid is
// ignored by INIT and VERSION, which carry no request ID on the wire.
type Packet interface {
	// Type returns the SSH_FXP_* wire type of the packet.
	Type() PacketType

	MarshalPacket(reqid uint32, b []byte) (header, payload []byte, err error)
	UnmarshalPacketBody(buf *Buffer) error
}

// ComposePacket converts returns from MarshalPacket into the returns expected by MarshalBinary.
func ComposePacket(header, payload []byte, err error) ([]byte, error) {
	return append(header, payload...), err
}
