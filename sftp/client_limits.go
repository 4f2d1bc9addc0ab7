package sftp

// extendedRequestPacket is the generic SSH_FXP_EXTENDED request shape for
// extensions, such as limits@openssh.com, that carry no arguments beyond
// their name.
type extendedRequestPacket struct {
	ID              uint32
	ExtendedRequest string
}

func (p extendedRequestPacket) Id() uint32 { return p.ID }

func (p extendedRequestPacket) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 1+4+4+len(p.ExtendedRequest))
	b = append(b, ssh_FXP_EXTENDED)
	b = marshalUint32(b, p.ID)
	b = marshalString(b, p.ExtendedRequest)
	return b, nil
}

// Limits probes the server's preferred protocol limits via the
// limits@openssh.com extension and applies them to this client's packet
// size and concurrency, never raising either above the values already in
// effect. Servers that don't advertise the extension leave the client's own
// defaults untouched.
func (c *Client) Limits() (Limits, error) {
	req := extendedRequestPacket{ID: c.nextID(), ExtendedRequest: "limits@openssh.com"}
	typ, body, err := c.call(req)
	if err != nil {
		return Limits{}, err
	}
	switch typ {
	case ssh_FXP_EXTENDED_REPLY:
		limits := new(Limits)
		if err := limits.UnmarshalBinary(body); err != nil {
			return Limits{}, err
		}
		c.applyLimits(*limits)
		return *limits, nil
	case ssh_FXP_STATUS:
		return Limits{}, unmarshalStatusErr(body)
	default:
		return Limits{}, &unexpectedPacketErr{want: uint8(ssh_FXP_EXTENDED_REPLY), got: uint8(typ)}
	}
}

func (c *Client) applyLimits(limits Limits) {
	if limits.MaxReadLength > 0 && limits.MaxReadLength < uint64(c.maxPacket) {
		c.maxPacket = int(limits.MaxReadLength)
	}
	if limits.MaxWriteLength > 0 && limits.MaxWriteLength < uint64(c.maxPacket) {
		c.maxPacket = int(limits.MaxWriteLength)
	}
	if limits.MaxOpenHandles > 0 && limits.MaxOpenHandles < uint64(c.maxConcurrentRequests) {
		c.maxConcurrentRequests = int(limits.MaxOpenHandles)
	}
}
