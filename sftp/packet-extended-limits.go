package sftp

// SSHFxpExtendedPacketLimits is the limits@openssh.com extended request: a
// bare probe, carrying no arguments beyond the extension name, asking the
// server to report its preferred protocol limits (OpenSSH PROTOCOL, §9.3).
type SSHFxpExtendedPacketLimits struct {
	ID              uint32
	ExtendedRequest string
}

func (p SSHFxpExtendedPacketLimits) Id() uint32 { return p.ID }

func (p SSHFxpExtendedPacketLimits) Readonly() bool { return true }

func (p *SSHFxpExtendedPacketLimits) UnmarshalBinary(b []byte) error {
	var err error
	if p.ID, b, err = unmarshalUint32Safe(b); err != nil {
		return err
	}
	p.ExtendedRequest, _, err = unmarshalStringSafe(b)
	return err
}

// Limits is the limits@openssh.com extended reply: the server's preferred
// upper bounds for packet and read/write sizes and open handle count. A
// zero value in any field means the server places no limit there.
type Limits struct {
	ID              uint32
	MaxPacketLength uint64
	MaxReadLength   uint64
	MaxWriteLength  uint64
	MaxOpenHandles  uint64
}

func (p *Limits) Id() uint32 { return p.ID }

func (p *Limits) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 1+4+8*4)
	b = append(b, ssh_FXP_EXTENDED_REPLY)
	b = marshalUint32(b, p.ID)
	b = marshalUint64(b, p.MaxPacketLength)
	b = marshalUint64(b, p.MaxReadLength)
	b = marshalUint64(b, p.MaxWriteLength)
	b = marshalUint64(b, p.MaxOpenHandles)
	return b, nil
}

func (p *Limits) UnmarshalBinary(b []byte) error {
	var err error
	if p.MaxPacketLength, b, err = unmarshalUint64Safe(b); err != nil {
		return err
	}
	if p.MaxReadLength, b, err = unmarshalUint64Safe(b); err != nil {
		return err
	}
	if p.MaxWriteLength, b, err = unmarshalUint64Safe(b); err != nil {
		return err
	}
	if p.MaxOpenHandles, _, err = unmarshalUint64Safe(b); err != nil {
		return err
	}
	return nil
}
