package sftp

// SSHFxpBlockPacket is SSH_FXP_BLOCK (draft-ietf-secsh-filexfer-13 §8.1.4):
// a request to place a byte-range lock on an already-open handle.
type SSHFxpBlockPacket struct {
	ID     uint32
	Handle string
	Offset uint64
	Length uint64
	Mask   uint32
}

func (p SSHFxpBlockPacket) Id() uint32 { return p.ID }

func (p SSHFxpBlockPacket) GetHandle() string { return p.Handle }

func (p SSHFxpBlockPacket) NotReadOnly() {}

func (p SSHFxpBlockPacket) MarshalBinary() ([]byte, error) {
	l := 1 + 4 + // type(byte) + uint32
		4 + len(p.Handle) +
		8 + 8 + 4

	b := make([]byte, 0, l)
	b = append(b, ssh_FXP_BLOCK)
	b = marshalUint32(b, p.ID)
	b = marshalString(b, p.Handle)
	b = marshalUint64(b, p.Offset)
	b = marshalUint64(b, p.Length)
	b = marshalUint32(b, p.Mask)
	return b, nil
}

func (p *SSHFxpBlockPacket) UnmarshalBinary(b []byte) error {
	var err error
	if p.ID, b, err = unmarshalUint32Safe(b); err != nil {
		return err
	} else if p.Handle, b, err = unmarshalStringSafe(b); err != nil {
		return err
	} else if p.Offset, b, err = unmarshalUint64Safe(b); err != nil {
		return err
	} else if p.Length, b, err = unmarshalUint64Safe(b); err != nil {
		return err
	} else if p.Mask, _, err = unmarshalUint32Safe(b); err != nil {
		return err
	}
	return nil
}
