package sftp

// SSHFxpRenamePacket defines the SSH_FXP_RENAME request.
type SSHFxpRenamePacket struct {
	ID      uint32
	Oldpath string
	Newpath string
}

func (p SSHFxpRenamePacket) Id() uint32 { return p.ID }

func (p SSHFxpRenamePacket) GetPath() string { return p.Oldpath }

func (p SSHFxpRenamePacket) NotReadOnly() {}

func (p SSHFxpRenamePacket) MarshalBinary() ([]byte, error) {
	l := 1 + 4 + // type(byte) + uint32
		4 + len(p.Oldpath) +
		4 + len(p.Newpath)

	b := make([]byte, 0, l)
	b = append(b, ssh_FXP_RENAME)
	b = marshalUint32(b, p.ID)
	b = marshalString(b, p.Oldpath)
	b = marshalString(b, p.Newpath)
	return b, nil
}

func (p *SSHFxpRenamePacket) UnmarshalBinary(b []byte) error {
	var err error
	if p.ID, b, err = unmarshalUint32Safe(b); err != nil {
		return err
	} else if p.Oldpath, b, err = unmarshalStringSafe(b); err != nil {
		return err
	} else if p.Newpath, _, err = unmarshalStringSafe(b); err != nil {
		return err
	}
	return nil
}
