package filexfer

import "fmt"

// Flag bits for VersionedAttributes, valid across v3-v6 (draft-ietf-secsh-filexfer-13 §5).
// AttrSize, AttrUIDGID and AttrPermissions and AttrACModTime are shared with the v3-only
// Attributes type above; the remaining bits only apply from the version they were
// introduced in, enforced by (*VersionedAttributes).MarshalInto.
const (
	AttrAccessTime       = 1 << 3  // v4+: separate atime (replaces AttrACModTime's atime half)
	AttrCrTime           = 1 << 4  // v4+: crtime
	AttrModifyTime       = 1 << 5  // v4+: separate mtime (replaces AttrACModTime's mtime half)
	AttrACL              = 1 << 6  // v5+
	AttrOwnerGroup       = 1 << 7  // v4+: string owner/group replace numeric uid/gid
	AttrSubSecondBit     = 1 << 8  // per-timestamp "has nanoseconds" bit
	AttrAttribBits       = 1 << 9  // v5+: attrib-bits / attrib-valid
	AttrAllocationSize   = 1 << 10 // v6+
	AttrTextHint         = 1 << 11 // v6+
	AttrMimeType         = 1 << 12 // v6+
	AttrLink             = 1 << 13 // v6+: nlink
	AttrUntranslatedName = 1 << 14 // v6+
	AttrCTime            = 1 << 15 // v6+: ctime
)

// Filetype enumerates the v4+ explicit filetype byte.
type Filetype uint8

// SSH_FILEXFER_TYPE_* values (draft-ietf-secsh-filexfer-13 §5.3).
const (
	FiletypeRegular Filetype = iota + 1
	FiletypeDirectory
	FiletypeSymlink
	FiletypeSpecial
	FiletypeUnknown
	FiletypeSocket
	FiletypeCharDevice
	FiletypeBlockDevice
	FiletypeFIFO
)

// TimeSpec holds a POSIX time plus an optional nanosecond remainder,
// used for the v4+ atime/mtime/ctime/crtime fields.
type TimeSpec struct {
	Seconds int64
	Nanos   uint32 // only meaningful when the owning flag's subsecond bit is set
	HasNano bool
}

// VersionedAttributes is the SFTP attribute set gated by the negotiated
// protocol version, per draft-ietf-secsh-filexfer-{02..13}. Exactly the fields whose flag bit is
// set are encoded, in the fixed wire order below; encoding a field not
// legal for Version fails with ErrVersionMismatch.
type VersionedAttributes struct {
	Version uint32 // negotiated SFTP protocol version, 3..6

	Flags    uint32
	Filetype Filetype // v4+ only

	Size          uint64
	AllocSize     uint64 // v6+
	UID, GID      uint32 // v3 only
	OwnerUser     string // v4+
	OwnerGroup    string // v4+
	Permissions   uint32
	ATime, CTime, MTime, CrTime TimeSpec // v3: only A/M as plain uint32 seconds; v4+: full TimeSpec
	AttribBits, AttribValid uint32 // v5+
	ACL         string // v5+, opaque ACL blob per draft
	TextHint    uint8  // v6+: SSH_FILEXFER_ATTR_KNOWN_TEXT / _GUESSED_TEXT / _UNKNOWN_TEXT
	MimeType    string // v6+
	NLink       uint32 // v6+
	UntransName string // v6+

	ExtendedAttributes []ExtensionPair
}

// ErrVersionMismatch is returned when a flag is set that the negotiated
// Version does not support.
type ErrVersionMismatch struct {
	Version uint32
	Flag    uint32
}

func (e *ErrVersionMismatch) Error() string {
	return fmt.Sprintf("sftp: attribute flag 0x%x is not valid for protocol version %d", e.Flag, e.Version)
}

func (a *VersionedAttributes) checkFlag(flag uint32, minVersion uint32) error {
	if a.Flags&flag != 0 && a.Version < minVersion {
		return &ErrVersionMismatch{Version: a.Version, Flag: flag}
	}
	return nil
}

// MarshalInto encodes a onto buf, in flag-gated wire order.
func (a *VersionedAttributes) MarshalInto(buf *Buffer) error {
	for flag, min := range map[uint32]uint32{
		AttrCrTime:           4,
		AttrOwnerGroup:       4,
		AttrModifyTime:       4,
		AttrSubSecondBit:     4,
		AttrACL:              5,
		AttrAttribBits:       5,
		AttrAllocationSize:   6,
		AttrTextHint:         6,
		AttrMimeType:         6,
		AttrLink:             6,
		AttrUntranslatedName: 6,
		AttrCTime:            6,
	} {
		if err := a.checkFlag(flag, min); err != nil {
			return err
		}
	}

	buf.AppendUint32(a.Flags)

	if a.Version >= 4 {
		buf.AppendUint8(uint8(a.Filetype))
	}

	if a.Flags&AttrSize != 0 {
		buf.AppendUint64(a.Size)
	}

	if a.Version >= 6 && a.Flags&AttrAllocationSize != 0 {
		buf.AppendUint64(a.AllocSize)
	}

	if a.Flags&AttrUIDGID != 0 {
		if a.Version >= 4 {
			return &ErrVersionMismatch{Version: a.Version, Flag: AttrUIDGID}
		}
		buf.AppendUint32(a.UID)
		buf.AppendUint32(a.GID)
	}

	if a.Flags&AttrOwnerGroup != 0 {
		buf.AppendString(a.OwnerUser)
		buf.AppendString(a.OwnerGroup)
	}

	if a.Flags&AttrPermissions != 0 {
		buf.AppendUint32(a.Permissions)
	}

	if a.Version < 4 {
		if a.Flags&AttrACModTime != 0 {
			buf.AppendUint32(uint32(a.ATime.Seconds))
			buf.AppendUint32(uint32(a.MTime.Seconds))
		}
	} else {
		if a.Flags&AttrAccessTime != 0 {
			a.marshalTime(buf, a.ATime)
		}
		if a.Flags&AttrCrTime != 0 {
			a.marshalTime(buf, a.CrTime)
		}
		if a.Flags&AttrModifyTime != 0 {
			a.marshalTime(buf, a.MTime)
		}
		if a.Version >= 6 && a.Flags&AttrCTime != 0 {
			a.marshalTime(buf, a.CTime)
		}
	}

	if a.Flags&AttrACL != 0 {
		buf.AppendString(a.ACL)
	}

	if a.Flags&AttrAttribBits != 0 {
		buf.AppendUint32(a.AttribBits)
		buf.AppendUint32(a.AttribValid)
	}

	if a.Version >= 6 && a.Flags&AttrTextHint != 0 {
		buf.AppendUint8(a.TextHint)
	}

	if a.Version >= 6 && a.Flags&AttrMimeType != 0 {
		buf.AppendString(a.MimeType)
	}

	if a.Version >= 6 && a.Flags&AttrLink != 0 {
		buf.AppendUint32(a.NLink)
	}

	if a.Version >= 6 && a.Flags&AttrUntranslatedName != 0 {
		buf.AppendString(a.UntransName)
	}

	if a.Flags&AttrExtended != 0 {
		buf.AppendUint32(uint32(len(a.ExtendedAttributes)))
		for i := range a.ExtendedAttributes {
			a.ExtendedAttributes[i].MarshalInto(buf)
		}
	}

	return nil
}

func (a *VersionedAttributes) marshalTime(buf *Buffer, t TimeSpec) {
	buf.AppendUint64(uint64(t.Seconds))
	if t.HasNano {
		buf.AppendUint32(t.Nanos)
	}
}

// UnmarshalFrom decodes a VersionedAttributes from buf. Version must
// already be set on a to select the wire layout; callers get it from the
// session's negotiated SFTP version.
func (a *VersionedAttributes) UnmarshalFrom(buf *Buffer) (err error) {
	if a.Flags, err = buf.ConsumeUint32(); err != nil {
		return err
	}

	if a.Version >= 4 {
		ft, err := buf.ConsumeUint8()
		if err != nil {
			return err
		}
		a.Filetype = Filetype(ft)
	}

	if a.Flags&AttrSize != 0 {
		if a.Size, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Version >= 6 && a.Flags&AttrAllocationSize != 0 {
		if a.AllocSize, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Flags&AttrUIDGID != 0 && a.Version < 4 {
		if a.UID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if a.GID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrOwnerGroup != 0 {
		if a.OwnerUser, err = buf.ConsumeString(); err != nil {
			return err
		}
		if a.OwnerGroup, err = buf.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrPermissions != 0 {
		if a.Permissions, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Version < 4 {
		if a.Flags&AttrACModTime != 0 {
			sec, err := buf.ConsumeUint32()
			if err != nil {
				return err
			}
			a.ATime = TimeSpec{Seconds: int64(sec)}
			sec, err = buf.ConsumeUint32()
			if err != nil {
				return err
			}
			a.MTime = TimeSpec{Seconds: int64(sec)}
		}
	} else {
		if a.Flags&AttrAccessTime != 0 {
			if a.ATime, err = a.unmarshalTime(buf); err != nil {
				return err
			}
		}
		if a.Flags&AttrCrTime != 0 {
			if a.CrTime, err = a.unmarshalTime(buf); err != nil {
				return err
			}
		}
		if a.Flags&AttrModifyTime != 0 {
			if a.MTime, err = a.unmarshalTime(buf); err != nil {
				return err
			}
		}
		if a.Version >= 6 && a.Flags&AttrCTime != 0 {
			if a.CTime, err = a.unmarshalTime(buf); err != nil {
				return err
			}
		}
	}

	if a.Flags&AttrACL != 0 {
		if a.ACL, err = buf.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrAttribBits != 0 {
		if a.AttribBits, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if a.AttribValid, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Version >= 6 && a.Flags&AttrTextHint != 0 {
		if a.TextHint, err = buf.ConsumeUint8(); err != nil {
			return err
		}
	}

	if a.Version >= 6 && a.Flags&AttrMimeType != 0 {
		if a.MimeType, err = buf.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Version >= 6 && a.Flags&AttrLink != 0 {
		if a.NLink, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Version >= 6 && a.Flags&AttrUntranslatedName != 0 {
		if a.UntransName, err = buf.ConsumeString(); err != nil {
			return err
		}
	}

	if a.Flags&AttrExtended != 0 {
		count, err := buf.ConsumeUint32()
		if err != nil {
			return err
		}

		a.ExtendedAttributes = make([]ExtensionPair, count)
		for i := range a.ExtendedAttributes {
			if err := a.ExtendedAttributes[i].UnmarshalFrom(buf); err != nil {
				return err
			}
		}
	}

	return nil
}

// unmarshalTime reads a v4+ time field: a uint64 seconds value, plus a
// uint32 nanosecond remainder. The remainder is read whenever
// AttrSubSecondBit is set in a.Flags, so that one bit covers every
// timestamp in the attribute set.
func (a *VersionedAttributes) unmarshalTime(buf *Buffer) (TimeSpec, error) {
	sec, err := buf.ConsumeUint64()
	if err != nil {
		return TimeSpec{}, err
	}
	ts := TimeSpec{Seconds: int64(sec)}
	if a.Flags&AttrSubSecondBit != 0 {
		n, err := buf.ConsumeUint32()
		if err != nil {
			return TimeSpec{}, err
		}
		ts.Nanos = n
		ts.HasNano = true
	}
	return ts, nil
}
