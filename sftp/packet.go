package sftp

import (
	"os"

	"github.com/pkg/errors"
)

func marshalUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func marshalUint64(b []byte, v uint64) []byte {
	return marshalUint32(marshalUint32(b, uint32(v>>32)), uint32(v))
}

func marshalString(b []byte, v string) []byte {
	return append(marshalUint32(b, uint32(len(v))), v...)
}

func unmarshalUint32(b []byte) (uint32, []byte) {
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	return v, b[4:]
}

func unmarshalUint64(b []byte) (uint64, []byte) {
	h, b := unmarshalUint32(b)
	l, b := unmarshalUint32(b)
	return uint64(h)<<32 | uint64(l), b
}

func unmarshalString(b []byte) (string, []byte) {
	n, b := unmarshalUint32(b)
	return string(b[:n]), b[n:]
}

func unmarshalUint32Safe(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errShortPacket
	}
	v, b := unmarshalUint32(b)
	return v, b, nil
}

func unmarshalUint64Safe(b []byte) (uint64, []byte, error) {
	hi, b, err := unmarshalUint32Safe(b)
	if err != nil {
		return 0, nil, err
	}
	lo, b, err := unmarshalUint32Safe(b)
	if err != nil {
		return 0, nil, err
	}
	return uint64(hi)<<32 | uint64(lo), b, nil
}

func unmarshalStringSafe(b []byte) (string, []byte, error) {
	n, b, err := unmarshalUint32Safe(b)
	if err != nil {
		return "", nil, err
	}
	if uint32(len(b)) < n {
		return "", nil, errShortPacket
	}
	return string(b[:n]), b[n:], nil
}

// marshalIDString marshals the common (type byte, request ID, string)
// packet shape shared by Close/Stat/Fstat/Rmdir/Remove/Readlink/Opendir/
// Readdir/Realpath.
func marshalIDString(pktType fxp, id uint32, s string) ([]byte, error) {
	l := 1 + 4 + 4 + len(s)
	b := make([]byte, 0, l)
	b = append(b, byte(pktType))
	b = marshalUint32(b, id)
	b = marshalString(b, s)
	return b, nil
}

func unmarshalIDString(b []byte, id *uint32, s *string) error {
	var err error
	if *id, b, err = unmarshalUint32Safe(b); err != nil {
		return err
	}
	if *s, _, err = unmarshalStringSafe(b); err != nil {
		return err
	}
	return nil
}

// marshal appends the wire representation of v to b. v is either an
// os.FileInfo (encoded as a full attributes blob via marshalFileInfo), a
// raw uint32 flags word (an attributes-less placeholder, as used for
// SSH_FXP_READLINK name entries), or a pre-marshaled []byte such as the
// raw Attrs payload on Setstat/Fsetstat.
func marshal(b []byte, v interface{}) []byte {
	if v == nil {
		return marshalUint32(b, 0)
	}

	switch v := v.(type) {
	case []byte:
		return append(b, v...)
	case os.FileInfo:
		return marshalFileInfo(b, v)
	case uint32:
		return marshalUint32(b, v)
	case []interface{}:
		for _, vv := range v {
			b = marshal(b, vv)
		}
		return b
	default:
		panic(errors.Errorf("marshal(%#v): cannot handle type %T", v, v))
	}
}

// marshalStatus appends an SSH_FXP_STATUS body (code, message, language
// tag) to b.
func marshalStatus(b []byte, err StatusError) []byte {
	b = marshalUint32(b, err.Code)
	b = marshalString(b, err.msg)
	b = marshalString(b, err.lang)
	return b
}

// SSH_FILEXFER_ATTR_* flags, as carried on the wire attributes blob.
const (
	sshFilexferAttrSize        uint32 = 0x00000001
	sshFilexferAttrUIDGID      uint32 = 0x00000002
	sshFilexferAttrPermissions uint32 = 0x00000004
	sshFilexferAttrACModTime   uint32 = 0x00000008
	sshFilexferAttrExtended    uint32 = 0x80000000
)

// marshalFileInfo appends an SSH_FILEXFER_ATTRS blob describing fi to b.
func marshalFileInfo(b []byte, fi os.FileInfo) []byte {
	attrs := attributesFromFileInfo(fi)

	flags := sshFilexferAttrSize | sshFilexferAttrPermissions | sshFilexferAttrACModTime

	b = marshalUint32(b, flags)
	b = marshalUint64(b, attrs.Size)
	b = marshalUint32(b, uint32(fromFileMode(fi.Mode())))
	b = marshalUint32(b, attrs.ATime)
	b = marshalUint32(b, attrs.MTime)
	return b
}
