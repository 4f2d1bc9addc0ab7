package channel

import (
	"github.com/ardenhq/sshrelay/wire"
)

// ChannelRequest is a parsed CHANNEL_REQUEST payload (RFC 4254 §6).
type ChannelRequest struct {
	RecipientChannel uint32
	Type             string
	WantReply        bool
	TypeSpecific     []byte
}

func ParseChannelRequest(payload []byte) (*ChannelRequest, error) {
	buf := wire.NewBuffer(payload)
	r := &ChannelRequest{}
	var err error
	if r.RecipientChannel, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.Type, err = buf.ConsumeString(); err != nil {
		return nil, err
	}
	if r.WantReply, err = buf.ConsumeBool(); err != nil {
		return nil, err
	}
	r.TypeSpecific = buf.Bytes()
	return r, nil
}

func MarshalChannelRequest(recipient uint32, reqType string, wantReply bool, typeSpecific []byte) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendString(reqType)
	buf.AppendBool(wantReply)
	buf.AppendRaw(typeSpecific)
	return buf.Bytes()
}

// PTYRequest is the "pty-req" type-specific payload (RFC 4254 §6.2).
type PTYRequest struct {
	Term                               string
	Width, Height, WidthPx, HeightPx   uint32
	Modes                              []byte
}

func ParsePTYRequest(b []byte) (*PTYRequest, error) {
	buf := wire.NewBuffer(b)
	r := &PTYRequest{}
	var err error
	if r.Term, err = buf.ConsumeString(); err != nil {
		return nil, err
	}
	if r.Width, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.Height, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.WidthPx, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.HeightPx, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.Modes, err = buf.ConsumeByteSlice(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PTYRequest) Marshal() []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(r.Term)
	buf.AppendUint32(r.Width)
	buf.AppendUint32(r.Height)
	buf.AppendUint32(r.WidthPx)
	buf.AppendUint32(r.HeightPx)
	buf.AppendByteSlice(r.Modes)
	return buf.Bytes()
}

// ParseSingleStringPayload and MarshalSingleStringPayload handle the
// single-string type-specific payloads, such as those of "exec" and
// "subsystem".
func ParseSingleStringPayload(b []byte) (string, error) {
	return wire.NewBuffer(b).ConsumeString()
}

func MarshalSingleStringPayload(s string) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendString(s)
	return buf.Bytes()
}

// MarshalExitStatus encodes the "exit-status" type-specific payload.
func MarshalExitStatus(code uint32) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(code)
	return buf.Bytes()
}

func ParseExitStatus(b []byte) (uint32, error) {
	return wire.NewBuffer(b).ConsumeUint32()
}

// Data/EOF/Close/WindowAdjust packet marshaling (RFC 4254 §5.2-5.3).
func MarshalData(recipient uint32, data []byte) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendByteSlice(data)
	return buf.Bytes()
}

func ParseData(payload []byte) (recipient uint32, data []byte, err error) {
	buf := wire.NewBuffer(payload)
	if recipient, err = buf.ConsumeUint32(); err != nil {
		return 0, nil, err
	}
	if data, err = buf.ConsumeByteSlice(); err != nil {
		return 0, nil, err
	}
	return recipient, data, nil
}

// ExtendedData stream types (RFC 4254 §5.2).
const ExtendedDataStderr = 1

func MarshalExtendedData(recipient, dataType uint32, data []byte) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendUint32(dataType)
	buf.AppendByteSlice(data)
	return buf.Bytes()
}

func ParseExtendedData(payload []byte) (recipient, dataType uint32, data []byte, err error) {
	buf := wire.NewBuffer(payload)
	if recipient, err = buf.ConsumeUint32(); err != nil {
		return 0, 0, nil, err
	}
	if dataType, err = buf.ConsumeUint32(); err != nil {
		return 0, 0, nil, err
	}
	if data, err = buf.ConsumeByteSlice(); err != nil {
		return 0, 0, nil, err
	}
	return recipient, dataType, data, nil
}

func MarshalSimple(recipient uint32) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	return buf.Bytes()
}

func ParseSimple(payload []byte) (uint32, error) {
	return wire.NewBuffer(payload).ConsumeUint32()
}

func MarshalWindowAdjust(recipient, n uint32) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendUint32(n)
	return buf.Bytes()
}

func ParseWindowAdjust(payload []byte) (recipient, n uint32, err error) {
	buf := wire.NewBuffer(payload)
	if recipient, err = buf.ConsumeUint32(); err != nil {
		return 0, 0, err
	}
	if n, err = buf.ConsumeUint32(); err != nil {
		return 0, 0, err
	}
	return recipient, n, nil
}

// OpenRequest is a parsed CHANNEL_OPEN payload.
type OpenRequest struct {
	Type                  string
	SenderChannel         uint32
	InitialWindow         uint32
	MaxPacketSize         uint32
	TypeSpecific          []byte
}

func ParseOpenRequest(payload []byte) (*OpenRequest, error) {
	buf := wire.NewBuffer(payload)
	r := &OpenRequest{}
	var err error
	if r.Type, err = buf.ConsumeString(); err != nil {
		return nil, err
	}
	if r.SenderChannel, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.InitialWindow, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	if r.MaxPacketSize, err = buf.ConsumeUint32(); err != nil {
		return nil, err
	}
	r.TypeSpecific = buf.Bytes()
	return r, nil
}

func MarshalOpenConfirmation(recipient, senderChannel, window, maxPacket uint32) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendUint32(senderChannel)
	buf.AppendUint32(window)
	buf.AppendUint32(maxPacket)
	return buf.Bytes()
}

func MarshalOpenFailure(recipient, reason uint32, description string) []byte {
	buf := wire.NewBuffer(nil)
	buf.AppendUint32(recipient)
	buf.AppendUint32(reason)
	buf.AppendString(description)
	buf.AppendString("")
	return buf.Bytes()
}
