// Package proto implements the fixed-header, variable-payload binary wire
// format exchanged between the Root Complex and its endpoints.
package proto

import (
	"encoding/binary"

	"github.com/NeddX/pciemgrd/pkg/result"
)

// PacketType enumerates every message kind. Ordinals are stable and
// add-only: they cross the wire.
type PacketType uint8

const (
	NoOp PacketType = iota
	Ready
	Ok
	Reboot
	String
	Err
	GetCrewConfig
	GetCtrConfig
	Join
	Leave
)

var packetTypeNames = [...]string{
	"NoOp", "Ready", "Ok", "Reboot", "String", "Err",
	"GetCrewConfig", "GetCtrConfig", "Join", "Leave",
}

// String returns the canonical name of t, mirroring TypeToStr.
func (t PacketType) String() string {
	if int(t) >= len(packetTypeNames) {
		return "Unknown"
	}
	return packetTypeNames[t]
}

// headerSize is the on-wire size of Header: 1 byte type + 4 bytes dataLen.
const headerSize = 5

// Header is the fixed prefix of every packet on the wire.
type Header struct {
	Type    PacketType
	DataLen uint32
}

// Packet pairs a Header with its payload. header.DataLen always equals
// len(Data); every mutator below maintains that invariant.
type Packet struct {
	header Header
	data   []byte
}

// NewPacket returns an empty packet of the given type.
func NewPacket(t PacketType) *Packet {
	return &Packet{header: Header{Type: t}}
}

// NewPacketBytes returns a packet carrying data verbatim.
func NewPacketBytes(t PacketType, data []byte) *Packet {
	buf := append([]byte(nil), data...)
	return &Packet{header: Header{Type: t, DataLen: uint32(len(buf))}, data: buf}
}

// NewPacketString returns a packet of the given type carrying str's bytes.
func NewPacketString(t PacketType, str string) *Packet {
	return NewPacketBytes(t, []byte(str))
}

// NewStringPacket defaults the type to String, mirroring the single-argument
// string constructor.
func NewStringPacket(str string) *Packet {
	return NewPacketString(String, str)
}

// OkPacket is the short-hand for an empty Ok acknowledgement.
func OkPacket() *Packet {
	return NewPacket(Ok)
}

// ErrPacket serializes e as: 1 byte kind, followed by the message bytes.
func ErrPacket(e result.Err) *Packet {
	data := make([]byte, 1, 1+len(e.Message))
	data[0] = byte(e.Kind)
	data = append(data, []byte(e.Message)...)
	return &Packet{header: Header{Type: Err, DataLen: uint32(len(data))}, data: data}
}

// Type returns the packet's type ordinal.
func (p *Packet) Type() PacketType { return p.header.Type }

// Header returns a copy of the packet's header.
func (p *Packet) Header() Header { return p.header }

// Size returns the current payload length in bytes.
func (p *Packet) Size() int { return len(p.data) }

// Bytes returns the packet's raw payload, without copying.
func (p *Packet) Bytes() []byte { return p.data }

// IsOk reports whether the packet is anything but an Err packet, mirroring
// the original's implicit bool conversion.
func (p *Packet) IsOk() bool { return p.header.Type != Err }

func (p *Packet) setLen() {
	p.header.DataLen = uint32(len(p.data))
}

// scalar constrains Push/Pop to the fixed-width integer types actually
// pushed onto packets by this codebase.
type scalar interface {
	uint8 | uint16 | uint32 | uint64
}

// Push appends v's raw little-endian bytes to the payload.
func Push[T scalar](p *Packet, v T) {
	switch any(v).(type) {
	case uint8:
		p.data = append(p.data, byte(v))
	case uint16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		p.data = append(p.data, b[:]...)
	case uint32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		p.data = append(p.data, b[:]...)
	case uint64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		p.data = append(p.data, b[:]...)
	}
	p.setLen()
}

// Pop removes and decodes a T from the tail of the payload (LIFO). This
// asymmetry relative to blob pops is deliberate; see PopBytes/PopString.
func Pop[T scalar](p *Packet) T {
	var zero T
	n := sizeOf(zero)
	total := len(p.data)
	if total < n {
		return zero
	}
	tail := p.data[total-n:]
	var v T
	switch any(zero).(type) {
	case uint8:
		v = T(tail[0])
	case uint16:
		v = T(binary.LittleEndian.Uint16(tail))
	case uint32:
		v = T(binary.LittleEndian.Uint32(tail))
	case uint64:
		v = T(binary.LittleEndian.Uint64(tail))
	}
	p.data = p.data[:total-n]
	p.setLen()
	return v
}

func sizeOf[T scalar](v T) int {
	switch any(v).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	default:
		return 0
	}
}

// PushBytes appends b in full.
func (p *Packet) PushBytes(b []byte) {
	p.data = append(p.data, b...)
	p.setLen()
}

// PushString appends s's bytes in full.
func (p *Packet) PushString(s string) {
	p.PushBytes([]byte(s))
}

// PopBytes drains all remaining payload bytes.
func (p *Packet) PopBytes() []byte {
	out := append([]byte(nil), p.data...)
	p.data = p.data[:0]
	p.setLen()
	return out
}

// PopString drains all remaining payload bytes as a UTF-8 string.
func (p *Packet) PopString() string {
	return string(p.PopBytes())
}

// ExtractErr implements Err::FromPacket: the kind is read from the head
// byte, the remainder is the message. Calling this on anything but an Err
// packet is a caller error and returns a zero-message InvalidOperation.
func (p *Packet) ExtractErr() result.Err {
	if p.header.Type != Err || len(p.data) == 0 {
		return result.NewErr(result.InvalidOperation)
	}
	kind := result.ErrKind(p.data[0])
	msg := string(p.data[1:])
	p.data = p.data[:0]
	p.setLen()
	if msg == "" {
		return result.NewErr(kind)
	}
	return result.NewErrMsg(kind, msg)
}
