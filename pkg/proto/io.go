package proto

import (
	"encoding/binary"
	"io"

	"github.com/NeddX/pciemgrd/pkg/result"
)

// BeginSend writes p's header followed by its payload, exactly. Any
// underlying write error is reported as NetWriteFailure.
func BeginSend(w io.Writer, p *Packet) result.Result[result.Void] {
	var hdr [headerSize]byte
	hdr[0] = byte(p.header.Type)
	binary.LittleEndian.PutUint32(hdr[1:], p.header.DataLen)

	if _, err := w.Write(hdr[:]); err != nil {
		return result.FailVoid(result.NewErrf(result.NetWriteFailure, "failed to write packet header: %v", err))
	}
	if p.header.DataLen > 0 {
		if _, err := w.Write(p.data); err != nil {
			return result.FailVoid(result.NewErrf(result.NetWriteFailure, "failed to write packet payload: %v", err))
		}
	}
	return result.OkVoid()
}

// BeginReceive reads exactly one packet: the fixed header, then dataLen
// payload bytes. Any short read or underlying error yields NetBadPacket.
func BeginReceive(r io.Reader) result.Result[*Packet] {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return result.Fail[*Packet](result.NewErrf(result.NetBadPacket, "failed to read packet header: %v", err))
	}

	header := Header{
		Type:    PacketType(hdr[0]),
		DataLen: binary.LittleEndian.Uint32(hdr[1:]),
	}

	data := make([]byte, header.DataLen)
	if header.DataLen > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return result.Fail[*Packet](result.NewErrf(result.NetBadPacket, "failed to read packet payload: %v", err))
		}
	}
	return result.Ok(&Packet{header: header, data: data})
}
