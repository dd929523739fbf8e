package proto

import (
	"bytes"
	"testing"

	"github.com/NeddX/pciemgrd/pkg/result"
)

func TestScalarRoundTripIsLIFO(t *testing.T) {
	p := NewPacket(Join)
	Push[uint8](p, 5)
	Push[uint32](p, 0xdeadbeef)

	if got := Pop[uint32](p); got != 0xdeadbeef {
		t.Fatalf("expected tail value first, got %x", got)
	}
	if got := Pop[uint8](p); got != 5 {
		t.Fatalf("expected head value last, got %d", got)
	}
	if p.Size() != 0 {
		t.Fatalf("expected empty payload, got %d bytes", p.Size())
	}
}

func TestBytesRoundTripDrainsAll(t *testing.T) {
	p := NewPacket(String)
	want := []byte{1, 2, 3, 4}
	p.PushBytes(want)
	got := p.PopBytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if p.Size() != 0 {
		t.Fatalf("expected payload drained")
	}
}

func TestErrPacketRoundTrip(t *testing.T) {
	e := result.NewErrMsg(result.InvalidOperation, "Already in group 5")
	p := ErrPacket(e)
	if p.Type() != Err {
		t.Fatalf("expected Err type")
	}
	got := p.ExtractErr()
	if got.Kind != e.Kind || got.Message != e.Message {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}

func TestBeginSendBeginReceiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sent := NewPacket(Ready)
	Push[uint8](sent, 42)

	if r := BeginSend(&buf, sent); r.IsErr() {
		t.Fatalf("send failed: %v", r.UnwrapErr())
	}

	r := BeginReceive(&buf)
	if r.IsErr() {
		t.Fatalf("receive failed: %v", r.UnwrapErr())
	}
	got := r.Unwrap()
	if got.Type() != Ready || got.Size() != 1 {
		t.Fatalf("mismatch: type=%v size=%d", got.Type(), got.Size())
	}
}

func TestReadyHandshakeWireBytes(t *testing.T) {
	p := NewPacket(Ready)
	Push[uint8](p, 42)

	var buf bytes.Buffer
	if r := BeginSend(&buf, p); r.IsErr() {
		t.Fatalf("send failed: %v", r.UnwrapErr())
	}
	want := []byte{byte(Ready), 1, 0, 0, 0, 42}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v want %v", buf.Bytes(), want)
	}
}
