package nethandler

import (
	"testing"
	"time"

	"github.com/NeddX/pciemgrd/internal/endpoint"
	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/pkg/netsock"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

func startTestServer(t *testing.T) (*NetHandler, string) {
	t.Helper()
	lnResult := netsock.Listen("127.0.0.1:0")
	if lnResult.IsErr() {
		t.Fatalf("listen failed: %v", lnResult.UnwrapErr())
	}
	ln := lnResult.Unwrap()

	nh := New(ln, logging.New())

	var groups [63][]uint8
	nh.AddPacketHandler(proto.Join, func(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
		gid := proto.Pop[uint8](p)
		for _, m := range groups[gid] {
			if m == ep.ID {
				return result.FailVoid(result.NewErrf(result.InvalidOperation, "Already in group %d", gid))
			}
		}
		groups[gid] = append(groups[gid], ep.ID)
		ep.Send(proto.OkPacket())
		return result.OkVoid()
	})
	nh.AddPacketHandler(proto.String, func(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void] {
		_ = p.PopString()
		ep.Send(proto.OkPacket())
		return result.OkVoid()
	})

	nh.BeginPacketDispatch()
	go nh.BeginAccept()

	return nh, ln.Addr().String()
}

func dialAndHandshake(t *testing.T, addr string, nodeID uint8) *netsock.Socket {
	t.Helper()
	connResult := netsock.Connect(addr)
	if connResult.IsErr() {
		t.Fatalf("connect failed: %v", connResult.UnwrapErr())
	}
	sock := connResult.Unwrap()

	readyPkt := proto.NewPacket(proto.Ready)
	proto.Push[uint8](readyPkt, nodeID)
	if r := proto.BeginSend(sock.Conn(), readyPkt); r.IsErr() {
		t.Fatalf("send ready failed: %v", r.UnwrapErr())
	}
	respResult := proto.BeginReceive(sock.Conn())
	if respResult.IsErr() {
		t.Fatalf("receive ack failed: %v", respResult.UnwrapErr())
	}
	if respResult.Unwrap().Type() != proto.Ok {
		t.Fatalf("expected Ok handshake ack")
	}
	return sock
}

func TestHandshakeThenStringRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	sock := dialAndHandshake(t, addr, 42)
	defer sock.Close()

	strPkt := proto.NewPacket(proto.String)
	strPkt.PushString("hi")
	if r := proto.BeginSend(sock.Conn(), strPkt); r.IsErr() {
		t.Fatalf("send string failed: %v", r.UnwrapErr())
	}
	respResult := proto.BeginReceive(sock.Conn())
	if respResult.IsErr() {
		t.Fatalf("receive ack failed: %v", respResult.UnwrapErr())
	}
	if respResult.Unwrap().Type() != proto.Ok {
		t.Fatalf("expected Ok ack for string packet")
	}
}

func TestJoinThenDuplicateJoinFails(t *testing.T) {
	_, addr := startTestServer(t)
	sock := dialAndHandshake(t, addr, 42)
	defer sock.Close()

	join := func() *proto.Packet {
		p := proto.NewPacket(proto.Join)
		proto.Push[uint8](p, 5)
		if r := proto.BeginSend(sock.Conn(), p); r.IsErr() {
			t.Fatalf("send join failed: %v", r.UnwrapErr())
		}
		r := proto.BeginReceive(sock.Conn())
		if r.IsErr() {
			t.Fatalf("receive join ack failed: %v", r.UnwrapErr())
		}
		return r.Unwrap()
	}

	first := join()
	if first.Type() != proto.Ok {
		t.Fatalf("expected first join to succeed, got %v", first.Type())
	}

	second := join()
	if second.Type() != proto.Err {
		t.Fatalf("expected second join to fail, got %v", second.Type())
	}
	errVal := second.ExtractErr()
	if errVal.Kind != result.InvalidOperation {
		t.Fatalf("expected InvalidOperation, got %v", errVal.Kind)
	}
}

func TestNonReadyFirstPacketClosesConnection(t *testing.T) {
	_, addr := startTestServer(t)

	connResult := netsock.Connect(addr)
	if connResult.IsErr() {
		t.Fatalf("connect failed: %v", connResult.UnwrapErr())
	}
	sock := connResult.Unwrap()
	defer sock.Close()

	strPkt := proto.NewPacket(proto.String)
	strPkt.PushString("not a handshake")
	if r := proto.BeginSend(sock.Conn(), strPkt); r.IsErr() {
		t.Fatalf("send failed: %v", r.UnwrapErr())
	}

	sock.Conn().SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	r := proto.BeginReceive(sock.Conn())
	if r.IsOk() {
		t.Fatalf("expected no reply for a non-Ready first packet")
	}
}
