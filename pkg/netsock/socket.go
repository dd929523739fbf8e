// Package netsock is a thin facade over net.Conn/net.Listener that tracks a
// connected flag, the Go analogue of the portable BSD-sockets wrapper this
// codebase is modeled on.
package netsock

import (
	"net"
	"time"

	"github.com/NeddX/pciemgrd/pkg/result"
)

// DefaultTimeout is the dial timeout Connect uses. Listen does not use it,
// and it is not enforced on the accept/handshake path (see the handshake
// timeout open question in SPEC_FULL.md).
const DefaultTimeout = 5000 * time.Millisecond

// Socket wraps a net.Conn, tracking whether it is still usable. Callers flip
// connected to false with MarkDisconnected after a send or receive failure
// (Close also clears it); callers must treat false as end-of-session and
// stop using the socket.
type Socket struct {
	conn      net.Conn
	connected bool
}

// NewSocket wraps an already-established connection.
func NewSocket(conn net.Conn) *Socket {
	return &Socket{conn: conn, connected: true}
}

// Connect dials addr over TCP, the only transport this cluster speaks.
func Connect(addr string) result.Result[*Socket] {
	conn, err := net.DialTimeout("tcp", addr, DefaultTimeout)
	if err != nil {
		return result.Fail[*Socket](result.NewErrf(result.NetConnectionTimeout, "failed to connect to %s: %v", addr, err))
	}
	return result.Ok(NewSocket(conn))
}

// Listener wraps a net.Listener for the accept loop.
type Listener struct {
	ln net.Listener
}

// Listen binds and listens on addr. Failure here is treated as fatal by the
// application (ErrKind.NetListenFailure).
func Listen(addr string) result.Result[*Listener] {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return result.Fail[*Listener](result.NewErrf(result.NetListenFailure, "failed to listen on %s: %v", addr, err))
	}
	return result.Ok(&Listener{ln: ln})
}

// Accept blocks for the next incoming connection.
func (l *Listener) Accept() result.Result[*Socket] {
	conn, err := l.ln.Accept()
	if err != nil {
		return result.Fail[*Socket](result.NewErrf(result.NetSocketError, "accept failed: %v", err))
	}
	return result.Ok(NewSocket(conn))
}

// Close stops the listener from accepting further connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the listener's bound address, useful when binding to an
// ephemeral port (":0") in tests.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Conn exposes the underlying net.Conn for use with pkg/proto's BeginSend
// and BeginReceive, which operate on io.Writer/io.Reader.
func (s *Socket) Conn() net.Conn { return s.conn }

// Connected reports whether the socket is still believed usable.
func (s *Socket) Connected() bool { return s.connected }

// MarkDisconnected flips the connected flag; callers do this after any
// send/receive failure.
func (s *Socket) MarkDisconnected() { s.connected = false }

// Close releases the underlying connection.
func (s *Socket) Close() error {
	s.connected = false
	return s.conn.Close()
}

// SetDeadline applies a read/write deadline to the underlying connection.
func (s *Socket) SetDeadline(t time.Time) error { return s.conn.SetDeadline(t) }
