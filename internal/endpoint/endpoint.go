// Package endpoint holds the owning handle for an accepted peer connection.
package endpoint

import (
	"github.com/NeddX/pciemgrd/pkg/netsock"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// Endpoint is a registered peer: its node id (supplied during the Ready
// handshake) plus the socket it owns exclusively. Its lifetime runs from a
// successful handshake until the peer disconnects or the server shuts down.
type Endpoint struct {
	ID     uint8
	socket *netsock.Socket
}

// New wraps an already-handshaken socket under id.
func New(id uint8, socket *netsock.Socket) *Endpoint {
	return &Endpoint{ID: id, socket: socket}
}

// Socket exposes the owned connection for the receive loop.
func (e *Endpoint) Socket() *netsock.Socket { return e.socket }

// Send forwards p to the codec's BeginSend over this endpoint's connection.
func (e *Endpoint) Send(p *proto.Packet) result.Result[result.Void] {
	r := proto.BeginSend(e.socket.Conn(), p)
	if r.IsErr() {
		e.socket.MarkDisconnected()
	}
	return r
}

// Close releases the owned socket. Safe to call more than once.
func (e *Endpoint) Close() error {
	return e.socket.Close()
}
