// Package nethandler implements the accept loop, the handshake, the
// per-endpoint receive tasks, the shared packet queue, and the single
// dispatcher task that together form the server side of the protocol.
package nethandler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeddX/pciemgrd/internal/endpoint"
	"github.com/NeddX/pciemgrd/internal/logging"
	"github.com/NeddX/pciemgrd/pkg/netsock"
	"github.com/NeddX/pciemgrd/pkg/proto"
	"github.com/NeddX/pciemgrd/pkg/result"
)

// Handler is the shape every registered packet handler must satisfy.
type Handler func(ep *endpoint.Endpoint, p *proto.Packet) result.Result[result.Void]

type queueEntry struct {
	ep *endpoint.Endpoint
	p  *proto.Packet
}

// NetHandler owns every accepted Endpoint, the packet queue, and the
// dispatcher task. It calls Accept on the listening socket, and Stop closes
// that listener so a blocked Accept returns.
type NetHandler struct {
	logger   logging.Logger
	listener *netsock.Listener
	run      atomic.Bool

	queueMu sync.Mutex
	queue   []queueEntry

	handlersMu sync.Mutex
	handlers   map[proto.PacketType]Handler

	endpointsMu sync.Mutex
	endpoints   []*endpoint.Endpoint

	wg sync.WaitGroup
}

// New builds a NetHandler bound to an already-listening socket. The run
// flag starts true.
func New(listener *netsock.Listener, logger logging.Logger) *NetHandler {
	nh := &NetHandler{
		listener: listener,
		logger:   logger,
		handlers: make(map[proto.PacketType]Handler),
	}
	nh.run.Store(true)
	return nh
}

// AddPacketHandler registers h for t. Last registration wins.
func (nh *NetHandler) AddPacketHandler(t proto.PacketType, h Handler) {
	nh.handlersMu.Lock()
	defer nh.handlersMu.Unlock()
	nh.handlers[t] = h
}

// BeginAccept runs the accept loop until Stop is called. It blocks the
// calling goroutine, matching the original's "main thread runs the accept
// loop" design.
func (nh *NetHandler) BeginAccept() {
	for nh.run.Load() {
		sockResult := nh.listener.Accept()
		if sockResult.IsErr() {
			continue
		}
		sock := sockResult.Unwrap()
		nh.logger.Infof("A connection is being made...")

		pktResult := proto.BeginReceive(sock.Conn())
		if pktResult.IsErr() {
			sock.Close()
			continue
		}
		pkt := pktResult.Unwrap()
		if pkt.Type() != proto.Ready {
			sock.Close()
			continue
		}

		nodeID := proto.Pop[uint8](pkt)
		if r := proto.BeginSend(sock.Conn(), proto.OkPacket()); r.IsErr() {
			sock.Close()
			continue
		}

		ep := endpoint.New(nodeID, sock)
		nh.registerEndpoint(ep)
		nh.spawnReceiveTask(ep)
	}
}

func (nh *NetHandler) registerEndpoint(ep *endpoint.Endpoint) {
	nh.endpointsMu.Lock()
	defer nh.endpointsMu.Unlock()
	nh.endpoints = append(nh.endpoints, ep)
}

// unregisterEndpoint drops ep from the connected-endpoints list once its
// receive task observes a disconnect.
func (nh *NetHandler) unregisterEndpoint(ep *endpoint.Endpoint) {
	nh.endpointsMu.Lock()
	defer nh.endpointsMu.Unlock()
	for i, e := range nh.endpoints {
		if e == ep {
			nh.endpoints = append(nh.endpoints[:i], nh.endpoints[i+1:]...)
			return
		}
	}
}

// Endpoints returns a snapshot of every currently connected endpoint.
func (nh *NetHandler) Endpoints() []*endpoint.Endpoint {
	nh.endpointsMu.Lock()
	defer nh.endpointsMu.Unlock()
	return append([]*endpoint.Endpoint(nil), nh.endpoints...)
}

func (nh *NetHandler) spawnReceiveTask(ep *endpoint.Endpoint) {
	nh.wg.Add(1)
	go func() {
		defer nh.wg.Done()
		for ep.Socket().Connected() {
			pktResult := proto.BeginReceive(ep.Socket().Conn())
			if pktResult.IsErr() {
				ep.Socket().MarkDisconnected()
				ep.Close()
				nh.unregisterEndpoint(ep)
				return
			}
			nh.enqueue(ep, pktResult.Unwrap())
		}
	}()
}

func (nh *NetHandler) enqueue(ep *endpoint.Endpoint, p *proto.Packet) {
	nh.queueMu.Lock()
	defer nh.queueMu.Unlock()
	nh.queue = append(nh.queue, queueEntry{ep: ep, p: p})
}

func (nh *NetHandler) drain() []queueEntry {
	nh.queueMu.Lock()
	defer nh.queueMu.Unlock()
	if len(nh.queue) == 0 {
		return nil
	}
	drained := nh.queue
	nh.queue = nil
	return drained
}

// BeginPacketDispatch spawns the single dispatcher task and returns
// immediately; the caller (Application.Run) then blocks on BeginAccept.
func (nh *NetHandler) BeginPacketDispatch() {
	nh.wg.Add(1)
	go func() {
		defer nh.wg.Done()
		for nh.run.Load() {
			entries := nh.drain()
			if len(entries) == 0 {
				time.Sleep(2 * time.Millisecond)
				continue
			}
			for _, e := range entries {
				nh.dispatchOne(e.ep, e.p)
			}
		}
	}()
}

func (nh *NetHandler) dispatchOne(ep *endpoint.Endpoint, p *proto.Packet) {
	nh.handlersMu.Lock()
	h, ok := nh.handlers[p.Type()]
	nh.handlersMu.Unlock()

	if !ok {
		nh.logger.Warnf("Dropped %s packet", p.Type())
		return
	}

	r := h(ep, p)
	if r.IsErr() {
		e := r.UnwrapErr()
		nh.logger.Errorf("%s", e.Error())
		ep.Send(proto.ErrPacket(e))
	}
}

// Stop flips the run flag so the accept and dispatcher loops exit at their
// next iteration, and closes the listener so a blocked Accept call returns.
func (nh *NetHandler) Stop() {
	nh.run.Store(false)
	nh.listener.Close()
}

// Wait blocks until the dispatcher task and every still-running receive
// task have exited.
func (nh *NetHandler) Wait() {
	nh.wg.Wait()
}
