package netsock

import "testing"

func TestListenAndConnect(t *testing.T) {
	lnResult := Listen("127.0.0.1:0")
	if lnResult.IsErr() {
		t.Fatalf("listen failed: %v", lnResult.UnwrapErr())
	}
	ln := lnResult.Unwrap()
	defer ln.Close()

	accepted := make(chan *Socket, 1)
	go func() {
		r := ln.Accept()
		if r.IsOk() {
			accepted <- r.Unwrap()
		}
	}()

	connResult := Connect(ln.Addr().String())
	if connResult.IsErr() {
		t.Fatalf("connect failed: %v", connResult.UnwrapErr())
	}
	client := connResult.Unwrap()
	defer client.Close()

	server := <-accepted
	defer server.Close()

	if !client.Connected() || !server.Connected() {
		t.Fatalf("expected both sides connected")
	}
}

func TestMarkDisconnected(t *testing.T) {
	lnResult := Listen("127.0.0.1:0")
	if lnResult.IsErr() {
		t.Fatalf("listen failed: %v", lnResult.UnwrapErr())
	}
	ln := lnResult.Unwrap()
	defer ln.Close()

	connResult := Connect(ln.Addr().String())
	if connResult.IsErr() {
		t.Fatalf("connect failed: %v", connResult.UnwrapErr())
	}
	client := connResult.Unwrap()
	client.MarkDisconnected()
	if client.Connected() {
		t.Fatalf("expected disconnected")
	}
}
