package transport_test

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"shorelink/internal/transport"
)

// startUDPSink binds an ephemeral loopback socket standing in for the
// vessel's command port. Returns its address and a channel of received
// datagrams.
func startUDPSink(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("sink: listen failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	out := make(chan []byte, 16)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, _, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			out <- data
		}
	}()
	return conn.LocalAddr().String(), out
}

// TestSenderDelivers pushes two commands through the writer loop and checks
// they arrive byte-identical and in order.
func TestSenderDelivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, rx := startUDPSink(t)
	s, err := transport.NewSender(ctx, addr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	first := []byte{0x01, 0x02, 0x03}
	second := bytes.Repeat([]byte{0xAB}, 28)
	s.Send(ctx, first)
	s.Send(ctx, second)

	for i, want := range [][]byte{first, second} {
		select {
		case got := <-rx:
			if !bytes.Equal(got, want) {
				t.Errorf("datagram %d = % X, want % X", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("datagram %d not delivered", i)
		}
	}
}

// TestSenderStopsOnCancel verifies the writer loop exits with the context
// and a late Send never blocks the caller.
func TestSenderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	addr, _ := startUDPSink(t)
	s, err := transport.NewSender(ctx, addr)
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("sender loop still running after cancel")
	}

	done := make(chan struct{})
	go func() {
		s.Send(ctx, []byte{0x00})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked after cancel")
	}
}

// TestSenderBadAddress rejects an unresolvable destination up front.
func TestSenderBadAddress(t *testing.T) {
	_, err := transport.NewSender(context.Background(), "not-an-address")
	if err == nil {
		t.Fatal("expected error for malformed address")
	}
}
