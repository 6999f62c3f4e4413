package transport

import (
	"context"
	"fmt"
	"net"

	"shorelink/internal/util"
)

// Sender is a goroutine-based datagram writer that serializes all command
// writes onto a single connected UDP socket. The link is fire-and-forget:
// a failed write is logged and counted, never fatal.
type Sender struct {
	inbox chan []byte
	conn  *net.UDPConn
	done  chan struct{}
}

// NewSender resolves addr (host:port), connects the UDP socket and starts
// the background writer loop. The loop exits when ctx is cancelled.
func NewSender(ctx context.Context, addr string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve command destination %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("open command socket: %w", err)
	}

	s := &Sender{
		inbox: make(chan []byte, SendBufferSize),
		conn:  conn,
		done:  make(chan struct{}),
	}
	go s.loop(ctx)
	return s, nil
}

// loop is the single-writer goroutine draining the inbox.
func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	defer s.conn.Close()

	for {
		select {
		case data := <-s.inbox:
			if _, err := s.conn.Write(data); err != nil {
				util.LogWarning("指令发送失败: %v", err)
				continue
			}
			util.Stats.AddCommand(len(data))
		case <-ctx.Done():
			return
		}
	}
}

// Send enqueues one encoded command for transmission. It blocks while the
// internal buffer is full and gives up silently when ctx is already
// cancelled.
func (s *Sender) Send(ctx context.Context, data []byte) {
	select {
	case s.inbox <- data:
	case <-ctx.Done():
	}
}

// RemoteAddr returns the command destination for display.
func (s *Sender) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Done reports writer-loop shutdown, for bounded waits at exit.
func (s *Sender) Done() <-chan struct{} {
	return s.done
}
