package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"shorelink/internal/util"
)

// Handler consumes one telemetry datagram. group carries the destination
// multicast address the datagram arrived on, or "" when the stack did not
// report it; the caller falls back to header demultiplexing in that case.
type Handler func(group string, data []byte)

// Receiver joins both telemetry groups on one shared port and tells the two
// streams apart by destination address.
type Receiver struct {
	pc      *ipv4.PacketConn
	conn    net.PacketConn
	handler Handler
	done    chan struct{}
}

// NewReceiver binds the shared telemetry port and joins the status and
// contact groups, on the named interface when ifaceName is set. Port 0
// binds an ephemeral port (used by tests).
func NewReceiver(port int, statusGroup, contactsGroup, ifaceName string, handler Handler) (*Receiver, error) {
	statusIP := net.ParseIP(statusGroup)
	contactIP := net.ParseIP(contactsGroup)
	if statusIP == nil || contactIP == nil {
		return nil, fmt.Errorf("bad multicast group %q / %q", statusGroup, contactsGroup)
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("bind telemetry port %d: %w", port, err)
	}

	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("telemetry interface %s: %w", ifaceName, err)
		}
	}

	pc := ipv4.NewPacketConn(conn)
	for _, group := range []net.IP{statusIP, contactIP} {
		if err := pc.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
			conn.Close()
			return nil, fmt.Errorf("join group %s: %w", group, err)
		}
	}
	// Destination addresses drive the demux; not every stack delivers them.
	if err := pc.SetControlMessage(ipv4.FlagDst, true); err != nil {
		util.LogDebug("目的地址控制消息不可用: %v", err)
	}

	return &Receiver{
		pc:      pc,
		conn:    conn,
		handler: handler,
		done:    make(chan struct{}),
	}, nil
}

// Run reads datagrams until ctx is cancelled. Every datagram is handed to
// the handler on this goroutine; a handler that panics is the caller's
// problem, a datagram the handler rejects never stops the loop.
func (r *Receiver) Run(ctx context.Context) {
	defer close(r.done)
	defer r.conn.Close()

	buf := make([]byte, MaxDatagram)
	for {
		// Use a short deadline so we can periodically check ctx.Done().
		r.pc.SetReadDeadline(time.Now().Add(ReadTimeout))
		n, cm, _, err := r.pc.ReadFrom(buf)

		if n > 0 {
			util.Stats.AddRecv(n)
			group := ""
			if cm != nil && cm.Dst != nil {
				group = cm.Dst.String()
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			r.handler(group, data)
		}

		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				select {
				case <-ctx.Done():
					return
				default:
					continue
				}
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			util.LogWarning("遥测接收错误: %v", err)
		}
	}
}

// LocalAddr returns the bound telemetry address.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Close waits up to CloseWait for the read loop to wind down after the
// caller cancels the context driving Run.
func (r *Receiver) Close() {
	select {
	case <-r.done:
	case <-time.After(CloseWait):
		util.LogWarning("遥测接收循环未按时退出")
	}
}
