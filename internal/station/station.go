// Package station wires the shore side of the link together: the rolling
// command sequence, the stamped send operations and the telemetry receive
// fan-out.
package station

import (
	"context"
	"sync"
	"time"

	"shorelink/internal/config"
	"shorelink/internal/protocol"
	"shorelink/internal/transport"
	"shorelink/internal/util"
)

// Sink consumes decoded telemetry. Implementations are called from the
// receive goroutine; a returned error is logged and isolated, it never
// stops the link.
type Sink interface {
	HandleStatus(st *protocol.Status) error
	HandleContacts(batch *protocol.ContactBatch) error
}

// Station owns one operator session: the connected command socket, the
// joined telemetry groups and the registered sinks.
type Station struct {
	cfg    *config.Config
	book   *protocol.Codebook
	seq    *Seq
	sender *transport.Sender
	recv   *transport.Receiver

	mu    sync.RWMutex
	sinks []Sink
}

// New builds the station: command socket connected, telemetry port bound
// and both groups joined. Sinks are registered afterwards.
func New(ctx context.Context, cfg *config.Config) (*Station, error) {
	s := &Station{
		cfg:  cfg,
		book: cfg.Codebook(),
		seq:  NewSeq(),
	}

	sender, err := transport.NewSender(ctx, cfg.CommandAddr())
	if err != nil {
		return nil, err
	}
	s.sender = sender

	recv, err := transport.NewReceiver(
		cfg.Telemetry.Port,
		cfg.Telemetry.StatusGroup,
		cfg.Telemetry.ContactsGroup,
		cfg.Telemetry.Interface,
		s.HandleDatagram,
	)
	if err != nil {
		return nil, err
	}
	s.recv = recv

	return s, nil
}

// AddSink registers a telemetry consumer. Sinks added while the link runs
// see subsequent packets.
func (s *Station) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
}

// Run drives the telemetry read loop on the calling goroutine until ctx is
// cancelled.
func (s *Station) Run(ctx context.Context) {
	s.recv.Run(ctx)
}

// Close waits for both transport loops to wind down after the context
// driving Run and the sender has been cancelled.
func (s *Station) Close() {
	s.recv.Close()
	select {
	case <-s.sender.Done():
	case <-time.After(transport.CloseWait):
		util.LogWarning("指令发送循环未按时退出")
	}
}

// ---------------------------------------------------------------------------
// Downlink
// ---------------------------------------------------------------------------

// SendSpeedHeading stamps, encodes and enqueues a speed/heading command for
// one vessel.
func (s *Station) SendSpeedHeading(ctx context.Context, vessel int, speed, heading float64) {
	buf := s.book.EncodeSpeedHeading(s.seq.Next(), vessel, speed, heading, protocol.DayStamp(time.Now()))
	util.LogDebug("速度航向指令: %s", util.FormatHex(buf))
	s.sender.Send(ctx, buf)
}

// SendRoute stamps, encodes and enqueues a route command. The waypoint
// count bounds from the wire format come back as an error, nothing is sent.
func (s *Station) SendRoute(ctx context.Context, vessel int, wps []protocol.Waypoint) error {
	buf, err := s.book.EncodeRoute(s.seq.Next(), vessel, wps, protocol.DayStamp(time.Now()))
	if err != nil {
		return err
	}
	util.LogDebug("航路指令 (%d 航点): %s", len(wps), util.FormatHex(buf))
	s.sender.Send(ctx, buf)
	return nil
}

// ---------------------------------------------------------------------------
// Uplink
// ---------------------------------------------------------------------------

// HandleDatagram demultiplexes one telemetry datagram. The destination
// group decides the stream; when the stack did not report one, the
// header's secondary unit id does. Decode failures are counted and the
// datagram dropped, nothing reaches the sinks.
func (s *Station) HandleDatagram(group string, data []byte) {
	h, err := protocol.ParseHeader(data)
	if err != nil {
		util.Stats.AddDropped()
		util.LogWarning("遥测报文过短 (%d 字节)", len(data))
		return
	}

	var contacts bool
	switch group {
	case s.cfg.Telemetry.ContactsGroup:
		contacts = true
	case s.cfg.Telemetry.StatusGroup:
		contacts = false
	default:
		contacts = h.Secondary == protocol.SecondaryContacts
	}

	if contacts {
		batch, err := protocol.DecodeContacts(data)
		if err != nil {
			util.Stats.AddDropped()
			util.LogWarning("目标报文解码失败: %v", err)
			return
		}
		util.Stats.AddContacts()
		for _, sink := range s.snapshot() {
			if err := sink.HandleContacts(batch); err != nil {
				util.LogWarning("目标分发失败: %v", err)
			}
		}
		return
	}

	st, err := protocol.DecodeStatus(data)
	if err != nil {
		util.Stats.AddDropped()
		util.LogWarning("状态报文解码失败: %v", err)
		return
	}
	util.Stats.AddStatus()
	for _, sink := range s.snapshot() {
		if err := sink.HandleStatus(st); err != nil {
			util.LogWarning("状态分发失败: %v", err)
		}
	}
}

func (s *Station) snapshot() []Sink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Sink(nil), s.sinks...)
}
