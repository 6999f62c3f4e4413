package station

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"shorelink/internal/config"
	"shorelink/internal/protocol"
)

// captureSink records everything fanned out to it. With fail set, every
// call also returns an error.
type captureSink struct {
	mu       sync.Mutex
	statuses []*protocol.Status
	batches  []*protocol.ContactBatch
	fail     bool
}

func (c *captureSink) HandleStatus(st *protocol.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, st)
	if c.fail {
		return errors.New("sink down")
	}
	return nil
}

func (c *captureSink) HandleContacts(batch *protocol.ContactBatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
	if c.fail {
		return errors.New("sink down")
	}
	return nil
}

// testStation builds a station around the default groups without opening
// any sockets.
func testStation(sinks ...Sink) *Station {
	cfg := &config.Config{
		Telemetry: config.TelemetryConfig{
			StatusGroup:   "226.100.100.101",
			ContactsGroup: "226.100.100.102",
		},
	}
	return &Station{cfg: cfg, book: protocol.DefaultCodebook(), seq: NewSeq(), sinks: sinks}
}

func statusDatagram(t *testing.T) []byte {
	t.Helper()
	return protocol.EncodeStatus(&protocol.Status{
		Header:    protocol.Header{Seq: 1, Stamp: 100, Sender: 0x5002},
		Longitude: 45,
		Latitude:  22.5,
		Speed:     10,
		Heading:   90,
		Fuel:      80,
	})
}

func contactsDatagram(t *testing.T) []byte {
	t.Helper()
	buf, err := protocol.EncodeContacts(&protocol.ContactBatch{
		Header:   protocol.Header{Seq: 2, Stamp: 200, Sender: 0x5002},
		Contacts: []protocol.Contact{{ID: 9, Longitude: 45, Latitude: 22.5, Range: 800, Type: 1}},
	})
	if err != nil {
		t.Fatalf("EncodeContacts failed: %v", err)
	}
	return buf
}

// TestHandleDatagramByGroup routes each stream by its destination group.
func TestHandleDatagramByGroup(t *testing.T) {
	sink := &captureSink{}
	s := testStation(sink)

	s.HandleDatagram("226.100.100.101", statusDatagram(t))
	s.HandleDatagram("226.100.100.102", contactsDatagram(t))

	if len(sink.statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(sink.statuses))
	}
	if sink.statuses[0].Longitude != 45 || sink.statuses[0].Fuel != 80 {
		t.Errorf("decoded status mismatch: %+v", sink.statuses[0])
	}
	if len(sink.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(sink.batches))
	}
	if sink.batches[0].Contacts[0].ID != 9 {
		t.Errorf("decoded contact mismatch: %+v", sink.batches[0].Contacts[0])
	}
}

// TestHandleDatagramHeaderFallback demultiplexes by secondary unit id when
// no destination group is reported.
func TestHandleDatagramHeaderFallback(t *testing.T) {
	sink := &captureSink{}
	s := testStation(sink)

	s.HandleDatagram("", statusDatagram(t))
	s.HandleDatagram("", contactsDatagram(t))
	s.HandleDatagram("192.168.2.1", contactsDatagram(t)) // unexpected unicast dst

	if len(sink.statuses) != 1 {
		t.Errorf("statuses = %d, want 1", len(sink.statuses))
	}
	if len(sink.batches) != 2 {
		t.Errorf("batches = %d, want 2", len(sink.batches))
	}
}

// TestHandleDatagramDropsMalformed keeps bad datagrams away from the sinks.
func TestHandleDatagramDropsMalformed(t *testing.T) {
	sink := &captureSink{}
	s := testStation(sink)

	s.HandleDatagram("226.100.100.101", []byte{0x01, 0x02, 0x03})

	wrongUnit := statusDatagram(t)
	wrongUnit[1] = 0x02
	s.HandleDatagram("226.100.100.101", wrongUnit)

	short := contactsDatagram(t)
	s.HandleDatagram("226.100.100.102", short[:protocol.ContactsHdrSize+4])

	if len(sink.statuses) != 0 || len(sink.batches) != 0 {
		t.Errorf("sinks saw %d statuses, %d batches; want none",
			len(sink.statuses), len(sink.batches))
	}
}

// TestSinkIsolation keeps one failing sink from starving the others.
func TestSinkIsolation(t *testing.T) {
	bad := &captureSink{fail: true}
	good := &captureSink{}
	s := testStation(bad, good)

	s.HandleDatagram("226.100.100.101", statusDatagram(t))

	if len(bad.statuses) != 1 || len(good.statuses) != 1 {
		t.Errorf("fan-out incomplete: bad=%d good=%d", len(bad.statuses), len(good.statuses))
	}
}

// TestAddSinkWhileRunning registers a sink between datagrams.
func TestAddSinkWhileRunning(t *testing.T) {
	s := testStation()
	s.HandleDatagram("226.100.100.101", statusDatagram(t))

	late := &captureSink{}
	s.AddSink(late)
	s.HandleDatagram("226.100.100.101", statusDatagram(t))

	if len(late.statuses) != 1 {
		t.Errorf("late sink saw %d statuses, want 1", len(late.statuses))
	}
}

// TestCloseAfterCancel verifies a cancelled context lets Close return
// promptly instead of sitting out the transport timeouts — the normal
// interactive-quit path.
func TestCloseAfterCancel(t *testing.T) {
	sink, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("command sink: %v", err)
	}
	defer sink.Close()

	cfg := &config.Config{
		Command: config.CommandConfig{
			Host: "127.0.0.1",
			Port: sink.LocalAddr().(*net.UDPAddr).Port,
		},
		Telemetry: config.TelemetryConfig{
			StatusGroup:   "226.100.100.101",
			ContactsGroup: "226.100.100.102",
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, cfg)
	if err != nil {
		cancel()
		t.Skipf("link sockets unavailable on this host: %v", err)
	}
	go s.Run(ctx)

	cancel()
	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close stalled after the context was cancelled")
	}
}

// TestSeqWraps checks the rolling counter: first value 1, wrap at 256.
func TestSeqWraps(t *testing.T) {
	s := NewSeq()
	if got := s.Next(); got != 1 {
		t.Fatalf("first Next = %d, want 1", got)
	}
	for i := 0; i < 254; i++ {
		s.Next()
	}
	if got := s.Next(); got != 0 {
		t.Errorf("256th Next = %d, want 0", got)
	}
	if got := s.Next(); got != 1 {
		t.Errorf("257th Next = %d, want 1", got)
	}
}
