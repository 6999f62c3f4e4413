package controller

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Frame sync pattern.
const (
	sync1 = 0xAA
	sync2 = 0x55
)

// Controller command identifiers.
const (
	cmdHeartbeat     uint8 = 0x01
	cmdMovement      uint8 = 0x02
	cmdStatusRequest uint8 = 0x03
	cmdWaypoint      uint8 = 0x04
	cmdEmergencyStop uint8 = 0x05
	cmdStatusReply   uint8 = 0x83
)

// statusReplySize is lat(8) + lon(8) + heading(4) + speed(2) + battery(1).
const statusReplySize = 23

// encodeFrame wraps one command: sync pair, id, payload length, payload,
// XOR checksum over id, length and payload.
func encodeFrame(id uint8, payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+5)
	frame = append(frame, sync1, sync2, id, uint8(len(payload)))
	frame = append(frame, payload...)

	sum := id ^ uint8(len(payload))
	for _, b := range payload {
		sum ^= b
	}
	return append(frame, sum)
}

type frame struct {
	id      uint8
	payload []byte
}

// frameScanner reassembles frames from an arbitrary byte stream,
// resynchronizing on the sync pattern after garbage or a bad checksum.
type frameScanner struct {
	buf []byte
}

func (s *frameScanner) feed(data []byte) []frame {
	s.buf = append(s.buf, data...)

	var frames []frame
	for {
		i := bytes.Index(s.buf, []byte{sync1, sync2})
		if i < 0 {
			// Keep a trailing first sync byte, its pair may arrive next.
			if n := len(s.buf); n > 0 && s.buf[n-1] == sync1 {
				s.buf = s.buf[n-1:]
			} else {
				s.buf = nil
			}
			return frames
		}
		s.buf = s.buf[i:]

		if len(s.buf) < 4 {
			return frames
		}
		size := int(s.buf[3])
		total := 4 + size + 1
		if len(s.buf) < total {
			return frames
		}

		id := s.buf[2]
		payload := s.buf[4 : 4+size]
		sum := id ^ s.buf[3]
		for _, b := range payload {
			sum ^= b
		}
		if sum != s.buf[total-1] {
			// Corrupt frame: shift one byte and hunt for the next sync.
			s.buf = s.buf[1:]
			continue
		}

		frames = append(frames, frame{id: id, payload: append([]byte(nil), payload...)})
		s.buf = s.buf[total:]
	}
}

// decodeStatusReply unpacks the little-endian status reply payload. The
// reply is fixed size, anything else is rejected.
func decodeStatusReply(payload []byte) (VehicleStatus, error) {
	if len(payload) != statusReplySize {
		return VehicleStatus{}, fmt.Errorf("%w: got %d bytes, want %d",
			ErrBadReply, len(payload), statusReplySize)
	}
	return VehicleStatus{
		Latitude:  math.Float64frombits(binary.LittleEndian.Uint64(payload[0:8])),
		Longitude: math.Float64frombits(binary.LittleEndian.Uint64(payload[8:16])),
		Heading:   float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[16:20]))),
		Speed:     float64(binary.LittleEndian.Uint16(payload[20:22])) / 10,
		Battery:   payload[22],
		Seen:      time.Now(),
	}, nil
}
