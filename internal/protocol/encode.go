package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeSpeedHeading builds the 28-byte speed/heading command for one
// vessel. Speed scales to 0.1 kn steps truncated toward zero; heading
// scales to 0.1° steps masked to 16 bits. seq is the caller's rolling
// sequence number and stamp the day-relative send time.
func (cb *Codebook) EncodeSpeedHeading(seq uint8, vessel int, speed, heading float64, stamp uint32) []byte {
	code := cb.Resolve(vessel)
	buf := make([]byte, SpeedHeadingSize)
	putHeader(buf, &Header{
		Seq:       seq,
		Unit:      UnitCommand,
		Length:    SpeedHeadingSize,
		Stamp:     stamp,
		Sender:    NodeShoreStation,
		Secondary: SecondaryControl,
		Receiver:  code,
		Source:    SourceShore,
		Param:     ParamSpeedHeading,
	})
	binary.BigEndian.PutUint16(buf[16:18], EncodeTenth(speed))
	binary.BigEndian.PutUint16(buf[18:20], EncodeTenth(heading))
	// offsets 20..25: command generation time and serial, always zero
	binary.BigEndian.PutUint16(buf[26:28], code)
	return buf
}

// EncodeRoute builds a route command carrying wps in wire order. The count
// byte bounds routes to 2..255 waypoints; anything else is ErrWaypointCount,
// never a clamp.
func (cb *Codebook) EncodeRoute(seq uint8, vessel int, wps []Waypoint, stamp uint32) ([]byte, error) {
	if len(wps) < 2 || len(wps) > 255 {
		return nil, fmt.Errorf("%w: %d", ErrWaypointCount, len(wps))
	}
	code := cb.Resolve(vessel)
	size := RouteFixedSize + len(wps)*WaypointSize
	buf := make([]byte, size)
	putHeader(buf, &Header{
		Seq:       seq,
		Unit:      UnitCommand,
		Length:    uint16(size),
		Stamp:     stamp,
		Sender:    NodeShoreStation,
		Secondary: SecondaryControl,
		Receiver:  code,
		Source:    SourceShore,
		Param:     ParamRoute,
	})
	// offsets 16..21: command generation time and serial, always zero
	binary.BigEndian.PutUint16(buf[22:24], code) // executing platform
	// offsets 24..33: reserved block and route number, always zero
	buf[34] = 0 // route mode: sequential
	buf[35] = uint8(len(wps))
	off := routeBlockSize
	for i, wp := range wps {
		buf[off] = uint8(i + 1)
		binary.BigEndian.PutUint32(buf[off+1:off+5], uint32(EncodeGeo(wp.Longitude)))
		binary.BigEndian.PutUint32(buf[off+5:off+9], uint32(EncodeGeo(wp.Latitude)))
		binary.BigEndian.PutUint16(buf[off+9:off+11], EncodeTenth(wp.Speed))
		// 4 reserved bytes per waypoint stay zero
		off += WaypointSize
	}
	// the final two bytes stay zero (frame trailer)
	return buf, nil
}

// ---------------------------------------------------------------------------
// Telemetry encoders: the vessel-side counterparts used by the simulator and
// by decoder tests. Structural header fields are forced to their wire
// constants; Seq, Stamp and Sender come from the caller's Header.
// ---------------------------------------------------------------------------

// EncodeStatus builds the 44-byte platform status report.
func EncodeStatus(st *Status) []byte {
	buf := make([]byte, StatusSize)
	h := st.Header
	h.Unit = UnitTelemetry
	h.Length = StatusSize
	h.Secondary = SecondaryControl
	h.Receiver = NodeShoreStation
	h.Source = SourceVessel
	h.Param = 0
	putHeader(buf, &h)
	binary.BigEndian.PutUint32(buf[16:20], uint32(EncodeGeo(st.Longitude)))
	binary.BigEndian.PutUint32(buf[20:24], uint32(EncodeGeo(st.Latitude)))
	binary.BigEndian.PutUint16(buf[24:26], uint16(st.Altitude))
	binary.BigEndian.PutUint16(buf[26:28], EncodeTenth(st.Speed))
	binary.BigEndian.PutUint16(buf[28:30], EncodeAngle15(st.Heading))
	binary.BigEndian.PutUint16(buf[30:32], EncodeAngle15(st.Course))
	binary.BigEndian.PutUint16(buf[32:34], uint16(st.CourseRate))
	buf[34] = st.Mode
	buf[35] = st.Sim
	binary.BigEndian.PutUint16(buf[36:38], EncodeAngle15(st.Gimbal))
	buf[38] = st.Ammo
	buf[39] = st.Fuel
	binary.BigEndian.PutUint16(buf[40:42], EncodeAngle15(st.BodyAngle))
	binary.BigEndian.PutUint16(buf[42:44], uint16(st.Reserved))
	return buf
}

// EncodeContacts builds a surface contact report. The count byte caps a
// batch at 255 contacts.
func EncodeContacts(batch *ContactBatch) ([]byte, error) {
	if len(batch.Contacts) > 255 {
		return nil, fmt.Errorf("protocol: contact batch of %d exceeds 255", len(batch.Contacts))
	}
	size := ContactsHdrSize + len(batch.Contacts)*ContactSize
	buf := make([]byte, size)
	h := batch.Header
	h.Unit = UnitTelemetry
	h.Length = uint16(size)
	h.Secondary = SecondaryContacts
	h.Receiver = NodeShoreStation
	h.Source = SourceVessel
	h.Param = 0
	putHeader(buf, &h)
	buf[16] = uint8(len(batch.Contacts))
	for i, c := range batch.Contacts {
		r := buf[ContactsHdrSize+i*ContactSize:]
		binary.BigEndian.PutUint16(r[0:2], c.ID)
		binary.BigEndian.PutUint32(r[2:6], uint32(EncodeGeo(c.Longitude)))
		binary.BigEndian.PutUint32(r[6:10], uint32(EncodeGeo(c.Latitude)))
		binary.BigEndian.PutUint32(r[10:14], uint32(int64(math.Round(c.Bearing*angle15Scale))))
		binary.BigEndian.PutUint16(r[14:16], c.Range)
		binary.BigEndian.PutUint16(r[16:18], EncodeTenth(c.Speed))
		binary.BigEndian.PutUint16(r[18:20], EncodeTenth(c.Heading))
		binary.BigEndian.PutUint16(r[20:22], c.Type)
		binary.BigEndian.PutUint32(r[22:26], c.Feature)
	}
	return buf, nil
}
