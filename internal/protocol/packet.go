// Package protocol implements the information-unit codec for the
// shore-to-vessel link: fixed big-endian layouts, fixed-point scalar
// conversions and the vessel address codebook.
package protocol

import "encoding/binary"

// Unit type identifiers (header offset 1).
const (
	UnitCommand   uint8 = 0x01 // shore-to-vessel command
	UnitTelemetry uint8 = 0x03 // vessel-to-shore report
)

// Secondary unit identifiers (header offset 10).
const (
	SecondaryControl  uint16 = 0x0340 // commands and platform status
	SecondaryContacts uint16 = 0x0E20 // surface contact batches
)

// Parameter-extension tags (header offset 15) selecting the command kind.
const (
	ParamRoute        uint8 = 0x01
	ParamSpeedHeading uint8 = 0x07
)

// Data source tags (header offset 14).
const (
	SourceVessel uint8 = 0x00
	SourceShore  uint8 = 0x01
)

// NodeShoreStation is the shore console's own node code.
const NodeShoreStation uint16 = 0x0701

// Fixed packet and record sizes in bytes.
const (
	HeaderSize       = 16
	SpeedHeadingSize = 28
	WaypointSize     = 15
	RouteFixedSize   = routeBlockSize + 2 // header block plus zero trailer
	StatusSize       = 44
	ContactsHdrSize  = 17
	ContactSize      = 26
)

// routeBlockSize covers the common header plus the route command block up to
// and including the waypoint count byte.
const routeBlockSize = 36

// Header is the 16-byte information-unit header shared by every packet.
type Header struct {
	Seq       uint8  `json:"seq"`       // rolling sequence number, wraps at 256
	Unit      uint8  `json:"unit"`      // UnitCommand or UnitTelemetry
	Length    uint16 `json:"length"`    // declared total packet length
	Stamp     uint32 `json:"stamp"`     // 0.1 ms units since local midnight
	Sender    uint16 `json:"sender"`    // originating node code
	Secondary uint16 `json:"secondary"` // SecondaryControl or SecondaryContacts
	Receiver  uint16 `json:"receiver"`  // destination node code
	Source    uint8  `json:"source"`    // SourceShore or SourceVessel
	Param     uint8  `json:"param"`     // command kind tag, zero on telemetry
}

func putHeader(buf []byte, h *Header) {
	buf[0] = h.Seq
	buf[1] = h.Unit
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint32(buf[4:8], h.Stamp)
	binary.BigEndian.PutUint16(buf[8:10], h.Sender)
	binary.BigEndian.PutUint16(buf[10:12], h.Secondary)
	binary.BigEndian.PutUint16(buf[12:14], h.Receiver)
	buf[14] = h.Source
	buf[15] = h.Param
}

func parseHeader(data []byte) Header {
	return Header{
		Seq:       data[0],
		Unit:      data[1],
		Length:    binary.BigEndian.Uint16(data[2:4]),
		Stamp:     binary.BigEndian.Uint32(data[4:8]),
		Sender:    binary.BigEndian.Uint16(data[8:10]),
		Secondary: binary.BigEndian.Uint16(data[10:12]),
		Receiver:  binary.BigEndian.Uint16(data[12:14]),
		Source:    data[14],
		Param:     data[15],
	}
}

// Status is one decoded platform status report, scaled fields in
// engineering units.
type Status struct {
	Header     Header  `json:"header"`
	Longitude  float64 `json:"longitude"`  // degrees, east positive
	Latitude   float64 `json:"latitude"`   // degrees, north positive
	Altitude   int16   `json:"altitude"`   // metres
	Speed      float64 `json:"speed"`      // knots, negative astern
	Heading    float64 `json:"heading"`    // degrees [0,360)
	Course     float64 `json:"course"`     // degrees [0,360)
	CourseRate int16   `json:"courseRate"` // raw wire units
	Mode       uint8   `json:"mode"`
	Sim        uint8   `json:"sim"` // nonzero when the platform runs simulated
	Gimbal     float64 `json:"gimbal"`
	Ammo       uint8   `json:"ammo"`
	Fuel       uint8   `json:"fuel"` // percent remaining
	BodyAngle  float64 `json:"bodyAngle"`
	Reserved   int16   `json:"reserved"`
}

// Contact is one surfaced track inside a contact batch.
type Contact struct {
	ID        uint16  `json:"id"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Bearing   float64 `json:"bearing"` // degrees from own ship
	Range     uint16  `json:"range"`    // metres
	Speed     float64 `json:"speed"`   // knots
	Heading   float64 `json:"heading"` // degrees
	Type      uint16  `json:"type"`
	Feature   uint32  `json:"feature"`
}

// ContactBatch is one decoded surface contact report. Contacts keep their
// wire order; an empty batch is valid.
type ContactBatch struct {
	Header   Header    `json:"header"`
	Contacts []Contact `json:"contacts"`
}

// SpeedHeading is the vessel-side view of a decoded speed/heading command.
type SpeedHeading struct {
	Header   Header
	Speed    float64 // knots, negative astern
	Heading  float64 // degrees
	Platform uint16  // executing platform node code
}

// Waypoint is one route leg. Index is assigned by the encoder (1-based) and
// recovered verbatim on decode.
type Waypoint struct {
	Index     uint8
	Longitude float64
	Latitude  float64
	Speed     float64 // knots over this leg
}

// Route is the vessel-side view of a decoded route command.
type Route struct {
	Header    Header
	Platform  uint16 // executing platform node code
	Number    uint16
	Mode      uint8 // zero: execute waypoints sequentially
	Waypoints []Waypoint
}
