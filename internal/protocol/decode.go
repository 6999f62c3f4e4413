package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseHeader reads the common 16-byte header without touching the body,
// for demultiplexing before the full decoders run.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(data))
	}
	return parseHeader(data), nil
}

// DecodeStatus parses a platform status report. Checks run in order:
// minimum length, unit type, declared length against the bytes received.
// Decoding is all-or-nothing, no partial record comes back with an error.
func DecodeStatus(data []byte) (*Status, error) {
	if len(data) < StatusSize {
		return nil, fmt.Errorf("%w: status needs %d bytes, got %d", ErrTruncated, StatusSize, len(data))
	}
	if data[1] != UnitTelemetry {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnitType, data[1])
	}
	if declared := binary.BigEndian.Uint16(data[2:4]); int(declared) != len(data) {
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrLength, declared, len(data))
	}
	be := binary.BigEndian
	return &Status{
		Header:     parseHeader(data),
		Longitude:  DecodeGeo(int32(be.Uint32(data[16:20]))),
		Latitude:   DecodeGeo(int32(be.Uint32(data[20:24]))),
		Altitude:   int16(be.Uint16(data[24:26])),
		Speed:      DecodeTenthSigned(be.Uint16(data[26:28])),
		Heading:    DecodeAngle15(be.Uint16(data[28:30])),
		Course:     DecodeAngle15(be.Uint16(data[30:32])),
		CourseRate: int16(be.Uint16(data[32:34])),
		Mode:       data[34],
		Sim:        data[35],
		Gimbal:     DecodeAngle15(be.Uint16(data[36:38])),
		Ammo:       data[38],
		Fuel:       data[39],
		BodyAngle:  DecodeAngle15(be.Uint16(data[40:42])),
		Reserved:   int16(be.Uint16(data[42:44])),
	}, nil
}

// DecodeContacts parses a surface contact report. Checks run in order:
// minimum length, unit type, secondary id, then the length the count byte
// implies. A zero count with a bare header is a valid empty batch.
func DecodeContacts(data []byte) (*ContactBatch, error) {
	if len(data) < ContactsHdrSize {
		return nil, fmt.Errorf("%w: contact batch needs %d bytes, got %d", ErrTruncated, ContactsHdrSize, len(data))
	}
	if data[1] != UnitTelemetry {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnitType, data[1])
	}
	if sec := binary.BigEndian.Uint16(data[10:12]); sec != SecondaryContacts {
		return nil, fmt.Errorf("%w: 0x%04X", ErrSubtype, sec)
	}
	count := int(data[16])
	need := ContactsHdrSize + count*ContactSize
	if len(data) < need {
		return nil, fmt.Errorf("%w: %d contacts need %d bytes, got %d", ErrTruncated, count, need, len(data))
	}
	be := binary.BigEndian
	batch := &ContactBatch{
		Header:   parseHeader(data),
		Contacts: make([]Contact, count),
	}
	for i := range batch.Contacts {
		r := data[ContactsHdrSize+i*ContactSize:]
		batch.Contacts[i] = Contact{
			ID:        be.Uint16(r[0:2]),
			Longitude: DecodeGeo(int32(be.Uint32(r[2:6]))),
			Latitude:  DecodeGeo(int32(be.Uint32(r[6:10]))),
			Bearing:   float64(be.Uint32(r[10:14])) / angle15Scale,
			Range:     be.Uint16(r[14:16]),
			Speed:     DecodeTenth(be.Uint16(r[16:18])),
			Heading:   DecodeTenth(be.Uint16(r[18:20])),
			Type:      be.Uint16(r[20:22]),
			Feature:   be.Uint32(r[22:26]),
		}
	}
	return batch, nil
}

// DecodeSpeedHeading parses a speed/heading command, the vessel-side
// inverse of Codebook.EncodeSpeedHeading.
func DecodeSpeedHeading(data []byte) (*SpeedHeading, error) {
	if len(data) < SpeedHeadingSize {
		return nil, fmt.Errorf("%w: speed/heading needs %d bytes, got %d", ErrTruncated, SpeedHeadingSize, len(data))
	}
	if data[1] != UnitCommand {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnitType, data[1])
	}
	h := parseHeader(data)
	if int(h.Length) != len(data) {
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrLength, h.Length, len(data))
	}
	return &SpeedHeading{
		Header:   h,
		Speed:    DecodeTenthSigned(binary.BigEndian.Uint16(data[16:18])),
		Heading:  DecodeTenth(binary.BigEndian.Uint16(data[18:20])),
		Platform: binary.BigEndian.Uint16(data[26:28]),
	}, nil
}

// DecodeRoute parses a route command, the vessel-side inverse of
// Codebook.EncodeRoute.
func DecodeRoute(data []byte) (*Route, error) {
	if len(data) < RouteFixedSize {
		return nil, fmt.Errorf("%w: route needs %d bytes, got %d", ErrTruncated, RouteFixedSize, len(data))
	}
	if data[1] != UnitCommand {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnitType, data[1])
	}
	count := int(data[35])
	if count < 2 {
		return nil, fmt.Errorf("%w: %d", ErrWaypointCount, count)
	}
	need := RouteFixedSize + count*WaypointSize
	if len(data) < need {
		return nil, fmt.Errorf("%w: %d waypoints need %d bytes, got %d", ErrTruncated, count, need, len(data))
	}
	h := parseHeader(data)
	if int(h.Length) != len(data) {
		return nil, fmt.Errorf("%w: declared %d, received %d", ErrLength, h.Length, len(data))
	}
	be := binary.BigEndian
	rt := &Route{
		Header:    h,
		Platform:  be.Uint16(data[22:24]),
		Number:    be.Uint16(data[32:34]),
		Mode:      data[34],
		Waypoints: make([]Waypoint, count),
	}
	for i := range rt.Waypoints {
		r := data[routeBlockSize+i*WaypointSize:]
		rt.Waypoints[i] = Waypoint{
			Index:     r[0],
			Longitude: DecodeGeo(int32(be.Uint32(r[1:5]))),
			Latitude:  DecodeGeo(int32(be.Uint32(r[5:9]))),
			Speed:     DecodeTenthSigned(be.Uint16(r[9:11])),
		}
	}
	return rt, nil
}
