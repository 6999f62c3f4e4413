package protocol

import (
	"math"
	"time"
)

// Fixed-point scale factors. Geographic degrees ride in 32 bits spanning
// ±180°, plane angles in 16 bits spanning 0–360°.
const (
	geoScale     = float64(1<<31) / 180.0
	angle15Scale = float64(1<<15) / 180.0
)

// EncodeGeo converts decimal degrees to the signed 32-bit wire value.
// Out-of-range input wraps through two's complement rather than erroring.
func EncodeGeo(deg float64) int32 {
	return int32(int64(math.Round(deg * geoScale)))
}

// DecodeGeo converts the signed 32-bit wire value back to decimal degrees.
func DecodeGeo(raw int32) float64 {
	return float64(raw) / geoScale
}

// EncodeAngle15 converts degrees in [0,360) to the unsigned 2^15-scaled
// wire value. Out-of-range input wraps at the 16-bit boundary.
func EncodeAngle15(deg float64) uint16 {
	return uint16(int64(math.Round(deg * angle15Scale)))
}

// DecodeAngle15 converts the unsigned 2^15-scaled wire value to degrees.
func DecodeAngle15(raw uint16) float64 {
	return float64(raw) / angle15Scale
}

// EncodeTenth scales an engineering value to 0.1-unit fixed point,
// truncating toward zero and wrapping at the 16-bit boundary. Signed fields
// store the result bit pattern unchanged.
func EncodeTenth(v float64) uint16 {
	return uint16(int64(v * 10))
}

// DecodeTenth converts an unsigned 0.1-unit wire value to engineering units.
func DecodeTenth(raw uint16) float64 {
	return float64(raw) / 10
}

// DecodeTenthSigned reinterprets the 16 wire bits as signed before scaling,
// for fields that carry negative values such as astern speeds.
func DecodeTenthSigned(raw uint16) float64 {
	return float64(int16(raw)) / 10
}

// DayStamp returns the link timestamp for t: 0.1 ms units elapsed since
// the most recent day boundary of epoch time, truncated toward zero. The
// value rolls over daily and never reaches 864 000 000, even when the
// local calendar day runs long across a DST shift.
func DayStamp(t time.Time) uint32 {
	secs := t.Unix() % 86400
	return uint32(secs*10000 + int64(t.Nanosecond())/100000)
}
