package protocol

import "errors"

// Sentinel decode/encode failures. Wrapped errors add the offending values;
// match the kind with errors.Is.
var (
	// ErrWaypointCount reports a route whose waypoint count falls outside
	// the 2..255 the wire format can carry.
	ErrWaypointCount = errors.New("protocol: waypoint count out of range")

	// ErrTruncated reports a buffer shorter than its packet kind requires.
	ErrTruncated = errors.New("protocol: truncated packet")

	// ErrUnitType reports a unit-type byte the applied decoder does not
	// handle.
	ErrUnitType = errors.New("protocol: unexpected unit type")

	// ErrSubtype reports a secondary unit id the applied decoder does not
	// handle.
	ErrSubtype = errors.New("protocol: unexpected secondary unit")

	// ErrLength reports a declared packet length that disagrees with the
	// bytes actually received.
	ErrLength = errors.New("protocol: declared length mismatch")
)
