// Package transport moves encoded packets over the link: a single-writer
// unicast sender for the command downlink and a dual-group multicast
// receiver for the telemetry uplink.
package transport

import "time"

// Tuning constants.
const (
	SendBufferSize = 64                     // outgoing datagram channel capacity
	ReadTimeout    = 100 * time.Millisecond // poll deadline so ctx stays responsive
	MaxDatagram    = 4096                   // largest expected information unit
	CloseWait      = 3 * time.Second        // bounded wait for loop exit on Close
)
