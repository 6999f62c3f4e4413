package station

import "sync/atomic"

// Seq is the session's rolling 8-bit sequence counter. The interactive
// command loop and any periodic sender share it, so all operations are
// atomic.
type Seq struct {
	val atomic.Uint32
}

// NewSeq creates a generator whose first Next returns 1.
func NewSeq() *Seq {
	return &Seq{}
}

// Next returns the next sequence number, wrapping at 256.
func (s *Seq) Next() uint8 {
	return uint8(s.val.Add(1))
}
