package protocol

// Codebook maps operator-facing vessel indices to link node codes. Entries
// keep their declared order: resolving an unknown index falls back to the
// first entry rather than failing, so a mistyped index still addresses a
// real platform.
type Codebook struct {
	order []int
	codes map[int]uint16
}

// NewCodebook returns an empty Codebook.
func NewCodebook() *Codebook {
	return &Codebook{codes: make(map[int]uint16)}
}

// DefaultCodebook returns the standard five-vessel table, indices 1..5
// bound to node codes 0x5001..0x5005.
func DefaultCodebook() *Codebook {
	cb := NewCodebook()
	for i := 1; i <= 5; i++ {
		cb.Add(i, uint16(0x5000+i))
	}
	return cb
}

// Add appends one vessel entry. The first entry added becomes the fallback;
// re-adding an index overwrites its code without changing the order.
func (cb *Codebook) Add(index int, code uint16) {
	if _, ok := cb.codes[index]; !ok {
		cb.order = append(cb.order, index)
	}
	cb.codes[index] = code
}

// Resolve returns the node code for a vessel index. Unknown indices resolve
// to the first table entry; an empty Codebook resolves everything to zero.
func (cb *Codebook) Resolve(index int) uint16 {
	if code, ok := cb.codes[index]; ok {
		return code
	}
	if len(cb.order) == 0 {
		return 0
	}
	return cb.codes[cb.order[0]]
}

// Indices returns the vessel indices in declared order.
func (cb *Codebook) Indices() []int {
	out := make([]int, len(cb.order))
	copy(out, cb.order)
	return out
}
