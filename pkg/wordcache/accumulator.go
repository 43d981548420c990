package wordcache

import "fmt"

// accumulatorPrealloc caps the up-front allocation so a huge capacity does
// not allocate memory the draws never use.
const accumulatorPrealloc = 4096

// accumulator collects payloads up to a fixed capacity. Its length never
// exceeds the capacity: an append that would cross it fails and leaves the
// buffer unchanged.
type accumulator struct {
	buf      []byte
	capacity int
}

func newAccumulator(capacity int) *accumulator {
	return &accumulator{
		buf:      make([]byte, 0, min(capacity, accumulatorPrealloc)),
		capacity: capacity,
	}
}

// append copies p onto the end of the buffer. Returns ErrOverflow without
// writing anything if p does not fit.
func (a *accumulator) append(p []byte) error {
	if len(p) > a.capacity-len(a.buf) {
		return fmt.Errorf("%w: %d byte payload, %d of %d bytes used", ErrOverflow, len(p), len(a.buf), a.capacity)
	}

	a.buf = append(a.buf, p...)

	return nil
}

func (a *accumulator) bytes() []byte {
	return a.buf
}
