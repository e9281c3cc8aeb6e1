//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

// timestampFIFOSize covers the engine's worst-case reorder depth with the
// maximum frame thread count.
const timestampFIFOSize = 32

// TimestampFIFO carries input timestamps across the engine's decode delay.
// One timestamp is pushed per submitted access unit and one is popped per
// emitted picture, pairing outputs with inputs by order. It is fixed
// capacity and not safe for concurrent use; the decoder serializes access.
type TimestampFIFO struct {
	ring  []int64
	head  int // next slot to read
	count int
}

// NewTimestampFIFO creates a FIFO holding up to capacity timestamps.
func NewTimestampFIFO(capacity int) *TimestampFIFO {
	if capacity <= 0 {
		capacity = timestampFIFOSize
	}
	return &TimestampFIFO{ring: make([]int64, capacity)}
}

// Put appends a timestamp. When full, the oldest entry is overwritten so
// later pictures pair with newer timestamps rather than stale ones.
func (f *TimestampFIFO) Put(ts int64) {
	tail := (f.head + f.count) % len(f.ring)
	f.ring[tail] = ts
	if f.count == len(f.ring) {
		f.head = (f.head + 1) % len(f.ring)
		return
	}
	f.count++
}

// Get removes and returns the oldest timestamp, or NoPTS when empty.
func (f *TimestampFIFO) Get() int64 {
	if f.count == 0 {
		return NoPTS
	}
	ts := f.ring[f.head]
	f.head = (f.head + 1) % len(f.ring)
	f.count--
	return ts
}

// Flush discards all pending timestamps.
func (f *TimestampFIFO) Flush() {
	f.head = 0
	f.count = 0
}

// Len returns the number of pending timestamps.
func (f *TimestampFIFO) Len() int {
	return f.count
}

// Cap returns the FIFO capacity.
func (f *TimestampFIFO) Cap() int {
	return len(f.ring)
}
