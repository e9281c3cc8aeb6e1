//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFIFOOrdering(t *testing.T) {
	f := NewTimestampFIFO(8)

	for ts := int64(100); ts < 105; ts++ {
		f.Put(ts)
	}
	require.Equal(t, 5, f.Len())

	for ts := int64(100); ts < 105; ts++ {
		assert.Equal(t, ts, f.Get())
	}
	assert.Equal(t, 0, f.Len())
}

func TestTimestampFIFOEmptyGet(t *testing.T) {
	f := NewTimestampFIFO(4)
	assert.Equal(t, NoPTS, f.Get())

	f.Put(42)
	assert.Equal(t, int64(42), f.Get())
	assert.Equal(t, NoPTS, f.Get())
}

func TestTimestampFIFOOverwriteWhenFull(t *testing.T) {
	f := NewTimestampFIFO(3)
	for ts := int64(1); ts <= 5; ts++ {
		f.Put(ts)
	}

	// Oldest entries were overwritten; the three newest remain in order.
	require.Equal(t, 3, f.Len())
	assert.Equal(t, int64(3), f.Get())
	assert.Equal(t, int64(4), f.Get())
	assert.Equal(t, int64(5), f.Get())
}

func TestTimestampFIFOFlush(t *testing.T) {
	f := NewTimestampFIFO(8)
	f.Put(1)
	f.Put(2)
	f.Flush()

	assert.Equal(t, 0, f.Len())
	assert.Equal(t, NoPTS, f.Get())

	// Entries after a flush pair independently of pre-flush ones.
	f.Put(7)
	assert.Equal(t, int64(7), f.Get())
}

func TestTimestampFIFOWraparound(t *testing.T) {
	f := NewTimestampFIFO(4)

	for round := int64(0); round < 3; round++ {
		base := round * 10
		f.Put(base)
		f.Put(base + 1)
		assert.Equal(t, base, f.Get())
		assert.Equal(t, base+1, f.Get())
	}
}

func TestTimestampFIFODefaultCapacity(t *testing.T) {
	f := NewTimestampFIFO(0)
	assert.Equal(t, timestampFIFOSize, f.Cap())
}
