//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import "github.com/obinnaokechukwu/dav1dgo/dav1d"

// PictureAllocator supplies host picture buffers to a decode engine. The
// engine fills in the picture geometry before calling NewPicture and calls
// ReleasePicture exactly once per successful allocation.
type PictureAllocator interface {
	NewPicture(pic *EnginePicture) error
	ReleasePicture(pic *EnginePicture)
}

// EngineConfig configures a decode engine instance.
type EngineConfig struct {
	TileThreads  int
	FrameThreads int

	// Allocator, when non-nil, replaces the engine's internal picture
	// allocator so frames decode directly into host buffers.
	Allocator PictureAllocator
}

// EngineFactory creates a decode engine. The default factory opens a
// dav1d-backed engine; tests substitute their own.
type EngineFactory func(cfg *EngineConfig) (Engine, error)

// Engine is the decode core behind a Decoder session. Implementations
// consume compressed data incrementally and produce pictures in display
// order after an internal reorder delay.
type Engine interface {
	// SendData feeds the unconsumed remainder of data to the engine. The
	// engine may consume it partially; data.Remaining reflects what is
	// left. ErrMoreData means the engine is saturated and pictures must be
	// drained before it accepts more input.
	SendData(data *EngineData) error

	// NextPicture returns the next decoded picture in display order.
	// ErrMoreData means no picture is ready yet.
	NextPicture() (*EnginePicture, error)

	// Unref releases a picture returned by NextPicture. The allocator's
	// ReleasePicture fires once the engine drops its last reference.
	Unref(pic *EnginePicture)

	// Flush discards all buffered input and in-flight pictures.
	Flush()

	// Close releases the engine. No other method may be called after.
	Close()
}

// EngineData wraps one compressed access unit during submission. The engine
// consumes it across possibly several SendData calls.
type EngineData struct {
	buf       []byte
	remaining int
	release   func()
	released  bool

	// state holds engine-private submission state, for the dav1d engine
	// the wrapped Dav1dData descriptor.
	state  any
	closer func()
}

// NewEngineData wraps buf for submission. release, if non-nil, is called
// once when the engine no longer reads from buf.
func NewEngineData(buf []byte, release func()) *EngineData {
	return &EngineData{buf: buf, remaining: len(buf), release: release}
}

// Bytes returns the wrapped buffer.
func (d *EngineData) Bytes() []byte {
	return d.buf
}

// Remaining returns the number of bytes the engine has not yet consumed.
func (d *EngineData) Remaining() int {
	return d.remaining
}

// Consume marks n bytes as consumed. Engine implementations that track
// consumption themselves call setRemaining instead.
func (d *EngineData) Consume(n int) {
	if n > d.remaining {
		n = d.remaining
	}
	d.remaining -= n
}

func (d *EngineData) setRemaining(n int) {
	d.remaining = n
}

// ReleaseBuffer fires the release callback. It is idempotent.
func (d *EngineData) ReleaseBuffer() {
	if d == nil || d.released {
		return
	}
	d.released = true
	if d.release != nil {
		d.release()
	}
}

// Close abandons the submission. Engines that hold a reference on the buffer
// release it asynchronously through their own teardown path; otherwise the
// buffer is released immediately.
func (d *EngineData) Close() {
	if d == nil {
		return
	}
	if d.closer != nil {
		d.closer()
		return
	}
	d.ReleaseBuffer()
}

// EnginePicture is a decoded picture as produced by an Engine. For pictures
// decoded into host buffers, Opaque carries the *OutputPicture wired in by
// the allocator bridge.
type EnginePicture struct {
	Layout   dav1d.PixelLayout
	BitDepth int
	Width    int
	Height   int

	// ISO/IEC 23001-8 color description codes from the sequence header.
	Primaries uint8
	Transfer  uint8
	Matrix    uint8
	FullRange bool

	// Planes and Strides are filled by the allocator. Strides[0] is the
	// luma pitch, Strides[1] the shared chroma pitch.
	Planes  [3][]byte
	Strides [2]int

	// Opaque travels from the allocator to the picture consumer.
	Opaque any

	raw any // engine-private handle, for dav1d the *dav1d.Picture
}
