//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/dav1dgo/dav1d"
)

// mockHost is a Host with a counting picture pool.
type mockHost struct {
	mu        sync.Mutex
	format    VideoFormat
	updates   int
	allocated int
	released  int
	queued    []*OutputPicture

	failUpdate   bool
	failAlloc    bool
	unevenChroma bool
}

func (h *mockHost) UpdateVideoFormat(f *VideoFormat) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failUpdate {
		return errors.New("format rejected")
	}
	h.format = *f
	h.updates++
	return nil
}

func (h *mockHost) NewPicture(f *VideoFormat) (*OutputPicture, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failAlloc {
		return nil, errors.New("pool exhausted")
	}

	lumaPitch := f.Width * f.PixelFormat.BytesPerSample()
	chromaPitch := lumaPitch / 2
	pitches := [3]int{lumaPitch, chromaPitch, chromaPitch}
	if h.unevenChroma {
		pitches[2] += 16
	}
	planes := [3][]byte{
		make([]byte, pitches[0]*f.Height),
		make([]byte, pitches[1]*f.Height/2),
		make([]byte, pitches[2]*f.Height/2),
	}

	h.allocated++
	return NewOutputPicture(*f, planes, pitches, func() {
		h.mu.Lock()
		h.released++
		h.mu.Unlock()
	}), nil
}

func (h *mockHost) QueueVideo(pic *OutputPicture) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queued = append(h.queued, pic)
}

func (h *mockHost) outstanding() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocated - h.released
}

// mockEngine decodes every submitted unit into one fixed-geometry picture.
// gate delays picture availability by that many NextPicture calls, modeling
// the engine's internal reorder depth.
type mockEngine struct {
	cfg    *EngineConfig
	width  int
	height int
	gate   int

	sendErr error

	sends   int
	ready   []*EnginePicture
	flushes int
	closed  bool
}

func (e *mockEngine) factory() EngineFactory {
	return func(cfg *EngineConfig) (Engine, error) {
		e.cfg = cfg
		if e.width == 0 {
			e.width, e.height = 64, 48
		}
		return e, nil
	}
}

func (e *mockEngine) SendData(data *EngineData) error {
	e.sends++
	if e.sendErr != nil {
		return e.sendErr
	}
	data.Consume(data.Remaining())
	data.ReleaseBuffer()

	ep := &EnginePicture{
		Layout:   dav1d.PixelLayoutI420,
		BitDepth: 8,
		Width:    e.width,
		Height:   e.height,
	}
	if err := e.cfg.Allocator.NewPicture(ep); err != nil {
		// allocation failure drops the frame, the input stays consumed
		return nil
	}
	e.ready = append(e.ready, ep)
	return nil
}

func (e *mockEngine) NextPicture() (*EnginePicture, error) {
	if e.gate > 0 {
		e.gate--
		return nil, ErrMoreData
	}
	if len(e.ready) == 0 {
		return nil, ErrMoreData
	}
	ep := e.ready[0]
	e.ready = e.ready[1:]
	return ep, nil
}

func (e *mockEngine) Unref(pic *EnginePicture) {
	e.cfg.Allocator.ReleasePicture(pic)
}

func (e *mockEngine) Flush() {
	e.flushes++
	for _, ep := range e.ready {
		e.cfg.Allocator.ReleasePicture(ep)
	}
	e.ready = nil
	e.gate = 0
}

func (e *mockEngine) Close() {
	e.closed = true
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func openTestDecoder(t *testing.T, h *mockHost, e *mockEngine, extra ...DecoderOption) *Decoder {
	t.Helper()
	opts := append([]DecoderOption{
		WithEngine(e.factory()),
		WithLogger(testLogger()),
		WithCPUCount(func() int { return 4 }),
	}, extra...)
	d, err := Open(h, &VideoFormat{Codec: CodecAV1, Width: 64, Height: 48}, opts...)
	require.NoError(t, err)
	return d
}

func au(pts int64, onRelease func()) *AccessUnit {
	return &AccessUnit{Data: []byte{0x12, 0x00, 0x0A}, PTS: pts, DTS: pts, OnRelease: onRelease}
}

func TestOpenRejectsNonAV1(t *testing.T) {
	e := &mockEngine{}
	_, err := Open(&mockHost{}, &VideoFormat{Codec: CodecVP9}, WithEngine(e.factory()))
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	_, err = Open(&mockHost{}, nil, WithEngine(e.factory()))
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestOpenThreadDerivation(t *testing.T) {
	tests := []struct {
		name      string
		cpus      int
		opts      []DecoderOption
		wantTile  int
		wantFrame int
		wantExtra int
	}{
		{"four cpus auto", 4, nil, 4, 4, 3},
		{"many cpus clamps tiles", 16, nil, 4, 16, 15},
		{"single cpu", 1, nil, 1, 1, 0},
		{"explicit counts", 8, []DecoderOption{WithTileThreads(2), WithFrameThreads(3)}, 2, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEngine{}
			cpus := tt.cpus
			d := openTestDecoder(t, &mockHost{}, e,
				append(tt.opts, WithCPUCount(func() int { return cpus }))...)
			defer d.Close()

			assert.Equal(t, tt.wantTile, d.TileThreads())
			assert.Equal(t, tt.wantFrame, d.FrameThreads())
			assert.Equal(t, tt.wantExtra, d.ExtraPictureBuffers())
			assert.Equal(t, tt.wantTile, e.cfg.TileThreads)
			assert.Equal(t, tt.wantFrame, e.cfg.FrameThreads)
		})
	}
}

func TestDecodePairsTimestampsInOrder(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	stamps := []int64{1000, 2000, 3000, 4000, 5000}
	for _, ts := range stamps {
		require.NoError(t, d.Decode(au(ts, nil)))
	}

	require.Len(t, h.queued, len(stamps))
	for i, pic := range h.queued {
		assert.Equal(t, stamps[i], pic.PTS)
		assert.True(t, pic.Progressive)
	}

	for _, pic := range h.queued {
		pic.Release()
	}
	assert.Equal(t, len(stamps), h.allocated)
	assert.Equal(t, 0, h.outstanding())
}

func TestDecodeDrainDeliversDelayedPicture(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{gate: 1}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	require.NoError(t, d.Decode(au(900, nil)))
	require.Empty(t, h.queued, "picture should still be inside the engine")

	require.NoError(t, d.Decode(nil))
	require.Len(t, h.queued, 1)
	assert.Equal(t, int64(900), h.queued[0].PTS)
	assert.True(t, h.queued[0].Progressive)
}

func TestDecodeFallsBackToDTS(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	unit := &AccessUnit{Data: []byte{0x12}, PTS: NoPTS, DTS: 777}
	require.NoError(t, d.Decode(unit))
	require.Len(t, h.queued, 1)
	assert.Equal(t, int64(777), h.queued[0].PTS)
}

func TestDecodeCorruptedUnitDropped(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	released := false
	unit := au(100, func() { released = true })
	unit.Corrupted = true

	require.NoError(t, d.Decode(unit))
	assert.True(t, released, "corrupted unit must be returned to the host")
	assert.Zero(t, e.sends, "corrupted unit must never reach the engine")
	assert.Empty(t, h.queued)

	// The dropped unit must not have consumed a timestamp slot.
	require.NoError(t, d.Decode(au(200, nil)))
	require.Len(t, h.queued, 1)
	assert.Equal(t, int64(200), h.queued[0].PTS)
}

func TestDecodeReleasesInputBuffer(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	released := false
	require.NoError(t, d.Decode(au(1, func() { released = true })))
	assert.True(t, released)
}

func TestFlushClearsPendingTimestamps(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{gate: 100}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	for _, ts := range []int64{10, 20, 30} {
		require.NoError(t, d.Decode(au(ts, nil)))
	}
	require.Empty(t, h.queued)

	d.Flush()
	assert.Equal(t, 1, e.flushes)
	assert.Equal(t, 0, h.outstanding(), "flushed pictures must return to the pool")

	// Post-flush units pair with their own timestamps, not pre-flush ones.
	require.NoError(t, d.Decode(au(555, nil)))
	require.Len(t, h.queued, 1)
	assert.Equal(t, int64(555), h.queued[0].PTS)
}

func TestDecodeAllocationFailureDropsFrame(t *testing.T) {
	h := &mockHost{failAlloc: true}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	require.NoError(t, d.Decode(au(1, nil)))
	assert.Empty(t, h.queued)

	// The session keeps decoding once the pool recovers.
	h.failAlloc = false
	require.NoError(t, d.Decode(au(2, nil)))
	require.Len(t, h.queued, 1)
}

func TestDecodeChromaPitchMismatchRejected(t *testing.T) {
	h := &mockHost{unevenChroma: true}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	require.NoError(t, d.Decode(au(1, nil)))
	assert.Empty(t, h.queued)
	assert.Equal(t, 1, h.allocated)
	assert.Equal(t, 0, h.outstanding(), "mismatched picture must be released")
}

func TestDecodeFatalEngineError(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{sendErr: errors.New("bitstream error")}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	released := false
	err := d.Decode(au(1, func() { released = true }))
	assert.ErrorIs(t, err, ErrDecode)
	assert.True(t, released, "input buffer must be released on failure")

	// The session survives a per-call failure.
	e.sendErr = nil
	require.NoError(t, d.Decode(au(2, nil)))
}

func TestDecodeStalledEngineAborts(t *testing.T) {
	h := &mockHost{}
	e := &stalledEngine{}
	d, err := Open(h, &VideoFormat{Codec: CodecAV1},
		WithEngine(func(cfg *EngineConfig) (Engine, error) { return e, nil }),
		WithLogger(testLogger()))
	require.NoError(t, err)
	defer d.Close()

	err = d.Decode(au(1, nil))
	assert.ErrorIs(t, err, ErrDecode)
}

// stalledEngine never consumes input and never produces pictures.
type stalledEngine struct{}

func (e *stalledEngine) SendData(*EngineData) error           { return ErrMoreData }
func (e *stalledEngine) NextPicture() (*EnginePicture, error) { return nil, ErrMoreData }
func (e *stalledEngine) Unref(*EnginePicture)                 {}
func (e *stalledEngine) Flush()                               {}
func (e *stalledEngine) Close()                               {}

func TestDecodeAfterClose(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)

	d.Close()
	assert.True(t, e.closed)
	assert.Equal(t, 1, e.flushes, "close must flush first")

	released := false
	err := d.Decode(au(1, func() { released = true }))
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, released)

	// Double close is a no-op.
	d.Close()
}

func TestNoBufferLeaksAcrossSession(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{}
	d := openTestDecoder(t, h, e)

	for ts := int64(0); ts < 20; ts++ {
		require.NoError(t, d.Decode(au(ts*100, nil)))
	}
	d.Close()

	for _, pic := range h.queued {
		pic.Release()
	}
	assert.Equal(t, 20, h.allocated)
	assert.Equal(t, 0, h.outstanding())
}

func TestOutputFormatNegotiation(t *testing.T) {
	h := &mockHost{}
	e := &mockEngine{width: 100, height: 70}
	d := openTestDecoder(t, h, e)
	defer d.Close()

	require.NoError(t, d.Decode(au(1, nil)))
	require.GreaterOrEqual(t, h.updates, 1)

	assert.Equal(t, 100, h.format.VisibleWidth)
	assert.Equal(t, 70, h.format.VisibleHeight)
	assert.Equal(t, 128, h.format.Width)
	assert.Equal(t, 128, h.format.Height)
	assert.Equal(t, PixelFormatI420, h.format.PixelFormat)
	assert.Equal(t, NewRational(1, 1), h.format.SAR)
}
