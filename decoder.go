//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// maxAutoTileThreads caps the tile thread count derived from the CPU count.
const maxAutoTileThreads = 4

// Decoder is one AV1 decode session bound to a host pipeline.
type Decoder struct {
	mu sync.Mutex

	host   Host
	engine Engine
	fifo   *TimestampFIFO

	fmtIn  VideoFormat
	fmtOut VideoFormat

	tileThreads   int
	frameThreads  int
	extraPictures int

	log    logrus.FieldLogger
	closed bool
}

// DecoderOptions configures decoder behavior.
type DecoderOptions struct {
	// TileThreads and FrameThreads are the engine thread counts.
	// 0 means auto: tile threads become the CPU count clamped to [1,4],
	// frame threads the CPU count with a minimum of 1.
	TileThreads  int
	FrameThreads int

	// Logger receives decoder diagnostics. Defaults to the logrus standard
	// logger.
	Logger logrus.FieldLogger

	// Engine overrides the decode engine factory. Defaults to dav1d.
	Engine EngineFactory

	// CPUCount overrides CPU detection for thread derivation.
	CPUCount func() int
}

// DecoderOption is a functional option for configuring a decoder.
type DecoderOption func(*DecoderOptions)

// WithTileThreads sets the tile decoding thread count (0 = auto).
func WithTileThreads(n int) DecoderOption {
	return func(o *DecoderOptions) {
		o.TileThreads = n
	}
}

// WithFrameThreads sets the frame decoding thread count (0 = auto).
func WithFrameThreads(n int) DecoderOption {
	return func(o *DecoderOptions) {
		o.FrameThreads = n
	}
}

// WithLogger directs decoder diagnostics to log.
func WithLogger(log logrus.FieldLogger) DecoderOption {
	return func(o *DecoderOptions) {
		o.Logger = log
	}
}

// WithEngine substitutes the decode engine factory. Used by tests.
func WithEngine(factory EngineFactory) DecoderOption {
	return func(o *DecoderOptions) {
		o.Engine = factory
	}
}

// WithCPUCount overrides CPU detection for thread-count derivation.
func WithCPUCount(count func() int) DecoderOption {
	return func(o *DecoderOptions) {
		o.CPUCount = count
	}
}

// Open creates a decode session for the stream described by fmtIn,
// delivering output through host. It fails with ErrUnsupportedCodec when the
// stream is not AV1, letting the host fall back to another decoder.
func Open(host Host, fmtIn *VideoFormat, options ...DecoderOption) (*Decoder, error) {
	opts := &DecoderOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if host == nil {
		return nil, errors.New("dav1dgo: nil host")
	}
	if fmtIn == nil || fmtIn.Codec != CodecAV1 {
		return nil, ErrUnsupportedCodec
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	cpuCount := opts.CPUCount
	if cpuCount == nil {
		cpuCount = runtime.NumCPU
	}
	factory := opts.Engine
	if factory == nil {
		factory = defaultEngineFactory
	}

	d := &Decoder{
		host:  host,
		fmtIn: *fmtIn,
		log:   log,
	}

	d.tileThreads = opts.TileThreads
	if d.tileThreads == 0 {
		d.tileThreads = clip(cpuCount(), 1, maxAutoTileThreads)
	}
	d.frameThreads = opts.FrameThreads
	if d.frameThreads == 0 {
		d.frameThreads = max(1, cpuCount())
	}
	d.extraPictures = d.frameThreads - 1

	d.fifo = NewTimestampFIFO(timestampFIFOSize)

	d.fmtOut.Width = fmtIn.Width
	d.fmtOut.Height = fmtIn.Height
	d.fmtOut.PixelFormat = PixelFormatI420
	if fmtIn.SAR.Num > 0 && fmtIn.SAR.Den > 0 {
		d.fmtOut.SAR = fmtIn.SAR
	}
	if fmtIn.Primaries != ColorPrimariesUndefined {
		d.fmtOut.Primaries = fmtIn.Primaries
		d.fmtOut.Transfer = fmtIn.Transfer
		d.fmtOut.Matrix = fmtIn.Matrix
		d.fmtOut.FullRange = fmtIn.FullRange
	}

	if len(fmtIn.Extradata) > 0 {
		if err := d.probeExtradata(fmtIn.Extradata); err != nil {
			d.log.WithError(err).Debug("ignoring unparsable extradata")
		}
	}

	engine, err := factory(&EngineConfig{
		TileThreads:  d.tileThreads,
		FrameThreads: d.frameThreads,
		Allocator:    &poolAllocator{d: d},
	})
	if err != nil {
		return nil, fmt.Errorf("dav1dgo: opening engine: %w", err)
	}
	d.engine = engine

	d.log.WithFields(logrus.Fields{
		"frame_threads": d.frameThreads,
		"tile_threads":  d.tileThreads,
	}).Debug("decoder opened")

	return d, nil
}

// TileThreads returns the resolved tile thread count.
func (d *Decoder) TileThreads() int {
	return d.tileThreads
}

// FrameThreads returns the resolved frame thread count.
func (d *Decoder) FrameThreads() int {
	return d.frameThreads
}

// ExtraPictureBuffers returns the number of extra pool buffers the host
// should reserve to avoid starvation under frame-parallel decoding.
func (d *Decoder) ExtraPictureBuffers() int {
	return d.extraPictures
}

// OutputFormat returns the current negotiated output format.
func (d *Decoder) OutputFormat() VideoFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fmtOut
}

// Decode submits one access unit, or drains the engine when au is nil.
// Decoded pictures are delivered to the host's queue; one call may produce
// zero, one or several pictures depending on the engine's internal delay.
// Corrupted units are dropped and reported as success.
func (d *Decoder) Decode(au *AccessUnit) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		au.Release()
		return ErrClosed
	}

	if au != nil && au.Corrupted {
		au.Release()
		return nil
	}

	var data *EngineData
	ts := NoPTS
	if au != nil {
		data = NewEngineData(au.Data, au.Release)
		ts = au.Timestamp()
	}
	d.fifo.Put(ts)

	return d.decodeLoop(data)
}

// decodeLoop alternates feeding the remaining input and collecting pictures
// until the engine reports no picture ready and the input is fully consumed.
func (d *Decoder) decodeLoop(data *EngineData) error {
	for {
		stalled := true

		if data != nil && data.Remaining() > 0 {
			before := data.Remaining()
			err := d.engine.SendData(data)
			if err != nil && !errors.Is(err, ErrMoreData) {
				d.log.WithError(err).Error("engine feed error")
				data.Close()
				return fmt.Errorf("%w: %v", ErrDecode, err)
			}
			if data.Remaining() < before {
				stalled = false
			}
		}

		more := false
		pic, err := d.engine.NextPicture()
		switch {
		case err == nil:
			if err := d.emit(pic); err != nil {
				if data != nil {
					data.Close()
				}
				return err
			}
			more = true
			stalled = false
		case errors.Is(err, ErrMoreData):
			// no picture ready, not an error
		default:
			d.log.WithError(err).Error("engine decode error")
			if data != nil {
				data.Close()
			}
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}

		pending := data != nil && data.Remaining() > 0
		if !more && !pending {
			return nil
		}
		if pending && stalled && !more {
			// The engine accepted nothing and produced nothing; abandon
			// the unit instead of spinning.
			d.log.Error("engine made no progress on pending input")
			data.Close()
			return ErrDecode
		}
	}
}

// emit clones the host buffer behind an engine picture, stamps it and queues
// it, then drops the engine's reference.
func (d *Decoder) emit(pic *EnginePicture) error {
	orig, ok := pic.Opaque.(*OutputPicture)
	if !ok {
		d.engine.Unref(pic)
		return fmt.Errorf("%w: picture without host buffer", ErrDecode)
	}

	out := orig.Clone()
	out.Progressive = true // AV1 has no coded interlacing
	out.PTS = d.fifo.Get()
	d.host.QueueVideo(out)

	d.engine.Unref(pic)
	return nil
}

// Flush discards all buffered engine state and pending timestamps, keeping
// the two in lock-step. Called by the host on seek or discontinuity.
func (d *Decoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.flushLocked()
}

func (d *Decoder) flushLocked() {
	d.engine.Flush()
	d.fifo.Flush()
}

// Close flushes and tears down the session. The decoder must not be used
// afterwards. Safe to call multiple times.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.flushLocked()
	d.fifo = nil
	d.engine.Close()
	d.closed = true
}

func clip(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
