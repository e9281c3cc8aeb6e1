//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"fmt"

	"github.com/obinnaokechukwu/dav1dgo/dav1d"
	"github.com/obinnaokechukwu/dav1dgo/internal/bindings"
)

// defaultEngineFactory opens a libdav1d-backed engine.
func defaultEngineFactory(cfg *EngineConfig) (Engine, error) {
	return newDav1dEngine(cfg)
}

// dav1dEngine adapts a dav1d.Context to the Engine interface.
type dav1dEngine struct {
	ctx *dav1d.Context
}

func newDav1dEngine(cfg *EngineConfig) (Engine, error) {
	if err := bindings.Load(); err != nil {
		return nil, err
	}

	settings := &dav1d.Settings{
		FrameThreads: cfg.FrameThreads,
		TileThreads:  cfg.TileThreads,
	}
	if cfg.Allocator != nil {
		settings.Allocator = &dav1dAllocator{inner: cfg.Allocator}
	}

	ctx, err := dav1d.Open(settings)
	if err != nil {
		return nil, err
	}
	return &dav1dEngine{ctx: ctx}, nil
}

func (e *dav1dEngine) SendData(data *EngineData) error {
	raw, ok := data.state.(*dav1d.Data)
	if !ok {
		var err error
		raw, err = dav1d.WrapData(data.Bytes(), data.ReleaseBuffer)
		if err != nil {
			return err
		}
		data.state = raw
		// dav1d holds a buffer reference now; abandoning the submission
		// must go through unref so the release hook still fires.
		data.closer = raw.Unref
	}

	err := e.ctx.SendData(raw)
	data.setRemaining(raw.Size())
	if dav1d.IsAgain(err) {
		return ErrMoreData
	}
	return err
}

func (e *dav1dEngine) NextPicture() (*EnginePicture, error) {
	pic, err := e.ctx.GetPicture()
	if err != nil {
		if dav1d.IsAgain(err) {
			return nil, ErrMoreData
		}
		return nil, err
	}

	ep, ok := pic.Opaque().(*EnginePicture)
	if !ok {
		// Frame decoded through dav1d's internal allocator; nothing to
		// hand upstream.
		pic.Unref()
		return nil, fmt.Errorf("dav1dgo: picture without allocator state")
	}
	ep.raw = pic
	return ep, nil
}

func (e *dav1dEngine) Unref(pic *EnginePicture) {
	if raw, ok := pic.raw.(*dav1d.Picture); ok {
		raw.Unref()
		pic.raw = nil
	}
}

func (e *dav1dEngine) Flush() {
	e.ctx.Flush()
}

func (e *dav1dEngine) Close() {
	e.ctx.Close()
}

// dav1dAllocator bridges dav1d's allocator callbacks to a PictureAllocator.
// It builds the portable picture descriptor from the raw picture, lets the
// inner allocator attach host planes, and wires them back.
type dav1dAllocator struct {
	inner PictureAllocator
}

func (a *dav1dAllocator) AllocPicture(pic *dav1d.Picture) error {
	ep := &EnginePicture{
		Layout:    pic.Layout(),
		BitDepth:  pic.BitDepth(),
		Width:     pic.Width(),
		Height:    pic.Height(),
		Primaries: pic.ColorPrimaries(),
		Transfer:  pic.TransferCharacteristics(),
		Matrix:    pic.MatrixCoefficients(),
		FullRange: pic.FullRange(),
	}
	if err := a.inner.NewPicture(ep); err != nil {
		return err
	}
	pic.SetPlanes(ep.Planes, ep.Strides, ep)
	return nil
}

func (a *dav1dAllocator) ReleasePicture(pic *dav1d.Picture) {
	if ep, ok := pic.Opaque().(*EnginePicture); ok {
		a.inner.ReleasePicture(ep)
	}
}
