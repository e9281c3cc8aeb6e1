//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"fmt"
	"sync"
)

// alignDimension pads a frame dimension to the next multiple of 128, the
// engine's worst-case superblock alignment for destination buffers.
func alignDimension(n int) int {
	return (n + 0x7F) &^ 0x7F
}

// poolAllocator bridges the engine's picture allocation to the host's
// picture pool. The engine calls NewPicture from its frame threads, so the
// output format is mutated under a lock.
type poolAllocator struct {
	d  *Decoder
	mu sync.Mutex
}

func (a *poolAllocator) NewPicture(pic *EnginePicture) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.d
	out := &d.fmtOut

	out.VisibleWidth = pic.Width
	out.VisibleHeight = pic.Height
	out.Width = alignDimension(pic.Width)
	out.Height = alignDimension(pic.Height)

	if out.SAR.Num == 0 {
		out.SAR.Num = 1
	}
	if out.SAR.Den == 0 {
		out.SAR.Den = 1
	}

	// Container-level color description wins over in-band signaling.
	if d.fmtIn.Primaries == ColorPrimariesUndefined {
		out.Primaries = PrimariesFromCode(pic.Primaries)
		out.Transfer = TransferFromCode(pic.Transfer)
		out.Matrix = MatrixFromCode(pic.Matrix)
		out.FullRange = pic.FullRange
	}

	format := FindPixelFormat(pic.Layout, pic.BitDepth)
	if format == PixelFormatNone {
		return fmt.Errorf("%w: layout %d, %d bpc", ErrUnsupportedChroma, pic.Layout, pic.BitDepth)
	}
	out.PixelFormat = format

	if err := d.host.UpdateVideoFormat(out); err != nil {
		return fmt.Errorf("dav1dgo: updating output format: %w", err)
	}

	hostPic, err := d.host.NewPicture(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	pic.Planes[0] = hostPic.Planes[0]
	pic.Strides[0] = hostPic.Pitches[0]
	if format.PlaneCount() > 1 {
		if hostPic.Pitches[1] != hostPic.Pitches[2] {
			hostPic.Release()
			return ErrChromaPitchMismatch
		}
		pic.Planes[1] = hostPic.Planes[1]
		pic.Planes[2] = hostPic.Planes[2]
		pic.Strides[1] = hostPic.Pitches[1]
	}
	pic.Opaque = hostPic
	return nil
}

func (a *poolAllocator) ReleasePicture(pic *EnginePicture) {
	hostPic, ok := pic.Opaque.(*OutputPicture)
	if !ok {
		return
	}
	// The released luma pointer must be the one handed out at allocation.
	if len(pic.Planes[0]) > 0 && len(hostPic.Planes[0]) > 0 &&
		&pic.Planes[0][0] != &hostPic.Planes[0][0] {
		a.d.log.Error("released picture does not match its allocation")
		return
	}
	hostPic.Release()
}
