//go:build !ios && !android && (amd64 || arm64)

package dav1d

import (
	"unsafe"

	"github.com/obinnaokechukwu/dav1dgo/internal/handles"
)

// PixelLayout is dav1d's chroma subsampling enum (Dav1dPixelLayout).
type PixelLayout int32

const (
	PixelLayoutI400 PixelLayout = 0 // monochrome
	PixelLayoutI420 PixelLayout = 1 // 4:2:0
	PixelLayoutI422 PixelLayout = 2 // 4:2:2
	PixelLayoutI444 PixelLayout = 3 // 4:4:4
)

// Dav1dPicture layout (dav1d 0.9 ABI, 64-bit):
//
//	Dav1dSequenceHeader *seq_hdr   @0
//	Dav1dFrameHeader    *frame_hdr @8
//	void *data[3]                  @16, 24, 32
//	ptrdiff_t stride[2]            @40, 48
//	Dav1dPictureParameters p       @56 (layout @56, w @60, h @64, bpc @68)
//	Dav1dDataProps m               @72 (timestamp @72)
//	...
//	void *allocator_data           @256
const (
	picSize = 264

	picSeqHdrOffset    = 0
	picDataOffset      = 16
	picStrideOffset    = 40
	picLayoutOffset    = 56
	picWidthOffset     = 60
	picHeightOffset    = 64
	picBPCOffset       = 68
	picTimestampOffset = 72
	picAllocDataOffset = 256
)

// Dav1dSequenceHeader field offsets (dav1d 0.9 ABI, 64-bit). Only the color
// description fields are read here.
const (
	seqHdrPriOffset        = 16
	seqHdrTrcOffset        = 20
	seqHdrMtrxOffset       = 24
	seqHdrColorRangeOffset = 33
)

// Picture is a Dav1dPicture. Pictures obtained from Context.GetPicture own a
// reference on the underlying frame and must be released with Unref.
// Pictures handed to Allocator callbacks are views into dav1d-owned memory
// and are only valid for the duration of the callback.
type Picture struct {
	ptr   uintptr        // set for callback views into dav1d-owned memory
	goBuf *[picSize]byte // set for Go-owned descriptors (GetPicture)
}

func newPicture() *Picture {
	return &Picture{goBuf: new([picSize]byte)}
}

func (p *Picture) base() uintptr {
	if p.goBuf != nil {
		return uintptr(unsafe.Pointer(&p.goBuf[0]))
	}
	return p.ptr
}

func (p *Picture) u8(off uintptr) uint8 {
	return *(*uint8)(unsafe.Pointer(p.base() + off))
}

func (p *Picture) i32(off uintptr) int32 {
	return *(*int32)(unsafe.Pointer(p.base() + off))
}

func (p *Picture) i64(off uintptr) int64 {
	return *(*int64)(unsafe.Pointer(p.base() + off))
}

func (p *Picture) word(off uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(p.base() + off))
}

func (p *Picture) setWord(off uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(p.base() + off)) = v
}

// Layout returns the chroma subsampling of the picture.
func (p *Picture) Layout() PixelLayout {
	return PixelLayout(p.i32(picLayoutOffset))
}

// Width returns the frame width in pixels.
func (p *Picture) Width() int {
	return int(p.i32(picWidthOffset))
}

// Height returns the frame height in pixels.
func (p *Picture) Height() int {
	return int(p.i32(picHeightOffset))
}

// BitDepth returns the bits per component (8, 10 or 12).
func (p *Picture) BitDepth() int {
	return int(p.i32(picBPCOffset))
}

// Timestamp returns the timestamp carried through from the input data, or
// the dav1d default of INT64_MIN when none was set.
func (p *Picture) Timestamp() int64 {
	return p.i64(picTimestampOffset)
}

// ColorPrimaries returns the ISO/IEC 23001-8 color primaries code from the
// sequence header, or 2 (unspecified) if no header is attached.
func (p *Picture) ColorPrimaries() uint8 {
	hdr := p.word(picSeqHdrOffset)
	if hdr == 0 {
		return 2
	}
	return *(*uint8)(unsafe.Pointer(hdr + seqHdrPriOffset))
}

// TransferCharacteristics returns the ISO/IEC 23001-8 transfer code from the
// sequence header, or 2 (unspecified) if no header is attached.
func (p *Picture) TransferCharacteristics() uint8 {
	hdr := p.word(picSeqHdrOffset)
	if hdr == 0 {
		return 2
	}
	return *(*uint8)(unsafe.Pointer(hdr + seqHdrTrcOffset))
}

// MatrixCoefficients returns the ISO/IEC 23001-8 matrix code from the
// sequence header, or 2 (unspecified) if no header is attached.
func (p *Picture) MatrixCoefficients() uint8 {
	hdr := p.word(picSeqHdrOffset)
	if hdr == 0 {
		return 2
	}
	return *(*uint8)(unsafe.Pointer(hdr + seqHdrMtrxOffset))
}

// FullRange reports whether the sequence header signals full color range.
func (p *Picture) FullRange() bool {
	hdr := p.word(picSeqHdrOffset)
	if hdr == 0 {
		return false
	}
	return *(*uint8)(unsafe.Pointer(hdr + seqHdrColorRangeOffset)) != 0
}

// pictureHold pins caller-provided plane buffers for the lifetime of a
// dav1d reference to the picture. The handles cookie is stored in the
// picture's allocator_data slot so the release callback can find it.
type pictureHold struct {
	planes  [3][]byte
	strides [2]int
	opaque  any
}

// SetPlanes wires caller-owned plane buffers into the picture. It may only
// be called from Allocator.AllocPicture. strides[0] covers the luma plane,
// strides[1] both chroma planes. opaque travels with the picture and can be
// recovered with Opaque after GetPicture returns it.
func (p *Picture) SetPlanes(planes [3][]byte, strides [2]int, opaque any) {
	hold := &pictureHold{planes: planes, strides: strides, opaque: opaque}
	cookie := handles.Register(hold)

	for i := 0; i < 3; i++ {
		var addr uintptr
		if len(planes[i]) > 0 {
			addr = uintptr(unsafe.Pointer(&planes[i][0]))
		}
		p.setWord(picDataOffset+uintptr(i)*8, addr)
	}
	p.setWord(picStrideOffset, uintptr(strides[0]))
	p.setWord(picStrideOffset+8, uintptr(strides[1]))
	p.setWord(picAllocDataOffset, cookie)
}

func (p *Picture) holdRef() *pictureHold {
	cookie := p.word(picAllocDataOffset)
	if cookie == 0 {
		return nil
	}
	hold, _ := handles.Lookup(cookie).(*pictureHold)
	return hold
}

func (p *Picture) releaseHold() {
	cookie := p.word(picAllocDataOffset)
	if cookie != 0 {
		handles.Unregister(cookie)
	}
}

// Opaque returns the value passed to SetPlanes when the picture buffer was
// allocated, or nil for pictures using dav1d's internal allocator.
func (p *Picture) Opaque() any {
	if hold := p.holdRef(); hold != nil {
		return hold.opaque
	}
	return nil
}

// Plane returns the buffer for plane i. For pictures allocated through a Go
// Allocator this is the exact slice passed to SetPlanes; otherwise it is a
// view over dav1d-owned memory valid until Unref.
func (p *Picture) Plane(i int) []byte {
	if i < 0 || i > 2 {
		return nil
	}
	if hold := p.holdRef(); hold != nil {
		return hold.planes[i]
	}
	addr := p.word(picDataOffset + uintptr(i)*8)
	if addr == 0 {
		return nil
	}
	stride := p.Stride(min(i, 1))
	h := p.Height()
	if i > 0 && p.Layout() == PixelLayoutI420 {
		h = (h + 1) / 2
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), stride*h)
}

// Stride returns the row stride in bytes. Index 0 is the luma plane, index 1
// covers both chroma planes.
func (p *Picture) Stride(i int) int {
	if i < 0 || i > 1 {
		return 0
	}
	return int(p.word(picStrideOffset + uintptr(i)*8))
}

// Unref releases the picture reference. The allocator's ReleasePicture fires
// once the underlying frame is no longer referenced anywhere.
func (p *Picture) Unref() {
	if p == nil || p.goBuf == nil || dav1dPictureUnref == nil {
		return
	}
	dav1dPictureUnref(unsafe.Pointer(&p.goBuf[0]))
}
