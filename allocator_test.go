//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obinnaokechukwu/dav1dgo/dav1d"
)

func TestAlignDimension(t *testing.T) {
	assert.Equal(t, 0, alignDimension(0))
	assert.Equal(t, 128, alignDimension(1))
	assert.Equal(t, 128, alignDimension(128))
	assert.Equal(t, 256, alignDimension(129))
	assert.Equal(t, 1920, alignDimension(1920))
	assert.Equal(t, 1152, alignDimension(1080))
}

func newTestAllocator(h *mockHost, fmtIn VideoFormat) *poolAllocator {
	return &poolAllocator{d: &Decoder{
		host:  h,
		fmtIn: fmtIn,
		log:   testLogger(),
	}}
}

func enginePic(w, h int) *EnginePicture {
	return &EnginePicture{
		Layout:   dav1d.PixelLayoutI420,
		BitDepth: 8,
		Width:    w,
		Height:   h,
	}
}

func TestAllocatorPadsDimensions(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(1918, 1078)
	require.NoError(t, a.NewPicture(pic))

	assert.Equal(t, 1918, a.d.fmtOut.VisibleWidth)
	assert.Equal(t, 1078, a.d.fmtOut.VisibleHeight)
	assert.Equal(t, 1920, a.d.fmtOut.Width)
	assert.Equal(t, 1152, a.d.fmtOut.Height)

	a.ReleasePicture(pic)
	assert.Equal(t, 0, h.outstanding())
}

func TestAllocatorDefaultsSAR(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(64, 48)
	require.NoError(t, a.NewPicture(pic))
	assert.Equal(t, NewRational(1, 1), a.d.fmtOut.SAR)
	a.ReleasePicture(pic)
}

func TestAllocatorKeepsUpstreamSAR(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})
	a.d.fmtOut.SAR = NewRational(4, 3)

	pic := enginePic(64, 48)
	require.NoError(t, a.NewPicture(pic))
	assert.Equal(t, NewRational(4, 3), a.d.fmtOut.SAR)
	a.ReleasePicture(pic)
}

func TestAllocatorColorPrecedence(t *testing.T) {
	t.Run("in-band signaling applies when upstream is silent", func(t *testing.T) {
		h := &mockHost{}
		a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

		pic := enginePic(64, 48)
		pic.Primaries = 9 // BT.2020
		pic.Transfer = 16 // PQ
		pic.Matrix = 9
		pic.FullRange = true
		require.NoError(t, a.NewPicture(pic))

		assert.Equal(t, ColorPrimariesBT2020, a.d.fmtOut.Primaries)
		assert.Equal(t, ColorTransferPQ, a.d.fmtOut.Transfer)
		assert.Equal(t, ColorMatrixBT2020, a.d.fmtOut.Matrix)
		assert.True(t, a.d.fmtOut.FullRange)
		a.ReleasePicture(pic)
	})

	t.Run("upstream primaries win over in-band signaling", func(t *testing.T) {
		h := &mockHost{}
		fmtIn := VideoFormat{
			Codec:     CodecAV1,
			Primaries: ColorPrimariesBT709,
			Transfer:  ColorTransferBT709,
			Matrix:    ColorMatrixBT709,
		}
		a := newTestAllocator(h, fmtIn)
		a.d.fmtOut.Primaries = fmtIn.Primaries
		a.d.fmtOut.Transfer = fmtIn.Transfer
		a.d.fmtOut.Matrix = fmtIn.Matrix

		pic := enginePic(64, 48)
		pic.Primaries = 9
		pic.Transfer = 16
		pic.Matrix = 9
		require.NoError(t, a.NewPicture(pic))

		assert.Equal(t, ColorPrimariesBT709, a.d.fmtOut.Primaries)
		assert.Equal(t, ColorTransferBT709, a.d.fmtOut.Transfer)
		assert.Equal(t, ColorMatrixBT709, a.d.fmtOut.Matrix)
		a.ReleasePicture(pic)
	})
}

func TestAllocatorRejectsUnknownChroma(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(64, 48)
	pic.BitDepth = 9
	err := a.NewPicture(pic)
	assert.ErrorIs(t, err, ErrUnsupportedChroma)
	assert.Zero(t, h.allocated, "no buffer may be requested for an unmappable format")
}

func TestAllocatorRejectsFormatUpdateFailure(t *testing.T) {
	h := &mockHost{failUpdate: true}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	err := a.NewPicture(enginePic(64, 48))
	assert.Error(t, err)
	assert.Zero(t, h.allocated)
}

func TestAllocatorChromaStrideInvariant(t *testing.T) {
	h := &mockHost{unevenChroma: true}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	err := a.NewPicture(enginePic(64, 48))
	assert.ErrorIs(t, err, ErrChromaPitchMismatch)
	assert.Equal(t, 1, h.allocated)
	assert.Equal(t, 0, h.outstanding(), "rejected buffer must go back to the pool")
}

func TestAllocatorWiresPlanes(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(64, 48)
	require.NoError(t, a.NewPicture(pic))

	out, ok := pic.Opaque.(*OutputPicture)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		assert.Equal(t, &out.Planes[i][0], &pic.Planes[i][0], "plane %d must alias the host buffer", i)
	}
	assert.Equal(t, out.Pitches[0], pic.Strides[0])
	assert.Equal(t, out.Pitches[1], pic.Strides[1])
	a.ReleasePicture(pic)
}

func TestAllocatorReleaseValidatesPointer(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(64, 48)
	require.NoError(t, a.NewPicture(pic))

	// A release with a foreign luma pointer must not return the buffer.
	tampered := *pic
	tampered.Planes[0] = make([]byte, len(pic.Planes[0]))
	a.ReleasePicture(&tampered)
	assert.Equal(t, 1, h.outstanding())

	a.ReleasePicture(pic)
	assert.Equal(t, 0, h.outstanding())
}

func TestAllocatorMonochrome(t *testing.T) {
	h := &mockHost{}
	a := newTestAllocator(h, VideoFormat{Codec: CodecAV1})

	pic := enginePic(64, 48)
	pic.Layout = dav1d.PixelLayoutI400
	require.NoError(t, a.NewPicture(pic))

	assert.Equal(t, PixelFormatGrey8, a.d.fmtOut.PixelFormat)
	assert.NotEmpty(t, pic.Planes[0])
	assert.Empty(t, pic.Planes[1], "monochrome pictures carry a single plane")
	a.ReleasePicture(pic)
}
