//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import "sync/atomic"

// pictureRef counts outstanding handles on one host picture buffer.
type pictureRef struct {
	refs    atomic.Int32
	release func()
}

// OutputPicture is a decoded picture in a host-owned buffer. The planes of a
// clone are shared with the original; the buffer returns to the host once
// every handle has been released.
type OutputPicture struct {
	// Planes are the pixel planes: luma, then the chroma planes for planar
	// formats. Unused entries are nil.
	Planes [3][]byte

	// Pitches are the row strides in bytes, one per plane.
	Pitches [3]int

	// Format describes the picture. Width/Height are the allocated
	// dimensions; VisibleWidth/VisibleHeight the displayed region.
	Format VideoFormat

	// PTS is the presentation timestamp, or NoPTS.
	PTS int64

	// Progressive is true for non-interlaced content. AV1 has no coded
	// interlacing, so decoded pictures always set it.
	Progressive bool

	shared *pictureRef
}

// NewOutputPicture wraps host plane buffers into a picture handle. release,
// if non-nil, is called once when the last handle is released.
func NewOutputPicture(format VideoFormat, planes [3][]byte, pitches [3]int, release func()) *OutputPicture {
	ref := &pictureRef{release: release}
	ref.refs.Store(1)
	return &OutputPicture{
		Planes:  planes,
		Pitches: pitches,
		Format:  format,
		PTS:     NoPTS,
		shared:  ref,
	}
}

// Clone returns a new handle sharing the same plane buffers. Metadata
// (format, PTS, flags) is copied and can diverge between handles.
func (p *OutputPicture) Clone() *OutputPicture {
	dup := *p
	if p.shared != nil {
		p.shared.refs.Add(1)
	}
	return &dup
}

// Release drops this handle. The underlying buffer is returned to the host
// when the last handle is released. Each handle may be released once.
func (p *OutputPicture) Release() {
	if p == nil || p.shared == nil {
		return
	}
	ref := p.shared
	p.shared = nil
	if ref.refs.Add(-1) == 0 && ref.release != nil {
		ref.release()
	}
}
