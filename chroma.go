//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import "github.com/obinnaokechukwu/dav1dgo/dav1d"

// chromaTable maps the engine's (pixel layout, bit depth) pair to the host
// pixel format. First match wins.
var chromaTable = []struct {
	format   PixelFormat
	layout   dav1d.PixelLayout
	bitDepth int
}{
	{PixelFormatGrey8, dav1d.PixelLayoutI400, 8},
	{PixelFormatI420, dav1d.PixelLayoutI420, 8},
	{PixelFormatI422, dav1d.PixelLayoutI422, 8},
	{PixelFormatI444, dav1d.PixelLayoutI444, 8},
	{PixelFormatI420_10LE, dav1d.PixelLayoutI420, 10},
	{PixelFormatI422_10LE, dav1d.PixelLayoutI422, 10},
	{PixelFormatI444_10LE, dav1d.PixelLayoutI444, 10},
	{PixelFormatI420_12LE, dav1d.PixelLayoutI420, 12},
	{PixelFormatI422_12LE, dav1d.PixelLayoutI422, 12},
	{PixelFormatI444_12LE, dav1d.PixelLayoutI444, 12},
}

// FindPixelFormat returns the host pixel format for an engine layout and bit
// depth, or PixelFormatNone when the combination has no mapping.
func FindPixelFormat(layout dav1d.PixelLayout, bitDepth int) PixelFormat {
	for _, e := range chromaTable {
		if e.layout == layout && e.bitDepth == bitDepth {
			return e.format
		}
	}
	return PixelFormatNone
}
