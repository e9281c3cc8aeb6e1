//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"fmt"

	"github.com/Eyevinn/mp4ff/av1"

	"github.com/obinnaokechukwu/dav1dgo/dav1d"
)

// probeExtradata seeds the output pixel format from the container's av1C
// configuration record, so hosts that negotiate formats eagerly get the
// right one before the first frame decodes.
func (d *Decoder) probeExtradata(extradata []byte) error {
	rec, err := av1.DecodeAV1CodecConfRec(extradata)
	if err != nil {
		return fmt.Errorf("parsing av1C record: %w", err)
	}

	bitDepth := 8
	if rec.HighBitdepth == 1 {
		bitDepth = 10
		if rec.TwelveBit == 1 {
			bitDepth = 12
		}
	}

	var layout dav1d.PixelLayout
	switch {
	case rec.MonoChrome == 1:
		layout = dav1d.PixelLayoutI400
	case rec.ChromaSubsamplingX == 1 && rec.ChromaSubsamplingY == 1:
		layout = dav1d.PixelLayoutI420
	case rec.ChromaSubsamplingX == 1:
		layout = dav1d.PixelLayoutI422
	default:
		layout = dav1d.PixelLayoutI444
	}

	if format := FindPixelFormat(layout, bitDepth); format != PixelFormatNone {
		d.fmtOut.PixelFormat = format
	}
	return nil
}
