//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

// CodecID identifies a compressed video codec as a little-endian fourcc.
type CodecID uint32

// Codec identifiers
const (
	CodecNone CodecID = 0
	CodecAV1  CodecID = 'a' | 'v'<<8 | '0'<<16 | '1'<<24
	CodecVP9  CodecID = 'v' | 'p'<<8 | '9'<<16 | '0'<<24
	CodecH264 CodecID = 'h' | '2'<<8 | '6'<<16 | '4'<<24
)

// PixelFormat identifies an uncompressed video pixel format on the host
// side of the pipeline.
type PixelFormat int32

// Pixel formats producible by the AV1 engine. The zero value is the
// "no format" sentinel.
const (
	PixelFormatNone PixelFormat = iota
	PixelFormatGrey8
	PixelFormatI420
	PixelFormatI422
	PixelFormatI444
	PixelFormatI420_10LE
	PixelFormatI422_10LE
	PixelFormatI444_10LE
	PixelFormatI420_12LE
	PixelFormatI422_12LE
	PixelFormatI444_12LE
)

// PlaneCount returns the number of planes for the format.
func (f PixelFormat) PlaneCount() int {
	switch f {
	case PixelFormatNone:
		return 0
	case PixelFormatGrey8:
		return 1
	default:
		return 3
	}
}

// BytesPerSample returns the storage size of one sample in bytes.
func (f PixelFormat) BytesPerSample() int {
	switch f {
	case PixelFormatI420_10LE, PixelFormatI422_10LE, PixelFormatI444_10LE,
		PixelFormatI420_12LE, PixelFormatI422_12LE, PixelFormatI444_12LE:
		return 2
	case PixelFormatNone:
		return 0
	default:
		return 1
	}
}

// Rational represents a rational number (fraction).
type Rational struct {
	Num int32
	Den int32
}

// NewRational creates a new rational number.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// ColorPrimaries identifies the color primaries of the mastering display.
type ColorPrimaries uint8

const (
	ColorPrimariesUndefined ColorPrimaries = iota
	ColorPrimariesBT601_525
	ColorPrimariesBT601_625
	ColorPrimariesBT709
	ColorPrimariesBT2020
	ColorPrimariesDCIP3
)

// ColorTransfer identifies the opto-electronic transfer characteristic.
type ColorTransfer uint8

const (
	ColorTransferUndefined ColorTransfer = iota
	ColorTransferBT709
	ColorTransferGamma22
	ColorTransferGamma28
	ColorTransferLinear
	ColorTransferSRGB
	ColorTransferPQ
	ColorTransferHLG
)

// ColorMatrix identifies the YCbCr conversion matrix.
type ColorMatrix uint8

const (
	ColorMatrixUndefined ColorMatrix = iota
	ColorMatrixBT601
	ColorMatrixBT709
	ColorMatrixBT2020
)

// ISO/IEC 23001-8 code points, as signaled in AV1 sequence headers.
var isoPrimaries = []struct {
	code uint8
	v    ColorPrimaries
}{
	{1, ColorPrimariesBT709},
	{5, ColorPrimariesBT601_625},
	{6, ColorPrimariesBT601_525},
	{7, ColorPrimariesBT601_525},
	{9, ColorPrimariesBT2020},
	{11, ColorPrimariesDCIP3},
	{12, ColorPrimariesDCIP3},
}

var isoTransfers = []struct {
	code uint8
	v    ColorTransfer
}{
	{1, ColorTransferBT709},
	{4, ColorTransferGamma22},
	{5, ColorTransferGamma28},
	{6, ColorTransferBT709},
	{8, ColorTransferLinear},
	{13, ColorTransferSRGB},
	{14, ColorTransferBT709},
	{15, ColorTransferBT709},
	{16, ColorTransferPQ},
	{18, ColorTransferHLG},
}

var isoMatrices = []struct {
	code uint8
	v    ColorMatrix
}{
	{1, ColorMatrixBT709},
	{5, ColorMatrixBT601},
	{6, ColorMatrixBT601},
	{9, ColorMatrixBT2020},
	{10, ColorMatrixBT2020},
}

// PrimariesFromCode maps an ISO/IEC 23001-8 color primaries code to the host
// enum. Unknown codes map to ColorPrimariesUndefined.
func PrimariesFromCode(code uint8) ColorPrimaries {
	for _, e := range isoPrimaries {
		if e.code == code {
			return e.v
		}
	}
	return ColorPrimariesUndefined
}

// TransferFromCode maps an ISO/IEC 23001-8 transfer characteristics code to
// the host enum. Unknown codes map to ColorTransferUndefined.
func TransferFromCode(code uint8) ColorTransfer {
	for _, e := range isoTransfers {
		if e.code == code {
			return e.v
		}
	}
	return ColorTransferUndefined
}

// MatrixFromCode maps an ISO/IEC 23001-8 matrix coefficients code to the
// host enum. Unknown codes map to ColorMatrixUndefined.
func MatrixFromCode(code uint8) ColorMatrix {
	for _, e := range isoMatrices {
		if e.code == code {
			return e.v
		}
	}
	return ColorMatrixUndefined
}

// VideoFormat describes a video elementary stream, compressed on the input
// side of a decoder and raw on the output side.
type VideoFormat struct {
	Codec       CodecID
	PixelFormat PixelFormat

	// Width and Height are the coded (allocated) dimensions. VisibleWidth
	// and VisibleHeight give the displayed region, which never exceeds the
	// coded dimensions.
	Width         int
	Height        int
	VisibleWidth  int
	VisibleHeight int

	// SAR is the sample aspect ratio. A zero value means unknown.
	SAR Rational

	Primaries ColorPrimaries
	Transfer  ColorTransfer
	Matrix    ColorMatrix
	FullRange bool

	// Extradata carries codec initialization data from the container, for
	// AV1 the av1C configuration record.
	Extradata []byte
}
