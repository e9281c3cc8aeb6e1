//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import (
	"errors"

	"github.com/obinnaokechukwu/dav1dgo/dav1d"
)

// EngineError is an error from the underlying decode engine.
// It contains the raw dav1d error code and the operation that failed.
type EngineError = dav1d.Error

// Common errors
var (
	// ErrUnsupportedCodec indicates the input format is not AV1.
	ErrUnsupportedCodec = errors.New("dav1dgo: unsupported codec")

	// ErrClosed indicates the decoder session has been closed.
	ErrClosed = errors.New("dav1dgo: decoder is closed")

	// ErrDecode indicates the decode engine reported a fatal error for the
	// current access unit. The session remains usable for subsequent units.
	ErrDecode = errors.New("dav1dgo: decode failed")

	// ErrOutOfMemory indicates picture buffer allocation failed.
	ErrOutOfMemory = errors.New("dav1dgo: out of memory")

	// ErrUnsupportedChroma indicates the engine produced a chroma layout and
	// bit depth combination with no matching output pixel format.
	ErrUnsupportedChroma = errors.New("dav1dgo: unsupported chroma format")

	// ErrChromaPitchMismatch indicates the host returned a picture whose two
	// chroma planes have different pitches. The engine shares one stride for
	// both chroma planes, so such pictures cannot be wired in.
	ErrChromaPitchMismatch = errors.New("dav1dgo: chroma plane pitches differ")

	// ErrMoreData is returned by an Engine when it cannot make progress
	// without more input or without draining pictures. It is part of normal
	// operation, not a failure.
	ErrMoreData = errors.New("dav1dgo: more data required")
)

// NewEngineError creates an EngineError from a dav1d return code.
// Returns nil if code >= 0.
func NewEngineError(code int32, op string) error {
	return dav1d.NewError(code, op)
}

// EngineErrorCode returns the dav1d error code from an error, or 0 if the
// error did not originate in the engine.
func EngineErrorCode(err error) int32 {
	return dav1d.Code(err)
}
