//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

// Host is the playback pipeline the decoder plugs into. It owns the output
// picture pool and receives decoded pictures.
//
// The decoder calls Host methods from the goroutine that called Decode,
// Flush or Close, and additionally from engine worker threads for
// NewPicture: dav1d allocates destination buffers from its frame threads, so
// implementations must be safe for concurrent use.
type Host interface {
	// UpdateVideoFormat commits the decoder's output format. It is called
	// before any picture is requested with the corresponding format, and
	// again whenever the format changes mid-stream. A non-nil error aborts
	// the in-flight picture allocation.
	UpdateVideoFormat(fmt *VideoFormat) error

	// NewPicture allocates a picture buffer matching fmt from the host's
	// pool. The buffer must have fmt.Width x fmt.Height allocated pixels
	// and equal pitches for both chroma planes.
	NewPicture(fmt *VideoFormat) (*OutputPicture, error)

	// QueueVideo delivers a decoded picture for display. Ownership of the
	// handle transfers to the host.
	QueueVideo(pic *OutputPicture)
}
