//go:build !ios && !android && (amd64 || arm64)

package dav1dgo

import "math"

// NoPTS marks a missing timestamp.
const NoPTS int64 = math.MinInt64

// AccessUnit is one demuxed compressed frame handed to Decoder.Decode.
type AccessUnit struct {
	// Data is the compressed payload. The decoder borrows it zero-copy; it
	// must not be modified until OnRelease fires.
	Data []byte

	// PTS and DTS are presentation and decode timestamps in the host's
	// clock units, or NoPTS when unknown.
	PTS int64
	DTS int64

	// Corrupted marks a unit the demuxer knows to be damaged. Corrupted
	// units are dropped without touching the engine.
	Corrupted bool

	// OnRelease is called exactly once when the decoder no longer needs
	// Data, whether the unit was decoded, dropped or rejected. Optional.
	OnRelease func()

	released bool
}

// Timestamp returns the timestamp to pair with the decoded picture: PTS when
// present, otherwise DTS.
func (au *AccessUnit) Timestamp() int64 {
	if au.PTS != NoPTS {
		return au.PTS
	}
	return au.DTS
}

// Release fires OnRelease. It is idempotent.
func (au *AccessUnit) Release() {
	if au == nil || au.released {
		return
	}
	au.released = true
	if au.OnRelease != nil {
		au.OnRelease()
	}
}
