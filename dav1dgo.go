//go:build !ios && !android && (amd64 || arm64)

// Package dav1dgo binds the dav1d AV1 decoder to a host playback pipeline.
// It feeds demuxed AV1 access units to libdav1d without CGO (using purego),
// decodes directly into host-allocated picture buffers, and keeps output
// timestamps paired with their pictures across the engine's reorder delay.
//
// For most use cases, open a Decoder against a Host implementation. The
// low-level dav1d package is available for advanced use.
package dav1dgo

import (
	"github.com/obinnaokechukwu/dav1dgo/dav1d"
	"github.com/obinnaokechukwu/dav1dgo/internal/bindings"
)

// Init loads libdav1d. This is called automatically when opening a Decoder,
// but can be called explicitly to check for errors early.
// It is safe to call multiple times.
func Init() error {
	return bindings.Load()
}

// IsLoaded returns true if libdav1d has been successfully loaded.
func IsLoaded() bool {
	return bindings.IsLoaded()
}

// Version returns the dav1d library version string, or "" if the library is
// not loaded.
func Version() string {
	return dav1d.Version()
}

// FindLibrary searches for libdav1d and returns its full path.
// Useful for diagnosing load failures.
func FindLibrary() (string, error) {
	return bindings.FindLibrary()
}
