//go:build !ios && !android && (amd64 || arm64)

package dav1d

import (
	"errors"
	"fmt"
	"syscall"
)

// Error codes returned by libdav1d. dav1d reports failures as negated errno
// values, so the exact numbers are platform-dependent.
const (
	CodeAgain int32 = -int32(syscall.EAGAIN) // more input needed / no picture ready
	CodeInval int32 = -int32(syscall.EINVAL) // invalid argument
	CodeNoMem int32 = -int32(syscall.ENOMEM) // allocation failure
)

// Error represents a dav1d error.
type Error struct {
	Code int32  // Raw dav1d error code (negated errno)
	Op   string // Operation that failed
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("dav1d %s: code %d", e.Op, e.Code)
}

// NewError creates a dav1d error from a return code.
// Returns nil if code >= 0.
func NewError(code int32, op string) error {
	if code >= 0 {
		return nil
	}
	return &Error{Code: code, Op: op}
}

// IsAgain returns true if the error is dav1d's EAGAIN signal: the decoder
// needs more input, or no picture is ready yet. This is part of normal
// operation, not a failure.
func IsAgain(err error) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == CodeAgain
	}
	return false
}

// Code returns the dav1d error code from an error, or 0 if not a dav1d error.
func Code(err error) int32 {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return 0
}
