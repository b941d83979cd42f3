// Package core defines sentinel errors.
package core

import (
	"errors"
	"fmt"
)

var (
	// Packet decoding errors. They only explain why a frame was skipped.
	ErrPacketTooShort   = errors.New("pktinfo: packet too short")
	ErrNotIPv4          = errors.New("pktinfo: not an ipv4 frame")
	ErrNotTCP           = errors.New("pktinfo: not a tcp segment")
	ErrUnsupportedProto = errors.New("pktinfo: unsupported protocol")

	// Record errors
	ErrInvalidAddress = errors.New("pktinfo: invalid ipv4 address")

	// Run errors
	ErrCapture          = errors.New("pktinfo: capture error")
	ErrFilterInvocation = errors.New("pktinfo: filter invocation error")

	// Configuration errors
	ErrConfigInvalid = errors.New("pktinfo: invalid configuration")
)

// CaptureError reports that a capture file could not be opened or its
// container header could not be parsed. It aborts the whole run.
type CaptureError struct {
	Op   string // "open" or "parse"
	Path string
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("%s capture %q: %v", e.Op, e.Path, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCapture) true for every CaptureError.
func (e *CaptureError) Is(target error) bool {
	return target == ErrCapture
}

// FilterInvocationError reports that an external predicate failed while
// judging a record. It aborts the whole run.
type FilterInvocationError struct {
	SrcPort uint16
	DstPort uint16
	Err     error
}

func (e *FilterInvocationError) Error() string {
	return fmt.Sprintf("predicate failed for ports (%d, %d): %v", e.SrcPort, e.DstPort, e.Err)
}

func (e *FilterInvocationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFilterInvocation) true for every FilterInvocationError.
func (e *FilterInvocationError) Is(target error) bool {
	return target == ErrFilterInvocation
}
