package renderer

import (
	"errors"
	"fmt"
)

var (
	ErrNoModule          = errors.New("renderer: no render module attached")
	ErrAlreadyRunning    = errors.New("renderer: loop already running")
	ErrSustainedFailures = errors.New("renderer: too many consecutive frame failures")
	ErrUnsupportedStyle  = errors.New("renderer: module does not support the requested negotiation style")
	ErrZeroDimensions    = errors.New("renderer: frame dimensions must be non-zero")
)

// NegotiationError is returned when a render module rejects the requested
// dimensions or reports dimensions the host cannot accept. It is fatal to
// session establishment.
type NegotiationError struct {
	Style  NegotiationStyle
	Reason string
	Err    error
}

func (e *NegotiationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("renderer: %s negotiation failed: %s: %v", e.Style, e.Reason, e.Err)
	}
	return fmt.Sprintf("renderer: %s negotiation failed: %s", e.Style, e.Reason)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// RenderError reports a failure to produce a frame for a single tick.
type RenderError struct {
	Timestamp float64
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("renderer: frame at %.3fms failed: %v", e.Timestamp, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// MemoryBoundsError is returned when a region reported by the module does not
// fit inside its addressable memory.
type MemoryBoundsError struct {
	Offset uint32
	Length uint64
	Size   uint32
}

func (e *MemoryBoundsError) Error() string {
	return fmt.Sprintf("renderer: region [%d, %d) exceeds module memory of %d bytes", e.Offset, uint64(e.Offset)+e.Length, e.Size)
}
