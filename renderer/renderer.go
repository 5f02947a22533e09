package renderer

import (
	"context"
	"fmt"
	"strings"
)

// NegotiationStyle selects how frame dimensions are agreed with a module.
type NegotiationStyle uint8

const (
	// Let the module's capabilities decide; propose/confirm wins when both
	// styles are available.
	StyleAuto NegotiationStyle = iota

	// The host sends a density hint and adopts whatever the module reports.
	StyleQuery

	// The host proposes candidate sizes and the module must confirm one.
	StylePropose
)

func (s NegotiationStyle) String() string {
	switch s {
	case StyleQuery:
		return "query"
	case StylePropose:
		return "propose"
	default:
		return "auto"
	}
}

// Parse a negotiation style name.
func ParseNegotiationStyle(name string) (NegotiationStyle, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return StyleAuto, nil
	case "query":
		return StyleQuery, nil
	case "propose", "propose-confirm":
		return StylePropose, nil
	}
	return StyleAuto, fmt.Errorf("renderer: unknown negotiation style %q", name)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DimensionRequest describes the frame size the host would like the module to
// produce. Candidates are ordered min, preferred, max.
type DimensionRequest struct {
	Width   uint32
	Height  uint32
	Density uint32

	Candidates [3]Size
}

// Memory is a bounds-checked view of a module's linear memory. Read returns
// false when the requested range does not fit; the returned slice aliases
// module memory and is only valid until the module's next call.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
	Size() uint32
}

// RenderModule is the capability surface exposed by a sandboxed renderer.
type RenderModule interface {
	// Report whether the module implements the given negotiation style.
	SupportsStyle(NegotiationStyle) bool

	// Query style: returns the offset of a u32 array whose first two
	// entries hold the allowed width and height.
	QueryDimensions(ctx context.Context, density uint32) (uint32, error)

	// Propose/confirm style: returns the size confirmed by the module.
	// Values are signed so that invalid answers can be detected.
	ProposeDimensions(ctx context.Context, density uint32, candidates [3]Size) (width, height int32, err error)

	// Render a frame and return the offset of width*height*4 RGBA8 bytes.
	Render(ctx context.Context, timestamp float64, width, height uint32) (uint32, error)

	// Get a fresh view of the module's memory. Views must not be cached
	// across module calls.
	Memory() Memory

	// Release the module and any runtime resources backing it.
	Close(ctx context.Context) error
}

// DisplaySink presents frames. Implementations must copy the surface if they
// need it beyond the Present call.
type DisplaySink interface {
	Present(*Surface) error
}

// FrameFunc receives the refresh timestamp in milliseconds.
type FrameFunc func(timestamp float64)

// Scheduler invokes callbacks once per display refresh.
type Scheduler interface {
	// Arrange for fn to run on the next refresh. The returned function
	// cancels the request if it has not fired yet.
	RequestFrame(fn FrameFunc) (cancel func())

	// Drive pending callbacks on the calling goroutine until nothing is
	// pending or the context is done.
	Run(ctx context.Context) error
}
