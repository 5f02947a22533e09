package renderer

import (
	"context"
	"math"
)

// FrameExchanger moves rendered frames out of module memory into a host-owned
// surface and presents them.
type FrameExchanger struct {
	module RenderModule
	sink   DisplaySink

	dims    NegotiatedDimensions
	surface *Surface

	// Number of surface allocations performed so far.
	reallocations uint64
}

// Create a frame exchanger. A nil sink discards presented frames.
func NewFrameExchanger(module RenderModule, sink DisplaySink) *FrameExchanger {
	return &FrameExchanger{
		module: module,
		sink:   sink,
	}
}

// Set the dimensions for subsequent frames. The surface is reallocated lazily
// by the next RenderFrame call if the allowed size changed.
func (e *FrameExchanger) SetDimensions(dims NegotiatedDimensions) {
	e.dims = dims
}

// Dimensions returns the currently negotiated dimensions.
func (e *FrameExchanger) Dimensions() NegotiatedDimensions {
	return e.dims
}

// Reallocations returns the number of surfaces allocated so far.
func (e *FrameExchanger) Reallocations() uint64 {
	return e.reallocations
}

// Render a frame for the given timestamp and present it.
func (e *FrameExchanger) RenderFrame(ctx context.Context, timestamp float64) (*Surface, error) {
	size := e.dims.Allowed()
	if size.Width == 0 || size.Height == 0 {
		return nil, &RenderError{Timestamp: timestamp, Err: ErrZeroDimensions}
	}

	length := frameBytes(size)
	if length > math.MaxUint32 {
		return nil, &RenderError{Timestamp: timestamp, Err: &MemoryBoundsError{Length: length, Size: memorySize(e.module.Memory())}}
	}

	if e.surface == nil || e.surface.Size() != size {
		e.surface = newSurface(size)
		e.reallocations++
	}

	offset, err := e.module.Render(ctx, timestamp, size.Width, size.Height)
	if err != nil {
		return nil, &RenderError{Timestamp: timestamp, Err: err}
	}

	// The view is only valid until the module runs again so copy it out
	// right away.
	mem := e.module.Memory()
	if mem == nil {
		return nil, &RenderError{Timestamp: timestamp, Err: &MemoryBoundsError{Offset: offset, Length: length}}
	}
	region, ok := mem.Read(offset, uint32(length))
	if !ok {
		return nil, &RenderError{Timestamp: timestamp, Err: &MemoryBoundsError{Offset: offset, Length: length, Size: mem.Size()}}
	}
	copy(e.surface.Pix, region)

	if e.sink != nil {
		if err = e.sink.Present(e.surface); err != nil {
			return nil, &RenderError{Timestamp: timestamp, Err: err}
		}
	}

	return e.surface, nil
}

func memorySize(mem Memory) uint32 {
	if mem == nil {
		return 0
	}
	return mem.Size()
}
