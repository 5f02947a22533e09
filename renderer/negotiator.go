package renderer

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/achilleasa/wasmview/log"
)

// NegotiatedDimensions records the outcome of a negotiation round.
type NegotiatedDimensions struct {
	RequestedWidth  uint32
	RequestedHeight uint32
	Density         uint32

	AllowedWidth  uint32
	AllowedHeight uint32
}

// Allowed returns the negotiated frame size.
func (d NegotiatedDimensions) Allowed() Size {
	return Size{d.AllowedWidth, d.AllowedHeight}
}

// Returns true if the module settled on a size other than the requested one.
func (d NegotiatedDimensions) Adjusted() bool {
	return d.AllowedWidth != d.RequestedWidth || d.AllowedHeight != d.RequestedHeight
}

// The query answer holds at least the allowed width and height.
const queryAnswerSize = 8

// DimensionNegotiator agrees on frame dimensions with a render module.
type DimensionNegotiator struct {
	module RenderModule
	style  NegotiationStyle
	logger log.Logger
}

// Create a negotiator for the given module. StyleAuto is resolved against the
// module's capabilities; propose/confirm is preferred when both are available.
func NewDimensionNegotiator(module RenderModule, style NegotiationStyle, logger log.Logger) (*DimensionNegotiator, error) {
	if module == nil {
		return nil, ErrNoModule
	}

	switch style {
	case StyleAuto:
		switch {
		case module.SupportsStyle(StylePropose):
			style = StylePropose
		case module.SupportsStyle(StyleQuery):
			style = StyleQuery
		default:
			return nil, &NegotiationError{Style: StyleAuto, Reason: "module exposes no dimension negotiation entry point", Err: ErrUnsupportedStyle}
		}
	default:
		if !module.SupportsStyle(style) {
			return nil, &NegotiationError{Style: style, Reason: "style not implemented by module", Err: ErrUnsupportedStyle}
		}
	}

	return &DimensionNegotiator{
		module: module,
		style:  style,
		logger: logger,
	}, nil
}

// Style returns the resolved negotiation style.
func (n *DimensionNegotiator) Style() NegotiationStyle {
	return n.style
}

// Negotiate the frame dimensions for req.
func (n *DimensionNegotiator) Negotiate(ctx context.Context, req DimensionRequest) (NegotiatedDimensions, error) {
	dims := NegotiatedDimensions{
		RequestedWidth:  req.Width,
		RequestedHeight: req.Height,
		Density:         req.Density,
	}

	var (
		w, h int64
		err  error
	)
	switch n.style {
	case StyleQuery:
		w, h, err = n.query(ctx, req.Density)
	case StylePropose:
		w, h, err = n.propose(ctx, req)
	default:
		err = &NegotiationError{Style: n.style, Reason: "unresolved negotiation style", Err: ErrUnsupportedStyle}
	}
	if err != nil {
		return dims, err
	}

	if w <= 0 || h <= 0 || w > math.MaxInt32 || h > math.MaxInt32 {
		return dims, &NegotiationError{Style: n.style, Reason: fmt.Sprintf("module reported invalid dimensions %dx%d", w, h)}
	}

	dims.AllowedWidth, dims.AllowedHeight = uint32(w), uint32(h)
	if dims.Adjusted() && n.logger != nil {
		n.logger.Infof("module selected %s (requested %dx%d, density %d)", dims.Allowed(), req.Width, req.Height, req.Density)
	}
	return dims, nil
}

func (n *DimensionNegotiator) query(ctx context.Context, density uint32) (int64, int64, error) {
	offset, err := n.module.QueryDimensions(ctx, density)
	if err != nil {
		return 0, 0, &NegotiationError{Style: StyleQuery, Reason: "dimension query failed", Err: err}
	}

	var (
		answer []byte
		ok     bool
		size   uint32
	)
	if mem := n.module.Memory(); mem != nil {
		answer, ok = mem.Read(offset, queryAnswerSize)
		size = mem.Size()
	}
	if !ok {
		return 0, 0, &NegotiationError{
			Style:  StyleQuery,
			Reason: "dimension answer outside module memory",
			Err:    &MemoryBoundsError{Offset: offset, Length: queryAnswerSize, Size: size},
		}
	}

	// Values are u32 on the wire; anything above MaxInt32 is a negative
	// i32 as far as the module is concerned.
	w := int64(int32(binary.LittleEndian.Uint32(answer[0:4])))
	h := int64(int32(binary.LittleEndian.Uint32(answer[4:8])))
	return w, h, nil
}

func (n *DimensionNegotiator) propose(ctx context.Context, req DimensionRequest) (int64, int64, error) {
	w, h, err := n.module.ProposeDimensions(ctx, req.Density, req.Candidates)
	if err != nil {
		return 0, 0, &NegotiationError{Style: StylePropose, Reason: "module rejected proposal", Err: err}
	}
	if w <= 0 || h <= 0 {
		return int64(w), int64(h), nil
	}

	confirmed := Size{uint32(w), uint32(h)}
	for _, candidate := range req.Candidates {
		if candidate == confirmed {
			return int64(w), int64(h), nil
		}
	}

	if n.logger != nil {
		n.logger.Warningf("module confirmed %s which is not one of the proposed sizes %v", confirmed, req.Candidates)
	}
	return 0, 0, &NegotiationError{
		Style:  StylePropose,
		Reason: fmt.Sprintf("confirmed size %s is not one of the proposed candidates", confirmed),
	}
}
