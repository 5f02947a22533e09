package renderer

type Options struct {
	// Requested frame dims. This is the preferred candidate under
	// propose/confirm negotiation.
	FrameW uint32
	FrameH uint32

	// Smallest and largest frame dims offered to modules that negotiate
	// using the propose/confirm style.
	MinFrameW uint32
	MinFrameH uint32
	MaxFrameW uint32
	MaxFrameH uint32

	// Density hint passed to the module.
	Density uint32

	// Negotiation style; StyleAuto lets the module's exports decide.
	Style NegotiationStyle

	// Number of consecutive failed ticks after which the loop gives up.
	// A zero value disables the limit.
	MaxConsecutiveFailures uint32
}

// Default option values used by the command line front-end.
const (
	DefaultFrameW                 = 640
	DefaultFrameH                 = 480
	DefaultMinFrameW              = 100
	DefaultMinFrameH              = 100
	DefaultMaxFrameW              = 2560
	DefaultMaxFrameH              = 1440
	DefaultDensity                = 96
	DefaultMaxConsecutiveFailures = 30
)

// DefaultOptions returns the option set used when no flags override it.
func DefaultOptions() Options {
	return Options{
		FrameW:                 DefaultFrameW,
		FrameH:                 DefaultFrameH,
		MinFrameW:              DefaultMinFrameW,
		MinFrameH:              DefaultMinFrameH,
		MaxFrameW:              DefaultMaxFrameW,
		MaxFrameH:              DefaultMaxFrameH,
		Density:                DefaultDensity,
		Style:                  StyleAuto,
		MaxConsecutiveFailures: DefaultMaxConsecutiveFailures,
	}
}

// Build the negotiation request described by these options.
func (o Options) request() DimensionRequest {
	return DimensionRequest{
		Width:   o.FrameW,
		Height:  o.FrameH,
		Density: o.Density,
		Candidates: [3]Size{
			{o.MinFrameW, o.MinFrameH},
			{o.FrameW, o.FrameH},
			{o.MaxFrameW, o.MaxFrameH},
		},
	}
}
