package renderer

import (
	"context"

	"github.com/achilleasa/wasmview/log"
	"github.com/google/uuid"
)

// Session binds a render module to a display sink and a render loop.
type Session struct {
	id     string
	opts   Options
	logger log.Logger

	module     RenderModule
	negotiator *DimensionNegotiator
	exchanger  *FrameExchanger
	loop       *Loop

	// Surfaces allocated by exchangers of detached modules.
	reallocations uint64
}

// Create a new session. Dimensions are negotiated before this function
// returns; if negotiation fails the module is closed and the error returned.
// A nil module yields a timing-only session that never renders.
func NewSession(ctx context.Context, module RenderModule, sink DisplaySink, scheduler Scheduler, opts Options) (*Session, error) {
	id := uuid.NewString()
	logger := log.WithSession("renderer", id)

	s := &Session{
		id:     id,
		opts:   opts,
		logger: logger,
		loop:   NewLoop(scheduler, NewFrameRateEstimator(), opts.MaxConsecutiveFailures, logger),
	}

	if module == nil {
		logger.Notice("no render module attached; running in timing-only mode")
		return s, nil
	}

	negotiator, err := NewDimensionNegotiator(module, opts.Style, logger)
	if err != nil {
		closeModule(ctx, module, logger)
		return nil, err
	}

	dims, err := negotiator.Negotiate(ctx, opts.request())
	if err != nil {
		closeModule(ctx, module, logger)
		return nil, err
	}
	logger.Noticef("negotiated %s frames using %s style", dims.Allowed(), negotiator.Style())

	s.module = module
	s.negotiator = negotiator
	s.exchanger = NewFrameExchanger(module, sink)
	s.exchanger.SetDimensions(dims)
	s.loop.Attach(s.exchanger)

	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Loop returns the session's render loop.
func (s *Session) Loop() *Loop {
	return s.loop
}

// HasModule returns true while a render module is attached.
func (s *Session) HasModule() bool {
	return s.module != nil
}

// Dimensions returns the negotiated dimensions; zero in timing-only mode.
func (s *Session) Dimensions() NegotiatedDimensions {
	if s.exchanger == nil {
		return NegotiatedDimensions{}
	}
	return s.exchanger.Dimensions()
}

// Start the render loop.
func (s *Session) Start(ctx context.Context) error {
	return s.loop.Start(ctx)
}

// Stop the render loop after the currently scheduled tick.
func (s *Session) Stop() {
	s.loop.Stop()
}

// Resize renegotiates frame dimensions. The next frame uses a new surface if
// the allowed size changed. If the module fails to negotiate it is detached
// and closed; the loop keeps running in timing-only mode.
func (s *Session) Resize(ctx context.Context, width, height, density uint32) error {
	if s.module == nil {
		return ErrNoModule
	}

	s.opts.FrameW, s.opts.FrameH, s.opts.Density = width, height, density
	dims, err := s.negotiator.Negotiate(ctx, s.opts.request())
	if err != nil {
		s.logger.Errorf("renegotiation failed; detaching module: %v", err)
		s.detach(ctx)
		return err
	}

	if dims.Allowed() != s.exchanger.Dimensions().Allowed() {
		s.logger.Infof("frame size changed to %s", dims.Allowed())
	}
	s.exchanger.SetDimensions(dims)
	return nil
}

// Stats returns a snapshot of the session statistics.
func (s *Session) Stats() SessionStats {
	stats := SessionStats{
		ID:           s.id,
		Ticks:        s.loop.ticks,
		Frames:       s.loop.frames,
		FailedFrames: s.loop.failures,
		Err:          s.loop.err,
	}
	stats.FrameRate, stats.HasFrameRate = s.loop.estimator.CurrentRate()

	stats.Reallocations = s.reallocations
	if s.exchanger != nil {
		stats.Dimensions = s.exchanger.Dimensions()
		stats.Reallocations += s.exchanger.Reallocations()
	}
	if s.negotiator != nil {
		stats.Style = s.negotiator.Style()
	}

	return stats
}

// Close halts the loop and releases the module.
func (s *Session) Close(ctx context.Context) error {
	s.loop.Halt()
	if s.module == nil {
		return nil
	}
	module := s.module
	s.module = nil
	s.loop.Attach(nil)
	return module.Close(ctx)
}

func (s *Session) detach(ctx context.Context) {
	s.loop.Attach(nil)
	closeModule(ctx, s.module, s.logger)
	s.reallocations += s.exchanger.Reallocations()
	s.module = nil
	s.negotiator = nil
	s.exchanger = nil
}

func closeModule(ctx context.Context, module RenderModule, logger log.Logger) {
	if err := module.Close(ctx); err != nil {
		logger.Warningf("error closing module: %v", err)
	}
}
