package renderer

import (
	"context"
	"time"
)

// The interval scheduler emulates a display refresh using a fixed-rate ticker.
// It is used for headless rendering where no window provides a vsync signal.
type IntervalScheduler struct {
	interval time.Duration

	pending FrameFunc

	// Incremented on every request so stale cancel funcs become no-ops.
	requestID uint64
}

// Create a new interval scheduler firing refreshRate times per second.
func NewIntervalScheduler(refreshRate float64) *IntervalScheduler {
	if refreshRate <= 0 {
		refreshRate = 60
	}
	return &IntervalScheduler{
		interval: time.Duration(float64(time.Second) / refreshRate),
	}
}

// Interval returns the time between two refreshes.
func (s *IntervalScheduler) Interval() time.Duration {
	return s.interval
}

// RequestFrame arranges for fn to run on the next refresh. A newer request
// replaces a pending one.
func (s *IntervalScheduler) RequestFrame(fn FrameFunc) func() {
	s.requestID++
	id := s.requestID
	s.pending = fn

	return func() {
		if s.requestID == id {
			s.pending = nil
		}
	}
}

// Run invokes pending callbacks once per interval until nothing is pending or
// ctx is done. Timestamps are milliseconds since Run was called.
func (s *IntervalScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	start := time.Now()
	for s.pending != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			fn := s.pending
			s.pending = nil
			if fn != nil {
				fn(float64(now.Sub(start)) / float64(time.Millisecond))
			}
		}
	}

	return nil
}
