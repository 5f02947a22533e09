package renderer

import "fmt"

// Number of frame samples averaged by the frame rate estimator.
const FrameSampleWindow = 10

// FrameRateEstimator averages the time between the most recent frames. It is
// not safe for concurrent use.
type FrameRateEstimator struct {
	samples [FrameSampleWindow]float64
	count   int
	next    int

	last   float64
	seeded bool
}

// Create a new frame rate estimator with an empty sample window.
func NewFrameRateEstimator() *FrameRateEstimator {
	return &FrameRateEstimator{}
}

// Observe records a frame timestamp in milliseconds. The first timestamp
// only seeds the estimator.
func (f *FrameRateEstimator) Observe(timestamp float64) {
	if !f.seeded {
		f.last = timestamp
		f.seeded = true
		return
	}

	delta := timestamp - f.last
	f.last = timestamp

	f.samples[f.next] = delta
	f.next = (f.next + 1) % FrameSampleWindow
	if f.count < FrameSampleWindow {
		f.count++
	}
}

// CurrentRate returns the average frames per second over the stored samples.
// The second return value is false until at least one sample exists.
func (f *FrameRateEstimator) CurrentRate() (float64, bool) {
	if f.count == 0 {
		return 0, false
	}

	var sum float64
	for _, s := range f.samples[:f.count] {
		sum += s
	}
	return 1000.0 / (sum / float64(f.count)), true
}

// Samples returns a copy of the stored samples in storage order. Once the
// window is full, index i holds the sample written most recently to slot i.
func (f *FrameRateEstimator) Samples() []float64 {
	out := make([]float64, f.count)
	copy(out, f.samples[:f.count])
	return out
}

// Format the current rate for display with a single decimal place.
func (f *FrameRateEstimator) String() string {
	return FormatFrameRate(f.CurrentRate())
}

// FormatFrameRate formats a rate with a single decimal place or "-" if the
// rate is not yet known.
func FormatFrameRate(rate float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", rate)
}

// Render session statistics.
type SessionStats struct {
	// The session id.
	ID string

	// Negotiation outcome; zero when no module is attached.
	Style      NegotiationStyle
	Dimensions NegotiatedDimensions

	// Tick counters.
	Ticks         uint64
	Frames        uint64
	FailedFrames  uint64
	Reallocations uint64

	// Windowed frame rate.
	FrameRate    float64
	HasFrameRate bool

	// The error that stopped the loop, if any.
	Err error
}
