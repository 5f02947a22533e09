package renderer

import (
	"context"
	"fmt"

	"github.com/achilleasa/wasmview/log"
)

// Loop drives frame rendering off a refresh scheduler. All methods must be
// called from the goroutine running the scheduler.
type Loop struct {
	scheduler Scheduler
	estimator *FrameRateEstimator
	exchanger *FrameExchanger
	onFrame   FrameFunc
	logger    log.Logger

	maxFailures uint32

	ctx     context.Context
	running bool

	// Cancels the pending tick; nil when no tick is scheduled.
	cancelPending func()

	ticks               uint64
	frames              uint64
	failures            uint64
	consecutiveFailures uint32
	err                 error
}

// Create a new loop. A zero maxFailures never gives up on failing frames and
// a nil logger selects the package logger.
func NewLoop(scheduler Scheduler, estimator *FrameRateEstimator, maxFailures uint32, logger log.Logger) *Loop {
	if estimator == nil {
		estimator = NewFrameRateEstimator()
	}
	if logger == nil {
		logger = log.New("renderer")
	}
	return &Loop{
		scheduler:   scheduler,
		estimator:   estimator,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// Attach an exchanger. A nil exchanger switches the loop to timing-only
// mode where ticks only feed the estimator and the frame callback.
func (l *Loop) Attach(exchanger *FrameExchanger) {
	l.exchanger = exchanger
}

// OnFrame registers a callback invoked at the end of every tick.
func (l *Loop) OnFrame(fn FrameFunc) {
	l.onFrame = fn
}

// Start the loop and schedule its first tick.
func (l *Loop) Start(ctx context.Context) error {
	if l.running {
		return ErrAlreadyRunning
	}

	l.ctx = ctx
	l.running = true
	l.err = nil
	l.consecutiveFailures = 0

	// A tick left over from before a Stop will pick the loop back up.
	if l.cancelPending == nil {
		l.cancelPending = l.scheduler.RequestFrame(l.tick)
	}
	return nil
}

// Stop the loop. An already scheduled tick still runs but will not schedule
// another one.
func (l *Loop) Stop() {
	l.running = false
}

// Halt stops the loop and cancels any scheduled tick.
func (l *Loop) Halt() {
	l.running = false
	if l.cancelPending != nil {
		l.cancelPending()
		l.cancelPending = nil
	}
}

// Running returns true while the loop reschedules itself.
func (l *Loop) Running() bool {
	return l.running
}

// Err returns the error that stopped the loop, if any.
func (l *Loop) Err() error {
	return l.err
}

// Estimator returns the loop's frame rate estimator.
func (l *Loop) Estimator() *FrameRateEstimator {
	return l.estimator
}

func (l *Loop) tick(timestamp float64) {
	l.cancelPending = nil
	l.ticks++

	if l.exchanger != nil {
		if _, err := l.exchanger.RenderFrame(l.ctx, timestamp); err != nil {
			l.failures++
			l.consecutiveFailures++
			l.logger.Warningf("skipping frame: %v", err)

			if l.maxFailures != 0 && l.consecutiveFailures >= l.maxFailures {
				l.err = fmt.Errorf("%w (%d in a row): %v", ErrSustainedFailures, l.consecutiveFailures, err)
				l.logger.Error(l.err)
				l.running = false
			}
		} else {
			l.frames++
			l.consecutiveFailures = 0
		}
	}

	l.estimator.Observe(timestamp)
	if l.onFrame != nil {
		l.onFrame(timestamp)
	}

	if l.running {
		l.cancelPending = l.scheduler.RequestFrame(l.tick)
	}
}
