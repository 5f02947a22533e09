package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/achilleasa/wasmview/renderer/opengl"
	"github.com/urfave/cli"
)

// Run the render loop without a module to measure the refresh rate that the
// scheduler delivers.
func Diagnose(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	numTicks := ctx.Uint("frames")
	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var scheduler renderer.Scheduler
	if ctx.Bool("window") {
		win, err := opengl.NewWindow(renderer.DefaultFrameW, renderer.DefaultFrameH, windowTitle)
		if err != nil {
			return err
		}
		defer win.Close()
		scheduler = win
	} else {
		scheduler = renderer.NewIntervalScheduler(ctx.Float64("refresh-rate"))
	}

	sess, err := renderer.NewSession(bg, nil, nil, scheduler, renderer.DefaultOptions())
	if err != nil {
		return err
	}
	defer sess.Close(bg)

	estimator := sess.Loop().Estimator()
	var last string
	report := func(float64) {
		if readout := estimator.String(); readout != last {
			last = readout
			logger.Debugf("frame rate %s fps", readout)
		}
	}
	if win, ok := scheduler.(*opengl.Window); ok {
		report = titleUpdater(win, estimator)
	}

	// Zero ticks runs until interrupted or the window is closed
	var stopper renderer.FrameFunc = func(float64) {}
	if numTicks != 0 {
		stopper = stopAfter(numTicks, sess.Stop)
	}
	sess.Loop().OnFrame(func(timestamp float64) {
		report(timestamp)
		stopper(timestamp)
	})

	if err = sess.Start(bg); err != nil {
		return err
	}
	err = scheduler.Run(bg)
	sess.Stop()

	displaySessionStats(sess.Stats())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
