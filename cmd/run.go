package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/achilleasa/wasmview/renderer/opengl"
	"github.com/urfave/cli"
)

const windowTitle = "wasmview"

// Run a render module in an interactive window. Resizing the window
// renegotiates the frame dimensions with the module.
func RunInteractive(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts, err := sessionOptions(ctx)
	if err != nil {
		return err
	}

	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	module, err := loadModule(bg, ctx)
	if err != nil {
		return err
	}

	win, err := opengl.NewWindow(opts.FrameW, opts.FrameH, windowTitle)
	if err != nil {
		module.Close(bg)
		return err
	}
	defer win.Close()

	// Ask for the framebuffer size so HiDPI displays get full resolution frames
	opts.FrameW, opts.FrameH, opts.Density = win.FramebufferSize()

	sess, err := renderer.NewSession(bg, module, win, win, opts)
	if err != nil {
		return err
	}
	defer sess.Close(bg)

	win.OnResize(func(width, height, density uint32) {
		if !sess.HasModule() {
			return
		}
		if err := sess.Resize(bg, width, height, density); err != nil {
			logger.Warningf("module rejected %dx%d; continuing without it: %v", width, height, err)
		}
	})
	sess.Loop().OnFrame(titleUpdater(win, sess.Loop().Estimator()))

	if err = sess.Start(bg); err != nil {
		return err
	}
	err = win.Run(bg)
	sess.Stop()

	displaySessionStats(sess.Stats())
	if err == nil || errors.Is(err, context.Canceled) {
		err = sess.Loop().Err()
	}
	return err
}

type titleSetter interface {
	SetTitle(string)
}

// Returns a frame callback that keeps the window title in sync with the
// frame rate readout.
func titleUpdater(win titleSetter, estimator *renderer.FrameRateEstimator) renderer.FrameFunc {
	var last string
	return func(float64) {
		readout := estimator.String()
		if readout == last {
			return
		}
		last = readout
		win.SetTitle(fmt.Sprintf("%s - %s fps", windowTitle, readout))
	}
}
