package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var errNoFrame = errors.New("no frame was rendered")

type imageEncoder func(io.Writer, image.Image) error

// Select an image encoder based on the output file extension.
func encoderFor(path string) (imageEncoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", ext)
	}
}

// A display sink that retains a copy of the last presented frame.
type captureSink struct {
	last *renderer.Surface
}

func (s *captureSink) Present(surface *renderer.Surface) error {
	if s.last == nil || s.last.Size() != surface.Size() {
		s.last = surface.Clone()
		return nil
	}
	copy(s.last.Pix, surface.Pix)
	return nil
}

// Render a fixed number of ticks without a window and save the last frame.
func Snapshot(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	out := ctx.String("out")
	encode, err := encoderFor(out)
	if err != nil {
		return err
	}

	opts, err := sessionOptions(ctx)
	if err != nil {
		return err
	}

	numTicks := ctx.Uint("frames")
	if numTicks == 0 {
		return errors.New("frames must be non-zero")
	}

	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	module, err := loadModule(bg, ctx)
	if err != nil {
		return err
	}

	sink := &captureSink{}
	scheduler := renderer.NewIntervalScheduler(ctx.Float64("refresh-rate"))
	sess, err := renderer.NewSession(bg, module, sink, scheduler, opts)
	if err != nil {
		return err
	}
	defer sess.Close(bg)

	sess.Loop().OnFrame(stopAfter(numTicks, sess.Stop))
	if err = sess.Start(bg); err != nil {
		return err
	}
	if err = scheduler.Run(bg); err != nil {
		return err
	}

	stats := sess.Stats()
	displaySessionStats(stats)
	if stats.Err != nil {
		return stats.Err
	}
	if sink.last == nil {
		return errNoFrame
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = encode(f, sink.last.Image()); err != nil {
		return err
	}
	logger.Noticef("wrote %s frame to %s", sink.last.Size(), out)
	return f.Close()
}

// Returns a frame callback that invokes stop after n ticks.
func stopAfter(n uint, stop func()) renderer.FrameFunc {
	var ticks uint
	return func(float64) {
		ticks++
		if ticks == n {
			stop()
		}
	}
}
