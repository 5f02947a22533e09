package cmd

import (
	"bytes"
	"context"
	"flag"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/urfave/cli"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func flagContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSessionOptions(t *testing.T) {
	type spec struct {
		args     []string
		expOpts  renderer.Options
		expError bool
	}
	custom := renderer.DefaultOptions()
	custom.FrameW, custom.FrameH, custom.Density = 320, 200, 192
	custom.Style = renderer.StylePropose
	custom.MaxConsecutiveFailures = 0

	specs := []spec{
		{nil, renderer.DefaultOptions(), false},
		{[]string{"-width", "320", "-height", "200", "-density", "192", "-style", "propose-confirm", "-max-failures", "0"}, custom, false},
		{[]string{"-style", "magic"}, renderer.Options{}, true},
		{[]string{"-width", "0"}, renderer.Options{}, true},
		{[]string{"-min-width", "4000"}, renderer.Options{}, true},
	}

	for index, s := range specs {
		opts, err := sessionOptions(flagContext(t, SessionFlags, s.args...))
		if s.expError {
			if err == nil {
				t.Fatalf("[spec %d] expected an error", index)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if opts != s.expOpts {
			t.Fatalf("[spec %d] expected options %+v; got %+v", index, s.expOpts, opts)
		}
	}
}

func TestModuleConfig(t *testing.T) {
	cfg := moduleConfig(flagContext(t, ModuleFlags, "-memory-pages", "16", "-cache-dir", "/tmp/cache"))
	if cfg.MemoryLimitPages != 16 || cfg.CacheDir != "/tmp/cache" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFetchModuleRequiresArgument(t *testing.T) {
	if _, err := fetchModule(context.Background(), flagContext(t, ModuleFlags)); err == nil {
		t.Fatal("expected an error when no module argument is given")
	}
}

func TestEncoderFor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	img.Pix[0] = 0xff

	type spec struct {
		path   string
		decode func(*bytes.Buffer) (image.Image, error)
	}
	specs := []spec{
		{"frame.png", func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) }},
		{"FRAME.BMP", func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) }},
		{"out/frame.tiff", func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(bytes.NewReader(b.Bytes())) }},
		{"frame.tif", func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(bytes.NewReader(b.Bytes())) }},
	}

	for index, s := range specs {
		encode, err := encoderFor(s.path)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		var buf bytes.Buffer
		if err = encode(&buf, img); err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		decoded, err := s.decode(&buf)
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", index, err)
		}
		if decoded.Bounds() != img.Bounds() {
			t.Fatalf("[spec %d] expected bounds %v; got %v", index, img.Bounds(), decoded.Bounds())
		}
		if r, _, _, _ := decoded.At(0, 0).RGBA(); r>>8 != 0xff {
			t.Fatalf("[spec %d] expected red channel 0xff; got 0x%x", index, r>>8)
		}
	}

	if _, err := encoderFor("frame.jpg"); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}

func TestCaptureSink(t *testing.T) {
	sink := &captureSink{}
	frame := &renderer.Surface{Width: 1, Height: 1, Pix: []byte{1, 2, 3, 4}}

	if err := sink.Present(frame); err != nil {
		t.Fatal(err)
	}
	first := sink.last
	frame.Pix[0] = 9
	if sink.last.Pix[0] != 1 {
		t.Fatal("expected sink to retain a copy of the frame")
	}

	sink.Present(frame)
	if sink.last != first || sink.last.Pix[0] != 9 {
		t.Fatal("expected sink to reuse its copy for same-sized frames")
	}

	sink.Present(&renderer.Surface{Width: 2, Height: 1, Pix: make([]byte, 8)})
	if sink.last == first || sink.last.Width != 2 {
		t.Fatal("expected sink to replace its copy when the frame size changes")
	}
}

func TestStopAfter(t *testing.T) {
	stops := 0
	fn := stopAfter(3, func() { stops++ })
	for i := 0; i < 5; i++ {
		fn(float64(i))
	}
	if stops != 1 {
		t.Fatalf("expected stop to be called once; got %d", stops)
	}
}

type titleRecorder struct {
	titles []string
}

func (r *titleRecorder) SetTitle(title string) {
	r.titles = append(r.titles, title)
}

func TestTitleUpdater(t *testing.T) {
	rec := &titleRecorder{}
	est := renderer.NewFrameRateEstimator()
	fn := titleUpdater(rec, est)

	// The readout stays "-" until two timestamps have been observed
	est.Observe(0)
	fn(0)
	fn(0)
	est.Observe(20)
	fn(20)

	expTitles := []string{"wasmview - - fps", "wasmview - 50.0 fps"}
	if len(rec.titles) != len(expTitles) {
		t.Fatalf("expected titles %v; got %v", expTitles, rec.titles)
	}
	for i, exp := range expTitles {
		if rec.titles[i] != exp {
			t.Fatalf("expected title %q; got %q", exp, rec.titles[i])
		}
	}
}

func TestSessionStatsTable(t *testing.T) {
	type spec struct {
		stats     renderer.SessionStats
		expFields []string
	}
	specs := []spec{
		{
			renderer.SessionStats{ID: "abc", Ticks: 10, Frames: 0},
			[]string{"abc", "| -", "10"},
		},
		{
			renderer.SessionStats{
				ID:    "def",
				Style: renderer.StyleQuery,
				Dimensions: renderer.NegotiatedDimensions{
					RequestedWidth: 640, RequestedHeight: 480, Density: 96,
					AllowedWidth: 320, AllowedHeight: 240,
				},
				Ticks: 12, Frames: 11, FailedFrames: 1, Reallocations: 1,
				FrameRate: 59.94, HasFrameRate: true,
			},
			[]string{"def", "query", "640x480", "320x240", "96", "59.9"},
		},
	}

	for index, s := range specs {
		table := sessionStatsTable(s.stats)
		for _, field := range s.expFields {
			if !strings.Contains(table, field) {
				t.Fatalf("[spec %d] expected table to contain %q; got\n%s", index, field, table)
			}
		}
	}
}
