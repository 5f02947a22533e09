package cmd

import (
	"context"
	"errors"

	"github.com/achilleasa/wasmview/asset"
	"github.com/achilleasa/wasmview/renderer"
	"github.com/achilleasa/wasmview/wasm"
	"github.com/urfave/cli"
)

// Flags shared by all commands that load a render module.
var ModuleFlags = []cli.Flag{
	cli.UintFlag{
		Name:  "memory-pages",
		Usage: "limit module memory to this many 64KiB pages (0 = runtime default)",
	},
	cli.StringFlag{
		Name:  "cache-dir",
		Usage: "cache compiled modules in this directory",
	},
	cli.Int64Flag{
		Name:  "max-module-size",
		Value: asset.MaxModuleSize,
		Usage: "reject module binaries larger than this many bytes",
	},
}

// Flags shared by all commands that run a render session.
var SessionFlags = []cli.Flag{
	cli.UintFlag{
		Name:  "width",
		Value: renderer.DefaultFrameW,
		Usage: "preferred frame width",
	},
	cli.UintFlag{
		Name:  "height",
		Value: renderer.DefaultFrameH,
		Usage: "preferred frame height",
	},
	cli.UintFlag{
		Name:  "min-width",
		Value: renderer.DefaultMinFrameW,
		Usage: "minimum frame width proposed to the module",
	},
	cli.UintFlag{
		Name:  "min-height",
		Value: renderer.DefaultMinFrameH,
		Usage: "minimum frame height proposed to the module",
	},
	cli.UintFlag{
		Name:  "max-width",
		Value: renderer.DefaultMaxFrameW,
		Usage: "maximum frame width proposed to the module",
	},
	cli.UintFlag{
		Name:  "max-height",
		Value: renderer.DefaultMaxFrameH,
		Usage: "maximum frame height proposed to the module",
	},
	cli.UintFlag{
		Name:  "density",
		Value: renderer.DefaultDensity,
		Usage: "display density hint passed to the module",
	},
	cli.StringFlag{
		Name:  "style",
		Value: "auto",
		Usage: "dimension negotiation style (auto, query, propose)",
	},
	cli.UintFlag{
		Name:  "max-failures",
		Value: renderer.DefaultMaxConsecutiveFailures,
		Usage: "stop after this many consecutive failed frames (0 = never)",
	},
}

// Map session flags to renderer options.
func sessionOptions(ctx *cli.Context) (renderer.Options, error) {
	style, err := renderer.ParseNegotiationStyle(ctx.String("style"))
	if err != nil {
		return renderer.Options{}, err
	}

	opts := renderer.Options{
		FrameW:                 uint32(ctx.Uint("width")),
		FrameH:                 uint32(ctx.Uint("height")),
		MinFrameW:              uint32(ctx.Uint("min-width")),
		MinFrameH:              uint32(ctx.Uint("min-height")),
		MaxFrameW:              uint32(ctx.Uint("max-width")),
		MaxFrameH:              uint32(ctx.Uint("max-height")),
		Density:                uint32(ctx.Uint("density")),
		Style:                  style,
		MaxConsecutiveFailures: uint32(ctx.Uint("max-failures")),
	}

	if opts.FrameW == 0 || opts.FrameH == 0 {
		return renderer.Options{}, errors.New("frame width and height must be non-zero")
	}
	if opts.MinFrameW > opts.MaxFrameW || opts.MinFrameH > opts.MaxFrameH {
		return renderer.Options{}, errors.New("minimum frame size exceeds the maximum frame size")
	}

	return opts, nil
}

// Map module flags to the sandbox configuration.
func moduleConfig(ctx *cli.Context) wasm.Config {
	return wasm.Config{
		MemoryLimitPages: uint32(ctx.Uint("memory-pages")),
		CacheDir:         ctx.String("cache-dir"),
	}
}

// Fetch the module named by the first command argument.
func fetchModule(bg context.Context, ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing module file argument")
	}

	path := ctx.Args().First()
	logger.Infof("fetching module from %s", path)
	return asset.LoadModule(bg, path, ctx.Int64("max-module-size"))
}

// Fetch and instantiate the module named by the first command argument.
func loadModule(bg context.Context, ctx *cli.Context) (*wasm.Module, error) {
	binary, err := fetchModule(bg, ctx)
	if err != nil {
		return nil, err
	}

	return wasm.Load(bg, binary, moduleConfig(ctx))
}
