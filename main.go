package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/wasmview/asset"
	"github.com/achilleasa/wasmview/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "wasmview"
	app.Usage = "display frames rendered by sandboxed WebAssembly modules"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "run",
			Usage: "render a module in an interactive window",
			Description: `
Load a render module from a local file or an http(s) URL, negotiate frame
dimensions with it and display every frame it renders in a window synced to
the display refresh rate.

Resizing the window renegotiates the frame dimensions. Press ESC or Q to quit.`,
			ArgsUsage: "module.wasm",
			Flags:     append(append([]cli.Flag{}, cmd.SessionFlags...), cmd.ModuleFlags...),
			Action:    cmd.RunInteractive,
		},
		{
			Name:  "snapshot",
			Usage: "render a module without a window and save the last frame",
			Description: `
Drive the module at a fixed refresh rate for the requested number of frames
and write the last rendered frame to an image file. The image format is
selected by the file extension (png, bmp, tif or tiff).`,
			ArgsUsage: "module.wasm",
			Flags: append(append([]cli.Flag{
				cli.UintFlag{
					Name:  "frames, n",
					Value: 60,
					Usage: "number of frames to render",
				},
				cli.Float64Flag{
					Name:  "refresh-rate",
					Value: 60,
					Usage: "emulated display refresh rate in Hz",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the last rendered frame",
				},
			}, cmd.SessionFlags...), cmd.ModuleFlags...),
			Action: cmd.Snapshot,
		},
		{
			Name:      "inspect",
			Usage:     "list the imports, exports and negotiation styles of a module",
			ArgsUsage: "module.wasm",
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "max-module-size",
					Value: asset.MaxModuleSize,
					Usage: "reject module binaries larger than this many bytes",
				},
			},
			Action: cmd.Inspect,
		},
		{
			Name:  "diag",
			Usage: "run the render loop without a module and report the frame rate",
			Flags: []cli.Flag{
				cli.UintFlag{
					Name:  "frames, n",
					Value: 0,
					Usage: "stop after this many frames (0 = run until interrupted)",
				},
				cli.Float64Flag{
					Name:  "refresh-rate",
					Value: 60,
					Usage: "emulated display refresh rate in Hz",
				},
				cli.BoolFlag{
					Name:  "window",
					Usage: "pace frames using the display refresh of an opengl window",
				},
			},
			Action: cmd.Diagnose,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
