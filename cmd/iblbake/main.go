package main

import (
	"os"

	"github.com/urfave/cli"

	_ "ibl-engine/internal/opengl"
	_ "ibl-engine/internal/software"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "iblbake"
	app.Usage = "precompute image-based lighting maps from an environment image"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "bake",
			Usage: "bake radiance, irradiance, prefiltered and BRDF maps",
			Description: `
Load an equirectangular environment (.hdr, .png, .jpg, .tiff, .bmp or .webp),
project it onto a cubemap and convolve it into the diffuse irradiance and
specular prefiltered maps. A BRDF integration LUT is rendered alongside.

Every face of every mip is written to the output directory together with a
<name>.json manifest describing the bake.`,
			ArgsUsage: "environment.hdr",
			Flags:     bakeFlags(),
			Action:    Bake,
		},
		{
			Name:  "preview",
			Usage: "render the baked sky as seen from a camera",
			Description: `
Bake the environment and render the radiance cubemap as a skybox into an
offscreen image, which is written as an sRGB PNG.`,
			ArgsUsage: "environment.hdr",
			Flags:     previewFlags(),
			Action:    Preview,
		},
		{
			Name:   "faces",
			Usage:  "list the capture orientation of each cube face",
			Action: ListFaces,
		},
		{
			Name:   "backends",
			Usage:  "list available rendering backends",
			Action: ListBackends,
		},
	}

	return app
}
