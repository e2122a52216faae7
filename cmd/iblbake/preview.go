package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"ibl-engine/io"
	"ibl-engine/renderer"
)

func previewFlags() []cli.Flag {
	flags := append(deviceFlags(), iblFlags()...)
	return append(flags,
		cli.IntFlag{
			Name:  "width",
			Value: 1280,
			Usage: "preview width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 720,
			Usage: "preview height",
		},
		cli.Float64Flag{
			Name:  "fov",
			Value: 60,
			Usage: "vertical field of view in degrees",
		},
		cli.Float64Flag{
			Name:  "yaw",
			Usage: "camera yaw in degrees",
		},
		cli.Float64Flag{
			Name:  "pitch",
			Usage: "camera pitch in degrees, positive looks down",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "preview.png",
			Usage: "image filename for the preview",
		},
	)
}

// Preview bakes an environment and renders its sky to a PNG.
func Preview(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing environment file argument")
	}

	meshes, err := captureMeshes(ctx)
	if err != nil {
		return err
	}

	opts := renderer.DefaultOptions()
	opts.Backend = ctx.String("backend")
	opts.Device = deviceOptions(ctx)
	opts.IBL = iblOptions(ctx)
	opts.Meshes = meshes
	opts.Width = ctx.Int("width")
	opts.Height = ctx.Int("height")
	opts.FOV = float32(ctx.Float64("fov"))

	re, err := renderer.Open(opts)
	if err != nil {
		return err
	}
	defer re.Destroy()

	re.SetEnvironment(ctx.Args().First())
	if !re.Environment().HasIBL() {
		return fmt.Errorf("preview: %w", re.Err())
	}
	re.Camera.SetOrientation(float32(ctx.Float64("pitch")), float32(ctx.Float64("yaw")), 0)

	target, err := re.Device().CreateSurface(opts.Width, opts.Height, 1)
	if err != nil {
		return err
	}
	defer target.Release()

	if err := re.RenderSky(target); err != nil {
		return err
	}

	out := ctx.String("out")
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	path, err := io.ExportLUT(target, dir, name, io.FormatPNG)
	if err != nil {
		return err
	}
	logger.Noticef("wrote preview to %s", path)
	return nil
}
