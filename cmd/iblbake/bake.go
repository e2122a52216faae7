package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"ibl-engine/gpu"
	"ibl-engine/ibl"
	"ibl-engine/io"
	"ibl-engine/scene"
)

func deviceFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "backend, b",
			Value: "opengl",
			Usage: "rendering backend (see the backends command)",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "worker count for the software backend (0 = one per cpu)",
		},
		cli.StringFlag{
			Name:  "mesh",
			Usage: "glTF or OBJ file that replaces the procedural capture cube",
		},
	}
}

func iblFlags() []cli.Flag {
	def := ibl.DefaultOptions()
	return []cli.Flag{
		cli.IntFlag{
			Name:  "env-size",
			Value: def.EnvironmentSize,
			Usage: "face size of the radiance cubemap",
		},
		cli.IntFlag{
			Name:  "irradiance-size",
			Value: def.IrradianceSize,
			Usage: "face size of the irradiance cubemap",
		},
		cli.IntFlag{
			Name:  "prefilter-size",
			Value: def.PrefilterSize,
			Usage: "face size of mip 0 of the prefiltered cubemap",
		},
		cli.IntFlag{
			Name:  "prefilter-mips",
			Value: def.PrefilterMips,
			Usage: "number of roughness levels in the prefiltered cubemap",
		},
		cli.IntFlag{
			Name:  "brdf-size",
			Value: def.BRDFSize,
			Usage: "edge length of the BRDF integration LUT",
		},
		cli.IntFlag{
			Name:  "samples",
			Value: def.PrefilterSamples,
			Usage: "importance samples per texel for the prefilter and BRDF passes",
		},
		cli.Float64Flag{
			Name:  "irradiance-delta",
			Value: float64(def.IrradianceSampleDelta),
			Usage: "hemisphere step of the irradiance convolution in radians",
		},
	}
}

func bakeFlags() []cli.Flag {
	flags := append(deviceFlags(), iblFlags()...)
	return append(flags,
		cli.StringFlag{
			Name:  "out, o",
			Value: "ibl",
			Usage: "output directory",
		},
		cli.StringFlag{
			Name:  "name, n",
			Usage: "file name prefix (defaults to the environment file name)",
		},
		cli.StringFlag{
			Name:  "format, f",
			Value: string(io.FormatTIFF),
			Usage: "export format: tiff, png or hdr",
		},
	)
}

func iblOptions(ctx *cli.Context) ibl.Options {
	opts := ibl.DefaultOptions()
	opts.EnvironmentSize = ctx.Int("env-size")
	opts.IrradianceSize = ctx.Int("irradiance-size")
	opts.PrefilterSize = ctx.Int("prefilter-size")
	opts.PrefilterMips = ctx.Int("prefilter-mips")
	opts.BRDFSize = ctx.Int("brdf-size")
	opts.PrefilterSamples = ctx.Int("samples")
	opts.BRDFSamples = ctx.Int("samples")
	opts.IrradianceSampleDelta = float32(ctx.Float64("irradiance-delta"))
	return opts
}

func deviceOptions(ctx *cli.Context) gpu.Options {
	return gpu.Options{Workers: ctx.Int("workers")}
}

func captureMeshes(ctx *cli.Context) (scene.MeshProvider, error) {
	path := ctx.String("mesh")
	if path == "" {
		return scene.DefaultMeshes{}, nil
	}
	meshes, err := scene.NewFileMeshes(path)
	if err != nil {
		return nil, err
	}
	logger.Infof("using capture mesh from %s (%d vertices)", path, len(meshes.Cube.Vertices))
	return meshes, nil
}

// Bake an environment and export the resulting maps.
func Bake(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing environment file argument")
	}
	envPath := ctx.Args().First()

	format, err := io.ParseFormat(ctx.String("format"))
	if err != nil {
		return err
	}
	name := ctx.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(envPath), filepath.Ext(envPath))
	}
	outDir := ctx.String("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	opts := iblOptions(ctx)
	meshes, err := captureMeshes(ctx)
	if err != nil {
		return err
	}

	backend := ctx.String("backend")
	dev, err := gpu.Open(backend, deviceOptions(ctx))
	if err != nil {
		return err
	}
	defer dev.Release()

	rig := scene.NewCameraRig(60, 1, 0.1, 100)
	baker, err := ibl.NewBaker(dev, rig, meshes, opts)
	if err != nil {
		return err
	}

	logger.Noticef("baking %s on %s", envPath, dev.Name())
	res, err := baker.BakeFile(envPath)
	if err != nil {
		return err
	}
	defer res.Release()

	manifest, err := io.ExportResult(res, opts, dev.Name(), outDir, name, format)
	if err != nil {
		return err
	}

	displayBakeStats(res.Stats)
	logger.Noticef("wrote %d maps to %s", len(manifest.Maps), outDir)
	return nil
}

func displayBakeStats(stats ibl.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Draws", "Surfaces", "Time"})
	surfaces := 0
	for _, st := range stats.Stages {
		surfaces += st.Surfaces
		table.Append([]string{
			st.Name,
			fmt.Sprintf("%d", st.Draws),
			fmt.Sprintf("%d", st.Surfaces),
			st.Duration.String(),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%d", stats.Draws()), fmt.Sprintf("%d", surfaces), stats.Total.String()})

	table.Render()
	logger.Noticef("bake statistics\n%s", buf.String())
}
