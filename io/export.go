// Package io writes baked IBL maps to image files for inspection and for
// loading into other tools.
package io

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"ibl-engine/gpu"
	"ibl-engine/ibl"
	"ibl-engine/scene"
)

// Format selects the image encoding of exported maps.
type Format string

const (
	// FormatTIFF writes 16-bit linear RGBA, clamped to [0, 1].
	FormatTIFF Format = "tiff"
	// FormatPNG writes 8-bit sRGB RGBA, clamped to [0, 1].
	FormatPNG Format = "png"
	// FormatHDR writes unclamped Radiance RGBE.
	FormatHDR Format = "hdr"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "tiff", "tif":
		return FormatTIFF, nil
	case "png":
		return FormatPNG, nil
	case "hdr":
		return FormatHDR, nil
	}
	return "", fmt.Errorf("unknown export format %q (want tiff, png or hdr)", s)
}

// FaceFileName is the file written for one face and mip of a cubemap.
func FaceFileName(name string, face, mip int, format Format) string {
	return fmt.Sprintf("%s_%s_m%d.%s", name, ibl.FaceNames[face], mip, format)
}

// ExportCubemap writes every face of every mip of tex to dir and returns
// the paths in face-major order.
func ExportCubemap(tex gpu.Texture, dir, name string, format Format) ([]string, error) {
	r, ok := tex.(gpu.Readable)
	if !ok {
		return nil, fmt.Errorf("export %s: texture %T cannot be read back", name, tex)
	}
	var paths []string
	for face := 0; face < 6; face++ {
		for mip := 0; mip < tex.MipCount(); mip++ {
			px, err := r.ReadPixels(face, mip)
			if err != nil {
				return paths, fmt.Errorf("export %s: %w", name, err)
			}
			w, h := gpu.MipSize(tex.Width(), mip), gpu.MipSize(tex.Height(), mip)
			path := filepath.Join(dir, FaceFileName(name, face, mip, format))
			if err := writeImage(path, w, h, px, format); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// ExportLUT writes mip 0 of a 2D texture such as the BRDF lookup table.
// Row 0 of the texture is the first row of the file.
func ExportLUT(tex gpu.Texture, dir, name string, format Format) (string, error) {
	r, ok := tex.(gpu.Readable)
	if !ok {
		return "", fmt.Errorf("export %s: texture %T cannot be read back", name, tex)
	}
	px, err := r.ReadPixels(0, 0)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", name, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s", name, format))
	if err := writeImage(path, tex.Width(), tex.Height(), px, format); err != nil {
		return "", err
	}
	return path, nil
}

func writeImage(path string, w, h int, px []float32, format Format) error {
	if len(px) != w*h*4 {
		return fmt.Errorf("write %s: %d floats for %dx%d", path, len(px), w, h)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %q: %w", scene.ErrIO, path, err)
	}

	switch format {
	case FormatTIFF:
		err = tiff.Encode(f, toNRGBA64(w, h, px), &tiff.Options{Compression: tiff.Deflate})
	case FormatPNG:
		err = png.Encode(f, toSRGB8(w, h, px))
	case FormatHDR:
		err = scene.EncodeRadiance(f, &scene.EnvironmentImage{Name: path, Width: w, Height: h, Pixels: px})
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: write %q: %w", scene.ErrIO, path, err)
	}
	return nil
}

func unit(v float32) float32 {
	return min(max(v, 0), 1)
}

func toNRGBA64(w, h int, px []float32) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(unit(px[i])*65535 + 0.5),
				G: uint16(unit(px[i+1])*65535 + 0.5),
				B: uint16(unit(px[i+2])*65535 + 0.5),
				A: uint16(unit(px[i+3])*65535 + 0.5),
			})
		}
	}
	return img
}

func toSRGB8(w, h int, px []float32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(scene.LinearToSRGB(unit(px[i]))*255 + 0.5),
				G: uint8(scene.LinearToSRGB(unit(px[i+1]))*255 + 0.5),
				B: uint8(scene.LinearToSRGB(unit(px[i+2]))*255 + 0.5),
				A: uint8(unit(px[i+3])*255 + 0.5),
			})
		}
	}
	return img
}
