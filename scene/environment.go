package scene

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ibl-engine/core"
)

// ErrIO reports an environment image that is missing or cannot be decoded.
var ErrIO = errors.New("environment image unreadable")

// EnvironmentImage is an equirectangular panorama in linear RGBA float32,
// row 0 at the zenith. It is immutable once loaded.
type EnvironmentImage struct {
	Name   string
	Width  int
	Height int
	Pixels []float32
}

// NewEnvironmentImage wraps pixel data, checking that it holds
// width*height RGBA texels.
func NewEnvironmentImage(name string, width, height int, pixels []float32) (*EnvironmentImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %q has invalid size %dx%d", ErrIO, name, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %q has %d floats, want %d", ErrIO, name, len(pixels), width*height*4)
	}
	return &EnvironmentImage{Name: name, Width: width, Height: height, Pixels: pixels}, nil
}

// NewEnvironmentFunc renders a procedural environment by evaluating fn for
// the direction through each texel centre.
func NewEnvironmentFunc(name string, width, height int, fn func(dir mgl32.Vec3) core.Color) *EnvironmentImage {
	pixels := make([]float32, width*height*4)
	for y := 0; y < height; y++ {
		v := (float32(y) + 0.5) / float32(height)
		for x := 0; x < width; x++ {
			u := (float32(x) + 0.5) / float32(width)
			c := fn(EquirectDirection(u, v))
			i := (y*width + x) * 4
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = c.R, c.G, c.B, c.A
		}
	}
	return &EnvironmentImage{Name: name, Width: width, Height: height, Pixels: pixels}
}

// At returns the texel at (x, y).
func (e *EnvironmentImage) At(x, y int) core.Color {
	i := (y*e.Width + x) * 4
	return core.Color{R: e.Pixels[i], G: e.Pixels[i+1], B: e.Pixels[i+2], A: e.Pixels[i+3]}
}

// EquirectUV maps a direction to equirectangular texture coordinates.
// u wraps around +Y starting behind the viewer, v runs from the zenith (0)
// to the nadir (1).
func EquirectUV(dir mgl32.Vec3) (u, v float32) {
	d := dir.Normalize()
	u = 0.5 + math32.Atan2(d[0], d[2])/(2*math32.Pi)
	v = 0.5 - math32.Asin(mgl32.Clamp(d[1], -1, 1))/math32.Pi
	return u, v
}

// EquirectDirection is the inverse of EquirectUV.
func EquirectDirection(u, v float32) mgl32.Vec3 {
	phi := (u - 0.5) * 2 * math32.Pi
	theta := (0.5 - v) * math32.Pi
	c := math32.Cos(theta)
	return mgl32.Vec3{c * math32.Sin(phi), math32.Sin(theta), c * math32.Cos(phi)}
}

// LoadEnvironment reads an environment image from disk. Radiance .hdr files
// keep their linear radiance; every other format (PNG, JPEG, TIFF, BMP,
// WebP) is treated as sRGB and converted to linear.
func LoadEnvironment(path string) (*EnvironmentImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrIO, path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".hdr") {
		env, err := DecodeRadiance(r)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %q: %w", ErrIO, path, err)
		}
		env.Name = path
		return env, nil
	}

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %w", ErrIO, path, err)
	}
	env := FromImage(img)
	env.Name = path
	return env, nil
}

// FromImage converts an sRGB-encoded image to a linear environment.
func FromImage(img image.Image) *EnvironmentImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var lut [256]float32
	for i := range lut {
		lut[i] = srgbToLinear(float32(i) / 255)
	}

	pixels := make([]float32, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			c := color.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA64)
			if c.R&0xff == c.R>>8 && c.G&0xff == c.G>>8 && c.B&0xff == c.B>>8 {
				pixels[i] = lut[c.R>>8]
				pixels[i+1] = lut[c.G>>8]
				pixels[i+2] = lut[c.B>>8]
			} else {
				pixels[i] = srgbToLinear(float32(c.R) / 0xffff)
				pixels[i+1] = srgbToLinear(float32(c.G) / 0xffff)
				pixels[i+2] = srgbToLinear(float32(c.B) / 0xffff)
			}
			pixels[i+3] = float32(c.A) / 0xffff
		}
	}
	return &EnvironmentImage{Width: w, Height: h, Pixels: pixels}
}

func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math32.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB encodes a linear channel value for 8/16-bit output.
func LinearToSRGB(c float32) float32 {
	switch {
	case c <= 0:
		return 0
	case c >= 1:
		return 1
	case c <= 0.0031308:
		return c * 12.92
	}
	return 1.055*math32.Pow(c, 1/2.4) - 0.055
}
