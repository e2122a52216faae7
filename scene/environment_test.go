package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
)

func TestEquirectRoundTrip(t *testing.T) {
	dirs := []mgl32.Vec3{
		{0, 0, 1}, {1, 0, 0}, {-1, 0, 0}, {0, 0.5, -1},
		{0.3, -0.8, 0.2}, {-0.6, 0.1, -0.4},
	}
	for _, d := range dirs {
		u, v := EquirectUV(d)
		if u < 0 || u > 1 || v < 0 || v > 1 {
			t.Fatalf("EquirectUV(%v) = (%v, %v) out of range", d, u, v)
		}
		back := EquirectDirection(u, v)
		if !vecNear(back, d.Normalize(), 1e-4) {
			t.Errorf("direction %v -> (%v,%v) -> %v", d, u, v, back)
		}
	}
}

func TestEquirectConventions(t *testing.T) {
	if _, v := EquirectUV(mgl32.Vec3{0, 1, 0}); math32.Abs(v) > eps {
		t.Errorf("zenith v = %v, want 0", v)
	}
	if u, v := EquirectUV(mgl32.Vec3{0, 0, 1}); math32.Abs(u-0.5) > eps || math32.Abs(v-0.5) > eps {
		t.Errorf("+Z maps to (%v, %v), want (0.5, 0.5)", u, v)
	}
	if u, _ := EquirectUV(mgl32.Vec3{1, 0, 0}); math32.Abs(u-0.75) > eps {
		t.Errorf("+X u = %v, want 0.75", u)
	}
}

func TestNewEnvironmentImageValidates(t *testing.T) {
	if _, err := NewEnvironmentImage("bad", 2, 2, make([]float32, 3)); !errors.Is(err, ErrIO) {
		t.Errorf("short pixel slice: err = %v, want ErrIO", err)
	}
	if _, err := NewEnvironmentImage("bad", 0, 2, nil); !errors.Is(err, ErrIO) {
		t.Errorf("zero width: err = %v, want ErrIO", err)
	}
	env, err := NewEnvironmentImage("ok", 2, 1, make([]float32, 8))
	if err != nil || env.Width != 2 || env.Height != 1 {
		t.Errorf("valid image: %v, %v", env, err)
	}
}

func TestNewEnvironmentFunc(t *testing.T) {
	env := NewEnvironmentFunc("sky", 16, 8, func(d mgl32.Vec3) core.Color {
		if d[1] > 0 {
			return core.ColorWhite
		}
		return core.ColorBlack
	})
	if got := env.At(3, 0); got != core.ColorWhite {
		t.Errorf("top row = %v, want white", got)
	}
	if got := env.At(3, 7); got != core.ColorBlack {
		t.Errorf("bottom row = %v, want black", got)
	}
}

func TestLoadEnvironmentMissing(t *testing.T) {
	_, err := LoadEnvironment(filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist in chain", err)
	}
}

func TestLoadEnvironmentGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEnvironment(path); !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestLoadEnvironmentPNGIsLinearised(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 188, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 128})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "env.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := LoadEnvironment(path)
	if err != nil {
		t.Fatalf("LoadEnvironment: %v", err)
	}
	if env.Width != 2 || env.Height != 1 || env.Name != path {
		t.Fatalf("got %dx%d %q", env.Width, env.Height, env.Name)
	}
	p := env.At(0, 0)
	if math32.Abs(p.R-1) > 1e-4 || p.G != 0 {
		t.Errorf("texel 0 = %v", p)
	}
	// sRGB 188 is roughly linear 0.5.
	if math32.Abs(p.B-0.5) > 0.01 {
		t.Errorf("sRGB 188 -> %v, want ~0.5", p.B)
	}
	if a := env.At(1, 0).A; math32.Abs(a-128.0/255.0) > 1e-3 {
		t.Errorf("alpha = %v, want linear 128/255", a)
	}
}

func TestLinearToSRGBInvertsDecode(t *testing.T) {
	for _, c := range []float32{0, 0.001, 0.2, 0.5, 0.9, 1} {
		if got := srgbToLinear(LinearToSRGB(c)); math32.Abs(got-c) > 1e-4 {
			t.Errorf("srgb round trip %v -> %v", c, got)
		}
	}
	if LinearToSRGB(4) != 1 || LinearToSRGB(-1) != 0 {
		t.Error("LinearToSRGB should clamp to [0, 1]")
	}
}
