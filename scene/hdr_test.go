package scene

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chewxy/math32"
)

func TestDecodeRadianceRLE(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, 8})
	buf.Write([]byte{128 + 8, 128})              // R: run
	buf.Write([]byte{128 + 8, 64})               // G: run
	buf.Write([]byte{8, 0, 1, 2, 3, 4, 5, 6, 7}) // B: literal
	buf.Write([]byte{128 + 8, 129})              // E: run

	env, err := DecodeRadiance(&buf)
	if err != nil {
		t.Fatalf("DecodeRadiance: %v", err)
	}
	if env.Width != 8 || env.Height != 1 {
		t.Fatalf("size %dx%d", env.Width, env.Height)
	}
	for x := 0; x < 8; x++ {
		p := env.At(x, 0)
		if p.R != 1 || p.G != 0.5 || p.B != float32(x)/128 || p.A != 1 {
			t.Errorf("texel %d = %v", x, p)
		}
	}
}

func TestDecodeRadianceRejects(t *testing.T) {
	tests := map[string]string{
		"signature":  "P6\n\n-Y 1 +X 1\n\x00\x00\x00\x00",
		"format":     "#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n\x00\x00\x00\x00",
		"resolution": "#?RADIANCE\n\n+X 1 -Y 1\n\x00\x00\x00\x00",
		"truncated":  "#?RADIANCE\n\n-Y 2 +X 1\n\x00\x00\x00\x00",
		"oversized":  "#?RADIANCE\n\n-Y 2147483647 +X 2147483647\n\x00\x00\x00\x00",
		"too wide":   "#?RADIANCE\n\n-Y 1 +X 40000\n\x00\x00\x00\x00",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeRadiance(strings.NewReader(data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadEnvironmentOversizedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.hdr")
	data := "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 2147483647 +X 2147483647\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEnvironment(path); !errors.Is(err, ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestRadianceEncodeDecode(t *testing.T) {
	src := &EnvironmentImage{Width: 3, Height: 2, Pixels: []float32{
		0, 0, 0, 1, 1, 1, 1, 1, 12.5, 0.25, 3, 1,
		0.001, 0.002, 0.003, 1, 100, 50, 25, 1, 0.5, 0, 0.75, 1,
	}}
	path := filepath.Join(t.TempDir(), "env.hdr")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeRadiance(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := LoadEnvironment(path)
	if err != nil {
		t.Fatalf("LoadEnvironment: %v", err)
	}
	if got.Width != 3 || got.Height != 2 {
		t.Fatalf("size %dx%d", got.Width, got.Height)
	}
	for i, want := range src.Pixels {
		// RGBE keeps 8 bits of mantissa relative to the brightest channel.
		tol := float32(0.01) * max(want, 1e-3)
		if i%4 != 3 {
			px := src.Pixels[i-i%4 : i-i%4+3]
			tol = max(px[0], px[1], px[2]) / 128
		}
		if math32.Abs(got.Pixels[i]-want) > tol {
			t.Errorf("pixel[%d] = %v, want %v", i, got.Pixels[i], want)
		}
	}
}
