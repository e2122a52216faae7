package opengl

import (
	"os"
	"testing"

	"github.com/chewxy/math32"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/ibl"
	"ibl-engine/scene"
)

// openDevice needs a display and a GL 4.1 driver, so it only runs when
// IBL_TEST_OPENGL is set.
func openDevice(t *testing.T) *Device {
	t.Helper()
	if os.Getenv("IBL_TEST_OPENGL") == "" {
		t.Skip("set IBL_TEST_OPENGL=1 to run OpenGL tests")
	}
	dev, err := New(gpu.Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

func TestSurfaceClearReadback(t *testing.T) {
	dev := openDevice(t)

	surf, err := dev.CreateSurface(4, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer surf.Release()
	depth, err := dev.CreateDepthBuffer(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer depth.Release()

	if err := surf.Bind(depth); err != nil {
		t.Fatal(err)
	}
	surf.Clear(core.Color{R: 0.25, G: 2, B: 0, A: 1})
	dev.ResetRenderTarget()

	px, err := surf.(gpu.Readable).ReadPixels(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(px); i += 4 {
		if px[i] != 0.25 || px[i+1] != 2 || px[i+2] != 0 || px[i+3] != 1 {
			t.Fatalf("texel %d = %v", i/4, px[i:i+4])
		}
	}
}

func TestBakeUniformEnvironment(t *testing.T) {
	dev := openDevice(t)

	px := make([]float32, 32*16*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = 0.5, 0.5, 0.5, 1
	}
	env, err := scene.NewEnvironmentImage("uniform", 32, 16, px)
	if err != nil {
		t.Fatal(err)
	}

	opts := ibl.Options{
		EnvironmentSize:       32,
		IrradianceSize:        8,
		PrefilterSize:         32,
		PrefilterMips:         5,
		BRDFSize:              16,
		IrradianceSampleDelta: 0.1,
		PrefilterSamples:      64,
		BRDFSamples:           64,
		ClearColor:            core.ColorBlack,
	}
	rig := scene.NewCameraRig(60, 1, 0.1, 100)
	b, err := ibl.NewBaker(dev, rig, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := b.Bake(env)
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	defer res.Release()

	if got := res.Stats.Draws(); got != 6+6+6*5+1 {
		t.Errorf("draws = %d", got)
	}
	for face := 0; face < 6; face++ {
		px, err := res.Irradiance.(gpu.Readable).ReadPixels(face, 0)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(px); i += 4 {
			if math32.Abs(px[i]-0.5) > 0.05 {
				t.Fatalf("irradiance face %d texel %d = %v", face, i/4, px[i])
			}
		}
	}
}
