package software

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/scene"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d, err := New(gpu.Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Release)
	return d
}

func passThrough(v core.Vertex, _ *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
	return v.Position.Vec4(1), mgl32.Vec3{v.UV[0], v.UV[1], 0}
}

func uvColor(in *gpu.FragmentInput) mgl32.Vec4 {
	return mgl32.Vec4{in.Varying[0], in.Varying[1], 0, 1}
}

func TestRegistered(t *testing.T) {
	dev, err := gpu.Open(BackendName, gpu.Options{Workers: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Release()
	if dev.Name() != BackendName {
		t.Errorf("name = %q", dev.Name())
	}
}

func TestFullscreenTriangleCoversTarget(t *testing.T) {
	for _, origin := range []gpu.Origin{gpu.OriginBottomLeft, gpu.OriginTopLeft} {
		d := newTestDevice(t)
		const w, h = 8, 4
		surf, err := d.CreateSurface(w, h, 1)
		if err != nil {
			t.Fatal(err)
		}
		mesh, _ := d.CreateMesh(scene.CreateFullscreenTriangle().Data())
		prog, err := d.CreateProgram(gpu.ProgramSource{
			Name: "uv", Origin: origin, Vertex: passThrough, Fragment: uvColor,
		})
		if err != nil {
			t.Fatal(err)
		}

		if err := surf.Bind(nil); err != nil {
			t.Fatal(err)
		}
		surf.Clear(core.ColorTransparent)
		if err := prog.Draw(mesh, mesh.IndexCount()); err != nil {
			t.Fatal(err)
		}

		px, _ := surf.(gpu.Readable).ReadPixels(0, 0)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				wantU := (float32(x) + 0.5) / w
				wantV := (float32(y) + 0.5) / h
				if origin == gpu.OriginTopLeft {
					wantV = 1 - wantV
				}
				if math32.Abs(px[i]-wantU) > 1e-4 || math32.Abs(px[i+1]-wantV) > 1e-4 || px[i+3] != 1 {
					t.Fatalf("origin %d pixel (%d,%d) = %v, want uv (%v,%v)", origin, x, y, px[i:i+4], wantU, wantV)
				}
			}
		}
		prog.Release()
		mesh.Release()
		surf.Release()
		if d.Live() != 0 {
			t.Errorf("live resources = %d after release", d.Live())
		}
	}
}

func TestDrawWithoutTarget(t *testing.T) {
	d := newTestDevice(t)
	mesh, _ := d.CreateMesh(scene.CreateFullscreenTriangle().Data())
	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "uv", Vertex: passThrough, Fragment: uvColor})
	if err := prog.Draw(mesh, 3); !errors.Is(err, gpu.ErrNoRenderTarget) {
		t.Errorf("err = %v, want ErrNoRenderTarget", err)
	}

	surf, _ := d.CreateSurface(2, 2, 1)
	surf.Bind(nil)
	d.ResetRenderTarget()
	if err := prog.Draw(mesh, 3); !errors.Is(err, gpu.ErrNoRenderTarget) {
		t.Errorf("after reset: err = %v, want ErrNoRenderTarget", err)
	}
}

func TestDepthTest(t *testing.T) {
	d := newTestDevice(t)
	surf, _ := d.CreateSurface(4, 4, 1)
	depth, _ := d.CreateDepthBuffer(4, 4)

	quad := func(z float32) gpu.Mesh {
		m, err := d.CreateMesh(core.MeshData{
			Vertices: []core.Vertex{
				{Position: mgl32.Vec3{-1, -1, z}}, {Position: mgl32.Vec3{3, -1, z}}, {Position: mgl32.Vec3{-1, 3, z}},
			},
			Indices: []uint32{0, 1, 2},
		})
		if err != nil {
			t.Fatal(err)
		}
		return m
	}
	solid := func(c mgl32.Vec4) gpu.Program {
		p, _ := d.CreateProgram(gpu.ProgramSource{
			Name: "solid",
			Vertex: func(v core.Vertex, _ *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
				return v.Position.Vec4(1), mgl32.Vec3{}
			},
			Fragment: func(*gpu.FragmentInput) mgl32.Vec4 { return c },
		})
		return p
	}

	if err := surf.Bind(depth); err != nil {
		t.Fatal(err)
	}
	surf.Clear(core.ColorBlack)
	near, far := quad(-0.5), quad(0.5)
	solid(mgl32.Vec4{1, 0, 0, 1}).Draw(near, 3)
	solid(mgl32.Vec4{0, 1, 0, 1}).Draw(far, 3)

	px, _ := surf.(gpu.Readable).ReadPixels(0, 0)
	if px[0] != 1 || px[1] != 0 {
		t.Errorf("far triangle overwrote near one: %v", px[:4])
	}

	// Clearing resets depth so the far triangle now lands.
	surf.Clear(core.ColorBlack)
	solid(mgl32.Vec4{0, 1, 0, 1}).Draw(far, 3)
	px, _ = surf.(gpu.Readable).ReadPixels(0, 0)
	if px[1] != 1 {
		t.Errorf("far triangle rejected after clear: %v", px[:4])
	}
}

func TestBindDepthSizeMismatch(t *testing.T) {
	d := newTestDevice(t)
	surf, _ := d.CreateSurface(4, 4, 1)
	depth, _ := d.CreateDepthBuffer(8, 8)
	if err := surf.Bind(depth); !errors.Is(err, gpu.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
	if err := depth.Resize(4, 4); err != nil {
		t.Fatal(err)
	}
	if err := surf.Bind(depth); err != nil {
		t.Errorf("bind after resize: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CreateSurface(0, 4, 1); !errors.Is(err, gpu.ErrResourceCreation) {
		t.Errorf("surface: %v", err)
	}
	if _, err := d.CreateCubemap(4, 4, 0); !errors.Is(err, gpu.ErrResourceCreation) {
		t.Errorf("cubemap: %v", err)
	}
	if _, err := d.CreateTexture(2, 2, make([]float32, 4)); !errors.Is(err, gpu.ErrResourceCreation) {
		t.Errorf("texture: %v", err)
	}
	if _, err := d.CreateMesh(core.MeshData{Vertices: make([]core.Vertex, 2), Indices: []uint32{0, 1, 2}}); !errors.Is(err, gpu.ErrResourceCreation) {
		t.Errorf("mesh: %v", err)
	}
	if _, err := d.CreateProgram(gpu.ProgramSource{Name: "empty"}); !errors.Is(err, gpu.ErrShaderCompile) {
		t.Errorf("program: %v", err)
	}
	if d.Live() != 0 {
		t.Errorf("failed creates left %d live resources", d.Live())
	}
}

// farPlaneVertex pins every vertex to the far plane the way skyboxes do,
// so vertices behind the camera have negative w.
func farPlaneVertex(v core.Vertex, cam *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
	pos := cam.Projection.Mul4(cam.View.Mat3().Mat4()).Mul4x1(v.Position.Vec4(1))
	pos[2] = pos[3]
	return pos, v.Position
}

func TestFarPlaneCubeCoversTarget(t *testing.T) {
	d := newTestDevice(t)
	const size = 16
	surf, _ := d.CreateSurface(size, size, 1)
	depth, _ := d.CreateDepthBuffer(size, size)
	mesh, _ := d.CreateMesh(scene.CreateUnitCube().Data())
	prog, err := d.CreateProgram(gpu.ProgramSource{
		Name:     "far",
		Origin:   gpu.OriginTopLeft,
		Vertex:   farPlaneVertex,
		Fragment: func(*gpu.FragmentInput) mgl32.Vec4 { return mgl32.Vec4{1, 1, 1, 1} },
	})
	if err != nil {
		t.Fatal(err)
	}

	rig := scene.NewCameraRig(60, 1, 0.1, 100)
	for _, o := range [][2]float32{{0, 0}, {20, 30}, {-45, 200}, {90, 0}} {
		rig.SetOrientation(o[0], o[1], 0)
		prog.SetCamera(rig.CameraBlock())
		if err := surf.Bind(depth); err != nil {
			t.Fatal(err)
		}
		surf.Clear(core.ColorBlack)
		if err := prog.Draw(mesh, mesh.IndexCount()); err != nil {
			t.Fatal(err)
		}

		px, _ := surf.(gpu.Readable).ReadPixels(0, 0)
		missed := 0
		for i := 0; i < len(px); i += 4 {
			if px[i] != 1 {
				missed++
			}
		}
		if missed != 0 {
			t.Errorf("pitch %v yaw %v: %d of %d pixels not covered", o[0], o[1], missed, size*size)
		}
	}
}

func TestClipNearKeepsPositiveW(t *testing.T) {
	v := func(x, y, w float32) clipVertex { return clipVertex{pos: mgl32.Vec4{x, y, w, w}} }
	poly := clipNear([3]clipVertex{v(0, 0, -1), v(1, 0, 2), v(0, 1, 2)})
	if len(poly) != 4 {
		t.Fatalf("got %d vertices, want 4", len(poly))
	}
	for i, c := range poly {
		if c.pos[3] < minClipW*0.5 {
			t.Errorf("vertex %d has w = %v", i, c.pos[3])
		}
		sv := toScreen(c, 8, 8, gpu.OriginTopLeft)
		if math32.IsNaN(sv.x) || math32.IsInf(sv.x, 0) || math32.IsInf(sv.invW, 0) {
			t.Errorf("vertex %d projects to %+v", i, sv)
		}
	}
}
