package ibl

import (
	"fmt"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// fakeDevice is a gpu.Device that does no rendering. It records draws and
// live resources and can fail the N-th resource creation or draw.
type fakeDevice struct {
	failCreateAt int
	failDrawAt   int

	creates int
	draws   int
	byProg  map[string]int
	rough   []float32
	live    map[any]string
	target  gpu.Surface
	resets  int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{byProg: map[string]int{}, live: map[any]string{}}
}

func (d *fakeDevice) create(kind string) error {
	d.creates++
	if d.creates == d.failCreateAt {
		if kind == "program" {
			return fmt.Errorf("%w: injected", gpu.ErrShaderCompile)
		}
		return fmt.Errorf("%w: injected %s failure", gpu.ErrResourceCreation, kind)
	}
	return nil
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) CreateSurface(w, h, mips int) (gpu.Surface, error) {
	if err := d.create("surface"); err != nil {
		return nil, err
	}
	s := &fakeSurface{fakeTexture{dev: d, w: w, h: h, mips: mips}}
	d.live[s] = fmt.Sprintf("surface %dx%d", w, h)
	return s, nil
}

func (d *fakeDevice) CreateDepthBuffer(w, h int) (gpu.DepthBuffer, error) {
	if err := d.create("depth"); err != nil {
		return nil, err
	}
	db := &fakeDepth{dev: d, w: w, h: h}
	d.live[db] = "depth"
	return db, nil
}

func (d *fakeDevice) CreateCubemap(w, h, mips int) (gpu.Cubemap, error) {
	if err := d.create("cubemap"); err != nil {
		return nil, err
	}
	c := &fakeCube{fakeTexture: fakeTexture{dev: d, w: w, h: h, mips: mips}, written: map[[2]int]bool{}}
	d.live[c] = fmt.Sprintf("cubemap %dx%d", w, h)
	return c, nil
}

func (d *fakeDevice) CreateTexture(w, h int, pixels []float32) (gpu.Texture, error) {
	if err := d.create("texture"); err != nil {
		return nil, err
	}
	t := &fakeTexture{dev: d, w: w, h: h, mips: 1}
	d.live[t] = "texture"
	return t, nil
}

func (d *fakeDevice) CreateMesh(data core.MeshData) (gpu.Mesh, error) {
	if err := d.create("mesh"); err != nil {
		return nil, err
	}
	m := &fakeMesh{dev: d, count: len(data.Indices)}
	d.live[m] = "mesh"
	return m, nil
}

func (d *fakeDevice) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if err := d.create("program"); err != nil {
		return nil, err
	}
	p := &fakeProgram{dev: d, name: src.Name}
	d.live[p] = "program " + src.Name
	return p, nil
}

func (d *fakeDevice) ResetRenderTarget() {
	d.target = nil
	d.resets++
}

func (d *fakeDevice) Release() {}

type fakeTexture struct {
	dev        *fakeDevice
	w, h, mips int
}

func (t *fakeTexture) Width() int    { return t.w }
func (t *fakeTexture) Height() int   { return t.h }
func (t *fakeTexture) MipCount() int { return t.mips }
func (t *fakeTexture) Release()      { delete(t.dev.live, t) }

type fakeSurface struct{ fakeTexture }

func (s *fakeSurface) Bind(depth gpu.DepthBuffer) error {
	if depth != nil && (depth.Width() != s.w || depth.Height() != s.h) {
		return gpu.ErrDimensionMismatch
	}
	s.dev.target = s
	return nil
}
func (s *fakeSurface) Clear(core.Color) {}
func (s *fakeSurface) Release() {
	if s.dev.target == s {
		s.dev.target = nil
	}
	delete(s.dev.live, s)
}

type fakeDepth struct {
	dev  *fakeDevice
	w, h int
}

func (d *fakeDepth) Width() int  { return d.w }
func (d *fakeDepth) Height() int { return d.h }
func (d *fakeDepth) Resize(w, h int) error {
	d.w, d.h = w, h
	return nil
}
func (d *fakeDepth) Release() { delete(d.dev.live, d) }

type fakeCube struct {
	fakeTexture
	written map[[2]int]bool
}

func (c *fakeCube) CopyFace(src gpu.Surface, face, mip int) error {
	if src.Width() != gpu.MipSize(c.w, mip) || src.Height() != gpu.MipSize(c.h, mip) {
		return gpu.ErrDimensionMismatch
	}
	c.written[[2]int{face, mip}] = true
	return nil
}
func (c *fakeCube) Release() { delete(c.dev.live, c) }

// complete reports whether every face of every mip has been written.
func (c *fakeCube) complete() bool {
	return len(c.written) == 6*c.mips
}

type fakeMesh struct {
	dev   *fakeDevice
	count int
}

func (m *fakeMesh) IndexCount() int { return m.count }
func (m *fakeMesh) Release()        { delete(m.dev.live, m) }

type fakeProgram struct {
	dev       *fakeDevice
	name      string
	prefilter gpu.PrefilterBlock
	camera    gpu.CameraBlock
}

func (p *fakeProgram) Name() string                       { return p.name }
func (p *fakeProgram) SetCamera(b gpu.CameraBlock)        { p.camera = b }
func (p *fakeProgram) SetPrefilter(b gpu.PrefilterBlock)  { p.prefilter = b }
func (p *fakeProgram) SetTexture(slot int, t gpu.Texture) {}
func (p *fakeProgram) Release()                           { delete(p.dev.live, p) }

func (p *fakeProgram) Draw(m gpu.Mesh, indexCount int) error {
	if p.dev.target == nil {
		return gpu.ErrNoRenderTarget
	}
	if indexCount != m.IndexCount() {
		return fmt.Errorf("draw of %d indices from a %d index mesh", indexCount, m.IndexCount())
	}
	p.dev.draws++
	if p.dev.draws == p.dev.failDrawAt {
		return fmt.Errorf("injected draw failure")
	}
	p.dev.byProg[p.name]++
	if p.name == "prefilter" {
		p.dev.rough = append(p.dev.rough, p.prefilter.Roughness)
	}
	return nil
}
