package ibl

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/gpu"
	"ibl-engine/log"
	"ibl-engine/scene"
)

// Stage names used in logs, stats and BakeError.
const (
	StageLoad       = "load"
	StageRectToCube = "rect-to-cube"
	StageIrradiance = "irradiance"
	StagePrefilter  = "prefilter"
	StageBRDF       = "brdf"
)

// Capture projection. The near plane must sit inside the unit cube.
const (
	captureFOV  = 90
	captureNear = 0.1
	captureFar  = 10
)

// StageStats describes one bake stage.
type StageStats struct {
	Name     string
	Draws    int
	Surfaces int
	Duration time.Duration
}

// Stats describes a finished bake.
type Stats struct {
	Stages [4]StageStats
	// Roughness is the value fed to the prefilter pass at each mip.
	Roughness []float32
	Total     time.Duration
}

// Draws is the number of draw calls across all stages.
func (s Stats) Draws() int {
	n := 0
	for _, st := range s.Stages {
		n += st.Draws
	}
	return n
}

// Result holds the baked maps. The caller owns every texture until it
// either calls Release or hands them to a scene.Skybox.
type Result struct {
	Radiance      gpu.Cubemap
	Irradiance    gpu.Cubemap
	Prefiltered   gpu.Cubemap
	PrefilterMips int
	BRDF          gpu.Surface
	Stats         Stats
}

// Maps converts the result into the scene's IBL inputs. Ownership moves
// with the maps.
func (r *Result) Maps() scene.IBLMaps {
	return scene.IBLMaps{
		Radiance:      r.Radiance,
		Irradiance:    r.Irradiance,
		Prefiltered:   r.Prefiltered,
		PrefilterMips: r.PrefilterMips,
		BRDF:          r.BRDF,
	}
}

func (r *Result) Release() {
	if r.Radiance != nil {
		r.Radiance.Release()
		r.Radiance = nil
	}
	if r.Irradiance != nil {
		r.Irradiance.Release()
		r.Irradiance = nil
	}
	if r.Prefiltered != nil {
		r.Prefiltered.Release()
		r.Prefiltered = nil
	}
	if r.BRDF != nil {
		r.BRDF.Release()
		r.BRDF = nil
	}
}

// Baker turns an equirectangular environment into the four IBL maps.
//
// A bake borrows the camera rig and the device's render target and must
// not overlap with any other rendering on the same device.
type Baker struct {
	dev    gpu.Device
	rig    *scene.CameraRig
	meshes scene.MeshProvider
	opts   Options
	logger log.Logger

	depth gpu.DepthBuffer
	stats Stats
}

// NewBaker validates opts and binds the collaborators of a bake.
func NewBaker(dev gpu.Device, rig *scene.CameraRig, meshes scene.MeshProvider, opts Options) (*Baker, error) {
	if dev == nil {
		return nil, fmt.Errorf("ibl: nil device")
	}
	if rig == nil {
		return nil, fmt.Errorf("ibl: nil camera rig")
	}
	if meshes == nil {
		meshes = scene.DefaultMeshes{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Baker{
		dev:    dev,
		rig:    rig,
		meshes: meshes,
		opts:   opts,
		logger: log.New("ibl"),
	}, nil
}

func (b *Baker) Options() Options { return b.opts }

// BakeFile loads an environment image from path and bakes it.
func (b *Baker) BakeFile(path string) (*Result, error) {
	env, err := scene.LoadEnvironment(path)
	if err != nil {
		b.logger.Errorf("load %s: %v", path, err)
		return nil, &BakeError{Stage: StageLoad, Err: err}
	}
	return b.Bake(env)
}

// Bake runs the four stages in order. On failure every resource created
// so far is released and nil is returned with a *BakeError. The camera
// rig and render target are restored on every path.
func (b *Baker) Bake(env *scene.EnvironmentImage) (res *Result, err error) {
	if env == nil {
		return nil, &BakeError{Stage: StageLoad, Err: fmt.Errorf("%w: nil environment", scene.ErrIO)}
	}
	start := time.Now()
	b.stats = Stats{}
	b.logger.Infof("baking %s (%dx%d) on %s", env.Name, env.Width, env.Height, b.dev.Name())

	saved := b.rig.State()
	b.rig.SetPosition(mgl32.Vec3{})
	b.rig.SetFOV(captureFOV)
	b.rig.SetAspect(1)
	b.rig.SetClipPlanes(captureNear, captureFar)
	defer func() {
		b.rig.Restore(saved)
		b.dev.ResetRenderTarget()
	}()

	out := &Result{PrefilterMips: b.opts.PrefilterMips}
	defer func() {
		if err != nil {
			out.Release()
			b.logger.Errorf("%v", err)
		}
	}()

	depth, err := b.dev.CreateDepthBuffer(b.opts.EnvironmentSize, b.opts.EnvironmentSize)
	if err != nil {
		return nil, &BakeError{Stage: StageRectToCube, Err: fmt.Errorf("depth buffer: %w", err)}
	}
	b.depth = depth
	defer func() {
		depth.Release()
		b.depth = nil
	}()

	if out.Radiance, err = b.rectToCube(env); err != nil {
		return nil, &BakeError{Stage: StageRectToCube, Err: err}
	}
	if out.Irradiance, err = b.irradiance(out.Radiance); err != nil {
		return nil, &BakeError{Stage: StageIrradiance, Err: err}
	}
	if out.Prefiltered, err = b.prefilter(out.Radiance); err != nil {
		return nil, &BakeError{Stage: StagePrefilter, Err: err}
	}
	if out.BRDF, err = b.brdf(); err != nil {
		return nil, &BakeError{Stage: StageBRDF, Err: err}
	}

	b.stats.Total = time.Since(start)
	out.Stats = b.stats
	b.logger.Infof("bake finished in %v with %d draws", b.stats.Total, b.stats.Draws())
	return out, nil
}

// stage starts timing stage i and returns its stats slot.
func (b *Baker) stage(i int, name string) (*StageStats, func()) {
	st := &b.stats.Stages[i]
	st.Name = name
	start := time.Now()
	b.logger.Infof("stage %s", name)
	return st, func() {
		st.Duration = time.Since(start)
		b.logger.Infof("stage %s done: %d draws in %v", name, st.Draws, st.Duration)
	}
}

// ── Stage 1: equirectangular → radiance cubemap ───────────────────────────────

func (b *Baker) rectToCube(env *scene.EnvironmentImage) (gpu.Cubemap, error) {
	st, done := b.stage(0, StageRectToCube)
	defer done()
	size := b.opts.EnvironmentSize

	source, err := b.dev.CreateTexture(env.Width, env.Height, env.Pixels)
	if err != nil {
		return nil, fmt.Errorf("environment texture: %w", err)
	}
	defer source.Release()

	pass := NewRectToCubePass(b.meshes.CaptureCube())
	cube, err := b.renderCube(st, pass, size, 1, func(int) PassInputs {
		return PassInputs{Source: source}
	})
	if err != nil {
		return nil, err
	}
	return cube, nil
}

// ── Stage 2: diffuse irradiance ───────────────────────────────────────────────

func (b *Baker) irradiance(radiance gpu.Cubemap) (gpu.Cubemap, error) {
	st, done := b.stage(1, StageIrradiance)
	defer done()

	pass := NewIrradiancePass(b.meshes.CaptureCube(), b.opts.IrradianceSampleDelta)
	return b.renderCube(st, pass, b.opts.IrradianceSize, 1, func(int) PassInputs {
		return PassInputs{Source: radiance}
	})
}

// ── Stage 3: specular prefilter ───────────────────────────────────────────────

func (b *Baker) prefilter(radiance gpu.Cubemap) (gpu.Cubemap, error) {
	st, done := b.stage(2, StagePrefilter)
	defer done()
	mips := b.opts.PrefilterMips

	pass := NewPrefilterPass(b.meshes.CaptureCube(), b.opts.PrefilterSamples)
	if err := pass.Initialise(b.dev); err != nil {
		return nil, err
	}
	defer pass.Release()

	cube, err := NewCubemap(b.dev, b.opts.PrefilterSize, b.opts.PrefilterSize, mips)
	if err != nil {
		return nil, err
	}
	defer cube.Release()

	for m := 0; m < mips; m++ {
		size := gpu.MipSize(b.opts.PrefilterSize, m)
		roughness := Roughness(m, mips)
		b.stats.Roughness = append(b.stats.Roughness, roughness)
		b.logger.Debugf("prefilter mip %d: %dx%d roughness %.2f", m, size, size, roughness)

		block := gpu.PrefilterBlock{Roughness: roughness, SourceSize: float32(radiance.Width())}
		if err := b.renderMip(st, pass, cube, size, m, func(int) PassInputs {
			return PassInputs{Source: radiance, Prefilter: block}
		}); err != nil {
			return nil, fmt.Errorf("mip %d: %w", m, err)
		}
	}
	return cube.detach(), nil
}

// ── Stage 4: BRDF integration ─────────────────────────────────────────────────

func (b *Baker) brdf() (gpu.Surface, error) {
	st, done := b.stage(3, StageBRDF)
	defer done()
	size := b.opts.BRDFSize

	pass := NewBRDFPass(b.meshes.FullscreenTriangle(), b.opts.BRDFSamples)
	if err := pass.Initialise(b.dev); err != nil {
		return nil, err
	}
	defer pass.Release()

	lut, err := NewSurface(b.dev, size, size, 1)
	if err != nil {
		return nil, err
	}
	defer lut.Release()
	st.Surfaces++

	if err := lut.Bind(b.depth); err != nil {
		return nil, err
	}
	lut.Clear(b.opts.ClearColor)
	if err := pass.Bind(PassInputs{Camera: b.rig.CameraBlock()}); err != nil {
		return nil, err
	}
	if err := pass.Render(pass.IndexCount()); err != nil {
		return nil, err
	}
	st.Draws++
	return lut.detach(), nil
}

// renderCube renders the six faces of a single-mip cubemap with pass.
func (b *Baker) renderCube(st *StageStats, pass Pass, size, mips int, inputs func(face int) PassInputs) (gpu.Cubemap, error) {
	if err := pass.Initialise(b.dev); err != nil {
		return nil, err
	}
	defer pass.Release()

	cube, err := NewCubemap(b.dev, size, size, mips)
	if err != nil {
		return nil, err
	}
	defer cube.Release()

	if err := b.renderMip(st, pass, cube, size, 0, inputs); err != nil {
		return nil, err
	}
	return cube.detach(), nil
}

// renderMip draws every canonical face into a fresh set of size×size
// surfaces and copies them into mip level mip of cube. The surfaces are
// released before returning.
func (b *Baker) renderMip(st *StageStats, pass Pass, cube *Cubemap, size, mip int, inputs func(face int) PassInputs) error {
	faces, err := newSurfaceSet(b.dev, size)
	if err != nil {
		return err
	}
	defer faces.Release()
	st.Surfaces += len(faces)

	for i, o := range FaceOrientations {
		o.Apply(b.rig)

		if err := faces[i].Bind(b.depth); err != nil {
			return fmt.Errorf("face %s: %w", FaceNames[i], err)
		}
		faces[i].Clear(b.opts.ClearColor)

		in := inputs(i)
		in.Camera = b.rig.CameraBlock()
		if err := pass.Bind(in); err != nil {
			return fmt.Errorf("face %s: %w", FaceNames[i], err)
		}
		if err := pass.Render(pass.IndexCount()); err != nil {
			return fmt.Errorf("face %s: %w", FaceNames[i], err)
		}
		st.Draws++
		b.logger.Debugf("%s: face %s mip %d", pass.Name(), FaceNames[i], mip)
	}

	return cube.WriteFaces(*faces, size, size, mip)
}
