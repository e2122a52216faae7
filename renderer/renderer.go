// Package renderer hosts the IBL bake inside an interactive render engine.
// The engine owns the device and the scene camera, bakes the configured
// environment once on first use and hands the maps to the scene skybox.
package renderer

import (
	"errors"
	"fmt"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/ibl"
	"ibl-engine/log"
	"ibl-engine/scene"
)

// Options configures a RenderEngine.
type Options struct {
	// Backend names a registered gpu backend for Open.
	Backend string
	Device  gpu.Options
	IBL     ibl.Options
	// Meshes overrides the procedural capture geometry.
	Meshes scene.MeshProvider

	Width  int
	Height int
	// Camera defaults for the interactive view.
	FOV       float32
	NearPlane float32
	FarPlane  float32
}

func DefaultOptions() Options {
	return Options{
		Backend:   "opengl",
		IBL:       ibl.DefaultOptions(),
		Width:     1280,
		Height:    720,
		FOV:       60,
		NearPlane: 0.1,
		FarPlane:  1000,
	}
}

// RenderEngine drives a gpu.Device for the scene.
type RenderEngine struct {
	Camera *scene.CameraRig
	Skybox *scene.Skybox

	dev        gpu.Device
	ownsDevice bool
	opts       Options
	logger     log.Logger

	envPath  string
	envImage *scene.EnvironmentImage
	baked    bool
	bakeErr  error
	stats    ibl.Stats

	skyProgram gpu.Program
	skyMesh    gpu.Mesh
	depth      gpu.DepthBuffer
}

// Open creates the device named by opts.Backend and an engine that owns it.
func Open(opts Options) (*RenderEngine, error) {
	dev, err := gpu.Open(opts.Backend, opts.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s device: %w", opts.Backend, err)
	}
	re, err := NewRenderEngine(dev, opts)
	if err != nil {
		dev.Release()
		return nil, err
	}
	re.ownsDevice = true
	return re, nil
}

// NewRenderEngine builds an engine on an existing device. The caller keeps
// ownership of dev.
func NewRenderEngine(dev gpu.Device, opts Options) (*RenderEngine, error) {
	if dev == nil {
		return nil, errors.New("renderer: nil device")
	}
	if err := opts.IBL.Validate(); err != nil {
		return nil, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("renderer: invalid viewport %dx%d", opts.Width, opts.Height)
	}
	if opts.Meshes == nil {
		opts.Meshes = scene.DefaultMeshes{}
	}

	re := &RenderEngine{
		Camera: scene.NewCameraRig(opts.FOV, float32(opts.Width)/float32(opts.Height), opts.NearPlane, opts.FarPlane),
		Skybox: scene.NewSkybox(),
		dev:    dev,
		opts:   opts,
		logger: log.New("renderer"),
	}
	re.logger.Infof("render engine initialized (%s)", dev.Name())
	return re, nil
}

func (re *RenderEngine) Device() gpu.Device { return re.dev }

// SetEnvironment selects the environment image to bake on the next call
// to Environment. Any previous bake is discarded.
func (re *RenderEngine) SetEnvironment(path string) {
	re.reset()
	re.envPath = path
}

// SetEnvironmentImage is SetEnvironment for an image already in memory.
func (re *RenderEngine) SetEnvironmentImage(env *scene.EnvironmentImage) {
	re.reset()
	re.envImage = env
}

func (re *RenderEngine) reset() {
	re.Skybox.Destroy()
	re.envPath, re.envImage = "", nil
	re.baked, re.bakeErr = false, nil
	re.stats = ibl.Stats{}
}

// Environment returns the skybox, baking the configured environment the
// first time it is called. A failed bake is logged and remembered; the
// skybox then reports no IBL and rendering continues without it.
func (re *RenderEngine) Environment() *scene.Skybox {
	if re.baked {
		return re.Skybox
	}
	re.baked = true
	if re.envPath == "" && re.envImage == nil {
		return re.Skybox
	}

	baker, err := ibl.NewBaker(re.dev, re.Camera, re.opts.Meshes, re.opts.IBL)
	if err != nil {
		re.bakeErr = err
		re.logger.Errorf("ibl disabled: %v", err)
		return re.Skybox
	}

	var res *ibl.Result
	if re.envImage != nil {
		res, err = baker.Bake(re.envImage)
	} else {
		res, err = baker.BakeFile(re.envPath)
	}
	if err != nil {
		re.bakeErr = err
		re.logger.Errorf("ibl disabled: %v", err)
		return re.Skybox
	}

	re.stats = res.Stats
	re.Skybox.SetIBL(res.Maps())
	re.logger.Noticef("environment baked: %d draws in %v", res.Stats.Draws(), res.Stats.Total)
	return re.Skybox
}

// Err returns the error of the last bake, if any.
func (re *RenderEngine) Err() error { return re.bakeErr }

// Stats returns the statistics of the last successful bake.
func (re *RenderEngine) Stats() ibl.Stats { return re.stats }

// Resize updates the interactive camera for a new viewport.
func (re *RenderEngine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	re.opts.Width, re.opts.Height = width, height
	re.Camera.UpdateAspectRatio(float32(width), float32(height))
}

// RenderSky draws the radiance environment behind everything into target
// as seen from the interactive camera. Without IBL the target is only
// cleared.
func (re *RenderEngine) RenderSky(target gpu.Surface) error {
	sky := re.Environment()

	if err := re.ensureDepth(target.Width(), target.Height()); err != nil {
		return err
	}
	if err := target.Bind(re.depth); err != nil {
		return fmt.Errorf("bind sky target: %w", err)
	}
	defer re.dev.ResetRenderTarget()
	target.Clear(core.ColorBlack)

	maps := sky.Maps()
	if !sky.HasIBL() || maps.Radiance == nil {
		return nil
	}
	if err := re.ensureSky(); err != nil {
		return err
	}
	re.skyProgram.SetCamera(re.Camera.CameraBlock())
	re.skyProgram.SetTexture(0, maps.Radiance)
	defer re.skyProgram.SetTexture(0, nil)
	if err := re.skyProgram.Draw(re.skyMesh, re.skyMesh.IndexCount()); err != nil {
		return fmt.Errorf("sky: %w", err)
	}
	return nil
}

func (re *RenderEngine) ensureDepth(w, h int) error {
	if re.depth == nil {
		d, err := re.dev.CreateDepthBuffer(w, h)
		if err != nil {
			return fmt.Errorf("sky depth: %w", err)
		}
		re.depth = d
		return nil
	}
	if re.depth.Width() != w || re.depth.Height() != h {
		return re.depth.Resize(w, h)
	}
	return nil
}

func (re *RenderEngine) ensureSky() error {
	if re.skyProgram != nil {
		return nil
	}
	p, err := re.dev.CreateProgram(skyProgramSource())
	if err != nil {
		return fmt.Errorf("sky program: %w", err)
	}
	m, err := re.dev.CreateMesh(scene.CreateUnitCube().Data())
	if err != nil {
		p.Release()
		return fmt.Errorf("sky mesh: %w", err)
	}
	re.skyProgram, re.skyMesh = p, m
	return nil
}

// Destroy releases everything the engine owns, including the device when
// it was created by Open.
func (re *RenderEngine) Destroy() {
	re.Skybox.Destroy()
	if re.skyProgram != nil {
		re.skyProgram.Release()
		re.skyProgram = nil
	}
	if re.skyMesh != nil {
		re.skyMesh.Release()
		re.skyMesh = nil
	}
	if re.depth != nil {
		re.depth.Release()
		re.depth = nil
	}
	if re.ownsDevice {
		re.dev.Release()
	}
}
