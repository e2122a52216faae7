package ibl

import (
	"errors"
	"fmt"

	"ibl-engine/gpu"
	"ibl-engine/scene"
)

// PassInputs are the per-draw bindings of a shading pass.
type PassInputs struct {
	Camera gpu.CameraBlock
	// Prefilter is read by the prefilter pass only.
	Prefilter gpu.PrefilterBlock
	// Source is the environment image or radiance cubemap. The BRDF pass
	// takes none.
	Source gpu.Texture
}

// Pass is one bake program together with the geometry it draws.
type Pass interface {
	Name() string
	Initialise(dev gpu.Device) error
	Bind(in PassInputs) error
	Render(indexCount int) error
	// IndexCount is the number of indices in the pass geometry.
	IndexCount() int
	Release()
}

var errPassNotInitialised = errors.New("ibl: pass used before Initialise")

// ShadingPass is the common implementation of the four bake passes. They
// differ only in program, source binding and geometry.
type ShadingPass struct {
	source        gpu.ProgramSource
	geometry      *scene.Mesh
	needsSource   bool
	usesPrefilter bool

	program gpu.Program
	mesh    gpu.Mesh
}

// NewRectToCubePass projects the equirectangular environment onto cube faces.
func NewRectToCubePass(cube *scene.Mesh) *ShadingPass {
	return &ShadingPass{
		source: gpu.ProgramSource{
			Name:         "rect_to_cube",
			VertexGLSL:   captureVertSrc,
			FragmentGLSL: rectToCubeFragSrc,
			Samplers:     []string{"equirectMap"},
			Origin:       gpu.OriginTopLeft,
			Vertex:       captureVertex,
			Fragment:     rectToCubeFragment,
		},
		geometry:    cube,
		needsSource: true,
	}
}

// NewIrradiancePass convolves the radiance cubemap into diffuse irradiance.
func NewIrradiancePass(cube *scene.Mesh, sampleDelta float32) *ShadingPass {
	return &ShadingPass{
		source: gpu.ProgramSource{
			Name:         "irradiance",
			VertexGLSL:   captureVertSrc,
			FragmentGLSL: withDefines(irradianceFragSrc, "SAMPLE_DELTA", glslFloat(sampleDelta)),
			Samplers:     []string{"environmentMap"},
			Origin:       gpu.OriginTopLeft,
			Vertex:       captureVertex,
			Fragment:     irradianceFragment(sampleDelta),
		},
		geometry:    cube,
		needsSource: true,
	}
}

// NewPrefilterPass convolves the radiance cubemap with a GGX lobe whose
// roughness comes from the prefilter block.
func NewPrefilterPass(cube *scene.Mesh, samples int) *ShadingPass {
	return &ShadingPass{
		source: gpu.ProgramSource{
			Name:         "prefilter",
			VertexGLSL:   captureVertSrc,
			FragmentGLSL: withDefines(prefilterFragSrc, "SAMPLE_COUNT", samples),
			Samplers:     []string{"environmentMap"},
			Origin:       gpu.OriginTopLeft,
			Vertex:       captureVertex,
			Fragment:     prefilterFragment(samples),
		},
		geometry:      cube,
		needsSource:   true,
		usesPrefilter: true,
	}
}

// NewBRDFPass integrates the split-sum BRDF over a full-screen primitive.
func NewBRDFPass(fullscreen *scene.Mesh, samples int) *ShadingPass {
	return &ShadingPass{
		source: gpu.ProgramSource{
			Name:         "brdf",
			VertexGLSL:   fullscreenVertSrc,
			FragmentGLSL: withDefines(brdfFragSrc, "SAMPLE_COUNT", samples),
			Origin:       gpu.OriginBottomLeft,
			Vertex:       fullscreenVertex,
			Fragment:     brdfFragment(samples),
		},
		geometry: fullscreen,
	}
}

func (p *ShadingPass) Name() string { return p.source.Name }

// Source returns the program description, for backends and tooling.
func (p *ShadingPass) Source() gpu.ProgramSource { return p.source }

func (p *ShadingPass) IndexCount() int {
	if p.geometry == nil {
		return 0
	}
	return len(p.geometry.Indices)
}

// Initialise builds the program and uploads the geometry.
func (p *ShadingPass) Initialise(dev gpu.Device) error {
	if p.geometry == nil {
		return fmt.Errorf("%s pass: %w: no geometry", p.source.Name, gpu.ErrResourceCreation)
	}
	program, err := dev.CreateProgram(p.source)
	if err != nil {
		return fmt.Errorf("%s program: %w", p.source.Name, err)
	}
	mesh, err := dev.CreateMesh(p.geometry.Data())
	if err != nil {
		program.Release()
		return fmt.Errorf("%s mesh: %w", p.source.Name, err)
	}
	p.program, p.mesh = program, mesh
	return nil
}

func (p *ShadingPass) Bind(in PassInputs) error {
	if p.program == nil {
		return errPassNotInitialised
	}
	if p.needsSource && in.Source == nil {
		return fmt.Errorf("%s pass: no source texture bound", p.source.Name)
	}
	p.program.SetCamera(in.Camera)
	if p.needsSource {
		p.program.SetTexture(0, in.Source)
	}
	if p.usesPrefilter {
		p.program.SetPrefilter(in.Prefilter)
	}
	return nil
}

func (p *ShadingPass) Render(indexCount int) error {
	if p.program == nil {
		return errPassNotInitialised
	}
	if err := p.program.Draw(p.mesh, indexCount); err != nil {
		return fmt.Errorf("%s draw: %w", p.source.Name, err)
	}
	return nil
}

func (p *ShadingPass) Release() {
	if p.program != nil {
		if p.needsSource {
			p.program.SetTexture(0, nil)
		}
		p.program.Release()
		p.program = nil
	}
	if p.mesh != nil {
		p.mesh.Release()
		p.mesh = nil
	}
}
