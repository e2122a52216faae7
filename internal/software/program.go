package software

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/gpu"
)

// Program runs the Go stages of a gpu.ProgramSource.
type Program struct {
	dev       *Device
	src       gpu.ProgramSource
	camera    gpu.CameraBlock
	prefilter gpu.PrefilterBlock
	textures  []gpu.Texture
	freed     bool
}

func (p *Program) Name() string { return p.src.Name }

func (p *Program) SetCamera(block gpu.CameraBlock)       { p.camera = block }
func (p *Program) SetPrefilter(block gpu.PrefilterBlock) { p.prefilter = block }

func (p *Program) SetTexture(slot int, t gpu.Texture) {
	for len(p.textures) <= slot {
		p.textures = append(p.textures, nil)
	}
	p.textures[slot] = t
}

func (p *Program) Draw(m gpu.Mesh, indexCount int) error {
	target := p.dev.target
	if target == nil {
		return fmt.Errorf("%w: draw with %s", gpu.ErrNoRenderTarget, p.src.Name)
	}
	mesh, ok := m.(*Mesh)
	if !ok {
		return fmt.Errorf("software: mesh %T belongs to another device", m)
	}
	if indexCount < 0 || indexCount > len(mesh.indices) {
		return fmt.Errorf("software: draw of %d indices from a mesh of %d", indexCount, len(mesh.indices))
	}

	// Uniforms and bindings are latched at draw time.
	camera := p.camera
	prefilter := p.prefilter
	textures := append([]gpu.Texture(nil), p.textures...)

	verts := make([]clipVertex, len(mesh.vertices))
	for i, v := range mesh.vertices {
		verts[i].pos, verts[i].varying = p.src.Vertex(v, &camera)
	}
	tris := setupTriangles(verts, mesh.indices[:indexCount], target.Width(), target.Height(), p.src.Origin)

	fragment := p.src.Fragment
	p.dev.rasterize(target, tris, func() shadeFunc {
		in := &gpu.FragmentInput{Camera: &camera, Prefilter: &prefilter, Textures: textures}
		return func(varying mgl32.Vec3) mgl32.Vec4 {
			in.Varying = varying
			return fragment(in)
		}
	})
	p.dev.draws++
	p.dev.logger.Debugf("%s: %d triangles into %dx%d", p.src.Name, len(tris), target.Width(), target.Height())
	return nil
}

func (p *Program) Release() {
	if p.freed {
		return
	}
	p.freed = true
	p.dev.track(-1)
}
