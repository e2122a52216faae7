package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ibl-engine/gpu"
)

// Uniform block bindings shared by every program.
const (
	cameraBinding    = 0
	prefilterBinding = 1
)

// Program is a linked GL program with its uniform buffers. Uniform and
// texture state is latched on the CPU and applied at draw time.
type Program struct {
	dev  *Device
	name string
	id   uint32

	cameraUBO    uint32
	prefilterUBO uint32
	hasCamera    bool
	hasPrefilter bool

	camera    gpu.CameraBlock
	prefilter gpu.PrefilterBlock
	textures  []gpu.Texture
}

func newGLProgram(d *Device, src gpu.ProgramSource) (*Program, error) {
	id, err := newProgram(src.VertexGLSL, src.FragmentGLSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpu.ErrShaderCompile, src.Name, err)
	}
	p := &Program{dev: d, name: src.Name, id: id}

	if idx := gl.GetUniformBlockIndex(id, gl.Str("Camera\x00")); idx != gl.INVALID_INDEX {
		gl.UniformBlockBinding(id, idx, cameraBinding)
		p.cameraUBO = newUniformBuffer(len(gpu.CameraBlock{}.Std140()))
		p.hasCamera = true
	}
	if idx := gl.GetUniformBlockIndex(id, gl.Str("Prefilter\x00")); idx != gl.INVALID_INDEX {
		gl.UniformBlockBinding(id, idx, prefilterBinding)
		p.prefilterUBO = newUniformBuffer(len(gpu.PrefilterBlock{}.Std140()))
		p.hasPrefilter = true
	}

	gl.UseProgram(id)
	flip := float32(1)
	if src.Origin == gpu.OriginTopLeft {
		flip = -1
	}
	gl.Uniform1f(gl.GetUniformLocation(id, gl.Str("uFlipY\x00")), flip)
	for unit, name := range src.Samplers {
		gl.Uniform1i(gl.GetUniformLocation(id, gl.Str(name+"\x00")), int32(unit))
	}
	gl.UseProgram(0)
	p.textures = make([]gpu.Texture, len(src.Samplers))
	d.track(1)

	if err := glError("create program " + src.Name); err != nil {
		p.Release()
		return nil, fmt.Errorf("%w: %w", gpu.ErrShaderCompile, err)
	}
	return p, nil
}

func newUniformBuffer(floats int) uint32 {
	var ubo uint32
	gl.GenBuffers(1, &ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, floats*4, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return ubo
}

func uploadUniforms(ubo, binding uint32, data []float32) {
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data)*4, gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, ubo)
}

func (p *Program) Name() string { return p.name }

func (p *Program) SetCamera(block gpu.CameraBlock)       { p.camera = block }
func (p *Program) SetPrefilter(block gpu.PrefilterBlock) { p.prefilter = block }

func (p *Program) SetTexture(slot int, t gpu.Texture) {
	for len(p.textures) <= slot {
		p.textures = append(p.textures, nil)
	}
	p.textures[slot] = t
}

func (p *Program) Draw(m gpu.Mesh, indexCount int) error {
	if p.dev.target == nil {
		return gpu.ErrNoRenderTarget
	}
	mesh, ok := m.(*Mesh)
	if !ok {
		return fmt.Errorf("opengl: mesh %T is from another backend", m)
	}
	if indexCount < 0 || indexCount > mesh.indexCount {
		return fmt.Errorf("opengl: draw of %d indices from a %d index mesh", indexCount, mesh.indexCount)
	}

	gl.UseProgram(p.id)
	if p.hasCamera {
		uploadUniforms(p.cameraUBO, cameraBinding, p.camera.Std140())
	}
	if p.hasPrefilter {
		uploadUniforms(p.prefilterUBO, prefilterBinding, p.prefilter.Std140())
	}
	for unit, t := range p.textures {
		switch tex := t.(type) {
		case *Cubemap:
			tex.bind(unit)
		case *Surface:
			tex.bind(unit)
		case *Texture2D:
			tex.bind(unit)
		case nil:
		default:
			return fmt.Errorf("opengl: texture %T is from another backend", t)
		}
	}

	gl.BindVertexArray(mesh.vao)
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	p.dev.draws++

	if err := glError("draw " + p.name); err != nil {
		return err
	}
	p.dev.logger.Debugf("%s: drew %d indices", p.name, indexCount)
	return nil
}

func (p *Program) Release() {
	if p.id == 0 {
		return
	}
	if p.cameraUBO != 0 {
		gl.DeleteBuffers(1, &p.cameraUBO)
	}
	if p.prefilterUBO != 0 {
		gl.DeleteBuffers(1, &p.prefilterUBO)
	}
	gl.DeleteProgram(p.id)
	p.id = 0
	p.textures = nil
	p.dev.track(-1)
}
