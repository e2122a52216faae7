package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// Mesh holds the buffer objects of an uploaded triangle list. Attribute 0
// is the position and attribute 1 the texture coordinate.
type Mesh struct {
	dev        *Device
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int
}

func newMesh(d *Device, data core.MeshData) (*Mesh, error) {
	verts := data.Interleaved()
	m := &Mesh{dev: d, indexCount: len(data.Indices)}

	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)

	stride := int32(core.VertexStride)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(12))

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	d.track(1)

	if err := glError("upload mesh"); err != nil {
		m.Release()
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceCreation, err)
	}
	return m, nil
}

func (m *Mesh) IndexCount() int { return m.indexCount }

func (m *Mesh) Release() {
	if m.vao == 0 {
		return
	}
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteVertexArrays(1, &m.vao)
	m.vao, m.vbo, m.ebo = 0, 0, 0
	m.dev.track(-1)
}
