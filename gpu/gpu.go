// Package gpu defines the backend-neutral resource contracts the IBL bake is
// written against. A Device behaves like an immediate-mode graphics context:
// binding a Surface makes it the current render target, and Program.Draw
// renders into whatever is bound.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
)

// Texture is any sampled GPU image.
type Texture interface {
	Width() int
	Height() int
	MipCount() int
	Release()
}

// DepthBuffer is a depth attachment shared between surfaces of one stage.
type DepthBuffer interface {
	Width() int
	Height() int
	// Resize reallocates storage when the dimensions differ.
	Resize(width, height int) error
	Release()
}

// Surface is an offscreen 2D colour target that can also be sampled.
type Surface interface {
	Texture
	// Bind makes the surface the current colour target with depth attached.
	// The depth buffer must already match the surface size.
	Bind(depth DepthBuffer) error
	// Clear fills mip 0 with c and resets the attached depth to the far plane.
	Clear(c core.Color)
}

// Cubemap is a six-faced texture with a mip chain.
type Cubemap interface {
	Texture
	// CopyFace copies mip 0 of src into (face, mip). Sizes must match.
	CopyFace(src Surface, face, mip int) error
}

// Mesh is an uploaded indexed triangle list.
type Mesh interface {
	IndexCount() int
	Release()
}

// Program is a linked pair of vertex and fragment stages plus its
// resource bindings.
type Program interface {
	Name() string
	SetCamera(block CameraBlock)
	SetPrefilter(block PrefilterBlock)
	// SetTexture binds t to the given sampler slot; nil unbinds.
	SetTexture(slot int, t Texture)
	// Draw renders the first indexCount indices of m into the bound surface.
	Draw(m Mesh, indexCount int) error
	Release()
}

// Device creates resources and owns the current render target.
type Device interface {
	Name() string
	CreateSurface(width, height, mipCount int) (Surface, error)
	CreateDepthBuffer(width, height int) (DepthBuffer, error)
	CreateCubemap(width, height, mipCount int) (Cubemap, error)
	// CreateTexture uploads linear RGBA float pixels, row 0 first.
	CreateTexture(width, height int, pixels []float32) (Texture, error)
	CreateMesh(data core.MeshData) (Mesh, error)
	CreateProgram(src ProgramSource) (Program, error)
	// ResetRenderTarget rebinds the default back buffer.
	ResetRenderTarget()
	Release()
}

// Readable is implemented by textures whose contents can be copied back to
// the CPU. Pixels are RGBA float32, row 0 first.
type Readable interface {
	ReadPixels(face, mip int) ([]float32, error)
}

// Sampler2D is implemented by CPU-resident 2D textures.
type Sampler2D interface {
	Sample(u, v float32) mgl32.Vec4
}

// SamplerCube is implemented by CPU-resident cubemaps.
type SamplerCube interface {
	SampleCube(dir mgl32.Vec3, lod float32) mgl32.Vec4
}

// MipSize returns the extent of mip level m for a base extent, never below 1.
func MipSize(base, m int) int {
	s := base >> uint(m)
	if s < 1 {
		return 1
	}
	return s
}
