package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
)

// Origin selects which edge of clip space lands in row 0 of the target.
type Origin int

const (
	// OriginBottomLeft stores clip-space y = -1 in row 0 (OpenGL default).
	OriginBottomLeft Origin = iota
	// OriginTopLeft stores clip-space y = +1 in row 0. Cube capture passes
	// use it so face rows run in cube texture order.
	OriginTopLeft
)

// VertexFunc is the CPU form of a vertex stage. It returns the clip-space
// position and one vec3 varying.
type VertexFunc func(v core.Vertex, cam *CameraBlock) (clip mgl32.Vec4, varying mgl32.Vec3)

// FragmentInput is what a CPU fragment stage sees for one pixel.
type FragmentInput struct {
	Varying   mgl32.Vec3
	Camera    *CameraBlock
	Prefilter *PrefilterBlock
	Textures  []Texture
}

// FragmentFunc is the CPU form of a fragment stage.
type FragmentFunc func(in *FragmentInput) mgl32.Vec4

// ProgramSource describes a program in every form a backend may need.
// GPU backends compile the GLSL; CPU backends run the Go stages.
type ProgramSource struct {
	Name         string
	VertexGLSL   string
	FragmentGLSL string
	// Samplers names the sampler uniform of each texture slot.
	Samplers []string
	Origin   Origin

	Vertex   VertexFunc
	Fragment FragmentFunc
}
