package gpu

import "github.com/go-gl/mathgl/mgl32"

// CameraBlock carries per-draw camera data. It maps to the std140 uniform
// block "Camera" (binding 0) on GPU backends.
type CameraBlock struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Position   mgl32.Vec3
}

// PrefilterBlock carries the specular prefilter parameters. It maps to the
// std140 uniform block "Prefilter" (binding 1) and is only read by the
// prefilter program.
type PrefilterBlock struct {
	Roughness float32
	// SourceSize is the face resolution of the radiance cubemap being filtered.
	SourceSize float32
}

// Std140 packs the camera block into the std140 layout: two column-major
// mat4 followed by a vec4 (w unused).
func (b CameraBlock) Std140() []float32 {
	out := make([]float32, 0, 36)
	out = append(out, b.View[:]...)
	out = append(out, b.Projection[:]...)
	out = append(out, b.Position[0], b.Position[1], b.Position[2], 1)
	return out
}

// Std140 packs the prefilter block into one vec4.
func (b PrefilterBlock) Std140() []float32 {
	return []float32{b.Roughness, b.SourceSize, 0, 0}
}
