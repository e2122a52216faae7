package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
)

// CreateUnitCube returns the [-1, 1] cube as 8 corners and 36 indices.
// Capture passes look at the inside with culling disabled, so winding is
// not significant.
func CreateUnitCube() *Mesh {
	corners := [8]mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	vertices := make([]core.Vertex, len(corners))
	for i, p := range corners {
		vertices[i] = core.Vertex{Position: p}
	}

	indices := []uint32{
		// -Z
		0, 2, 1, 2, 0, 3,
		// +Z
		4, 5, 6, 6, 7, 4,
		// -X
		7, 3, 0, 0, 4, 7,
		// +X
		6, 1, 2, 1, 6, 5,
		// -Y
		0, 1, 5, 5, 4, 0,
		// +Y
		3, 6, 2, 6, 3, 7,
	}
	return CreateMeshFromData("UnitCube", vertices, indices)
}

// CreateFullscreenTriangle returns one clip-space triangle that covers the
// whole viewport. UVs run 0..1 across the visible part.
func CreateFullscreenTriangle() *Mesh {
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{-1, -1, 0}, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{3, -1, 0}, UV: mgl32.Vec2{2, 0}},
		{Position: mgl32.Vec3{-1, 3, 0}, UV: mgl32.Vec2{0, 2}},
	}
	return CreateMeshFromData("FullscreenTriangle", vertices, []uint32{0, 1, 2})
}
