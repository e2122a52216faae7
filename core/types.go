package core

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA colour. Components are not clamped, so HDR
// radiance values above 1 are representable.
type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{0, 0, 0, 0}
	ColorRed         = Color{1, 0, 0, 1}
	ColorGreen       = Color{0, 1, 0, 1}
	ColorBlue        = Color{0, 0, 1, 1}
)

// Vertex is the layout shared by every capture mesh: a position followed by
// a texture coordinate. Per-face passes read Position, the full-screen pass
// reads both.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
}

// VertexStride is the size of one interleaved Vertex in bytes (3 + 2 floats).
const VertexStride = 5 * 4

type MeshData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Interleaved flattens the vertex data into the position/uv float layout
// consumed by GPU vertex buffers.
func (m MeshData) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*5)
	for _, v := range m.Vertices {
		out = append(out, v.Position[0], v.Position[1], v.Position[2], v.UV[0], v.UV[1])
	}
	return out
}
