package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"ibl-engine/core"
)

// Mesh holds CPU-side vertex/index data.
// GPU upload is managed by the device that draws it.
type Mesh struct {
	Name       string
	Vertices   []core.Vertex
	Indices    []uint32
	IndexCount uint32
}

// CreateMeshFromData builds a Mesh, synthesising a sequential index list
// when indices is empty.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	if len(indices) == 0 {
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	return &Mesh{
		Name:       name,
		Vertices:   vertices,
		Indices:    indices,
		IndexCount: uint32(len(indices)),
	}
}

// Data returns the mesh in the form consumed by gpu.Device.CreateMesh.
func (m *Mesh) Data() core.MeshData {
	return core.MeshData{Vertices: m.Vertices, Indices: m.Indices}
}

// Validate checks that every index references a vertex and that the index
// list describes whole triangles.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: %d indices is not a triangle list", m.Name, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("mesh %q: index %d (=%d) out of range for %d vertices",
				m.Name, i, idx, len(m.Vertices))
		}
	}
	return nil
}

// MeshProvider supplies the geometry drawn by the bake passes.
type MeshProvider interface {
	// CaptureCube is drawn once per cube face by the per-face passes.
	CaptureCube() *Mesh
	// FullscreenTriangle is drawn by the BRDF integration pass.
	FullscreenTriangle() *Mesh
}

// DefaultMeshes provides the procedural unit cube and full-screen triangle.
type DefaultMeshes struct{}

func (DefaultMeshes) CaptureCube() *Mesh        { return CreateUnitCube() }
func (DefaultMeshes) FullscreenTriangle() *Mesh { return CreateFullscreenTriangle() }

// FileMeshes replaces the procedural capture cube with a mesh loaded from
// disk. The full-screen triangle stays procedural.
type FileMeshes struct {
	Cube *Mesh
}

// NewFileMeshes loads the capture mesh from a .gltf, .glb or .obj file.
func NewFileMeshes(path string) (*FileMeshes, error) {
	var (
		m   *Mesh
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		m, err = LoadMeshGLTF(path)
	case ".obj":
		m, err = LoadMeshOBJ(path)
	default:
		return nil, fmt.Errorf("%w: unsupported mesh format %q", ErrIO, path)
	}
	if err != nil {
		return nil, err
	}
	return &FileMeshes{Cube: m}, nil
}

func (f *FileMeshes) CaptureCube() *Mesh        { return f.Cube }
func (f *FileMeshes) FullscreenTriangle() *Mesh { return CreateFullscreenTriangle() }
