package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"ibl-engine/core"
)

// LoadMeshGLTF opens a .glb or .gltf file and merges every triangle
// primitive of every mesh into a single capture mesh. Node transforms are
// ignored: capture geometry is expected to be authored around the origin.
func LoadMeshGLTF(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: gltf open %q: %w", ErrIO, path, err)
	}

	merged := &Mesh{Name: path}
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			m, err := loadGLTFPrimitive(doc, gm.Name, pi, *prim)
			if err != nil {
				return nil, fmt.Errorf("%w: gltf %q mesh %d prim %d: %w", ErrIO, path, mi, pi, err)
			}
			base := uint32(len(merged.Vertices))
			merged.Vertices = append(merged.Vertices, m.Vertices...)
			for _, idx := range m.Indices {
				merged.Indices = append(merged.Indices, base+idx)
			}
		}
	}
	if len(merged.Indices) == 0 {
		return nil, fmt.Errorf("%w: gltf %q has no triangle geometry", ErrIO, path)
	}
	merged.IndexCount = uint32(len(merged.Indices))
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return merged, nil
}

// loadGLTFPrimitive converts one glTF mesh primitive into a scene.Mesh.
func loadGLTFPrimitive(doc *gltf.Document, meshName string, primIdx int, prim gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		verts[i].Position = mgl32.Vec3{p[0], p[1], p[2]}
		if i < len(uvs) {
			verts[i].UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	return CreateMeshFromData(name, verts, indices), nil
}
