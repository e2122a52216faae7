package scene

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
)

// objRef points at one position and texture coordinate, 0-based (-1 = absent).
type objRef struct {
	v, vt int
}

// LoadMeshOBJ parses a Wavefront .obj file into a single capture mesh.
// Objects and groups are merged, polygons are fan-triangulated, and
// normals and materials are ignored.
func LoadMeshOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open obj %q: %w", ErrIO, path, err)
	}
	defer f.Close()

	var positions []mgl32.Vec3
	var uvs []mgl32.Vec2
	var refs []objRef

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%w: obj %q line %d: %w", ErrIO, path, line, err)
			}
			positions = append(positions, mgl32.Vec3{p[0], p[1], p[2]})

		case "vt":
			p, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%w: obj %q line %d: %w", ErrIO, path, line, err)
			}
			uvs = append(uvs, mgl32.Vec2{p[0], p[1]})

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: obj %q line %d: face needs 3 vertices", ErrIO, path, line)
			}
			poly := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				r, err := parseFaceVertex(tok, len(positions), len(uvs))
				if err != nil {
					return nil, fmt.Errorf("%w: obj %q line %d: %w", ErrIO, path, line, err)
				}
				poly = append(poly, r)
			}
			// Fan: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(poly); i++ {
				refs = append(refs, poly[0], poly[i], poly[i+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan obj %q: %w", ErrIO, path, err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: obj %q has no faces", ErrIO, path)
	}

	m := buildMeshFromOBJ(path, refs, positions, uvs)
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return m, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceVertex parses "v", "v/vt", "v//vn" or "v/vt/vn". OBJ indices are
// 1-based; negative ones count back from the most recent element.
func parseFaceVertex(tok string, nv, nvt int) (objRef, error) {
	resolve := func(s string, n int) (int, error) {
		if s == "" {
			return -1, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("face index %q: %w", s, err)
		}
		if i < 0 {
			i += n
		} else {
			i--
		}
		if i < 0 || i >= n {
			return 0, fmt.Errorf("face index %q out of range", s)
		}
		return i, nil
	}

	parts := strings.Split(tok, "/")
	r := objRef{v: -1, vt: -1}
	var err error
	if r.v, err = resolve(parts[0], nv); err != nil {
		return r, err
	}
	if r.v < 0 {
		return r, fmt.Errorf("face vertex %q has no position", tok)
	}
	if len(parts) > 1 {
		if r.vt, err = resolve(parts[1], nvt); err != nil {
			return r, err
		}
	}
	return r, nil
}

// buildMeshFromOBJ deduplicates face corners into an indexed mesh.
func buildMeshFromOBJ(name string, refs []objRef, positions []mgl32.Vec3, uvs []mgl32.Vec2) *Mesh {
	vertMap := map[objRef]uint32{}
	var vertices []core.Vertex
	indices := make([]uint32, 0, len(refs))

	for _, r := range refs {
		idx, ok := vertMap[r]
		if !ok {
			v := core.Vertex{Position: positions[r.v]}
			if r.vt >= 0 {
				v.UV = uvs[r.vt]
			}
			idx = uint32(len(vertices))
			vertices = append(vertices, v)
			vertMap[r] = idx
		}
		indices = append(indices, idx)
	}
	return CreateMeshFromData(name, vertices, indices)
}
