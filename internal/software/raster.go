package software

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/gpu"
)

const bandsPerWorker = 4

// clipVertex is the output of a vertex stage.
type clipVertex struct {
	pos     mgl32.Vec4
	varying mgl32.Vec3
}

// screenVertex is a vertex after the perspective divide and viewport
// transform. The varying is pre-divided by w for perspective correction.
type screenVertex struct {
	x, y, z float32
	invW    float32
	varying mgl32.Vec3
}

type triangle struct {
	v                      [3]screenVertex
	area                   float64
	minX, maxX, minY, maxY int
}

func lerpClip(a, b clipVertex, t float32) clipVertex {
	return clipVertex{
		pos:     a.pos.Add(b.pos.Sub(a.pos).Mul(t)),
		varying: a.varying.Add(b.varying.Sub(a.varying).Mul(t)),
	}
}

// minClipW is the guard plane w >= minClipW applied with the near plane.
// Skies pinned to the far plane (z = w) put their near plane at w = 0,
// where the perspective divide is undefined.
const minClipW = 1e-4

// nearDistance is the signed distance to the tighter of the near plane
// (z >= -w) and the w guard plane.
func nearDistance(c clipVertex) float32 {
	return min(c.pos[2]+c.pos[3], c.pos[3]-minClipW)
}

// clipNear clips a triangle against the near and w guard planes and returns
// the resulting convex polygon, which has 0, 3 or 4 vertices.
func clipNear(in [3]clipVertex) []clipVertex {
	out := make([]clipVertex, 0, 4)
	for i := 0; i < 3; i++ {
		a, b := in[i], in[(i+1)%3]
		da, db := nearDistance(a), nearDistance(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpClip(a, b, da/(da-db)))
		}
	}
	return out
}

func toScreen(c clipVertex, width, height int, origin gpu.Origin) screenVertex {
	invW := 1 / c.pos[3]
	nx, ny, nz := c.pos[0]*invW, c.pos[1]*invW, c.pos[2]*invW

	sv := screenVertex{
		x:       (nx*0.5 + 0.5) * float32(width),
		z:       nz*0.5 + 0.5,
		invW:    invW,
		varying: c.varying.Mul(invW),
	}
	if origin == gpu.OriginTopLeft {
		sv.y = (0.5 - ny*0.5) * float32(height)
	} else {
		sv.y = (ny*0.5 + 0.5) * float32(height)
	}
	return sv
}

// edge is evaluated in float64: vertices clipped near w = 0 project far
// off screen and float32 loses the pixel-sized terms.
func edge(a, b screenVertex, px, py float32) float64 {
	ax, ay := float64(a.x), float64(a.y)
	return (float64(b.x)-ax)*(float64(py)-ay) - (float64(b.y)-ay)*(float64(px)-ax)
}

// setupTriangles clips, projects and bounds every triangle of a draw.
func setupTriangles(verts []clipVertex, indices []uint32, width, height int, origin gpu.Origin) []triangle {
	tris := make([]triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		poly := clipNear([3]clipVertex{verts[indices[i]], verts[indices[i+1]], verts[indices[i+2]]})
		for k := 1; k+1 < len(poly); k++ {
			t := triangle{v: [3]screenVertex{
				toScreen(poly[0], width, height, origin),
				toScreen(poly[k], width, height, origin),
				toScreen(poly[k+1], width, height, origin),
			}}
			t.area = edge(t.v[0], t.v[1], t.v[2].x, t.v[2].y)
			if t.area == 0 {
				continue
			}
			minX := min(t.v[0].x, t.v[1].x, t.v[2].x)
			maxX := max(t.v[0].x, t.v[1].x, t.v[2].x)
			minY := min(t.v[0].y, t.v[1].y, t.v[2].y)
			maxY := max(t.v[0].y, t.v[1].y, t.v[2].y)
			t.minX = clampInt(int(minX), 0, width-1)
			t.maxX = clampInt(int(maxX), 0, width-1)
			t.minY = clampInt(int(minY), 0, height-1)
			t.maxY = clampInt(int(maxY), 0, height-1)
			if maxX < 0 || maxY < 0 || minX >= float32(width) || minY >= float32(height) {
				continue
			}
			tris = append(tris, t)
		}
	}
	return tris
}

const farEpsilon = 1e-5

// shadeFunc returns the colour of a fragment given its varying. Each band
// gets its own so fragment inputs are not shared between workers.
type shadeFunc func(varying mgl32.Vec3) mgl32.Vec4

// rasterize fills the target with tris, running one task per row band.
func (d *Device) rasterize(target *Surface, tris []triangle, newShader func() shadeFunc) {
	height := target.Height()
	bands := min(height, d.workers*bandsPerWorker)
	rows := (height + bands - 1) / bands

	var wg sync.WaitGroup
	id := 0
	for y0 := 0; y0 < height; y0 += rows {
		y1 := min(y0+rows, height)
		shade := newShader()
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				rasterBand(target, tris, y0, y1, shade)
				return nil, nil
			},
		})
		id++
	}
	wg.Wait()
}

func rasterBand(target *Surface, tris []triangle, y0, y1 int, shade shadeFunc) {
	color := &target.levels[0]
	width := color.width
	var depth []float32
	if target.depth != nil {
		depth = target.depth.data
	}

	for ti := range tris {
		t := &tris[ti]
		if t.maxY < y0 || t.minY >= y1 {
			continue
		}
		inv := 1 / t.area
		for py := max(t.minY, y0); py <= min(t.maxY, y1-1); py++ {
			fy := float32(py) + 0.5
			for px := t.minX; px <= t.maxX; px++ {
				fx := float32(px) + 0.5
				e0 := edge(t.v[1], t.v[2], fx, fy) * inv
				e1 := edge(t.v[2], t.v[0], fx, fy) * inv
				e2 := edge(t.v[0], t.v[1], fx, fy) * inv
				if e0 < 0 || e1 < 0 || e2 < 0 {
					continue
				}
				b0, b1, b2 := float32(e0), float32(e1), float32(e2)

				z := b0*t.v[0].z + b1*t.v[1].z + b2*t.v[2].z
				// Geometry pinned to the far plane lands within rounding of 1.
				if z > 1+farEpsilon {
					continue
				}
				z = min(z, 1)
				idx := py*width + px
				if depth != nil {
					if z > depth[idx] {
						continue
					}
					depth[idx] = z
				}

				invW := b0*t.v[0].invW + b1*t.v[1].invW + b2*t.v[2].invW
				varying := t.v[0].varying.Mul(b0).
					Add(t.v[1].varying.Mul(b1)).
					Add(t.v[2].varying.Mul(b2)).
					Mul(1 / invW)

				c := shade(varying)
				o := idx * 4
				color.pix[o], color.pix[o+1], color.pix[o+2], color.pix[o+3] = c[0], c[1], c[2], c[3]
			}
		}
	}
}
