package software

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// mipLevel is one mip level of RGBA float32 texels, row 0 first.
type mipLevel struct {
	width, height int
	pix           []float32
}

func newMipLevel(w, h int) mipLevel {
	return mipLevel{width: w, height: h, pix: make([]float32, w*h*4)}
}

func (im *mipLevel) texel(x, y int) mgl32.Vec4 {
	i := (y*im.width + x) * 4
	return mgl32.Vec4{im.pix[i], im.pix[i+1], im.pix[i+2], im.pix[i+3]}
}

func (im *mipLevel) fill(c core.Color) {
	for i := 0; i < len(im.pix); i += 4 {
		im.pix[i], im.pix[i+1], im.pix[i+2], im.pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// bilinear filters at texel-space coordinates (x, y) where texel centres
// sit at half-integers. wrapX repeats horizontally, otherwise edges clamp.
func (im *mipLevel) bilinear(x, y float32, wrapX bool) mgl32.Vec4 {
	x -= 0.5
	y -= 0.5
	x0f, y0f := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)
	x1, y1 := x0+1, y0+1

	if wrapX {
		x0 = ((x0 % im.width) + im.width) % im.width
		x1 = ((x1 % im.width) + im.width) % im.width
	} else {
		x0, x1 = clampInt(x0, 0, im.width-1), clampInt(x1, 0, im.width-1)
	}
	y0, y1 = clampInt(y0, 0, im.height-1), clampInt(y1, 0, im.height-1)

	top := im.texel(x0, y0).Mul(1 - fx).Add(im.texel(x1, y0).Mul(fx))
	bottom := im.texel(x0, y1).Mul(1 - fx).Add(im.texel(x1, y1).Mul(fx))
	return top.Mul(1 - fy).Add(bottom.Mul(fy))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Texture2D is a sampled 2D texture held in system memory.
type Texture2D struct {
	dev    *Device
	levels []mipLevel
	wrapU  bool
	freed  bool
}

func newTexture2D(dev *Device, w, h, mips int, wrapU bool) *Texture2D {
	t := &Texture2D{dev: dev, levels: make([]mipLevel, mips), wrapU: wrapU}
	for m := range t.levels {
		t.levels[m] = newMipLevel(gpu.MipSize(w, m), gpu.MipSize(h, m))
	}
	dev.track(1)
	return t
}

func (t *Texture2D) Width() int    { return t.levels[0].width }
func (t *Texture2D) Height() int   { return t.levels[0].height }
func (t *Texture2D) MipCount() int { return len(t.levels) }

func (t *Texture2D) Release() {
	if t.freed {
		return
	}
	t.freed = true
	t.dev.track(-1)
}

// Sample filters mip 0 at normalised coordinates; v = 0 is row 0.
func (t *Texture2D) Sample(u, v float32) mgl32.Vec4 {
	im := &t.levels[0]
	return im.bilinear(u*float32(im.width), v*float32(im.height), t.wrapU)
}

func (t *Texture2D) ReadPixels(face, mip int) ([]float32, error) {
	if face != 0 || mip < 0 || mip >= len(t.levels) {
		return nil, fmt.Errorf("software: texture has no face %d mip %d", face, mip)
	}
	return append([]float32(nil), t.levels[mip].pix...), nil
}

// Surface is a render target whose colour lives in a Texture2D.
type Surface struct {
	*Texture2D
	depth *DepthBuffer
}

func (s *Surface) Bind(depth gpu.DepthBuffer) error {
	if s.freed {
		return fmt.Errorf("%w: surface already released", gpu.ErrNoRenderTarget)
	}
	var db *DepthBuffer
	if depth != nil {
		var ok bool
		if db, ok = depth.(*DepthBuffer); !ok {
			return fmt.Errorf("software: depth buffer %T belongs to another device", depth)
		}
		if db.width != s.Width() || db.height != s.Height() {
			return fmt.Errorf("%w: depth %dx%d for surface %dx%d",
				gpu.ErrDimensionMismatch, db.width, db.height, s.Width(), s.Height())
		}
	}
	s.depth = db
	s.dev.target = s
	return nil
}

func (s *Surface) Clear(c core.Color) {
	s.levels[0].fill(c)
	if s.depth != nil {
		s.depth.clear()
	}
}

func (s *Surface) Release() {
	if s.dev.target == s {
		s.dev.target = nil
	}
	s.Texture2D.Release()
}

// DepthBuffer stores one float per pixel, 1 at the far plane.
type DepthBuffer struct {
	dev           *Device
	width, height int
	data          []float32
	freed         bool
}

func (d *DepthBuffer) Width() int  { return d.width }
func (d *DepthBuffer) Height() int { return d.height }

func (d *DepthBuffer) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: depth buffer %dx%d", gpu.ErrResourceCreation, w, h)
	}
	if w == d.width && h == d.height {
		return nil
	}
	d.width, d.height = w, h
	d.data = make([]float32, w*h)
	d.clear()
	return nil
}

func (d *DepthBuffer) clear() {
	for i := range d.data {
		d.data[i] = 1
	}
}

func (d *DepthBuffer) Release() {
	if d.freed {
		return
	}
	d.freed = true
	d.data = nil
	d.dev.track(-1)
}

// Cubemap keeps six faces per mip level.
type Cubemap struct {
	dev    *Device
	levels [][6]mipLevel
	freed  bool
}

func newCubemap(dev *Device, w, h, mips int) *Cubemap {
	c := &Cubemap{dev: dev, levels: make([][6]mipLevel, mips)}
	for m := range c.levels {
		for f := 0; f < 6; f++ {
			c.levels[m][f] = newMipLevel(gpu.MipSize(w, m), gpu.MipSize(h, m))
		}
	}
	dev.track(1)
	return c
}

func (c *Cubemap) Width() int    { return c.levels[0][0].width }
func (c *Cubemap) Height() int   { return c.levels[0][0].height }
func (c *Cubemap) MipCount() int { return len(c.levels) }

func (c *Cubemap) Release() {
	if c.freed {
		return
	}
	c.freed = true
	c.dev.track(-1)
}

func (c *Cubemap) CopyFace(src gpu.Surface, face, mip int) error {
	s, ok := src.(*Surface)
	if !ok {
		return fmt.Errorf("software: surface %T belongs to another device", src)
	}
	if face < 0 || face > 5 || mip < 0 || mip >= len(c.levels) {
		return fmt.Errorf("software: cubemap has no face %d mip %d", face, mip)
	}
	dst := &c.levels[mip][face]
	if s.Width() != dst.width || s.Height() != dst.height {
		return fmt.Errorf("%w: surface %dx%d into face %d mip %d of %dx%d",
			gpu.ErrDimensionMismatch, s.Width(), s.Height(), face, mip, dst.width, dst.height)
	}
	copy(dst.pix, s.levels[0].pix)
	return nil
}

func (c *Cubemap) ReadPixels(face, mip int) ([]float32, error) {
	if face < 0 || face > 5 || mip < 0 || mip >= len(c.levels) {
		return nil, fmt.Errorf("software: cubemap has no face %d mip %d", face, mip)
	}
	return append([]float32(nil), c.levels[mip][face].pix...), nil
}

// SampleCube filters trilinearly between the two mips around lod.
func (c *Cubemap) SampleCube(dir mgl32.Vec3, lod float32) mgl32.Vec4 {
	face, u, v := CubeFaceUV(dir)
	maxLod := float32(len(c.levels) - 1)
	lod = mgl32.Clamp(lod, 0, maxLod)

	m0 := int(lod)
	a := c.sampleFace(face, m0, u, v)
	if frac := lod - float32(m0); frac > 0 && m0+1 < len(c.levels) {
		b := c.sampleFace(face, m0+1, u, v)
		return a.Mul(1 - frac).Add(b.Mul(frac))
	}
	return a
}

// sampleFace filters bilinearly on one face. Taps that fall off the face
// are fetched from the neighbouring face, so filtering is seamless across
// cube edges like GL_TEXTURE_CUBE_MAP_SEAMLESS.
func (c *Cubemap) sampleFace(face, mip int, u, v float32) mgl32.Vec4 {
	im := &c.levels[mip][face]
	x := u*float32(im.width) - 0.5
	y := v*float32(im.height) - 0.5
	x0f, y0f := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)

	top := c.cubeTexel(face, mip, x0, y0).Mul(1 - fx).Add(c.cubeTexel(face, mip, x0+1, y0).Mul(fx))
	bottom := c.cubeTexel(face, mip, x0, y0+1).Mul(1 - fx).Add(c.cubeTexel(face, mip, x0+1, y0+1).Mul(fx))
	return top.Mul(1 - fy).Add(bottom.Mul(fy))
}

// cubeTexel fetches texel (x, y) of a face, following the direction through
// its centre onto the adjacent face when it lies outside the face.
func (c *Cubemap) cubeTexel(face, mip, x, y int) mgl32.Vec4 {
	im := &c.levels[mip][face]
	if x >= 0 && x < im.width && y >= 0 && y < im.height {
		return im.texel(x, y)
	}
	s := (float32(x)+0.5)/float32(im.width)*2 - 1
	t := (float32(y)+0.5)/float32(im.height)*2 - 1
	nf, u, v := CubeFaceUV(faceDirection(face, s, t))
	n := &c.levels[mip][nf]
	nx := clampInt(int(u*float32(n.width)), 0, n.width-1)
	ny := clampInt(int(v*float32(n.height)), 0, n.height-1)
	return n.texel(nx, ny)
}

// faceDirection inverts CubeFaceUV: (s, t) in [-1, 1] on face, which may
// extend past the face edge.
func faceDirection(face int, s, t float32) mgl32.Vec3 {
	switch face {
	case 0:
		return mgl32.Vec3{1, -t, -s}
	case 1:
		return mgl32.Vec3{-1, -t, s}
	case 2:
		return mgl32.Vec3{s, 1, t}
	case 3:
		return mgl32.Vec3{s, -1, -t}
	case 4:
		return mgl32.Vec3{s, -t, 1}
	default:
		return mgl32.Vec3{-s, -t, -1}
	}
}

// CubeFaceUV selects the cube face hit by dir and returns face texture
// coordinates in [0, 1], using the OpenGL face order and (s, t) axes.
// Row 0 of a face is t = 0.
func CubeFaceUV(dir mgl32.Vec3) (face int, u, v float32) {
	x, y, z := dir[0], dir[1], dir[2]
	ax, ay, az := math32.Abs(x), math32.Abs(y), math32.Abs(z)

	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if x > 0 {
			face, sc, tc = 0, -z, -y
		} else {
			face, sc, tc = 1, z, -y
		}
	case ay >= az:
		ma = ay
		if y > 0 {
			face, sc, tc = 2, x, z
		} else {
			face, sc, tc = 3, x, -z
		}
	default:
		ma = az
		if z > 0 {
			face, sc, tc = 4, x, -y
		} else {
			face, sc, tc = 5, -x, -y
		}
	}
	if ma == 0 {
		return 4, 0.5, 0.5
	}
	u = 0.5 * (sc/ma + 1)
	v = 0.5 * (tc/ma + 1)
	return face, u, v
}
