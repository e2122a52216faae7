package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// Texture2D is an RGBA32F texture. U repeats so equirectangular images
// wrap at the seam; V clamps at the poles.
type Texture2D struct {
	dev    *Device
	id     uint32
	width  int
	height int
	mips   int
}

func allocTexture2D(d *Device, w, h, mips int, pixels []float32) (*Texture2D, error) {
	t := &Texture2D{dev: d, width: w, height: h, mips: mips}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if mips > 1 {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(mips-1))

	for m := 0; m < mips; m++ {
		var data []float32
		if m == 0 {
			data = pixels
		}
		gl.TexImage2D(gl.TEXTURE_2D, int32(m), gl.RGBA32F,
			int32(gpu.MipSize(w, m)), int32(gpu.MipSize(h, m)), 0,
			gl.RGBA, gl.FLOAT, ptrOrNil(data))
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	d.track(1)

	if err := glError("allocate texture"); err != nil {
		t.Release()
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceCreation, err)
	}
	return t, nil
}

func newTexture2D(d *Device, w, h int, pixels []float32) (*Texture2D, error) {
	return allocTexture2D(d, w, h, 1, pixels)
}

func (t *Texture2D) Width() int    { return t.width }
func (t *Texture2D) Height() int   { return t.height }
func (t *Texture2D) MipCount() int { return t.mips }

func (t *Texture2D) Release() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	t.dev.track(-1)
}

func (t *Texture2D) ReadPixels(face, mip int) ([]float32, error) {
	if face != 0 || mip < 0 || mip >= t.mips {
		return nil, fmt.Errorf("opengl: texture has no face %d mip %d", face, mip)
	}
	out := make([]float32, gpu.MipSize(t.width, mip)*gpu.MipSize(t.height, mip)*4)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.GetTexImage(gl.TEXTURE_2D, int32(mip), gl.RGBA, gl.FLOAT, gl.Ptr(out))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return out, glError("read texture")
}

func (t *Texture2D) bind(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

// Surface renders into mip 0 of its texture through a framebuffer object.
type Surface struct {
	*Texture2D
	fbo   uint32
	depth *DepthBuffer
}

func newSurface(d *Device, w, h, mips int) (*Surface, error) {
	tex, err := allocTexture2D(d, w, h, mips, nil)
	if err != nil {
		return nil, err
	}
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	s := &Surface{Texture2D: tex}
	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)
	restoreTarget(d)
	return s, nil
}

// Bind makes s the render target with depth attached and sets the viewport.
func (s *Surface) Bind(depth gpu.DepthBuffer) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	var rbo uint32
	if depth != nil {
		db, ok := depth.(*DepthBuffer)
		if !ok {
			restoreTarget(s.dev)
			return fmt.Errorf("opengl: depth buffer %T is from another backend", depth)
		}
		if db.width != s.width || db.height != s.height {
			restoreTarget(s.dev)
			return fmt.Errorf("%w: depth %dx%d for surface %dx%d",
				gpu.ErrDimensionMismatch, db.width, db.height, s.width, s.height)
		}
		rbo = db.rbo
		s.depth = db
	} else {
		s.depth = nil
	}
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rbo)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		restoreTarget(s.dev)
		return fmt.Errorf("%w: framebuffer incomplete: status=0x%X", gpu.ErrResourceCreation, status)
	}
	gl.Viewport(0, 0, int32(s.width), int32(s.height))
	s.dev.target = s
	return nil
}

func (s *Surface) Clear(c core.Color) {
	if s.dev.target != s {
		return
	}
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (s *Surface) Release() {
	if s.fbo != 0 {
		if s.dev.target == s {
			s.dev.ResetRenderTarget()
		}
		gl.DeleteFramebuffers(1, &s.fbo)
		s.fbo = 0
	}
	s.Texture2D.Release()
}

// restoreTarget rebinds whatever was current before a temporary binding.
func restoreTarget(d *Device) {
	if d.target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, d.target.fbo)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	}
}

// DepthBuffer is a 24-bit depth renderbuffer.
type DepthBuffer struct {
	dev    *Device
	rbo    uint32
	width  int
	height int
}

func newDepthBuffer(d *Device, w, h int) (*DepthBuffer, error) {
	db := &DepthBuffer{dev: d}
	gl.GenRenderbuffers(1, &db.rbo)
	d.track(1)
	if err := db.Resize(w, h); err != nil {
		db.Release()
		return nil, err
	}
	return db, nil
}

func (db *DepthBuffer) Width() int  { return db.width }
func (db *DepthBuffer) Height() int { return db.height }

func (db *DepthBuffer) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: depth buffer %dx%d", gpu.ErrResourceCreation, w, h)
	}
	if w == db.width && h == db.height {
		return nil
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, db.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	if err := glError("depth storage"); err != nil {
		return fmt.Errorf("%w: %w", gpu.ErrResourceCreation, err)
	}
	db.width, db.height = w, h
	return nil
}

func (db *DepthBuffer) Release() {
	if db.rbo == 0 {
		return
	}
	gl.DeleteRenderbuffers(1, &db.rbo)
	db.rbo = 0
	db.dev.track(-1)
}

// Cubemap is an RGBA32F cube texture with a mip chain. Faces follow the
// GL order +X, -X, +Y, -Y, +Z, -Z.
type Cubemap struct {
	dev    *Device
	id     uint32
	width  int
	height int
	mips   int
}

func newCubemap(d *Device, w, h, mips int) (*Cubemap, error) {
	c := &Cubemap{dev: d, width: w, height: h, mips: mips}
	gl.GenTextures(1, &c.id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
	for m := 0; m < mips; m++ {
		for face := 0; face < 6; face++ {
			gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), int32(m), gl.RGBA32F,
				int32(gpu.MipSize(w, m)), int32(gpu.MipSize(h, m)), 0, gl.RGBA, gl.FLOAT, nil)
		}
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if mips > 1 {
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAX_LEVEL, int32(mips-1))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	d.track(1)

	if err := glError("allocate cubemap"); err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceCreation, err)
	}
	return c, nil
}

func (c *Cubemap) Width() int    { return c.width }
func (c *Cubemap) Height() int   { return c.height }
func (c *Cubemap) MipCount() int { return c.mips }

// CopyFace copies mip 0 of src into (face, mip) with glCopyTexSubImage2D.
func (c *Cubemap) CopyFace(src gpu.Surface, face, mip int) error {
	s, ok := src.(*Surface)
	if !ok {
		return fmt.Errorf("opengl: surface %T is from another backend", src)
	}
	if face < 0 || face > 5 || mip < 0 || mip >= c.mips {
		return fmt.Errorf("%w: face %d mip %d of a %d level cubemap", gpu.ErrDimensionMismatch, face, mip, c.mips)
	}
	w, h := gpu.MipSize(c.width, mip), gpu.MipSize(c.height, mip)
	if s.width != w || s.height != h {
		return fmt.Errorf("%w: surface %dx%d into mip %d of %dx%d",
			gpu.ErrDimensionMismatch, s.width, s.height, mip, w, h)
	}

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, s.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
	gl.CopyTexSubImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), int32(mip), 0, 0, 0, 0, int32(w), int32(h))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	restoreTarget(c.dev)
	return glError("copy cube face")
}

func (c *Cubemap) ReadPixels(face, mip int) ([]float32, error) {
	if face < 0 || face > 5 || mip < 0 || mip >= c.mips {
		return nil, fmt.Errorf("opengl: cubemap has no face %d mip %d", face, mip)
	}
	out := make([]float32, gpu.MipSize(c.width, mip)*gpu.MipSize(c.height, mip)*4)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
	gl.GetTexImage(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), int32(mip), gl.RGBA, gl.FLOAT, gl.Ptr(out))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return out, glError("read cubemap")
}

func (c *Cubemap) bind(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
}

func (c *Cubemap) Release() {
	if c.id == 0 {
		return
	}
	gl.DeleteTextures(1, &c.id)
	c.id = 0
	c.dev.track(-1)
}

func ptrOrNil(data []float32) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
