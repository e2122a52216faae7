package ibl

import (
	"fmt"

	"ibl-engine/gpu"
)

// Cubemap is a six-faced texture with a mip chain, filled face by face
// from offscreen surfaces.
type Cubemap struct {
	tex    gpu.Cubemap
	width  int
	height int
	mips   int
}

// NewCubemap allocates a cubemap. Its faces are undefined until written.
func NewCubemap(dev gpu.Device, width, height, mips int) (*Cubemap, error) {
	tex, err := dev.CreateCubemap(width, height, mips)
	if err != nil {
		return nil, fmt.Errorf("cubemap %dx%d with %d mips: %w", width, height, mips, err)
	}
	return &Cubemap{tex: tex, width: width, height: height, mips: mips}, nil
}

func (c *Cubemap) Width() int    { return c.width }
func (c *Cubemap) Height() int   { return c.height }
func (c *Cubemap) MipCount() int { return c.mips }

// Texture is the sampled view over the full mip chain.
func (c *Cubemap) Texture() gpu.Cubemap { return c.tex }

// WriteFaces copies six surfaces into the faces of mip level mip. faces
// must be in FaceOrientations order; width and height must equal the mip
// extent and every surface must have exactly that size.
func (c *Cubemap) WriteFaces(faces [6]*Surface, width, height, mip int) error {
	if mip < 0 || mip >= c.mips {
		return fmt.Errorf("%w: mip %d of a %d level cubemap", gpu.ErrDimensionMismatch, mip, c.mips)
	}
	mw, mh := gpu.MipSize(c.width, mip), gpu.MipSize(c.height, mip)
	if width != mw || height != mh {
		return fmt.Errorf("%w: region %dx%d for mip %d of %dx%d",
			gpu.ErrDimensionMismatch, width, height, mip, mw, mh)
	}
	for i, s := range faces {
		if s == nil {
			return fmt.Errorf("ibl: face %d surface missing", i)
		}
		if s.Width() != width || s.Height() != height {
			return fmt.Errorf("%w: face %d surface %dx%d into %dx%d",
				gpu.ErrDimensionMismatch, i, s.Width(), s.Height(), width, height)
		}
		if err := c.tex.CopyFace(s.Target(), i, mip); err != nil {
			return fmt.Errorf("copy face %d mip %d: %w", i, mip, err)
		}
	}
	return nil
}

// detach hands ownership of the texture to the caller.
func (c *Cubemap) detach() gpu.Cubemap {
	t := c.tex
	c.tex = nil
	return t
}

func (c *Cubemap) Release() {
	if c.tex != nil {
		c.tex.Release()
		c.tex = nil
	}
}
