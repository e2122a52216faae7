package ibl

import (
	"fmt"

	"ibl-engine/core"
	"ibl-engine/gpu"
)

// Surface is an offscreen colour target owned by one stage iteration.
// Release is idempotent so it can be deferred on every path.
type Surface struct {
	target gpu.Surface
	width  int
	height int
	mips   int
}

// NewSurface allocates a width×height colour target with mips levels.
func NewSurface(dev gpu.Device, width, height, mips int) (*Surface, error) {
	t, err := dev.CreateSurface(width, height, mips)
	if err != nil {
		return nil, fmt.Errorf("surface %dx%d: %w", width, height, err)
	}
	return &Surface{target: t, width: width, height: height, mips: mips}, nil
}

func (s *Surface) Width() int    { return s.width }
func (s *Surface) Height() int   { return s.height }
func (s *Surface) MipCount() int { return s.mips }

// Target exposes the device surface for sampling or copying.
func (s *Surface) Target() gpu.Surface { return s.target }

// Bind makes the surface the current render target, resizing the shared
// depth buffer to match first.
func (s *Surface) Bind(depth gpu.DepthBuffer) error {
	if depth != nil && (depth.Width() != s.width || depth.Height() != s.height) {
		if err := depth.Resize(s.width, s.height); err != nil {
			return fmt.Errorf("resize depth to %dx%d: %w", s.width, s.height, err)
		}
	}
	return s.target.Bind(depth)
}

func (s *Surface) Clear(c core.Color) {
	s.target.Clear(c)
}

func (s *Surface) Release() {
	if s.target != nil {
		s.target.Release()
		s.target = nil
	}
}

// detach hands ownership of the device surface to the caller.
func (s *Surface) detach() gpu.Surface {
	t := s.target
	s.target = nil
	return t
}

// surfaceSet is the six face targets of one stage iteration.
type surfaceSet [6]*Surface

// newSurfaceSet allocates six size×size surfaces. On failure the surfaces
// already created are released.
func newSurfaceSet(dev gpu.Device, size int) (*surfaceSet, error) {
	var set surfaceSet
	for i := range set {
		s, err := NewSurface(dev, size, size, 1)
		if err != nil {
			set.Release()
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		set[i] = s
	}
	return &set, nil
}

func (set *surfaceSet) Release() {
	for i, s := range set {
		if s != nil {
			s.Release()
			set[i] = nil
		}
	}
}
