package ibl

import (
	"fmt"

	"ibl-engine/core"
)

// Options sizes the bake. Resolutions are face edge lengths in texels.
type Options struct {
	EnvironmentSize int
	IrradianceSize  int
	PrefilterSize   int
	PrefilterMips   int
	BRDFSize        int

	// IrradianceSampleDelta is the hemisphere step of the irradiance
	// convolution in radians.
	IrradianceSampleDelta float32
	PrefilterSamples      int
	BRDFSamples           int

	ClearColor core.Color
}

func DefaultOptions() Options {
	return Options{
		EnvironmentSize:       2048,
		IrradianceSize:        32,
		PrefilterSize:         256,
		PrefilterMips:         5,
		BRDFSize:              512,
		IrradianceSampleDelta: 0.025,
		PrefilterSamples:      1024,
		BRDFSamples:           1024,
		ClearColor:            core.ColorBlack,
	}
}

// Validate reports the first setting that cannot produce a bake.
func (o Options) Validate() error {
	sizes := []struct {
		name string
		v    int
	}{
		{"environment size", o.EnvironmentSize},
		{"irradiance size", o.IrradianceSize},
		{"prefilter size", o.PrefilterSize},
		{"BRDF size", o.BRDFSize},
		{"prefilter samples", o.PrefilterSamples},
		{"BRDF samples", o.BRDFSamples},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("ibl: %s must be positive, got %d", s.name, s.v)
		}
	}
	if o.PrefilterMips < 1 {
		return fmt.Errorf("ibl: prefilter mips must be at least 1, got %d", o.PrefilterMips)
	}
	if o.PrefilterSize>>(o.PrefilterMips-1) < 1 {
		return fmt.Errorf("ibl: %d prefilter mips do not fit a %d texel face", o.PrefilterMips, o.PrefilterSize)
	}
	if o.IrradianceSampleDelta <= 0 || o.IrradianceSampleDelta > 1 {
		return fmt.Errorf("ibl: irradiance sample delta %v out of range (0, 1]", o.IrradianceSampleDelta)
	}
	return nil
}

// Roughness is the GGX roughness baked into prefilter mip m of a chain of
// mips levels. It spans [0, 1] across the chain.
func Roughness(m, mips int) float32 {
	if mips <= 1 {
		return 0
	}
	return float32(m) / float32(mips-1)
}
