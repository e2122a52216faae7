package ibl

import (
	"testing"

	"ibl-engine/core"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	want := Options{
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
	if o != want {
		t.Fatalf("DefaultOptions() = %+v\nwant %+v", o, want)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		ok     bool
	}{
		{"defaults", func(*Options) {}, true},
		{"zero environment", func(o *Options) { o.EnvironmentSize = 0 }, false},
		{"negative irradiance", func(o *Options) { o.IrradianceSize = -1 }, false},
		{"zero brdf", func(o *Options) { o.BRDFSize = 0 }, false},
		{"no mips", func(o *Options) { o.PrefilterMips = 0 }, false},
		{"single mip", func(o *Options) { o.PrefilterMips = 1 }, true},
		{"mips down to one texel", func(o *Options) { o.PrefilterSize, o.PrefilterMips = 16, 5 }, true},
		{"too many mips", func(o *Options) { o.PrefilterSize, o.PrefilterMips = 16, 6 }, false},
		{"zero delta", func(o *Options) { o.IrradianceSampleDelta = 0 }, false},
		{"delta above one", func(o *Options) { o.IrradianceSampleDelta = 1.5 }, false},
		{"no prefilter samples", func(o *Options) { o.PrefilterSamples = 0 }, false},
		{"no brdf samples", func(o *Options) { o.BRDFSamples = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.modify(&o)
			err := o.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRoughness(t *testing.T) {
	want := []float32{0, 0.25, 0.5, 0.75, 1}
	for m, r := range want {
		if got := Roughness(m, 5); got != r {
			t.Errorf("Roughness(%d, 5) = %v, want %v", m, got, r)
		}
	}
	if got := Roughness(0, 1); got != 0 {
		t.Errorf("Roughness(0, 1) = %v", got)
	}
}
