package ibl

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func TestHammersley(t *testing.T) {
	tests := []struct {
		i, n uint32
		want mgl32.Vec2
	}{
		{0, 4, mgl32.Vec2{0, 0}},
		{1, 4, mgl32.Vec2{0.25, 0.5}},
		{2, 4, mgl32.Vec2{0.5, 0.25}},
		{3, 4, mgl32.Vec2{0.75, 0.75}},
	}
	for _, tt := range tests {
		if got := Hammersley(tt.i, tt.n); !got.ApproxEqual(tt.want) {
			t.Errorf("Hammersley(%d, %d) = %v, want %v", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestImportanceSampleGGX(t *testing.T) {
	n := mgl32.Vec3{0, 1, 0}
	for i := uint32(0); i < 16; i++ {
		xi := Hammersley(i, 16)
		h := ImportanceSampleGGX(xi, n, 0)
		if !near3(h, n, 1e-4) {
			t.Fatalf("roughness 0 sample %d = %v, want the normal", i, h)
		}
		h = ImportanceSampleGGX(xi, n, 0.7)
		if l := h.Len(); math32.Abs(l-1) > 1e-4 {
			t.Errorf("sample %d not unit: %v", i, l)
		}
		if h.Dot(n) < 0 {
			t.Errorf("sample %d below the hemisphere: %v", i, h)
		}
	}
}

func TestIntegrateBRDF(t *testing.T) {
	// A mirror-like lobe seen head on reflects everything with no Fresnel
	// bias.
	a, b := IntegrateBRDF(1, 0.01, 256)
	if math32.Abs(a-1) > 0.01 || b > 0.01 {
		t.Errorf("IntegrateBRDF(1, 0.01) = (%v, %v), want (1, 0)", a, b)
	}

	for _, nDotV := range []float32{0.3, 0.5, 0.8} {
		a, b := IntegrateBRDF(nDotV, 0.01, 256)
		if math32.Abs(a+b-1) > 0.02 {
			t.Errorf("smooth NdotV=%v: A+B = %v, want ~1", nDotV, a+b)
		}
		a, b = IntegrateBRDF(nDotV, 1, 256)
		if a+b >= 1 || a <= 0 || b < 0 {
			t.Errorf("rough NdotV=%v: (A, B) = (%v, %v)", nDotV, a, b)
		}
	}

	// Grazing views stay finite.
	for _, rough := range []float32{0.01, 0.5, 1} {
		a, b := IntegrateBRDF(0, rough, 64)
		if math32.IsNaN(a) || math32.IsNaN(b) || math32.IsInf(a, 0) || math32.IsInf(b, 0) || a < 0 || b < 0 || a+b > 1.01 {
			t.Errorf("IntegrateBRDF(0, %v) = (%v, %v)", rough, a, b)
		}
	}
}

func TestDistributionAndGeometry(t *testing.T) {
	// D integrates the projected area to one; check the peak instead.
	if d := DistributionGGX(1, 0.5); math32.Abs(d-1/(math32.Pi*0.0625)) > 1e-3 {
		t.Errorf("D(1, 0.5) = %v", d)
	}
	if g := GeometrySmith(1, 1, 0.5); math32.Abs(g-1) > 1e-6 {
		t.Errorf("G(1, 1) = %v, want 1", g)
	}
	if g := GeometrySmith(0.2, 0.2, 1); g >= 0.5 {
		t.Errorf("grazing G = %v, want strong shadowing", g)
	}
}

func TestWithDefines(t *testing.T) {
	src := withDefines(prefilterFragSrc, "SAMPLE_COUNT", 64)
	lines := strings.SplitN(src, "\n", 3)
	if !strings.HasPrefix(lines[0], "#version") {
		t.Fatalf("first line = %q", lines[0])
	}
	if lines[1] != "#define SAMPLE_COUNT 64" {
		t.Errorf("define line = %q", lines[1])
	}
	if got := glslFloat(0.025); !strings.Contains(got, ".") {
		t.Errorf("glslFloat(0.025) = %q is not a float literal", got)
	}
	if got := glslFloat(1); got != "1.0" {
		t.Errorf("glslFloat(1) = %q", got)
	}
}
