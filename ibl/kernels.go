package ibl

import (
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/scene"
)

// CPU forms of the pass programs. They mirror the GLSL in shaders.go so
// every backend bakes the same maps.

func captureVertex(v core.Vertex, cam *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
	clip := cam.Projection.Mul4(cam.View).Mul4x1(v.Position.Vec4(1))
	return clip, v.Position
}

func fullscreenVertex(v core.Vertex, _ *gpu.CameraBlock) (mgl32.Vec4, mgl32.Vec3) {
	return mgl32.Vec4{v.Position[0], v.Position[1], 0, 1}, mgl32.Vec3{v.UV[0], v.UV[1], 0}
}

var black = mgl32.Vec4{0, 0, 0, 1}

// minNDotV keeps grazing views out of the 1/NdotV visibility term.
const minNDotV = 1e-4

func rectToCubeFragment(in *gpu.FragmentInput) mgl32.Vec4 {
	env, ok := boundTexture(in, 0).(gpu.Sampler2D)
	if !ok {
		return black
	}
	u, v := scene.EquirectUV(in.Varying)
	c := env.Sample(u, v)
	c[3] = 1
	return c
}

func irradianceFragment(delta float32) gpu.FragmentFunc {
	return func(in *gpu.FragmentInput) mgl32.Vec4 {
		env, ok := boundTexture(in, 0).(gpu.SamplerCube)
		if !ok {
			return black
		}
		n := in.Varying.Normalize()
		up := mgl32.Vec3{0, 1, 0}
		if math32.Abs(n[1]) >= 0.999 {
			up = mgl32.Vec3{0, 0, 1}
		}
		right := up.Cross(n).Normalize()
		up = n.Cross(right).Normalize()

		var sum mgl32.Vec3
		var count float32
		for phi := float32(0); phi < 2*math32.Pi; phi += delta {
			sinPhi, cosPhi := math32.Sincos(phi)
			for theta := float32(0); theta < 0.5*math32.Pi; theta += delta {
				sinTheta, cosTheta := math32.Sincos(theta)
				dir := right.Mul(sinTheta * cosPhi).
					Add(up.Mul(sinTheta * sinPhi)).
					Add(n.Mul(cosTheta))
				sum = sum.Add(env.SampleCube(dir, 0).Vec3().Mul(cosTheta * sinTheta))
				count++
			}
		}
		return sum.Mul(math32.Pi / count).Vec4(1)
	}
}

func prefilterFragment(samples int) gpu.FragmentFunc {
	seq := hammersleySequence(samples)
	return func(in *gpu.FragmentInput) mgl32.Vec4 {
		env, ok := boundTexture(in, 0).(gpu.SamplerCube)
		if !ok {
			return black
		}
		// N = V = R
		n := in.Varying.Normalize()
		roughness := in.Prefilter.Roughness
		res := max(in.Prefilter.SourceSize, 1)
		saTexel := 4 * math32.Pi / (6 * res * res)

		var sum mgl32.Vec3
		var weight float32
		for _, xi := range seq {
			h := ImportanceSampleGGX(xi, n, roughness)
			nDotH := n.Dot(h)
			l := h.Mul(2 * nDotH).Sub(n).Normalize()
			nDotL := n.Dot(l)
			if nDotL <= 0 {
				continue
			}
			var lod float32
			if roughness > 0 {
				nDotH = max(nDotH, 0)
				pdf := DistributionGGX(nDotH, roughness)*nDotH/(4*nDotH) + 0.0001
				saSample := 1 / (float32(len(seq))*pdf + 0.0001)
				lod = 0.5 * math32.Log2(saSample/saTexel)
			}
			sum = sum.Add(env.SampleCube(l, lod).Vec3().Mul(nDotL))
			weight += nDotL
		}
		if weight > 0 {
			sum = sum.Mul(1 / weight)
		}
		return sum.Vec4(1)
	}
}

func brdfFragment(samples int) gpu.FragmentFunc {
	seq := hammersleySequence(samples)
	return func(in *gpu.FragmentInput) mgl32.Vec4 {
		a, b := integrateBRDF(in.Varying[0], in.Varying[1], seq)
		return mgl32.Vec4{a, b, 0, 1}
	}
}

func boundTexture(in *gpu.FragmentInput, slot int) gpu.Texture {
	if slot >= len(in.Textures) {
		return nil
	}
	return in.Textures[slot]
}

// Hammersley returns point i of an n-point Hammersley set on [0, 1)².
func Hammersley(i, n uint32) mgl32.Vec2 {
	return mgl32.Vec2{float32(i) / float32(n), float32(bits.Reverse32(i)) * 2.3283064365386963e-10}
}

func hammersleySequence(n int) []mgl32.Vec2 {
	seq := make([]mgl32.Vec2, n)
	for i := range seq {
		seq[i] = Hammersley(uint32(i), uint32(n))
	}
	return seq
}

// ImportanceSampleGGX maps xi to a half vector around n distributed by the
// GGX lobe of the given roughness.
func ImportanceSampleGGX(xi mgl32.Vec2, n mgl32.Vec3, roughness float32) mgl32.Vec3 {
	a := roughness * roughness
	phi := 2 * math32.Pi * xi[0]
	cosTheta := math32.Sqrt((1 - xi[1]) / (1 + (a*a-1)*xi[1]))
	sinTheta := math32.Sqrt(max(1-cosTheta*cosTheta, 0))
	sinPhi, cosPhi := math32.Sincos(phi)

	up := mgl32.Vec3{0, 0, 1}
	if math32.Abs(n[2]) >= 0.999 {
		up = mgl32.Vec3{1, 0, 0}
	}
	tangent := up.Cross(n).Normalize()
	bitangent := n.Cross(tangent)

	return tangent.Mul(cosPhi * sinTheta).
		Add(bitangent.Mul(sinPhi * sinTheta)).
		Add(n.Mul(cosTheta)).
		Normalize()
}

// DistributionGGX is the Trowbridge-Reitz normal distribution.
func DistributionGGX(nDotH, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	d := nDotH*nDotH*(a2-1) + 1
	return a2 / (math32.Pi * d * d)
}

// GeometrySmith is Smith's shadowing term with the IBL remapping
// k = roughness²/2.
func GeometrySmith(nDotV, nDotL, roughness float32) float32 {
	k := roughness * roughness / 2
	ggx := func(nDotX float32) float32 { return nDotX / (nDotX*(1-k) + k) }
	return ggx(nDotV) * ggx(nDotL)
}

// IntegrateBRDF returns the split-sum scale and bias applied to F0 for a
// view angle and roughness.
func IntegrateBRDF(nDotV, roughness float32, samples int) (scale, bias float32) {
	return integrateBRDF(nDotV, roughness, hammersleySequence(samples))
}

func integrateBRDF(nDotV, roughness float32, seq []mgl32.Vec2) (scale, bias float32) {
	nDotV = max(nDotV, minNDotV)
	v := mgl32.Vec3{math32.Sqrt(max(1-nDotV*nDotV, 0)), 0, nDotV}
	n := mgl32.Vec3{0, 0, 1}

	for _, xi := range seq {
		h := ImportanceSampleGGX(xi, n, roughness)
		vDotH := v.Dot(h)
		l := h.Mul(2 * vDotH).Sub(v).Normalize()

		nDotL := max(l[2], 0)
		nDotH := max(h[2], 0)
		vDotH = max(vDotH, 0)
		if nDotL <= 0 || nDotH <= 0 {
			continue
		}
		g := GeometrySmith(nDotV, nDotL, roughness)
		gVis := g * vDotH / (nDotH * nDotV)
		fc := math32.Pow(1-vDotH, 5)
		scale += (1 - fc) * gVis
		bias += fc * gVis
	}
	count := float32(len(seq))
	return scale / count, bias / count
}
