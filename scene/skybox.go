package scene

import "ibl-engine/gpu"

// IBLMaps is the set of textures produced by an IBL bake.
type IBLMaps struct {
	// Radiance is the environment as a cubemap. Final shading does not
	// sample it but it is kept for reflections and re-filtering.
	Radiance      gpu.Cubemap
	Irradiance    gpu.Cubemap
	Prefiltered   gpu.Cubemap
	PrefilterMips int
	BRDF          gpu.Texture
}

// Sampler slots the scene shader reads the IBL maps from.
const (
	SlotIrradiance = iota
	SlotPrefiltered
	SlotBRDF
	SlotRadiance
)

// Skybox owns the image-based lighting inputs for the scene. The maps are
// handed over once after a bake and released with the skybox.
type Skybox struct {
	maps  IBLMaps
	valid bool
}

func NewSkybox() *Skybox {
	return &Skybox{}
}

// SetIBL takes ownership of maps, releasing any previous set.
func (s *Skybox) SetIBL(maps IBLMaps) {
	s.Destroy()
	s.maps = maps
	s.valid = maps.Irradiance != nil && maps.Prefiltered != nil && maps.BRDF != nil
}

// HasIBL reports whether a complete set of maps is installed.
func (s *Skybox) HasIBL() bool { return s.valid }

// Maps returns the installed maps. The skybox keeps ownership.
func (s *Skybox) Maps() IBLMaps { return s.maps }

// Bind assigns the IBL maps to their sampler slots on a scene program.
func (s *Skybox) Bind(p gpu.Program) {
	if !s.valid {
		return
	}
	p.SetTexture(SlotIrradiance, s.maps.Irradiance)
	p.SetTexture(SlotPrefiltered, s.maps.Prefiltered)
	p.SetTexture(SlotBRDF, s.maps.BRDF)
	if s.maps.Radiance != nil {
		p.SetTexture(SlotRadiance, s.maps.Radiance)
	}
}

// Destroy frees all GPU resources owned by this skybox.
func (s *Skybox) Destroy() {
	for _, t := range []gpu.Texture{s.maps.Radiance, s.maps.Irradiance, s.maps.Prefiltered, s.maps.BRDF} {
		if t != nil {
			t.Release()
		}
	}
	s.maps = IBLMaps{}
	s.valid = false
}
