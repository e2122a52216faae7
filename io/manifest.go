package io

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ibl-engine/gpu"
	"ibl-engine/ibl"
)

// ManifestVersion is written into every manifest.
const ManifestVersion = "1.0"

// Manifest describes one exported bake.
type Manifest struct {
	Version       string      `json:"version"`
	Name          string      `json:"name"`
	Backend       string      `json:"backend"`
	Format        Format      `json:"format"`
	Options       OptionsData `json:"options"`
	PrefilterMips int         `json:"prefilter_mips"`
	Roughness     []float32   `json:"roughness"`
	Stages        []StageData `json:"stages"`
	Maps          []MapData   `json:"maps"`
	TotalMillis   float64     `json:"total_ms"`
}

// OptionsData mirrors ibl.Options.
type OptionsData struct {
	EnvironmentSize       int     `json:"environment_size"`
	IrradianceSize        int     `json:"irradiance_size"`
	PrefilterSize         int     `json:"prefilter_size"`
	PrefilterMips         int     `json:"prefilter_mips"`
	BRDFSize              int     `json:"brdf_size"`
	IrradianceSampleDelta float32 `json:"irradiance_sample_delta"`
	PrefilterSamples      int     `json:"prefilter_samples"`
	BRDFSamples           int     `json:"brdf_samples"`
}

// StageData records one bake stage.
type StageData struct {
	Name     string  `json:"name"`
	Draws    int     `json:"draws"`
	Surfaces int     `json:"surfaces"`
	Millis   float64 `json:"ms"`
}

// MapData lists the files of one output map, relative to the manifest.
type MapData struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Mips   int      `json:"mips"`
	Files  []string `json:"files"`
}

// Names of the exported maps.
const (
	MapRadiance    = "radiance"
	MapIrradiance  = "irradiance"
	MapPrefiltered = "prefiltered"
	MapBRDF        = "brdf"
)

// NewManifest records the settings and statistics of a bake. Maps is
// filled in by ExportResult.
func NewManifest(res *ibl.Result, opts ibl.Options, backend, name string, format Format) *Manifest {
	m := &Manifest{
		Version: ManifestVersion,
		Name:    name,
		Backend: backend,
		Format:  format,
		Options: OptionsData{
			EnvironmentSize:       opts.EnvironmentSize,
			IrradianceSize:        opts.IrradianceSize,
			PrefilterSize:         opts.PrefilterSize,
			PrefilterMips:         opts.PrefilterMips,
			BRDFSize:              opts.BRDFSize,
			IrradianceSampleDelta: opts.IrradianceSampleDelta,
			PrefilterSamples:      opts.PrefilterSamples,
			BRDFSamples:           opts.BRDFSamples,
		},
		PrefilterMips: res.PrefilterMips,
		Roughness:     append([]float32(nil), res.Stats.Roughness...),
		TotalMillis:   float64(res.Stats.Total.Microseconds()) / 1000,
	}
	for _, st := range res.Stats.Stages {
		m.Stages = append(m.Stages, StageData{
			Name:     st.Name,
			Draws:    st.Draws,
			Surfaces: st.Surfaces,
			Millis:   float64(st.Duration.Microseconds()) / 1000,
		})
	}
	return m
}

// ExportResult writes the four maps of res into dir, prefixing every file
// with name, and saves the manifest as <dir>/<name>.json.
func ExportResult(res *ibl.Result, opts ibl.Options, backend, dir, name string, format Format) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	m := NewManifest(res, opts, backend, name, format)

	cubes := []struct {
		name string
		tex  gpu.Cubemap
	}{
		{MapRadiance, res.Radiance},
		{MapIrradiance, res.Irradiance},
		{MapPrefiltered, res.Prefiltered},
	}
	for _, c := range cubes {
		paths, err := ExportCubemap(c.tex, dir, name+"_"+c.name, format)
		if err != nil {
			return nil, err
		}
		m.Maps = append(m.Maps, mapData(c.name, c.tex, dir, paths))
	}

	path, err := ExportLUT(res.BRDF, dir, name+"_"+MapBRDF, format)
	if err != nil {
		return nil, err
	}
	m.Maps = append(m.Maps, mapData(MapBRDF, res.BRDF, dir, []string{path}))

	if err := SaveManifest(filepath.Join(dir, name+".json"), m); err != nil {
		return nil, err
	}
	return m, nil
}

func mapData(name string, tex gpu.Texture, dir string, paths []string) MapData {
	files := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = rel
		}
		files[i] = p
	}
	return MapData{Name: name, Width: tex.Width(), Height: tex.Height(), Mips: tex.MipCount(), Files: files}
}

// SaveManifest serializes a manifest to a JSON file.
func SaveManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadManifest deserializes a manifest JSON file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
