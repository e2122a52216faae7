// Package software implements gpu.Device on the CPU. It rasterises the
// same programs the OpenGL backend compiles, using their Go vertex and
// fragment stages, so bakes run headless and deterministically.
package software

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/log"
)

// BackendName is the name the device registers under.
const BackendName = "software"

func init() {
	gpu.Register(BackendName, func(opts gpu.Options) (gpu.Device, error) {
		return New(opts)
	})
}

// Device is a CPU rasteriser. Rows of each draw are split into bands that
// run on a worker pool.
type Device struct {
	logger  log.Logger
	workers int
	pool    worker.DynamicWorkerPool

	target *Surface
	live   int
	draws  int
}

// New creates a software device.
func New(opts gpu.Options) (*Device, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	d := &Device{
		logger:  log.New("software"),
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, workers*bandsPerWorker, time.Second),
	}
	d.logger.Infof("software device with %d raster workers", workers)
	return d, nil
}

func (d *Device) Name() string { return BackendName }

// Live returns the number of resources created and not yet released.
func (d *Device) Live() int { return d.live }

// Draws returns the number of draw calls executed so far.
func (d *Device) Draws() int { return d.draws }

func (d *Device) track(n int) { d.live += n }

func (d *Device) CreateSurface(width, height, mipCount int) (gpu.Surface, error) {
	if width <= 0 || height <= 0 || mipCount < 1 {
		return nil, fmt.Errorf("%w: surface %dx%d with %d mips", gpu.ErrResourceCreation, width, height, mipCount)
	}
	d.logger.Debugf("create surface %dx%d", width, height)
	return &Surface{Texture2D: newTexture2D(d, width, height, mipCount, false)}, nil
}

func (d *Device) CreateDepthBuffer(width, height int) (gpu.DepthBuffer, error) {
	db := &DepthBuffer{dev: d}
	if err := db.Resize(width, height); err != nil {
		return nil, err
	}
	d.track(1)
	return db, nil
}

func (d *Device) CreateCubemap(width, height, mipCount int) (gpu.Cubemap, error) {
	if width <= 0 || height <= 0 || mipCount < 1 {
		return nil, fmt.Errorf("%w: cubemap %dx%d with %d mips", gpu.ErrResourceCreation, width, height, mipCount)
	}
	d.logger.Debugf("create cubemap %dx%d with %d mips", width, height, mipCount)
	return newCubemap(d, width, height, mipCount), nil
}

func (d *Device) CreateTexture(width, height int, pixels []float32) (gpu.Texture, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: texture %dx%d from %d floats", gpu.ErrResourceCreation, width, height, len(pixels))
	}
	t := newTexture2D(d, width, height, 1, true)
	copy(t.levels[0].pix, pixels)
	return t, nil
}

func (d *Device) CreateMesh(data core.MeshData) (gpu.Mesh, error) {
	if len(data.Indices) == 0 || len(data.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: mesh with %d indices", gpu.ErrResourceCreation, len(data.Indices))
	}
	for _, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return nil, fmt.Errorf("%w: index %d out of range for %d vertices",
				gpu.ErrResourceCreation, idx, len(data.Vertices))
		}
	}
	d.track(1)
	return &Mesh{
		dev:      d,
		vertices: append([]core.Vertex(nil), data.Vertices...),
		indices:  append([]uint32(nil), data.Indices...),
	}, nil
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Vertex == nil || src.Fragment == nil {
		return nil, fmt.Errorf("%w: program %q has no CPU stages", gpu.ErrShaderCompile, src.Name)
	}
	d.track(1)
	return &Program{dev: d, src: src}, nil
}

func (d *Device) ResetRenderTarget() {
	d.target = nil
}

// Release stops the raster workers. Resources must be released first.
func (d *Device) Release() {
	if d.live != 0 {
		d.logger.Warningf("releasing device with %d live resources", d.live)
	}
	d.target = nil
	d.pool.Stop()
}

// Mesh is an indexed triangle list kept in system memory.
type Mesh struct {
	dev      *Device
	vertices []core.Vertex
	indices  []uint32
	freed    bool
}

func (m *Mesh) IndexCount() int { return len(m.indices) }

func (m *Mesh) Release() {
	if m.freed {
		return
	}
	m.freed = true
	m.dev.track(-1)
}
