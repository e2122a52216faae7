// Package opengl implements gpu.Device on an OpenGL 4.1 core context owned
// by a GLFW window. Every call must come from the goroutine that opened the
// device, which the package pins to the main OS thread.
package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ibl-engine/core"
	"ibl-engine/gpu"
	"ibl-engine/log"
)

// BackendName is the name the device registers under.
const BackendName = "opengl"

func init() {
	gpu.Register(BackendName, func(opts gpu.Options) (gpu.Device, error) {
		return New(opts)
	})
}

// Device owns the GL context and tracks the bound render target.
type Device struct {
	window *Window
	logger log.Logger

	target *Surface
	live   int
	draws  int
}

// New opens a window, hidden unless opts.Visible, and initialises GL.
func New(opts gpu.Options) (*Device, error) {
	cfg := DefaultWindowConfig()
	cfg.Visible = opts.Visible
	win, err := NewWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpu.ErrResourceCreation, err)
	}
	if err := gl.Init(); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("%w: failed to initialize OpenGL: %w", gpu.ErrResourceCreation, err)
	}

	d := &Device{window: win, logger: log.New("opengl")}
	d.logger.Infof("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))
	d.logger.Debugf("renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return d, nil
}

func (d *Device) Name() string { return BackendName }

// Window is the window hosting the context.
func (d *Device) Window() *Window { return d.window }

// Live returns the number of resources created and not yet released.
func (d *Device) Live() int { return d.live }

func (d *Device) Draws() int { return d.draws }

func (d *Device) track(n int) { d.live += n }

func (d *Device) CreateSurface(width, height, mipCount int) (gpu.Surface, error) {
	if width <= 0 || height <= 0 || mipCount <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d with %d mips", gpu.ErrResourceCreation, width, height, mipCount)
	}
	return newSurface(d, width, height, mipCount)
}

func (d *Device) CreateDepthBuffer(width, height int) (gpu.DepthBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: depth buffer %dx%d", gpu.ErrResourceCreation, width, height)
	}
	return newDepthBuffer(d, width, height)
}

func (d *Device) CreateCubemap(width, height, mipCount int) (gpu.Cubemap, error) {
	if width <= 0 || height <= 0 || mipCount <= 0 {
		return nil, fmt.Errorf("%w: cubemap %dx%d with %d mips", gpu.ErrResourceCreation, width, height, mipCount)
	}
	return newCubemap(d, width, height, mipCount)
}

func (d *Device) CreateTexture(width, height int, pixels []float32) (gpu.Texture, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: texture %dx%d from %d floats", gpu.ErrResourceCreation, width, height, len(pixels))
	}
	return newTexture2D(d, width, height, pixels)
}

func (d *Device) CreateMesh(data core.MeshData) (gpu.Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", gpu.ErrResourceCreation)
	}
	for _, i := range data.Indices {
		if int(i) >= len(data.Vertices) {
			return nil, fmt.Errorf("%w: index %d out of range", gpu.ErrResourceCreation, i)
		}
	}
	return newMesh(d, data)
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.VertexGLSL == "" || src.FragmentGLSL == "" {
		return nil, fmt.Errorf("%w: %s has no GLSL source", gpu.ErrShaderCompile, src.Name)
	}
	return newGLProgram(d, src)
}

// ResetRenderTarget rebinds the window's framebuffer.
func (d *Device) ResetRenderTarget() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	w, h := d.window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	d.target = nil
}

func (d *Device) Release() {
	if d.window == nil {
		return
	}
	if d.live > 0 {
		d.logger.Warningf("releasing device with %d live resources", d.live)
	}
	d.window.Destroy()
	d.window = nil
}
