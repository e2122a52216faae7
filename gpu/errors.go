package gpu

import "errors"

var (
	ErrResourceCreation  = errors.New("gpu: resource creation failed")
	ErrShaderCompile     = errors.New("gpu: shader program build failed")
	ErrDimensionMismatch = errors.New("gpu: source and destination dimensions differ")
	ErrNoRenderTarget    = errors.New("gpu: no render target bound")
	ErrUnknownBackend    = errors.New("gpu: unknown backend")
)
