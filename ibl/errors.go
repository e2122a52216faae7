package ibl

import (
	"errors"
	"fmt"

	"ibl-engine/gpu"
	"ibl-engine/scene"
)

// ErrBake matches every error returned by Baker.Bake.
var ErrBake = errors.New("ibl bake failed")

// Failure causes, re-exported so callers only need this package.
var (
	ErrIO                = scene.ErrIO
	ErrResourceCreation  = gpu.ErrResourceCreation
	ErrShaderCompile     = gpu.ErrShaderCompile
	ErrDimensionMismatch = gpu.ErrDimensionMismatch
)

// BakeError is the single error reported for a failed bake.
type BakeError struct {
	Stage string
	Err   error
}

func (e *BakeError) Error() string {
	return fmt.Sprintf("ibl: bake failed in %s stage: %v", e.Stage, e.Err)
}

// Unwrap exposes both ErrBake and the underlying cause to errors.Is.
func (e *BakeError) Unwrap() []error {
	return []error{ErrBake, e.Err}
}
