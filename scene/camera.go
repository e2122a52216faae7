package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/gpu"
)

// CameraRig is a pinhole camera with Euler orientation in degrees.
//
// The rig is left-handed: with zero rotation it looks down +Z with +Y up.
// Yaw turns about +Y towards +X, positive pitch looks down and roll spins
// about the view axis. The interactive scene camera and the IBL bake share
// this rig, so both see the same projection convention.
type CameraRig struct {
	Position    mgl32.Vec3
	Pitch       float32
	Yaw         float32
	Roll        float32
	FOV         float32 // vertical, degrees
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	viewProjMatrix   mgl32.Mat4
	dirty            bool
}

// CameraState is a copy of every mutable rig field, used to restore the
// interactive camera after something borrows it.
type CameraState struct {
	Position         mgl32.Vec3
	Pitch, Yaw, Roll float32
	FOV              float32
	AspectRatio      float32
	NearPlane        float32
	FarPlane         float32
}

func NewCameraRig(fov, aspectRatio, nearPlane, farPlane float32) *CameraRig {
	return &CameraRig{
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *CameraRig) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *CameraRig) SetOrientation(pitch, yaw, roll float32) {
	c.Pitch, c.Yaw, c.Roll = pitch, yaw, roll
	c.dirty = true
}

func (c *CameraRig) SetFOV(degrees float32) {
	c.FOV = degrees
	c.dirty = true
}

func (c *CameraRig) SetAspect(ratio float32) {
	c.AspectRatio = ratio
	c.dirty = true
}

func (c *CameraRig) SetClipPlanes(near, far float32) {
	c.NearPlane, c.FarPlane = near, far
	c.dirty = true
}

func (c *CameraRig) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.SetAspect(width / height)
	}
}

// State snapshots the rig.
func (c *CameraRig) State() CameraState {
	return CameraState{
		Position:    c.Position,
		Pitch:       c.Pitch,
		Yaw:         c.Yaw,
		Roll:        c.Roll,
		FOV:         c.FOV,
		AspectRatio: c.AspectRatio,
		NearPlane:   c.NearPlane,
		FarPlane:    c.FarPlane,
	}
}

// Restore puts back a snapshot taken with State.
func (c *CameraRig) Restore(s CameraState) {
	c.Position = s.Position
	c.Pitch, c.Yaw, c.Roll = s.Pitch, s.Yaw, s.Roll
	c.FOV = s.FOV
	c.AspectRatio = s.AspectRatio
	c.NearPlane, c.FarPlane = s.NearPlane, s.FarPlane
	c.dirty = true
}

// Rotation returns the world rotation built from yaw, pitch and roll.
func (c *CameraRig) Rotation() mgl32.Mat4 {
	yaw := mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw))
	pitch := mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch))
	roll := mgl32.HomogRotate3DZ(mgl32.DegToRad(c.Roll))
	return yaw.Mul4(pitch).Mul4(roll)
}

func (c *CameraRig) GetForward() mgl32.Vec3 {
	return c.Rotation().Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3().Normalize()
}

func (c *CameraRig) GetUp() mgl32.Vec3 {
	return c.Rotation().Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3().Normalize()
}

// GetRight is up × forward, the screen-right axis of a left-handed view.
func (c *CameraRig) GetRight() mgl32.Vec3 {
	return c.GetUp().Cross(c.GetForward()).Normalize()
}

func (c *CameraRig) GetViewProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewProjMatrix
}

// ComputeViewProjection returns the view and projection matrices.
func (c *CameraRig) ComputeViewProjection() (view, projection mgl32.Mat4) {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix, c.projectionMatrix
}

// CameraBlock packages the rig for a shading pass.
func (c *CameraRig) CameraBlock() gpu.CameraBlock {
	view, proj := c.ComputeViewProjection()
	return gpu.CameraBlock{View: view, Projection: proj, Position: c.Position}
}

func (c *CameraRig) updateMatrices() {
	forward := c.GetForward()
	up := c.GetUp()
	c.viewMatrix = LookToLH(c.Position, forward, up)
	c.projectionMatrix = PerspectiveLH(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
	c.viewProjMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.dirty = false
}

// LookToLH builds a left-handed view matrix looking from eye along forward.
// View space has +X right, +Y up and +Z forward.
func LookToLH(eye, forward, up mgl32.Vec3) mgl32.Mat4 {
	f := forward.Normalize()
	r := up.Cross(f).Normalize()
	u := f.Cross(r)

	return mgl32.Mat4{
		r[0], u[0], f[0], 0,
		r[1], u[1], f[1], 0,
		r[2], u[2], f[2], 0,
		-r.Dot(eye), -u.Dot(eye), -f.Dot(eye), 1,
	}
}

// PerspectiveLH maps left-handed view space to OpenGL clip space: w equals
// view depth and depth in [near, far] lands in NDC [-1, 1].
func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	sy := 1 / math32.Tan(fovY/2)
	sx := sy / aspect
	a := (far + near) / (far - near)
	b := -2 * far * near / (far - near)

	return mgl32.Mat4{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, a, 1,
		0, 0, b, 0,
	}
}
