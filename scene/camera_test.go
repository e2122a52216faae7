package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

func vecNear(a, b mgl32.Vec3, tol float32) bool {
	return a.Sub(b).Len() <= tol
}

func TestCameraRigForward(t *testing.T) {
	tests := []struct {
		name             string
		pitch, yaw, roll float32
		forward, up      mgl32.Vec3
	}{
		{"identity", 0, 0, 0, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{"yaw90", 0, 90, 0, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"yaw270", 0, 270, 0, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"yaw180", 0, 180, 0, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{"lookUp", -90, 0, 0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}},
		{"lookDown", 90, 0, 0, mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1}},
		{"roll90", 0, 0, 90, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCameraRig(90, 1, 0.1, 10)
			c.SetOrientation(tt.pitch, tt.yaw, tt.roll)
			if got := c.GetForward(); !vecNear(got, tt.forward, 1e-4) {
				t.Errorf("forward = %v, want %v", got, tt.forward)
			}
			if got := c.GetUp(); !vecNear(got, tt.up, 1e-4) {
				t.Errorf("up = %v, want %v", got, tt.up)
			}
			if d := c.GetRight().Dot(c.GetForward()); math32.Abs(d) > eps {
				t.Errorf("right·forward = %v, want 0", d)
			}
		})
	}
}

func TestCameraRigViewMapsForwardToPlusZ(t *testing.T) {
	c := NewCameraRig(90, 1, 0.1, 10)
	c.SetOrientation(-30, 45, 10)
	view, _ := c.ComputeViewProjection()

	f := c.GetForward()
	got := view.Mul4x1(f.Vec4(0)).Vec3()
	if !vecNear(got, mgl32.Vec3{0, 0, 1}, 1e-4) {
		t.Errorf("view*forward = %v, want +Z", got)
	}
	r := c.GetRight()
	got = view.Mul4x1(r.Vec4(0)).Vec3()
	if !vecNear(got, mgl32.Vec3{1, 0, 0}, 1e-4) {
		t.Errorf("view*right = %v, want +X", got)
	}
}

func TestPerspectiveLHDepthRange(t *testing.T) {
	near, far := float32(0.5), float32(20)
	proj := PerspectiveLH(mgl32.DegToRad(90), 1, near, far)

	for _, tc := range []struct {
		z, ndc float32
	}{{near, -1}, {far, 1}} {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, tc.z, 1})
		if math32.Abs(clip[3]-tc.z) > eps {
			t.Errorf("w = %v, want view depth %v", clip[3], tc.z)
		}
		if got := clip[2] / clip[3]; math32.Abs(got-tc.ndc) > 1e-4 {
			t.Errorf("z=%v: ndc depth %v, want %v", tc.z, got, tc.ndc)
		}
	}

	// A 90° frustum puts the edge at 45°.
	clip := proj.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	if math32.Abs(clip[0]/clip[3]-1) > 1e-4 || math32.Abs(clip[1]/clip[3]-1) > 1e-4 {
		t.Errorf("45° corner mapped to %v", clip)
	}
}

func TestCameraRigStateRestore(t *testing.T) {
	c := NewCameraRig(60, 16.0/9.0, 0.1, 100)
	c.SetPosition(mgl32.Vec3{1, 2, 3})
	c.SetOrientation(10, 20, 0)
	saved := c.State()
	before := c.GetViewProjectionMatrix()

	c.SetFOV(90)
	c.SetAspect(1)
	c.SetOrientation(90, 0, 0)
	c.SetPosition(mgl32.Vec3{})
	_ = c.GetViewProjectionMatrix()

	c.Restore(saved)
	if c.FOV != 60 || c.AspectRatio != float32(16.0/9.0) {
		t.Errorf("fov/aspect = %v/%v after restore", c.FOV, c.AspectRatio)
	}
	if after := c.GetViewProjectionMatrix(); !after.ApproxEqual(before) {
		t.Errorf("view-projection changed across restore")
	}
}

func TestCameraRigUpdateAspectRatio(t *testing.T) {
	c := NewCameraRig(60, 1, 0.1, 100)
	c.UpdateAspectRatio(1920, 1080)
	if math32.Abs(c.AspectRatio-1920.0/1080.0) > eps {
		t.Errorf("aspect = %v", c.AspectRatio)
	}
	c.UpdateAspectRatio(100, 0)
	if math32.Abs(c.AspectRatio-1920.0/1080.0) > eps {
		t.Errorf("zero height changed aspect to %v", c.AspectRatio)
	}
}
