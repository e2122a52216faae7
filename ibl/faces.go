package ibl

import (
	"github.com/go-gl/mathgl/mgl32"

	"ibl-engine/scene"
)

// Orientation is a camera rotation in degrees.
type Orientation struct {
	Pitch, Yaw, Roll float32
}

// Apply points the rig along o.
func (o Orientation) Apply(rig *scene.CameraRig) {
	rig.SetOrientation(o.Pitch, o.Yaw, o.Roll)
}

// FaceOrientations is the capture orientation of each cube face, indexed by
// face. Every per-face stage iterates this table in order. With the rig's
// left-handed convention the faces come out as +X, -X, +Y, -Y, +Z, -Z.
var FaceOrientations = [6]Orientation{
	{Yaw: 90},
	{Yaw: 270},
	{Pitch: -90},
	{Pitch: 90},
	{Yaw: 0},
	{Yaw: 180},
}

// FaceNames labels each face for logs and exported files.
var FaceNames = [6]string{"front", "back", "top", "bottom", "left", "right"}

// FaceDirection returns the world direction through face coordinates
// (s, t) in [0, 1], with t = 0 on row 0 of the face.
func FaceDirection(face int, s, t float32) mgl32.Vec3 {
	sc, tc := 2*s-1, 2*t-1
	var d mgl32.Vec3
	switch face {
	case 0:
		d = mgl32.Vec3{1, -tc, -sc}
	case 1:
		d = mgl32.Vec3{-1, -tc, sc}
	case 2:
		d = mgl32.Vec3{sc, 1, tc}
	case 3:
		d = mgl32.Vec3{sc, -1, -tc}
	case 4:
		d = mgl32.Vec3{sc, -tc, 1}
	default:
		d = mgl32.Vec3{-sc, -tc, -1}
	}
	return d.Normalize()
}
