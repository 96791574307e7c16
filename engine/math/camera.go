package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Tau is a full turn in radians.
const Tau = 2 * gomath.Pi

// PerspectiveLH is a left handed perspective projection mapping depth to
// [0, 1], with Y flipped to match Vulkan's downward clip space Y axis.
func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := 1 / float32(gomath.Tan(float64(fovY)/2))
	w := h / aspect
	r := far / (far - near)
	return mgl32.Mat4{
		w, 0, 0, 0,
		0, -h, 0, 0,
		0, 0, r, 1,
		0, 0, -r * near, 0,
	}
}

// ViewPitchYaw builds a view matrix: rotate by pitch about X then yaw about
// Y, after moving the world so the eye sits at the origin.
func ViewPitchYaw(position mgl32.Vec3, pitch, yaw float32) mgl32.Mat4 {
	rotation := mgl32.HomogRotate3DX(pitch).Mul4(mgl32.HomogRotate3DY(yaw))
	return rotation.Mul4(mgl32.Translate3D(-position.X(), -position.Y(), -position.Z()))
}

// LookDir is the unit vector the camera faces. Yaw zero looks down +Z.
func LookDir(pitch, yaw float32) mgl32.Vec3 {
	sp, cp := sincos(pitch)
	sy, cy := sincos(yaw)
	return mgl32.Vec3{-sy * cp, sp, cy * cp}
}

func FlatForward(yaw float32) mgl32.Vec3 {
	sy, cy := sincos(yaw)
	return mgl32.Vec3{-sy, 0, cy}
}

func FlatRight(yaw float32) mgl32.Vec3 {
	sy, cy := sincos(yaw)
	return mgl32.Vec3{cy, 0, sy}
}

// WrapAngle maps a into [0, Tau).
func WrapAngle(a float32) float32 {
	r := float32(gomath.Mod(float64(a), Tau))
	if r < 0 {
		r += Tau
	}
	if r >= Tau {
		r = 0
	}
	return r
}

// ClampPitch keeps the camera from flipping over the poles.
func ClampPitch(pitch float32) float32 {
	return Clamp(pitch, -Tau/4, Tau/4)
}

func sincos(a float32) (float32, float32) {
	s, c := gomath.Sincos(float64(a))
	return float32(s), float32(c)
}
