package math

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func TestPerspectiveLHDepthRange(t *testing.T) {
	proj := PerspectiveLH(mgl32.DegToRad(90), 16.0/9.0, 0.1, 100)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, 0.1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, 100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), eps)
	assert.InDelta(t, 1, far.Z()/far.W(), eps)
}

func TestPerspectiveLHFlipsY(t *testing.T) {
	proj := PerspectiveLH(mgl32.DegToRad(90), 1, 0.1, 100)
	up := proj.Mul4x1(mgl32.Vec4{0, 1, 1, 1})
	assert.Less(t, up.Y(), float32(0))

	// The aspect ratio squeezes X only.
	wide := PerspectiveLH(mgl32.DegToRad(90), 2, 0.1, 100)
	assert.InDelta(t, proj[0]/2, wide[0], eps)
	assert.InDelta(t, proj[5], wide[5], eps)
}

func TestViewPitchYawMovesEyeToOrigin(t *testing.T) {
	eye := mgl32.Vec3{1, 2, 3}
	view := ViewPitchYaw(eye, 0.3, 1.2)
	got := view.Mul4x1(eye.Vec4(1))
	assert.InDelta(t, 0, got.X(), eps)
	assert.InDelta(t, 0, got.Y(), eps)
	assert.InDelta(t, 0, got.Z(), eps)
}

func TestLookDir(t *testing.T) {
	assert.True(t, LookDir(0, 0).ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, eps))
	assert.True(t, LookDir(Tau/4, 0).ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, eps))
	assert.True(t, FlatRight(0).ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, eps))
	assert.InDelta(t, 0, FlatForward(0.7).Dot(FlatRight(0.7)), eps)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, Tau-0.5, WrapAngle(-0.5), eps)
	assert.InDelta(t, 0.5, WrapAngle(Tau+0.5), eps)
	assert.InDelta(t, 0, WrapAngle(0), eps)
}

func TestClampPitch(t *testing.T) {
	assert.InDelta(t, Tau/4, ClampPitch(3), eps)
	assert.InDelta(t, -Tau/4, ClampPitch(-3), eps)
	assert.InDelta(t, 0.2, ClampPitch(0.2), eps)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(10), Clamp(uint32(4), 10, 20))
	assert.Equal(t, uint32(20), Clamp(uint32(40), 10, 20))
	assert.Equal(t, 15, Clamp(15, 10, 20))
}
