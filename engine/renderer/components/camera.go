package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/vkframe/engine/math"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

const (
	// Units per second.
	DefaultMoveSpeed float32 = 2.0
	// Radians per pixel of mouse motion.
	DefaultLookSpeed float32 = 5.0 / 8000.0
)

// Camera is a free flying camera driven by pitch and yaw. Its matrices are
// recomputed for every frame from the extent being rendered, so resizes
// change the aspect ratio without any bookkeeping.
type Camera struct {
	Position mgl32.Vec3
	// Radians, pitch is clamped to a quarter turn either way.
	Pitch float32
	// Radians in [0, Tau).
	Yaw float32

	FovY float32
	Near float32
	Far  float32

	MoveSpeed float32
	LookSpeed float32

	// Last usable aspect ratio, kept while the window is minimized.
	aspect float32
}

func NewCamera() *Camera {
	return &Camera{
		Position:  mgl32.Vec3{0, 0, -2},
		FovY:      mgl32.DegToRad(70),
		Near:      0.1,
		Far:       100,
		MoveSpeed: DefaultMoveSpeed,
		LookSpeed: DefaultLookSpeed,
		aspect:    1,
	}
}

// MoveAxes is the movement requested for a frame, each axis in [-1, 1]:
// X strafes right, Y goes up, Z goes forward along the look direction.
type MoveAxes struct {
	X, Y, Z float32
}

// Look applies relative mouse motion in pixels.
func (c *Camera) Look(dx, dy float64) {
	c.Pitch = math.ClampPitch(c.Pitch - float32(dy)*c.LookSpeed)
	c.Yaw = math.WrapAngle(c.Yaw - float32(dx)*c.LookSpeed)
}

// Move advances the camera by elapsed seconds along axes.
func (c *Camera) Move(axes MoveAxes, elapsed float64) {
	step := c.MoveSpeed * float32(elapsed)
	if step == 0 {
		return
	}
	c.Position = c.Position.
		Add(math.LookDir(c.Pitch, c.Yaw).Mul(axes.Z * step)).
		Add(mgl32.Vec3{0, 1, 0}.Mul(axes.Y * step)).
		Add(math.FlatRight(c.Yaw).Mul(axes.X * step))
}

func (c *Camera) Projection(extent metadata.Extent2D) mgl32.Mat4 {
	if extent.Width > 0 && extent.Height > 0 {
		c.aspect = float32(extent.Width) / float32(extent.Height)
	}
	return math.PerspectiveLH(c.FovY, c.aspect, c.Near, c.Far)
}

func (c *Camera) View() mgl32.Mat4 {
	return math.ViewPitchYaw(c.Position, c.Pitch, c.Yaw)
}

// Uniforms implements renderer.CameraSource.
func (c *Camera) Uniforms(extent metadata.Extent2D) metadata.CameraUniforms {
	return metadata.CameraUniforms{
		Proj: c.Projection(extent),
		View: c.View(),
	}
}
