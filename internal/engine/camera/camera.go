// Package camera provides the look-around camera used inside the sphere.
package camera

import (
	gomath "math"

	"github.com/Faultbox/dualfisheye/pkg/math"
)

// LookCamera sits at the sphere centre and rotates in place. The world is
// Z-up with +X pointing through the front lens.
type LookCamera struct {
	Yaw   float32 // rotation about +Z, radians, 0 looks along +X
	Pitch float32 // elevation, radians
	FOV   float32 // vertical field of view, radians

	MinPitch float32
	MaxPitch float32
	MinFOV   float32
	MaxFOV   float32

	Near float32
	Far  float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewLookCamera creates a camera looking through the front lens.
func NewLookCamera() *LookCamera {
	return &LookCamera{
		FOV:             float32(gomath.Pi / 3),
		MinPitch:        -1.55,
		MaxPitch:        1.55,
		MinFOV:          0.2,
		MaxFOV:          2.8,
		Near:            0.1,
		Far:             100,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Direction returns the unit view direction.
func (c *LookCamera) Direction() math.Vec3 {
	cp := gomath.Cos(float64(c.Pitch))
	return math.Vec3{
		X: float32(cp * gomath.Cos(float64(c.Yaw))),
		Y: float32(cp * gomath.Sin(float64(c.Yaw))),
		Z: float32(gomath.Sin(float64(c.Pitch))),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *LookCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 0, Z: 1}
	return math.LookAt(math.Vec3{}, c.Direction(), up)
}

// ViewProj returns projection * view for the given aspect ratio.
func (c *LookCamera) ViewProj(aspect float32) math.Mat4 {
	return math.Perspective(c.FOV, aspect, c.Near, c.Far).Mul(c.ViewMatrix())
}

// HandleDrag turns the camera by a mouse drag delta in pixels.
func (c *LookCamera) HandleDrag(deltaX, deltaY float32) {
	// Scale with zoom so the image tracks the cursor.
	scale := c.DragSensitivity * c.FOV / float32(gomath.Pi/3)
	c.Yaw -= deltaX * scale
	c.Pitch -= deltaY * scale
	c.Pitch = clamp(c.Pitch, c.MinPitch, c.MaxPitch)
	c.Yaw = float32(gomath.Remainder(float64(c.Yaw), 2*gomath.Pi))
}

// HandleZoom narrows or widens the field of view by wheel steps.
func (c *LookCamera) HandleZoom(delta float32) {
	c.FOV -= delta * c.FOV * c.ZoomSensitivity
	c.FOV = clamp(c.FOV, c.MinFOV, c.MaxFOV)
}

// Reset looks through the front lens again.
func (c *LookCamera) Reset() {
	c.Yaw = 0
	c.Pitch = 0
	c.FOV = float32(gomath.Pi / 3)
}

// LookBehind turns the camera half a revolution.
func (c *LookCamera) LookBehind() {
	c.Yaw = float32(gomath.Remainder(float64(c.Yaw)+gomath.Pi, 2*gomath.Pi))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
