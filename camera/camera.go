// Package camera provides an orbit camera for the 3D wind tunnel view.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera orbits a target point in wind space.
// Yaw 0 looks downstream from upstream of the object (+Z is the wind direction).
type Camera struct {
	// Target is the orbit center in wind space
	Target mgl32.Vec3

	// Yaw around the Y axis and pitch above the XZ plane, radians
	Yaw, Pitch float32

	// Distance from the target
	Distance float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Distance constraints
	MinDistance, MaxDistance float32

	// Defaults restored by Reset
	home struct {
		yaw, pitch, distance float32
	}
}

// maxPitch keeps the view off the poles where the up vector degenerates.
const maxPitch = 1.5

// New creates a camera framing a windframe of the given width.
func New(viewportW, viewportH, frameWidth float32) *Camera {
	c := &Camera{
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: frameWidth * 0.25,
		MaxDistance: frameWidth * 8,
	}
	c.home.yaw = -0.6
	c.home.pitch = 0.35
	c.home.distance = frameWidth * 1.6
	c.Reset()
	return c
}

// Position returns the eye position in wind space.
func (c *Camera) Position() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	offset := mgl32.Vec3{
		float32(math.Sin(float64(c.Yaw))) * cp,
		float32(math.Sin(float64(c.Pitch))),
		-float32(math.Cos(float64(c.Yaw))) * cp,
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

// View returns the view matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// Aspect returns the viewport aspect ratio.
func (c *Camera) Aspect() float32 {
	if c.ViewportH == 0 {
		return 1
	}
	return c.ViewportW / c.ViewportH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Orbit rotates the camera by a drag of dx, dy screen pixels.
// A drag across the full viewport width turns half a revolution.
func (c *Camera) Orbit(dx, dy float32) {
	if c.ViewportW <= 0 || c.ViewportH <= 0 {
		return
	}
	c.Yaw = wrapAngle(c.Yaw + dx/c.ViewportW*math.Pi)
	c.Pitch = clamp(c.Pitch+dy/c.ViewportH*math.Pi, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the distance by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Reset returns the camera to the default orbit around the origin.
func (c *Camera) Reset() {
	c.Target = mgl32.Vec3{}
	c.Yaw = c.home.yaw
	c.Pitch = c.home.pitch
	c.Distance = c.home.distance
}

// wrapAngle maps an angle into [-pi, pi).
func wrapAngle(a float32) float32 {
	r := float32(math.Mod(float64(a)+math.Pi, 2*math.Pi))
	if r < 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
