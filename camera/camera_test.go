package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 2)

	if cam.Target != (mgl32.Vec3{}) {
		t.Errorf("expected target at origin, got %v", cam.Target)
	}
	if math.Abs(float64(cam.Distance-3.2)) > 1e-5 {
		t.Errorf("expected distance 3.2, got %f", cam.Distance)
	}
	if math.Abs(float64(cam.Aspect()-1280.0/720.0)) > 1e-5 {
		t.Errorf("unexpected aspect %f", cam.Aspect())
	}
}

func TestPositionDistance(t *testing.T) {
	cam := New(800, 600, 2)

	testCases := []struct{ yaw, pitch float32 }{
		{0, 0},
		{1, 0.5},
		{-2.5, -1.2},
	}

	for _, tc := range testCases {
		cam.Yaw, cam.Pitch = tc.yaw, tc.pitch
		d := cam.Position().Sub(cam.Target).Len()
		if math.Abs(float64(d-cam.Distance)) > 1e-4 {
			t.Errorf("yaw=%f pitch=%f: eye at distance %f, want %f", tc.yaw, tc.pitch, d, cam.Distance)
		}
	}
}

func TestZeroYawLooksDownstream(t *testing.T) {
	cam := New(800, 600, 2)
	cam.Yaw, cam.Pitch = 0, 0

	// Eye is upstream of the target
	if p := cam.Position(); p.Z() >= 0 || math.Abs(float64(p.X())) > 1e-5 {
		t.Errorf("expected eye on -Z axis, got %v", p)
	}

	// Target sits in front of the eye: negative view-space z
	v := cam.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if v.Z() >= 0 {
		t.Errorf("expected target in front of camera, got view z=%f", v.Z())
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	cam := New(800, 600, 2)

	cam.Orbit(0, 100000)
	if cam.Pitch != maxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", float32(maxPitch), cam.Pitch)
	}

	cam.Orbit(0, -100000)
	if cam.Pitch != -maxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", float32(-maxPitch), cam.Pitch)
	}
}

func TestOrbitWrapsYaw(t *testing.T) {
	cam := New(800, 600, 2)
	cam.Yaw = 0

	// Two full viewport widths is one revolution
	cam.Orbit(1600, 0)
	if math.Abs(float64(cam.Yaw)) > 1e-4 {
		t.Errorf("expected yaw back at 0, got %f", cam.Yaw)
	}

	cam.Orbit(600, 0)
	if cam.Yaw < -math.Pi || cam.Yaw >= math.Pi {
		t.Errorf("yaw %f outside [-pi, pi)", cam.Yaw)
	}
}

func TestZoomClamping(t *testing.T) {
	cam := New(800, 600, 2)

	cam.ZoomBy(1000)
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MinDistance, cam.Distance)
	}

	cam.ZoomBy(0.0001)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MaxDistance, cam.Distance)
	}

	before := cam.Distance
	cam.ZoomBy(0)
	if cam.Distance != before {
		t.Error("non-positive zoom factor should be ignored")
	}
}

func TestReset(t *testing.T) {
	cam := New(800, 600, 2)
	yaw, pitch, dist := cam.Yaw, cam.Pitch, cam.Distance

	cam.Orbit(123, 45)
	cam.ZoomBy(2)
	cam.Target = mgl32.Vec3{1, 2, 3}
	cam.Reset()

	if cam.Yaw != yaw || cam.Pitch != pitch || cam.Distance != dist || cam.Target != (mgl32.Vec3{}) {
		t.Errorf("reset did not restore defaults: %+v", cam)
	}
}
