package aero

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestResultCoefficients(t *testing.T) {
	r := Result{
		Lift: mgl64.Vec3{0, 30, 0},
		Drag: mgl64.Vec3{0, 0, 6},
	}
	// q = 0.5 * 1.2 * 10^2 = 60, area 0.5
	cl, cd := r.Coefficients(1.2, 10, 0.5)
	if math.Abs(cl-1) > 1e-12 || math.Abs(cd-0.2) > 1e-12 {
		t.Errorf("cl=%f cd=%f, want 1 and 0.2", cl, cd)
	}
	if cl, cd := r.Coefficients(1.2, 0, 0.5); cl != 0 || cd != 0 {
		t.Errorf("expected zero coefficients without wind, got %f %f", cl, cd)
	}
}

func TestResultAdd(t *testing.T) {
	a := Result{Lift: mgl64.Vec3{1, 2, 3}, Torque: mgl64.Vec3{1, 0, 0}}
	b := Result{Lift: mgl64.Vec3{1, 1, 1}, Drag: mgl64.Vec3{0, 0, 2}}
	sum := a.Add(b)
	if sum.Lift != (mgl64.Vec3{2, 3, 4}) || sum.Drag != (mgl64.Vec3{0, 0, 2}) || sum.Torque != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("unexpected sum %+v", sum)
	}
	if f := sum.Force(); f != (mgl64.Vec3{2, 3, 6}) {
		t.Errorf("unexpected force %v", f)
	}
}

func TestResultSideForce(t *testing.T) {
	a := Result{Lift: mgl64.Vec3{0, 30, 0}, Drag: mgl64.Vec3{0, 0, 6}, Side: mgl64.Vec3{4, 0, 0}}
	b := Result{Side: mgl64.Vec3{-1, 0, 0}}
	sum := a.Add(b)
	if sum.Side != (mgl64.Vec3{3, 0, 0}) {
		t.Errorf("expected summed side force, got %v", sum.Side)
	}
	if f := sum.Force(); f != (mgl64.Vec3{3, 30, 6}) {
		t.Errorf("expected side force in the total, got %v", f)
	}
	// Coefficients ignore the span component
	cl, cd := sum.Coefficients(1.2, 10, 0.5)
	if math.Abs(cl-1) > 1e-12 || math.Abs(cd-0.2) > 1e-12 {
		t.Errorf("cl=%f cd=%f, want 1 and 0.2", cl, cd)
	}
}

func TestWindValidate(t *testing.T) {
	if err := (Wind{FrameWidth: 2, FrameDepth: 2, Speed: 10}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	for _, w := range []Wind{
		{FrameWidth: 0, FrameDepth: 2, Speed: 10},
		{FrameWidth: 2, FrameDepth: -1, Speed: 10},
		{FrameWidth: 2, FrameDepth: 2, Speed: 0},
	} {
		if err := w.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%+v: expected ErrInvalidParams, got %v", w, err)
		}
	}
}

func TestSliceZBack(t *testing.T) {
	s := Slice{Index: 3, ZFront: -0.4, Size: 0.2}
	if got := s.ZBack(); math.Abs(float64(got+0.2)) > 1e-6 {
		t.Errorf("ZBack = %f, want -0.2", got)
	}
}
