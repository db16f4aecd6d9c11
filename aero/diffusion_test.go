package aero

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/parallel"
)

func TestFieldsShadowDecay(t *testing.T) {
	f := NewFields(4)
	f.Configure(0.1, 0, 0.4)

	f.Cover(5, 1)
	f.Advance(nil)

	if f.ShadPrev[5] != 1 {
		t.Fatalf("expected prev shadow 1 after advance, got %f", f.ShadPrev[5])
	}
	if got := f.ShadCurr[5]; math.Abs(float64(got-0.75)) > 1e-6 {
		t.Errorf("expected shadow 0.75 after one slice, got %f", got)
	}

	for i := 0; i < 4; i++ {
		f.Advance(nil)
	}
	if f.ShadCurr[5] != 0 {
		t.Errorf("expected shadow clamped at 0, got %f", f.ShadCurr[5])
	}
}

func TestFieldsCoverKeepsMax(t *testing.T) {
	f := NewFields(2)
	f.Configure(0.1, 0, 1)

	f.Cover(0, 0.8)
	f.Advance(nil)
	f.Cover(0, 0.25)
	if got := f.ShadCurr[0]; math.Abs(float64(got-0.7)) > 1e-6 {
		t.Errorf("expected faded shadow 0.7 to win over coverage 0.25, got %f", got)
	}
	f.Cover(0, 3)
	if f.ShadCurr[0] != 1 {
		t.Errorf("expected coverage clamped to 1, got %f", f.ShadCurr[0])
	}
}

func TestFieldsTurbulenceBlurDecay(t *testing.T) {
	f := NewFields(5)
	f.Configure(0.5, 2, 1)

	centre := 2*5 + 2
	f.Deposit(centre, mgl32.Vec2{9, 0})
	f.Advance(parallel.NewPool(1))

	keep := float32(math.Exp(-1))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			want := float32(0)
			if x >= 1 && x <= 3 && y >= 1 && y <= 3 {
				want = keep
			}
			got := f.TurbCurr[y*5+x][0]
			if math.Abs(float64(got-want)) > 1e-5 {
				t.Errorf("cell (%d,%d): expected %f, got %f", x, y, want, got)
			}
		}
	}
}

func TestFieldsIndex(t *testing.T) {
	f := NewFields(8)
	if got := f.Index(0, 0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := f.Index(7, 5); got != 1*8+1 {
		t.Errorf("expected 9, got %d", got)
	}
	if got := f.Index(31, 31); got != 63 {
		t.Errorf("expected 63, got %d", got)
	}
}

func TestFieldsClear(t *testing.T) {
	f := NewFields(2)
	f.Configure(0.1, 1, 1)
	f.Deposit(1, mgl32.Vec2{1, 1})
	f.Cover(2, 1)
	f.Advance(nil)
	f.Clear()
	for i := range f.ShadCurr {
		if f.ShadCurr[i] != 0 || f.ShadPrev[i] != 0 || f.TurbCurr[i] != (mgl32.Vec2{}) || f.TurbPrev[i] != (mgl32.Vec2{}) {
			t.Fatalf("cell %d not cleared", i)
		}
	}
}
