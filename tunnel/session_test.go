package tunnel

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/config"
)

func init() {
	config.MustInit("")
}

func smallConfig(shape string) *config.Config {
	cfg := config.Cfg().Clone()
	cfg.Aero.TexSize = 32
	cfg.Aero.SliceCount = 8
	cfg.Aero.CapacityDivisor = 1
	cfg.Scene.Shape = shape
	cfg.Scene.Radius = 0.3
	cfg.Scene.AngleOfAttack = 0
	cfg.Telemetry.LogEvery = 2
	cfg.ComputeDerived()
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestStepCompletesSweep(t *testing.T) {
	s, err := New(smallConfig("sphere"), Options{Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	for i := 0; i < 7; i++ {
		done, err := s.Step()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if done {
			t.Fatalf("sweep completed early at slice %d", i)
		}
	}
	done, err := s.Step()
	if err != nil || !done {
		t.Fatalf("expected last slice to complete the sweep, done=%v err=%v", done, err)
	}
	if s.Sweeps() != 1 {
		t.Errorf("expected 1 sweep, got %d", s.Sweeps())
	}
	if _, cd := s.Coefficients(); cd <= 0 {
		t.Errorf("expected positive drag coefficient for a sphere, got %f", cd)
	}
}

func TestSweepWritesOutput(t *testing.T) {
	dir := t.TempDir()
	s, err := New(smallConfig("sphere"), Options{OutputDir: dir, Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Finish a partial sweep, then run two full ones
	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Sweep(); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	if s.Sweeps() != 3 {
		t.Errorf("expected 3 sweeps, got %d", s.Sweeps())
	}
	if s.Summary().Count == 0 {
		t.Error("expected flushed sweep stats after LogEvery sweeps")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if n := countLines(t, filepath.Join(dir, "sweeps.csv")); n != 4 {
		t.Errorf("sweeps.csv: expected header + 3 rows, got %d lines", n)
	}
	if n := countLines(t, filepath.Join(dir, "slices.csv")); n != 1+3*8 {
		t.Errorf("slices.csv: expected header + 24 rows, got %d lines", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config snapshot: %v", err)
	}
}

func TestClothMode(t *testing.T) {
	s, err := New(smallConfig("sphere"), Options{Cloth: true, Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.Shape() != "cloth" || s.Mesh() == nil {
		t.Fatalf("expected cloth mode, shape %q", s.Shape())
	}
	if err := s.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	c := s.Cloth()
	cols, rows := c.Size()
	moved := false
	for i := 0; i < cols*rows; i++ {
		if c.Vertex(i).Z() != 0 {
			moved = true
			break
		}
	}
	if !moved {
		t.Error("expected wind to displace the cloth along the wind axis")
	}

	if err := s.SetCloth(false); err != nil {
		t.Fatalf("SetCloth(false): %v", err)
	}
	if s.Mesh() != nil {
		t.Error("expected no mesh outside cloth mode")
	}
}

func TestClothOnlyScene(t *testing.T) {
	s, err := New(smallConfig("cloth"), Options{Workers: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if !s.ClothMode() {
		t.Error("expected cloth shape to start in cloth mode")
	}
	if err := s.SetCloth(false); err == nil {
		t.Error("expected error leaving cloth mode without rigid parts")
	}
}

func TestUnknownShape(t *testing.T) {
	if _, err := New(smallConfig("teapot"), Options{}); err == nil {
		t.Error("expected error for unknown shape")
	}
}

func TestAnimateMovesFlap(t *testing.T) {
	cfg := smallConfig("wing")
	cfg.Scene.FlapRate = 5
	s, err := New(cfg, Options{Animate: true, Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	before := s.Scene().Deflection()
	if err := s.Sweep(); err != nil {
		t.Fatal(err)
	}
	if s.Scene().Deflection() == before {
		t.Error("expected hinge to move between sweeps")
	}

	s.SetFlap(10)
	if d := s.Scene().Deflection(); d < 0.17 || d > 0.18 {
		t.Errorf("expected 10 degree deflection, got %f rad", d)
	}
}

func TestWindParallelToUpFallsBack(t *testing.T) {
	cfg := smallConfig("sphere")
	cfg.Wind.Direction = [3]float64{0, -3, 0}
	cfg.Wind.Up = [3]float64{0, 1, 0}
	s, err := New(cfg, Options{Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if !s.BasisFallback() {
		t.Error("expected fallback basis for wind parallel to up")
	}
	if _, cd := s.Coefficients(); cd <= 0 {
		t.Errorf("expected the sphere still to see drag, got cd=%f", cd)
	}

	// World -Y is the wind, so it must land on wind-space +Z
	down := s.Model().Mul4x1(mgl32.Vec4{0, -1, 0, 0}).Vec3()
	if down.Sub(mgl32.Vec3{0, 0, 1}).Len() > 1e-5 {
		t.Errorf("expected world wind mapped to +Z, got %v", down)
	}
}

func TestDefaultWindUsesRegularBasis(t *testing.T) {
	s, err := New(smallConfig("sphere"), Options{Workers: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if err := s.Sweep(); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if s.BasisFallback() {
		t.Error("unexpected fallback for wind along +Z with +Y up")
	}
}
