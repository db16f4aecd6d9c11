package cloth

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/geometry"
)

func init() {
	config.MustInit("")
}

func smallCloth(t *testing.T) *Cloth {
	t.Helper()
	cfg := config.Cfg().Cloth
	cfg.Cols = 6
	cfg.Rows = 5
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsDegenerate(t *testing.T) {
	cfg := config.Cfg().Cloth
	cfg.Rows = 1
	if _, err := New(cfg); err == nil {
		t.Error("expected error for a single row")
	}
	cfg = config.Cfg().Cloth
	cfg.Mass = 0
	if _, err := New(cfg); err == nil {
		t.Error("expected error for zero mass")
	}
}

func TestMeshFacesUpstream(t *testing.T) {
	c := smallCloth(t)
	m := c.Mesh()
	if !m.TwoSided {
		t.Error("expected a two-sided mesh")
	}
	if want := 2 * 5 * 4; len(m.Triangles) != want {
		t.Fatalf("expected %d triangles, got %d", want, len(m.Triangles))
	}
	for i := range m.Triangles {
		if n := m.FaceNormal(i); n.Z() >= 0 {
			t.Fatalf("triangle %d normal %v does not face -Z", i, n)
		}
	}
}

func TestPinnedRowHolds(t *testing.T) {
	c := smallCloth(t)
	top := c.Vertex(2)
	for i := 0; i < 100; i++ {
		c.Step()
	}
	if c.Vertex(2) != top {
		t.Errorf("pinned vertex moved from %v to %v", top, c.Vertex(2))
	}
	cols, rows := c.Size()
	bottom := c.Vertex((rows-1)*cols + 2)
	if bottom.Y() > float32(-config.Cfg().Cloth.Height/2)+1e-3 {
		t.Errorf("expected free vertices to hang below the pins, got y=%f", bottom.Y())
	}
	if s := c.MaxStretch(); s > 0.1 {
		t.Errorf("expected links near rest length, max stretch %f", s)
	}
}

func TestForceDisplacesDownstream(t *testing.T) {
	c := smallCloth(t)
	cols, rows := c.Size()
	for step := 0; step < 50; step++ {
		for i := cols; i < cols*rows; i++ {
			c.OnVertexForce(i, mgl32.Vec3{0, 0, 0.05})
		}
		c.Step()
	}
	if z := c.Vertex((rows-1)*cols + 2).Z(); z <= 0 {
		t.Errorf("expected sheet blown downstream, got z=%f", z)
	}
	if f := c.Pending(cols); f != (mgl32.Vec3{}) {
		t.Errorf("expected forces cleared after Step, got %v", f)
	}
}

func TestOnVertexForceIgnoresOutOfRange(t *testing.T) {
	c := smallCloth(t)
	c.OnVertexForce(-1, mgl32.Vec3{1, 1, 1})
	c.OnVertexForce(1000, mgl32.Vec3{1, 1, 1})
}

func TestSweepFeedsCloth(t *testing.T) {
	c := smallCloth(t)
	p := aero.ParamsFromConfig(config.Cfg())
	p.TexSize = 64
	p.SliceCount = 10
	p.CapacityDivisor = 1
	sim, err := aero.New(p)
	if err != nil {
		t.Fatalf("aero.New: %v", err)
	}
	defer sim.Close()
	sim.SetVertexSink(c)

	wind := aero.Wind{FrameWidth: 2, FrameDepth: 2, Speed: 10}
	if err := sim.BeginSweep(geometry.NewMeshSampler(c.Mesh()), mgl32.Ident4(), mgl32.Ident3(), wind); err != nil {
		t.Fatalf("BeginSweep: %v", err)
	}
	sim.Sweep()

	var total mgl32.Vec3
	for i := 0; i < len(c.pos); i++ {
		total = total.Add(c.Pending(i))
	}
	if total.Z() <= 0 {
		t.Errorf("expected net downstream force from the sweep, got %v", total)
	}
}
