package geometry

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/parallel"
)

func request(size int, zNear, zFar float32) aero.SampleRequest {
	return aero.SampleRequest{
		Transform:       mgl32.Ident4(),
		NormalTransform: mgl32.Ident3(),
		ZNear:           zNear,
		ZFar:            zFar,
		FrameWidth:      2,
		PixelSize:       2 / float32(size),
		Pool:            parallel.NewPool(2),
	}
}

func TestSDFSamplerFrontCap(t *testing.T) {
	solid, err := Sphere(0.48)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	occ := aero.NewOccupancy(40)
	req := request(40, -0.6, -0.4)
	defer req.Pool.Close()

	NewSDFSampler(solid).Sample(occ, req)

	c := occ.Index(20, 20)
	if !occ.Occupied[c] {
		t.Fatal("expected centre cell occupied by the front cap")
	}
	if n := occ.Normal[c]; n[2] > -0.9 {
		t.Errorf("expected normal facing upstream, got %v", n)
	}
	if z := occ.Pos[c][2]; z < -0.6 || z > -0.4 {
		t.Errorf("expected depth within slice, got %f", z)
	}
	if occ.Vertex[c] != -1 {
		t.Errorf("expected no source vertex, got %d", occ.Vertex[c])
	}
	if occ.Occupied[occ.Index(0, 0)] {
		t.Error("corner cell should be empty")
	}
}

func TestSDFSamplerSurfaceOnly(t *testing.T) {
	solid, err := Sphere(0.48)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	occ := aero.NewOccupancy(40)
	req := request(40, -0.1, 0.1)
	defer req.Pool.Close()

	NewSDFSampler(solid).Sample(occ, req)

	if occ.Occupied[occ.Index(20, 20)] {
		t.Error("interior cell should not be marked")
	}
	// Cell centre at x=0.475 lies within half a pixel of the equator
	rim := occ.Index(29, 20)
	if !occ.Occupied[rim] {
		t.Fatal("expected rim cell occupied")
	}
	if n := occ.Normal[rim]; n[0] < 0.9 {
		t.Errorf("expected outward normal along +X, got %v", n)
	}
}

func TestSDFSamplerOutsideSlice(t *testing.T) {
	solid, err := Sphere(0.3)
	if err != nil {
		t.Fatalf("Sphere: %v", err)
	}
	occ := aero.NewOccupancy(32)
	req := request(32, 0.6, 0.8)
	defer req.Pool.Close()

	NewSDFSampler(solid).Sample(occ, req)
	if n := occ.Count(); n != 0 {
		t.Errorf("expected no occupied cells, got %d", n)
	}
}

func TestSDFSamplerTransformedNormals(t *testing.T) {
	solid, err := Plate(1, 0.02, 1)
	if err != nil {
		t.Fatalf("Plate: %v", err)
	}
	// Face-on: rotate the plate so its broad face looks upstream
	rot := mgl32.HomogRotate3DX(mgl32.DegToRad(90))
	occ := aero.NewOccupancy(32)
	req := request(32, -0.2, 0)
	req.Transform = rot
	req.NormalTransform = rot.Mat3()
	defer req.Pool.Close()

	NewSDFSampler(solid).Sample(occ, req)

	c := occ.Index(16, 16)
	if !occ.Occupied[c] {
		t.Fatal("expected centre of the face-on plate occupied")
	}
	if n := occ.Normal[c]; n[2] > -0.99 {
		t.Errorf("expected normal -Z, got %v", n)
	}
	if occ.Count() < 200 {
		t.Errorf("expected most of the 16x16 face occupied, got %d cells", occ.Count())
	}
}

func quad(z, top float32, twoSided bool) *Mesh {
	return &Mesh{
		Vertices: []mgl32.Vec3{
			{-0.5, -0.5, z},
			{0.5, -0.5, z},
			{0.5, top, z},
			{-0.5, top, z},
		},
		// Wound so the face normal points -Z
		Triangles: [][3]int32{{0, 2, 1}, {0, 3, 2}},
		TwoSided:  twoSided,
	}
}

func TestMeshSamplerQuad(t *testing.T) {
	m := quad(0, 0.45, false)
	occ := aero.NewOccupancy(16)
	req := request(16, -0.1, 0.1)
	defer req.Pool.Close()

	NewMeshSampler(m).Sample(occ, req)

	if n := occ.Count(); n != 64 {
		t.Fatalf("expected 64 covered cells, got %d", n)
	}
	c := occ.Index(4, 4)
	if !occ.Occupied[c] {
		t.Fatal("expected corner cell (4,4) occupied")
	}
	if n := occ.Normal[c]; n.Sub(mgl32.Vec3{0, 0, -1}).Len() > 1e-5 {
		t.Errorf("expected normal -Z, got %v", n)
	}
	if occ.Vertex[c] != 0 {
		t.Errorf("expected nearest vertex 0, got %d", occ.Vertex[c])
	}
	if occ.Occupied[occ.Index(3, 4)] {
		t.Error("cell outside the quad should be empty")
	}
}

func TestMeshSamplerDepthRange(t *testing.T) {
	occ := aero.NewOccupancy(16)
	req := request(16, 0.2, 0.4)
	defer req.Pool.Close()

	NewMeshSampler(quad(0, 0.45, false)).Sample(occ, req)
	if n := occ.Count(); n != 0 {
		t.Errorf("expected nothing sampled outside the slice, got %d", n)
	}
}

func TestMeshSamplerTwoSided(t *testing.T) {
	m := quad(0, 0.45, false)
	// Reverse winding: face normal now points downstream
	m.Triangles = [][3]int32{{0, 1, 2}, {0, 2, 3}}

	occ := aero.NewOccupancy(16)
	req := request(16, -0.1, 0.1)
	defer req.Pool.Close()

	NewMeshSampler(m).Sample(occ, req)
	c := occ.Index(8, 8)
	if n := occ.Normal[c]; n[2] < 0.99 {
		t.Errorf("one-sided mesh should keep its +Z normal, got %v", n)
	}

	m.TwoSided = true
	occ.Clear()
	NewMeshSampler(m).Sample(occ, req)
	if n := occ.Normal[c]; n[2] > -0.99 {
		t.Errorf("two-sided mesh should face upstream, got %v", n)
	}
}

func TestMeshSamplerNearestWins(t *testing.T) {
	front := quad(-0.05, 0.45, false)
	back := quad(0.05, 0.45, false)
	m := &Mesh{Vertices: append(back.Vertices, front.Vertices...)}
	m.Triangles = [][3]int32{{0, 2, 1}, {0, 3, 2}, {4, 6, 5}, {4, 7, 6}}

	occ := aero.NewOccupancy(16)
	req := request(16, -0.1, 0.1)
	defer req.Pool.Close()

	NewMeshSampler(m).Sample(occ, req)
	c := occ.Index(8, 8)
	if z := occ.Pos[c][2]; math.Abs(float64(z+0.05)) > 1e-5 {
		t.Errorf("expected upstream surface at z=-0.05, got %f", z)
	}
	if v := occ.Vertex[c]; v < 4 {
		t.Errorf("expected a vertex of the front quad, got %d", v)
	}
}

func TestWingFlapDeflection(t *testing.T) {
	wing, err := Wing(WingSpec{Span: 1, Chord: 0.5, Thickness: 0.05, FlapChord: 0.1, FlapAngle: math.Pi / 6})
	if err != nil {
		t.Fatalf("Wing: %v", err)
	}

	// On the deflected flap, below the chord line
	if d := wing.Evaluate(v3.Vec{X: 0, Y: -0.029, Z: 0.2}); d >= 0 {
		t.Errorf("expected point on deflected flap inside, sdf=%f", d)
	}
	// Where an undeflected flap would sit, above the deflected one
	if d := wing.Evaluate(v3.Vec{X: 0, Y: 0.02, Z: 0.2}); d <= 0 {
		t.Errorf("expected point above deflected flap outside, sdf=%f", d)
	}
	// Main element
	if d := wing.Evaluate(v3.Vec{X: 0, Y: 0, Z: -0.1}); d >= 0 {
		t.Errorf("expected main element interior, sdf=%f", d)
	}
}

func TestWingRejectsFlapChord(t *testing.T) {
	if _, err := Wing(WingSpec{Span: 1, Chord: 0.5, Thickness: 0.05, FlapChord: 0.5}); err == nil {
		t.Error("expected error for flap chord equal to chord")
	}
}

func TestCylinderAlongSpan(t *testing.T) {
	c, err := Cylinder(0.1, 1)
	if err != nil {
		t.Fatalf("Cylinder: %v", err)
	}
	if d := c.Evaluate(v3.Vec{X: 0.45}); d >= 0 {
		t.Errorf("expected point along span inside, sdf=%f", d)
	}
	if d := c.Evaluate(v3.Vec{Z: 0.45}); d <= 0 {
		t.Errorf("expected point along chord outside, sdf=%f", d)
	}
}
