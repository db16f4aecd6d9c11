package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
)

// Mesh is an indexed triangle mesh in object space.
type Mesh struct {
	Vertices  []mgl32.Vec3
	Triangles [][3]int32
	TwoSided  bool // Normals are flipped to face upstream
}

// FaceNormal returns the unnormalized object-space normal of triangle t,
// counter-clockwise winding.
func (m *Mesh) FaceNormal(t int) mgl32.Vec3 {
	tri := m.Triangles[t]
	a, b, c := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// Compile-time interface check.
var _ aero.Sampler = (*MeshSampler)(nil)

// MeshSampler rasterizes a triangle mesh into the slice grid. Where several
// triangles cover a cell, the one nearest upstream within the slice wins.
type MeshSampler struct {
	Mesh *Mesh

	// Scratch, reused across slices
	wind    []mgl32.Vec3
	normals []mgl32.Vec3
	boxes   []triBox
}

type triBox struct {
	lo, hi mgl32.Vec3
	skip   bool
}

// NewMeshSampler wraps a mesh. The mesh may be mutated between slices.
func NewMeshSampler(m *Mesh) *MeshSampler {
	return &MeshSampler{Mesh: m}
}

// Sample implements aero.Sampler.
func (s *MeshSampler) Sample(dst *aero.Occupancy, req aero.SampleRequest) {
	m := s.Mesh
	if m == nil || len(m.Triangles) == 0 {
		return
	}
	s.prepare(req)

	n := dst.Size
	req.Pool.Run(n, func(_, y0, y1 int) {
		// Row band of this chunk in wind space
		bandLo := req.CellCenter(0, y0)[1] - req.PixelSize/2
		bandHi := req.CellCenter(0, y1-1)[1] + req.PixelSize/2
		for t := range m.Triangles {
			b := &s.boxes[t]
			if b.skip || b.hi[1] < bandLo || b.lo[1] > bandHi {
				continue
			}
			s.rasterize(dst, req, t, y0, y1)
		}
	})
}

// prepare transforms vertices and normals into wind space and computes the
// triangle bounds for this slice.
func (s *MeshSampler) prepare(req aero.SampleRequest) {
	m := s.Mesh
	if cap(s.wind) < len(m.Vertices) {
		s.wind = make([]mgl32.Vec3, len(m.Vertices))
	}
	s.wind = s.wind[:len(m.Vertices)]
	for i, v := range m.Vertices {
		s.wind[i] = req.Transform.Mul4x1(v.Vec4(1)).Vec3()
	}

	if cap(s.normals) < len(m.Triangles) {
		s.normals = make([]mgl32.Vec3, len(m.Triangles))
		s.boxes = make([]triBox, len(m.Triangles))
	}
	s.normals = s.normals[:len(m.Triangles)]
	s.boxes = s.boxes[:len(m.Triangles)]

	for t, tri := range m.Triangles {
		a, b, c := s.wind[tri[0]], s.wind[tri[1]], s.wind[tri[2]]
		lo := mgl32.Vec3{min(a[0], b[0], c[0]), min(a[1], b[1], c[1]), min(a[2], b[2], c[2])}
		hi := mgl32.Vec3{max(a[0], b[0], c[0]), max(a[1], b[1], c[1]), max(a[2], b[2], c[2])}
		skip := hi[2] < req.ZNear || lo[2] >= req.ZFar

		nrm := req.NormalTransform.Mul3x1(m.FaceNormal(t))
		if l := nrm.Len(); l > 1e-12 {
			nrm = nrm.Mul(1 / l)
		} else {
			skip = true
		}
		if m.TwoSided && nrm[2] > 0 {
			nrm = nrm.Mul(-1)
		}
		s.normals[t] = nrm
		s.boxes[t] = triBox{lo: lo, hi: hi, skip: skip}
	}
}

// rasterize writes triangle t into the cells of rows [y0, y1) whose centres
// it covers in projection and whose depth lies within the slice.
func (s *MeshSampler) rasterize(dst *aero.Occupancy, req aero.SampleRequest, t, y0, y1 int) {
	tri := s.Mesh.Triangles[t]
	a, b, c := s.wind[tri[0]], s.wind[tri[1]], s.wind[tri[2]]

	// Projected signed area
	area := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
	if float32(math.Abs(float64(area))) < 1e-12 {
		return
	}
	inv := 1 / area

	box := s.boxes[t]
	n := dst.Size
	cx0 := max(req.CellOf(box.lo[0]), 0)
	cx1 := min(req.CellOf(box.hi[0]), n-1)
	cy0 := max(req.CellOf(box.lo[1]), y0)
	cy1 := min(req.CellOf(box.hi[1]), y1-1)

	for cy := cy0; cy <= cy1; cy++ {
		for cx := cx0; cx <= cx1; cx++ {
			p := req.CellCenter(cx, cy)
			w0 := ((b[0]-p[0])*(c[1]-p[1]) - (c[0]-p[0])*(b[1]-p[1])) * inv
			w1 := ((c[0]-p[0])*(a[1]-p[1]) - (a[0]-p[0])*(c[1]-p[1])) * inv
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*a[2] + w1*b[2] + w2*c[2]
			if z < req.ZNear || z >= req.ZFar {
				continue
			}

			i := dst.Index(cx, cy)
			if dst.Occupied[i] && dst.Pos[i][2] <= z {
				continue
			}
			vertex := tri[0]
			if w1 > w0 && w1 >= w2 {
				vertex = tri[1]
			} else if w2 > w0 && w2 > w1 {
				vertex = tri[2]
			}
			dst.Set(i, mgl32.Vec3{p[0], p[1], z}, s.normals[t], vertex)
		}
	}
}
