// Package geometry provides cross-section samplers and demo shapes for the
// slice-sweep estimator.
package geometry

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
)

const (
	defaultMaxSteps = 128
	minStepFraction = 0.1 // Minimum march step, fraction of the band half-width
)

// Compile-time interface check.
var _ aero.Sampler = (*SDFSampler)(nil)

// SDFSampler samples an sdfx solid. A cell is occupied when a ray marched
// along the wind axis through the slice comes within half a pixel of the
// surface. Interiors are not marked.
type SDFSampler struct {
	Solid    sdf.SDF3
	MaxSteps int
}

// NewSDFSampler wraps a solid.
func NewSDFSampler(solid sdf.SDF3) *SDFSampler {
	return &SDFSampler{Solid: solid, MaxSteps: defaultMaxSteps}
}

// Sample implements aero.Sampler.
func (s *SDFSampler) Sample(dst *aero.Occupancy, req aero.SampleRequest) {
	if s.Solid == nil {
		return
	}
	inv := req.Transform.Inv()
	scale := req.Transform.Col(0).Vec3().Len()
	if scale == 0 {
		return
	}
	eps := req.PixelSize / 2

	// Cull against the transformed bounding box
	lo, hi := windBounds(s.Solid.BoundingBox(), req.Transform)
	if hi[2] < req.ZNear-eps || lo[2] > req.ZFar+eps {
		return
	}
	n := dst.Size
	x0 := max(req.CellOf(lo[0]-eps), 0)
	x1 := min(req.CellOf(hi[0]+eps), n-1)
	y0 := max(req.CellOf(lo[1]-eps), 0)
	y1 := min(req.CellOf(hi[1]+eps), n-1)
	if x0 > x1 || y0 > y1 {
		return
	}

	maxSteps := s.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}

	req.Pool.Run(y1-y0+1, func(_, r0, r1 int) {
		for cy := y0 + r0; cy < y0+r1; cy++ {
			for cx := x0; cx <= x1; cx++ {
				c := req.CellCenter(cx, cy)
				z, ok := s.march(inv, scale, c, req.ZNear, req.ZFar, eps, maxSteps)
				if !ok {
					continue
				}
				pos := mgl32.Vec3{c[0], c[1], z}
				dst.Set(dst.Index(cx, cy), pos, s.normal(inv, req.NormalTransform, pos, eps/(4*scale)), -1)
			}
		}
	})
}

// march steps along +Z from zNear and returns the first depth inside the
// surface band, if any before zFar.
func (s *SDFSampler) march(inv mgl32.Mat4, scale float32, c mgl32.Vec2, zNear, zFar, eps float32, maxSteps int) (float32, bool) {
	minStep := eps * minStepFraction
	z := zNear
	for i := 0; i < maxSteps && z <= zFar; i++ {
		d := s.eval(inv, mgl32.Vec3{c[0], c[1], z}) * scale
		ad := float32(math.Abs(float64(d)))
		if ad <= eps {
			return z, true
		}
		z += max(ad-eps, minStep)
	}
	return 0, false
}

// eval returns the object-space distance at a wind-space point.
func (s *SDFSampler) eval(inv mgl32.Mat4, p mgl32.Vec3) float32 {
	o := inv.Mul4x1(p.Vec4(1))
	return float32(s.Solid.Evaluate(v3.Vec{X: float64(o[0]), Y: float64(o[1]), Z: float64(o[2])}))
}

// normal estimates the surface normal by central differences in object
// space and maps it to wind space.
func (s *SDFSampler) normal(inv mgl32.Mat4, normalTransform mgl32.Mat3, p mgl32.Vec3, h float32) mgl32.Vec3 {
	o := inv.Mul4x1(p.Vec4(1)).Vec3()
	hh := float64(h)
	at := func(dx, dy, dz float64) float64 {
		return s.Solid.Evaluate(v3.Vec{X: float64(o[0]) + dx, Y: float64(o[1]) + dy, Z: float64(o[2]) + dz})
	}
	g := mgl32.Vec3{
		float32(at(hh, 0, 0) - at(-hh, 0, 0)),
		float32(at(0, hh, 0) - at(0, -hh, 0)),
		float32(at(0, 0, hh) - at(0, 0, -hh)),
	}
	n := normalTransform.Mul3x1(g)
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{0, 0, -1}
}

// windBounds transforms an object-space box and returns its wind-space bounds.
func windBounds(box sdf.Box3, m mgl32.Mat4) (lo, hi mgl32.Vec3) {
	lo = mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi = mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec4{
			float32(pick(i&1 != 0, box.Max.X, box.Min.X)),
			float32(pick(i&2 != 0, box.Max.Y, box.Min.Y)),
			float32(pick(i&4 != 0, box.Max.Z, box.Min.Z)),
			1,
		}
		w := m.Mul4x1(corner)
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], w[k])
			hi[k] = max(hi[k], w[k])
		}
	}
	return lo, hi
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
