package aero

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/parallel"
)

// Occupancy is the per-slice cross-section grid written by a Sampler.
// Cell (cx, cy) lives at index cy*Size+cx.
type Occupancy struct {
	Size     int
	Occupied []bool
	Pos      []mgl32.Vec3 // Wind-space surface sample
	Normal   []mgl32.Vec3 // Wind-space unit normal
	Vertex   []int32      // Source vertex, -1 when unknown
}

// NewOccupancy allocates an empty size x size grid.
func NewOccupancy(size int) *Occupancy {
	o := &Occupancy{
		Size:     size,
		Occupied: make([]bool, size*size),
		Pos:      make([]mgl32.Vec3, size*size),
		Normal:   make([]mgl32.Vec3, size*size),
		Vertex:   make([]int32, size*size),
	}
	o.Clear()
	return o
}

// Index returns the flat index of a cell.
func (o *Occupancy) Index(cx, cy int) int {
	return cy*o.Size + cx
}

// Set marks a cell occupied.
func (o *Occupancy) Set(i int, pos, normal mgl32.Vec3, vertex int32) {
	o.Occupied[i] = true
	o.Pos[i] = pos
	o.Normal[i] = normal
	o.Vertex[i] = vertex
}

// Clear empties every cell.
func (o *Occupancy) Clear() {
	clear(o.Occupied)
	for i := range o.Vertex {
		o.Vertex[i] = -1
	}
}

// Count returns the number of occupied cells.
func (o *Occupancy) Count() int {
	n := 0
	for _, v := range o.Occupied {
		if v {
			n++
		}
	}
	return n
}

// SampleRequest carries everything a Sampler needs for one slice.
type SampleRequest struct {
	Slice           Slice
	Transform       mgl32.Mat4 // Object space to wind space
	NormalTransform mgl32.Mat3 // Object normals to wind space
	ZNear, ZFar     float32    // Wind-space depth range of the slice
	FrameWidth      float32
	PixelSize       float32
	Pool            *parallel.Pool
}

// CellCenter returns the wind-space centre of a cell.
func (r SampleRequest) CellCenter(cx, cy int) mgl32.Vec2 {
	return cellCenter(r.FrameWidth, r.PixelSize, cx, cy)
}

// CellOf returns the cell containing a wind-space coordinate, unclamped.
func (r SampleRequest) CellOf(x float32) int {
	return cellOf(r.FrameWidth, r.PixelSize, x)
}

func cellCenter(width, pixel float32, cx, cy int) mgl32.Vec2 {
	h := width / 2
	return mgl32.Vec2{-h + (float32(cx)+0.5)*pixel, -h + (float32(cy)+0.5)*pixel}
}

func cellOf(width, pixel, x float32) int {
	return int(math.Floor(float64((x + width/2) / pixel)))
}
