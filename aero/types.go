// Package aero implements the slice-sweep aerodynamic estimator.
//
// An object is cut into thin slices along the wind axis. For each slice the
// cross section is sampled into a grid, occupied cells are compacted into a
// geometry list, parcels of air are tracked against that geometry, and the
// impacts are integrated into lift, drag and torque. Summing the slices gives
// the force for the whole object.
//
// Wind space: X is span, Y is up (lift) and Z points downstream along the wind.
package aero

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/aerosweep/config"
)

// Pass names reported to a PassObserver.
const (
	PassSample   = "sample"
	PassProspect = "prospect"
	PassDiffuse  = "diffuse"
	PassDraw     = "draw"
	PassOutline  = "outline"
	PassMove     = "move"
	PassFeedback = "feedback"
)

// Passes lists the pass names in execution order.
var Passes = []string{PassSample, PassProspect, PassDiffuse, PassDraw, PassOutline, PassMove, PassFeedback}

var (
	// ErrInvalidParams is returned when configuration or wind parameters are unusable.
	ErrInvalidParams = errors.New("aero: invalid parameters")
	// ErrNoSampler is returned when a sweep is started without a sampler.
	ErrNoSampler = errors.New("aero: no sampler")
)

// Slice describes one cross section of the sweep.
type Slice struct {
	Index  int
	ZFront float32 // Upstream face, wind space
	Size   float32
}

// ZBack returns the downstream face of the slice.
func (s Slice) ZBack() float32 { return s.ZFront + s.Size }

// GeoPixel is one occupied cell of the current slice.
type GeoPixel struct {
	WindPos   mgl32.Vec2
	GridCoord [2]int32
	Normal    mgl32.Vec3
	Depth     float32 // Wind-space z of the sampled surface
	IsEdge    bool    // A 4-neighbour is empty or off grid
	Exposed   bool    // Cell was empty in the previous slice
	Vertex    int32   // Source vertex, -1 when unknown
}

// Pos3 returns the wind-space position of the sample.
func (g *GeoPixel) Pos3() mgl32.Vec3 {
	return mgl32.Vec3{g.WindPos[0], g.WindPos[1], g.Depth}
}

// AirPixel is a tracked parcel of air.
type AirPixel struct {
	WindPos    mgl32.Vec2
	Velocity   mgl32.Vec2 // Lateral velocity on top of the free stream
	Backforce  mgl32.Vec2 // Last repulsion applied near the surface
	Turbulence mgl32.Vec2
}

// Result is the aerodynamic load of one slice or of a whole sweep, in wind space.
type Result struct {
	Lift   mgl64.Vec3
	Drag   mgl64.Vec3
	Side   mgl64.Vec3 // Span component, scaled like lift
	Torque mgl64.Vec3
}

// Add returns the elementwise sum of two results.
func (r Result) Add(o Result) Result {
	return Result{
		Lift:   r.Lift.Add(o.Lift),
		Drag:   r.Drag.Add(o.Drag),
		Side:   r.Side.Add(o.Side),
		Torque: r.Torque.Add(o.Torque),
	}
}

// Force returns the total load: lift, drag and side force.
func (r Result) Force() mgl64.Vec3 {
	return r.Lift.Add(r.Drag).Add(r.Side)
}

// Coefficients returns the lift (up) and drag (downstream) coefficients of
// a sweep result for the given air density, wind speed and reference area.
// Side force does not enter either. Zero when the dynamic pressure or area
// vanishes.
func (r Result) Coefficients(density, speed, area float64) (cl, cd float64) {
	qa := 0.5 * density * speed * speed * area
	if qa <= 0 {
		return 0, 0
	}
	f := r.Force()
	return f[1] / qa, f[2] / qa
}

// Wind describes the windframe and the free stream.
type Wind struct {
	FrameWidth float32 // Cross-section extent, square
	FrameDepth float32 // Extent along the wind axis
	Speed      float32

	// World-space free-stream direction and up reference. The object's world
	// transform is taken into wind space through WindBasis(Direction, Up).
	Direction mgl32.Vec3
	Up        mgl32.Vec3
}

// Frame composes the wind basis with an object's world transform. fallback
// reports a degenerate basis (Direction parallel to Up, or zero).
func (w Wind) Frame(model mgl32.Mat4) (transform mgl32.Mat4, normal mgl32.Mat3, fallback bool) {
	return WindTransform(w.Direction, w.Up, model)
}

// Validate reports whether the wind can drive a sweep.
func (w Wind) Validate() error {
	if !positive(w.FrameWidth) {
		return fmt.Errorf("%w: frame width %v", ErrInvalidParams, w.FrameWidth)
	}
	if !positive(w.FrameDepth) {
		return fmt.Errorf("%w: frame depth %v", ErrInvalidParams, w.FrameDepth)
	}
	if !positive(w.Speed) {
		return fmt.Errorf("%w: wind speed %v", ErrInvalidParams, w.Speed)
	}
	return nil
}

// WindFromConfig builds the wind from the loaded configuration.
func WindFromConfig(cfg *config.Config) Wind {
	return Wind{
		FrameWidth: float32(cfg.Wind.FrameWidth),
		FrameDepth: float32(cfg.Wind.FrameDepth),
		Speed:      float32(cfg.Wind.Speed),
		Direction:  vec3f(cfg.Wind.Direction),
		Up:         vec3f(cfg.Wind.Up),
	}
}

func vec3f(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Params holds the tuning constants of the estimator.
type Params struct {
	TexSize         int
	SliceCount      int
	CapacityDivisor int
	MaxGeoPerAir    int

	LiftC           float32
	DragC           float32
	TurbulenceDist  float32
	MaxSearchDist   float32
	WindShadDist    float32
	BackforceC      float32
	Flowback        float32
	InitVelC        float32
	TurbulenceDecay float32
	AirDensity      float32

	Workers int // 0 = GOMAXPROCS
}

// ParamsFromConfig builds estimator parameters from the loaded configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	a := cfg.Aero
	return Params{
		TexSize:         a.TexSize,
		SliceCount:      a.SliceCount,
		CapacityDivisor: a.CapacityDivisor,
		MaxGeoPerAir:    a.MaxGeoPerAir,
		LiftC:           float32(a.LiftC),
		DragC:           float32(a.DragC),
		TurbulenceDist:  float32(a.TurbulenceDist),
		MaxSearchDist:   float32(a.MaxSearchDist),
		WindShadDist:    float32(a.WindShadDist),
		BackforceC:      float32(a.BackforceC),
		Flowback:        float32(a.Flowback),
		InitVelC:        float32(a.InitVelC),
		TurbulenceDecay: float32(a.TurbulenceDecay),
		AirDensity:      float32(a.AirDensity),
	}
}

// Capacity returns the bound shared by the geometry list and each air buffer.
func (p Params) Capacity() int {
	return p.TexSize * p.TexSize / p.CapacityDivisor
}

// Validate checks that the parameters describe a usable estimator.
func (p Params) Validate() error {
	if p.TexSize <= 0 || p.TexSize%4 != 0 {
		return fmt.Errorf("%w: tex size %d must be a positive multiple of 4", ErrInvalidParams, p.TexSize)
	}
	if p.SliceCount <= 0 {
		return fmt.Errorf("%w: slice count %d", ErrInvalidParams, p.SliceCount)
	}
	if p.CapacityDivisor <= 0 || p.Capacity() == 0 {
		return fmt.Errorf("%w: capacity divisor %d", ErrInvalidParams, p.CapacityDivisor)
	}
	if p.MaxGeoPerAir <= 0 {
		return fmt.Errorf("%w: max geo per air %d", ErrInvalidParams, p.MaxGeoPerAir)
	}
	if !positive(p.MaxSearchDist) {
		return fmt.Errorf("%w: max search dist %v", ErrInvalidParams, p.MaxSearchDist)
	}
	if !nonNegative(p.TurbulenceDist) || p.TurbulenceDist > p.MaxSearchDist {
		return fmt.Errorf("%w: turbulence dist %v must lie in [0, max search dist]", ErrInvalidParams, p.TurbulenceDist)
	}
	if !positive(p.WindShadDist) {
		return fmt.Errorf("%w: wind shadow dist %v", ErrInvalidParams, p.WindShadDist)
	}
	if !positive(p.AirDensity) {
		return fmt.Errorf("%w: air density %v", ErrInvalidParams, p.AirDensity)
	}
	for name, v := range map[string]float32{
		"lift_c":           p.LiftC,
		"drag_c":           p.DragC,
		"backforce_c":      p.BackforceC,
		"flowback":         p.Flowback,
		"init_vel_c":       p.InitVelC,
		"turbulence_decay": p.TurbulenceDecay,
	} {
		if !nonNegative(v) {
			return fmt.Errorf("%w: %s %v", ErrInvalidParams, name, v)
		}
	}
	return nil
}

// Stats reports list usage for the last slice and the running sweep.
type Stats struct {
	GeoCount   int
	AirCount   int
	GeoDropped int
	AirDropped int

	PeakGeo         int
	PeakAir         int
	SweepGeoDropped int
	SweepAirDropped int
}

// Sampler fills the occupancy grid for one slice of an object.
// Implementations may use req.Pool to split rows across workers; each cell
// must be written by at most one worker.
type Sampler interface {
	Sample(dst *Occupancy, req SampleRequest)
}

// VertexSink receives per-vertex forces for deformable surfaces.
// Forces are in object space and arrive on the goroutine calling Step.
type VertexSink interface {
	OnVertexForce(vertex int, force mgl32.Vec3)
}

// PassObserver is notified around each slice and each pass within it.
type PassObserver interface {
	StartSlice()
	StartPass(name string)
	EndSlice()
}

func positive(v float32) bool {
	return v > 0 && !math.IsInf(float64(v), 0)
}

func nonNegative(v float32) bool {
	return v >= 0 && !math.IsInf(float64(v), 0)
}
