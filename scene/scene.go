// Package scene holds the object placed in the windframe as ECS parts.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/geometry"
)

// MaxDeflection bounds hinge travel, radians.
const MaxDeflection = math.Pi / 6

// ErrEmpty is returned when a scene has no parts to sample.
var ErrEmpty = errors.New("scene: no parts")

// Part is a rigid solid in its own frame.
type Part struct {
	Name  string
	Solid sdf.SDF3
}

// Pose places a part in object space: rotation about the span axis, then
// translation.
type Pose struct {
	Offset v3.Vec
	Pitch  float64 // Radians
}

// Matrix returns the part-to-object transform.
func (p *Pose) Matrix() sdf.M44 {
	return sdf.Translate3d(p.Offset).Mul(sdf.RotateX(p.Pitch))
}

// Hinge drives a part's pitch. Rate is radians per Animate call; the angle
// reflects at Min and Max.
type Hinge struct {
	Angle    float64
	Min, Max float64
	Rate     float64
}

// Scene is a set of parts plus the object attitude in the windframe.
type Scene struct {
	world *ecs.World

	partMapper  *ecs.Map2[Part, Pose]
	hingeMapper *ecs.Map3[Part, Pose, Hinge]
	partFilter  *ecs.Filter2[Part, Pose]
	hingeFilter *ecs.Filter2[Pose, Hinge]

	AngleOfAttack float32 // Degrees, nose up positive
	Yaw           float32 // Degrees
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:       world,
		partMapper:  ecs.NewMap2[Part, Pose](world),
		hingeMapper: ecs.NewMap3[Part, Pose, Hinge](world),
		partFilter:  ecs.NewFilter2[Part, Pose](world),
		hingeFilter: ecs.NewFilter2[Pose, Hinge](world),
	}
}

// FromConfig builds the demo object named by cfg.Shape. The "cloth" shape
// has no rigid parts and is rejected here.
func FromConfig(cfg config.SceneConfig) (*Scene, error) {
	s := New()
	s.AngleOfAttack = float32(cfg.AngleOfAttack)
	s.Yaw = float32(cfg.Yaw)

	var (
		solid sdf.SDF3
		err   error
	)
	switch cfg.Shape {
	case "plate":
		solid, err = geometry.Plate(cfg.Span, cfg.Thickness, cfg.Chord)
	case "sphere":
		solid, err = geometry.Sphere(cfg.Radius)
	case "cylinder":
		solid, err = geometry.Cylinder(cfg.Radius, cfg.Span)
	case "wing":
		return s, s.addWing(cfg)
	default:
		return nil, fmt.Errorf("scene: unknown shape %q", cfg.Shape)
	}
	if err != nil {
		return nil, err
	}
	s.AddPart(cfg.Shape, solid, Pose{})
	return s, nil
}

func (s *Scene) addWing(cfg config.SceneConfig) error {
	main, flap, hingeZ, err := geometry.WingParts(geometry.WingSpec{
		Span:      cfg.Span,
		Chord:     cfg.Chord,
		Thickness: cfg.Thickness,
		FlapChord: cfg.FlapChord,
	})
	if err != nil {
		return err
	}
	s.AddPart("main", main, Pose{})
	if flap != nil {
		angle := clamp(cfg.FlapDeflection*math.Pi/180, -MaxDeflection, MaxDeflection)
		s.AddHinged("flap", flap, Pose{Offset: v3.Vec{Z: hingeZ}}, Hinge{
			Angle: angle,
			Min:   -MaxDeflection,
			Max:   MaxDeflection,
			Rate:  cfg.FlapRate * math.Pi / 180,
		})
	}
	return nil
}

// AddPart adds a rigid part.
func (s *Scene) AddPart(name string, solid sdf.SDF3, pose Pose) ecs.Entity {
	return s.partMapper.NewEntity(&Part{Name: name, Solid: solid}, &pose)
}

// AddHinged adds a part whose pitch follows a hinge.
func (s *Scene) AddHinged(name string, solid sdf.SDF3, pose Pose, hinge Hinge) ecs.Entity {
	pose.Pitch = hinge.Angle
	return s.hingeMapper.NewEntity(&Part{Name: name, Solid: solid}, &pose, &hinge)
}

// Animate advances every hinge by its rate and updates the poses.
func (s *Scene) Animate() {
	query := s.hingeFilter.Query()
	for query.Next() {
		pose, hinge := query.Get()
		if hinge.Rate != 0 {
			hinge.Angle += hinge.Rate
			if hinge.Angle > hinge.Max {
				hinge.Angle = 2*hinge.Max - hinge.Angle
				hinge.Rate = -hinge.Rate
			} else if hinge.Angle < hinge.Min {
				hinge.Angle = 2*hinge.Min - hinge.Angle
				hinge.Rate = -hinge.Rate
			}
		}
		pose.Pitch = hinge.Angle
	}
}

// SetDeflection sets every hinge angle, clamped to its limits.
func (s *Scene) SetDeflection(angle float64) {
	query := s.hingeFilter.Query()
	for query.Next() {
		pose, hinge := query.Get()
		hinge.Angle = clamp(angle, hinge.Min, hinge.Max)
		pose.Pitch = hinge.Angle
	}
}

// Deflection returns the first hinge angle, or 0 without hinges.
func (s *Scene) Deflection() float64 {
	var angle float64
	found := false
	query := s.hingeFilter.Query()
	for query.Next() {
		_, hinge := query.Get()
		if !found {
			angle = hinge.Angle
			found = true
		}
	}
	return angle
}

// Parts returns the number of parts in the scene.
func (s *Scene) Parts() int {
	n := 0
	query := s.partFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Solid composes the posed parts into one object-space solid.
func (s *Scene) Solid() (sdf.SDF3, error) {
	var solids []sdf.SDF3
	query := s.partFilter.Query()
	for query.Next() {
		part, pose := query.Get()
		if part.Solid == nil {
			continue
		}
		if pose.Offset == (v3.Vec{}) && pose.Pitch == 0 {
			solids = append(solids, part.Solid)
			continue
		}
		solids = append(solids, sdf.Transform3D(part.Solid, pose.Matrix()))
	}
	switch len(solids) {
	case 0:
		return nil, ErrEmpty
	case 1:
		return solids[0], nil
	}
	return sdf.Union3D(solids...), nil
}

// Sampler returns an SDF sampler over the current posed solid.
func (s *Scene) Sampler() (*geometry.SDFSampler, error) {
	solid, err := s.Solid()
	if err != nil {
		return nil, err
	}
	return geometry.NewSDFSampler(solid), nil
}

// Transform returns the object-to-windframe matrix and its normal matrix.
// Pitch raises the leading edge (-Z) toward +Y; yaw turns about +Y.
func (s *Scene) Transform() (mgl32.Mat4, mgl32.Mat3) {
	return Attitude(s.AngleOfAttack, s.Yaw)
}

// Attitude builds the model and normal matrices for an angle of attack and
// yaw in degrees.
func Attitude(aoa, yaw float32) (mgl32.Mat4, mgl32.Mat3) {
	model := mgl32.HomogRotate3DY(mgl32.DegToRad(yaw)).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(aoa)))
	return model, model.Mat3().Inv().Transpose()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
