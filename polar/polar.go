// Package polar runs the estimator over a range of angles of attack.
package polar

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/scene"
)

// Point is the estimator output at one angle of attack.
type Point struct {
	Angle      float64 `csv:"angle"`
	Lift       float64 `csv:"lift"`
	Drag       float64 `csv:"drag"`
	Side       float64 `csv:"side"`
	TorqueX    float64 `csv:"torque_x"`
	CL         float64 `csv:"cl"`
	CD         float64 `csv:"cd"`
	Dropped    int     `csv:"dropped"`
	DurationMS float64 `csv:"duration_ms"`
}

// Runner sweeps one scene configuration at chosen angles.
type Runner struct {
	cfg     *config.Config
	sim     *aero.Simulator
	wind    aero.Wind
	refArea float64

	// Sweeps per angle; results are averaged over the last Repeat
	Repeat int
}

// NewRunner creates a runner for cfg.Scene. workers overrides the pool size
// when positive.
func NewRunner(cfg *config.Config, workers int) (*Runner, error) {
	area := ReferenceArea(cfg)
	if area <= 0 {
		return nil, fmt.Errorf("polar: no reference area for shape %q", cfg.Scene.Shape)
	}
	p := aero.ParamsFromConfig(cfg)
	if workers > 0 {
		p.Workers = workers
	}
	sim, err := aero.New(p)
	if err != nil {
		return nil, fmt.Errorf("polar: %w", err)
	}
	return &Runner{
		cfg:     cfg,
		sim:     sim,
		wind:    aero.WindFromConfig(cfg),
		refArea: area,
		Repeat:  1,
	}, nil
}

// Close releases the simulator's workers.
func (r *Runner) Close() { r.sim.Close() }

// Simulator exposes the underlying simulator.
func (r *Runner) Simulator() *aero.Simulator { return r.sim }

// At sweeps the scene at the given angle of attack, degrees.
func (r *Runner) At(angle float64) (Point, error) {
	sc := r.cfg.Scene
	sc.AngleOfAttack = angle
	s, err := scene.FromConfig(sc)
	if err != nil {
		return Point{}, err
	}
	sampler, err := s.Sampler()
	if err != nil {
		return Point{}, err
	}
	world, _ := s.Transform()
	model, normal, fallback := r.wind.Frame(world)
	if fallback {
		slog.Warn("degenerate wind basis, using fallback up axis", "direction", r.wind.Direction, "up", r.wind.Up)
	}

	start := time.Now()
	var total aero.Result
	dropped := 0
	repeat := max(r.Repeat, 1)
	for i := 0; i < repeat; i++ {
		if err := r.sim.BeginSweep(sampler, model, normal, r.wind); err != nil {
			return Point{}, err
		}
		r.sim.Sweep()
		total = total.Add(r.sim.Result())
		st := r.sim.Stats()
		dropped += st.SweepGeoDropped + st.SweepAirDropped
	}
	scale := 1 / float64(repeat)
	avg := aero.Result{
		Lift:   total.Lift.Mul(scale),
		Drag:   total.Drag.Mul(scale),
		Side:   total.Side.Mul(scale),
		Torque: total.Torque.Mul(scale),
	}

	f := avg.Force()
	cl, cd := avg.Coefficients(r.cfg.Aero.AirDensity, float64(r.wind.Speed), r.refArea)
	return Point{
		Angle:      angle,
		Lift:       f[1],
		Drag:       f[2],
		Side:       f[0],
		TorqueX:    avg.Torque[0],
		CL:         cl,
		CD:         cd,
		Dropped:    dropped,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// Run sweeps every angle in order. onPoint, if set, sees each point as it
// completes.
func (r *Runner) Run(angles []float64, onPoint func(Point)) ([]Point, error) {
	points := make([]Point, 0, len(angles))
	for _, a := range angles {
		p, err := r.At(a)
		if err != nil {
			return points, fmt.Errorf("angle %.2f: %w", a, err)
		}
		points = append(points, p)
		if onPoint != nil {
			onPoint(p)
		}
	}
	return points, nil
}

// Angles expands a polar range into angles from MinAngle to MaxAngle
// inclusive.
func Angles(pc config.PolarConfig) []float64 {
	if pc.StepAngle <= 0 || pc.MaxAngle < pc.MinAngle {
		return []float64{pc.MinAngle}
	}
	n := int(math.Floor((pc.MaxAngle-pc.MinAngle)/pc.StepAngle+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = pc.MinAngle + float64(i)*pc.StepAngle
	}
	return out
}

// ReferenceArea returns the area coefficients are normalized by: planform
// for plates, wings and cloth, frontal for spheres and cylinders.
func ReferenceArea(cfg *config.Config) float64 {
	s := cfg.Scene
	switch s.Shape {
	case "plate", "wing":
		return s.Span * s.Chord
	case "sphere":
		return math.Pi * s.Radius * s.Radius
	case "cylinder":
		return 2 * s.Radius * s.Span
	case "cloth":
		return cfg.Cloth.Width * cfg.Cloth.Height
	}
	return 0
}
